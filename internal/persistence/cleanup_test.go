package persistence

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/skobkin/msgsync/internal/domain"
)

func TestClearDatabase_ClearsMessages(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, filepath.Join(t.TempDir(), "app.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer func() { _ = db.Close() }()

	repo := NewMessageRepo(db)
	parent := domain.Message{ID: "m1", AuthorID: "u1", ChannelID: domain.NewChannelID("messaging", "general"), CreatedAt: time.UnixMilli(1000)}
	child := parent
	child.ID = "r1"
	child.ParentID = "m1"
	if err := repo.Upsert(ctx, parent, child); err != nil {
		t.Fatalf("seed messages: %v", err)
	}

	if err := ClearDatabase(ctx, db); err != nil {
		t.Fatalf("clear database: %v", err)
	}

	var count int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(1) FROM messages`).Scan(&count); err != nil {
		t.Fatalf("count messages: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected messages table to be empty, got %d rows", count)
	}
}

func TestClearDatabase_NilDB(t *testing.T) {
	if err := ClearDatabase(context.Background(), nil); err == nil {
		t.Fatalf("expected error for nil db")
	}
}
