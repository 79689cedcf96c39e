package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/skobkin/msgsync/internal/domain"
)

const messageColumns = `id, channel_id, author_id, parent_id, text, created_at, updated_at, deleted_at, show_in_channel, reply_count, flagged, extra_data`

type MessageRepo struct {
	db *sql.DB
}

func NewMessageRepo(db *sql.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

func (r *MessageRepo) Get(ctx context.Context, id domain.MessageID) (domain.Message, bool, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+messageColumns+` FROM messages WHERE id = ?`, string(id))
	m, err := scanMessage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Message{}, false, nil
	}
	if err != nil {
		return domain.Message{}, false, fmt.Errorf("get message %s: %w", id, err)
	}

	return m, true, nil
}

// Upsert inserts missing messages and updates existing ones in place within one transaction.
func (r *MessageRepo) Upsert(ctx context.Context, messages ...domain.Message) error {
	if len(messages) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert messages tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, m := range messages {
		if m.ID.IsZero() {
			return fmt.Errorf("upsert message: empty id")
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO messages(`+messageColumns+`)
			VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				channel_id = excluded.channel_id,
				author_id = excluded.author_id,
				parent_id = excluded.parent_id,
				text = excluded.text,
				created_at = excluded.created_at,
				updated_at = excluded.updated_at,
				deleted_at = excluded.deleted_at,
				show_in_channel = excluded.show_in_channel,
				reply_count = excluded.reply_count,
				flagged = excluded.flagged,
				extra_data = excluded.extra_data
		`,
			string(m.ID),
			m.ChannelID.String(),
			string(m.AuthorID),
			nullableString(string(m.ParentID)),
			m.Text,
			toMillis(m.CreatedAt),
			toMillis(m.UpdatedAt),
			toMillis(m.DeletedAt),
			boolToInt(m.ShowInChannel),
			m.ReplyCount,
			boolToInt(m.Flagged),
			nullableString(string(m.ExtraData)),
		); err != nil {
			return fmt.Errorf("upsert message %s: %w", m.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert messages tx: %w", err)
	}

	return nil
}

func (r *MessageRepo) Remove(ctx context.Context, ids ...domain.MessageID) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders, args := inClause(ids)
	if _, err := r.db.ExecContext(ctx, `DELETE FROM messages WHERE id IN (`+placeholders+`)`, args...); err != nil {
		return fmt.Errorf("remove messages: %w", err)
	}

	return nil
}

// ParentIDs returns the distinct thread parents of the given messages.
func (r *MessageRepo) ParentIDs(ctx context.Context, ids ...domain.MessageID) ([]domain.MessageID, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders, args := inClause(ids)
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT parent_id
		FROM messages
		WHERE parent_id IS NOT NULL AND id IN (`+placeholders+`)
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("query parent ids: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var out []domain.MessageID
	for rows.Next() {
		var parentID string
		if err := rows.Scan(&parentID); err != nil {
			return nil, fmt.Errorf("scan parent id: %w", err)
		}
		out = append(out, domain.MessageID(parentID))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate parent ids: %w", err)
	}

	return out, nil
}

// Replies returns every stored reply of a parent ordered by creation time.
func (r *MessageRepo) Replies(ctx context.Context, parentID domain.MessageID) ([]domain.Message, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+messageColumns+`
		FROM messages
		WHERE parent_id = ?
		ORDER BY created_at ASC, id ASC
	`, string(parentID))
	if err != nil {
		return nil, fmt.Errorf("list replies of %s: %w", parentID, err)
	}

	return collectMessages(rows)
}

// ListReplies returns one page of replies ordered by creation time.
// Without a cursor the newest page is returned.
func (r *MessageRepo) ListReplies(ctx context.Context, parentID domain.MessageID, page domain.Pagination) ([]domain.Message, error) {
	page = page.Normalized()

	var (
		rows *sql.Rows
		err  error
	)
	switch page.Parameter.Kind {
	case domain.PageGreaterThan:
		rows, err = r.db.QueryContext(ctx, `
			SELECT `+prefixedColumns("m")+`
			FROM messages m, (SELECT created_at AS c_at, id AS c_id FROM messages WHERE id = ?) c
			WHERE m.parent_id = ?
				AND (m.created_at > c.c_at OR (m.created_at = c.c_at AND m.id > c.c_id))
			ORDER BY m.created_at ASC, m.id ASC
			LIMIT ?
		`, string(page.Parameter.Cursor), string(parentID), page.PageSize)
		if err != nil {
			return nil, fmt.Errorf("list replies after %s: %w", page.Parameter.Cursor, err)
		}

		return collectMessages(rows)
	case domain.PageLessThan:
		rows, err = r.db.QueryContext(ctx, `
			SELECT `+prefixedColumns("m")+`
			FROM messages m, (SELECT created_at AS c_at, id AS c_id FROM messages WHERE id = ?) c
			WHERE m.parent_id = ?
				AND (m.created_at < c.c_at OR (m.created_at = c.c_at AND m.id < c.c_id))
			ORDER BY m.created_at DESC, m.id DESC
			LIMIT ?
		`, string(page.Parameter.Cursor), string(parentID), page.PageSize)
	default:
		rows, err = r.db.QueryContext(ctx, `
			SELECT `+messageColumns+`
			FROM messages
			WHERE parent_id = ?
			ORDER BY created_at DESC, id DESC
			LIMIT ?
		`, string(parentID), page.PageSize)
	}
	if err != nil {
		return nil, fmt.Errorf("list replies page of %s: %w", parentID, err)
	}

	out, err := collectMessages(rows)
	if err != nil {
		return nil, err
	}
	slices.Reverse(out)

	return out, nil
}

func collectMessages(rows *sql.Rows) ([]domain.Message, error) {
	defer func() {
		_ = rows.Close()
	}()

	var out []domain.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	return out, nil
}

func scanMessage(scanner interface {
	Scan(dest ...any) error
}) (domain.Message, error) {
	var (
		m          domain.Message
		id         string
		channelRaw string
		authorID   string
		parentRaw  sql.NullString
		createdMs  int64
		updatedMs  int64
		deletedMs  int64
		showInChan int
		flagged    int
		extraRaw   sql.NullString
	)
	if err := scanner.Scan(&id, &channelRaw, &authorID, &parentRaw, &m.Text, &createdMs, &updatedMs, &deletedMs, &showInChan, &m.ReplyCount, &flagged, &extraRaw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Message{}, err
		}

		return domain.Message{}, fmt.Errorf("scan message: %w", err)
	}
	cid, err := domain.ParseChannelID(channelRaw)
	if err != nil {
		return domain.Message{}, fmt.Errorf("scan message %s: %w", id, err)
	}
	m.ID = domain.MessageID(id)
	m.ChannelID = cid
	m.AuthorID = domain.UserID(authorID)
	if parentRaw.Valid {
		m.ParentID = domain.MessageID(parentRaw.String)
	}
	m.CreatedAt = fromMillis(createdMs)
	m.UpdatedAt = fromMillis(updatedMs)
	m.DeletedAt = fromMillis(deletedMs)
	m.ShowInChannel = showInChan != 0
	m.Flagged = flagged != 0
	if extraRaw.Valid {
		m.ExtraData = []byte(extraRaw.String)
	}

	return m, nil
}

func prefixedColumns(alias string) string {
	cols := strings.Split(messageColumns, ", ")
	for i, col := range cols {
		cols[i] = alias + "." + col
	}

	return strings.Join(cols, ", ")
}

func inClause(ids []domain.MessageID) (string, []any) {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = string(id)
	}

	return strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", "), args
}

func nullableString(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

// Timestamps are stored as unix milliseconds; 0 means unset.
func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
