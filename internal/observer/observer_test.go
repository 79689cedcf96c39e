package observer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/skobkin/msgsync/internal/bus"
	"github.com/skobkin/msgsync/internal/connectors"
	"github.com/skobkin/msgsync/internal/domain"
)

type memReader struct {
	mu       sync.Mutex
	messages map[domain.MessageID]domain.Message
	reads    int
	err      error
}

func newMemReader(messages ...domain.Message) *memReader {
	r := &memReader{messages: make(map[domain.MessageID]domain.Message)}
	for _, m := range messages {
		r.messages[m.ID] = m
	}

	return r
}

func (r *memReader) put(m domain.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages[m.ID] = m
}

func (r *memReader) readCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.reads
}

func (r *memReader) Get(_ context.Context, id domain.MessageID) (domain.Message, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reads++
	if r.err != nil {
		return domain.Message{}, false, r.err
	}
	m, ok := r.messages[id]

	return m, ok, nil
}

func (r *memReader) Replies(_ context.Context, parentID domain.MessageID) ([]domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reads++
	if r.err != nil {
		return nil, r.err
	}
	var out []domain.Message
	for _, m := range r.messages {
		if m.ParentID == parentID {
			out = append(out, m)
		}
	}
	slices.SortFunc(out, domain.CompareCreated)

	return out, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestBus(t *testing.T) *bus.PubSubBus {
	t.Helper()
	b := bus.New(discardLogger())
	t.Cleanup(b.Close)

	return b
}

func TestEntityObserver_StartLoadsSnapshotWithoutChange(t *testing.T) {
	reader := newMemReader(domain.Message{ID: "m1", Text: "old"})
	var changes []domain.EntityChange[domain.Message]
	o := NewEntityObserver(reader, newTestBus(t), "m1", discardLogger(), func(c domain.EntityChange[domain.Message]) {
		changes = append(changes, c)
	})

	if err := o.Start(context.Background()); err != nil {
		t.Fatalf("start observer: %v", err)
	}
	defer o.Stop()

	m, ok := o.Item()
	if !ok || m.Text != "old" {
		t.Fatalf("expected initial snapshot with text old, got %+v (present=%v)", m, ok)
	}
	if len(changes) != 0 {
		t.Fatalf("expected no change for initial snapshot, got %d", len(changes))
	}
}

func TestEntityObserver_StartFailureIsWrapped(t *testing.T) {
	reader := newMemReader()
	reader.err = errors.New("database is closed")
	o := NewEntityObserver(reader, newTestBus(t), "m1", discardLogger(), nil)

	err := o.Start(context.Background())
	if err == nil || !errors.Is(err, reader.err) {
		t.Fatalf("expected wrapped reader error, got %v", err)
	}
}

func TestEntityObserver_ReportsUpdateAfterStoreEvent(t *testing.T) {
	reader := newMemReader(domain.Message{ID: "m1", Text: "old"})
	b := newTestBus(t)
	got := make(chan domain.EntityChange[domain.Message], 4)
	o := NewEntityObserver(reader, b, "m1", discardLogger(), func(c domain.EntityChange[domain.Message]) { got <- c })
	if err := o.Start(context.Background()); err != nil {
		t.Fatalf("start observer: %v", err)
	}
	defer o.Stop()

	reader.put(domain.Message{ID: "m1", Text: "new"})
	b.Publish(connectors.TopicMessageStore, connectors.MessageStoreChange{
		Kind:       connectors.StoreChangeUpsert,
		MessageIDs: []domain.MessageID{"m1"},
	})

	select {
	case change := <-got:
		text := domain.ProjectField(change, func(m domain.Message) string { return m.Text })
		if text.Kind != domain.EntityUpdate || text.Old != "old" || text.New != "new" {
			t.Fatalf("expected text update old->new, got %+v", text)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for change")
	}

	// Repeating the same event must not report anything new.
	if err := o.Refresh(); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	select {
	case change := <-got:
		t.Fatalf("expected no duplicate change, got %+v", change)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestListObserver_SetOrderingDoesNotReadStore(t *testing.T) {
	reader := newMemReader(
		domain.Message{ID: "r1", ParentID: "p1", CreatedAt: time.UnixMilli(1000)},
		domain.Message{ID: "r2", ParentID: "p1", CreatedAt: time.UnixMilli(2000)},
	)
	o := NewListObserver(reader, newTestBus(t), "p1", domain.TopToBottom, discardLogger(), nil)
	if err := o.Start(context.Background()); err != nil {
		t.Fatalf("start observer: %v", err)
	}
	defer o.Stop()

	items := o.Items()
	if items[0].ID != "r2" || items[1].ID != "r1" {
		t.Fatalf("expected newest first, got %s, %s", items[0].ID, items[1].ID)
	}

	reads := reader.readCount()
	o.SetOrdering(domain.BottomToTop)
	items = o.Items()
	if items[0].ID != "r1" || items[1].ID != "r2" {
		t.Fatalf("expected oldest first, got %s, %s", items[0].ID, items[1].ID)
	}
	if reader.readCount() != reads {
		t.Fatalf("expected no store reads on ordering change, got %d extra", reader.readCount()-reads)
	}
}

func TestListObserver_ReportsInsertsForThreadEvents(t *testing.T) {
	reader := newMemReader(domain.Message{ID: "r1", ParentID: "p1", CreatedAt: time.UnixMilli(1000)})
	b := newTestBus(t)
	got := make(chan []domain.ListChange[domain.Message], 4)
	o := NewListObserver(reader, b, "p1", domain.BottomToTop, discardLogger(), func(c []domain.ListChange[domain.Message]) { got <- c })
	if err := o.Start(context.Background()); err != nil {
		t.Fatalf("start observer: %v", err)
	}
	defer o.Stop()

	reader.put(domain.Message{ID: "r2", ParentID: "p1", CreatedAt: time.UnixMilli(2000)})
	reader.put(domain.Message{ID: "x1", ParentID: "other", CreatedAt: time.UnixMilli(3000)})
	b.Publish(connectors.TopicMessageStore, connectors.MessageStoreChange{
		Kind:       connectors.StoreChangeUpsert,
		MessageIDs: []domain.MessageID{"r2", "x1"},
		ParentIDs:  []domain.MessageID{"p1", "other"},
	})

	select {
	case changes := <-got:
		if len(changes) != 1 {
			t.Fatalf("expected one change, got %+v", changes)
		}
		if changes[0].Kind != domain.ListInsert || changes[0].Item.ID != "r2" || changes[0].Index.Row != 1 {
			t.Fatalf("expected r2 inserted at 1, got %+v", changes[0])
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for list change")
	}
}
