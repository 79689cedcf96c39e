package observer

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/skobkin/msgsync/internal/bus"
	"github.com/skobkin/msgsync/internal/connectors"
	"github.com/skobkin/msgsync/internal/domain"
)

// ListObserver keeps the replies of one parent message projected in a
// ListOrdering and reports row changes against that projection.
type ListObserver struct {
	reader   Reader
	bus      bus.MessageBus
	parentID domain.MessageID
	logger   *slog.Logger
	onChange func([]domain.ListChange[domain.Message])

	mu       sync.Mutex
	ctx      context.Context
	stop     context.CancelFunc
	started  bool
	ordering domain.ListOrdering
	items    []domain.Message
}

func NewListObserver(reader Reader, b bus.MessageBus, parentID domain.MessageID, ordering domain.ListOrdering, logger *slog.Logger, onChange func([]domain.ListChange[domain.Message])) *ListObserver {
	return &ListObserver{
		reader:   reader,
		bus:      b,
		parentID: parentID,
		ordering: ordering,
		logger:   logger,
		onChange: onChange,
	}
}

func (o *ListObserver) Start(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.started {
		return nil
	}

	watchCtx, stop := context.WithCancel(ctx)
	bus.Watch(watchCtx, o.bus, connectors.TopicMessageStore, func(change connectors.MessageStoreChange) {
		if !o.affectedBy(change) {
			return
		}
		if err := o.Refresh(); err != nil {
			o.logger.Warn("refresh replies after store change", "parent_id", o.parentID, "error", err)
		}
	})

	replies, err := o.reader.Replies(watchCtx, o.parentID)
	if err != nil {
		stop()
		return fmt.Errorf("observe replies of %s: %w", o.parentID, err)
	}
	o.ctx = watchCtx
	o.stop = stop
	o.started = true
	o.items = o.ordering.Project(replies)

	return nil
}

// Items returns the projected replies.
func (o *ListObserver) Items() []domain.Message {
	o.mu.Lock()
	defer o.mu.Unlock()

	return slices.Clone(o.items)
}

func (o *ListObserver) Ordering() domain.ListOrdering {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.ordering
}

// SetOrdering re-sorts the cached snapshot. It does not touch the store and reports nothing.
func (o *ListObserver) SetOrdering(ordering domain.ListOrdering) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.ordering = ordering
	o.items = ordering.Project(o.items)
}

// Refresh re-reads the replies and reports the row changes, if any.
func (o *ListObserver) Refresh() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.started {
		return nil
	}

	replies, err := o.reader.Replies(o.ctx, o.parentID)
	if err != nil {
		return fmt.Errorf("refresh replies of %s: %w", o.parentID, err)
	}
	next := o.ordering.Project(replies)
	changes := diffList(o.items, next)
	o.items = next
	if len(changes) > 0 && o.onChange != nil {
		o.onChange(changes)
	}

	return nil
}

func (o *ListObserver) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.stop != nil {
		o.stop()
	}
	o.started = false
}

func (o *ListObserver) affectedBy(change connectors.MessageStoreChange) bool {
	if change.TouchesThread(o.parentID) {
		return true
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, m := range o.items {
		if change.Touches(m.ID) {
			return true
		}
	}

	return false
}
