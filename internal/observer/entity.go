package observer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/skobkin/msgsync/internal/bus"
	"github.com/skobkin/msgsync/internal/connectors"
	"github.com/skobkin/msgsync/internal/domain"
)

// EntityObserver keeps the latest snapshot of one message and reports its changes.
type EntityObserver struct {
	reader   Reader
	bus      bus.MessageBus
	id       domain.MessageID
	logger   *slog.Logger
	onChange func(domain.EntityChange[domain.Message])

	mu      sync.Mutex
	ctx     context.Context
	stop    context.CancelFunc
	started bool
	current domain.Message
	present bool
}

func NewEntityObserver(reader Reader, b bus.MessageBus, id domain.MessageID, logger *slog.Logger, onChange func(domain.EntityChange[domain.Message])) *EntityObserver {
	return &EntityObserver{
		reader:   reader,
		bus:      b,
		id:       id,
		logger:   logger,
		onChange: onChange,
	}
}

// Start subscribes to store events and performs the initial fetch.
// The initial snapshot is not reported as a change.
func (o *EntityObserver) Start(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.started {
		return nil
	}

	watchCtx, stop := context.WithCancel(ctx)
	// Subscribe first so writes racing the initial fetch are not lost.
	bus.Watch(watchCtx, o.bus, connectors.TopicMessageStore, func(change connectors.MessageStoreChange) {
		if !change.Touches(o.id) {
			return
		}
		if err := o.Refresh(); err != nil {
			o.logger.Warn("refresh message after store change", "message_id", o.id, "error", err)
		}
	})

	current, present, err := o.reader.Get(watchCtx, o.id)
	if err != nil {
		stop()
		return fmt.Errorf("observe message %s: %w", o.id, err)
	}
	o.ctx = watchCtx
	o.stop = stop
	o.started = true
	o.current = current
	o.present = present

	return nil
}

// Item returns the latest observed snapshot.
func (o *EntityObserver) Item() (domain.Message, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.current.Clone(), o.present
}

// Refresh re-reads the message and reports a change if any field differs.
func (o *EntityObserver) Refresh() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.started {
		return nil
	}

	next, present, err := o.reader.Get(o.ctx, o.id)
	if err != nil {
		return fmt.Errorf("refresh message %s: %w", o.id, err)
	}
	change, changed := diffEntity(o.current, o.present, next, present)
	o.current = next
	o.present = present
	if changed && o.onChange != nil {
		o.onChange(change)
	}

	return nil
}

func (o *EntityObserver) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.stop != nil {
		o.stop()
	}
	o.started = false
}
