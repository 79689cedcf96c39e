package controller

import (
	"context"
	"log/slog"
	"runtime"
	"slices"
	"sync"
	"weak"

	"github.com/skobkin/msgsync/internal/domain"
	"github.com/skobkin/msgsync/internal/observer"
)

// MessageController exposes a live view of one message and its replies.
//
// Observers reach the controller through a weak pointer, so an idle controller
// is collected once callers drop it; in-flight operations keep it alive.
type MessageController struct {
	client    *Client
	channelID domain.ChannelID
	messageID domain.MessageID
	logger    *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	observeOnce sync.Once

	mu          sync.Mutex
	state       domain.ControllerState
	observeErr  error
	ordering    domain.ListOrdering
	delegate    Delegate
	funcs       DelegateFuncs
	hasFuncs    bool
	syncing     bool
	syncWaiters []func(error)
	entity      *observer.EntityObserver
	replies     *observer.ListObserver
}

func newMessageController(client *Client, cid domain.ChannelID, id domain.MessageID) *MessageController {
	ctx, cancel := context.WithCancel(client.ctx)
	c := &MessageController{
		client:    client,
		channelID: cid,
		messageID: id,
		logger:    client.logger.With("component", "controller", "message_id", string(id)),
		ctx:       ctx,
		cancel:    cancel,
		state:     domain.Initialized(),
		ordering:  client.ordering,
	}
	runtime.AddCleanup(c, func(stop context.CancelFunc) { stop() }, cancel)

	return c
}

func (c *MessageController) ChannelID() domain.ChannelID { return c.channelID }

func (c *MessageController) MessageID() domain.MessageID { return c.messageID }

func (c *MessageController) State() domain.ControllerState {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

// Message re-reads the locally stored message. The first call starts observation.
// A difference from the last snapshot is reported to the delegate as usual.
func (c *MessageController) Message() (domain.Message, bool) {
	c.startObserving()
	c.mu.Lock()
	entity := c.entity
	c.mu.Unlock()
	if entity == nil {
		return domain.Message{}, false
	}
	if err := entity.Refresh(); err != nil {
		c.logger.Warn("read message", "error", err)
	}

	return entity.Item()
}

// Replies re-reads the loaded replies and returns them in the current ListOrdering.
func (c *MessageController) Replies() []domain.Message {
	c.startObserving()
	c.mu.Lock()
	replies := c.replies
	c.mu.Unlock()
	if replies == nil {
		return nil
	}
	if err := replies.Refresh(); err != nil {
		c.logger.Warn("read replies", "error", err)
	}

	return replies.Items()
}

func (c *MessageController) ListOrdering() domain.ListOrdering {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.ordering
}

// SetListOrdering re-projects the loaded replies without touching the store or the gateway.
func (c *MessageController) SetListOrdering(ordering domain.ListOrdering) {
	c.mu.Lock()
	c.ordering = ordering
	replies := c.replies
	c.mu.Unlock()
	if replies != nil {
		replies.SetOrdering(ordering)
	}
}

// SetDelegate replaces the delegate and clears any DelegateFuncs.
func (c *MessageController) SetDelegate(d Delegate) {
	c.mu.Lock()
	c.delegate = d
	c.funcs = DelegateFuncs{}
	c.hasFuncs = false
	c.mu.Unlock()
	if d != nil {
		c.startObserving()
	}
}

// SetDelegateFuncs replaces the delegate with plain functions.
func (c *MessageController) SetDelegateFuncs(funcs DelegateFuncs) {
	c.mu.Lock()
	c.delegate = nil
	c.funcs = funcs
	c.hasFuncs = true
	c.mu.Unlock()
	c.startObserving()
}

// Close stops store observation. Pending operations still complete.
func (c *MessageController) Close() {
	c.cancel()
	c.mu.Lock()
	entity, replies := c.entity, c.replies
	c.mu.Unlock()
	if entity != nil {
		entity.Stop()
	}
	if replies != nil {
		replies.Stop()
	}
}

func (c *MessageController) startObserving() {
	c.observeOnce.Do(func() {
		ref := weak.Make(c)
		entity := observer.NewEntityObserver(c.client.store, c.client.bus, c.messageID, c.client.logger.With("component", "observer"), func(change domain.EntityChange[domain.Message]) {
			if mc := ref.Value(); mc != nil {
				mc.messageChanged(change)
			}
		})
		replies := observer.NewListObserver(c.client.store, c.client.bus, c.messageID, c.ListOrdering(), c.client.logger.With("component", "observer"), func(changes []domain.ListChange[domain.Message]) {
			if mc := ref.Value(); mc != nil {
				mc.repliesChanged(changes)
			}
		})

		err := entity.Start(c.ctx)
		if err == nil {
			err = replies.Start(c.ctx)
			if err != nil {
				entity.Stop()
			}
		}

		c.mu.Lock()
		defer c.mu.Unlock()
		c.entity = entity
		c.replies = replies
		if err != nil {
			c.logger.Error("start local observation", "error", err)
			c.observeErr = err
			c.transitionLocked(domain.RemoteDataFetchFailed(err))
			return
		}
		c.logger.Debug("local observation started")
		c.transitionLocked(domain.LocalDataFetched())
	})
}

// transitionLocked stores the new state and queues its notification. c.mu must be held
// so notifications keep the order of transitions.
func (c *MessageController) transitionLocked(state domain.ControllerState) {
	c.state = state
	c.notify("state_changed", func(d Delegate) { d.StateChanged(state) })
}

func (c *MessageController) messageChanged(change domain.EntityChange[domain.Message]) {
	c.client.metrics.Change("message_" + change.Kind.String())
	c.notify("message_changed", func(d Delegate) { d.MessageChanged(change) })
}

func (c *MessageController) repliesChanged(changes []domain.ListChange[domain.Message]) {
	for _, change := range changes {
		c.client.metrics.Change("replies_" + change.Kind.String())
	}
	changes = slices.Clone(changes)
	c.notify("replies_changed", func(d Delegate) { d.RepliesChanged(changes) })
}

// notify queues fn for the delegate registered when the task runs.
func (c *MessageController) notify(name string, fn func(Delegate)) {
	c.client.executor.Enqueue(name, func() {
		if d := c.currentDelegate(); d != nil {
			fn(d)
		}
	})
}

func (c *MessageController) currentDelegate() Delegate {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.delegate != nil {
		return c.delegate
	}
	if c.hasFuncs {
		return c.funcs
	}

	return nil
}

// refreshObservers applies committed store writes before dependent notifications are queued.
func (c *MessageController) refreshObservers() {
	c.mu.Lock()
	entity, replies := c.entity, c.replies
	c.mu.Unlock()
	if entity != nil {
		if err := entity.Refresh(); err != nil {
			c.logger.Warn("refresh message", "error", err)
		}
	}
	if replies != nil {
		if err := replies.Refresh(); err != nil {
			c.logger.Warn("refresh replies", "error", err)
		}
	}
}
