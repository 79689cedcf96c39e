package bus

import (
	"context"
	"log/slog"
	"reflect"
	"sync"

	"github.com/cskr/pubsub"
)

const defaultCapacity = 128

type Subscription chan any

type MessageBus interface {
	Publish(topic string, msg any)
	Subscribe(topic string) Subscription
	Unsubscribe(ch Subscription, topics ...string)
	Close()
}

// PubSubBus wraps cskr/pubsub. Calls made after Close return without
// touching the shut down pubsub, whose command channel is no longer read.
type PubSubBus struct {
	ps     *pubsub.PubSub
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool
}

func New(logger *slog.Logger) *PubSubBus {
	return &PubSubBus{
		ps:     pubsub.New(defaultCapacity),
		logger: logger,
	}
}

func (b *PubSubBus) Publish(topic string, msg any) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		b.logger.Debug("publish after close dropped", "topic", topic)
		return
	}
	b.logger.Debug("publish", "topic", topic, "payload_type", payloadType(msg))
	b.ps.Pub(msg, topic)
}

// Subscribe returns a closed channel once the bus is closed.
func (b *PubSubBus) Subscribe(topic string) Subscription {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		ch := make(Subscription)
		close(ch)
		return ch
	}
	ch := b.ps.Sub(topic)
	b.logger.Debug("subscribe", "topic", topic)
	return ch
}

func (b *PubSubBus) Unsubscribe(ch Subscription, topics ...string) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	if len(topics) == 0 {
		b.ps.Unsub(ch)
		b.logger.Debug("unsubscribe", "mode", "all")
		return
	}
	b.ps.Unsub(ch, topics...)
	b.logger.Debug("unsubscribe", "topics", topics)
}

// Close shuts the bus down and closes every subscription. It is idempotent.
func (b *PubSubBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	b.ps.Shutdown()
}

// Watch subscribes to topic and hands every payload of type T to fn on a
// dedicated goroutine until ctx is done or the bus shuts down.
// The subscription is registered before Watch returns.
func Watch[T any](ctx context.Context, b MessageBus, topic string, fn func(T)) {
	sub := b.Subscribe(topic)
	go func() {
		for {
			select {
			case <-ctx.Done():
				// Keep draining until the bus closes the channel so a
				// pending publish can't block the unsubscribe.
				go b.Unsubscribe(sub, topic)
				for range sub {
				}
				return
			case raw, ok := <-sub:
				if !ok {
					return
				}
				payload, ok := raw.(T)
				if !ok {
					continue
				}
				fn(payload)
			}
		}
	}()
}

func payloadType(v any) string {
	if v == nil {
		return "<nil>"
	}
	return reflect.TypeOf(v).String()
}
