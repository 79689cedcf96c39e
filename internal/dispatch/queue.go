package dispatch

import (
	"context"
	"log/slog"
	"sync"
)

// Executor runs callbacks on a serial execution context.
type Executor interface {
	Enqueue(name string, fn func())
}

type task struct {
	name string
	fn   func()
}

// Queue is an unbounded FIFO executor backed by a single goroutine.
// Tasks enqueued from inside a running task are appended, never run inline.
type Queue struct {
	logger *slog.Logger

	mu      sync.Mutex
	pending []task
	wake    chan struct{}
	running bool
}

func NewQueue(logger *slog.Logger, capacity int) *Queue {
	if capacity <= 0 {
		capacity = 256
	}
	return &Queue{
		logger:  logger,
		pending: make([]task, 0, capacity),
		wake:    make(chan struct{}, 1),
	}
}

func (q *Queue) Enqueue(name string, fn func()) {
	if fn == nil {
		return
	}
	q.mu.Lock()
	q.pending = append(q.pending, task{name: name, fn: fn})
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// Start runs queued tasks until ctx is done. Tasks still queued at that point are dropped.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	if q.running {
		q.mu.Unlock()
		return
	}
	q.running = true
	q.mu.Unlock()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-q.wake:
			}
			for {
				next, ok := q.pop()
				if !ok {
					break
				}
				q.run(next)
				if ctx.Err() != nil {
					return
				}
			}
		}
	}()
}

// Wait blocks until every task enqueued before the call has run.
func (q *Queue) Wait(ctx context.Context) error {
	done := make(chan struct{})
	q.Enqueue("wait", func() { close(done) })
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *Queue) pop() (task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return task{}, false
	}
	next := q.pending[0]
	q.pending[0] = task{}
	q.pending = q.pending[1:]

	return next, true
}

func (q *Queue) run(t task) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("callback panicked", "task", t.name, "panic", r)
		}
	}()
	t.fn()
}
