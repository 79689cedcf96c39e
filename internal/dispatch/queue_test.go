package dispatch

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

func newTestQueue(t *testing.T) *Queue {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	q := NewQueue(slog.New(slog.NewTextHandler(io.Discard, nil)), 4)
	q.Start(ctx)

	return q
}

func waitQueue(t *testing.T, q *Queue) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := q.Wait(ctx); err != nil {
		t.Fatalf("wait for queue: %v", err)
	}
}

func TestQueue_RunsTasksInOrder(t *testing.T) {
	q := newTestQueue(t)

	var (
		mu  sync.Mutex
		got []int
	)
	for i := 0; i < 100; i++ {
		i := i
		q.Enqueue("append", func() {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
		})
	}
	waitQueue(t, q)

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 100 {
		t.Fatalf("expected 100 tasks, got %d", len(got))
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("expected task %d at position %d, got %d", i, i, v)
		}
	}
}

func TestQueue_NestedEnqueueRunsAfterCurrentTask(t *testing.T) {
	q := newTestQueue(t)

	var order []string
	q.Enqueue("outer", func() {
		q.Enqueue("inner", func() { order = append(order, "inner") })
		order = append(order, "outer")
	})
	q.Enqueue("sibling", func() { order = append(order, "sibling") })
	waitQueue(t, q)
	waitQueue(t, q)

	want := []string{"outer", "sibling", "inner"}
	if len(order) != len(want) {
		t.Fatalf("expected %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, order)
		}
	}
}

func TestQueue_SurvivesPanickingTask(t *testing.T) {
	q := newTestQueue(t)

	ran := false
	q.Enqueue("boom", func() { panic("boom") })
	q.Enqueue("after", func() { ran = true })
	waitQueue(t, q)

	if !ran {
		t.Fatalf("expected task after panic to run")
	}
}
