package controller

import (
	"sync"

	"github.com/google/uuid"
)

// operationRegistry holds controllers with mutating operations in flight so
// they stay reachable even when callers drop them.
type operationRegistry struct {
	mu  sync.Mutex
	ops map[uuid.UUID]*MessageController
}

func newOperationRegistry() *operationRegistry {
	return &operationRegistry{ops: make(map[uuid.UUID]*MessageController)}
}

// retain registers c and returns the func that releases it. Release is idempotent.
func (r *operationRegistry) retain(c *MessageController) func() {
	id := uuid.New()
	r.mu.Lock()
	r.ops[id] = c
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.ops, id)
			r.mu.Unlock()
		})
	}
}

func (r *operationRegistry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.ops)
}
