package segments

import (
	"context"
	"sync"
)

// InMemoryRepository is an in-memory implementation of Repository, used in
// tests and when no database is configured.
type InMemoryRepository struct {
	mu    sync.RWMutex
	items map[Key]Aggregate
}

// NewInMemoryRepository creates an empty in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{items: make(map[Key]Aggregate)}
}

// Load returns a copy of all stored aggregates.
func (r *InMemoryRepository) Load(_ context.Context) (map[Key]Aggregate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[Key]Aggregate, len(r.items))
	for k, v := range r.items {
		out[k] = v
	}
	return out, nil
}

// Save upserts the given aggregates.
func (r *InMemoryRepository) Save(_ context.Context, items map[Key]Aggregate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for k, v := range items {
		r.items[k] = v
	}
	return nil
}
