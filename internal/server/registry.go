package server

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type registryEntry[T any] struct {
	value   T
	owner   string
	touched time.Time
}

// Registry holds live games in memory, keyed by a generated ID and owned by
// one player. Entries idle for too long are evicted by Reap.
type Registry[T any] struct {
	mu      sync.RWMutex
	items   map[string]*registryEntry[T]
	now     func() time.Time
	onEvict func(T)
}

func NewRegistry[T any](onEvict func(T)) *Registry[T] {
	return &Registry[T]{
		items:   make(map[string]*registryEntry[T]),
		now:     time.Now,
		onEvict: onEvict,
	}
}

// NewID returns a fresh entry ID.
func (r *Registry[T]) NewID() string { return uuid.NewString() }

// Put stores v under id for owner.
func (r *Registry[T]) Put(id, owner string, v T) {
	r.mu.Lock()
	r.items[id] = &registryEntry[T]{value: v, owner: owner, touched: r.now()}
	r.mu.Unlock()
}

// Get returns the entry id if it belongs to owner and marks it as used.
func (r *Registry[T]) Get(id, owner string) (T, bool) {
	r.mu.RLock()
	e, ok := r.items[id]
	r.mu.RUnlock()
	if !ok || e.owner != owner {
		var zero T
		return zero, false
	}

	r.mu.Lock()
	e.touched = r.now()
	r.mu.Unlock()
	return e.value, true
}

// Remove evicts id.
func (r *Registry[T]) Remove(id string) {
	r.mu.Lock()
	e, ok := r.items[id]
	delete(r.items, id)
	r.mu.Unlock()
	if ok && r.onEvict != nil {
		r.onEvict(e.value)
	}
}

// Len is the number of live entries.
func (r *Registry[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

// Reap evicts entries untouched for longer than idle and returns how many
// were removed.
func (r *Registry[T]) Reap(idle time.Duration) int {
	cutoff := r.now().Add(-idle)

	r.mu.Lock()
	var evicted []T
	for id, e := range r.items {
		if e.touched.Before(cutoff) {
			evicted = append(evicted, e.value)
			delete(r.items, id)
		}
	}
	r.mu.Unlock()

	if r.onEvict != nil {
		for _, v := range evicted {
			r.onEvict(v)
		}
	}
	return len(evicted)
}

// RunReaper calls Reap every interval until ctx is done.
func (r *Registry[T]) RunReaper(ctx context.Context, interval, idle time.Duration, reaped func(n int)) error {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			if n := r.Reap(idle); n > 0 && reaped != nil {
				reaped(n)
			}
		}
	}
}

// Close evicts every entry.
func (r *Registry[T]) Close() {
	r.mu.Lock()
	items := r.items
	r.items = make(map[string]*registryEntry[T])
	r.mu.Unlock()

	if r.onEvict != nil {
		for _, e := range items {
			r.onEvict(e.value)
		}
	}
}
