// Package keylock provides one exclusive lock per string key with FIFO
// handoff, so mutations for a given (location, item) pair are serialized
// while disjoint keys proceed in parallel.
package keylock

import (
	"context"
	"sync"
)

// Key builds the canonical lock key for a location/item pair.
func Key(location, item string) string {
	return location + "|" + item
}

type state struct {
	held    bool
	waiters []chan struct{}
}

// Registry tracks the per-key locks. Idle keys are evicted so the map does
// not grow with every pair ever seen.
type Registry struct {
	mu   sync.Mutex
	keys map[string]*state
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{keys: make(map[string]*state)}
}

// Lock blocks until the key's lock is acquired or ctx is done. Waiters are
// granted the lock in arrival order.
func (r *Registry) Lock(ctx context.Context, key string) error {
	r.mu.Lock()
	st, ok := r.keys[key]
	if !ok {
		st = &state{}
		r.keys[key] = st
	}
	if !st.held {
		st.held = true
		r.mu.Unlock()
		return nil
	}
	ch := make(chan struct{})
	st.waiters = append(st.waiters, ch)
	r.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		r.mu.Lock()
		for i, w := range st.waiters {
			if w == ch {
				st.waiters = append(st.waiters[:i], st.waiters[i+1:]...)
				r.mu.Unlock()
				return ctx.Err()
			}
		}
		r.mu.Unlock()
		// The handoff raced with cancellation: we already own the lock,
		// so pass it along before reporting the cancellation.
		r.Unlock(key)
		return ctx.Err()
	}
}

// Unlock releases the key's lock, handing it to the oldest waiter if any.
func (r *Registry) Unlock(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.keys[key]
	if !ok || !st.held {
		panic("keylock: unlock of unheld key " + key)
	}
	if len(st.waiters) > 0 {
		ch := st.waiters[0]
		st.waiters = st.waiters[1:]
		close(ch)
		return
	}
	st.held = false
	delete(r.keys, key)
}
