package bucketkit

import (
	"fmt"
	"sync"
)

// Registry is a mutex-guarded keyed collection with optional write-through
// mirrors. Every Add and Remove is replayed into all attached mirrors, so a
// value can live in two registries (a provider's local bucket registry and
// the session's global one) without a second source of truth.
type Registry[K comparable, V any] struct {
	mu      sync.RWMutex
	items   map[K]V
	mirrors []*Registry[K, V]
}

// NewRegistry creates an empty registry.
func NewRegistry[K comparable, V any]() *Registry[K, V] {
	return &Registry[K, V]{
		items: make(map[K]V),
	}
}

// Add registers a value under key. Unless replace is true, adding a key
// that already exists fails with ErrDuplicatedElement. The addition is
// replayed into all mirrors (always replacing there).
func (r *Registry[K, V]) Add(key K, value V, replace bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[key]; exists && !replace {
		return fmt.Errorf("%w: %v", ErrDuplicatedElement, key)
	}
	r.items[key] = value

	for _, m := range r.mirrors {
		m.Add(key, value, true) //nolint:errcheck // replace=true cannot fail
	}
	return nil
}

// Remove deletes the value under key and replays the removal into all
// mirrors. It reports whether the key was present.
func (r *Registry[K, V]) Remove(key K) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, exists := r.items[key]
	delete(r.items, key)

	for _, m := range r.mirrors {
		m.Remove(key)
	}
	return exists
}

// Has reports whether key is registered.
func (r *Registry[K, V]) Has(key K) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.items[key]
	return exists
}

// Get returns the value under key and whether it was present.
func (r *Registry[K, V]) Get(key K) (V, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, exists := r.items[key]
	return v, exists
}

// List returns a snapshot of all registered values.
func (r *Registry[K, V]) List() []V {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]V, 0, len(r.items))
	for _, v := range r.items {
		out = append(out, v)
	}
	return out
}

// Keys returns a snapshot of all registered keys.
func (r *Registry[K, V]) Keys() []K {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]K, 0, len(r.items))
	for k := range r.items {
		out = append(out, k)
	}
	return out
}

// Len returns the number of registered entries.
func (r *Registry[K, V]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

// Clear removes all entries, replaying each removal into mirrors.
func (r *Registry[K, V]) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for k := range r.items {
		for _, m := range r.mirrors {
			m.Remove(k)
		}
	}
	r.items = make(map[K]V)
}

// AttachMirror registers a live mirror. Existing entries are copied into
// the mirror immediately; subsequent Add/Remove calls are replayed.
func (r *Registry[K, V]) AttachMirror(mirror *Registry[K, V]) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.mirrors = append(r.mirrors, mirror)
	for k, v := range r.items {
		mirror.Add(k, v, true) //nolint:errcheck // replace=true cannot fail
	}
}

// DetachMirror stops replaying changes into the given mirror. Entries
// already mirrored are left in place.
func (r *Registry[K, V]) DetachMirror(mirror *Registry[K, V]) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, m := range r.mirrors {
		if m == mirror {
			r.mirrors = append(r.mirrors[:i], r.mirrors[i+1:]...)
			return
		}
	}
}
