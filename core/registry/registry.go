package registry

import (
	"errors"
	"sync"

	"github.com/jmottier/notihub/core/handler"
)

// Registry stores values keyed by channel type. The zero duplicate policy is
// reject: a second Register for a bound name fails unless overwrite is set,
// in which case the binding is replaced atomically.
type Registry[T any] struct {
	mu      sync.RWMutex
	entries map[string]T
}

// New returns an empty registry.
func New[T any]() *Registry[T] {
	return &Registry[T]{entries: make(map[string]T)}
}

// Register binds v to name. A registration that returns observes in every
// subsequent Lookup. Concurrent registrations for the same name are
// serialized; under overwrite=false the loser fails deterministically.
func (r *Registry[T]) Register(name string, v T, overwrite bool) error {
	if name == "" {
		return handler.NewError(handler.KindInvalidRequest, name, errors.New("empty channel type"))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[name]; ok && !overwrite {
		return handler.NewError(handler.KindDuplicateType, name, errors.New("already registered"))
	}
	r.entries[name] = v
	return nil
}

// Lookup returns the value bound to name. It never blocks on I/O and does not
// mutate the registry.
func (r *Registry[T]) Lookup(name string) (T, error) {
	r.mu.RLock()
	v, ok := r.entries[name]
	r.mu.RUnlock()
	if !ok {
		var zero T
		return zero, handler.NewError(handler.KindUnknownType, name, errors.New("not registered"))
	}
	return v, nil
}

// Types returns a snapshot of the registered names. No ordering is promised.
func (r *Registry[T]) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	return names
}

// Len reports the number of bindings.
func (r *Registry[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
