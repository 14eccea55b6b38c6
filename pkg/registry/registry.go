// Package registry maps type tags to constructors for pluggable strategies.
package registry

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

// ErrUnknownTag is returned when a tag has no registered constructor.
var ErrUnknownTag = errors.New("unknown type tag")

// Registry is a concurrency-safe tag → value table.
// Values are usually constructor functions.
type Registry[T any] struct {
	mu      sync.RWMutex
	kind    string
	entries map[string]T
}

// New creates an empty Registry. Kind names the registered family in error messages.
func New[T any](kind string) *Registry[T] {
	return &Registry[T]{
		kind:    kind,
		entries: make(map[string]T),
	}
}

// Register binds tag to value, replacing any previous binding.
func (r *Registry[T]) Register(tag string, value T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[tag] = value
}

// Lookup returns the value bound to tag, or an error wrapping ErrUnknownTag.
func (r *Registry[T]) Lookup(tag string) (T, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	value, ok := r.entries[tag]
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: %s %q", ErrUnknownTag, r.kind, tag)
	}
	return value, nil
}

// Tags returns the registered tags in sorted order.
func (r *Registry[T]) Tags() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tags := make([]string, 0, len(r.entries))
	for tag := range r.entries {
		tags = append(tags, tag)
	}
	slices.Sort(tags)
	return tags
}
