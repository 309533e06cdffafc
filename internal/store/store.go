// Package store holds the in-memory reactive state containers. Each store
// owns one flat ordered collection plus a "currently selected" pointer and a
// loading flag; its methods are the sole write path. Mutations are whole
// replacements, appends, or keyed merges — never positional, so concurrent
// fetches cannot drift the collection.
package store

import "sync"

// Collection is a lock-guarded container of one entity type. idOf extracts
// the entity's identifier for keyed operations.
type Collection[T any] struct {
	mu       sync.RWMutex
	items    []T
	selected string
	loading  bool
	idOf     func(T) string
}

// NewCollection creates an empty collection keyed by idOf.
func NewCollection[T any](idOf func(T) string) *Collection[T] {
	return &Collection[T]{idOf: idOf}
}

// SetAll replaces the whole collection.
func (c *Collection[T]) SetAll(items []T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make([]T, len(items))
	copy(c.items, items)
}

// Append adds one entity at the end.
func (c *Collection[T]) Append(item T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, item)
}

// UpdateByID merges fields into the entity matching id by handing it to
// mutate. Reports whether a match was found.
func (c *Collection[T]) UpdateByID(id string, mutate func(*T)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.items {
		if c.idOf(c.items[i]) == id {
			mutate(&c.items[i])
			return true
		}
	}
	return false
}

// Remove deletes the entity matching id, preserving order.
func (c *Collection[T]) Remove(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.items {
		if c.idOf(c.items[i]) == id {
			c.items = append(c.items[:i], c.items[i+1:]...)
			if c.selected == id {
				c.selected = ""
			}
			return true
		}
	}
	return false
}

// Items returns a copy of the collection in order.
func (c *Collection[T]) Items() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

// FindByID is a pure selector over current state.
func (c *Collection[T]) FindByID(id string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for i := range c.items {
		if c.idOf(c.items[i]) == id {
			return c.items[i], true
		}
	}
	var zero T
	return zero, false
}

// Filter returns the entities matching pred, in order.
func (c *Collection[T]) Filter(pred func(T) bool) []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []T
	for _, item := range c.items {
		if pred(item) {
			out = append(out, item)
		}
	}
	return out
}

// Select sets the currently selected entity id.
func (c *Collection[T]) Select(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selected = id
}

// Selected returns the selected entity, if any.
func (c *Collection[T]) Selected() (T, bool) {
	c.mu.RLock()
	id := c.selected
	c.mu.RUnlock()
	if id == "" {
		var zero T
		return zero, false
	}
	return c.FindByID(id)
}

// SetLoading flips the loading flag.
func (c *Collection[T]) SetLoading(loading bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = loading
}

// Loading reports whether a fetch is in progress.
func (c *Collection[T]) Loading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loading
}
