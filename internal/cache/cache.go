// Package cache provides a small keyed store used to remember records seen
// across result pages.
package cache

import "sync"

// Cache stores values keyed by string.
type Cache[T any] struct {
	mu    sync.Mutex
	items map[string]T
}

// New creates a new Cache instance.
func New[T any]() *Cache[T] {
	return &Cache[T]{
		items: make(map[string]T),
	}
}

// Get returns a cached value and whether it exists.
func (c *Cache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	value, ok := c.items[key]

	return value, ok
}

// Set stores a value in the cache.
func (c *Cache[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = value
}

// GetOrSet stores value under key unless the key is already present.
// It returns the stored value and whether it was already there.
func (c *Cache[T]) GetOrSet(key string, value T) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.items[key]; ok {
		return existing, true
	}

	c.items[key] = value

	return value, false
}

// Len returns the number of stored keys.
func (c *Cache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.items)
}
