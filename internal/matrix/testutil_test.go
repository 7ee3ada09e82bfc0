package matrix

import (
	"context"
	"sync"

	"routeopt/internal/model"
)

// memCache is a trivial in-package Cache implementation used only by
// tests, avoiding a test-only import of internal/cache (which itself
// depends on nothing from matrix, but keeping the dependency edge
// one-way makes the package graph easier to reason about).
type memCache struct {
	mu      sync.Mutex
	entries map[string]model.CacheEntry
}

// NewMemCache constructs a bare in-memory matrix.Cache for tests.
func NewMemCache() *memCache {
	return &memCache{entries: make(map[string]model.CacheEntry)}
}

func (c *memCache) GetMatrix(_ context.Context, key string) (model.CacheEntry, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	return e, ok, nil
}

func (c *memCache) PutMatrix(_ context.Context, key string, entry model.CacheEntry, _ int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry
	return nil
}
