// Package cache provides a generic cache with sha256-hashed keys.
package cache

import (
	"context"
	"sync"

	"github.com/treeline-io/treeline/internal/telemetry"
	"github.com/treeline-io/treeline/util"
)

// Cache - generic cache implementation.
type Cache[V any] struct {
	Name  string
	Cache map[string]V
	Mutex *sync.RWMutex
}

// NewCache - create new cache with generic type V.
func NewCache[V any](name string) *Cache[V] {
	return &Cache[V]{
		Name:  name,
		Cache: make(map[string]V),
		Mutex: &sync.RWMutex{},
	}
}

// Get - fetch value from cache by key.
func (c *Cache[V]) Get(ctx context.Context, key string) (V, bool) {
	c.Mutex.RLock()
	defer c.Mutex.RUnlock()

	value, found := c.Cache[cacheKey(key)]

	telemetry.Count(ctx, c.Name+"_cache_get", 1)

	if found {
		telemetry.Count(ctx, c.Name+"_cache_hit", 1)
	} else {
		telemetry.Count(ctx, c.Name+"_cache_miss", 1)
	}

	return value, found
}

// Put - put value into cache by key.
func (c *Cache[V]) Put(ctx context.Context, key string, value V) {
	c.Mutex.Lock()
	defer c.Mutex.Unlock()

	telemetry.Count(ctx, c.Name+"_cache_put", 1)

	c.Cache[cacheKey(key)] = value
}

// Len returns the number of cached values.
func (c *Cache[V]) Len() int {
	c.Mutex.RLock()
	defer c.Mutex.RUnlock()

	return len(c.Cache)
}

func cacheKey(key string) string {
	return util.EncodeSha256Hex([]byte(key))
}
