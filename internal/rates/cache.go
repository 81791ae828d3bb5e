package rates

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/JayMung/FactureX-sub003/pkg/cache"
)

var errCacheMiss = errors.New("rates: cache miss")

// RedisCache adapts pkg/cache to the rates Cache interface.
type RedisCache struct {
	cache *cache.RedisCache
}

func NewRedisCache(c *cache.RedisCache) *RedisCache {
	return &RedisCache{cache: c}
}

func (c *RedisCache) Get(ctx context.Context, key string, dest interface{}) error {
	return c.cache.Get(ctx, key, dest)
}

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return c.cache.Set(ctx, key, value, ttl)
}

// MemoryCache is a process-local fallback used when Redis is unavailable and
// in tests. Entries expire by wall clock, matching the Redis TTL semantics.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	set       Set
	expiresAt time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry)}
}

func (c *MemoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || time.Now().After(entry.expiresAt) {
		return errCacheMiss
	}

	if out, ok := dest.(*Set); ok {
		*out = entry.set
		return nil
	}
	return errCacheMiss
}

func (c *MemoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	set, ok := value.(Set)
	if !ok {
		if p, okp := value.(*Set); okp {
			set = *p
		} else {
			return nil
		}
	}

	c.mu.Lock()
	c.entries[key] = memoryEntry{set: set, expiresAt: time.Now().Add(ttl)}
	c.mu.Unlock()
	return nil
}
