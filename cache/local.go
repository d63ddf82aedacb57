package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// LocalCache backs Cache with an in-process patrickmn/go-cache store.
type LocalCache struct {
	store *gocache.Cache
}

// NewLocalCache builds a LocalCache with the given default TTL and cleanup
// interval. A ttl of 0 means entries never expire unless explicitly evicted.
func NewLocalCache(defaultTTL, cleanupInterval time.Duration) *LocalCache {
	return &LocalCache{store: gocache.New(defaultTTL, cleanupInterval)}
}

func (c *LocalCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := c.store.Get(key)
	if !ok {
		return nil, false, nil
	}

	b, ok := v.([]byte)
	if !ok {
		return nil, false, nil
	}

	return b, true, nil
}

func (c *LocalCache) Put(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.store.Set(key, value, ttl)
	return nil
}

func (c *LocalCache) Evict(_ context.Context, key string) error {
	c.store.Delete(key)
	return nil
}
