// Package cache implements the query cache backend capability: a small
// get/put-with-ttl/evict contract that QueryBus drives without ever
// knowing which storage sits behind it.
package cache

import (
	"context"
	"time"
)

// Cache is the storage capability QueryBus depends on. Implementations must
// be safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Evict(ctx context.Context, key string) error
}
