package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/firefly-oss/lib-common-domain/logging"
)

// RedisConnection is a hub that deals with redis connections: a lazy
// singleton that connects and pings on first use.
type RedisConnection struct {
	ConnectionStringSource string
	Client                 *redis.Client
	Connected              bool
	Logger                 logging.Logger
}

// Connect establishes and pings a singleton redis connection.
func (rc *RedisConnection) Connect(ctx context.Context) error {
	if rc.Logger == nil {
		rc.Logger = &logging.NoneLogger{}
	}

	rc.Logger.Info("connecting to redis...")

	opts, err := redis.ParseURL(rc.ConnectionStringSource)
	if err != nil {
		return err
	}

	rdb := redis.NewClient(opts)

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		rc.Logger.Errorf("redis ping failed: %v", err)
		return err
	}

	rc.Logger.Info("connected to redis")

	rc.Connected = true
	rc.Client = rdb

	return nil
}

// GetDB returns the redis client, initializing the connection if necessary.
func (rc *RedisConnection) GetDB(ctx context.Context) (*redis.Client, error) {
	if rc.Client == nil {
		if err := rc.Connect(ctx); err != nil {
			return nil, err
		}
	}

	return rc.Client, nil
}

// RedisCache backs Cache with a shared redis store.
type RedisCache struct {
	conn *RedisConnection
}

// NewRedisCache wraps an already-configured RedisConnection as a Cache.
func NewRedisCache(conn *RedisConnection) *RedisCache {
	return &RedisCache{conn: conn}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	db, err := c.conn.GetDB(ctx)
	if err != nil {
		return nil, false, err
	}

	v, err := db.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, err
	}

	return v, true, nil
}

func (c *RedisCache) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	db, err := c.conn.GetDB(ctx)
	if err != nil {
		return err
	}

	return db.Set(ctx, key, value, ttl).Err()
}

func (c *RedisCache) Evict(ctx context.Context, key string) error {
	db, err := c.conn.GetDB(ctx)
	if err != nil {
		return err
	}

	return db.Del(ctx, key).Err()
}
