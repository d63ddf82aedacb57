package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLocalCache_PutGetEvict(t *testing.T) {
	c := NewLocalCache(time.Minute, time.Minute)
	ctx := context.Background()

	_, found, err := c.Get(ctx, "missing")
	assert.NoError(t, err)
	assert.False(t, found)

	err = c.Put(ctx, "key", []byte("value"), time.Minute)
	assert.NoError(t, err)

	value, found, err := c.Get(ctx, "key")
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("value"), value)

	err = c.Evict(ctx, "key")
	assert.NoError(t, err)

	_, found, err = c.Get(ctx, "key")
	assert.NoError(t, err)
	assert.False(t, found)
}

func TestLocalCache_TTLExpiry(t *testing.T) {
	c := NewLocalCache(10*time.Millisecond, 5*time.Millisecond)
	ctx := context.Background()

	err := c.Put(ctx, "key", []byte("value"), 10*time.Millisecond)
	assert.NoError(t, err)

	time.Sleep(30 * time.Millisecond)

	_, found, err := c.Get(ctx, "key")
	assert.NoError(t, err)
	assert.False(t, found)
}

var _ Cache = (*LocalCache)(nil)
