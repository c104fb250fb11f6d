package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskmanager-api/internal/platform/cache"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRedisAddr = "localhost:6379"

// setupRedisCache connects to a local Redis or skips the test.
func setupRedisCache(t *testing.T) *cache.Cache {
	t.Helper()

	client := redis.NewClient(&redis.Options{Addr: testRedisAddr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()
		t.Skipf("Redis not available at %s: %v", testRedisAddr, err)
	}

	c := cache.New(client, "test:"+uuid.NewString()+":", time.Minute)
	t.Cleanup(func() {
		_ = c.DeletePattern(context.Background(), "*")
		_ = c.Close()
	})
	return c
}

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestCache_SetGetDelete(t *testing.T) {
	c := setupRedisCache(t)
	ctx := context.Background()

	var got payload
	found, err := c.Get(ctx, "missing", &got)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.Set(ctx, "k", payload{Name: "a", Count: 2}))
	found, err = c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, payload{Name: "a", Count: 2}, got)

	require.NoError(t, c.Delete(ctx, "k"))
	found, err = c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, found)

	stats := c.Stats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(2), stats.Misses)
	assert.Equal(t, uint64(1), stats.Sets)
	assert.Equal(t, uint64(1), stats.Deletes)
}

func TestCache_DeletePattern(t *testing.T) {
	c := setupRedisCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "tasks:owner:a", []int{1}))
	require.NoError(t, c.Set(ctx, "tasks:owner:b", []int{2}))
	require.NoError(t, c.Set(ctx, "task:x", 3))

	require.NoError(t, c.DeletePattern(ctx, "tasks:owner:*"))

	var v any
	found, err := c.Get(ctx, "tasks:owner:a", &v)
	require.NoError(t, err)
	assert.False(t, found)
	found, err = c.Get(ctx, "task:x", &v)
	require.NoError(t, err)
	assert.True(t, found)
}
