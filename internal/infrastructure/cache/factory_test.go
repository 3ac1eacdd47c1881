package cache

import (
	"context"
	"strings"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ecomdash/backend/internal/infrastructure/config"
)

// Port 1 is never served, so connections are refused immediately
var unreachableRedis = config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: 1}

func TestDatasetStoreFactory_CreateStore(t *testing.T) {
	ctx := context.Background()

	t.Run("disabled redis yields noop store", func(t *testing.T) {
		f := NewDatasetStoreFactory(config.RedisConfig{Enabled: false}, WithLogger(zaptest.NewLogger(t)))

		store, err := f.CreateStore(ctx)
		require.NoError(t, err)
		assert.Equal(t, "none", store.Name())
	})

	t.Run("unreachable redis falls back to noop store", func(t *testing.T) {
		f := NewDatasetStoreFactory(unreachableRedis, WithLogger(zaptest.NewLogger(t)))

		store, err := f.CreateStore(ctx)
		require.NoError(t, err)
		assert.IsType(t, &NoopDatasetStore{}, store)
	})

	t.Run("unreachable redis without fallback fails", func(t *testing.T) {
		f := NewDatasetStoreFactory(unreachableRedis, WithNoopFallback(false))

		store, err := f.CreateStore(ctx)
		require.Error(t, err)
		assert.Nil(t, store)
		assert.Contains(t, err.Error(), "Redis required")
	})
}

func TestNoopDatasetStore(t *testing.T) {
	ctx := context.Background()
	store := NewNoopDatasetStore()

	require.NoError(t, store.Set(ctx, "source", []byte("data"), 0))
	data, found, err := store.Get(ctx, "source")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, data)
	assert.NoError(t, store.Delete(ctx, "source"))
	assert.NoError(t, store.Close())
}

func TestDatasetKey(t *testing.T) {
	store := NewRedisDatasetStoreWithClient(redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"}), "")
	t.Cleanup(func() { _ = store.Close() })

	key := store.Key("https://example.com/ecommerce.csv")
	assert.True(t, strings.HasPrefix(key, "dashboard:dataset:"))
	assert.Len(t, strings.TrimPrefix(key, "dashboard:dataset:"), 64)
	assert.Equal(t, key, DatasetKey("dashboard:dataset:", "https://example.com/ecommerce.csv"))
	assert.NotEqual(t, key, store.Key("https://example.com/other.csv"))
	assert.Equal(t, "redis", store.Name())
}

func TestRedisDatasetStore_Unreachable(t *testing.T) {
	store := NewRedisDatasetStoreWithClient(redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1}), "test:")
	t.Cleanup(func() { _ = store.Close() })
	ctx := context.Background()

	_, found, err := store.Get(ctx, "source")
	assert.Error(t, err)
	assert.False(t, found)
	assert.Error(t, store.Set(ctx, "source", []byte("x"), 0))
	assert.Error(t, store.Delete(ctx, "source"))
}
