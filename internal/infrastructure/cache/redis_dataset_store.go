package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultDatasetKeyPrefix = "dashboard:dataset:"

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// RedisDatasetStore keeps raw dataset bytes in Redis so that several
// instances, or a restarted one, can skip the remote fetch
type RedisDatasetStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisDatasetStore connects to Redis and verifies the connection
func NewRedisDatasetStore(ctx context.Context, cfg RedisConfig) (*RedisDatasetStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisDatasetStore{
		client:    client,
		keyPrefix: defaultDatasetKeyPrefix,
	}, nil
}

// NewRedisDatasetStoreWithClient creates a store with an existing Redis client
func NewRedisDatasetStoreWithClient(client *redis.Client, keyPrefix string) *RedisDatasetStore {
	if keyPrefix == "" {
		keyPrefix = defaultDatasetKeyPrefix
	}
	return &RedisDatasetStore{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// Key returns the Redis key of a source: the prefix followed by the hex SHA-256 of the source
func (s *RedisDatasetStore) Key(source string) string {
	return DatasetKey(s.keyPrefix, source)
}

// DatasetKey builds the cache key of a source
func DatasetKey(prefix, source string) string {
	sum := sha256.Sum256([]byte(source))
	return prefix + hex.EncodeToString(sum[:])
}

// Get returns the cached bytes of source. found is false on a cache miss.
func (s *RedisDatasetStore) Get(ctx context.Context, source string) (data []byte, found bool, err error) {
	data, err = s.client.Get(ctx, s.Key(source)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cached dataset: %w", err)
	}
	return data, true, nil
}

// Set stores the bytes of source with a TTL
func (s *RedisDatasetStore) Set(ctx context.Context, source string, data []byte, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.Key(source), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache dataset: %w", err)
	}
	return nil
}

// Delete removes the cached bytes of source
func (s *RedisDatasetStore) Delete(ctx context.Context, source string) error {
	if err := s.client.Del(ctx, s.Key(source)).Err(); err != nil {
		return fmt.Errorf("failed to delete cached dataset: %w", err)
	}
	return nil
}

// Name identifies the store in logs and status output
func (s *RedisDatasetStore) Name() string {
	return "redis"
}

// Close closes the Redis client
func (s *RedisDatasetStore) Close() error {
	return s.client.Close()
}
