package cache

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ecomdash/backend/internal/infrastructure/config"
)

// DatasetStore is a shared cache of raw dataset bytes keyed by source
type DatasetStore interface {
	Get(ctx context.Context, source string) ([]byte, bool, error)
	Set(ctx context.Context, source string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, source string) error
	Name() string
	Close() error
}

var (
	_ DatasetStore = (*RedisDatasetStore)(nil)
	_ DatasetStore = NoopDatasetStore{}
)

// DatasetStoreFactory creates dataset stores based on configuration
type DatasetStoreFactory struct {
	redisConfig     config.RedisConfig
	logger          *zap.Logger
	allowNoFallback bool
}

// DatasetStoreFactoryOption is a functional option for configuring the factory
type DatasetStoreFactoryOption func(*DatasetStoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) DatasetStoreFactoryOption {
	return func(f *DatasetStoreFactory) {
		f.logger = logger
	}
}

// WithNoopFallback controls whether an unreachable Redis degrades to no shared cache.
// Default is true.
func WithNoopFallback(allow bool) DatasetStoreFactoryOption {
	return func(f *DatasetStoreFactory) {
		f.allowNoFallback = allow
	}
}

// NewDatasetStoreFactory creates a new factory
func NewDatasetStoreFactory(cfg config.RedisConfig, opts ...DatasetStoreFactoryOption) *DatasetStoreFactory {
	f := &DatasetStoreFactory{
		redisConfig:     cfg,
		logger:          zap.NewNop(),
		allowNoFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateRedisStore creates a Redis-backed dataset store
func (f *DatasetStoreFactory) CreateRedisStore(ctx context.Context) (*RedisDatasetStore, error) {
	store, err := NewRedisDatasetStore(ctx, RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis dataset store: %w", err)
	}
	return store, nil
}

// CreateStore returns a Redis store when Redis is enabled and reachable.
// A disabled Redis yields a NoopDatasetStore; an unreachable one does too,
// unless the fallback has been turned off.
func (f *DatasetStoreFactory) CreateStore(ctx context.Context) (DatasetStore, error) {
	if !f.redisConfig.Enabled {
		f.logger.Info("Shared dataset cache disabled")
		return NewNoopDatasetStore(), nil
	}

	store, err := f.CreateRedisStore(ctx)
	if err == nil {
		f.logger.Info("Using Redis dataset cache", zap.String("addr", f.redisConfig.Addr()))
		return store, nil
	}

	if !f.allowNoFallback {
		return nil, fmt.Errorf("Redis required for dataset cache but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, continuing without shared dataset cache. "+
		"Every instance will fetch the dataset from its source.",
		zap.Error(err),
	)
	return NewNoopDatasetStore(), nil
}
