package cache

import (
	"context"
	"time"
)

// NoopDatasetStore is used when no shared cache is configured. Every Get is a miss.
type NoopDatasetStore struct{}

// NewNoopDatasetStore creates a NoopDatasetStore
func NewNoopDatasetStore() *NoopDatasetStore {
	return &NoopDatasetStore{}
}

func (NoopDatasetStore) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

func (NoopDatasetStore) Set(context.Context, string, []byte, time.Duration) error { return nil }

func (NoopDatasetStore) Delete(context.Context, string) error { return nil }

func (NoopDatasetStore) Name() string { return "none" }

func (NoopDatasetStore) Close() error { return nil }
