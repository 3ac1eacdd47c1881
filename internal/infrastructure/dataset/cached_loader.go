package dataset

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/ecomdash/backend/internal/domain/shared"
	"github.com/ecomdash/backend/internal/infrastructure/telemetry"
)

// DefaultSharedTTL is how long raw bytes stay in the shared store
const DefaultSharedTTL = 24 * time.Hour

// StoreMemory names the in-process cache in metrics
const StoreMemory = "memory"

// RawStore shares raw dataset bytes between processes
type RawStore interface {
	Get(ctx context.Context, source string) ([]byte, bool, error)
	Set(ctx context.Context, source string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, source string) error
	Name() string
}

// generation identifies one validity period of a cached source.
// Invalidation moves to a new generation so loads started earlier never repopulate the cache.
type generation struct {
	epoch  uint64
	source uint64
}

// CachedLoader memoizes snapshots per source identity.
// Concurrent first loads of a source share one fetch; failed loads are not cached.
type CachedLoader struct {
	loader  *Loader
	store   RawStore
	ttl     time.Duration
	logger  *zap.Logger
	metrics *telemetry.PipelineMetrics

	group singleflight.Group

	mu      sync.RWMutex
	entries map[string]*Snapshot
	gens    map[string]uint64
	known   map[string]struct{}
	epoch   uint64
}

// CachedLoaderOption configures a CachedLoader
type CachedLoaderOption func(*CachedLoader)

// WithSharedStore enables the cross-process byte cache
func WithSharedStore(store RawStore, ttl time.Duration) CachedLoaderOption {
	return func(c *CachedLoader) {
		c.store = store
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithCacheLogger sets the logger
func WithCacheLogger(logger *zap.Logger) CachedLoaderOption {
	return func(c *CachedLoader) {
		c.logger = logger
	}
}

// WithCacheMetrics records cache lookups
func WithCacheMetrics(m *telemetry.PipelineMetrics) CachedLoaderOption {
	return func(c *CachedLoader) {
		c.metrics = m
	}
}

// NewCachedLoader wraps loader with a process-wide cache
func NewCachedLoader(loader *Loader, opts ...CachedLoaderOption) *CachedLoader {
	c := &CachedLoader{
		loader:  loader,
		ttl:     DefaultSharedTTL,
		logger:  zap.NewNop(),
		entries: make(map[string]*Snapshot),
		gens:    make(map[string]uint64),
		known:   make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load returns the cached snapshot of source, loading it on first use.
// A cancelled ctx abandons the wait but not the shared fetch.
func (c *CachedLoader) Load(ctx context.Context, source string) (*Snapshot, error) {
	source = NormalizeSource(source)

	c.mu.RLock()
	snap, ok := c.entries[source]
	gen := c.generationLocked(source)
	c.mu.RUnlock()

	c.metrics.RecordCacheLookup(ctx, StoreMemory, ok)
	if ok {
		return snap, nil
	}

	key := fmt.Sprintf("%s#%d.%d", source, gen.epoch, gen.source)
	ch := c.group.DoChan(key, func() (any, error) {
		return c.fill(context.WithoutCancel(ctx), source, gen)
	})

	select {
	case <-ctx.Done():
		return nil, shared.ErrDataUnavailable.Wrap(ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Snapshot), nil
	}
}

// Refresh loads source again from its origin, bypassing both caches. The
// cached snapshot is replaced only when the load succeeds; after a failure the
// previous snapshot keeps being served. Concurrent refreshes share one load.
func (c *CachedLoader) Refresh(ctx context.Context, source string) (*Snapshot, error) {
	source = NormalizeSource(source)
	v, err, _ := c.group.Do("refresh:"+source, func() (any, error) {
		return c.reload(ctx, source)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Snapshot), nil
}

func (c *CachedLoader) reload(ctx context.Context, source string) (*Snapshot, error) {
	snap, data, err := c.loader.LoadRaw(ctx, source)
	if err != nil {
		_, kept := c.Cached(source)
		c.logger.Warn("Dataset refresh failed",
			zap.String("source", source),
			zap.Bool("kept_cached", kept),
			zap.Error(err),
		)
		return nil, err
	}

	// Loads started before the swap belong to the old generation and are dropped
	c.mu.Lock()
	c.gens[source]++
	c.entries[source] = snap
	c.known[source] = struct{}{}
	c.mu.Unlock()

	c.writeShared(ctx, source, data)
	return snap, nil
}

// Cached returns the snapshot of source without loading it
func (c *CachedLoader) Cached(source string) (*Snapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	snap, ok := c.entries[NormalizeSource(source)]
	return snap, ok
}

// Invalidate drops source from the process cache and the shared store
func (c *CachedLoader) Invalidate(ctx context.Context, source string) {
	source = NormalizeSource(source)

	c.mu.Lock()
	delete(c.entries, source)
	c.gens[source]++
	c.mu.Unlock()

	c.deleteShared(ctx, source)
	c.logger.Info("Dataset cache invalidated", zap.String("source", source))
}

// InvalidateAll drops every source loaded by this process
func (c *CachedLoader) InvalidateAll(ctx context.Context) {
	c.mu.Lock()
	sources := make([]string, 0, len(c.known))
	for s := range c.known {
		sources = append(sources, s)
	}
	c.entries = make(map[string]*Snapshot)
	c.epoch++
	c.mu.Unlock()

	for _, s := range sources {
		c.deleteShared(ctx, s)
	}
	c.logger.Info("Dataset cache cleared", zap.Int("sources", len(sources)))
}

// StoreName names the shared store, or "none"
func (c *CachedLoader) StoreName() string {
	if c.store == nil {
		return "none"
	}
	return c.store.Name()
}

func (c *CachedLoader) generationLocked(source string) generation {
	return generation{epoch: c.epoch, source: c.gens[source]}
}

func (c *CachedLoader) current(source string, gen generation) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generationLocked(source) == gen
}

func (c *CachedLoader) fill(ctx context.Context, source string, gen generation) (*Snapshot, error) {
	snap, err := c.loadThrough(ctx, source, gen)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.known[source] = struct{}{}
	if c.generationLocked(source) == gen {
		c.entries[source] = snap
	}
	c.mu.Unlock()

	return snap, nil
}

func (c *CachedLoader) loadThrough(ctx context.Context, source string, gen generation) (*Snapshot, error) {
	if data, ok := c.readShared(ctx, source); ok {
		snap, err := c.loader.LoadBytes(ctx, source, data)
		if err == nil {
			return snap, nil
		}
		c.logger.Warn("Discarding unusable shared dataset entry", zap.Error(err))
		c.deleteShared(ctx, source)
	}

	snap, data, err := c.loader.LoadRaw(ctx, source)
	if err != nil {
		return nil, err
	}
	if c.current(source, gen) {
		c.writeShared(ctx, source, data)
	}
	return snap, nil
}

func (c *CachedLoader) readShared(ctx context.Context, source string) ([]byte, bool) {
	if c.store == nil {
		return nil, false
	}
	data, found, err := c.store.Get(ctx, source)
	if err != nil {
		c.logger.Warn("Shared dataset cache unavailable, fetching from source",
			zap.String("store", c.store.Name()),
			zap.Error(err),
		)
		return nil, false
	}
	c.metrics.RecordCacheLookup(ctx, c.store.Name(), found)
	return data, found
}

func (c *CachedLoader) writeShared(ctx context.Context, source string, data []byte) {
	if c.store == nil {
		return
	}
	if err := c.store.Set(ctx, source, data, c.ttl); err != nil {
		c.logger.Warn("Failed to populate shared dataset cache",
			zap.String("store", c.store.Name()),
			zap.Error(err),
		)
	}
}

func (c *CachedLoader) deleteShared(ctx context.Context, source string) {
	if c.store == nil {
		return
	}
	if err := c.store.Delete(ctx, source); err != nil {
		c.logger.Warn("Failed to delete shared dataset cache entry",
			zap.String("store", c.store.Name()),
			zap.Error(err),
		)
	}
}
