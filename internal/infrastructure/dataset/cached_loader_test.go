package dataset

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecomdash/backend/internal/domain/shared"
)

func newCached(opts ...CachedLoaderOption) *CachedLoader {
	return NewCachedLoader(NewLoader(NewSourceReader()), opts...)
}

func TestCachedLoader_Memoizes(t *testing.T) {
	srv := newCountingServer(t, threeOrders)
	c := newCached()
	ctx := context.Background()

	first, err := c.Load(ctx, srv.URL)
	require.NoError(t, err)
	second, err := c.Load(ctx, " "+srv.URL)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.EqualValues(t, 1, srv.hits.Load())

	cached, ok := c.Cached(srv.URL)
	assert.True(t, ok)
	assert.Same(t, first, cached)
}

func TestCachedLoader_ConcurrentFirstLoadsShareOneFetch(t *testing.T) {
	srv := newCountingServer(t, threeOrders)
	gate := srv.hold()
	c := newCached()

	const callers = 8
	var wg sync.WaitGroup
	results := make([]*Snapshot, callers)
	errs := make([]error, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = c.Load(context.Background(), srv.URL)
		}()
	}

	require.Eventually(t, func() bool { return srv.hits.Load() == 1 }, time.Second, 5*time.Millisecond)
	// Give the remaining callers time to join the in-flight load
	time.Sleep(50 * time.Millisecond)
	close(gate)
	wg.Wait()

	assert.EqualValues(t, 1, srv.hits.Load())
	for i := range callers {
		require.NoError(t, errs[i])
		assert.Same(t, results[0], results[i])
	}
}

func TestCachedLoader_FailuresAreNotCached(t *testing.T) {
	srv := newCountingServer(t, threeOrders)
	srv.status.Store(http.StatusServiceUnavailable)
	c := newCached()
	ctx := context.Background()

	_, err := c.Load(ctx, srv.URL)
	assert.ErrorIs(t, err, shared.ErrDataUnavailable)
	_, ok := c.Cached(srv.URL)
	assert.False(t, ok)

	srv.status.Store(http.StatusOK)
	snap, err := c.Load(ctx, srv.URL)
	require.NoError(t, err)
	assert.Equal(t, 3, snap.Table.Len())
	assert.EqualValues(t, 2, srv.hits.Load())
}

func TestCachedLoader_Invalidate(t *testing.T) {
	srv := newCountingServer(t, threeOrders)
	c := newCached()
	ctx := context.Background()

	first, err := c.Load(ctx, srv.URL)
	require.NoError(t, err)

	srv.setBody(header + "\n")
	c.Invalidate(ctx, srv.URL)
	_, ok := c.Cached(srv.URL)
	assert.False(t, ok)

	second, err := c.Load(ctx, srv.URL)
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.Equal(t, 0, second.Table.Len())
	assert.EqualValues(t, 2, srv.hits.Load())

	t.Run("refresh reloads", func(t *testing.T) {
		srv.setBody(threeOrders)
		snap, err := c.Refresh(ctx, srv.URL)
		require.NoError(t, err)
		assert.Equal(t, 3, snap.Table.Len())

		cached, ok := c.Cached(srv.URL)
		require.True(t, ok)
		assert.Same(t, snap, cached)
	})

	t.Run("invalidate all", func(t *testing.T) {
		c.InvalidateAll(ctx)
		_, ok := c.Cached(srv.URL)
		assert.False(t, ok)

		_, err := c.Load(ctx, srv.URL)
		require.NoError(t, err)
		assert.EqualValues(t, 4, srv.hits.Load())
	})
}

func TestCachedLoader_Refresh(t *testing.T) {
	ctx := context.Background()

	t.Run("failure keeps serving the previous snapshot", func(t *testing.T) {
		srv := newCountingServer(t, threeOrders)
		c := newCached()

		first, err := c.Load(ctx, srv.URL)
		require.NoError(t, err)

		srv.status.Store(http.StatusBadGateway)
		_, err = c.Refresh(ctx, srv.URL)
		assert.ErrorIs(t, err, shared.ErrDataUnavailable)

		cached, ok := c.Cached(srv.URL)
		require.True(t, ok)
		assert.Same(t, first, cached)

		again, err := c.Load(ctx, srv.URL)
		require.NoError(t, err)
		assert.Same(t, first, again)
		assert.EqualValues(t, 2, srv.hits.Load())
	})

	t.Run("failure without a snapshot caches nothing", func(t *testing.T) {
		srv := newCountingServer(t, threeOrders)
		srv.status.Store(http.StatusBadGateway)
		c := newCached()

		_, err := c.Refresh(ctx, srv.URL)
		assert.ErrorIs(t, err, shared.ErrDataUnavailable)
		_, ok := c.Cached(srv.URL)
		assert.False(t, ok)
	})

	t.Run("bypasses and rewrites the shared store", func(t *testing.T) {
		srv := newCountingServer(t, threeOrders)
		store := newMemoryStore()
		store.data[srv.URL] = []byte(header + "\n")
		c := newCached(WithSharedStore(store, 0))

		snap, err := c.Refresh(ctx, srv.URL)
		require.NoError(t, err)
		assert.Equal(t, OriginHTTP, snap.Origin)
		assert.Equal(t, 3, snap.Table.Len())
		assert.EqualValues(t, 1, srv.hits.Load())
		assert.Equal(t, threeOrders, string(store.data[srv.URL]))
	})

	t.Run("load in flight does not overwrite the refreshed snapshot", func(t *testing.T) {
		srv := newCountingServer(t, threeOrders)
		gate := srv.hold()
		c := newCached()

		done := make(chan struct{})
		go func() {
			defer close(done)
			_, _ = c.Load(ctx, srv.URL)
		}()
		require.Eventually(t, func() bool { return srv.hits.Load() == 1 }, time.Second, 5*time.Millisecond)

		srv.mu.Lock()
		srv.gate = nil
		srv.mu.Unlock()
		refreshed, err := c.Refresh(ctx, srv.URL)
		require.NoError(t, err)

		close(gate)
		<-done

		cached, ok := c.Cached(srv.URL)
		require.True(t, ok)
		assert.Same(t, refreshed, cached)
	})
}

func TestCachedLoader_LoadStartedBeforeInvalidateIsNotCached(t *testing.T) {
	srv := newCountingServer(t, threeOrders)
	gate := srv.hold()
	c := newCached()
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = c.Load(ctx, srv.URL)
	}()

	require.Eventually(t, func() bool { return srv.hits.Load() == 1 }, time.Second, 5*time.Millisecond)
	c.Invalidate(ctx, srv.URL)
	close(gate)
	<-done

	_, ok := c.Cached(srv.URL)
	assert.False(t, ok)
}

func TestCachedLoader_CallerCancellation(t *testing.T) {
	srv := newCountingServer(t, threeOrders)
	gate := srv.hold()
	c := newCached()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := c.Load(ctx, srv.URL)
	assert.ErrorIs(t, err, shared.ErrDataUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// The shared fetch keeps going and fills the cache
	close(gate)
	require.Eventually(t, func() bool {
		_, ok := c.Cached(srv.URL)
		return ok
	}, time.Second, 5*time.Millisecond)
}

func TestCachedLoader_SharedStore(t *testing.T) {
	ctx := context.Background()

	t.Run("miss populates the store", func(t *testing.T) {
		srv := newCountingServer(t, threeOrders)
		store := newMemoryStore()
		c := newCached(WithSharedStore(store, time.Hour))

		snap, err := c.Load(ctx, srv.URL)
		require.NoError(t, err)
		assert.Equal(t, OriginHTTP, snap.Origin)
		assert.True(t, store.has(srv.URL))
		assert.Equal(t, time.Hour, store.ttls[srv.URL])
		assert.Equal(t, "memory-test", c.StoreName())
	})

	t.Run("hit skips the fetch", func(t *testing.T) {
		srv := newCountingServer(t, threeOrders)
		store := newMemoryStore()
		store.data[srv.URL] = []byte(threeOrders)
		c := newCached(WithSharedStore(store, 0))

		snap, err := c.Load(ctx, srv.URL)
		require.NoError(t, err)
		assert.Equal(t, OriginCache, snap.Origin)
		assert.Equal(t, 3, snap.Table.Len())
		assert.EqualValues(t, 0, srv.hits.Load())
	})

	t.Run("unusable entry falls back to the source", func(t *testing.T) {
		srv := newCountingServer(t, threeOrders)
		store := newMemoryStore()
		store.data[srv.URL] = []byte("only,two\n1,2\n")
		c := newCached(WithSharedStore(store, 0))

		snap, err := c.Load(ctx, srv.URL)
		require.NoError(t, err)
		assert.Equal(t, OriginHTTP, snap.Origin)
		assert.EqualValues(t, 1, srv.hits.Load())
		assert.Equal(t, threeOrders, string(store.data[srv.URL]))
	})

	t.Run("store errors degrade to a direct fetch", func(t *testing.T) {
		srv := newCountingServer(t, threeOrders)
		store := newMemoryStore()
		store.getErr = errStoreDown
		store.setErr = errStoreDown
		c := newCached(WithSharedStore(store, 0))

		snap, err := c.Load(ctx, srv.URL)
		require.NoError(t, err)
		assert.Equal(t, 3, snap.Table.Len())
	})

	t.Run("invalidation deletes the store entry", func(t *testing.T) {
		srv := newCountingServer(t, threeOrders)
		store := newMemoryStore()
		c := newCached(WithSharedStore(store, 0))

		_, err := c.Load(ctx, srv.URL)
		require.NoError(t, err)
		require.True(t, store.has(srv.URL))

		c.Invalidate(ctx, srv.URL)
		assert.False(t, store.has(srv.URL))

		_, err = c.Load(ctx, srv.URL)
		require.NoError(t, err)
		c.InvalidateAll(ctx)
		assert.False(t, store.has(srv.URL))
	})

	t.Run("no store", func(t *testing.T) {
		assert.Equal(t, "none", newCached().StoreName())
	})
}
