package coalescer_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arvindsc/entain-assessment/core/coalescer"
)

func TestCachingDoServesFromCacheWithinTTL(t *testing.T) {
	t.Parallel()

	c := coalescer.NewCaching[string, string](coalescer.WithTTL(time.Second))

	var calls atomic.Int32
	fn := func() (string, error) {
		calls.Add(1)
		return "v", nil
	}

	first, err := c.Do(context.Background(), "k", fn)
	require.NoError(t, err)
	second, err := c.Do(context.Background(), "k", fn)
	require.NoError(t, err)

	assert.Equal(t, "v", first)
	assert.Equal(t, "v", second)
	assert.Equal(t, int32(1), calls.Load())
	assert.True(t, c.IsCached("k"))
}

func TestCachingDoRefetchesAfterExpiry(t *testing.T) {
	t.Parallel()

	c := coalescer.NewCaching[string, int](coalescer.WithTTL(100 * time.Millisecond))

	var calls atomic.Int32
	fn := func() (int, error) {
		return int(calls.Add(1)), nil
	}

	first, err := c.Do(context.Background(), "k", fn)
	require.NoError(t, err)
	assert.Equal(t, 1, first)

	// Still within the validity window.
	cached, err := c.Do(context.Background(), "k", fn)
	require.NoError(t, err)
	assert.Equal(t, 1, cached)

	time.Sleep(150 * time.Millisecond)
	assert.False(t, c.IsCached("k"))

	refreshed, err := c.Do(context.Background(), "k", fn)
	require.NoError(t, err)
	assert.Equal(t, 2, refreshed)
	assert.Equal(t, int32(2), calls.Load())
	assert.True(t, c.IsCached("k"))
}

func TestCachingZeroTTLDisablesCachingButStillCoalesces(t *testing.T) {
	t.Parallel()

	c := coalescer.NewCaching[string, string]()

	var calls atomic.Int32
	fn := func() (string, error) {
		calls.Add(1)
		return "v", nil
	}

	_, err := c.Do(context.Background(), "k", fn)
	require.NoError(t, err)
	_, err = c.Do(context.Background(), "k", fn)
	require.NoError(t, err)

	// Sequential calls always re-execute without a TTL.
	assert.Equal(t, int32(2), calls.Load())
	assert.False(t, c.IsCached("k"))
	assert.Zero(t, c.Stats().CacheSize)

	// Concurrent calls still collapse into one flight.
	release := make(chan struct{})
	blocked := func() (string, error) {
		calls.Add(1)
		<-release
		return "v", nil
	}

	var wg sync.WaitGroup
	for range 3 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = c.Do(context.Background(), "k", blocked)
		}()
	}
	require.Eventually(t, func() bool { return c.IsPending("k") }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(3), calls.Load())
}

func TestCachingLRUEviction(t *testing.T) {
	t.Parallel()

	c := coalescer.NewCaching[string, string](
		coalescer.WithTTL(time.Minute),
		coalescer.WithMaxSize(2),
	)

	fetch := func(v string) func() (string, error) {
		return func() (string, error) { return v, nil }
	}

	_, err := c.Do(context.Background(), "k1", fetch("v1"))
	require.NoError(t, err)
	_, err = c.Do(context.Background(), "k2", fetch("v2"))
	require.NoError(t, err)

	// Touch k1 so k2 becomes the eviction candidate.
	_, err = c.Do(context.Background(), "k1", fetch("unused"))
	require.NoError(t, err)

	_, err = c.Do(context.Background(), "k3", fetch("v3"))
	require.NoError(t, err)

	assert.True(t, c.IsCached("k1"))
	assert.False(t, c.IsCached("k2"))
	assert.True(t, c.IsCached("k3"))
	assert.Equal(t, 2, c.Stats().CacheSize)
}

func TestCachingEvictsExactlyLeastRecentlyUsed(t *testing.T) {
	t.Parallel()

	c := coalescer.NewCaching[int, int](
		coalescer.WithTTL(time.Minute),
		coalescer.WithMaxSize(3),
	)

	for i := 1; i <= 3; i++ {
		_, err := c.Do(context.Background(), i, func() (int, error) { return i, nil })
		require.NoError(t, err)
	}

	// Insertion order is 1, 2, 3; inserting 4 must evict only 1.
	_, err := c.Do(context.Background(), 4, func() (int, error) { return 4, nil })
	require.NoError(t, err)

	assert.False(t, c.IsCached(1))
	for _, key := range []int{2, 3, 4} {
		assert.True(t, c.IsCached(key), "key %d should remain cached", key)
	}
}

func TestCachingFailuresAreNeverCached(t *testing.T) {
	t.Parallel()

	c := coalescer.NewCaching[string, string](coalescer.WithTTL(time.Minute))
	errUpstream := errors.New("upstream unavailable")

	_, err := c.Do(context.Background(), "k", func() (string, error) {
		return "", errUpstream
	})
	assert.ErrorIs(t, err, errUpstream)
	assert.False(t, c.IsCached("k"))
	assert.Zero(t, c.Stats().CacheSize)

	got, err := c.Do(context.Background(), "k", func() (string, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.True(t, c.IsCached("k"))
}

func TestCachingConcurrentMissesCoalesce(t *testing.T) {
	t.Parallel()

	c := coalescer.NewCaching[string, string](coalescer.WithTTL(time.Minute))

	var calls atomic.Int32
	release := make(chan struct{})
	fn := func() (string, error) {
		calls.Add(1)
		<-release
		return "shared", nil
	}

	const waiters = 5
	results := make([]string, waiters)
	var wg sync.WaitGroup
	for i := range waiters {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], _ = c.Do(context.Background(), "k", fn)
		}()
	}

	require.Eventually(t, func() bool { return c.IsPending("k") }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for i := range waiters {
		assert.Equal(t, "shared", results[i])
	}
	// The flight settled into the cache.
	assert.False(t, c.IsPending("k"))
	assert.True(t, c.IsCached("k"))
}

func TestCachingCacheHitTouchesNoFlightBookkeeping(t *testing.T) {
	t.Parallel()

	c := coalescer.NewCaching[string, string](coalescer.WithTTL(time.Minute))

	_, err := c.Do(context.Background(), "k", func() (string, error) { return "v", nil })
	require.NoError(t, err)

	got, err := c.Do(context.Background(), "k", func() (string, error) {
		return "", errors.New("must not run")
	})
	require.NoError(t, err)
	assert.Equal(t, "v", got)
	assert.Zero(t, c.Stats().PendingCount)
}

func TestCachingInvalidate(t *testing.T) {
	t.Parallel()

	c := coalescer.NewCaching[string, string](coalescer.WithTTL(time.Minute))

	var calls atomic.Int32
	fn := func() (string, error) {
		calls.Add(1)
		return "v", nil
	}

	_, err := c.Do(context.Background(), "k", fn)
	require.NoError(t, err)
	require.True(t, c.IsCached("k"))

	c.Invalidate("k")
	assert.False(t, c.IsCached("k"))
	assert.Zero(t, c.Stats().CacheSize)

	_, err = c.Do(context.Background(), "k", fn)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestCachingClear(t *testing.T) {
	t.Parallel()

	c := coalescer.NewCaching[string, string](
		coalescer.WithTTL(time.Minute),
		coalescer.WithMaxSize(10),
	)

	for _, key := range []string{"a", "b", "c"} {
		_, err := c.Do(context.Background(), key, func() (string, error) { return key, nil })
		require.NoError(t, err)
	}
	require.Equal(t, 3, c.Stats().CacheSize)

	c.Clear()

	stats := c.Stats()
	assert.Zero(t, stats.CacheSize)
	assert.Zero(t, stats.PendingCount)
	for _, key := range []string{"a", "b", "c"} {
		assert.False(t, c.IsCached(key))
	}
}

func TestCachingStatsReportsConfigurationAndRawCount(t *testing.T) {
	t.Parallel()

	c := coalescer.NewCaching[string, string](
		coalescer.WithTTL(50*time.Millisecond),
		coalescer.WithMaxSize(5),
	)

	_, err := c.Do(context.Background(), "k", func() (string, error) { return "v", nil })
	require.NoError(t, err)

	stats := c.Stats()
	assert.Equal(t, 1, stats.CacheSize)
	assert.Equal(t, 5, stats.MaxSize)
	assert.Equal(t, 50*time.Millisecond, stats.TTL)

	// Expired entries stay resident until overwritten, evicted, or
	// invalidated; the raw count deliberately includes them.
	time.Sleep(80 * time.Millisecond)
	assert.False(t, c.IsCached("k"))
	assert.Equal(t, 1, c.Stats().CacheSize)
}

func TestCachingFailedOpAfterwardsNotCachedThenSucceeds(t *testing.T) {
	t.Parallel()

	c := coalescer.NewCaching[string, string](coalescer.WithTTL(time.Minute))
	errBoom := errors.New("boom")

	_, err := c.Do(context.Background(), "k", func() (string, error) {
		return "", errBoom
	})
	require.ErrorIs(t, err, errBoom)
	assert.False(t, c.IsCached("k"))

	var succeeded atomic.Bool
	got, err := c.Do(context.Background(), "k", func() (string, error) {
		succeeded.Store(true)
		return "ok", nil
	})
	require.NoError(t, err)
	assert.True(t, succeeded.Load())
	assert.Equal(t, "ok", got)
}
