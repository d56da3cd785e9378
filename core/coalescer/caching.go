package coalescer

import (
	"container/list"
	"context"
	"fmt"
	"sync"
	"time"
)

// cacheEntry is an admitted result. Entries are immutable once written; a
// re-admission for the same key recreates the entry rather than mutating it.
type cacheEntry[K comparable, V any] struct {
	key       K
	value     V
	createdAt time.Time
}

// Stats is an observability snapshot of a CachingCoalescer.
type Stats struct {
	CacheSize    int           // Raw entry count, lazily-expired entries included
	PendingCount int           // Distinct keys currently in flight
	MaxSize      int           // Configured capacity, 0 means unbounded
	TTL          time.Duration // Configured validity window, 0 means caching disabled
}

// CachingCoalescer combines per-key call deduplication with a bounded cache
// of successful results. Cached values expire after the configured TTL and
// the least-recently-used entry is evicted when the cache is at capacity.
// Safe for concurrent use.
//
// Expiry is lazy: an expired entry is treated as absent on read but stays
// resident, counting toward capacity, until overwritten, evicted, or
// invalidated.
type CachingCoalescer[K comparable, V any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	maxSize int
	flights map[K]*call[V]
	entries map[K]*list.Element
	order   *list.List // access order: least-recently-used at the front
}

// NewCaching creates a caching coalescer. Without WithTTL caching is disabled
// and the instance degrades to pure coalescing; without WithMaxSize the cache
// grows unbounded.
func NewCaching[K comparable, V any](opts ...Option) *CachingCoalescer[K, V] {
	options := defaultOptions()
	for _, opt := range opts {
		opt(&options)
	}

	return &CachingCoalescer[K, V]{
		ttl:     options.ttl,
		maxSize: options.maxSize,
		flights: make(map[K]*call[V]),
		entries: make(map[K]*list.Element),
		order:   list.New(),
	}
}

// Do returns the cached value for key if a valid entry exists, attaches to an
// in-flight execution if one is pending, and otherwise runs fn. A cache hit
// repositions the entry as most-recently-used and touches no flight
// bookkeeping. On success the result is admitted to the cache when a TTL is
// configured; failures are never cached and propagate verbatim to every
// attached caller.
func (c *CachingCoalescer[K, V]) Do(ctx context.Context, key K, fn func() (V, error)) (V, error) {
	c.mu.Lock()
	if el, ok := c.entries[key]; ok {
		ent := el.Value.(*cacheEntry[K, V])
		if c.validLocked(ent, time.Now()) {
			c.order.MoveToBack(el)
			value := ent.value
			c.mu.Unlock()
			return value, nil
		}
	}

	if fl, ok := c.flights[key]; ok {
		c.mu.Unlock()
		return await(ctx, fl)
	}

	fl := &call[V]{done: make(chan struct{})}
	c.flights[key] = fl
	c.mu.Unlock()

	c.settle(key, fl, fn)
	return fl.val, fl.err
}

// settle runs fn, then under one lock drops the flight entry and admits a
// successful result, before releasing waiters. Invalidating a key mid-flight
// does not suppress the admission; only the flight bookkeeping honors it.
func (c *CachingCoalescer[K, V]) settle(key K, fl *call[V], fn func() (V, error)) {
	defer func() {
		c.mu.Lock()
		if cur, ok := c.flights[key]; ok && cur == fl {
			delete(c.flights, key)
		}
		if fl.err == nil && c.ttl > 0 {
			c.admitLocked(key, fl.val)
		}
		c.mu.Unlock()
		close(fl.done)
	}()
	defer func() {
		if r := recover(); r != nil {
			fl.err = fmt.Errorf("operation panicked: %v", r)
			panic(r)
		}
	}()

	fl.val, fl.err = fn()
}

// admitLocked inserts a fresh entry for key, evicting the least-recently-used
// entry first when the cache is at capacity. An existing entry for key
// (necessarily expired, or it would have been a hit) is recreated in place of
// being mutated. Callers must hold c.mu.
func (c *CachingCoalescer[K, V]) admitLocked(key K, value V) {
	if el, ok := c.entries[key]; ok {
		c.order.Remove(el)
		delete(c.entries, key)
	} else if c.maxSize > 0 && c.order.Len() >= c.maxSize {
		if front := c.order.Front(); front != nil {
			evicted := front.Value.(*cacheEntry[K, V])
			c.order.Remove(front)
			delete(c.entries, evicted.key)
		}
	}

	el := c.order.PushBack(&cacheEntry[K, V]{
		key:       key,
		value:     value,
		createdAt: time.Now(),
	})
	c.entries[key] = el
}

func (c *CachingCoalescer[K, V]) validLocked(ent *cacheEntry[K, V], now time.Time) bool {
	return c.ttl > 0 && now.Sub(ent.createdAt) < c.ttl
}

// IsCached reports whether a valid (non-expired) entry exists for key.
// Expired-but-resident entries report false.
func (c *CachingCoalescer[K, V]) IsCached(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.entries[key]
	if !ok {
		return false
	}
	return c.validLocked(el.Value.(*cacheEntry[K, V]), time.Now())
}

// IsPending reports whether an operation is currently in flight for key.
func (c *CachingCoalescer[K, V]) IsPending(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.flights[key]
	return ok
}

// Invalidate removes key from the cache, the flight map, and the access
// order, unconditionally. Callers already attached to an in-flight operation
// for key still receive its eventual outcome.
func (c *CachingCoalescer[K, V]) Invalidate(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[key]; ok {
		c.order.Remove(el)
		delete(c.entries, key)
	}
	delete(c.flights, key)
}

// Clear empties the cache, the flight map, and the access order.
func (c *CachingCoalescer[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.flights)
	clear(c.entries)
	c.order.Init()
}

// Stats returns a point-in-time snapshot for observability. CacheSize is the
// raw entry count: lazily-expired entries still occupying capacity are
// included.
func (c *CachingCoalescer[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		CacheSize:    len(c.entries),
		PendingCount: len(c.flights),
		MaxSize:      c.maxSize,
		TTL:          c.ttl,
	}
}
