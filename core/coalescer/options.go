package coalescer

import "time"

type options struct {
	ttl     time.Duration
	maxSize int
}

func defaultOptions() options {
	return options{}
}

// Option configures a CachingCoalescer.
type Option func(*options)

// WithTTL sets how long an admitted result stays valid. A non-positive value
// leaves caching disabled (pure coalescing mode).
func WithTTL(ttl time.Duration) Option {
	return func(o *options) {
		if ttl > 0 {
			o.ttl = ttl
		}
	}
}

// WithMaxSize bounds the number of retained entries; the least-recently-used
// entry is evicted when a new result is admitted at capacity. A non-positive
// value leaves the cache unbounded.
func WithMaxSize(size int) Option {
	return func(o *options) {
		if size > 0 {
			o.maxSize = size
		}
	}
}
