// Package coalescer deduplicates concurrent calls that share a logical key,
// so that only one underlying operation runs per key at a time and every
// concurrent caller receives the same outcome. CachingCoalescer layers a
// bounded, TTL-expiring result cache with LRU eviction on top of the same
// deduplication guarantees.
//
// # Coalescer
//
// Use Coalescer when repeated concurrent work for the same key should
// collapse into a single execution:
//
//	import "github.com/arvindsc/entain-assessment/core/coalescer"
//
//	c := coalescer.New[string, *Profile]()
//
//	// All concurrent calls for "user:123" share one fetch.
//	profile, err := c.Do(ctx, "user:123", func() (*Profile, error) {
//		return fetchProfile("123")
//	})
//
// Failures propagate verbatim to every attached caller, and the next Do call
// issued after settlement starts fresh work. The coalescer never retries and
// never caches.
//
// # CachingCoalescer
//
// CachingCoalescer additionally remembers successful results for a configured
// TTL, evicting the least-recently-used entry when the cache is full:
//
//	c := coalescer.NewCaching[string, []Race](
//		coalescer.WithTTL(5*time.Second),
//		coalescer.WithMaxSize(100),
//	)
//
//	races, err := c.Do(ctx, "next:horse", fetchNextHorseRaces)
//
// Without WithTTL the cache is disabled entirely and the type behaves as a
// plain coalescer. Without WithMaxSize the cache grows unbounded. Expiry is
// lazy: an expired entry stays resident (and counts toward capacity) until it
// is overwritten, evicted, or invalidated.
//
// # Wrapping functions
//
// Wrap turns any single-argument function into a transparently coalesced one,
// deriving keys from the argument via pkg/keygen by default:
//
//	fetch := coalescer.Wrap(client.RaceByID)
//	race, err := fetch(ctx, raceID) // concurrent calls with equal IDs coalesce
package coalescer
