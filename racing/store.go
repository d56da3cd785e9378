package racing

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/arvindsc/entain-assessment/core/coalescer"
	"github.com/arvindsc/entain-assessment/pkg/keygen"
)

// Fetcher is the upstream surface the store depends on.
type Fetcher interface {
	NextRaces(ctx context.Context, count int) ([]Race, error)
}

// StoreConfig holds polling-store configuration with environment variable
// support.
type StoreConfig struct {
	PollInterval time.Duration `env:"RACING_POLL_INTERVAL" envDefault:"15s"`
	CacheTTL     time.Duration `env:"RACING_CACHE_TTL" envDefault:"5s"`
	CacheSize    int           `env:"RACING_CACHE_SIZE" envDefault:"32"`
	FetchCount   int           `env:"RACING_FETCH_COUNT" envDefault:"50"`
	DefaultCount int           `env:"RACING_DEFAULT_COUNT" envDefault:"5"`
	StartGrace   time.Duration `env:"RACING_START_GRACE" envDefault:"1m"`
}

// Store keeps the next-to-go list fresh and serves filtered snapshots.
// Concurrent refreshes for the same fetch parameters collapse into a single
// upstream call, and successful results are cached for the configured TTL, so
// the serving path only touches the network when the window has lapsed.
type Store struct {
	fetcher Fetcher
	calls   *coalescer.CachingCoalescer[string, []Race]
	cfg     StoreConfig
	logger  *slog.Logger
	now     func() time.Time

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running atomic.Bool

	refreshes atomic.Int64
	failures  atomic.Int64
}

// StoreStats provides observability metrics for monitoring and debugging.
type StoreStats struct {
	Refreshes int64           // Total refresh attempts, background and on-demand
	Failures  int64           // Refresh attempts that returned an error
	IsRunning bool            // Whether the polling loop is running
	Cache     coalescer.Stats // Underlying cache/coalescer snapshot
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithStoreLogger sets the logger for polling diagnostics.
func WithStoreLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewStore creates a store over the given fetcher.
func NewStore(fetcher Fetcher, cfg StoreConfig, opts ...StoreOption) (*Store, error) {
	if fetcher == nil {
		return nil, ErrFetcherNil
	}

	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 15 * time.Second
	}
	if cfg.FetchCount <= 0 {
		cfg.FetchCount = 50
	}
	if cfg.DefaultCount <= 0 {
		cfg.DefaultCount = 5
	}
	if cfg.StartGrace <= 0 {
		cfg.StartGrace = time.Minute
	}

	s := &Store{
		fetcher: fetcher,
		calls: coalescer.NewCaching[string, []Race](
			coalescer.WithTTL(cfg.CacheTTL),
			coalescer.WithMaxSize(cfg.CacheSize),
		),
		cfg:    cfg,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Start launches the background polling loop that keeps the cache warm.
func (s *Store) Start(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrStoreRunning
	}

	pollCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.cfg.PollInterval)
		defer ticker.Stop()

		s.logger.Info("race polling started", "interval", s.cfg.PollInterval)
		s.warm(pollCtx)
		for {
			select {
			case <-pollCtx.Done():
				s.logger.Info("race polling stopped")
				return
			case <-ticker.C:
				// Drop the lapsed window so the tick refreshes instead of
				// serving a stale-but-valid entry.
				s.calls.Invalidate(s.refreshKey())
				s.warm(pollCtx)
			}
		}
	}()
	return nil
}

// Stop halts the polling loop and waits for it to exit. Safe to call when
// the store was never started.
func (s *Store) Stop() {
	if !s.running.CompareAndSwap(true, false) {
		return
	}
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
}

// Next returns up to count races sorted ascending by advertised start,
// filtered to the given categories (all categories when none are supplied).
// Races that started more than the configured grace period ago are dropped.
// A non-positive count uses the configured default.
func (s *Store) Next(ctx context.Context, count int, categories ...uuid.UUID) ([]Race, error) {
	if count <= 0 {
		count = s.cfg.DefaultCount
	}

	races, err := s.refresh(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	visible := make([]Race, 0, len(races))
	for _, race := range races {
		if race.StartedBefore(now, s.cfg.StartGrace) {
			continue
		}
		if len(categories) > 0 && !slices.Contains(categories, race.CategoryID) {
			continue
		}
		visible = append(visible, race)
	}

	slices.SortStableFunc(visible, func(a, b Race) int {
		return a.AdvertisedStart.Compare(b.AdvertisedStart)
	})

	if len(visible) > count {
		visible = visible[:count]
	}
	return visible, nil
}

// refresh returns the current race list, coalescing concurrent callers and
// serving from cache within the TTL window.
func (s *Store) refresh(ctx context.Context) ([]Race, error) {
	races, err := s.calls.Do(ctx, s.refreshKey(), func() ([]Race, error) {
		s.refreshes.Add(1)
		fetched, err := s.fetcher.NextRaces(ctx, s.cfg.FetchCount)
		if err != nil {
			s.failures.Add(1)
			return nil, err
		}
		return fetched, nil
	})
	if err != nil {
		return nil, err
	}
	return races, nil
}

func (s *Store) refreshKey() string {
	return keygen.FromArgs("nextraces", s.cfg.FetchCount)
}

// warm refreshes the cache in the background, logging failures instead of
// surfacing them; callers hitting Next still see the previous window's data
// until it expires.
func (s *Store) warm(ctx context.Context) {
	start := time.Now()
	races, err := s.refresh(ctx)
	if err != nil {
		s.logger.Error("background refresh failed", "error", err)
		return
	}
	s.logger.Debug("background refresh complete",
		"races", len(races),
		"elapsed", time.Since(start),
	)
}

// Stats returns a point-in-time snapshot for observability.
func (s *Store) Stats() StoreStats {
	return StoreStats{
		Refreshes: s.refreshes.Load(),
		Failures:  s.failures.Load(),
		IsRunning: s.running.Load(),
		Cache:     s.calls.Stats(),
	}
}
