package config

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// ErrNilConfig is returned when Load receives a nil pointer.
var ErrNilConfig = errors.New("config target cannot be nil")

var (
	mu      sync.Mutex
	cache   = make(map[reflect.Type]any)
	envOnce sync.Once
)

// Load parses environment variables into cfg. The first call for a given
// type parses the environment; subsequent calls return the cached value.
// A .env file in the working directory, if present, is loaded once before
// the first parse.
func Load[T any](cfg *T) error {
	if cfg == nil {
		return ErrNilConfig
	}

	// A missing .env file is not an error; real environments set vars directly.
	envOnce.Do(func() { _ = godotenv.Load() })

	mu.Lock()
	defer mu.Unlock()

	t := reflect.TypeOf(*cfg)
	if cached, ok := cache[t]; ok {
		*cfg = cached.(T)
		return nil
	}

	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("failed to parse %s from environment: %w", t, err)
	}

	cache[t] = *cfg
	return nil
}

// MustLoad is Load that panics on failure, for use at startup.
func MustLoad[T any](cfg *T) {
	if err := Load(cfg); err != nil {
		panic(err)
	}
}
