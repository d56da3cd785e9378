// Package config provides type-safe environment variable loading with caching
// using Go generics. Each configuration type is loaded once and cached for
// subsequent calls.
//
// The package automatically loads .env files on first use and uses the
// caarlos0/env library for parsing environment variables into struct fields.
//
// Basic usage:
//
//	import "github.com/arvindsc/entain-assessment/core/config"
//
//	type ClientConfig struct {
//		BaseURL string        `env:"RACING_API_URL" envDefault:"https://api.neds.com.au"`
//		Timeout time.Duration `env:"RACING_API_TIMEOUT" envDefault:"10s"`
//	}
//
//	func main() {
//		var cfg ClientConfig
//
//		// Load with error handling
//		if err := config.Load(&cfg); err != nil {
//			log.Fatal(err)
//		}
//
//		// Or panic on failure (useful for startup)
//		config.MustLoad(&cfg)
//	}
//
// # Caching Behavior
//
// Each configuration type is parsed from the environment only once per
// process; later Load calls for the same type return the cached value.
// Different types are cached independently.
package config
