// Package logger provides structured logging utilities built on Go's standard
// slog package: a factory with environment presets and a set of pre-built
// attribute helpers for common logging scenarios.
//
// # Basic Usage
//
//	import "github.com/arvindsc/entain-assessment/core/logger"
//
//	// Development: text format, debug level
//	log := logger.New(logger.WithDevelopment("racedayd"))
//
//	// Production: JSON format, info level
//	log := logger.New(logger.WithProduction("racedayd"))
//
//	log.Info("store refreshed",
//		logger.Component("racing.store"),
//		logger.Count("races", len(races)),
//	)
//
// # Attribute Helpers
//
// Helpers follow the empty-Attr pattern for nil safety, so calls like
// log.Error("refresh failed", logger.Error(err)) need no explicit nil checks.
package logger
