package logger

import (
	"io"
	"log/slog"
	"os"
)

type settings struct {
	level  slog.Level
	json   bool
	output io.Writer
	attrs  []slog.Attr
}

// Option configures the logger factory.
type Option func(*settings)

// WithDevelopment configures text output at debug level, tagged with the
// application name.
func WithDevelopment(app string) Option {
	return func(s *settings) {
		s.level = slog.LevelDebug
		s.json = false
		if app != "" {
			s.attrs = append(s.attrs, slog.String("app", app))
		}
	}
}

// WithProduction configures JSON output at info level, tagged with the
// application name.
func WithProduction(app string) Option {
	return func(s *settings) {
		s.level = slog.LevelInfo
		s.json = true
		if app != "" {
			s.attrs = append(s.attrs, slog.String("app", app))
		}
	}
}

// WithLevel overrides the minimum log level.
func WithLevel(level slog.Level) Option {
	return func(s *settings) { s.level = level }
}

// WithJSONFormatter switches output to JSON regardless of preset.
func WithJSONFormatter() Option {
	return func(s *settings) { s.json = true }
}

// WithOutput redirects log output; defaults to stdout.
func WithOutput(w io.Writer) Option {
	return func(s *settings) {
		if w != nil {
			s.output = w
		}
	}
}

// WithAttr attaches a static attribute to every record.
func WithAttr(attr slog.Attr) Option {
	return func(s *settings) { s.attrs = append(s.attrs, attr) }
}

// New creates a configured *slog.Logger. Without options it logs text at
// info level to stdout.
func New(opts ...Option) *slog.Logger {
	s := settings{
		level:  slog.LevelInfo,
		output: os.Stdout,
	}
	for _, opt := range opts {
		opt(&s)
	}

	ho := &slog.HandlerOptions{Level: s.level}
	var handler slog.Handler
	if s.json {
		handler = slog.NewJSONHandler(s.output, ho)
	} else {
		handler = slog.NewTextHandler(s.output, ho)
	}
	if len(s.attrs) > 0 {
		handler = handler.WithAttrs(s.attrs)
	}

	return slog.New(handler)
}
