// Package logger builds slog loggers with a consistent configuration
// and provides attribute helpers for the identifiers this service logs.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Format represents logger output format.
type Format string

const (
	// FormatJSON outputs structured logs for production log aggregation.
	FormatJSON Format = "json"
	// FormatText outputs human-readable logs for development.
	FormatText Format = "text"
)

// Config holds logger configuration loaded from the environment.
type Config struct {
	Level  slog.Level `env:"LOG_LEVEL" envDefault:"info"`
	Format Format     `env:"LOG_FORMAT" envDefault:"text"`
}

type options struct {
	level  slog.Level
	format Format
	output io.Writer
}

// Option configures logger creation.
type Option func(*options)

// WithLevel sets the minimum log level.
func WithLevel(l slog.Level) Option {
	return func(o *options) { o.level = l }
}

// WithFormat sets the output format. Invalid formats panic so that
// misconfiguration prevents startup instead of causing runtime surprises.
func WithFormat(f Format) Option {
	return func(o *options) {
		switch f {
		case FormatJSON, FormatText:
			o.format = f
		default:
			panic(fmt.Errorf("invalid log format %q: must be %q or %q", f, FormatJSON, FormatText))
		}
	}
}

// WithOutput sets a custom output destination. Nil writers are ignored.
func WithOutput(w io.Writer) Option {
	return func(o *options) {
		if w != nil {
			o.output = w
		}
	}
}

// New creates a slog.Logger with the given options. Defaults: info level,
// text format, stdout.
func New(opts ...Option) *slog.Logger {
	o := options{
		level:  slog.LevelInfo,
		format: FormatText,
		output: os.Stdout,
	}
	for _, opt := range opts {
		opt(&o)
	}

	handlerOpts := &slog.HandlerOptions{Level: o.level}

	var handler slog.Handler
	switch o.format {
	case FormatJSON:
		handler = slog.NewJSONHandler(o.output, handlerOpts)
	default:
		handler = slog.NewTextHandler(o.output, handlerOpts)
	}

	return slog.New(handler)
}

// NewFromConfig creates a logger from environment-driven configuration.
func NewFromConfig(cfg Config, opts ...Option) *slog.Logger {
	configOpts := append([]Option{WithLevel(cfg.Level), WithFormat(cfg.Format)}, opts...)
	return New(configOpts...)
}

// NewDiscard returns a logger that drops all records. Used as the default
// for injected services so logging stays optional.
func NewDiscard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
