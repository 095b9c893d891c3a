package log

import (
	"io"
	"log/slog"
	"os"
)

// Config controls logger construction.
type Config struct {
	// Writer receives log output. Defaults to standard error so report
	// text on standard output stays machine-consumable.
	Writer io.Writer

	// Verbose lowers the level to Debug.
	Verbose bool
}

// Option configures the logger.
type Option func(*Config)

// WithWriter directs log output to w.
func WithWriter(w io.Writer) Option {
	return func(c *Config) {
		c.Writer = w
	}
}

// WithVerbose enables debug-level output.
func WithVerbose(verbose bool) Option {
	return func(c *Config) {
		c.Verbose = verbose
	}
}

// New creates the tool's logger: a text handler on standard error,
// Info level unless verbose.
func New(opts ...Option) *slog.Logger {
	cfg := Config{Writer: os.Stderr}
	for _, opt := range opts {
		opt(&cfg)
	}

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cfg.Writer, &slog.HandlerOptions{Level: level}))
}

// WithComponent tags a logger with the analysis component it serves,
// e.g. "tokenizer" or "pipeline".
func WithComponent(logger *slog.Logger, component string) *slog.Logger {
	return logger.With("component", component)
}
