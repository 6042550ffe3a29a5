package db

import "log/slog"

// Option is a function that allows configuring the Pool.
type Option func(*Pool)

// WithLogger sets the logger used by the Pool.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pool) {
		p.logger = logger.With("component", "db")
	}
}

// DefaultOptions returns the default Pool options.
func DefaultOptions() []Option {
	return []Option{
		WithLogger(slog.Default()),
	}
}
