package migrator

import "log/slog"

// Option is a function that allows configuring the Engine.
type Option func(*Engine)

// WithLogger sets the logger used by the Engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger.With("component", "migrator")
	}
}
