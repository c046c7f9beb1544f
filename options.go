package minirt

import "log/slog"

// An Option configures an [Executor] created by [NewExecutor].
type Option func(e *Executor)

// WithLogger sets the logger of an [Executor].
// By default, an Executor logs nothing.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		e.base = logger
	}
}

// WithClock sets the [Clock] an [Executor] offers to timed suspensions
// (see [Sleep]).
// By default, an Executor uses [SystemClock].
func WithClock(c Clock) Option {
	return func(e *Executor) {
		e.clock = c
	}
}

// WithName sets the name of an [Executor].
func WithName(name string) Option {
	return func(e *Executor) {
		e.name = name
	}
}
