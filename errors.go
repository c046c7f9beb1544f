package minirt

import "errors"

var (
	// ErrResumeContention is the panic value raised when a task is resumed
	// while another resumption of the same task is still in progress.
	// It always indicates a scheduler bug.
	ErrResumeContention = errors.New("minirt: task is already being resumed")

	// ErrContextExpired is the panic value raised when a [Context] is used
	// after the poll it was created for has returned.
	ErrContextExpired = errors.New("minirt: context used outside of its poll")

	// ErrSpawnerClosed is the panic value raised when a closed [Spawner]
	// is asked to spawn.
	ErrSpawnerClosed = errors.New("minirt: spawner has been closed")
)
