package minirt

import "sync/atomic"

// A Context is handed to [Future.Poll] each time a task is resumed.
//
// It carries the [Waker] of the task being polled, and the capability of
// spawning more tasks onto the same [Executor].
//
// A Context is only valid during the poll it was created for.
// Wakers obtained from it remain valid forever, but spawning through
// an expired Context panics with [ErrContextExpired].
type Context struct {
	executor *Executor
	waker    Waker
	expired  atomic.Bool
}

func (cx *Context) expire() {
	cx.expired.Store(true)
}

// Waker returns the [Waker] of the task being polled.
func (cx *Context) Waker() Waker {
	return cx.waker
}

// Task returns the ID of the task being polled.
func (cx *Context) Task() TaskID {
	return cx.waker.id
}

// Clock returns the [Clock] of the [Executor] polling the task.
func (cx *Context) Clock() Clock {
	return cx.executor.Clock()
}

// Spawn creates a task to work on f on the same [Executor] that is polling
// the current task. The new task runs later, in the same Run call.
func (cx *Context) Spawn(f Future) {
	if cx.expired.Load() {
		panic(ErrContextExpired)
	}
	cx.executor.Spawn(f)
}
