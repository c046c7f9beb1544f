package minirt

// A Waker resumes one task.
//
// Calling the Wake method makes the task eligible for resumption again by
// adding it in the queue of its [Executor]. Wake is safe to call from any
// goroutine, any number of times. Waking a task that is already in the
// queue, or that has completed, has no effect.
//
// Wakers are comparable: two Wakers are equal if and only if they resume
// the same task. The zero Waker resumes nothing.
type Waker struct {
	executor *Executor
	id       TaskID
}

// Wake makes the task bound to w eligible for resumption.
func (w Waker) Wake() {
	if w.executor != nil {
		w.executor.wake(w.id)
	}
}

// WillWake reports whether w and other resume the same task.
func (w Waker) WillWake(other Waker) bool {
	return w == other
}

// Task returns the ID of the task bound to w.
func (w Waker) Task() TaskID {
	return w.id
}
