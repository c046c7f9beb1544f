package minirt

// A WaitGroup is a [Signal] with a counter.
//
// Calling the Add or Done method of a WaitGroup, from any goroutine,
// updates the counter and, when the counter becomes zero, wakes any task
// that is awaiting the WaitGroup.
type WaitGroup struct {
	Signal
	n int
}

// Add adds delta, which may be negative, to the [WaitGroup] counter.
// If the [WaitGroup] counter becomes zero, Add wakes any task that is
// awaiting wg.
// If the [WaitGroup] counter is negative, Add panics.
func (wg *WaitGroup) Add(delta int) {
	wg.mu.Lock()
	if wg.n >= 0 {
		wg.n += delta
	}
	n := wg.n
	wg.mu.Unlock()

	if n < 0 {
		panic("minirt(WaitGroup): negative counter")
	}
	if n == 0 && delta != 0 {
		wg.Notify()
	}
}

// Done decrements the [WaitGroup] counter by one.
func (wg *WaitGroup) Done() {
	wg.Add(-1)
}

// Await returns a [Future] that awaits until the [WaitGroup] counter becomes
// zero, and then completes.
func (wg *WaitGroup) Await() Future {
	return FutureFunc(func(cx *Context) Poll {
		wg.mu.Lock()
		defer wg.mu.Unlock()

		if wg.n == 0 {
			return Ready
		}

		wg.registerLocked(cx.Waker())

		return Pending
	})
}
