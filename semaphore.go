package minirt

import "sync"

// Semaphore provides a way to bound asynchronous access to a resource.
// The callers can request access with a given weight.
//
// Waiters are served in FIFO order: a big request at the front blocks
// smaller ones behind it.
//
// Note that this Semaphore type does not provide backpressure for spawning
// a lot of tasks.
type Semaphore struct {
	mu      sync.Mutex
	size    int64
	cur     int64
	waiters []*semaWaiter
}

type semaWaiter struct {
	n       int64
	waker   Waker
	granted bool
}

// NewSemaphore creates a new weighted semaphore with the given maximum
// combined weight.
func NewSemaphore(n int64) *Semaphore {
	return &Semaphore{size: n}
}

// Acquire returns a [Future] that awaits until a weight of n is acquired
// from the semaphore, and then completes.
//
// If n is greater than the size of the semaphore, the Future never
// completes, and does not hold up other Acquire calls either.
func (s *Semaphore) Acquire(n int64) Future {
	if n < 0 {
		panic("minirt(Semaphore): negative weight")
	}
	var w *semaWaiter
	return FutureFunc(func(cx *Context) Poll {
		s.mu.Lock()
		defer s.mu.Unlock()

		if w != nil {
			if w.granted {
				return Ready
			}
			if !w.waker.WillWake(cx.Waker()) {
				w.waker = cx.Waker()
			}
			return Pending
		}

		if n > s.size {
			return Pending // Can never fit; not queued.
		}

		if len(s.waiters) == 0 && s.size-s.cur >= n {
			s.cur += n
			return Ready
		}

		w = &semaWaiter{n: n, waker: cx.Waker()}
		s.waiters = append(s.waiters, w)

		return Pending
	})
}

// TryAcquire acquires the semaphore with a weight of n without blocking.
// On success, returns true. On failure, returns false and leaves
// the semaphore unchanged.
func (s *Semaphore) TryAcquire(n int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.waiters) == 0 && s.size-s.cur >= n {
		s.cur += n
		return true
	}

	return false
}

// Release releases the semaphore with a weight of n.
func (s *Semaphore) Release(n int64) {
	if n < 0 {
		panic("minirt(Semaphore): negative weight")
	}

	s.mu.Lock()

	s.cur -= n
	if s.cur < 0 {
		s.mu.Unlock()
		panic("minirt(Semaphore): released more than held")
	}

	var wakers []Waker

	i := 0
	for ; i < len(s.waiters); i++ {
		w := s.waiters[i]
		if s.size-s.cur < w.n {
			break
		}
		s.cur += w.n
		w.granted = true
		wakers = append(wakers, w.waker)
		s.waiters[i] = nil
	}

	s.waiters = s.waiters[i:]

	s.mu.Unlock()

	for _, w := range wakers {
		w.Wake()
	}
}
