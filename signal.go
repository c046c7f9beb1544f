package minirt

import "sync"

// Signal is a goroutine-safe notification point.
//
// Calling the Notify method of a Signal, from any goroutine, wakes every
// task that is awaiting the Signal.
//
// The zero value is ready to use. A Signal must not be copied after first
// use.
type Signal struct {
	mu     sync.Mutex
	seq    uint64
	wakers map[Waker]struct{}
}

func (s *Signal) registerLocked(w Waker) {
	wakers := s.wakers
	if wakers == nil {
		wakers = make(map[Waker]struct{})
		s.wakers = wakers
	}
	wakers[w] = struct{}{}
}

// Notify wakes every task that is awaiting s.
func (s *Signal) Notify() {
	s.mu.Lock()
	s.seq++
	wakers := s.wakers
	s.wakers = nil
	s.mu.Unlock()

	for w := range wakers {
		w.Wake()
	}
}

// Await returns a [Future] that completes on the first notification of s
// after the Future is first polled.
// Notifications before that are not observed.
func (s *Signal) Await() Future {
	var (
		armed bool
		seq   uint64
	)
	return FutureFunc(func(cx *Context) Poll {
		s.mu.Lock()
		defer s.mu.Unlock()

		if !armed {
			armed = true
			seq = s.seq
		} else if s.seq != seq {
			return Ready
		}

		s.registerLocked(cx.Waker())

		return Pending
	})
}
