package minirt

import "slices"

// Poll is the result of polling a [Future].
type Poll bool

const (
	// Pending means the Future has suspended. It must have arranged for
	// the Waker of the polling task to be called some time later.
	Pending Poll = false
	// Ready means the Future has completed.
	Ready Poll = true
)

// String implements [fmt.Stringer].
func (p Poll) String() string {
	if p == Ready {
		return "Ready"
	}
	return "Pending"
}

// A Future is a computation that may suspend and resume multiple times
// before completing.
//
// An [Executor] drives a Future by calling its Poll method, each time the
// task owning the Future is resumed, until Poll returns [Ready].
// When Poll returns [Pending], the Future must have stored cx.Waker()
// somewhere so that the task resumes when the Future is able to make
// progress. Otherwise, the task never resumes.
//
// Futures are stateful. A Future must not be spawned twice, or be used in
// more than one place.
type Future interface {
	Poll(cx *Context) Poll
}

// FutureFunc is a func(cx *Context) Poll that implements the [Future]
// interface.
type FutureFunc func(cx *Context) Poll

// Poll implements [Future].
func (f FutureFunc) Poll(cx *Context) Poll { return f(cx) }

// Do returns a [Future] that calls f, and then completes.
func Do(f func()) Future {
	return FutureFunc(func(cx *Context) Poll {
		f()
		return Ready
	})
}

// Func returns a [Future] that calls f, with the polling [Context], and then
// completes.
func Func(f func(cx *Context)) Future {
	return FutureFunc(func(cx *Context) Poll {
		f(cx)
		return Ready
	})
}

// End returns a [Future] that completes without doing anything.
func End() Future {
	return FutureFunc(func(*Context) Poll { return Ready })
}

// Never returns a [Future] that never completes.
// Futures in a [Block] after Never are never getting polled.
func Never() Future {
	return FutureFunc(func(*Context) Poll { return Pending })
}

// Yield returns a [Future] that suspends once, waking its own task before
// doing so, and then completes. Tasks queued in the meantime run first.
func Yield() Future {
	yielded := false
	return FutureFunc(func(cx *Context) Poll {
		if yielded {
			return Ready
		}
		yielded = true
		cx.Waker().Wake()
		return Pending
	})
}

// Lazy returns a [Future] that calls f on its first poll, and then behaves
// like the Future f returns.
func Lazy(f func(cx *Context) Future) Future {
	var fut Future
	return FutureFunc(func(cx *Context) Poll {
		if fut == nil {
			fut = must(f(cx))
		}
		return fut.Poll(cx)
	})
}

// Then returns a [Future] that first works on f, then next after f
// completes.
//
// To chain multiple Futures, use [Block] function.
func Then(f, next Future) Future {
	return Block(f, next)
}

// Block returns a [Future] that works on each of the given Futures in
// sequence. When one Future completes, Block polls another within the same
// poll.
func Block(s ...Future) Future {
	for _, f := range s {
		must(f)
	}
	s = slices.Clone(s)
	return FutureFunc(func(cx *Context) Poll {
		for len(s) != 0 {
			if s[0].Poll(cx) == Pending {
				return Pending
			}
			s[0] = nil
			s = s[1:]
		}
		return Ready
	})
}

// Loop returns a [Future] that, for i from 0 to n-1, works on f(i) in
// sequence, and then completes.
func Loop(n int, f func(i int) Future) Future {
	var (
		i   int
		cur Future
	)
	return FutureFunc(func(cx *Context) Poll {
		for i < n {
			if cur == nil {
				cur = must(f(i))
			}
			if cur.Poll(cx) == Pending {
				return Pending
			}
			cur = nil
			i++
		}
		return Ready
	})
}

// Join returns a [Future] that spawns each of the given Futures as a task
// of its own and awaits until all of them complete, and then completes.
//
// The tasks are spawned on the first poll, onto the [Executor] polling
// the returned Future.
func Join(s ...Future) Future {
	for _, f := range s {
		must(f)
	}
	return Lazy(func(cx *Context) Future {
		wg := new(WaitGroup)
		wg.Add(len(s))
		for _, f := range s {
			cx.Spawn(doneOnExit(f, wg.Done))
		}
		s = nil
		return wg.Await()
	})
}

// doneOnExit returns a [Future] that works on f and calls done once f
// completes or panics.
func doneOnExit(f Future, done func()) Future {
	return FutureFunc(func(cx *Context) Poll {
		returned := false
		defer func() {
			if !returned {
				done()
			}
		}()
		res := f.Poll(cx)
		returned = true
		if res == Ready {
			done()
		}
		return res
	})
}

func must(f Future) Future {
	if f == nil {
		panic("minirt: nil Future")
	}
	return f
}
