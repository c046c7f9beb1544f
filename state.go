package minirt

// A State is a [Signal] that carries a value.
// To retrieve the value, call the Get method.
//
// Calling the Set method of a State, from any goroutine, updates the value
// and wakes any task that is awaiting the State.
//
// A State with a flag set once makes a one-shot reply slot: one task
// awaits it with [State.AwaitSet], another task (or goroutine) calls
// [State.Set] exactly once.
type State[T any] struct {
	Signal
	value T
	isSet bool
}

// NewState creates a new [State] with its initial value set to v.
// The State is not considered set until the Set method is called.
func NewState[T any](v T) *State[T] {
	return &State[T]{value: v}
}

// Get retrieves the value of s.
func (s *State[T]) Get() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// Set updates the value of s and wakes any task that is awaiting s.
func (s *State[T]) Set(v T) {
	s.mu.Lock()
	s.value = v
	s.isSet = true
	s.mu.Unlock()
	s.Notify()
}

// Update sets the value of s to f(s.Get()) and wakes any task that is
// awaiting s. f is called with s locked; it must not use s.
func (s *State[T]) Update(f func(v T) T) {
	s.mu.Lock()
	s.value = f(s.value)
	s.isSet = true
	s.mu.Unlock()
	s.Notify()
}

// AwaitSet returns a [Future] that completes once the Set (or Update)
// method of s has been called at least once, including before the Future
// is first polled.
func (s *State[T]) AwaitSet() Future {
	return FutureFunc(func(cx *Context) Poll {
		s.mu.Lock()
		defer s.mu.Unlock()

		if s.isSet {
			return Ready
		}

		s.registerLocked(cx.Waker())

		return Pending
	})
}
