package minirt

import (
	"sync"
	"time"
)

// DelayState is the state of a [Delay].
type DelayState int8

const (
	// Unarmed means the Delay has never been polled.
	Unarmed DelayState = iota
	// Armed means the Delay has a timing agent waiting for the deadline.
	Armed
	// Elapsed means the deadline has been reached.
	Elapsed
)

var delayStateNames = [...]string{"Unarmed", "Armed", "Elapsed"}

// String implements [fmt.Stringer].
func (s DelayState) String() string {
	if s < 0 || int(s) >= len(delayStateNames) {
		return "DelayState(?)"
	}
	return delayStateNames[s]
}

// A Delay is a [Future] that completes no earlier than its deadline.
//
// The first poll starts a timing agent: a goroutine that sleeps until the
// deadline and then calls the latest [Waker] the Delay was polled with,
// exactly once. Later polls only swap the stored Waker if it would resume
// a different task.
//
// A Delay must not be polled by more than one task at the same time.
type Delay struct {
	when  time.Time
	clock Clock
	agent *timerAgent
}

type timerAgent struct {
	mu    sync.Mutex
	waker Waker
}

// NewDelay creates a [Delay] whose deadline is c.Now() plus d.
// If c is nil, [SystemClock] is used.
func NewDelay(c Clock, d time.Duration) *Delay {
	if c == nil {
		c = SystemClock
	}
	return &Delay{when: c.Now().Add(d), clock: c}
}

// Deadline returns the deadline of d.
func (d *Delay) Deadline() time.Time {
	return d.when
}

// State returns the current state of d.
func (d *Delay) State() DelayState {
	switch {
	case d.agent == nil:
		return Unarmed
	case d.clock.Now().Before(d.when):
		return Armed
	default:
		return Elapsed
	}
}

// Poll implements [Future].
func (d *Delay) Poll(cx *Context) Poll {
	w := cx.Waker()

	if a := d.agent; a != nil {
		a.mu.Lock()
		if !a.waker.WillWake(w) {
			a.waker = w
		}
		a.mu.Unlock()
	} else {
		a = &timerAgent{waker: w}
		d.agent = a
		cx.executor.log().Debug("delay armed", "task", w.id, "deadline", d.when)
		go a.run(d.clock, d.when)
	}

	if d.clock.Now().Before(d.when) {
		return Pending
	}

	return Ready
}

func (a *timerAgent) run(c Clock, when time.Time) {
	c.Sleep(max(0, when.Sub(c.Now())))

	a.mu.Lock()
	w := a.waker
	a.mu.Unlock()

	if e := w.executor; e != nil {
		e.log().Debug("delay fired", "task", w.id)
	}

	w.Wake()
}

// Sleep returns a [Future] that completes no earlier than d after its first
// poll.
//
// The deadline is fixed when the Future is first polled, using the [Clock]
// of the [Executor] polling it; a [Delay] is then created and polled in
// place of the Future.
func Sleep(d time.Duration) Future {
	return Lazy(func(cx *Context) Future {
		return NewDelay(cx.Clock(), d)
	})
}
