package minirt

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// An Executor is a task spawner, and a task runner.
//
// When a task is spawned or woken, its [TaskID] is added into an internal
// queue. The Run method then pops and resumes each of them from the queue.
// It is done in a single-threaded manner.
// If one task blocks, no other tasks can run.
// The best practice is not to block.
//
// The internal queue is a FIFO queue. A task that is already in the queue
// is not added again, no matter how many times it is woken.
//
// The zero value is ready to use. [NewExecutor] can be used to set a logger,
// a clock or a name.
type Executor struct {
	mu       sync.Mutex
	cond     sync.Cond
	q        queue[TaskID]
	tasks    taskTable
	spawners int
	running  bool
	ps       panicstack

	name   string
	clock  Clock
	base   *slog.Logger
	logger atomic.Pointer[slog.Logger]
}

// NewExecutor creates an [Executor] with the given options.
func NewExecutor(opts ...Option) *Executor {
	e := new(Executor)
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Executor) lock() {
	e.mu.Lock()
	if e.cond.L == nil {
		e.cond.L = &e.mu
	}
}

// Name returns the name of e, which appears in every log record of e.
//
// Unless set by [WithName], the name is a random UUID chosen the first time
// it is needed.
func (e *Executor) Name() string {
	e.lock()
	defer e.mu.Unlock()
	return e.nameLocked()
}

func (e *Executor) nameLocked() string {
	if e.name == "" {
		e.name = uuid.NewString()
	}
	return e.name
}

// Clock returns the [Clock] used by e for timed suspensions.
func (e *Executor) Clock() Clock {
	if e.clock == nil {
		return SystemClock
	}
	return e.clock
}

func (e *Executor) log() *slog.Logger {
	if logger := e.logger.Load(); logger != nil {
		return logger
	}

	base := e.base
	if base == nil {
		base = slog.New(slog.DiscardHandler)
	}

	e.logger.CompareAndSwap(nil, base.With("executor", e.Name()))

	return e.logger.Load()
}

// Spawn creates a task to work on f and adds it in the queue.
//
// There is no way to retrieve the outcome of f.
// To run it, call the Run method.
//
// Spawn is safe for concurrent use.
func (e *Executor) Spawn(f Future) {
	e.spawn(f)
}

func (e *Executor) spawn(f Future) TaskID {
	if f == nil {
		panic("minirt: Spawn(nil)")
	}

	e.lock()
	id, t := e.tasks.insert(f)
	t.queued = true
	e.q.Push(id)
	e.cond.Signal()
	e.mu.Unlock()

	e.log().Debug("task spawned", "task", id)

	return id
}

// Run pops and resumes every task in the queue, blocking when the queue is
// empty, until there are neither queued tasks nor producers left.
// Producers are tasks that have not yet completed, and Spawners that have
// not yet been closed.
//
// A task that suspends without arranging for its Waker to be called never
// completes; in such case, Run never returns.
//
// If any task panics, Run panics too, after the queue is drained, with an
// error that reports every panic value and its stack trace.
//
// Run must not be called twice at the same time.
func (e *Executor) Run() {
	logger := e.log()

	e.lock()

	if e.running {
		e.mu.Unlock()
		panic("minirt: Run called twice at the same time")
	}

	e.running = true

	logger.Info("run loop started", "tasks", e.tasks.live, "spawners", e.spawners)

	e.mu.Unlock()

	defer func() {
		e.lock()
		e.running = false
		e.mu.Unlock()
	}()

	e.drain()

	e.lock()
	ps := e.ps
	e.ps = nil
	e.mu.Unlock()

	logger.Info("run loop stopped", "panics", len(ps))

	ps.Repanic()
}

// drain resumes queued tasks until there are neither queued tasks nor
// producers left. e.mu is not held while a task is being resumed, so a
// panic out of resume leaves it unlocked.
func (e *Executor) drain() {
	e.lock()

	for {
		for e.q.Empty() && e.producers() != 0 {
			e.cond.Wait()
		}

		if e.q.Empty() {
			break
		}

		id := e.q.Pop()

		t := e.tasks.get(id)
		if t == nil {
			continue // Completed after being woken.
		}

		t.queued = false

		e.mu.Unlock()
		e.resume(id, t)
		e.mu.Lock()
	}

	e.mu.Unlock()
}

func (e *Executor) producers() int {
	return e.tasks.live + e.spawners
}

func (e *Executor) wake(id TaskID) {
	logger := e.log()

	e.lock()

	t := e.tasks.get(id)
	if t == nil || t.queued {
		e.mu.Unlock()
		return
	}

	logger.Debug("task woken", "task", id)

	t.queued = true
	e.q.Push(id)
	e.cond.Signal()
	e.mu.Unlock()
}

func (e *Executor) complete(id TaskID, ps panicstack) {
	e.lock()

	e.tasks.remove(id)
	e.ps = append(e.ps, ps...)

	if e.producers() == 0 {
		e.cond.Broadcast()
	}

	e.mu.Unlock()

	if len(ps) != 0 {
		e.log().Error("task panicked", "task", id, "panic", ps[len(ps)-1].value)
		return
	}

	e.log().Debug("task completed", "task", id)
}

// Stats is a snapshot of an [Executor]'s bookkeeping.
type Stats struct {
	Live     int // Tasks that have not yet completed.
	Queued   int // Entries in the ready queue.
	Spawners int // Spawners that have not yet been closed.
}

// Stats returns a snapshot of e's bookkeeping.
func (e *Executor) Stats() Stats {
	e.lock()
	defer e.mu.Unlock()
	return Stats{
		Live:     e.tasks.live,
		Queued:   e.q.Len(),
		Spawners: e.spawners,
	}
}

// A Spawner is a producer handle of an [Executor].
//
// While a Spawner is open, the Run method of its Executor keeps waiting for
// new tasks even if the queue is empty and all tasks have completed.
// Closing the last open Spawner lets Run return once the queue drains.
type Spawner struct {
	executor *Executor
	closed   atomic.Bool
}

// Spawner returns a new open [Spawner] of e.
func (e *Executor) Spawner() *Spawner {
	e.lock()
	e.spawners++
	e.mu.Unlock()
	return &Spawner{executor: e}
}

// Spawn is like [Executor.Spawn].
// Panics with [ErrSpawnerClosed] if s has been closed.
func (s *Spawner) Spawn(f Future) {
	if s.closed.Load() {
		panic(ErrSpawnerClosed)
	}
	s.executor.Spawn(f)
}

// Clone returns another open [Spawner] of the same [Executor].
// Panics with [ErrSpawnerClosed] if s has been closed.
func (s *Spawner) Clone() *Spawner {
	if s.closed.Load() {
		panic(ErrSpawnerClosed)
	}
	return s.executor.Spawner()
}

// Close closes s. Closing a closed Spawner has no effect.
func (s *Spawner) Close() {
	if s.closed.Swap(true) {
		return
	}

	e := s.executor

	e.lock()
	e.spawners--
	if e.producers() == 0 {
		e.cond.Broadcast()
	}
	e.mu.Unlock()
}
