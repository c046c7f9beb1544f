package minirt

import (
	"fmt"
	"sync"

	"fortio.org/safecast"
)

// TaskID identifies a spawned task.
//
// A TaskID stays valid until the task completes. After that, the slot it
// refers to may be reused by another task, but with a different generation,
// so a stale TaskID never resolves to the new task.
type TaskID struct {
	slot uint32
	gen  uint32
}

// String implements [fmt.Stringer].
func (id TaskID) String() string {
	return fmt.Sprintf("%d.%d", id.slot, id.gen)
}

// A task owns exactly one Future.
//
// mu guards fut and is only ever acquired with TryLock: a task has at most
// one resumer at a time, and contention means something is badly wrong.
// queued is guarded by the executor's mutex.
type task struct {
	mu     sync.Mutex
	fut    Future
	queued bool
}

type taskSlot struct {
	t   *task
	gen uint32
}

// taskTable is an arena of tasks indexed by TaskID.
type taskTable struct {
	slots []taskSlot
	free  []uint32
	live  int
}

func (tt *taskTable) insert(f Future) (TaskID, *task) {
	t := &task{fut: f}

	var i uint32

	if n := len(tt.free); n != 0 {
		i = tt.free[n-1]
		tt.free = tt.free[:n-1]
	} else {
		slot, err := safecast.Conv[uint32](len(tt.slots))
		if err != nil {
			panic(fmt.Errorf("minirt: too many tasks: %w", err))
		}
		tt.slots = append(tt.slots, taskSlot{})
		i = slot
	}

	s := &tt.slots[i]
	s.t = t
	tt.live++

	return TaskID{slot: i, gen: s.gen}, t
}

// get returns nil if id refers to a task that has completed.
func (tt *taskTable) get(id TaskID) *task {
	if int(id.slot) >= len(tt.slots) {
		return nil
	}
	s := &tt.slots[id.slot]
	if s.gen != id.gen {
		return nil
	}
	return s.t
}

func (tt *taskTable) remove(id TaskID) bool {
	if tt.get(id) == nil {
		return false
	}
	s := &tt.slots[id.slot]
	s.t = nil
	s.gen++
	tt.free = append(tt.free, id.slot)
	tt.live--
	return true
}

// resume polls t once.
//
// resume never re-enqueues t; only a Waker can do that.
func (e *Executor) resume(id TaskID, t *task) {
	if !t.mu.TryLock() {
		e.log().Error("concurrent resumption", "task", id)
		panic(ErrResumeContention)
	}
	defer t.mu.Unlock()

	f := t.fut
	if f == nil {
		return
	}

	e.log().Debug("resuming task", "task", id)

	cx := &Context{executor: e, waker: Waker{executor: e, id: id}}

	var (
		res Poll
		ps  panicstack
	)

	if !ps.capture(id, func() { res = f.Poll(cx) }) {
		res = Ready
	}

	cx.expire()

	if res == Ready {
		t.fut = nil
		e.complete(id, ps)
	}
}
