package minirt_test

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/sourcegraph/conc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/b97tsk/minirt"
)

// runWithin runs e on another goroutine and fails t if Run does not return
// within d. A stalled task is only detectable this way.
func runWithin(t *testing.T, e *minirt.Executor, d time.Duration) {
	t.Helper()

	done := make(chan any, 1)

	go func() {
		defer func() { done <- recover() }()
		e.Run()
	}()

	select {
	case v := <-done:
		if v != nil {
			panic(v)
		}
	case <-time.After(d):
		t.Fatalf("Run did not return within %v", d)
	}
}

type trace struct {
	mu    sync.Mutex
	lines []string
}

func (tr *trace) add(s string) {
	tr.mu.Lock()
	tr.lines = append(tr.lines, s)
	tr.mu.Unlock()
}

func (tr *trace) log(s string) minirt.Future {
	return minirt.Do(func() { tr.add(s) })
}

func (tr *trace) get() []string {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return append([]string(nil), tr.lines...)
}

func TestExecutor(t *testing.T) {
	t.Run("HelloWorld", func(t *testing.T) {
		var tr trace

		var myExecutor minirt.Executor

		myExecutor.Spawn(minirt.Func(func(cx *minirt.Context) {
			cx.Spawn(minirt.Then(minirt.Sleep(100*time.Millisecond), tr.log("world")))
			cx.Spawn(tr.log("hello"))
		}))

		start := time.Now()
		runWithin(t, &myExecutor, 5*time.Second)

		if diff := cmp.Diff([]string{"hello", "world"}, tr.get()); diff != "" {
			t.Errorf("trace mismatch (-want +got):\n%s", diff)
		}
		assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
	})

	t.Run("Completion", func(t *testing.T) {
		var polls int

		myExecutor := minirt.NewExecutor(minirt.WithName("completion"))

		myExecutor.Spawn(minirt.FutureFunc(func(cx *minirt.Context) minirt.Poll {
			polls++
			cx.Waker().Wake() // Waking a task that is about to complete has no effect.
			return minirt.Ready
		}))

		require.Equal(t, minirt.Stats{Live: 1, Queued: 1}, myExecutor.Stats())

		runWithin(t, myExecutor, time.Second)

		assert.Equal(t, 1, polls)
		assert.Equal(t, minirt.Stats{}, myExecutor.Stats())
		assert.Equal(t, "completion", myExecutor.Name())
	})

	t.Run("FIFO", func(t *testing.T) {
		var tr trace

		var myExecutor minirt.Executor

		for _, s := range []string{"a", "b", "c", "d"} {
			myExecutor.Spawn(tr.log(s))
		}

		runWithin(t, &myExecutor, time.Second)

		if diff := cmp.Diff([]string{"a", "b", "c", "d"}, tr.get()); diff != "" {
			t.Errorf("trace mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("YieldRequeuesBehindOthers", func(t *testing.T) {
		var tr trace

		var myExecutor minirt.Executor

		myExecutor.Spawn(minirt.Block(tr.log("a1"), minirt.Yield(), tr.log("a2")))
		myExecutor.Spawn(minirt.Block(tr.log("b1"), minirt.Yield(), tr.log("b2")))

		runWithin(t, &myExecutor, time.Second)

		if diff := cmp.Diff([]string{"a1", "b1", "a2", "b2"}, tr.get()); diff != "" {
			t.Errorf("trace mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("NestedSpawn", func(t *testing.T) {
		var tr trace

		var myExecutor minirt.Executor

		myExecutor.Spawn(minirt.Block(
			minirt.Func(func(cx *minirt.Context) {
				tr.add("a spawns b")
				cx.Spawn(minirt.Func(func(cx *minirt.Context) {
					tr.add("b spawns c")
					cx.Spawn(tr.log("c"))
				}))
			}),
			minirt.Sleep(10*time.Millisecond),
			tr.log("a"),
		))

		runWithin(t, &myExecutor, 5*time.Second)

		if diff := cmp.Diff([]string{"a spawns b", "b spawns c", "c", "a"}, tr.get()); diff != "" {
			t.Errorf("trace mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("EmptyRun", func(t *testing.T) {
		var myExecutor minirt.Executor
		runWithin(t, &myExecutor, time.Second)
		runWithin(t, &myExecutor, time.Second) // Run can be called again after it returns.
	})

	t.Run("StalledTask", func(t *testing.T) {
		var myExecutor minirt.Executor

		myExecutor.Spawn(minirt.Never())

		done := make(chan struct{})
		go func() {
			defer close(done)
			myExecutor.Run()
		}()

		select {
		case <-done:
			t.Fatal("Run returned while a task is still suspended")
		case <-time.After(50 * time.Millisecond):
		}

		assert.Equal(t, minirt.Stats{Live: 1}, myExecutor.Stats())
	})

	t.Run("SpawnFromGoroutines", func(t *testing.T) {
		var myExecutor minirt.Executor

		var sum int // Only accessed by tasks.

		sp := myExecutor.Spawner()

		var wg conc.WaitGroup
		for i := range 8 {
			sp := sp.Clone()
			wg.Go(func() {
				defer sp.Close()
				for j := range 100 {
					sp.Spawn(minirt.Do(func() { sum += i*100 + j }))
				}
			})
		}

		sp.Close()

		runWithin(t, &myExecutor, 5*time.Second)
		wg.Wait()

		assert.Equal(t, 799*800/2, sum)
		assert.Equal(t, minirt.Stats{}, myExecutor.Stats())
	})

	t.Run("SpawnerKeepsRunAlive", func(t *testing.T) {
		var myExecutor minirt.Executor

		var ran atomic.Bool

		sp := myExecutor.Spawner()
		go func() {
			time.Sleep(50 * time.Millisecond)
			sp.Spawn(minirt.Do(func() { ran.Store(true) }))
			sp.Close()
			sp.Close() // No effect.
		}()

		runWithin(t, &myExecutor, 5*time.Second)

		assert.True(t, ran.Load())
		require.PanicsWithValue(t, minirt.ErrSpawnerClosed, func() { sp.Spawn(minirt.End()) })
		require.PanicsWithValue(t, minirt.ErrSpawnerClosed, func() { sp.Clone() })
	})

	t.Run("ExpiredContext", func(t *testing.T) {
		var myExecutor minirt.Executor

		var saved *minirt.Context

		myExecutor.Spawn(minirt.Func(func(cx *minirt.Context) { saved = cx }))

		runWithin(t, &myExecutor, time.Second)

		require.NotNil(t, saved)
		require.PanicsWithValue(t, minirt.ErrContextExpired, func() { saved.Spawn(minirt.End()) })
	})

	t.Run("Panic", func(t *testing.T) {
		errBoom := errors.New("boom")

		var tr trace

		var myExecutor minirt.Executor

		myExecutor.Spawn(minirt.Do(func() { panic(errBoom) }))
		myExecutor.Spawn(tr.log("survivor"))

		var v any
		func() {
			defer func() { v = recover() }()
			runWithin(t, &myExecutor, time.Second)
		}()

		err, ok := v.(error)
		require.True(t, ok, "Run should panic with an error, got %v", v)
		assert.ErrorIs(t, err, errBoom)
		assert.Contains(t, err.Error(), "panic: boom")
		assert.Equal(t, []string{"survivor"}, tr.get())
		assert.Equal(t, minirt.Stats{}, myExecutor.Stats())
	})

	t.Run("RunTwice", func(t *testing.T) {
		var myExecutor minirt.Executor

		myExecutor.Spawn(minirt.Do(myExecutor.Run))

		var v any
		func() {
			defer func() { v = recover() }()
			runWithin(t, &myExecutor, time.Second)
		}()

		require.NotNil(t, v)
		assert.Contains(t, v.(error).Error(), "Run called twice at the same time")
	})

	t.Run("NilFuture", func(t *testing.T) {
		var myExecutor minirt.Executor
		assert.Panics(t, func() { myExecutor.Spawn(nil) })
	})
}

func TestWaker(t *testing.T) {
	t.Run("DuplicateWakesDuringPoll", func(t *testing.T) {
		var myExecutor minirt.Executor

		var polls int

		myExecutor.Spawn(minirt.FutureFunc(func(cx *minirt.Context) minirt.Poll {
			polls++
			if polls > 1 {
				return minirt.Ready
			}
			w := cx.Waker()
			var wg conc.WaitGroup
			for range 8 {
				wg.Go(func() {
					for range 100 {
						w.Wake()
					}
				})
			}
			wg.Wait()
			return minirt.Pending
		}))

		runWithin(t, &myExecutor, 5*time.Second)

		assert.Equal(t, 2, polls, "the task should be queued exactly once")
	})

	t.Run("ConcurrentWakesNeverOverlapPolls", func(t *testing.T) {
		var myExecutor minirt.Executor

		var (
			inPoll  atomic.Int32
			overlap atomic.Bool
			polls   atomic.Int32
			wakers  = make(chan minirt.Waker, 1)
			stop    atomic.Bool
		)

		myExecutor.Spawn(minirt.FutureFunc(func(cx *minirt.Context) minirt.Poll {
			if inPoll.Add(1) != 1 {
				overlap.Store(true)
			}
			defer inPoll.Add(-1)
			if polls.Add(1) == 1 {
				wakers <- cx.Waker()
			}
			if stop.Load() {
				return minirt.Ready
			}
			return minirt.Pending
		}))

		go func() {
			waker := <-wakers
			var wg conc.WaitGroup
			for range 8 {
				wg.Go(func() {
					for range 1000 {
						waker.Wake()
					}
				})
			}
			wg.Wait()
			stop.Store(true)
			waker.Wake()
		}()

		runWithin(t, &myExecutor, 10*time.Second)

		assert.False(t, overlap.Load(), "two polls of one task overlapped")
		assert.GreaterOrEqual(t, polls.Load(), int32(2))
	})

	t.Run("Identity", func(t *testing.T) {
		var myExecutor minirt.Executor

		var w1, w2, w3 minirt.Waker

		myExecutor.Spawn(minirt.Block(
			minirt.Func(func(cx *minirt.Context) { w1 = cx.Waker() }),
			minirt.Yield(),
			minirt.Func(func(cx *minirt.Context) { w2 = cx.Waker() }),
		))
		myExecutor.Spawn(minirt.Func(func(cx *minirt.Context) { w3 = cx.Waker() }))

		runWithin(t, &myExecutor, time.Second)

		assert.True(t, w1.WillWake(w2), "wakers of one task across polls should be equal")
		assert.False(t, w1.WillWake(w3))
		assert.NotEqual(t, w1.Task(), w3.Task())

		var zero minirt.Waker
		zero.Wake() // No effect.
	})

	t.Run("WakeAfterCompletion", func(t *testing.T) {
		var myExecutor minirt.Executor

		var w minirt.Waker

		myExecutor.Spawn(minirt.Func(func(cx *minirt.Context) { w = cx.Waker() }))

		runWithin(t, &myExecutor, time.Second)

		w.Wake()
		assert.Equal(t, minirt.Stats{}, myExecutor.Stats())
	})
}
