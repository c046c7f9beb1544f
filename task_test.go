package minirt

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// takeTask pops id from the queue as the run loop would, without polling.
func takeTask(e *Executor, id TaskID) *task {
	e.lock()
	defer e.mu.Unlock()
	if e.q.Pop() != id {
		panic("unexpected queue head")
	}
	t := e.tasks.get(id)
	t.queued = false
	return t
}

func TestTaskTable(t *testing.T) {
	var tt taskTable

	a, _ := tt.insert(End())
	b, _ := tt.insert(End())
	require.NotEqual(t, a, b)
	require.Equal(t, 2, tt.live)

	require.True(t, tt.remove(a))
	require.False(t, tt.remove(a), "removing twice should fail")
	require.Nil(t, tt.get(a))

	c, tc := tt.insert(End())
	assert.Equal(t, a.slot, c.slot, "freed slot should be reused")
	assert.NotEqual(t, a, c, "reused slot should get a new generation")
	assert.Nil(t, tt.get(a), "stale id should not resolve to the new task")
	assert.Same(t, tc, tt.get(c))
	assert.Equal(t, 2, tt.live)

	assert.Nil(t, tt.get(TaskID{slot: 99}))
}

func TestResume(t *testing.T) {
	t.Run("Contention", func(t *testing.T) {
		e := NewExecutor()

		entered := make(chan struct{})
		release := make(chan struct{})

		id := e.spawn(FutureFunc(func(cx *Context) Poll {
			close(entered)
			<-release
			return Ready
		}))

		tk := takeTask(e, id)

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.resume(id, tk)
		}()

		<-entered

		require.PanicsWithValue(t, ErrResumeContention, func() { e.resume(id, tk) })

		close(release)
		wg.Wait()

		assert.Nil(t, e.tasks.get(id))
		assert.Equal(t, 0, e.tasks.live)
	})

	t.Run("AfterCompletion", func(t *testing.T) {
		e := NewExecutor()

		var polls int

		id := e.spawn(Do(func() { polls++ }))
		tk := takeTask(e, id)

		e.resume(id, tk)
		e.resume(id, tk)

		assert.Equal(t, 1, polls)
	})

	t.Run("PendingDoesNotRequeue", func(t *testing.T) {
		e := NewExecutor()

		id := e.spawn(Never())
		tk := takeTask(e, id)

		e.resume(id, tk)

		assert.Equal(t, Stats{Live: 1}, e.Stats())

		Waker{executor: e, id: id}.Wake()
		assert.Equal(t, Stats{Live: 1, Queued: 1}, e.Stats())
	})
}
