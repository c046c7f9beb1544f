// Package minirt is a minimal single-threaded cooperative task executor.
//
// An [Executor] runs tasks. A task owns a [Future], a computation that may
// suspend and resume multiple times before completing. The Executor resumes
// a task by polling its Future; the Future either completes ([Ready]) or
// suspends ([Pending]) after storing the [Waker] of the task somewhere.
// Calling that Waker later, from any goroutine, puts the task back in the
// Executor's queue.
//
// # Running Tasks
//
// Tasks are spawned with [Executor.Spawn], from any goroutine, and run by
// [Executor.Run], which pops tasks from a FIFO queue and polls them one at
// a time on the calling goroutine. No two Futures of the same Executor are
// ever polled at the same time, so Futures need no locking of their own
// unless they share state with other goroutines.
//
// Run returns when the queue is empty and there are no producers left:
// every task has completed and every [Spawner] has been closed.
// A task that suspends and is never woken keeps Run blocked forever.
//
// # Spawning From Tasks
//
// Every poll is handed a [Context]. [Context.Spawn] spawns onto the same
// Executor, and the new task is picked up by the same Run call. A Context
// expires when its poll returns.
//
// # Timed Suspension
//
// [Sleep] and [Delay] bridge wall-clock time into the cooperative model:
// the first poll of a Delay starts a goroutine that sleeps until the
// deadline and then calls the stored Waker, exactly once.
// One goroutine per pending Delay does not scale to many timers.
//
// # Composing Futures
//
// [Do], [Block], [Then], [Loop], [Lazy], [Yield] and [Join] compose Futures
// into bigger ones. [Signal], [State] and [WaitGroup] let tasks await events
// raised by other tasks or goroutines.
//
// # Panic Propagation
//
// A Future that panics ends its task. The Executor records the panic value
// along with a stack trace, keeps running other tasks, and panics when Run
// returns.
//
// Resuming a task that is already being resumed is a bug in the executor,
// never in user code. It panics with [ErrResumeContention] immediately.
package minirt
