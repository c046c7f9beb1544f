package minirt

import (
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
)

// panicstack collects the panics of tasks in the order they happened.
type panicstack []taskPanic

type taskPanic struct {
	task  TaskID
	value any
	stack []byte
}

// capture calls f, recording a panic of f as a panic of task id.
// It reports whether f returned normally.
func (ps *panicstack) capture(id TaskID, f func()) (ok bool) {
	defer func() {
		if ok {
			return
		}
		v := recover()
		if v == nil {
			panic("minirt: runtime.Goexit() called in a Future")
		}
		*ps = append(*ps, taskPanic{id, v, debug.Stack()})
	}()
	f()
	return true
}

// Repanic panics with a *panicError reporting every panic in ps, if any.
func (ps panicstack) Repanic() {
	if len(ps) != 0 {
		panic(&panicError{panics: ps})
	}
}

// panicError is what Run panics with after tasks have panicked.
// Panic values that are errors can be matched with errors.Is and errors.As.
type panicError struct {
	panics []taskPanic

	once sync.Once
	errs []error
}

func (pe *panicError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "minirt: %d task(s) panicked:", len(pe.panics))
	for i, p := range pe.panics {
		fmt.Fprintf(&b, "\n(%d/%d) task %v panic: %v", i+1, len(pe.panics), p.task, p.value)
		if p.stack != nil {
			b.WriteString("\n\n")
			b.Write(p.stack)
		}
	}
	return b.String()
}

func (pe *panicError) Unwrap() []error {
	pe.once.Do(func() {
		for _, p := range pe.panics {
			if err, ok := p.value.(error); ok {
				pe.errs = append(pe.errs, err)
			}
		}
	})
	return pe.errs
}
