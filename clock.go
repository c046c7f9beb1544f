package minirt

import "time"

// Clock supplies time and blocking behavior for timed suspensions.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// SystemClock reads the wall clock (with its monotonic reading) and blocks
// the calling goroutine with [time.Sleep].
var SystemClock Clock = systemClock{}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) Sleep(d time.Duration) {
	if d > 0 {
		time.Sleep(d)
	}
}
