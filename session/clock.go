package session

import "time"

// Clock abstracts the wall clock and timer creation so renewal timing can be tested.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is the handle of a pending AfterFunc callback.
type Timer interface {
	Stop() bool
}

type systemClock struct{}

// SystemClock is the real-time Clock.
var SystemClock Clock = systemClock{}

func (systemClock) Now() time.Time {
	return time.Now()
}

func (systemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
