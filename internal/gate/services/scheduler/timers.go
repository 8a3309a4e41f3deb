package scheduler

import "time"

// Timers abstracts the one-shot timer primitive so expiry and rollover
// scheduling can be driven manually in tests.
type Timers interface {
	// AfterFunc runs f after d elapses and returns a cancel function.
	AfterFunc(d time.Duration, f func()) (cancel func())
}

// WallTimers implements Timers on the runtime timer.
type WallTimers struct{}

func (WallTimers) AfterFunc(d time.Duration, f func()) func() {
	t := time.AfterFunc(d, f)
	return func() { t.Stop() }
}
