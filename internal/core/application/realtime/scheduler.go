package realtime

import "time"

// CancelFunc stops a scheduled callback. It reports whether the callback was
// cancelled before it fired.
type CancelFunc func() bool

// Scheduler abstracts timer creation so the coordinator's debounce windows
// can be driven deterministically in tests and cancelled deterministically
// when a batch leaves the Active state. It also owns the clock: the
// coordinator never reads time.Now directly.
type Scheduler interface {
	Now() time.Time
	Schedule(delay time.Duration, fn func()) CancelFunc
}

// WallClockScheduler is the production Scheduler, backed by time.AfterFunc.
type WallClockScheduler struct{}

// NewWallClockScheduler creates a Scheduler running on real time.
func NewWallClockScheduler() WallClockScheduler {
	return WallClockScheduler{}
}

// Now returns the current wall-clock time.
func (WallClockScheduler) Now() time.Time {
	return time.Now()
}

// Schedule runs fn once after delay on its own goroutine.
func (WallClockScheduler) Schedule(delay time.Duration, fn func()) CancelFunc {
	timer := time.AfterFunc(delay, fn)
	return timer.Stop
}
