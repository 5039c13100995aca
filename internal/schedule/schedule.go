// Package schedule abstracts "run this later" and "run this repeatedly" so the
// snapshot lifecycle can run against wall-clock timers or a manual clock.
package schedule

import "time"

// Cancel stops a scheduled task. Calling it more than once is harmless.
type Cancel func()

type Scheduler interface {
	// Now is the scheduler's notion of the current time.
	Now() time.Time
	// After runs fn once, d from now.
	After(d time.Duration, fn func()) Cancel
	// Every runs fn every d, the first run d from now.
	Every(d time.Duration, fn func()) Cancel
	// Cron runs fn on a standard five-field cron spec.
	Cron(spec string, fn func()) (Cancel, error)
}

func noop() {}
