package schedule

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Fake is a manually driven Scheduler. Nothing fires until Advance is called;
// callbacks then run synchronously on the caller's goroutine in due order.
type Fake struct {
	mu    sync.Mutex
	now   time.Time
	seq   uint64
	tasks map[uint64]*fakeTask
}

type fakeTask struct {
	id    uint64
	due   time.Time
	fn    func()
	every time.Duration
	sched cron.Schedule
}

var _ Scheduler = (*Fake)(nil)

func NewFake(start time.Time) *Fake {
	return &Fake{
		now:   start,
		tasks: make(map[uint64]*fakeTask),
	}
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *Fake) After(d time.Duration, fn func()) Cancel {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.add(&fakeTask{due: f.now.Add(d), fn: fn})
}

// Every fires exactly every d; unlike Runtime it does not round to seconds.
func (f *Fake) Every(d time.Duration, fn func()) Cancel {
	if d <= 0 {
		return noop
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.add(&fakeTask{due: f.now.Add(d), fn: fn, every: d})
}

func (f *Fake) Cron(spec string, fn func()) (Cancel, error) {
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("parsing cron spec %q: %w", spec, err)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.add(&fakeTask{due: sched.Next(f.now), fn: fn, sched: sched}), nil
}

func (f *Fake) add(t *fakeTask) Cancel {
	f.seq++
	t.id = f.seq
	f.tasks[t.id] = t
	return func() {
		f.mu.Lock()
		delete(f.tasks, t.id)
		f.mu.Unlock()
	}
}

// Advance moves the clock forward by d, firing every task that falls due.
// Tasks scheduled by a callback fire in the same call if they are due.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	target := f.now.Add(d)
	f.mu.Unlock()

	for {
		f.mu.Lock()
		next := f.nextDue(target)
		if next == nil {
			f.now = target
			f.mu.Unlock()
			return
		}

		f.now = next.due
		switch {
		case next.every > 0:
			next.due = next.due.Add(next.every)
		case next.sched != nil:
			next.due = next.sched.Next(next.due)
		default:
			delete(f.tasks, next.id)
		}
		fn := next.fn
		f.mu.Unlock()

		fn()
	}
}

func (f *Fake) nextDue(limit time.Time) *fakeTask {
	var best *fakeTask
	for _, t := range f.tasks {
		if t.due.After(limit) {
			continue
		}
		if best == nil || t.due.Before(best.due) || (t.due.Equal(best.due) && t.id < best.id) {
			best = t
		}
	}
	return best
}

// Pending is the number of tasks still scheduled.
func (f *Fake) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tasks)
}
