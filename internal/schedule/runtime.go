package schedule

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/raoulx24/heapsnap/internal/logging"
)

const queueSize = 64

// Runtime schedules on wall-clock time. One-shots use time.AfterFunc,
// repeating tasks use robfig/cron. Every callback is handed to a single
// dispatch loop.
type Runtime struct {
	mu     sync.Mutex
	cron   *cron.Cron
	queue  *Queue
	log    logging.Logger
	timers map[uint64]*time.Timer
	nextID uint64
	closed bool

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

var _ Scheduler = (*Runtime)(nil)

// NewRuntime starts the cron engine and the dispatch loop.
func NewRuntime(log logging.Logger) *Runtime {
	if log == nil {
		log = logging.Discard()
	}
	ctx, cancel := context.WithCancel(context.Background())
	cl := logging.CronLogger(log)

	r := &Runtime{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl)),
		),
		queue:  NewQueue(queueSize),
		log:    log,
		timers: make(map[uint64]*time.Timer),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	r.cron.Start()
	go func() {
		defer close(r.done)
		RunLoop(ctx, r.queue, log)
	}()

	return r
}

func (r *Runtime) Now() time.Time {
	return time.Now()
}

func (r *Runtime) After(d time.Duration, fn func()) Cancel {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return noop
	}

	r.nextID++
	id := r.nextID
	r.timers[id] = time.AfterFunc(d, func() {
		r.mu.Lock()
		delete(r.timers, id)
		r.mu.Unlock()
		r.dispatch("after", fn)
	})

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if t, ok := r.timers[id]; ok {
			t.Stop()
			delete(r.timers, id)
		}
	}
}

// Every uses cron.Every, which rounds d down to whole seconds (minimum 1s).
func (r *Runtime) Every(d time.Duration, fn func()) Cancel {
	return r.add(cron.Every(d), "every", fn)
}

func (r *Runtime) Cron(spec string, fn func()) (Cancel, error) {
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("parsing cron spec %q: %w", spec, err)
	}
	return r.add(sched, "cron", fn), nil
}

func (r *Runtime) add(sched cron.Schedule, name string, fn func()) Cancel {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return noop
	}

	id := r.cron.Schedule(sched, cron.FuncJob(func() {
		r.dispatch(name, fn)
	}))
	return func() { r.cron.Remove(id) }
}

func (r *Runtime) dispatch(name string, fn func()) {
	if !r.queue.Push(r.ctx, Job{Name: name, Run: fn}) {
		r.log.Debug("schedule: dropped job after close", "job", name)
	}
}

// Close stops every timer and waits for the dispatch loop to exit. It must
// not be called from inside a scheduled callback.
func (r *Runtime) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	for id, t := range r.timers {
		t.Stop()
		delete(r.timers, id)
	}
	r.mu.Unlock()

	r.cron.Stop()
	r.cancel()
	<-r.done
}
