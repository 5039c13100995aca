// Package retention deletes heap snapshots once they outlive their lifetime.
// Each captured file gets its own one-shot deletion timer; a sweep handles
// files left behind by an earlier process whose timers were lost.
package retention

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/raoulx24/heapsnap/internal/fs"
	"github.com/raoulx24/heapsnap/internal/journal"
	"github.com/raoulx24/heapsnap/internal/logging"
	"github.com/raoulx24/heapsnap/internal/metrics"
	"github.com/raoulx24/heapsnap/internal/schedule"
	"github.com/raoulx24/heapsnap/internal/snapshot"
)

// Deps are the collaborators of an Engine. Scheduler may be nil for one-shot
// sweeps; Journal may be nil to skip event lines.
type Deps struct {
	FS        fs.FS
	Scheduler schedule.Scheduler
	Journal   *journal.Journal
	Log       logging.Logger
	Metrics   *metrics.Metrics
}

type Engine struct {
	mu       sync.Mutex
	lifetime time.Duration
	fs       fs.FS
	sched    schedule.Scheduler
	journal  *journal.Journal
	log      logging.Logger
	metrics  *metrics.Metrics
	pending  map[string]armed
	gen      uint64
}

// armed is one deletion timer. gen identifies the arming so a callback that
// was already queued when its timer got cancelled or replaced can tell it is
// stale.
type armed struct {
	gen    uint64
	cancel schedule.Cancel
}

func New(lifetime time.Duration, d Deps) *Engine {
	if d.FS == nil {
		d.FS = fs.New()
	}
	if d.Log == nil {
		d.Log = logging.Discard()
	}
	return &Engine{
		lifetime: lifetime,
		fs:       d.FS,
		sched:    d.Scheduler,
		journal:  d.Journal,
		log:      d.Log,
		metrics:  d.Metrics,
		pending:  make(map[string]armed),
	}
}

// ScheduleSnapshot arranges deletion of a freshly captured snapshot one
// lifetime from now.
func (e *Engine) ScheduleSnapshot(s snapshot.Snapshot) {
	e.Schedule(s.Path, e.lifetime)
}

// Schedule arranges a single deletion check of path after delay. Scheduling
// a path that is already pending replaces the earlier timer.
func (e *Engine) Schedule(path string, delay time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.sched == nil {
		e.log.Error("retention: no scheduler, deletion not armed", "path", path)
		return
	}

	if prev, ok := e.pending[path]; ok {
		prev.cancel()
		e.metrics.DeletionUnscheduled()
	}

	e.gen++
	gen := e.gen
	cancel := e.sched.After(delay, func() {
		e.mu.Lock()
		cur, ok := e.pending[path]
		if !ok || cur.gen != gen {
			e.mu.Unlock()
			return
		}
		delete(e.pending, path)
		e.mu.Unlock()

		e.metrics.DeletionFired(e.expire(path))
	})
	e.pending[path] = armed{gen: gen, cancel: cancel}
	e.metrics.DeletionScheduled()
	e.log.Debug("retention: deletion scheduled", "path", path, "in", delay)
}

// Pending is the number of armed deletion timers.
func (e *Engine) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.pending)
}

// CancelAll disarms every pending deletion and returns how many there were.
func (e *Engine) CancelAll() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	n := len(e.pending)
	for path, a := range e.pending {
		a.cancel()
		delete(e.pending, path)
		e.metrics.DeletionUnscheduled()
	}
	return n
}

// expire is the deletion check. A file that is already gone is not an error
// and leaves no trace in the journal. A failed removal leaves the file in
// place and is not retried.
func (e *Engine) expire(path string) string {
	name := filepath.Base(path)

	if _, err := e.fs.Stat(path); err != nil {
		if fs.IsNotExist(err) {
			return metrics.Missing
		}
		e.note("ERROR deleting %s: %v", name, err)
		return metrics.Failed
	}

	if err := e.fs.Remove(path); err != nil {
		if fs.IsNotExist(err) {
			return metrics.Missing
		}
		e.note("ERROR deleting %s: %v", name, err)
		return metrics.Failed
	}

	e.note("Deleted: %s", name)
	return metrics.Deleted
}

func (e *Engine) note(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if e.journal == nil {
		e.log.Info(msg)
		return
	}
	if err := e.journal.Log(msg); err != nil {
		e.log.Error("retention: journal write failed", "error", err, "message", msg)
	}
}
