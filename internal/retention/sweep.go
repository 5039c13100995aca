package retention

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/raoulx24/heapsnap/internal/metrics"
	"github.com/raoulx24/heapsnap/internal/snapshot"
)

// Report describes what a sweep did (or would do on a dry run).
type Report struct {
	Expired      []snapshot.Snapshot
	Failed       []snapshot.Snapshot
	TempsRemoved []string
	Live         []snapshot.Snapshot
}

// Sweep removes leftover temp files and every snapshot in dir whose lifetime
// ended at or before now.
func (e *Engine) Sweep(dir string, now time.Time, dryRun bool) (Report, error) {
	l, err := snapshot.Scan(e.fs, dir)
	if err != nil {
		return Report{}, err
	}

	var rep Report

	for _, tmp := range l.Temps {
		if dryRun {
			rep.TempsRemoved = append(rep.TempsRemoved, tmp.Name)
			continue
		}
		if err := e.fs.Remove(tmp.Path); err != nil {
			e.note("ERROR removing stale temp file %s: %v", tmp.Name, err)
			continue
		}
		e.note("Removed stale temp file: %s", tmp.Name)
		rep.TempsRemoved = append(rep.TempsRemoved, tmp.Name)
	}

	for _, s := range l.Snapshots {
		if s.Age(now) < e.lifetime {
			rep.Live = append(rep.Live, s)
			continue
		}
		if dryRun {
			rep.Expired = append(rep.Expired, s)
			continue
		}

		result := e.expire(s.Path)
		e.metrics.DeletionImmediate(result)
		if result == metrics.Failed {
			rep.Failed = append(rep.Failed, s)
			continue
		}
		rep.Expired = append(rep.Expired, s)
	}

	return rep, nil
}

// Reconcile sweeps dir and re-arms deletion timers for the snapshots that
// are still within their lifetime.
func (e *Engine) Reconcile(dir string) (Report, error) {
	if e.sched == nil {
		return Report{}, fmt.Errorf("reconcile %s: no scheduler", filepath.Clean(dir))
	}

	now := e.sched.Now()
	rep, err := e.Sweep(dir, now, false)
	if err != nil {
		return rep, err
	}

	for _, s := range rep.Live {
		e.Schedule(s.Path, e.lifetime-s.Age(now))
	}
	return rep, nil
}
