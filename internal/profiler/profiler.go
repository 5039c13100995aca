// Package profiler is the heap snapshot lifecycle manager. Once started it
// captures a snapshot shortly after startup, then on a fixed interval, and
// schedules each captured file for deletion after its lifetime.
//
// Failures are written to the journal and dropped; nothing here ever
// returns an error to, or panics in, the host after Start succeeds.
package profiler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"sync"
	"time"

	"github.com/raoulx24/heapsnap/internal/config"
	"github.com/raoulx24/heapsnap/internal/fs"
	"github.com/raoulx24/heapsnap/internal/journal"
	"github.com/raoulx24/heapsnap/internal/logging"
	"github.com/raoulx24/heapsnap/internal/metrics"
	"github.com/raoulx24/heapsnap/internal/retention"
	"github.com/raoulx24/heapsnap/internal/schedule"
	"github.com/raoulx24/heapsnap/internal/snapshot"
)

var (
	ErrAlreadyStarted = errors.New("profiler already started")
	ErrStopped        = errors.New("profiler stopped")
	ErrDisabled       = errors.New("profiler disabled")
)

// Manager owns the capture timers and the per-snapshot deletion timers.
type Manager struct {
	mu sync.Mutex
	// capMu serializes captures; two in the same millisecond share a temp path.
	capMu sync.Mutex

	cfg     config.Profiler
	fs      fs.FS
	sched   schedule.Scheduler
	ownSch  *schedule.Runtime
	source  snapshot.Source
	log     logging.Logger
	metrics *metrics.Metrics
	mirror  io.Writer

	journal   *journal.Journal
	writer    *snapshot.Writer
	retention *retention.Engine

	cancels []schedule.Cancel
	started bool
	stopped bool
}

type Option func(*Manager)

// WithScheduler replaces the wall-clock scheduler, e.g. with schedule.Fake.
func WithScheduler(s schedule.Scheduler) Option {
	return func(m *Manager) { m.sched = s }
}

// WithSource replaces the runtime heap profile.
func WithSource(s snapshot.Source) Option {
	return func(m *Manager) { m.source = s }
}

func WithFS(f fs.FS) Option {
	return func(m *Manager) { m.fs = f }
}

func WithLogger(l logging.Logger) Option {
	return func(m *Manager) { m.log = l }
}

func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Manager) { m.metrics = mt }
}

// WithMirror sets where journal lines are echoed; stderr by default.
func WithMirror(w io.Writer) Option {
	return func(m *Manager) { m.mirror = w }
}

func New(cfg config.Profiler, opts ...Option) *Manager {
	m := &Manager{cfg: cfg}
	for _, opt := range opts {
		opt(m)
	}

	if m.log == nil {
		m.log = logging.Discard()
	}
	if m.fs == nil {
		m.fs = fs.New()
	}
	if m.source == nil {
		m.source = snapshot.PprofSource{GC: cfg.GCBeforeCapture}
	}
	if m.sched == nil && cfg.Enabled {
		m.ownSch = schedule.NewRuntime(m.log)
		m.sched = m.ownSch
	}

	m.journal = journal.New(cfg.Dir, m.fs, m.nowFunc(), m.mirror)
	m.writer = snapshot.NewWriter(cfg.Dir, m.fs, m.source)
	m.retention = retention.New(cfg.Lifetime, retention.Deps{
		FS:        m.fs,
		Scheduler: m.sched,
		Journal:   m.journal,
		Log:       m.log,
		Metrics:   m.metrics,
	})

	return m
}

func (m *Manager) nowFunc() func() time.Time {
	if m.sched == nil {
		return nil
	}
	return m.sched.Now
}

// Start is the host readiness hook. It registers the capture timers and
// returns immediately. With the profiler disabled it does nothing at all.
func (m *Manager) Start() error {
	if !m.cfg.Enabled {
		return nil
	}
	if err := m.cfg.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return ErrStopped
	}
	if m.started {
		return ErrAlreadyStarted
	}

	// parse the cron spec before anything observable happens
	var periodic schedule.Cancel
	if m.cfg.Cron != "" {
		c, err := m.sched.Cron(m.cfg.Cron, m.captureJob)
		if err != nil {
			return fmt.Errorf("scheduling periodic capture: %w", err)
		}
		periodic = c
	}

	m.started = true
	m.note("Heap profiler started")

	if m.cfg.Reconcile {
		if _, err := m.retention.Reconcile(m.cfg.Dir); err != nil {
			m.log.Warn("profiler: reconcile failed", "dir", m.cfg.Dir, "error", err)
		}
	}

	m.cancels = append(m.cancels, m.sched.After(m.cfg.FirstDelay, m.captureJob))
	if periodic == nil {
		periodic = m.sched.Every(m.cfg.Interval, m.captureJob)
	}
	m.cancels = append(m.cancels, periodic)

	m.log.Info("profiler: started",
		"dir", m.cfg.Dir,
		"first_delay", m.cfg.FirstDelay,
		"interval", m.cfg.Interval,
		"cron", m.cfg.Cron,
		"lifetime", m.cfg.Lifetime,
	)
	return nil
}

// Stop cancels the capture timers and every pending deletion. It is safe to
// call more than once and on a Manager that never started.
func (m *Manager) Stop() {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return
	}
	m.stopped = true
	wasStarted := m.started

	for _, cancel := range m.cancels {
		cancel()
	}
	m.cancels = nil
	m.mu.Unlock()

	dropped := m.retention.CancelAll()
	if wasStarted {
		m.note("Heap profiler stopped")
		m.log.Info("profiler: stopped", "pending_deletions_dropped", dropped)
	}

	if m.ownSch != nil {
		m.ownSch.Close()
	}
}

func (m *Manager) captureJob() {
	_, _ = m.Capture(context.Background())
}

// Capture writes one snapshot now and schedules its deletion. The error is
// returned for on-demand callers; it has already been journaled.
func (m *Manager) Capture(ctx context.Context) (snapshot.Snapshot, error) {
	if !m.cfg.Enabled {
		return snapshot.Snapshot{}, ErrDisabled
	}
	m.mu.Lock()
	stopped := m.stopped
	m.mu.Unlock()
	if stopped {
		return snapshot.Snapshot{}, ErrStopped
	}

	m.capMu.Lock()
	defer m.capMu.Unlock()

	at := m.sched.Now()

	snap, err := m.writer.Write(ctx, at)
	if err != nil {
		m.metrics.CaptureFailed()
		m.note("ERROR writing heap snapshot: " + err.Error())
		return snapshot.Snapshot{}, err
	}

	m.metrics.CaptureSucceeded(snap.Size)
	m.note("Heap snapshot saved: " + m.displayPath(snap.Name))
	m.retention.ScheduleSnapshot(snap)
	return snap, nil
}

// Pending is the number of snapshots waiting for deletion.
func (m *Manager) Pending() int {
	return m.retention.Pending()
}

// displayPath is the snapshot path relative to the working directory, as
// configured, with forward slashes.
func (m *Manager) displayPath(name string) string {
	return path.Join(filepath.ToSlash(m.cfg.Dir), name)
}

func (m *Manager) note(msg string) {
	if err := m.journal.Log(msg); err != nil {
		m.log.Error("profiler: journal write failed", "error", err, "message", msg)
	}
}
