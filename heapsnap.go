// Package heapsnap periodically writes heap profiles of the running process
// to disk and deletes each one after a fixed lifetime. It is meant to be
// embedded in a long-running server to help diagnose memory growth:
//
//	mgr, err := heapsnap.Start(heapsnap.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer mgr.Stop()
package heapsnap

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/raoulx24/heapsnap/internal/config"
	"github.com/raoulx24/heapsnap/internal/metrics"
	"github.com/raoulx24/heapsnap/internal/profiler"
	"github.com/raoulx24/heapsnap/internal/snapshot"
)

type (
	Config     = config.Profiler
	Manager    = profiler.Manager
	Option     = profiler.Option
	Snapshot   = snapshot.Snapshot
	Source     = snapshot.Source
	SourceFunc = snapshot.SourceFunc
)

var (
	WithLogger    = profiler.WithLogger
	WithSource    = profiler.WithSource
	WithScheduler = profiler.WithScheduler
	WithMirror    = profiler.WithMirror

	ErrAlreadyStarted = profiler.ErrAlreadyStarted
	ErrStopped        = profiler.ErrStopped
	ErrDisabled       = profiler.ErrDisabled
	ErrInvalidConfig  = config.ErrInvalid
)

// DefaultConfig captures 5m after start, then every 4h, into ./.snapshots,
// keeping each snapshot for 24h.
func DefaultConfig() Config {
	return config.DefaultProfiler()
}

// WithPrometheus registers the capture and deletion metrics with reg.
func WithPrometheus(reg prometheus.Registerer) Option {
	return profiler.WithMetrics(metrics.New(reg))
}

// Start builds a Manager and arms its timers. Call it once the host has
// finished its own initialization.
func Start(cfg Config, opts ...Option) (*Manager, error) {
	m := profiler.New(cfg, opts...)
	if err := m.Start(); err != nil {
		m.Stop()
		return nil, err
	}
	return m, nil
}
