// Package metrics exposes Prometheus instruments for snapshot captures and
// deletions. A nil *Metrics is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "heapsnap"

// Deletion outcomes.
const (
	Deleted = "deleted"
	Missing = "missing"
	Failed  = "error"
)

type Metrics struct {
	Captures         *prometheus.CounterVec
	Deletions        *prometheus.CounterVec
	LastSnapshotSize prometheus.Gauge
	PendingDeletions prometheus.Gauge
}

// New creates the instruments and registers them with reg when it is non-nil.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Captures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "captures_total",
			Help:      "Heap snapshot capture attempts by result.",
		}, []string{"result"}),
		Deletions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deletions_total",
			Help:      "Expired snapshot deletion checks by outcome.",
		}, []string{"result"}),
		LastSnapshotSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_snapshot_bytes",
			Help:      "Size of the most recent heap snapshot.",
		}),
		PendingDeletions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pending_deletions",
			Help:      "Snapshots waiting for their deletion deadline.",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.Captures, m.Deletions, m.LastSnapshotSize, m.PendingDeletions)
	}
	return m
}

func (m *Metrics) CaptureSucceeded(size int64) {
	if m == nil {
		return
	}
	m.Captures.WithLabelValues("ok").Inc()
	m.LastSnapshotSize.Set(float64(size))
}

func (m *Metrics) CaptureFailed() {
	if m == nil {
		return
	}
	m.Captures.WithLabelValues("error").Inc()
}

func (m *Metrics) DeletionScheduled() {
	if m == nil {
		return
	}
	m.PendingDeletions.Inc()
}

// DeletionUnscheduled is for pending deletions cancelled before firing.
func (m *Metrics) DeletionUnscheduled() {
	if m == nil {
		return
	}
	m.PendingDeletions.Dec()
}

// DeletionFired records the outcome of a deletion check that came due.
func (m *Metrics) DeletionFired(result string) {
	if m == nil {
		return
	}
	m.PendingDeletions.Dec()
	m.Deletions.WithLabelValues(result).Inc()
}

// DeletionImmediate records a deletion that was never scheduled, e.g. an
// already expired snapshot found on startup.
func (m *Metrics) DeletionImmediate(result string) {
	if m == nil {
		return
	}
	m.Deletions.WithLabelValues(result).Inc()
}
