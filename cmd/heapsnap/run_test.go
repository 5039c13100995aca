package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raoulx24/heapsnap/internal/config"
	"github.com/raoulx24/heapsnap/internal/logging"
	"github.com/raoulx24/heapsnap/internal/metrics"
	"github.com/raoulx24/heapsnap/internal/snapshot"
)

func TestHostApply_BadReloadKeepsRunningManager(t *testing.T) {
	dir := t.TempDir()
	seed(t, dir, snapshot.Name(time.Now().Add(-time.Hour)))

	good := config.DefaultProfiler()
	good.Dir = dir
	good.FirstDelay = time.Hour

	h := &host{log: logging.Discard(), metrics: metrics.New(nil)}
	require.NoError(t, h.apply(good))
	t.Cleanup(h.stop)

	running := h.mgr
	require.NotNil(t, running)
	require.Equal(t, 1, running.Pending(), "reconcile re-armed the seeded snapshot")

	bad := good
	bad.Cron = "every tuesday"
	err := h.apply(bad)
	require.ErrorIs(t, err, config.ErrInvalid)

	assert.Same(t, running, h.mgr)
	assert.Equal(t, 1, h.mgr.Pending())
}

func TestHostApply_SwapsManager(t *testing.T) {
	cfg := config.DefaultProfiler()
	cfg.Dir = t.TempDir()
	cfg.FirstDelay = time.Hour

	h := &host{log: logging.Discard(), metrics: metrics.New(nil)}
	require.NoError(t, h.apply(cfg))
	t.Cleanup(h.stop)
	first := h.mgr

	cfg.Interval = 2 * time.Hour
	require.NoError(t, h.apply(cfg))
	assert.NotSame(t, first, h.mgr)
}
