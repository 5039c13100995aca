package retention

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raoulx24/heapsnap/internal/fs"
	"github.com/raoulx24/heapsnap/internal/journal"
	"github.com/raoulx24/heapsnap/internal/metrics"
	"github.com/raoulx24/heapsnap/internal/schedule"
	"github.com/raoulx24/heapsnap/internal/snapshot"
)

const lifetime = 24 * time.Hour

var start = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

type fixture struct {
	dir     string
	sched   *schedule.Fake
	engine  *Engine
	metrics *metrics.Metrics
}

func newFixture(t *testing.T, filesystem fs.FS) *fixture {
	t.Helper()
	if filesystem == nil {
		filesystem = fs.New()
	}
	dir := t.TempDir()
	sched := schedule.NewFake(start)
	m := metrics.New(nil)
	j := journal.New(dir, filesystem, sched.Now, &bytes.Buffer{})

	return &fixture{
		dir:     dir,
		sched:   sched,
		metrics: m,
		engine: New(lifetime, Deps{
			FS:        filesystem,
			Scheduler: sched,
			Journal:   j,
			Metrics:   m,
		}),
	}
}

func (f *fixture) touch(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(f.dir, name)
	require.NoError(t, os.WriteFile(path, []byte("heap"), 0o644))
	return path
}

func (f *fixture) journalLines(t *testing.T) []string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(f.dir, journal.FileName))
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestSchedule_DeletesAtDeadlineNotBefore(t *testing.T) {
	f := newFixture(t, nil)
	name := snapshot.Name(start)
	path := f.touch(t, name)

	f.engine.ScheduleSnapshot(snapshot.Snapshot{Name: name, Path: path, Timestamp: start})
	assert.Equal(t, 1, f.engine.Pending())

	f.sched.Advance(lifetime - time.Second)
	assert.True(t, exists(path), "deleted before its lifetime ended")

	f.sched.Advance(time.Second)
	assert.False(t, exists(path))
	assert.Equal(t, 0, f.engine.Pending())

	lines := f.journalLines(t)
	require.Len(t, lines, 1)
	assert.Equal(t, "[2024-05-02T10:00:00.000Z] Deleted: "+name, lines[0])
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Deletions.WithLabelValues(metrics.Deleted)))
	assert.Equal(t, 0.0, testutil.ToFloat64(f.metrics.PendingDeletions))
}

func TestSchedule_MissingFileIsSilent(t *testing.T) {
	f := newFixture(t, nil)
	path := f.touch(t, snapshot.Name(start))

	f.engine.Schedule(path, lifetime)
	require.NoError(t, os.Remove(path))

	assert.NotPanics(t, func() { f.sched.Advance(lifetime) })
	assert.Empty(t, f.journalLines(t))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Deletions.WithLabelValues(metrics.Missing)))
}

type removeFailFS struct {
	fs.FS
}

func (removeFailFS) Remove(string) error {
	return os.ErrPermission
}

func TestSchedule_RemoveErrorLeavesFile(t *testing.T) {
	f := newFixture(t, removeFailFS{fs.New()})
	name := snapshot.Name(start)
	path := f.touch(t, name)

	f.engine.Schedule(path, lifetime)
	f.sched.Advance(2 * lifetime)

	assert.True(t, exists(path))
	lines := f.journalLines(t)
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "ERROR deleting "+name+": ")
	assert.Contains(t, lines[0], "permission denied")
	assert.Equal(t, 0, f.sched.Pending(), "failed deletions are not retried")
}

func TestSchedule_IndependentPerFile(t *testing.T) {
	f := newFixture(t, nil)
	first := f.touch(t, snapshot.Name(start))
	second := f.touch(t, snapshot.Name(start.Add(4*time.Hour)))

	f.engine.Schedule(first, lifetime)
	f.sched.Advance(4 * time.Hour)
	f.engine.Schedule(second, lifetime)

	require.NoError(t, os.Remove(first))
	f.sched.Advance(lifetime - 4*time.Hour)
	assert.True(t, exists(second))

	f.sched.Advance(4 * time.Hour)
	assert.False(t, exists(second))

	lines := f.journalLines(t)
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "Deleted: "+filepath.Base(second))
}

func TestSchedule_ReplacesExistingTimer(t *testing.T) {
	f := newFixture(t, nil)
	path := f.touch(t, snapshot.Name(start))

	f.engine.Schedule(path, time.Hour)
	f.engine.Schedule(path, 2*time.Hour)
	assert.Equal(t, 1, f.engine.Pending())
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.PendingDeletions))

	f.sched.Advance(time.Hour)
	assert.True(t, exists(path))
	f.sched.Advance(time.Hour)
	assert.False(t, exists(path))
}

func TestCancelAll(t *testing.T) {
	f := newFixture(t, nil)
	a := f.touch(t, snapshot.Name(start))
	b := f.touch(t, snapshot.Name(start.Add(time.Minute)))

	f.engine.Schedule(a, time.Hour)
	f.engine.Schedule(b, time.Hour)

	assert.Equal(t, 2, f.engine.CancelAll())
	f.sched.Advance(2 * time.Hour)

	assert.True(t, exists(a))
	assert.True(t, exists(b))
	assert.Equal(t, 0.0, testutil.ToFloat64(f.metrics.PendingDeletions))
}

func TestCancelAll_DropsDeletionAlreadyQueued(t *testing.T) {
	dir := t.TempDir()
	rt := schedule.NewRuntime(nil)
	defer rt.Close()

	m := metrics.New(nil)
	e := New(lifetime, Deps{Scheduler: rt, Metrics: m})

	path := filepath.Join(dir, snapshot.Name(start))
	require.NoError(t, os.WriteFile(path, []byte("heap"), 0o644))

	busy := make(chan struct{})
	release := make(chan struct{})
	rt.After(0, func() {
		close(busy)
		<-release
	})
	<-busy

	// the deletion timer fires while the loop is busy, leaving the job queued
	e.Schedule(path, time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	assert.Equal(t, 1, e.CancelAll())
	close(release)

	drained := make(chan struct{})
	rt.After(0, func() { close(drained) })
	select {
	case <-drained:
	case <-time.After(2 * time.Second):
		t.Fatal("dispatch loop never drained")
	}

	assert.True(t, exists(path))
	assert.Zero(t, e.Pending())
	assert.Equal(t, 0.0, testutil.ToFloat64(m.PendingDeletions))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Deletions.WithLabelValues(metrics.Deleted)))
}

func TestSchedule_ReplacedTimerAlreadyQueuedIsStale(t *testing.T) {
	dir := t.TempDir()
	rt := schedule.NewRuntime(nil)
	defer rt.Close()

	m := metrics.New(nil)
	e := New(lifetime, Deps{Scheduler: rt, Metrics: m})

	path := filepath.Join(dir, snapshot.Name(start))
	require.NoError(t, os.WriteFile(path, []byte("heap"), 0o644))

	busy := make(chan struct{})
	release := make(chan struct{})
	rt.After(0, func() {
		close(busy)
		<-release
	})
	<-busy

	e.Schedule(path, time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	e.Schedule(path, time.Hour)
	close(release)

	drained := make(chan struct{})
	rt.After(0, func() { close(drained) })
	select {
	case <-drained:
	case <-time.After(2 * time.Second):
		t.Fatal("dispatch loop never drained")
	}

	assert.True(t, exists(path))
	assert.Equal(t, 1, e.Pending())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PendingDeletions))
	assert.Equal(t, 1, e.CancelAll())
}

func TestSweep(t *testing.T) {
	f := newFixture(t, nil)
	expired := f.touch(t, snapshot.Name(start.Add(-25*time.Hour)))
	live := f.touch(t, snapshot.Name(start.Add(-time.Hour)))
	tmp := f.touch(t, snapshot.Name(start.Add(-2*time.Hour))+snapshot.TempSuffix)

	t.Run("dry run touches nothing", func(t *testing.T) {
		rep, err := f.engine.Sweep(f.dir, start, true)
		require.NoError(t, err)
		require.Len(t, rep.Expired, 1)
		assert.Equal(t, filepath.Base(expired), rep.Expired[0].Name)
		assert.Len(t, rep.TempsRemoved, 1)
		assert.Len(t, rep.Live, 1)

		assert.True(t, exists(expired))
		assert.True(t, exists(tmp))
		assert.Empty(t, f.journalLines(t))
	})

	t.Run("removes expired and temp files", func(t *testing.T) {
		rep, err := f.engine.Sweep(f.dir, start, false)
		require.NoError(t, err)
		assert.Len(t, rep.Expired, 1)
		assert.Empty(t, rep.Failed)
		require.Len(t, rep.Live, 1)
		assert.Equal(t, filepath.Base(live), rep.Live[0].Name)

		assert.False(t, exists(expired))
		assert.False(t, exists(tmp))
		assert.True(t, exists(live))

		lines := f.journalLines(t)
		require.Len(t, lines, 2)
		assert.Contains(t, lines[0], "Removed stale temp file: "+filepath.Base(tmp))
		assert.Contains(t, lines[1], "Deleted: "+filepath.Base(expired))
	})
}

func TestReconcile_RearmsRemainingLifetime(t *testing.T) {
	f := newFixture(t, nil)
	live := f.touch(t, snapshot.Name(start.Add(-20*time.Hour)))

	rep, err := f.engine.Reconcile(f.dir)
	require.NoError(t, err)
	assert.Len(t, rep.Live, 1)
	assert.Equal(t, 1, f.engine.Pending())

	f.sched.Advance(4*time.Hour - time.Millisecond)
	assert.True(t, exists(live))
	f.sched.Advance(time.Millisecond)
	assert.False(t, exists(live))
}

func TestReconcile_RequiresScheduler(t *testing.T) {
	e := New(lifetime, Deps{})
	_, err := e.Reconcile(t.TempDir())
	assert.Error(t, err)
}
