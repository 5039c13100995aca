package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raoulx24/heapsnap/internal/config"
)

func writeConfig(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func run(t *testing.T, w *Watcher) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		assert.NoError(t, w.Start(ctx))
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func TestWatcher_Modes(t *testing.T) {
	for _, mode := range []string{"poll", "fsnotify"} {
		t.Run(mode, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			writeConfig(t, path, "profiler: {}\n")

			var calls atomic.Int32
			w := New(path, config.ReloadConfig{
				Method:         mode,
				PollInterval:   10 * time.Millisecond,
				DebounceWindow: 10 * time.Millisecond,
			}, nil, func() { calls.Add(1) })
			run(t, w)

			// give fsnotify time to register the watch
			time.Sleep(50 * time.Millisecond)
			assert.Zero(t, calls.Load(), "baseline must not trigger")

			writeConfig(t, path, "profiler:\n  interval: 1h\n")
			assert.Eventually(t, func() bool { return calls.Load() >= 1 },
				2*time.Second, 10*time.Millisecond)
		})
	}
}

func TestWatcher_UnknownMode(t *testing.T) {
	w := New(filepath.Join(t.TempDir(), "c.yaml"), config.ReloadConfig{Method: "inotify"}, nil, func() {})
	assert.Error(t, w.Start(context.Background()))
}

func TestDetect_IgnoresMissingFile(t *testing.T) {
	var calls int
	w := New(filepath.Join(t.TempDir(), "absent.yaml"), config.ReloadConfig{}, nil, func() { calls++ })
	w.detect()
	assert.Zero(t, calls)
}
