// Package watcher notices when a file (the config file) changes and calls back.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/raoulx24/heapsnap/internal/config"
	"github.com/raoulx24/heapsnap/internal/fsprobe"
	"github.com/raoulx24/heapsnap/internal/logging"
)

// Watcher observes one file and invokes onChange when its content changes.
type Watcher struct {
	mu sync.RWMutex

	path     string
	mode     string
	interval time.Duration
	debounce time.Duration

	log logging.Logger

	lastModTime time.Time
	lastSize    int64

	onChange func()
}

// New creates a watcher for path. The current state of the file is the
// baseline, so only later edits trigger onChange.
func New(path string, cfg config.ReloadConfig, log logging.Logger, onChange func()) *Watcher {
	if log == nil {
		log = logging.Discard()
	}
	w := &Watcher{
		path:     path,
		mode:     cfg.Method,
		interval: cfg.PollInterval,
		debounce: cfg.DebounceWindow,
		log:      log,
		onChange: onChange,
	}
	if info, err := os.Stat(path); err == nil {
		w.lastModTime = info.ModTime()
		w.lastSize = info.Size()
	}
	return w
}

// Start chooses the watching strategy and blocks until ctx is done.
func (w *Watcher) Start(ctx context.Context) error {
	switch w.mode {
	case "fsnotify":
		return w.StartFsNotify(ctx)

	case "poll":
		w.StartPolling(ctx)
		return nil

	case "auto", "":
		res := fsprobe.Probe(filepath.Dir(w.path))
		if res.FsnotifySupported {
			return w.StartFsNotify(ctx)
		}
		w.log.Warn("watcher: fsnotify disabled, polling instead", "reason", res.Reason)
		w.StartPolling(ctx)
		return nil

	default:
		return fmt.Errorf("unknown mode %q", w.mode)
	}
}
