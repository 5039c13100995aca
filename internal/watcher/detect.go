package watcher

import (
	"os"
)

// detect calls onChange if the file differs from the last observed state.
// A missing file is ignored; editors briefly remove files while saving.
func (w *Watcher) detect() {
	info, err := os.Stat(w.path)
	if err != nil {
		return
	}

	w.mu.Lock()
	changed := !info.ModTime().Equal(w.lastModTime) || info.Size() != w.lastSize
	if changed {
		w.lastModTime = info.ModTime()
		w.lastSize = info.Size()
	}
	w.mu.Unlock()

	if changed {
		w.log.Debug("watcher: change detected", "path", w.path)
		w.onChange()
	}
}
