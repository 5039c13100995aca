// Package journal appends human-readable event lines to the snapshot
// directory's log file and mirrors them to a diagnostic stream.
package journal

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/raoulx24/heapsnap/internal/fs"
)

// FileName is the journal's name inside the snapshot directory.
const FileName = "log.txt"

// TimeLayout is ISO-8601 in UTC with millisecond precision.
const TimeLayout = "2006-01-02T15:04:05.000Z"

// Journal writes "[<timestamp>] <message>" lines.
type Journal struct {
	mu     sync.Mutex
	dir    string
	fs     fs.FS
	now    func() time.Time
	mirror io.Writer
}

// New creates a journal for dir. A nil filesystem means the OS filesystem,
// a nil clock means time.Now, a nil mirror means stderr.
func New(dir string, filesystem fs.FS, now func() time.Time, mirror io.Writer) *Journal {
	if filesystem == nil {
		filesystem = fs.New()
	}
	if now == nil {
		now = time.Now
	}
	if mirror == nil {
		mirror = os.Stderr
	}
	return &Journal{
		dir:    dir,
		fs:     filesystem,
		now:    now,
		mirror: mirror,
	}
}

// Path is the journal file location.
func (j *Journal) Path() string {
	return filepath.Join(j.dir, FileName)
}

// Log appends one line. Failures are returned but the caller usually has
// nowhere better to report them.
func (j *Journal) Log(message string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	line := fmt.Sprintf("[%s] %s\n", j.now().UTC().Format(TimeLayout), message)

	// always echo, even if the file cannot be written
	_, _ = io.WriteString(j.mirror, line)

	if err := j.fs.MkdirAll(j.dir); err != nil {
		return fmt.Errorf("creating journal dir: %w", err)
	}

	w, err := j.fs.Append(j.Path())
	if err != nil {
		return fmt.Errorf("opening journal: %w", err)
	}
	if _, err := io.WriteString(w, line); err != nil {
		_ = w.Close()
		return fmt.Errorf("appending journal: %w", err)
	}
	return w.Close()
}
