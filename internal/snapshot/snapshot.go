// Package snapshot names, writes and lists heap snapshot files.
package snapshot

import (
	"time"
)

// Snapshot represents a single heap snapshot on disk.
type Snapshot struct {
	Name      string
	Path      string
	Timestamp time.Time
	Size      int64
}

// Age is how old the snapshot is at now.
func (s Snapshot) Age(now time.Time) time.Duration {
	return now.Sub(s.Timestamp)
}

// ExpiresAt is when a snapshot with the given lifetime is due for deletion.
func (s Snapshot) ExpiresAt(lifetime time.Duration) time.Time {
	return s.Timestamp.Add(lifetime)
}
