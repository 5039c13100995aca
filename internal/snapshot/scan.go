package snapshot

import (
	"fmt"
	"sort"

	"github.com/raoulx24/heapsnap/internal/fs"
)

// Listing is the content of a snapshot directory.
type Listing struct {
	Snapshots []Snapshot    // oldest first
	Temps     []fs.FileInfo // leftovers from interrupted captures
}

// Scan reads dir. A missing directory is an empty listing. Files that are not
// snapshots, such as the journal, are ignored.
func Scan(filesystem fs.FS, dir string) (Listing, error) {
	entries, err := filesystem.ReadDir(dir)
	if err != nil {
		if fs.IsNotExist(err) {
			return Listing{}, nil
		}
		return Listing{}, fmt.Errorf("reading snapshot dir: %w", err)
	}

	var l Listing
	for _, e := range entries {
		if e.IsDir {
			continue
		}

		if IsTemp(e.Name) {
			l.Temps = append(l.Temps, e)
			continue
		}

		ts, ok := ParseName(e.Name)
		if !ok {
			continue
		}
		l.Snapshots = append(l.Snapshots, Snapshot{
			Name:      e.Name,
			Path:      e.Path,
			Timestamp: ts,
			Size:      e.Size,
		})
	}

	sort.Slice(l.Snapshots, func(i, j int) bool {
		return l.Snapshots[i].Timestamp.Before(l.Snapshots[j].Timestamp)
	})

	return l, nil
}
