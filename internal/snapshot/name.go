package snapshot

import (
	"strings"
	"time"
)

const (
	// Extension marks a finished heap snapshot.
	Extension = ".heapsnapshot"
	// TempSuffix marks a snapshot still being written.
	TempSuffix = ".tmp"

	isoLayout = "2006-01-02T15:04:05.000Z"
	stampLen  = len(isoLayout)
)

var sanitizer = strings.NewReplacer(":", "-", ".", "-")

// Name derives a filesystem-safe file name from t, e.g.
// 2024-05-01T10-15-30-123Z.heapsnapshot.
func Name(t time.Time) string {
	return sanitizer.Replace(t.UTC().Format(isoLayout)) + Extension
}

// ParseName recovers the capture time from a name produced by Name.
func ParseName(name string) (time.Time, bool) {
	if !strings.HasSuffix(name, Extension) {
		return time.Time{}, false
	}
	core := strings.TrimSuffix(name, Extension)
	if len(core) != stampLen {
		return time.Time{}, false
	}
	// positions of the characters the sanitizer replaced
	if core[13] != '-' || core[16] != '-' || core[19] != '-' {
		return time.Time{}, false
	}

	iso := core[:13] + ":" + core[14:16] + ":" + core[17:19] + "." + core[20:]
	t, err := time.Parse(isoLayout, iso)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// IsTemp reports whether name is an in-progress snapshot file.
func IsTemp(name string) bool {
	return strings.HasSuffix(name, Extension+TempSuffix)
}
