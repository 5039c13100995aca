package fs

import (
	"errors"
	"os"
	"syscall"
)

// defines helpers for classifying filesystem errors.
// Transient errors are retried, everything else fails immediately.

func isTransient(err error) bool {
	if errors.Is(err, syscall.EAGAIN) ||
		errors.Is(err, syscall.EBUSY) ||
		errors.Is(err, syscall.ETIMEDOUT) {
		return true
	}

	return false
}

// IsNotExist reports whether err means the path is absent.
func IsNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}
