// Package fs defines the filesystem abstraction used by heapsnap.
// It provides the FS interface and the FileInfo type shared across the system.
package fs

import (
	"context"
	"io"
)

type FileInfo struct {
	Path  string
	Name  string
	Size  int64
	IsDir bool
}

type FS interface {
	Stat(path string) (FileInfo, error)
	ReadDir(dir string) ([]FileInfo, error)
	Create(path string) (io.WriteCloser, error)
	Append(path string) (io.WriteCloser, error)
	Rename(ctx context.Context, oldPath, newPath string) error
	Remove(path string) error
	MkdirAll(path string) error
}
