package snapshot

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/raoulx24/heapsnap/internal/fs"
)

// Writer streams a Source into the snapshot directory. A snapshot is written
// to <name>.tmp and renamed into place only after the stream completes.
type Writer struct {
	dir    string
	fs     fs.FS
	source Source
}

func NewWriter(dir string, filesystem fs.FS, source Source) *Writer {
	if filesystem == nil {
		filesystem = fs.New()
	}
	if source == nil {
		source = PprofSource{}
	}
	return &Writer{dir: dir, fs: filesystem, source: source}
}

// Write captures one snapshot named after at. On failure the temp file is
// removed and no final file exists.
func (w *Writer) Write(ctx context.Context, at time.Time) (Snapshot, error) {
	name := Name(at)
	final := filepath.Join(w.dir, name)
	tmp := final + TempSuffix

	if err := w.fs.MkdirAll(w.dir); err != nil {
		return Snapshot{}, fmt.Errorf("creating snapshot dir: %w", err)
	}

	out, err := w.fs.Create(tmp)
	if err != nil {
		return Snapshot{}, fmt.Errorf("creating temp file: %w", err)
	}

	cw := &countingWriter{w: out}
	if err := w.source.WriteSnapshot(cw); err != nil {
		_ = out.Close()
		w.discard(tmp)
		return Snapshot{}, err
	}

	if err := out.Close(); err != nil {
		w.discard(tmp)
		return Snapshot{}, fmt.Errorf("closing temp file: %w", err)
	}

	// Finalize atomically
	if err := w.fs.Rename(ctx, tmp, final); err != nil {
		w.discard(tmp)
		return Snapshot{}, fmt.Errorf("finalizing snapshot: %w", err)
	}

	ts, _ := ParseName(name)
	return Snapshot{
		Name:      name,
		Path:      final,
		Timestamp: ts,
		Size:      cw.n,
	}, nil
}

func (w *Writer) discard(tmp string) {
	_ = w.fs.Remove(tmp)
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
