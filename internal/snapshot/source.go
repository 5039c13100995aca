package snapshot

import (
	"errors"
	"io"
	"runtime"
	"runtime/pprof"
)

// Source produces the bytes of one heap snapshot.
type Source interface {
	WriteSnapshot(w io.Writer) error
}

// SourceFunc adapts a function to Source.
type SourceFunc func(w io.Writer) error

func (f SourceFunc) WriteSnapshot(w io.Writer) error { return f(w) }

// PprofSource writes the runtime heap profile in pprof's gzipped protobuf form.
type PprofSource struct {
	// GC forces a collection first so the profile reflects live objects.
	GC bool
}

func (p PprofSource) WriteSnapshot(w io.Writer) error {
	if p.GC {
		runtime.GC()
	}
	prof := pprof.Lookup("heap")
	if prof == nil {
		return errors.New("heap profile not available")
	}
	return prof.WriteTo(w, 0)
}
