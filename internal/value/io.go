package value

import (
	"io"

	"github.com/tardi-lang/tardi/internal/flushio"
	"github.com/tardi-lang/tardi/internal/terr"
)

// ioHandle is the opaque backing store for Writer and Reader values: each
// captures the path it was opened from for diagnostics, and tracks whether
// it has been closed so that further operations fail with
// IoError{Kind: AlreadyClosed}.
type ioHandle struct {
	path   string
	closed bool

	w flushio.WriteFlusher
	r io.RuneReader
	c io.Closer
}

// NewWriter wraps w as a Writer value, buffering writes through flushio so
// output is flushed explicitly rather than on every call.
func NewWriter(path string, w io.Writer) Value {
	h := &ioHandle{path: path, w: flushio.NewWriteFlusher(w)}
	if c, ok := w.(io.Closer); ok {
		h.c = c
	}
	return Value{kind: Writer, rw: h}
}

// NewReader wraps r as a Reader value.
func NewReader(path string, r io.RuneReader) Value {
	h := &ioHandle{path: path, r: r}
	if c, ok := r.(io.Closer); ok {
		h.c = c
	}
	return Value{kind: Reader, rw: h}
}

func (v Value) IoPath() string { return v.rw.path }

func (v Value) IoClosed() bool { return v.rw.closed }

// WriteString writes s to a Writer value, failing if it has been closed.
func (v Value) WriteString(s string) error {
	if v.rw.closed {
		return terr.IoError{Kind: terr.AlreadyClosed, Path: v.rw.path}
	}
	if _, err := v.rw.w.Write([]byte(s)); err != nil {
		return terr.IoError{Kind: terr.Io, Path: v.rw.path, Cause: err}
	}
	return nil
}

// ReadRune reads one rune from a Reader value, failing if it has been closed.
func (v Value) ReadRune() (rune, error) {
	if v.rw.closed {
		return 0, terr.IoError{Kind: terr.AlreadyClosed, Path: v.rw.path}
	}
	r, _, err := v.rw.r.ReadRune()
	if err != nil {
		return 0, err
	}
	return r, nil
}

// Flush flushes a Writer's buffered content.
func (v Value) Flush() error {
	if v.rw.closed {
		return terr.IoError{Kind: terr.AlreadyClosed, Path: v.rw.path}
	}
	if err := v.rw.w.Flush(); err != nil {
		return terr.IoError{Kind: terr.Io, Path: v.rw.path, Cause: err}
	}
	return nil
}

// Close flushes (for Writers) and marks the handle closed.
func (v Value) Close() error {
	if v.rw.closed {
		return nil
	}
	var ferr error
	if v.rw.w != nil {
		ferr = v.rw.w.Flush()
	}
	v.rw.closed = true
	if v.rw.c != nil {
		if cerr := v.rw.c.Close(); ferr == nil {
			ferr = cerr
		}
	}
	if ferr != nil {
		return terr.IoError{Kind: terr.Io, Path: v.rw.path, Cause: ferr}
	}
	return nil
}
