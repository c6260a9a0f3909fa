package builtin

import (
	"bufio"
	"os"

	"github.com/tardi-lang/tardi/internal/code"
	"github.com/tardi-lang/tardi/internal/terr"
	"github.com/tardi-lang/tardi/internal/value"
)

// opOpenRead implements `path open-read`: opens path for reading, pushing a
// Reader value; on failure it returns an IoError and pushes nothing.
func opOpenRead(m code.Machine) error {
	path, err := popString(m, "open-read")
	if err != nil {
		return err
	}
	f, ferr := os.Open(path)
	if ferr != nil {
		return mapOpenErr(path, ferr)
	}
	return m.Data().Push(value.New(value.NewReader(path, &fileRuneReader{r: bufio.NewReader(f), f: f})))
}

// fileRuneReader pairs a buffered RuneReader with the underlying *os.File so
// value.NewReader's Closer detection (a type assertion on the RuneReader
// passed in) has something to find — bufio.Reader alone doesn't implement
// io.Closer.
type fileRuneReader struct {
	r *bufio.Reader
	f *os.File
}

func (fr *fileRuneReader) ReadRune() (rune, int, error) { return fr.r.ReadRune() }
func (fr *fileRuneReader) Close() error                 { return fr.f.Close() }

// opOpenWrite implements `path open-write`, truncating or creating path.
func opOpenWrite(m code.Machine) error {
	path, err := popString(m, "open-write")
	if err != nil {
		return err
	}
	f, ferr := os.Create(path)
	if ferr != nil {
		return mapOpenErr(path, ferr)
	}
	return m.Data().Push(value.New(value.NewWriter(path, f)))
}

// opOpenAppend implements `path open-append`.
func opOpenAppend(m code.Machine) error {
	path, err := popString(m, "open-append")
	if err != nil {
		return err
	}
	f, ferr := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if ferr != nil {
		return mapOpenErr(path, ferr)
	}
	return m.Data().Push(value.New(value.NewWriter(path, f)))
}

func mapOpenErr(path string, err error) error {
	switch {
	case os.IsNotExist(err):
		return terr.IoError{Kind: terr.NotFound, Path: path, Cause: err}
	case os.IsPermission(err):
		return terr.IoError{Kind: terr.PermissionDenied, Path: path, Cause: err}
	default:
		return terr.IoError{Kind: terr.Io, Path: path, Cause: err}
	}
}

func popReader(m code.Machine, op string) (value.Value, error) {
	s, err := m.Data().Pop()
	if err != nil {
		return value.Value{}, err
	}
	if s.V.Kind() != value.Reader {
		return value.Value{}, terr.VMError{Kind: terr.TypeMismatch, Op: op, Left: s.V.Kind().String()}
	}
	return s.V, nil
}

func popWriter(m code.Machine, op string) (value.Value, error) {
	s, err := m.Data().Pop()
	if err != nil {
		return value.Value{}, err
	}
	if s.V.Kind() != value.Writer {
		return value.Value{}, terr.VMError{Kind: terr.TypeMismatch, Op: op, Left: s.V.Kind().String()}
	}
	return s.V, nil
}

// opReadChar implements `reader read-char`, leaving the char and an ok? bool
// on top (end-of-stream reports ok=#f rather than raising an error), so
// callers can loop with `while` the same way `get`'s present? bool is used.
func opReadChar(m code.Machine) error {
	r, err := popReader(m, "read-char")
	if err != nil {
		return err
	}
	ch, rerr := r.ReadRune()
	if rerr != nil {
		if ioerr, ok := rerr.(terr.IoError); ok {
			return ioerr
		}
		if err := m.Data().Push(value.New(value.NewBool(false))); err != nil {
			return err
		}
		return m.Data().Push(value.New(value.NewChar(0)))
	}
	if err := m.Data().Push(value.New(value.NewBool(true))); err != nil {
		return err
	}
	return m.Data().Push(value.New(value.NewChar(ch)))
}

func opFlush(m code.Machine) error {
	w, err := popWriter(m, "flush")
	if err != nil {
		return err
	}
	return w.Flush()
}

// opClose works on either a Reader or a Writer.
func opClose(m code.Machine) error {
	s, err := m.Data().Pop()
	if err != nil {
		return err
	}
	if s.V.Kind() != value.Reader && s.V.Kind() != value.Writer {
		return terr.VMError{Kind: terr.TypeMismatch, Op: "close", Left: s.V.Kind().String()}
	}
	return s.V.Close()
}
