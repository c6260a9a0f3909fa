package builtin

import (
	"os"

	"github.com/tardi-lang/tardi/internal/code"
	"github.com/tardi-lang/tardi/internal/value"
)

// opFileExists implements `path file-exists?`, never raising an IoError
// itself (a stat failure for any reason just reads as absent) since callers
// use this to decide whether to open-read/open-write, not to diagnose why
// one would fail.
func opFileExists(m code.Machine) error {
	path, err := popString(m, "file-exists?")
	if err != nil {
		return err
	}
	_, serr := os.Stat(path)
	return m.Data().Push(value.New(value.NewBool(serr == nil)))
}

// opDeleteFile implements `path delete-file!`.
func opDeleteFile(m code.Machine) error {
	path, err := popString(m, "delete-file!")
	if err != nil {
		return err
	}
	if rerr := os.Remove(path); rerr != nil {
		return mapOpenErr(path, rerr)
	}
	return nil
}
