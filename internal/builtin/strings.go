package builtin

import (
	"strings"

	"github.com/tardi-lang/tardi/internal/code"
	"github.com/tardi-lang/tardi/internal/terr"
	"github.com/tardi-lang/tardi/internal/value"
)

func popString(m code.Machine, op string) (string, error) {
	s, err := m.Data().Pop()
	if err != nil {
		return "", err
	}
	if s.V.Kind() != value.String {
		return "", terr.VMError{Kind: terr.TypeMismatch, Op: op, Left: s.V.Kind().String()}
	}
	return s.V.Str(), nil
}

func opStrConcat(m code.Machine) error {
	b, err := popString(m, "concat")
	if err != nil {
		return err
	}
	a, err := popString(m, "concat")
	if err != nil {
		return err
	}
	return m.Data().Push(value.New(value.NewString(a + b)))
}

func opStrLen(m code.Machine) error {
	s, err := popString(m, "string-length")
	if err != nil {
		return err
	}
	return m.Data().Push(value.New(value.NewInt(int64(len([]rune(s))))))
}

func opStrSplit(m code.Machine) error {
	sep, err := popString(m, "string-split")
	if err != nil {
		return err
	}
	s, err := popString(m, "string-split")
	if err != nil {
		return err
	}
	parts := strings.Split(s, sep)
	items := make([]*value.Shared, len(parts))
	for i, p := range parts {
		items[i] = value.New(value.NewString(p))
	}
	return m.Data().Push(value.New(value.NewVector(items)))
}

func opStrUpper(m code.Machine) error {
	s, err := popString(m, "string-upcase")
	if err != nil {
		return err
	}
	return m.Data().Push(value.New(value.NewString(strings.ToUpper(s))))
}

func opStrLower(m code.Machine) error {
	s, err := popString(m, "string-downcase")
	if err != nil {
		return err
	}
	return m.Data().Push(value.New(value.NewString(strings.ToLower(s))))
}

// opToString renders any value via its Debug form, matching `>string`.
func opToString(m code.Machine) error {
	s, err := m.Data().Pop()
	if err != nil {
		return err
	}
	return m.Data().Push(value.New(value.NewString(s.V.Render(value.Debug))))
}

// opPrint and opPrintln write to the Registrar's default stdout Writer —
// `print`/`println` take a single value off the stack, not a writer, per
// the example programs (e.g. `"Hello, " "world!" concat println`). A
// Writer is only ever explicit on the stack for the lower-level
// `write-to`/`writeln-to` words in io.go, which these could be defined in
// terms of but are kept direct for simplicity.
func (b *Registrar) opPrint(m code.Machine) error {
	s, err := m.Data().Pop()
	if err != nil {
		return err
	}
	return b.stdout.V.WriteString(s.V.Render(value.Print))
}

func (b *Registrar) opPrintln(m code.Machine) error {
	s, err := m.Data().Pop()
	if err != nil {
		return err
	}
	return b.stdout.V.WriteString(s.V.Render(value.Print) + "\n")
}

// opDot is Tardi's inspection word `.`: pop a value, print its Debug
// rendering (quoted strings, escaped chars) followed by a newline.
func (b *Registrar) opDot(m code.Machine) error {
	s, err := m.Data().Pop()
	if err != nil {
		return err
	}
	return b.stdout.V.WriteString(s.V.Render(value.Debug) + "\n")
}

// opWriteTo and opWritelnTo are the explicit-writer counterparts: `value
// writer write-to` / `value writer writeln-to`, for writing to files or
// other non-default destinations opened via io.go.
func opWriteTo(m code.Machine) error {
	return writeTo(m, "")
}

func opWritelnTo(m code.Machine) error {
	return writeTo(m, "\n")
}

func writeTo(m code.Machine, suffix string) error {
	w, err := m.Data().Pop()
	if err != nil {
		return err
	}
	if w.V.Kind() != value.Writer {
		return terr.VMError{Kind: terr.TypeMismatch, Op: "write-to", Left: w.V.Kind().String()}
	}
	s, err := m.Data().Pop()
	if err != nil {
		return err
	}
	return w.V.WriteString(s.V.Render(value.Print) + suffix)
}
