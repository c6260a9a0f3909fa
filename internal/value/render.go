package value

import (
	"strconv"
	"strings"
)

// Mode selects how a Value is textually rendered.
type Mode int

const (
	// Print renders raw content: used by `print`/`println`.
	Print Mode = iota
	// Debug renders a round-trippable, quoted form: used by `.`/`>string`.
	Debug
)

// Render produces the textual form for the given Mode.
func (v Value) Render(mode Mode) string {
	switch v.kind {
	case Int:
		return strconv.FormatInt(v.i, 10)
	case Float:
		return renderFloat(v.f)
	case Bool:
		if v.b {
			return "#t"
		}
		return "#f"
	case Char:
		if mode == Debug {
			return "'" + escapeRune(v.ch, '\'') + "'"
		}
		return string(v.ch)
	case String:
		if mode == Debug {
			return `"` + escapeString(v.s) + `"`
		}
		return v.s
	case Vector:
		var sb strings.Builder
		sb.WriteString("{ ")
		for _, item := range v.vec.items {
			sb.WriteString(item.V.Render(Debug))
			sb.WriteByte(' ')
		}
		sb.WriteByte('}')
		return sb.String()
	case Hashmap:
		var sb strings.Builder
		sb.WriteString("H{ ")
		v.HashmapEach(func(key Value, val *Shared) {
			sb.WriteString("{ ")
			sb.WriteString(key.Render(Debug))
			sb.WriteByte(' ')
			sb.WriteString(val.V.Render(Debug))
			sb.WriteString(" } ")
		})
		sb.WriteByte('}')
		return sb.String()
	case Lambda:
		if v.lam != nil && v.lam.Name != "" {
			return "<lambda " + v.lam.Name + ">"
		}
		if v.lam != nil {
			return "<lambda@" + strconv.FormatUint(uint64(v.lam.CodeAddr), 10) + ">"
		}
		return "<lambda>"
	case Address:
		return "@" + strconv.FormatUint(uint64(v.addr), 10)
	case Writer:
		return "<writer " + v.rw.path + ">"
	case Reader:
		return "<reader " + v.rw.path + ">"
	case Error:
		return "<error " + v.err.Message + ">"
	default:
		return ""
	}
}

func (v Value) String() string { return v.Render(Print) }

func renderFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

func escapeRune(r rune, quote byte) string {
	switch r {
	case '\n':
		return `\n`
	case '\r':
		return `\r`
	case '\t':
		return `\t`
	case '\\':
		return `\\`
	case rune(quote):
		return `\` + string(quote)
	default:
		return string(r)
	}
}

func escapeString(s string) string {
	var sb strings.Builder
	for _, r := range s {
		sb.WriteString(escapeRune(r, '"'))
	}
	return sb.String()
}
