// Package scanner turns Tardi source text into a stream of values and raw
// words, reading one module's current source at a time, and using
// runeio's escape/control mnemonic handling for char literals.
package scanner

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/tardi-lang/tardi/internal/runeio"
	"github.com/tardi-lang/tardi/internal/terr"
	"github.com/tardi-lang/tardi/internal/value"
)

// Scanner reads source runes one module at a time and produces tokens. A
// macro's compile-time code can call PushPending to splice values into the
// token stream ahead of further scanning (the pending-values queue).
type Scanner struct {
	path string
	r    runeio.Reader
	line int
	col  int

	peeked   rune
	hasPeek  bool
	pending  []*value.Shared
}

// New returns a Scanner reading from r, reporting errors against path.
func New(path string, r runeio.Reader) *Scanner {
	return &Scanner{path: path, r: r, line: 1, col: 0}
}

// Loc renders the scanner's current source position, for error reporting.
func (s *Scanner) Loc() string {
	return fmt.Sprintf("%s:%d:%d", s.path, s.line, s.col)
}

// PushPending appends a value to the pending-values queue, so ScanValue
// yields it (queued values first-in, first-out) before resuming from
// source. Used by a running macro's push!.
func (s *Scanner) PushPending(v *value.Shared) {
	s.pending = append(s.pending, v)
}

func (s *Scanner) readRune() (rune, error) {
	if s.hasPeek {
		s.hasPeek = false
		r := s.peeked
		s.advance(r)
		return r, nil
	}
	r, _, err := s.r.ReadRune()
	if err != nil {
		return 0, err
	}
	s.advance(r)
	return r, nil
}

func (s *Scanner) advance(r rune) {
	if r == '\n' {
		s.line++
		s.col = 0
	} else {
		s.col++
	}
}

func (s *Scanner) unread(r rune) {
	s.peeked = r
	s.hasPeek = true
}

func isDelim(r rune) bool {
	return unicode.IsSpace(r)
}

// ScanWord reads the next raw whitespace-delimited word, skipping leading
// whitespace and `//` line comments, with no macro expansion or literal
// interpretation. Returns io.EOF, unwrapped, when the source is exhausted.
func (s *Scanner) ScanWord() (string, error) {
	for {
		r, err := s.skipSpaceAndComments()
		if err != nil {
			return "", err
		}
		var sb strings.Builder
		sb.WriteRune(r)
		for {
			r, err := s.readRune()
			if err != nil {
				break
			}
			if isDelim(r) {
				break
			}
			sb.WriteRune(r)
		}
		word := sb.String()
		if word == "" {
			continue
		}
		return word, nil
	}
}

// skipSpaceAndComments advances past whitespace and `//`-to-end-of-line
// comments, returning the first significant rune (already consumed).
func (s *Scanner) skipSpaceAndComments() (rune, error) {
	for {
		r, err := s.readRune()
		if err != nil {
			return 0, err
		}
		if isDelim(r) {
			continue
		}
		if r == '/' {
			r2, err := s.readRune()
			if err == nil && r2 == '/' {
				for {
					r3, err := s.readRune()
					if err != nil || r3 == '\n' {
						break
					}
				}
				continue
			}
			if err == nil {
				s.unread(r2)
			}
		}
		return r, nil
	}
}

// ScanValue reads and interprets the next token as a literal Value if it
// parses as one (int, float, bool, char, string), otherwise returns the raw
// word for the compiler to resolve. If the pending-values queue is
// non-empty, its head is dequeued instead of reading from source.
func (s *Scanner) ScanValue() (*value.Shared, string, error) {
	if len(s.pending) > 0 {
		v := s.pending[0]
		s.pending = s.pending[1:]
		return v, "", nil
	}

	word, err := s.ScanWord()
	if err != nil {
		return nil, "", err
	}
	if word == `"` {
		v, err := s.scanString(`"`)
		return v, "", err
	}
	if word == `"""` {
		v, err := s.scanString(`"""`)
		return v, "", err
	}
	if v, ok := parseLiteral(word); ok {
		return value.New(v), "", nil
	}
	return nil, word, nil
}

// ScanObjectList reads tokens (interpreting literals as ScanValue does)
// until it encounters the literal word endWord, returning everything read
// before it as [value-or-word] pairs via the callback. Backs the
// scan-object-list native. Raises ScanError{UnterminatedList} on
// EOF before endWord is seen.
func (s *Scanner) ScanObjectList(endWord string, yield func(v *value.Shared, word string) error) error {
	for {
		v, word, err := s.ScanValue()
		if err != nil {
			return terr.ScanError{Kind: terr.UnterminatedList, Loc: s.Loc(), Text: endWord}
		}
		if word == endWord {
			return nil
		}
		if err := yield(v, word); err != nil {
			return err
		}
	}
}

func parseLiteral(word string) (value.Value, bool) {
	switch word {
	case "#t":
		return value.NewBool(true), true
	case "#f":
		return value.NewBool(false), true
	}
	if strings.HasPrefix(word, "'") {
		r, err := runeio.UnquoteRune(word)
		if err == nil {
			return value.NewChar(r), true
		}
		return value.Value{}, false
	}
	if i, err := strconv.ParseInt(word, 10, 64); err == nil {
		return value.NewInt(i), true
	}
	if f, err := strconv.ParseFloat(word, 64); err == nil && strings.ContainsAny(word, ".eE") {
		return value.NewFloat(f), true
	}
	return value.Value{}, false
}

// scanString reads the body of a string literal up to the matching closer
// (`"` or the triple-quote `"""`), honoring the backslash escapes
// decodeEscape lists, scanned rune-by-rune instead of parsed as a single
// token.
func (s *Scanner) scanString(closer string) (*value.Shared, error) {
	var sb strings.Builder
	closeRunes := []rune(closer)
	matched := 0
	for {
		r, err := s.readRune()
		if err != nil {
			return nil, terr.ScanError{Kind: terr.UnterminatedString, Loc: s.Loc()}
		}
		if r == '\\' {
			esc, err := s.readRune()
			if err != nil {
				return nil, terr.ScanError{Kind: terr.UnterminatedString, Loc: s.Loc()}
			}
			decoded, err := decodeEscape(esc, s)
			if err != nil {
				return nil, err
			}
			sb.WriteRune(decoded)
			matched = 0
			continue
		}
		if r == closeRunes[matched] {
			matched++
			if matched == len(closeRunes) {
				body := sb.String()
				body = body[:len(body)-(matched-1)]
				return value.New(value.NewString(body)), nil
			}
			sb.WriteRune(r)
			continue
		}
		matched = 0
		sb.WriteRune(r)
	}
}

// decodeEscape interprets the rune following a backslash inside a string
// literal: \n \r \t \' \" \\ plus \uHH / \u{H+}.
func decodeEscape(esc rune, s *Scanner) (rune, error) {
	switch esc {
	case 'n':
		return '\n', nil
	case 'r':
		return '\r', nil
	case 't':
		return '\t', nil
	case '\'':
		return '\'', nil
	case '"':
		return '"', nil
	case '\\':
		return '\\', nil
	case 'u':
		return s.scanUnicodeEscape()
	default:
		return 0, terr.ScanError{Kind: terr.InvalidEscape, Loc: s.Loc(), Text: string(esc)}
	}
}

func (s *Scanner) scanUnicodeEscape() (rune, error) {
	r, err := s.readRune()
	if err != nil {
		return 0, terr.ScanError{Kind: terr.UnterminatedString, Loc: s.Loc()}
	}
	var digits strings.Builder
	braced := r == '{'
	if !braced {
		digits.WriteRune(r)
	}
	for {
		if !braced && digits.Len() >= 2 {
			break
		}
		r, err := s.readRune()
		if err != nil {
			return 0, terr.ScanError{Kind: terr.UnterminatedString, Loc: s.Loc()}
		}
		if braced && r == '}' {
			break
		}
		digits.WriteRune(r)
	}
	n, err := strconv.ParseUint(digits.String(), 16, 32)
	if err != nil {
		return 0, terr.ScanError{Kind: terr.InvalidEscape, Loc: s.Loc(), Text: digits.String()}
	}
	return rune(n), nil
}
