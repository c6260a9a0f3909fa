package scanner_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tardi-lang/tardi/internal/runeio"
	"github.com/tardi-lang/tardi/internal/scanner"
	"github.com/tardi-lang/tardi/internal/terr"
	"github.com/tardi-lang/tardi/internal/value"
)

func newScanner(src string) *scanner.Scanner {
	return scanner.New("test", runeio.NewReader(strings.NewReader(src)))
}

func TestScanWordSkipsWhitespaceAndComments(t *testing.T) {
	s := newScanner("  dup // this is a comment\nswap")
	w, err := s.ScanWord()
	require.NoError(t, err)
	assert.Equal(t, "dup", w)

	w, err = s.ScanWord()
	require.NoError(t, err)
	assert.Equal(t, "swap", w)
}

func TestScanValueLiterals(t *testing.T) {
	s := newScanner("42 3.5 #t #f dup")

	v, word, err := s.ScanValue()
	require.NoError(t, err)
	assert.Equal(t, "", word)
	assert.Equal(t, int64(42), v.V.Int())

	v, _, err = s.ScanValue()
	require.NoError(t, err)
	assert.Equal(t, 3.5, v.V.Float())

	v, _, err = s.ScanValue()
	require.NoError(t, err)
	assert.True(t, v.V.Bool())

	v, _, err = s.ScanValue()
	require.NoError(t, err)
	assert.False(t, v.V.Bool())

	v, word, err = s.ScanValue()
	require.NoError(t, err)
	assert.Nil(t, v)
	assert.Equal(t, "dup", word)
}

func TestScanValueCharLiteral(t *testing.T) {
	s := newScanner(`'a' '\n'`)
	v, _, err := s.ScanValue()
	require.NoError(t, err)
	assert.Equal(t, 'a', v.V.Char())

	v, _, err = s.ScanValue()
	require.NoError(t, err)
	assert.Equal(t, '\n', v.V.Char())
}

func TestScanStringLiteralWithEscapes(t *testing.T) {
	s := newScanner(`" hello\nworld " rest`)
	v, _, err := s.ScanValue()
	require.NoError(t, err)
	assert.Equal(t, " hello\nworld ", v.V.Str())

	_, word, err := s.ScanValue()
	require.NoError(t, err)
	assert.Equal(t, "rest", word)
}

func TestScanTripleQuotedString(t *testing.T) {
	s := newScanner(`""" has "one" quote inside """`)
	v, _, err := s.ScanValue()
	require.NoError(t, err)
	assert.Equal(t, ` has "one" quote inside `, v.V.Str())
}

func TestScanUnicodeEscape(t *testing.T) {
	s := newScanner(`"\u{48}\u65"`)
	v, _, err := s.ScanValue()
	require.NoError(t, err)
	assert.Equal(t, "He", v.V.Str())
}

func TestScanObjectListUnterminated(t *testing.T) {
	s := newScanner("1 2 3")
	err := s.ScanObjectList("]", func(v *value.Shared, word string) error { return nil })
	require.Error(t, err)
	_, ok := err.(terr.ScanError)
	require.True(t, ok)
}

func TestScanObjectListCollectsUntilEnd(t *testing.T) {
	s := newScanner("1 2 foo ]")
	var words []string
	var nums []int64
	err := s.ScanObjectList("]", func(v *value.Shared, word string) error {
		if v != nil {
			nums = append(nums, v.V.Int())
		} else {
			words = append(words, word)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, nums)
	assert.Equal(t, []string{"foo"}, words)
}

func TestPushPendingIsConsumedBeforeSource(t *testing.T) {
	s := newScanner("from-source")
	s.PushPending(value.New(value.NewInt(99)))
	v, _, err := s.ScanValue()
	require.NoError(t, err)
	assert.Equal(t, int64(99), v.V.Int())

	_, word, err := s.ScanValue()
	require.NoError(t, err)
	assert.Equal(t, "from-source", word)
}
