package compiler

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tardi-lang/tardi/internal/code"
	"github.com/tardi-lang/tardi/internal/runeio"
	"github.com/tardi-lang/tardi/internal/scanner"
	"github.com/tardi-lang/tardi/internal/terr"
)

// TestNestedDefineInsideMacroIsRejected exercises the frame-depth check in
// runImmediate directly (package-internal), since simulating a runaway
// macro body (one that opens `:` but never closes it) from outside the
// package would require a real compiled Tardi macro.
func TestNestedDefineInsideMacroIsRejected(t *testing.T) {
	s := scanner.New("test", runeio.NewReader(strings.NewReader("weird-macro")))
	stream := code.NewStream()
	consts := code.NewConstants()
	ops := code.NewOpTable()
	names := code.NewNameMap()
	c := New(stream, consts, ops, names, s)

	idx := ops.AddImmediateNative("weird-macro", nil)
	names.Bind("weird-macro", idx)
	c.RunMacro = func(slot code.Slot) error {
		c.frames = append(c.frames, &frame{isFunction: true})
		return nil
	}

	_, err := c.CompileModule()
	require.Error(t, err)
	assert.Equal(t, terr.NestedDefine, err.(terr.CompileError).Kind)
}
