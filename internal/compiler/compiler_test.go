package compiler_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tardi-lang/tardi/internal/code"
	"github.com/tardi-lang/tardi/internal/compiler"
	"github.com/tardi-lang/tardi/internal/runeio"
	"github.com/tardi-lang/tardi/internal/scanner"
	"github.com/tardi-lang/tardi/internal/terr"
	"github.com/tardi-lang/tardi/internal/value"
)

func newCompiler(src string) (*compiler.Compiler, *code.Stream, *code.OpTable) {
	s := scanner.New("test", runeio.NewReader(strings.NewReader(src)))
	stream := code.NewStream()
	consts := code.NewConstants()
	ops := code.NewOpTable()
	names := code.NewNameMap()
	return compiler.New(stream, consts, ops, names, s), stream, ops
}

func TestCompileLiteralEmitsLitConst(t *testing.T) {
	c, stream, _ := newCompiler("42")
	entry, err := c.CompileModule()
	require.NoError(t, err)

	ip := entry
	assert.Equal(t, int(code.LitConst), stream.Fetch(&ip))
	_ = stream.Fetch(&ip) // constant index; its value is not checked here
}

func TestCompileUnknownWordErrors(t *testing.T) {
	c, _, _ := newCompiler("frobnicate")
	_, err := c.CompileModule()
	require.Error(t, err)
	ce, ok := err.(terr.CompileError)
	require.True(t, ok)
	assert.Equal(t, terr.UnknownWord, ce.Kind)
	assert.Equal(t, "frobnicate", ce.Word)
}

func TestCompileKnownWordEmitsCall(t *testing.T) {
	ops := code.NewOpTable()
	idx := ops.AddNative("greet", func(m code.Machine) error { return nil })
	c, stream := newCompilerWithOps(t, "greet", ops)
	c.Names.Bind("greet", idx)

	entry, err := c.CompileModule()
	require.NoError(t, err)
	ip := entry
	assert.Equal(t, int(code.Call), stream.Fetch(&ip))
	assert.Equal(t, idx, stream.Fetch(&ip))
}

func newCompilerWithOps(t *testing.T, src string, ops *code.OpTable) (*compiler.Compiler, *code.Stream) {
	t.Helper()
	s := scanner.New("test", runeio.NewReader(strings.NewReader(src)))
	stream := code.NewStream()
	consts := code.NewConstants()
	names := code.NewNameMap()
	return compiler.New(stream, consts, ops, names, s), stream
}

func TestFunctionDefinitionThenCallResolves(t *testing.T) {
	c, stream, ops := newCompiler(": square dup * ; 5 square")
	names := namesOf(c)
	ops.AddNative("dup", func(m code.Machine) error { return nil })
	names.Bind("dup", 0)
	ops.AddNative("*", func(m code.Machine) error { return nil })
	names.Bind("*", 1)

	entry, err := c.CompileModule()
	require.NoError(t, err)

	squareIdx, ok := names.Lookup("square")
	require.True(t, ok)
	slot, ok := ops.Get(squareIdx)
	require.True(t, ok)
	assert.True(t, slot.IsUser)
	assert.NotEqual(t, value.Addr(0), slot.Addr, "square's body must have a real entry address")

	// The top-level code after the function definition pushes 5 and calls
	// square: walk forward from entry until we see the LitConst/Call pair.
	ip := entry
	foundCall := false
	for i := 0; i < 200; i++ {
		op := stream.Fetch(&ip)
		if op == int(code.Call) {
			operand := stream.Fetch(&ip)
			if operand == squareIdx {
				foundCall = true
				break
			}
			continue
		}
		if code.Opcode(op).Arity() == 1 {
			stream.Fetch(&ip)
		}
	}
	assert.True(t, foundCall, "expected a Call to square's op-table slot in the top-level code")
}

func namesOf(c *compiler.Compiler) *code.NameMap { return c.Names }

func TestLambdaProducesConstantAndLitConst(t *testing.T) {
	c, stream, _ := newCompiler("[ 1 ]")
	entry, err := c.CompileModule()
	require.NoError(t, err)

	ip := entry
	op := stream.Fetch(&ip)
	require.Equal(t, int(code.Jump), op, "lambda body must be preceded by a jump around it")
	target := value.Addr(stream.Fetch(&ip))

	// Follow the jump, as the VM would at runtime: it must land exactly on
	// the LitConst that pushes the lambda value in the enclosing code,
	// skipping clean over the lambda's own body.
	ip = target
	op = stream.Fetch(&ip)
	require.Equal(t, int(code.LitConst), op, "jump target must land on the LitConst pushing the lambda value")
	k := stream.Fetch(&ip)
	assert.Equal(t, value.Lambda, constantsOf(c).Get(k).V.Kind())
}

func constantsOf(c *compiler.Compiler) *code.Constants { return c.Constants }

func TestUnexpectedSemicolonErrors(t *testing.T) {
	c, _, _ := newCompiler(";")
	_, err := c.CompileModule()
	require.Error(t, err)
	assert.Equal(t, terr.UnexpectedEnd, err.(terr.CompileError).Kind)
}

func TestExportsDirectiveInvokesHook(t *testing.T) {
	c, _, _ := newCompiler("exports: foo bar ;")
	var got []string
	c.ExportsHook = func(names []string) error {
		got = names
		return nil
	}
	_, err := c.CompileModule()
	require.NoError(t, err)
	assert.Equal(t, []string{"foo", "bar"}, got)
}

func TestUsesDirectiveInvokesHook(t *testing.T) {
	c, _, _ := newCompiler("uses: strings")
	var got string
	c.UsesHook = func(name string) error {
		got = name
		return nil
	}
	_, err := c.CompileModule()
	require.NoError(t, err)
	assert.Equal(t, "strings", got)
}
