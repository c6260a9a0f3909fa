package vm_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tardi-lang/tardi/internal/code"
	"github.com/tardi-lang/tardi/internal/value"
	"github.com/tardi-lang/tardi/internal/vm"
)

func newVM() (*vm.VM, *code.Stream, *code.Constants, *code.OpTable) {
	stream := code.NewStream()
	constants := code.NewConstants()
	ops := code.NewOpTable()
	vm.RegisterStackWords(ops)
	vm.RegisterControlWords(ops)
	return vm.New(stream, constants, ops), stream, constants, ops
}

func TestLitConstPushesValue(t *testing.T) {
	m, stream, constants, _ := newVM()
	k := constants.Intern(value.New(value.NewInt(7)))
	entry := stream.Emit(int(code.LitConst))
	stream.Emit(k)
	stream.Emit(int(code.Halt))

	require.NoError(t, m.Run(context.Background(), value.Addr(entry)))
	top, err := m.Data().Pop()
	require.NoError(t, err)
	assert.Equal(t, int64(7), top.V.Int())
}

func TestSwapReordersTopTwo(t *testing.T) {
	m, stream, constants, ops := newVM()
	k1 := constants.Intern(value.New(value.NewInt(1)))
	k2 := constants.Intern(value.New(value.NewInt(2)))
	entry := stream.Emit(int(code.LitConst))
	stream.Emit(k1)
	stream.Emit(int(code.LitConst))
	stream.Emit(k2)
	emitCall(stream, ops, "swap")
	stream.Emit(int(code.Halt))

	require.NoError(t, m.Run(context.Background(), value.Addr(entry)))
	top, err := m.Data().Pop()
	require.NoError(t, err)
	assert.Equal(t, int64(1), top.V.Int(), "swap should put the first-pushed value back on top")
	second, err := m.Data().Pop()
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.V.Int())
}

func TestUserFunctionCallAndReturn(t *testing.T) {
	m, stream, constants, ops := newVM()

	// Compile `: double dup + ;` by hand: predeclare, jump-around, body,
	// Return, patch, define — the same recipe internal/compiler automates.
	doubleIdx := ops.Predeclare("double")
	jmp := stream.Emit(int(code.Jump))
	jmpOperand := stream.Reserve()
	_ = jmp
	bodyAddr := stream.Len()
	emitCall(stream, ops, "dup")
	addIdx := ops.AddNative("+", func(m code.Machine) error {
		b, err := m.Data().Pop()
		if err != nil {
			return err
		}
		a, err := m.Data().Pop()
		if err != nil {
			return err
		}
		return m.Data().Push(value.New(value.NewInt(a.V.Int() + b.V.Int())))
	})
	stream.Emit(int(code.Call))
	stream.Emit(addIdx)
	stream.Emit(int(code.Return))
	stream.Patch(jmpOperand, int(stream.Len()))
	ops.Define(doubleIdx, bodyAddr)

	// Top-level: 21 double
	k := constants.Intern(value.New(value.NewInt(21)))
	entry := stream.Len()
	stream.Emit(int(code.LitConst))
	stream.Emit(k)
	stream.Emit(int(code.Call))
	stream.Emit(doubleIdx)
	stream.Emit(int(code.Halt))

	require.NoError(t, m.Run(context.Background(), value.Addr(entry)))
	top, err := m.Data().Pop()
	require.NoError(t, err)
	assert.Equal(t, int64(42), top.V.Int())
}

func TestIfTakesTrueBranch(t *testing.T) {
	m, stream, constants, ops := newVM()

	thenAddr, jmp1 := emitLambdaBody(stream, constants, func() {
		k := constants.Intern(value.New(value.NewInt(1)))
		stream.Emit(int(code.LitConst))
		stream.Emit(k)
	})
	elseAddr, jmp2 := emitLambdaBody(stream, constants, func() {
		k := constants.Intern(value.New(value.NewInt(0)))
		stream.Emit(int(code.LitConst))
		stream.Emit(k)
	})
	_ = jmp1
	_ = jmp2
	thenLam := constants.Intern(value.New(value.NewLambda(&value.Lambda{CodeAddr: thenAddr})))
	elseLam := constants.Intern(value.New(value.NewLambda(&value.Lambda{CodeAddr: elseAddr})))
	condK := constants.Intern(value.New(value.NewBool(true)))

	entry := stream.Len()
	stream.Emit(int(code.LitConst))
	stream.Emit(condK)
	stream.Emit(int(code.LitConst))
	stream.Emit(thenLam)
	stream.Emit(int(code.LitConst))
	stream.Emit(elseLam)
	emitCall(stream, ops, "if")
	stream.Emit(int(code.Halt))

	require.NoError(t, m.Run(context.Background(), value.Addr(entry)))
	top, err := m.Data().Pop()
	require.NoError(t, err)
	assert.Equal(t, int64(1), top.V.Int())
}

func TestWhileLoopsUntilConditionFalse(t *testing.T) {
	m, stream, constants, ops := newVM()

	// counter starts at 0 on the data stack; cond: dup 3 < ; body: 1 + ;
	// We hand-roll "3 <" and "1 +" as tiny native words for this test.
	ops.AddNative("testlt3", func(mm code.Machine) error {
		v, err := mm.Data().Pop()
		if err != nil {
			return err
		}
		return mm.Data().Push(value.New(value.NewBool(v.V.Int() < 3)))
	})
	ops.AddNative("inc", func(mm code.Machine) error {
		v, err := mm.Data().Pop()
		if err != nil {
			return err
		}
		return mm.Data().Push(value.New(value.NewInt(v.V.Int() + 1)))
	})

	condAddr, _ := emitLambdaBody(stream, constants, func() {
		emitCall(stream, ops, "dup")
		emitCall(stream, ops, "testlt3")
	})
	bodyAddr, _ := emitLambdaBody(stream, constants, func() {
		emitCall(stream, ops, "inc")
	})
	condLam := constants.Intern(value.New(value.NewLambda(&value.Lambda{CodeAddr: condAddr})))
	bodyLam := constants.Intern(value.New(value.NewLambda(&value.Lambda{CodeAddr: bodyAddr})))
	zeroK := constants.Intern(value.New(value.NewInt(0)))

	entry := stream.Len()
	stream.Emit(int(code.LitConst))
	stream.Emit(zeroK)
	stream.Emit(int(code.LitConst))
	stream.Emit(condLam)
	stream.Emit(int(code.LitConst))
	stream.Emit(bodyLam)
	emitCall(stream, ops, "while")
	stream.Emit(int(code.Halt))

	require.NoError(t, m.Run(context.Background(), value.Addr(entry)))
	top, err := m.Data().Pop()
	require.NoError(t, err)
	assert.Equal(t, int64(3), top.V.Int())
}

func TestStashedValueSurvivesANestedLambdaCall(t *testing.T) {
	// Regression test: `>r` a value, then invoke a lambda (via the `if`
	// native, which runs its branch through runLambda) before `r>`-ing it
	// back. The lambda's own call frame must not be visible to, or
	// disturbed by, the stashed value.
	m, stream, constants, ops := newVM()

	stashK := constants.Intern(value.New(value.NewInt(99)))
	branchAddr, _ := emitLambdaBody(stream, constants, func() {
		k := constants.Intern(value.New(value.NewInt(1)))
		stream.Emit(int(code.LitConst))
		stream.Emit(k)
	})
	branchLam := constants.Intern(value.New(value.NewLambda(&value.Lambda{CodeAddr: branchAddr})))
	condK := constants.Intern(value.New(value.NewBool(true)))

	entry := stream.Len()
	stream.Emit(int(code.LitConst))
	stream.Emit(stashK)
	emitCall(stream, ops, ">r")
	stream.Emit(int(code.LitConst))
	stream.Emit(condK)
	stream.Emit(int(code.LitConst))
	stream.Emit(branchLam)
	stream.Emit(int(code.LitConst))
	stream.Emit(branchLam)
	emitCall(stream, ops, "if")
	emitCall(stream, ops, "r>")
	stream.Emit(int(code.Halt))

	require.NoError(t, m.Run(context.Background(), value.Addr(entry)))
	restored, err := m.Data().Pop()
	require.NoError(t, err)
	assert.Equal(t, int64(99), restored.V.Int(), "r> must recover the >r-stashed value, not the lambda's own call-frame address")
	branchResult, err := m.Data().Pop()
	require.NoError(t, err)
	assert.Equal(t, int64(1), branchResult.V.Int())
}

// emitLambdaBody writes the jump-around + body + Return recipe directly
// (bypassing the compiler, since this is a VM-layer test), returning the
// body's entry address and the address of the jump's operand cell.
func emitLambdaBody(stream *code.Stream, constants *code.Constants, body func()) (value.Addr, value.Addr) {
	stream.Emit(int(code.Jump))
	operand := stream.Reserve()
	entry := stream.Len()
	body()
	stream.Emit(int(code.Return))
	stream.Patch(operand, int(stream.Len()))
	return entry, operand
}

func emitCall(stream *code.Stream, ops *code.OpTable, name string) {
	for i := 0; i < ops.Len(); i++ {
		slot, _ := ops.Get(i)
		if slot.Name == name {
			stream.Emit(int(code.Call))
			stream.Emit(i)
			return
		}
	}
	panic("unknown test word: " + name)
}
