package stack_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tardi-lang/tardi/internal/stack"
	"github.com/tardi-lang/tardi/internal/terr"
	"github.com/tardi-lang/tardi/internal/value"
)

func TestDataPushPop(t *testing.T) {
	s := stack.NewData()
	require.NoError(t, s.Push(value.New(value.NewInt(1))))
	require.NoError(t, s.Push(value.New(value.NewInt(2))))
	assert.Equal(t, 2, s.Len())

	top, err := s.Pop()
	require.NoError(t, err)
	assert.Equal(t, int64(2), top.V.Int())
	assert.Equal(t, 1, s.Len())
}

func TestDataUnderflow(t *testing.T) {
	s := stack.NewData()
	_, err := s.Pop()
	require.Error(t, err)
	vmErr, ok := err.(terr.VMError)
	require.True(t, ok)
	assert.Equal(t, terr.StackUnderflow, vmErr.Kind)
}

func TestDataOverflow(t *testing.T) {
	s := stack.NewData()
	for i := 0; i < stack.Capacity; i++ {
		require.NoError(t, s.Push(value.New(value.NewInt(int64(i)))))
	}
	err := s.Push(value.New(value.NewInt(0)))
	require.Error(t, err)
	vmErr, ok := err.(terr.VMError)
	require.True(t, ok)
	assert.Equal(t, terr.StackOverflow, vmErr.Kind)
}

func TestDataEachIsBottomToTopAndNondestructive(t *testing.T) {
	s := stack.NewData()
	for i := 1; i <= 3; i++ {
		require.NoError(t, s.Push(value.New(value.NewInt(int64(i)))))
	}
	var seen []int64
	s.Each(func(v *value.Shared) { seen = append(seen, v.V.Int()) })
	assert.Equal(t, []int64{1, 2, 3}, seen)
	assert.Equal(t, 3, s.Len())
}

func TestReturnStackDepthInvariant(t *testing.T) {
	// The stack-level half of universal invariant 1: a matched Push/Pop
	// pair leaves the return stack at the depth it started from.
	r := stack.NewReturn()
	before := r.Len()
	require.NoError(t, r.Push(value.New(value.NewInt(42))))
	_, err := r.Pop()
	require.NoError(t, err)
	assert.Equal(t, before, r.Len())
}

func TestCallsPushPopRoundTrip(t *testing.T) {
	c := stack.NewCalls()
	require.NoError(t, c.Push(17))
	a, err := c.Pop()
	require.NoError(t, err)
	assert.Equal(t, value.Addr(17), a)
}

func TestCallsUnderflowOverflow(t *testing.T) {
	c := stack.NewCalls()
	_, err := c.Pop()
	require.Error(t, err)
	assert.Equal(t, terr.CallStackUnderflow, err.(terr.VMError).Kind)

	for i := 0; i < stack.Capacity; i++ {
		require.NoError(t, c.Push(value.Addr(i)))
	}
	err = c.Push(0)
	require.Error(t, err)
	assert.Equal(t, terr.CallStackOverflow, err.(terr.VMError).Kind)
}

func TestCallsTruncateDiscardsFramesAboveDepth(t *testing.T) {
	c := stack.NewCalls()
	require.NoError(t, c.Push(1))
	depth := c.Len()
	require.NoError(t, c.Push(2))
	require.NoError(t, c.Push(3))
	c.Truncate(depth)
	assert.Equal(t, depth, c.Len())
}

func TestReturnHoldsArbitraryValues(t *testing.T) {
	// >r/r>/r@ must move any value type, not just addresses, per
	// std/bootstrap's dip/keep which stash a lambda.
	r := stack.NewReturn()
	lam := value.New(value.NewString("not an address"))
	require.NoError(t, r.Push(lam))
	top, err := r.Peek()
	require.NoError(t, err)
	assert.Equal(t, "not an address", top.V.Str())
	popped, err := r.Pop()
	require.NoError(t, err)
	assert.Equal(t, "not an address", popped.V.Str())
}

func TestReturnUnderflowOverflow(t *testing.T) {
	r := stack.NewReturn()
	_, err := r.Pop()
	require.Error(t, err)
	assert.Equal(t, terr.ReturnStackUnderflow, err.(terr.VMError).Kind)

	for i := 0; i < stack.Capacity; i++ {
		require.NoError(t, r.Push(value.New(value.NewInt(int64(i)))))
	}
	err = r.Push(value.New(value.NewInt(0)))
	require.Error(t, err)
	assert.Equal(t, terr.ReturnStackOverflow, err.(terr.VMError).Kind)
}
