package value_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tardi-lang/tardi/internal/value"
)

func TestRenderInvariant(t *testing.T) {
	// Universal invariant 2: for every value v that is not a Writer or
	// Reader, v >string is non-empty.
	vs := []value.Value{
		value.NewInt(5),
		value.NewInt(-5),
		value.NewFloat(5),
		value.NewBool(true),
		value.NewBool(false),
		value.NewChar('x'),
		value.NewString(""),
		value.EmptyVector(),
		value.NewHashmap(),
		value.NewLambda(&value.Lambda{}),
	}
	for _, v := range vs {
		assert.NotEmpty(t, v.Render(value.Debug), "kind %v", v.Kind())
	}
}

func TestFloatAlwaysShowsDecimalPoint(t *testing.T) {
	assert.Equal(t, "5.0", value.NewFloat(5).Render(value.Print))
	assert.Equal(t, "5", value.NewInt(5).Render(value.Print))
}

func TestBoolInversion(t *testing.T) {
	// Universal invariant 4: x ! inverts; x ! ! equals x.
	for _, b := range []bool{true, false} {
		v := value.NewBool(b)
		once := value.NewBool(!v.Bool())
		twice := value.NewBool(!once.Bool())
		assert.True(t, value.Equal(v, twice))
	}
}

func TestSharedAliasing(t *testing.T) {
	v := value.EmptyVector()
	s := value.New(v)
	dup := s.Dup()
	require.Same(t, s, dup)

	s.V.VecPushBack(value.New(value.NewInt(1)))
	assert.Equal(t, 1, dup.V.VecLen(), "mutation through one alias must be visible through the other")
}

func TestVectorPushPopRestoresLength(t *testing.T) {
	// Universal invariant 6.
	v := value.NewVector([]*value.Shared{value.New(value.NewInt(1)), value.New(value.NewInt(2))})
	before := v.VecLen()
	v.VecPushBack(value.New(value.NewInt(3)))
	assert.Equal(t, before+1, v.VecLen())
	popped, err := v.VecPopBack()
	require.NoError(t, err)
	assert.Equal(t, int64(3), popped.V.Int())
	assert.Equal(t, before, v.VecLen())
}

func TestHashmapSetGet(t *testing.T) {
	// Universal invariant 7: after `k v hm set!`, `k hm get` yields `v #t`.
	hm := value.NewHashmap()
	require.NoError(t, hm.HashmapSet(value.NewString("a"), value.New(value.NewInt(1))))
	got, ok := hm.HashmapGet(value.NewString("a"))
	require.True(t, ok)
	assert.Equal(t, int64(1), got.V.Int())
}

func TestHashmapRejectsNonScalarKeys(t *testing.T) {
	hm := value.NewHashmap()
	err := hm.HashmapSet(value.EmptyVector(), value.New(value.NewInt(1)))
	require.Error(t, err)
}

func TestCloneDeepCopiesVector(t *testing.T) {
	v := value.NewVector([]*value.Shared{value.New(value.NewInt(1))})
	s := value.New(v)
	clone := s.Clone()
	clone.V.VecPushBack(value.New(value.NewInt(2)))
	assert.Equal(t, 1, s.V.VecLen())
	assert.Equal(t, 2, clone.V.VecLen())
}

func TestStringConcatLength(t *testing.T) {
	// Universal invariant 5.
	a, b := "Hello, ", "world!"
	got := a + b
	assert.Equal(t, len(a)+len(b), len(got))
	assert.True(t, len(got) >= len(a) && got[:len(a)] == a)
}
