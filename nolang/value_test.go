package nolang

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValueTypeTags(t *testing.T) {
	require.Equal(t, I64, NewI64(42).TypeTag())
	require.Equal(t, Tuple, NewTuple(nil).TypeTag())
	require.Equal(t, Array, NewArray(nil).TypeTag())
	require.Equal(t, Unit, NewUnit().TypeTag())
}

func TestValueEqualityF64Bitwise(t *testing.T) {
	nan := math.NaN()
	require.True(t, NewF64(nan).Equal(NewF64(nan)))
	require.False(t, NewF64(0.0).Equal(NewF64(math.Copysign(0, -1))))
}

func TestValueEqualityAcrossTypes(t *testing.T) {
	require.False(t, NewI64(42).Equal(NewU64(42)))
	require.False(t, NewBool(true).Equal(NewI64(1)))
}

func TestValueEqualityVariant(t *testing.T) {
	a := NewVariant(2, 0, NewI64(5))
	b := NewVariant(2, 0, NewI64(5))
	c := NewVariant(2, 1, NewI64(5))
	require.True(t, a.Equal(b))
	require.False(t, a.Equal(c))
}

func TestValueStringFormatting(t *testing.T) {
	require.Equal(t, "I64(42)", NewI64(42).String())
	require.Equal(t, "Unit", NewUnit().String())
	require.Equal(t, "Tuple(1, true)", NewTuple([]Value{NewI64(1), NewBool(true)}).String())
	require.Equal(t, "Array[]", NewArray(nil).String())
	require.Equal(t, "Variant(0/2, I64(5))", NewVariant(2, 0, NewI64(5)).String())
}

func TestValueCloneIsDeep(t *testing.T) {
	orig := NewTuple([]Value{NewI64(1)})
	clone := orig.Clone()
	clone.Tuple[0] = NewI64(99)
	require.Equal(t, int64(1), orig.Tuple[0].I64)
}
