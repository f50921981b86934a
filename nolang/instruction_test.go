package nolang

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInstructionEncodeDecodeRoundtrip(t *testing.T) {
	instr := NewInstruction(Const, I64, 0x0001, 0x002a, 0)
	enc := instr.Encode()
	decoded, err := DecodeInstruction(enc)
	require.NoError(t, err)
	require.Equal(t, instr, decoded)
}

func TestDecodeInstructionIllegalOpcode(t *testing.T) {
	var buf [InstructionSize]byte
	_, err := DecodeInstruction(buf)
	require.Error(t, err)
	var de *DecodeError
	require.ErrorAs(t, err, &de)
	require.Equal(t, IllegalOpcode, de.Kind)
}

func TestDecodeInstructionReservedOpcode(t *testing.T) {
	buf := [InstructionSize]byte{0x06, 0, 0, 0, 0, 0, 0, 0}
	_, err := DecodeInstruction(buf)
	require.Error(t, err)
	var de *DecodeError
	require.ErrorAs(t, err, &de)
	require.Equal(t, ReservedOpcode, de.Kind)
	require.Equal(t, byte(0x06), de.Byte)
}

func TestDecodeInstructionReservedTypeTag(t *testing.T) {
	buf := [InstructionSize]byte{byte(Halt), 0x0D, 0, 0, 0, 0, 0, 0}
	_, err := DecodeInstruction(buf)
	require.Error(t, err)
	var de *DecodeError
	require.ErrorAs(t, err, &de)
	require.Equal(t, ReservedTypeTag, de.Kind)
}

func TestConstValueSignExtendsI64(t *testing.T) {
	instr := NewInstruction(Const, I64, 0xFFFF, 0xFFFF, 0)
	v, ok := instr.ConstValue()
	require.True(t, ok)
	require.Equal(t, NewI64(-1), v)
}

func TestConstValueZeroExtendsU64(t *testing.T) {
	instr := NewInstruction(Const, U64, 0xFFFF, 0xFFFF, 0)
	v, ok := instr.ConstValue()
	require.True(t, ok)
	require.Equal(t, NewU64(0xFFFFFFFF), v)
}

func TestConstValueBool(t *testing.T) {
	instr := NewInstruction(Const, Bool, 1, 0, 0)
	v, ok := instr.ConstValue()
	require.True(t, ok)
	require.Equal(t, NewBool(true), v)
}

func TestConstValueRejectsNonConstOpcode(t *testing.T) {
	instr := NewInstruction(Add, None, 0, 0, 0)
	_, ok := instr.ConstValue()
	require.False(t, ok)
}

func TestConstValueRejectsSurrogateCodepoint(t *testing.T) {
	instr := NewInstruction(Const, Char, 0xD800, 0, 0)
	_, ok := instr.ConstValue()
	require.False(t, ok)
}
