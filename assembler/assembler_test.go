package assembler

import (
	"testing"

	"nolangvm/nolang"

	"github.com/stretchr/testify/require"
)

func assert(t *testing.T, cond bool, format string, args ...any) {
	if !cond {
		t.Fatalf(format, args...)
	}
}

func TestAssembleSimpleProgram(t *testing.T) {
	src := `
CONST I64 0x0000 0x0002
CONST I64 0x0000 0x0003
ADD
HALT
`
	program, err := Assemble(src)
	require.NoError(t, err)
	require.Len(t, program.Instructions, 4)
	assert(t, program.Instructions[2].Opcode == nolang.Add, "expected ADD, got %s", program.Instructions[2].Opcode.Mnemonic())
	assert(t, program.Instructions[3].Opcode == nolang.Halt, "expected HALT, got %s", program.Instructions[3].Opcode.Mnemonic())
}

func TestAssembleIgnoresCommentsAndBlankLines(t *testing.T) {
	src := `
; this is a full-line comment
CONST I64 0x0000 0x002a ; trailing comment
HALT

`
	program, err := Assemble(src)
	require.NoError(t, err)
	require.Len(t, program.Instructions, 2)
}

func TestAssembleConstExtRoundTrip(t *testing.T) {
	src := "CONST_EXT U64 0x00000001deadbeef\nHALT\n"
	program, err := Assemble(src)
	require.NoError(t, err)
	require.Len(t, program.Instructions, 3) // CONST_EXT + data carrier + HALT
	assert(t, program.Instructions[0].Opcode == nolang.ConstExt, "expected CONST_EXT, got %s", program.Instructions[0].Opcode.Mnemonic())

	text := Disassemble(program)
	require.Equal(t, "CONST_EXT U64 0x00000001deadbeef\nHALT\n", text)
}

func TestAssembleUnknownOpcode(t *testing.T) {
	_, err := Assemble("FROBNICATE\n")
	require.Error(t, err)

	var asmErr *AsmError
	require.ErrorAs(t, err, &asmErr)
	assert(t, asmErr.Kind == UnknownOpcode, "expected UnknownOpcode, got %v", asmErr.Kind)
	assert(t, asmErr.Line == 1, "expected line 1, got %d", asmErr.Line)
}

func TestAssembleMissingArgument(t *testing.T) {
	_, err := Assemble("REF\n")
	require.Error(t, err)

	var asmErr *AsmError
	require.ErrorAs(t, err, &asmErr)
	assert(t, asmErr.Kind == MissingArgument, "expected MissingArgument, got %v", asmErr.Kind)
}

func TestAssembleUnknownTypeTag(t *testing.T) {
	_, err := Assemble("PARAM NOTATYPE\n")
	require.Error(t, err)

	var asmErr *AsmError
	require.ErrorAs(t, err, &asmErr)
	assert(t, asmErr.Kind == UnknownTypeTag, "expected UnknownTypeTag, got %v", asmErr.Kind)
}

func TestAssembleInvalidNumber(t *testing.T) {
	_, err := Assemble("CONST I64 0xzzzz 0x0001\n")
	require.Error(t, err)

	var asmErr *AsmError
	require.ErrorAs(t, err, &asmErr)
	assert(t, asmErr.Kind == InvalidNumber, "expected InvalidNumber, got %v", asmErr.Kind)
}

func TestDisassembleRoundTripFunctionBlock(t *testing.T) {
	src := `FUNC 1 4
PARAM I64
REF 0
RET
HASH 0x0000 0x0000 0x0000
ENDFUNC
CONST I64 0x0000 0x002a
CALL 0
HALT
`
	program, err := Assemble(src)
	require.NoError(t, err)

	text := Disassemble(program)
	require.Equal(t, src, text)

	reassembled, err := Assemble(text)
	require.NoError(t, err)
	require.Equal(t, program.Instructions, reassembled.Instructions)
}

func TestDisassembleVariantNew(t *testing.T) {
	src := "CONST I64 0x0000 0x0007\nVARIANT_NEW I64 2 0\nHALT\n"
	program, err := Assemble(src)
	require.NoError(t, err)

	text := Disassemble(program)
	require.Equal(t, src, text)
}

func TestAssembleEmptyProgram(t *testing.T) {
	program, err := Assemble("")
	require.NoError(t, err)
	require.Empty(t, program.Instructions)
	require.Equal(t, "", Disassemble(program))
}
