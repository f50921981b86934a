package witness

import (
	"testing"

	"nolangvm/nolang"

	"github.com/stretchr/testify/require"
)

func instr(op nolang.Opcode, tag nolang.TypeTag, a1, a2, a3 uint16) nolang.Instruction {
	return nolang.NewInstruction(op, tag, a1, a2, a3)
}

// identityFunc declares function 0: fn(n: I64) = n.
func identityFunc() []nolang.Instruction {
	return []nolang.Instruction{
		instr(nolang.Func, nolang.None, 1, 4, 0),
		instr(nolang.Param, nolang.I64, 0, 0, 0),
		instr(nolang.Ref, nolang.None, 0, 0, 0),
		instr(nolang.Ret, nolang.None, 0, 0, 0),
		instr(nolang.Hash, nolang.None, 0, 0, 0),
		instr(nolang.EndFunc, nolang.None, 0, 0, 0),
	}
}

func TestParseFileSimple(t *testing.T) {
	data := []byte(`[{"input": [5], "expected": 5}]`)
	cases, err := ParseFile(data, []nolang.TypeTag{nolang.I64})
	require.NoError(t, err)
	require.Len(t, cases, 1)
	require.Equal(t, nolang.NewI64(5), cases[0].Inputs[0])
	require.Equal(t, nolang.NewI64(5), cases[0].Expected)
}

func TestParseFileMultiple(t *testing.T) {
	data := []byte(`[
		{"input": [5], "expected": 5},
		{"input": [-13], "expected": 13},
		{"input": [0], "expected": 0}
	]`)
	cases, err := ParseFile(data, []nolang.TypeTag{nolang.I64})
	require.NoError(t, err)
	require.Len(t, cases, 3)
	require.Equal(t, nolang.NewI64(-13), cases[1].Inputs[0])
	require.Equal(t, nolang.NewI64(13), cases[1].Expected)
}

func TestParseFileBoolInput(t *testing.T) {
	data := []byte(`[{"input": [true], "expected": false}]`)
	cases, err := ParseFile(data, []nolang.TypeTag{nolang.Bool})
	require.NoError(t, err)
	require.Equal(t, nolang.NewBool(true), cases[0].Inputs[0])
	require.Equal(t, nolang.NewBool(false), cases[0].Expected)
}

func TestParseFileInputTypeMismatch(t *testing.T) {
	data := []byte(`[{"input": ["hello"], "expected": 5}]`)
	_, err := ParseFile(data, []nolang.TypeTag{nolang.I64})
	require.Error(t, err)
	wErr, ok := err.(*Error)
	require.True(t, ok)
	require.Equal(t, InputTypeMismatch, wErr.Kind)
	require.Equal(t, 0, wErr.Index)
	require.Equal(t, nolang.I64, wErr.ExpectedType)
}

func TestParseFileWrongInputCount(t *testing.T) {
	data := []byte(`[{"input": [5, 10], "expected": 15}]`)
	_, err := ParseFile(data, []nolang.TypeTag{nolang.I64})
	require.Error(t, err)
	wErr, ok := err.(*Error)
	require.True(t, ok)
	require.Equal(t, InputCountMismatch, wErr.Kind)
	require.Equal(t, 1, wErr.ExpectedCount)
	require.Equal(t, 2, wErr.GotCount)
}

func TestInferExpectedInteger(t *testing.T) {
	v, err := convertInferred([]byte("42"))
	require.NoError(t, err)
	require.Equal(t, nolang.NewI64(42), v)
}

func TestInferExpectedFloat(t *testing.T) {
	v, err := convertInferred([]byte("3.125"))
	require.NoError(t, err)
	require.Equal(t, nolang.NewF64(3.125), v)
}

func TestInferExpectedBool(t *testing.T) {
	v, err := convertInferred([]byte("true"))
	require.NoError(t, err)
	require.Equal(t, nolang.NewBool(true), v)
}

func TestInferExpectedNull(t *testing.T) {
	v, err := convertInferred([]byte("null"))
	require.NoError(t, err)
	require.Equal(t, nolang.NewUnit(), v)
}

func TestInferExpectedU64Escape(t *testing.T) {
	v, err := convertInferred([]byte(`{"U64": 42}`))
	require.NoError(t, err)
	require.Equal(t, nolang.NewU64(42), v)
}

func TestBuildCallProgramSimple(t *testing.T) {
	instrs := identityFunc()
	instrs = append(instrs, instr(nolang.Halt, nolang.None, 0, 0, 0))
	program := nolang.NewProgram(instrs)

	wrapper, err := BuildCallProgram(program, 0, []nolang.Value{nolang.NewI64(42)})
	require.NoError(t, err)

	ws := wrapper.Instructions
	require.Equal(t, nolang.EndFunc, ws[5].Opcode)
	require.Equal(t, nolang.Const, ws[6].Opcode)
	require.Equal(t, nolang.I64, ws[6].TypeTag)
	require.Equal(t, nolang.Call, ws[7].Opcode)
	require.EqualValues(t, 0, ws[7].Arg1)
	require.Equal(t, nolang.Halt, ws[8].Opcode)
}

func TestBuildCallProgramNoFunctions(t *testing.T) {
	program := nolang.NewProgram([]nolang.Instruction{instr(nolang.Halt, nolang.None, 0, 0, 0)})
	_, err := BuildCallProgram(program, 0, []nolang.Value{nolang.NewI64(42)})
	require.Error(t, err)
	wErr, ok := err.(*Error)
	require.True(t, ok)
	require.Equal(t, NoFunctions, wErr.Kind)
}

func TestRunIdentity(t *testing.T) {
	instrs := identityFunc()
	instrs = append(instrs, instr(nolang.Halt, nolang.None, 0, 0, 0))
	program := nolang.NewProgram(instrs)

	results := Run(program, 0, []Case{{Inputs: []nolang.Value{nolang.NewI64(42)}, Expected: nolang.NewI64(42)}})
	require.Len(t, results, 1)
	require.True(t, results[0].Passed)
	require.NoError(t, results[0].Err)
	require.Equal(t, nolang.NewI64(42), *results[0].Actual)
}

func TestRunLargeI64UsesConstExt(t *testing.T) {
	instrs := identityFunc()
	instrs = append(instrs, instr(nolang.Halt, nolang.None, 0, 0, 0))
	program := nolang.NewProgram(instrs)

	big := int64(1) << 40
	results := Run(program, 0, []Case{{Inputs: []nolang.Value{nolang.NewI64(big)}, Expected: nolang.NewI64(big)}})
	require.Len(t, results, 1)
	require.True(t, results[0].Passed)
}

func TestFunctionParamTypes(t *testing.T) {
	instrs := identityFunc()
	instrs = append(instrs, instr(nolang.Halt, nolang.None, 0, 0, 0))
	program := nolang.NewProgram(instrs)

	types, err := FunctionParamTypes(program, 0)
	require.NoError(t, err)
	require.Equal(t, []nolang.TypeTag{nolang.I64}, types)
}

func TestFunctionParamTypesNotFound(t *testing.T) {
	instrs := identityFunc()
	instrs = append(instrs, instr(nolang.Halt, nolang.None, 0, 0, 0))
	program := nolang.NewProgram(instrs)

	_, err := FunctionParamTypes(program, 3)
	require.Error(t, err)
	wErr, ok := err.(*Error)
	require.True(t, ok)
	require.Equal(t, FunctionNotFound, wErr.Kind)
}
