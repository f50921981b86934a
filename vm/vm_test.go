package vm

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

func instr(op nolang.Opcode, tag nolang.TypeTag, a1, a2, a3 uint16) nolang.Instruction {
	return nolang.NewInstruction(op, tag, a1, a2, a3)
}

func runProgram(t *testing.T, instrs []nolang.Instruction) (nolang.Value, error) {
	m, err := NewVM(nolang.NewProgram(instrs))
	require.NoError(t, err)
	return m.Run()
}

func TestLiteralReturn(t *testing.T) {
	v, err := runProgram(t, []nolang.Instruction{
		instr(nolang.Const, nolang.I64, 0, 42, 0),
		instr(nolang.Halt, nolang.None, 0, 0, 0),
	})
	require.NoError(t, err)
	assert(t, v.Kind == nolang.I64 && v.I64 == 42, "expected I64(42), got %s", v)
}

func TestAddition(t *testing.T) {
	v, err := runProgram(t, []nolang.Instruction{
		instr(nolang.Const, nolang.I64, 0, 2, 0),
		instr(nolang.Const, nolang.I64, 0, 3, 0),
		instr(nolang.Add, nolang.None, 0, 0, 0),
		instr(nolang.Halt, nolang.None, 0, 0, 0),
	})
	require.NoError(t, err)
	assert(t, v.Kind == nolang.I64 && v.I64 == 5, "expected I64(5), got %s", v)
}

func TestBooleanMatch(t *testing.T) {
	instrs := []nolang.Instruction{
		instr(nolang.Const, nolang.Bool, 1, 0, 0),
		instr(nolang.Match, nolang.None, 2, 0, 0),
		instr(nolang.Case, nolang.None, 0, 1, 0),
		instr(nolang.Const, nolang.I64, 0, 0, 0),
		instr(nolang.Case, nolang.None, 1, 1, 0),
		instr(nolang.Const, nolang.I64, 0, 1, 0),
		instr(nolang.Exhaust, nolang.None, 0, 0, 0),
		instr(nolang.Halt, nolang.None, 0, 0, 0),
	}
	v, err := runProgram(t, instrs)
	require.NoError(t, err)
	assert(t, v.Kind == nolang.I64 && v.I64 == 1, "expected I64(1), got %s", v)
}

func TestVariantMatchBindsPayload(t *testing.T) {
	// VARIANT_NEW(2, 1) wraps I64(9) as tag 1 of 2; MATCH binds the
	// payload and the case body hands it straight back.
	instrs := []nolang.Instruction{
		instr(nolang.Const, nolang.I64, 0, 9, 0),
		instr(nolang.VariantNew, nolang.None, 2, 1, 0),
		instr(nolang.Match, nolang.None, 2, 0, 0),
		instr(nolang.Case, nolang.None, 0, 1, 0),
		instr(nolang.Const, nolang.I64, 0, 0, 0),
		instr(nolang.Case, nolang.None, 1, 2, 0),
		instr(nolang.Bind, nolang.None, 0, 0, 0),
		instr(nolang.Ref, nolang.None, 0, 0, 0),
		instr(nolang.Exhaust, nolang.None, 0, 0, 0),
		instr(nolang.Halt, nolang.None, 0, 0, 0),
	}
	v, err := runProgram(t, instrs)
	require.NoError(t, err)
	assert(t, v.Kind == nolang.I64 && v.I64 == 9, "expected I64(9), got %s", v)
}

// identityFunc builds a single FUNC block computing the identity of its one
// I64 parameter. HASH's args are left at zero: NewVM only runs the
// structural pass, which locates HASH but never recomputes or checks it.
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

func TestIdentityCall(t *testing.T) {
	instrs := identityFunc()
	instrs = append(instrs,
		instr(nolang.Const, nolang.I64, 0, 7, 0),
		instr(nolang.Call, nolang.None, 0, 0, 0),
		instr(nolang.Halt, nolang.None, 0, 0, 0),
	)
	v, err := runProgram(t, instrs)
	require.NoError(t, err)
	assert(t, v.Kind == nolang.I64 && v.I64 == 7, "expected I64(7), got %s", v)
}

// factorialFunc builds function 0: fn(n) = n <= 1 ? 1 : n * fn(n - 1),
// using RECURSE against the given depth limit.
func factorialFunc(limit uint16) []nolang.Instruction {
	return []nolang.Instruction{
		instr(nolang.Func, nolang.None, 1, 17, 0),        // 0
		instr(nolang.Param, nolang.I64, 0, 0, 0),         // 1
		instr(nolang.Ref, nolang.None, 0, 0, 0),          // 2: n
		instr(nolang.Const, nolang.I64, 0, 1, 0),         // 3: 1
		instr(nolang.Lte, nolang.None, 0, 0, 0),          // 4: n <= 1
		instr(nolang.Match, nolang.None, 2, 0, 0),        // 5
		instr(nolang.Case, nolang.None, 0, 6, 0),         // 6: false (n > 1)
		instr(nolang.Ref, nolang.None, 0, 0, 0),          // 7: n
		instr(nolang.Ref, nolang.None, 0, 0, 0),          // 8: n
		instr(nolang.Const, nolang.I64, 0, 1, 0),         // 9: 1
		instr(nolang.Sub, nolang.None, 0, 0, 0),          // 10: n - 1
		instr(nolang.Recurse, nolang.None, limit, 0, 0),  // 11: fn(n-1)
		instr(nolang.Mul, nolang.None, 0, 0, 0),          // 12: n * fn(n-1)
		instr(nolang.Case, nolang.None, 1, 1, 0),         // 13: true (n <= 1)
		instr(nolang.Const, nolang.I64, 0, 1, 0),         // 14: 1
		instr(nolang.Exhaust, nolang.None, 0, 0, 0),      // 15
		instr(nolang.Ret, nolang.None, 0, 0, 0),          // 16
		instr(nolang.Hash, nolang.None, 0, 0, 0),         // 17
		instr(nolang.EndFunc, nolang.None, 0, 0, 0),      // 18
	}
}

func TestRecursiveFactorial(t *testing.T) {
	instrs := factorialFunc(10)
	instrs = append(instrs,
		instr(nolang.Const, nolang.I64, 0, 5, 0),
		instr(nolang.Call, nolang.None, 0, 0, 0),
		instr(nolang.Halt, nolang.None, 0, 0, 0),
	)
	v, err := runProgram(t, instrs)
	require.NoError(t, err)
	assert(t, v.Kind == nolang.I64 && v.I64 == 120, "expected I64(120), got %s", v)
}

func TestRecursionDepthExceeded(t *testing.T) {
	instrs := factorialFunc(2)
	instrs = append(instrs,
		instr(nolang.Const, nolang.I64, 0, 5, 0),
		instr(nolang.Call, nolang.None, 0, 0, 0),
		instr(nolang.Halt, nolang.None, 0, 0, 0),
	)
	_, err := runProgram(t, instrs)
	require.Error(t, err)
	rerr, ok := err.(*RuntimeError)
	assert(t, ok, "expected *RuntimeError, got %T", err)
	assert(t, rerr.Kind == RecursionDepthExceeded, "expected RecursionDepthExceeded, got %v", rerr.Kind)
}

func TestDivisionByZero(t *testing.T) {
	instrs := []nolang.Instruction{
		instr(nolang.Const, nolang.I64, 0, 5, 0),
		instr(nolang.Const, nolang.I64, 0, 0, 0),
		instr(nolang.Div, nolang.None, 0, 0, 0),
		instr(nolang.Halt, nolang.None, 0, 0, 0),
	}
	_, err := runProgram(t, instrs)
	require.Error(t, err)
	rerr, ok := err.(*RuntimeError)
	assert(t, ok, "expected *RuntimeError, got %T", err)
	assert(t, rerr.Kind == DivisionByZero, "expected DivisionByZero, got %v", rerr.Kind)
}

func TestHaltWithEmptyStack(t *testing.T) {
	_, err := runProgram(t, []nolang.Instruction{
		instr(nolang.Halt, nolang.None, 0, 0, 0),
	})
	require.Error(t, err)
	rerr, ok := err.(*RuntimeError)
	assert(t, ok, "expected *RuntimeError, got %T", err)
	assert(t, rerr.Kind == HaltWithEmptyStack, "expected HaltWithEmptyStack, got %v", rerr.Kind)
}

func TestHaltWithMultipleValues(t *testing.T) {
	instrs := []nolang.Instruction{
		instr(nolang.Const, nolang.I64, 0, 1, 0),
		instr(nolang.Const, nolang.I64, 0, 2, 0),
		instr(nolang.Halt, nolang.None, 0, 0, 0),
	}
	_, err := runProgram(t, instrs)
	require.Error(t, err)
	rerr, ok := err.(*RuntimeError)
	assert(t, ok, "expected *RuntimeError, got %T", err)
	assert(t, rerr.Kind == HaltWithMultipleValues, "expected HaltWithMultipleValues, got %v", rerr.Kind)
	assert(t, rerr.Count == 2, "expected count 2, got %d", rerr.Count)
}

func TestConstExtAssemblesI64(t *testing.T) {
	// 0x0001_0002_0003_0004 split as CONST_EXT.arg1 = high 16 bits, and
	// the carrier's (arg1, arg2, arg3) = low 48 bits.
	instrs := []nolang.Instruction{
		instr(nolang.ConstExt, nolang.I64, 0x0001, 0, 0),
		instr(nolang.Nop, nolang.None, 0x0002, 0x0003, 0x0004),
		instr(nolang.Halt, nolang.None, 0, 0, 0),
	}
	v, err := runProgram(t, instrs)
	require.NoError(t, err)
	want := int64(0x0001000200030004)
	assert(t, v.Kind == nolang.I64 && v.I64 == want, "expected I64(%d), got %s", want, v)
}

func TestTupleProjectRoundTrip(t *testing.T) {
	instrs := []nolang.Instruction{
		instr(nolang.Const, nolang.I64, 0, 10, 0),
		instr(nolang.Const, nolang.Bool, 1, 0, 0),
		instr(nolang.TupleNew, nolang.None, 2, 0, 0),
		instr(nolang.Project, nolang.None, 1, 0, 0),
		instr(nolang.Halt, nolang.None, 0, 0, 0),
	}
	v, err := runProgram(t, instrs)
	require.NoError(t, err)
	assert(t, v.Kind == nolang.Bool && v.Bool, "expected Bool(true), got %s", v)
}

func TestArrayNewAndLen(t *testing.T) {
	instrs := []nolang.Instruction{
		instr(nolang.Const, nolang.I64, 0, 10, 0),
		instr(nolang.Const, nolang.I64, 0, 20, 0),
		instr(nolang.Const, nolang.I64, 0, 30, 0),
		instr(nolang.ArrayNew, nolang.None, 3, 0, 0),
		instr(nolang.ArrayLen, nolang.None, 0, 0, 0),
		instr(nolang.Halt, nolang.None, 0, 0, 0),
	}
	v, err := runProgram(t, instrs)
	require.NoError(t, err)
	assert(t, v.Kind == nolang.U64 && v.U64 == 3, "expected U64(3), got %s", v)
}

func TestArrayGetOutOfBounds(t *testing.T) {
	instrs := []nolang.Instruction{
		instr(nolang.Const, nolang.I64, 0, 10, 0),
		instr(nolang.ArrayNew, nolang.None, 1, 0, 0),
		instr(nolang.Const, nolang.U64, 0, 5, 0),
		instr(nolang.ArrayGet, nolang.None, 0, 0, 0),
		instr(nolang.Halt, nolang.None, 0, 0, 0),
	}
	_, err := runProgram(t, instrs)
	require.Error(t, err)
	rerr, ok := err.(*RuntimeError)
	assert(t, ok, "expected *RuntimeError, got %T", err)
	assert(t, rerr.Kind == ArrayIndexOutOfBounds, "expected ArrayIndexOutOfBounds, got %v", rerr.Kind)
}

func TestAssertFailed(t *testing.T) {
	instrs := []nolang.Instruction{
		instr(nolang.Const, nolang.Bool, 0, 0, 0),
		instr(nolang.Assert, nolang.None, 0, 0, 0),
		instr(nolang.Const, nolang.I64, 0, 1, 0),
		instr(nolang.Halt, nolang.None, 0, 0, 0),
	}
	_, err := runProgram(t, instrs)
	require.Error(t, err)
	rerr, ok := err.(*RuntimeError)
	assert(t, ok, "expected *RuntimeError, got %T", err)
	assert(t, rerr.Kind == AssertFailed, "expected AssertFailed, got %v", rerr.Kind)
}

func TestTypeofNonDestructive(t *testing.T) {
	instrs := []nolang.Instruction{
		instr(nolang.Const, nolang.I64, 0, 4, 0),
		instr(nolang.Typeof, nolang.None, uint16(nolang.I64), 0, 0),
		instr(nolang.Assert, nolang.None, 0, 0, 0),
		instr(nolang.Halt, nolang.None, 0, 0, 0),
	}
	v, err := runProgram(t, instrs)
	require.NoError(t, err)
	assert(t, v.Kind == nolang.I64 && v.I64 == 4, "expected I64(4) left under the Bool, got %s", v)
}

// preconditionFunc builds function 0 with a PRE requiring its one I64
// parameter to be positive, and a body that returns it unchanged.
func preconditionFunc() []nolang.Instruction {
	return []nolang.Instruction{
		instr(nolang.Func, nolang.None, 1, 8, 0),
		instr(nolang.Param, nolang.I64, 0, 0, 0),
		instr(nolang.Pre, nolang.None, 3, 0, 0),
		instr(nolang.Ref, nolang.None, 0, 0, 0),
		instr(nolang.Const, nolang.I64, 0, 0, 0),
		instr(nolang.Gt, nolang.None, 0, 0, 0),
		instr(nolang.Ref, nolang.None, 0, 0, 0),
		instr(nolang.Ret, nolang.None, 0, 0, 0),
		instr(nolang.Hash, nolang.None, 0, 0, 0),
		instr(nolang.EndFunc, nolang.None, 0, 0, 0),
	}
}

func TestPreconditionPasses(t *testing.T) {
	instrs := preconditionFunc()
	instrs = append(instrs,
		instr(nolang.Const, nolang.I64, 0, 3, 0),
		instr(nolang.Call, nolang.None, 0, 0, 0),
		instr(nolang.Halt, nolang.None, 0, 0, 0),
	)
	v, err := runProgram(t, instrs)
	require.NoError(t, err)
	assert(t, v.Kind == nolang.I64 && v.I64 == 3, "expected I64(3), got %s", v)
}

func TestPreconditionFails(t *testing.T) {
	instrs := preconditionFunc()
	instrs = append(instrs,
		instr(nolang.Const, nolang.I64, 0, 0, 0),
		instr(nolang.Call, nolang.None, 0, 0, 0),
		instr(nolang.Halt, nolang.None, 0, 0, 0),
	)
	_, err := runProgram(t, instrs)
	require.Error(t, err)
	rerr, ok := err.(*RuntimeError)
	assert(t, ok, "expected *RuntimeError, got %T", err)
	assert(t, rerr.Kind == PreconditionFailed, "expected PreconditionFailed, got %v", rerr.Kind)
}

// postconditionFunc builds function 0 whose POST asserts the return value
// is never zero, with a body that always returns its I64 parameter minus
// itself (always 0), guaranteeing the postcondition fails.
func postconditionFunc() []nolang.Instruction {
	return []nolang.Instruction{
		instr(nolang.Func, nolang.None, 1, 10, 0),
		instr(nolang.Param, nolang.I64, 0, 0, 0),
		instr(nolang.Post, nolang.None, 3, 0, 0),
		instr(nolang.Ref, nolang.None, 0, 0, 0), // the bound return value
		instr(nolang.Const, nolang.I64, 0, 0, 0),
		instr(nolang.Neq, nolang.None, 0, 0, 0),
		instr(nolang.Ref, nolang.None, 0, 0, 0),
		instr(nolang.Ref, nolang.None, 0, 0, 0),
		instr(nolang.Sub, nolang.None, 0, 0, 0),
		instr(nolang.Ret, nolang.None, 0, 0, 0),
		instr(nolang.Hash, nolang.None, 0, 0, 0),
		instr(nolang.EndFunc, nolang.None, 0, 0, 0),
	}
}

func TestPostconditionFails(t *testing.T) {
	instrs := postconditionFunc()
	instrs = append(instrs,
		instr(nolang.Const, nolang.I64, 0, 9, 0),
		instr(nolang.Call, nolang.None, 0, 0, 0),
		instr(nolang.Halt, nolang.None, 0, 0, 0),
	)
	_, err := runProgram(t, instrs)
	require.Error(t, err)
	rerr, ok := err.(*RuntimeError)
	assert(t, ok, "expected *RuntimeError, got %T", err)
	assert(t, rerr.Kind == PostconditionFailed, "expected PostconditionFailed, got %v", rerr.Kind)
}
