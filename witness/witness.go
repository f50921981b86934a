// Package witness runs a compiled function against concrete input/output
// pairs loaded from a JSON file, the way a golden-test harness checks a
// compiler's output against known-good examples.
package witness

import (
	"fmt"
	"math"

	"nolangvm/nolang"
	"nolangvm/verifier"
	"nolangvm/vm"
)

// Result is the outcome of running one Case.
type Result struct {
	Index    int
	Passed   bool
	Actual   *nolang.Value
	Expected nolang.Value
	Err      error
}

// FunctionParamTypes extracts the parameter types of the funcIndex'th
// function declared in program, for typing witness inputs against.
func FunctionParamTypes(program *nolang.Program, funcIndex int) ([]nolang.TypeTag, error) {
	ctx, _ := verifier.CheckStructural(program.Instructions)
	if funcIndex >= len(ctx.Functions) {
		return nil, &Error{Kind: FunctionNotFound, Index: funcIndex, FunctionCount: len(ctx.Functions)}
	}
	return ctx.Functions[funcIndex].ParamTypes, nil
}

// BuildCallProgram returns a new program that keeps every FUNC/ENDFUNC
// block from original, then appends instructions that push inputs onto
// the stack in order, CALLs funcIndex, and HALTs — a wrapper that invokes
// one function from a fresh top level with fixed arguments.
func BuildCallProgram(original *nolang.Program, funcIndex int, inputs []nolang.Value) (*nolang.Program, error) {
	lastEndFunc := -1
	for i, instr := range original.Instructions {
		if instr.Opcode == nolang.EndFunc {
			lastEndFunc = i
		}
	}
	if lastEndFunc < 0 {
		return nil, &Error{Kind: NoFunctions}
	}

	instrs := append([]nolang.Instruction{}, original.Instructions[:lastEndFunc+1]...)

	for _, v := range inputs {
		encoded, err := encodeConst(v)
		if err != nil {
			return nil, err
		}
		instrs = append(instrs, encoded...)
	}

	instrs = append(instrs, nolang.NewInstruction(nolang.Call, nolang.None, uint16(funcIndex), 0, 0))
	instrs = append(instrs, nolang.NewInstruction(nolang.Halt, nolang.None, 0, 0, 0))

	return nolang.NewProgram(instrs), nil
}

// Run builds and executes a call-program for each case and compares its
// result to the case's expected value.
func Run(program *nolang.Program, funcIndex int, cases []Case) []Result {
	results := make([]Result, len(cases))
	for i, c := range cases {
		results[i] = runOne(program, funcIndex, i, c)
	}
	return results
}

func runOne(program *nolang.Program, funcIndex, index int, c Case) Result {
	wrapper, err := BuildCallProgram(program, funcIndex, c.Inputs)
	if err != nil {
		return Result{Index: index, Expected: c.Expected, Err: fmt.Errorf("failed to build witness program: %w", err)}
	}

	machine, err := vm.NewVM(wrapper)
	if err != nil {
		return Result{Index: index, Expected: c.Expected, Err: fmt.Errorf("runtime error: %w", err)}
	}

	actual, err := machine.Run()
	if err != nil {
		return Result{Index: index, Expected: c.Expected, Err: fmt.Errorf("runtime error: %w", err)}
	}

	return Result{
		Index:    index,
		Passed:   actual.Equal(c.Expected),
		Actual:   &actual,
		Expected: c.Expected,
	}
}

// encodeConst emits the CONST (or CONST_EXT + data slot) instructions
// that push v onto the stack when executed from a fresh frame. Compound
// values push their elements first, deepest element first, then the
// compound-constructing opcode.
func encodeConst(v nolang.Value) ([]nolang.Instruction, error) {
	switch v.Kind {
	case nolang.I64:
		if v.I64 >= -(1<<31) && v.I64 <= (1<<31)-1 {
			val32 := uint32(int32(v.I64))
			return []nolang.Instruction{nolang.NewInstruction(nolang.Const, nolang.I64, uint16(val32>>16), uint16(val32), 0)}, nil
		}
		return encodeConstExt(nolang.I64, uint64(v.I64)), nil

	case nolang.U64:
		if v.U64 <= 0xFFFFFFFF {
			return []nolang.Instruction{nolang.NewInstruction(nolang.Const, nolang.U64, uint16(v.U64>>16), uint16(v.U64), 0)}, nil
		}
		return encodeConstExt(nolang.U64, v.U64), nil

	case nolang.F64:
		return encodeConstExt(nolang.F64, math.Float64bits(v.F64)), nil

	case nolang.Bool:
		arg1 := uint16(0)
		if v.Bool {
			arg1 = 1
		}
		return []nolang.Instruction{nolang.NewInstruction(nolang.Const, nolang.Bool, arg1, 0, 0)}, nil

	case nolang.Char:
		if v.Char > 0xFFFF {
			return nil, &Error{Kind: UnencodableValue, Message: "Char codepoint above 0xFFFF"}
		}
		return []nolang.Instruction{nolang.NewInstruction(nolang.Const, nolang.Char, uint16(v.Char), 0, 0)}, nil

	case nolang.Unit:
		return []nolang.Instruction{nolang.NewInstruction(nolang.Const, nolang.Unit, 0, 0, 0)}, nil

	case nolang.Tuple:
		return encodeCompound(v.Tuple, nolang.TupleNew)

	case nolang.Array:
		return encodeCompound(v.Array, nolang.ArrayNew)

	case nolang.Variant:
		payload, err := encodeConst(*v.Variant.Payload)
		if err != nil {
			return nil, err
		}
		instrs := append([]nolang.Instruction{}, payload...)
		instrs = append(instrs, nolang.NewInstruction(nolang.VariantNew, v.Variant.Payload.Kind, v.Variant.TagCount, v.Variant.Tag, 0))
		return instrs, nil

	default:
		return nil, &Error{Kind: UnencodableValue, Message: v.String()}
	}
}

func encodeCompound(elems []nolang.Value, op nolang.Opcode) ([]nolang.Instruction, error) {
	if len(elems) > 0xFFFF {
		return nil, &Error{Kind: UnencodableValue, Message: "compound value too large"}
	}
	var instrs []nolang.Instruction
	for _, e := range elems {
		encoded, err := encodeConst(e)
		if err != nil {
			return nil, err
		}
		instrs = append(instrs, encoded...)
	}
	instrs = append(instrs, nolang.NewInstruction(op, nolang.None, uint16(len(elems)), 0, 0))
	return instrs, nil
}

func encodeConstExt(tag nolang.TypeTag, bits uint64) []nolang.Instruction {
	high16 := uint16(bits >> 48)
	midHigh := uint16(bits >> 32)
	midLow := uint16(bits >> 16)
	low16 := uint16(bits)
	return []nolang.Instruction{
		nolang.NewInstruction(nolang.ConstExt, tag, high16, 0, 0),
		nolang.NewInstruction(nolang.Nop, nolang.None, midHigh, midLow, low16),
	}
}
