package generate

import (
	"math/rand"

	"nolangvm/nolang"
)

// constI64 builds a CONST instruction for a 32-bit-representable signed
// value, matching Instruction.ConstValue's sign-extension rule.
func constI64(v int32) nolang.Instruction {
	u := uint32(v)
	return nolang.NewInstruction(nolang.Const, nolang.I64, uint16(u>>16), uint16(u), 0)
}

// constU64 builds a CONST instruction for a value that fits in the 32-bit
// zero-extended CONST payload.
func constU64(v uint32) nolang.Instruction {
	return nolang.NewInstruction(nolang.Const, nolang.U64, uint16(v>>16), uint16(v), 0)
}

func constBool(b bool) nolang.Instruction {
	var arg1 uint16
	if b {
		arg1 = 1
	}
	return nolang.NewInstruction(nolang.Const, nolang.Bool, arg1, 0, 0)
}

// arithmeticTower builds a straight-line expression over n small I64
// constants chained with ADD/SUB/MUL, leaving exactly one I64 on the
// stack.
func arithmeticTower(rng *rand.Rand, n int) []nolang.Instruction {
	ops := []nolang.Opcode{nolang.Add, nolang.Sub, nolang.Mul}

	instrs := []nolang.Instruction{constI64(int32(rng.Intn(50) - 25))}
	for i := 1; i < n; i++ {
		instrs = append(instrs, constI64(int32(rng.Intn(50)-25)))
		op := ops[rng.Intn(len(ops))]
		instrs = append(instrs, nolang.NewInstruction(op, nolang.None, 0, 0, 0))
	}
	return instrs
}

// assembleMatch builds a complete MATCH/CASE.../EXHAUST construct from
// case bodies supplied in ascending tag order (0, 1, 2, ...), computing
// every CASE's body length from the slice it is actually given rather
// than a hand-counted constant.
func assembleMatch(cases [][]nolang.Instruction) []nolang.Instruction {
	out := []nolang.Instruction{
		nolang.NewInstruction(nolang.Match, nolang.None, uint16(len(cases)), 0, 0),
	}
	for tag, body := range cases {
		out = append(out, nolang.NewInstruction(nolang.Case, nolang.None, uint16(tag), uint16(len(body)), 0))
		out = append(out, body...)
	}
	out = append(out, nolang.NewInstruction(nolang.Exhaust, nolang.None, 0, 0, 0))
	return out
}

// condBlock is one PRE/POST condition's body, paired with its introducing
// opcode.
type condBlock struct {
	opcode nolang.Opcode
	body   []nolang.Instruction
}

// assembleFunc builds a complete FUNC ... ENDFUNC block. It computes the
// FUNC instruction's body-length field, and every PRE/POST condition's
// length field, from the slices supplied rather than from hand-counted
// constants — the same way the assembler's parser would derive them from
// a forward-referenced block in source text. The HASH instruction's args
// are left zeroed; patchHashes fills them in once the block's final
// position in a full program is known.
func assembleFunc(paramTypes []nolang.TypeTag, conds []condBlock, body []nolang.Instruction) []nolang.Instruction {
	var prologue []nolang.Instruction
	for _, pt := range paramTypes {
		prologue = append(prologue, nolang.NewInstruction(nolang.Param, pt, 0, 0, 0))
	}
	for _, c := range conds {
		prologue = append(prologue, nolang.NewInstruction(c.opcode, nolang.None, uint16(len(c.body)), 0, 0))
		prologue = append(prologue, c.body...)
	}

	hash := nolang.NewInstruction(nolang.Hash, nolang.None, 0, 0, 0)
	bodyLen := len(prologue) + len(body) + 1 // +1 for HASH

	out := []nolang.Instruction{
		nolang.NewInstruction(nolang.Func, nolang.None, uint16(len(paramTypes)), uint16(bodyLen), 0),
	}
	out = append(out, prologue...)
	out = append(out, body...)
	out = append(out, hash)
	out = append(out, nolang.NewInstruction(nolang.EndFunc, nolang.None, 0, 0, 0))
	return out
}
