package verifier

import "nolangvm/nolang"

// stackDelta returns net operand-stack depth change for an opcode which
// does not itself require special control-flow handling (MATCH, Func,
// EndFunc, Param, Pre, Post, Hash, Case, Exhaust are all handled by their
// callers). CALL and RECURSE are approximated as net-zero: their callee's
// true arity/return shape is already enforced by the Types pass, so the
// Stack pass only needs a conservative bound here.
func stackDelta(instr nolang.Instruction) int {
	switch instr.Opcode {
	case nolang.Bind:
		return -1
	case nolang.Ref:
		return 1
	case nolang.Drop:
		return 0
	case nolang.Const, nolang.ConstExt:
		return 1
	case nolang.Add, nolang.Sub, nolang.Mul, nolang.Div, nolang.Mod:
		return -1
	case nolang.Neg:
		return 0
	case nolang.Eq, nolang.Neq, nolang.Lt, nolang.Gt, nolang.Lte, nolang.Gte:
		return -1
	case nolang.And, nolang.Or, nolang.Xor:
		return -1
	case nolang.Not:
		return 0
	case nolang.Shl, nolang.Shr:
		return -1
	case nolang.Ret:
		return -1
	case nolang.Call, nolang.Recurse:
		return 0
	case nolang.VariantNew:
		return 0
	case nolang.TupleNew, nolang.ArrayNew:
		return 1 - int(instr.Arg1)
	case nolang.Project:
		return 0
	case nolang.ArrayGet:
		return -1
	case nolang.ArrayLen:
		return 0
	case nolang.Assert:
		return -1
	case nolang.Typeof:
		return 1
	default:
		return 0
	}
}

// runStackRegion walks instrs[start:end] tracking only operand-stack depth,
// starting from depth and returning the depth at end. A depth that goes
// negative is a StackUnderflow at the offending pc.
func runStackRegion(instrs []nolang.Instruction, ctx *ProgramContext, start, end, depth int, errs *[]error) int {
	pc := start
	for pc < end {
		instr := instrs[pc]

		if instr.Opcode == nolang.Match {
			m, ok := ctx.FindMatchInfo(pc)
			if !ok {
				pc++
				continue
			}
			// MATCH is treated opaquely here, the same way CALL/RECURSE
			// are: pop the scrutinee, and every branch is required (by
			// the Types pass) to leave exactly one value, so the net
			// effect on depth is zero. Per-branch internal balance and
			// the payload Variant selectors push is a typed concern,
			// already checked by the Types pass.
			if depth < 1 {
				*errs = append(*errs, &VerifyError{Kind: StackUnderflow, At: pc})
				depth = 0
			}
			pc = m.ExhaustPC + 1
			continue
		}

		delta := stackDelta(instr)
		if delta < 0 && depth+delta < 0 {
			*errs = append(*errs, &VerifyError{Kind: StackUnderflow, At: pc})
			depth = 0
		} else {
			depth += delta
		}

		pc++
		if instr.Opcode == nolang.ConstExt && pc < end {
			pc++
		}
	}

	return depth
}

// checkStack is Pass 7. It only ever raises UnbalancedStack at HALT; a
// function body is walked purely to catch underflow along the way; RET
// hands its return value to the caller and is not itself balance-checked,
// and PRE/POST spans are not walked here at all (Pass 6 owns their shape).
func checkStack(instrs []nolang.Instruction, ctx *ProgramContext) []error {
	var errs []error

	for _, fn := range ctx.Functions {
		runStackRegion(instrs, ctx, fn.BodyStartPC, funcBodyEnd(fn), 0, &errs)
	}

	end := len(instrs)
	var haltPC int
	if end > 0 && instrs[end-1].Opcode == nolang.Halt {
		haltPC = end - 1
		end--
	}
	if ctx.EntryPoint <= end {
		d := runStackRegion(instrs, ctx, ctx.EntryPoint, end, 0, &errs)
		if d != 1 {
			errs = append(errs, &VerifyError{Kind: UnbalancedStack, AtHalt: haltPC, Depth: d})
		}
	}

	return errs
}
