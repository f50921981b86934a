package verifier

import "nolangvm/nolang"

// checkReachability is Pass 8. It walks every FUNC (prologue, conditions,
// body) and the top-level entry region the same way the structural pass
// discovered them, marking each instruction it actually visits. Anything
// left unmarked — an orphaned byte range the earlier passes never had a
// reason to enter — is reported once per unmarked instruction.
func checkReachability(instrs []nolang.Instruction, ctx *ProgramContext) []error {
	reachable := make([]bool, len(instrs))
	mark := func(pc int) {
		if pc >= 0 && pc < len(reachable) {
			reachable[pc] = true
		}
	}

	var markRegion func(start, end int)
	markRegion = func(start, end int) {
		pc := start
		for pc < end {
			mark(pc)
			instr := instrs[pc]

			if instr.Opcode == nolang.Match {
				if m, ok := ctx.FindMatchInfo(pc); ok {
					for _, c := range m.Cases {
						mark(c.At)
						markRegion(c.At+1, c.At+1+c.Len)
					}
					mark(m.ExhaustPC)
					pc = m.ExhaustPC + 1
					continue
				}
			}

			if instr.Opcode == nolang.Halt || instr.Opcode == nolang.Ret {
				return
			}

			pc++
			if instr.Opcode == nolang.ConstExt && pc < end {
				mark(pc)
				pc++
			}
		}
	}

	for _, fn := range ctx.Functions {
		mark(fn.FuncPC)
		markRegion(fn.FuncPC+1, fn.BodyStartPC)
		markRegion(fn.BodyStartPC, funcBodyEnd(fn))
		if fn.HashPC != nil {
			mark(*fn.HashPC)
		}
		mark(fn.EndFuncPC)
	}

	end := len(instrs)
	haltPC := -1
	if end > 0 && instrs[end-1].Opcode == nolang.Halt {
		haltPC = end - 1
		mark(haltPC)
		end--
	}
	markRegion(ctx.EntryPoint, end)

	var errs []error
	for pc, ok := range reachable {
		if !ok {
			errs = append(errs, &VerifyError{Kind: UnreachableInstruction, At: pc})
		}
	}
	return errs
}
