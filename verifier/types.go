package verifier

import "nolangvm/nolang"

func isNumericTag(t nolang.TypeTag) bool {
	return t.IsNumeric()
}

func isIntegerTag(t nolang.TypeTag) bool {
	return t == nolang.I64 || t == nolang.U64
}

// isOrderableTag covers the types LT/GT/LTE/GTE accept: numeric types
// compare by value, Bool and Char compare by ordinal.
func isOrderableTag(t nolang.TypeTag) bool {
	return isNumericTag(t) || t == nolang.Bool || t == nolang.Char
}

// typeSim is the abstract interpreter state used by the Types pass. It
// tracks a stack of TypeTag values (never the values themselves) plus a
// De Bruijn indexed binding environment, the same shape the real stack
// machine uses at runtime.
type typeSim struct {
	stack    []nolang.TypeTag
	bindings []nolang.TypeTag
	errs     *[]error
}

func (s *typeSim) push(t nolang.TypeTag) {
	s.stack = append(s.stack, t)
}

func (s *typeSim) pop(at int) nolang.TypeTag {
	if len(s.stack) == 0 {
		*s.errs = append(*s.errs, &VerifyError{Kind: StackUnderflow, At: at})
		return nolang.None
	}
	t := s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]
	return t
}

func (s *typeSim) clone() *typeSim {
	stack := make([]nolang.TypeTag, len(s.stack))
	copy(stack, s.stack)
	bindings := make([]nolang.TypeTag, len(s.bindings))
	copy(bindings, s.bindings)
	return &typeSim{stack: stack, bindings: bindings, errs: s.errs}
}

// runTypeRegion abstractly interprets instrs[start:end], leaving the
// final stack shape in sim. MATCH/CASE/EXHAUST constructs are resolved against
// ctx exactly as the structural pass resolved them, so this never has to
// re-derive case boundaries.
func runTypeRegion(instrs []nolang.Instruction, ctx *ProgramContext, start, end int, sim *typeSim) {
	pc := start
	for pc < end {
		instr := instrs[pc]

		switch instr.Opcode {
		case nolang.Const, nolang.ConstExt:
			sim.push(instr.TypeTag)
			pc++
			if instr.Opcode == nolang.ConstExt {
				pc++
			}
			continue

		case nolang.Bind:
			t := sim.pop(pc)
			sim.bindings = append([]nolang.TypeTag{t}, sim.bindings...)

		case nolang.Drop:
			if len(sim.bindings) > 0 {
				sim.bindings = sim.bindings[1:]
			}

		case nolang.Ref:
			idx := int(instr.Arg1)
			if idx >= len(sim.bindings) {
				*sim.errs = append(*sim.errs, &VerifyError{Kind: UnresolvableRef, At: pc, Index: idx, BindingDepth: len(sim.bindings)})
				sim.push(nolang.None)
			} else {
				sim.push(sim.bindings[idx])
			}

		case nolang.Add, nolang.Sub, nolang.Mul, nolang.Div:
			b := sim.pop(pc)
			a := sim.pop(pc)
			if a != b || !isNumericTag(a) {
				*sim.errs = append(*sim.errs, &VerifyError{Kind: TypeMismatch, At: pc, Expected: int(a), Found: int(b)})
			}
			sim.push(a)

		case nolang.Mod:
			b := sim.pop(pc)
			a := sim.pop(pc)
			if a != b || !isIntegerTag(a) {
				*sim.errs = append(*sim.errs, &VerifyError{Kind: TypeMismatch, At: pc, Expected: int(a), Found: int(b)})
			}
			sim.push(a)

		case nolang.Neg:
			a := sim.pop(pc)
			if a != nolang.I64 && a != nolang.F64 {
				*sim.errs = append(*sim.errs, &VerifyError{Kind: TypeMismatch, At: pc, Expected: int(nolang.I64), Found: int(a)})
			}
			sim.push(a)

		case nolang.Eq, nolang.Neq:
			b := sim.pop(pc)
			a := sim.pop(pc)
			if a != b {
				*sim.errs = append(*sim.errs, &VerifyError{Kind: TypeMismatch, At: pc, Expected: int(a), Found: int(b)})
			}
			sim.push(nolang.Bool)

		case nolang.Lt, nolang.Gt, nolang.Lte, nolang.Gte:
			b := sim.pop(pc)
			a := sim.pop(pc)
			if a != b || !isOrderableTag(a) {
				*sim.errs = append(*sim.errs, &VerifyError{Kind: TypeMismatch, At: pc, Expected: int(a), Found: int(b)})
			}
			sim.push(nolang.Bool)

		case nolang.And, nolang.Or, nolang.Xor:
			b := sim.pop(pc)
			a := sim.pop(pc)
			if a != b || (a != nolang.Bool && !isIntegerTag(a)) {
				*sim.errs = append(*sim.errs, &VerifyError{Kind: TypeMismatch, At: pc, Expected: int(nolang.Bool), Found: int(a)})
			}
			sim.push(a)

		case nolang.Not:
			a := sim.pop(pc)
			if a != nolang.Bool && !isIntegerTag(a) {
				*sim.errs = append(*sim.errs, &VerifyError{Kind: TypeMismatch, At: pc, Expected: int(nolang.Bool), Found: int(a)})
			}
			sim.push(a)

		case nolang.Shl, nolang.Shr:
			b := sim.pop(pc)
			a := sim.pop(pc)
			if !isIntegerTag(a) || a != b {
				*sim.errs = append(*sim.errs, &VerifyError{Kind: TypeMismatch, At: pc, Expected: int(nolang.I64), Found: int(a)})
			}
			sim.push(a)

		case nolang.Ret:
			sim.pop(pc)

		case nolang.Call:
			if fn, ok := ctx.funcByIndex(int(instr.Arg1)); ok {
				for i := len(fn.ParamTypes) - 1; i >= 0; i-- {
					got := sim.pop(pc)
					if fn.ParamTypes[i] != nolang.None && got != fn.ParamTypes[i] {
						*sim.errs = append(*sim.errs, &VerifyError{Kind: TypeMismatch, At: pc, Expected: int(fn.ParamTypes[i]), Found: int(got)})
					}
				}
			}
			sim.push(nolang.None)

		case nolang.Recurse:
			if fn, ok := ctx.enclosingFunc(pc); ok {
				for i := len(fn.ParamTypes) - 1; i >= 0; i-- {
					got := sim.pop(pc)
					if fn.ParamTypes[i] != nolang.None && got != fn.ParamTypes[i] {
						*sim.errs = append(*sim.errs, &VerifyError{Kind: TypeMismatch, At: pc, Expected: int(fn.ParamTypes[i]), Found: int(got)})
					}
				}
			}
			sim.push(nolang.None)

		case nolang.VariantNew:
			sim.pop(pc)
			sim.push(nolang.Variant)

		case nolang.TupleNew:
			for i := 0; i < int(instr.Arg1); i++ {
				sim.pop(pc)
			}
			sim.push(nolang.Tuple)

		case nolang.ArrayNew:
			for i := 0; i < int(instr.Arg1); i++ {
				sim.pop(pc)
			}
			sim.push(nolang.Array)

		case nolang.ArrayGet:
			idx := sim.pop(pc)
			arr := sim.pop(pc)
			if arr != nolang.Array || idx != nolang.U64 {
				*sim.errs = append(*sim.errs, &VerifyError{Kind: TypeMismatch, At: pc, Expected: int(nolang.Array), Found: int(arr)})
			}
			sim.push(nolang.None)

		case nolang.ArrayLen:
			arr := sim.pop(pc)
			if arr != nolang.Array {
				*sim.errs = append(*sim.errs, &VerifyError{Kind: TypeMismatch, At: pc, Expected: int(nolang.Array), Found: int(arr)})
			}
			sim.push(nolang.U64)

		case nolang.Project:
			sim.pop(pc)
			sim.push(nolang.None)

		case nolang.Assert:
			a := sim.pop(pc)
			if a != nolang.Bool {
				*sim.errs = append(*sim.errs, &VerifyError{Kind: TypeMismatch, At: pc, Expected: int(nolang.Bool), Found: int(a)})
			}

		case nolang.Typeof:
			if len(sim.stack) == 0 {
				*sim.errs = append(*sim.errs, &VerifyError{Kind: StackUnderflow, At: pc})
			}
			sim.push(nolang.Bool)

		case nolang.Match:
			m, ok := ctx.FindMatchInfo(pc)
			if !ok {
				pc++
				continue
			}
			scrutinee := sim.pop(pc)

			var branches [][]nolang.TypeTag
			for _, c := range m.Cases {
				branchSim := sim.clone()
				// A Variant scrutinee has its payload pushed onto the
				// stack before the case body runs, so a leading BIND
				// can capture it; a Bool scrutinee carries no payload.
				if scrutinee == nolang.Variant {
					branchSim.push(nolang.None)
				}
				runTypeRegion(instrs, ctx, c.At+1, c.At+1+c.Len, branchSim)
				branches = append(branches, branchSim.stack)
			}
			if len(branches) > 0 {
				sim.stack = branches[0]
				for i, b := range branches {
					if len(b) != len(branches[0]) {
						*sim.errs = append(*sim.errs, &VerifyError{Kind: TypeMismatch, At: m.Cases[i].At, Expected: len(branches[0]), Found: len(b)})
					}
				}
			}
			pc = m.ExhaustPC + 1
			continue

		case nolang.Halt, nolang.Nop, nolang.Func, nolang.EndFunc, nolang.Pre, nolang.Post, nolang.Param:
			// no abstract stack effect in this region

		}

		pc++
	}
}

func (ctx *ProgramContext) funcByIndex(idx int) (FuncInfo, bool) {
	if idx < 0 || idx >= len(ctx.Functions) {
		return FuncInfo{}, false
	}
	return ctx.Functions[idx], true
}

func (ctx *ProgramContext) enclosingFunc(pc int) (FuncInfo, bool) {
	for _, fn := range ctx.Functions {
		if pc >= fn.FuncPC && pc < fn.EndFuncPC {
			return fn, true
		}
	}
	return FuncInfo{}, false
}

func funcBodyEnd(fn FuncInfo) int {
	if fn.HashPC != nil {
		return *fn.HashPC
	}
	return fn.EndFuncPC
}

// checkTypes is Pass 5. It abstractly interprets every FUNC's body (seeded
// with that function's declared parameter types) and the top-level entry
// region (seeded with no bindings at all). PRE/POST spans are not walked
// here — that is Pass 6's job (see checkContracts).
func checkTypes(instrs []nolang.Instruction, ctx *ProgramContext) []error {
	var errs []error

	for _, fn := range ctx.Functions {
		seed := make([]nolang.TypeTag, 0, len(fn.ParamTypes))
		for i := len(fn.ParamTypes) - 1; i >= 0; i-- {
			seed = append(seed, fn.ParamTypes[i])
		}

		sim := &typeSim{bindings: append([]nolang.TypeTag(nil), seed...), errs: &errs}
		runTypeRegion(instrs, ctx, fn.BodyStartPC, funcBodyEnd(fn), sim)
	}

	end := len(instrs)
	if end > 0 && instrs[end-1].Opcode == nolang.Halt {
		end--
	}
	if ctx.EntryPoint < end {
		sim := &typeSim{errs: &errs}
		runTypeRegion(instrs, ctx, ctx.EntryPoint, end, sim)
	}

	return errs
}
