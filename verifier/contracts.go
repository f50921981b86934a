package verifier

import "nolangvm/nolang"

// checkContracts is Pass 6. It simulates each PRE/POST span with the same
// type-stack machinery the Types pass uses and requires the final stack top
// to be BOOL. For POST, the initial binding environment is the function's
// declared parameter types with a None placeholder appended, representing
// the return value as the most-recent binding (index 0).
func checkContracts(instrs []nolang.Instruction, ctx *ProgramContext) []error {
	var errs []error

	for _, fn := range ctx.Functions {
		seed := make([]nolang.TypeTag, 0, len(fn.ParamTypes))
		for i := len(fn.ParamTypes) - 1; i >= 0; i-- {
			seed = append(seed, fn.ParamTypes[i])
		}

		for _, cond := range fn.PreConditions {
			sim := &typeSim{bindings: append([]nolang.TypeTag(nil), seed...), errs: &errs}
			runTypeRegion(instrs, ctx, cond.Start, cond.Start+cond.Len, sim)
			top := sim.pop(cond.At)
			if top != nolang.Bool {
				errs = append(errs, &VerifyError{Kind: PreConditionNotBool, At: cond.At})
			}
		}

		// POST runs with the return value as the most-recent binding
		// (index 0); the declared parameters shift one index deeper.
		postSeed := append([]nolang.TypeTag{nolang.None}, seed...)
		for _, cond := range fn.PostConditions {
			sim := &typeSim{bindings: append([]nolang.TypeTag(nil), postSeed...), errs: &errs}
			runTypeRegion(instrs, ctx, cond.Start, cond.Start+cond.Len, sim)
			top := sim.pop(cond.At)
			if top != nolang.Bool {
				errs = append(errs, &VerifyError{Kind: PostConditionNotBool, At: cond.At})
			}
		}
	}

	return errs
}
