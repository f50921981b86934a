package verifier

import "nolangvm/nolang"

const (
	MaxProgramSize     = 65536
	MaxRefIndex        = 4096
	MaxRecursionLimit  = 1024
)

// checkLimits is Pass 1. It never consults ProgramContext — only the raw
// instruction size and per-instruction REF/RECURSE arguments, so it always
// runs first and unconditionally.
func checkLimits(instrs []nolang.Instruction) []error {
	var errs []error

	if len(instrs) > MaxProgramSize {
		errs = append(errs, &VerifyError{Kind: ProgramTooLarge, Size: len(instrs)})
	}

	for at, instr := range instrs {
		switch instr.Opcode {
		case nolang.Ref:
			if instr.Arg1 > MaxRefIndex {
				errs = append(errs, &VerifyError{Kind: RefTooDeep, At: at, Index: int(instr.Arg1)})
			}
		case nolang.Recurse:
			if instr.Arg1 > MaxRecursionLimit {
				errs = append(errs, &VerifyError{Kind: RecursionLimitTooHigh, At: at, Limit: instr.Arg1})
			}
		}
	}

	return errs
}
