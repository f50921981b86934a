package verifier

import (
	"nolangvm/nolang"

	"lukechampine.com/blake3"
)

// computeFuncHash hashes the encoded bytes of a FUNC block, from the FUNC
// instruction itself up to (but not including) its trailing HASH
// instruction, and truncates the blake3-256 digest to 48 bits.
func computeFuncHash(instrs []nolang.Instruction, fn FuncInfo, hashPC int) [6]byte {
	body := nolang.NewProgram(instrs[fn.FuncPC:hashPC])
	digest := blake3.Sum256(body.Encode())

	var out [6]byte
	copy(out[:], digest[:6])
	return out
}

func packHashArgs(instr nolang.Instruction) [6]byte {
	var out [6]byte
	out[0] = byte(instr.Arg1 >> 8)
	out[1] = byte(instr.Arg1)
	out[2] = byte(instr.Arg2 >> 8)
	out[3] = byte(instr.Arg2)
	out[4] = byte(instr.Arg3 >> 8)
	out[5] = byte(instr.Arg3)
	return out
}

// ComputeFuncHash is the exported form of computeFuncHash, for callers
// outside the verifier that need to patch a correct hash into a freshly
// assembled or generated program rather than just check an existing one
// (the CLI's hash subcommand, the training-corpus generator).
func ComputeFuncHash(instrs []nolang.Instruction, fn FuncInfo, hashPC int) [6]byte {
	return computeFuncHash(instrs, fn, hashPC)
}

// PackedHashInstruction builds the HASH instruction whose three 16-bit
// args encode digest's 48 bits in the layout checkHashing expects.
func PackedHashInstruction(digest [6]byte) nolang.Instruction {
	arg1 := uint16(digest[0])<<8 | uint16(digest[1])
	arg2 := uint16(digest[2])<<8 | uint16(digest[3])
	arg3 := uint16(digest[4])<<8 | uint16(digest[5])
	return nolang.NewInstruction(nolang.Hash, nolang.None, arg1, arg2, arg3)
}

// checkHashing is Pass 4. Every FUNC block must end its conditions/body run
// with a HASH instruction whose three args pack the blake3-256 digest
// (truncated to 48 bits) of the block's own encoded instructions.
func checkHashing(instrs []nolang.Instruction, ctx *ProgramContext) []error {
	var errs []error

	for _, fn := range ctx.Functions {
		if fn.HashPC == nil {
			errs = append(errs, &VerifyError{Kind: MissingHash, FuncAt: fn.FuncPC})
			continue
		}

		hashPC := *fn.HashPC
		computed := computeFuncHash(instrs, fn, hashPC)
		expected := packHashArgs(instrs[hashPC])

		if computed != expected {
			errs = append(errs, &VerifyError{
				Kind:      HashMismatch,
				At:        hashPC,
				Expected6: expected,
				Computed6: computed,
			})
		}
	}

	return errs
}
