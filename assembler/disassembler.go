package assembler

import (
	"fmt"
	"strings"

	"nolangvm/nolang"
)

// Disassemble renders a Program as canonical assembly text: one
// instruction per line, no indentation, no comments. Assemble(Disassemble(p))
// reproduces p exactly — every pattern below is the literal inverse of the
// parser's dispatch for that opcode.
func Disassemble(p *nolang.Program) string {
	instrs := p.Instructions
	var lines []string

	for i := 0; i < len(instrs); i++ {
		instr := instrs[i]

		var line string
		switch {
		case patternA[instr.Opcode]:
			line = instr.Opcode.Mnemonic()

		case patternB[instr.Opcode]:
			line = fmt.Sprintf("%s %d", instr.Opcode.Mnemonic(), instr.Arg1)

		case patternC[instr.Opcode]:
			line = fmt.Sprintf("%s %d %d", instr.Opcode.Mnemonic(), instr.Arg1, instr.Arg2)

		case instr.Opcode == nolang.Param:
			line = fmt.Sprintf("%s %s", instr.Opcode.Mnemonic(), instr.TypeTag.Name())

		case instr.Opcode == nolang.Typeof:
			tt := nolang.TypeTag(instr.Arg1)
			name := tt.Name()
			if name == "?unknown?" {
				name = "NONE"
			}
			line = fmt.Sprintf("%s %s", instr.Opcode.Mnemonic(), name)

		case instr.Opcode == nolang.Const:
			line = fmt.Sprintf("%s %s 0x%04x 0x%04x", instr.Opcode.Mnemonic(), instr.TypeTag.Name(), instr.Arg1, instr.Arg2)

		case instr.Opcode == nolang.ConstExt:
			high16 := uint64(instr.Arg1)
			if i+1 < len(instrs) {
				next := instrs[i+1]
				low48 := uint64(next.Arg1)<<32 | uint64(next.Arg2)<<16 | uint64(next.Arg3)
				full := (high16 << 48) | low48
				i++ // consume the data slot
				line = fmt.Sprintf("%s %s 0x%016x", instr.Opcode.Mnemonic(), instr.TypeTag.Name(), full)
			} else {
				line = fmt.Sprintf("%s %s 0x%016x", instr.Opcode.Mnemonic(), instr.TypeTag.Name(), high16<<48)
			}

		case instr.Opcode == nolang.Hash:
			line = fmt.Sprintf("%s 0x%04x 0x%04x 0x%04x", instr.Opcode.Mnemonic(), instr.Arg1, instr.Arg2, instr.Arg3)

		case instr.Opcode == nolang.VariantNew:
			line = fmt.Sprintf("%s %s %d %d", instr.Opcode.Mnemonic(), instr.TypeTag.Name(), instr.Arg1, instr.Arg2)

		case patternK[instr.Opcode]:
			line = fmt.Sprintf("%s %s %d", instr.Opcode.Mnemonic(), instr.TypeTag.Name(), instr.Arg1)

		default:
			line = instr.Opcode.Mnemonic()
		}

		lines = append(lines, line)
	}

	result := strings.Join(lines, "\n")
	if result != "" {
		result += "\n"
	}
	return result
}
