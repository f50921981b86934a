// Package assembler translates NoLang assembly text to and from decoded
// Programs. The text format is one instruction per line; each of the 45
// opcodes takes one of 10 fixed argument shapes (the pattern tables and
// per-opcode cases below), dispatched purely by which opcode a line names.
package assembler

import (
	"nolangvm/nolang"
)

var patternA = map[nolang.Opcode]bool{
	nolang.Bind: true, nolang.Drop: true, nolang.Neg: true,
	nolang.Add: true, nolang.Sub: true, nolang.Mul: true, nolang.Div: true, nolang.Mod: true,
	nolang.Eq: true, nolang.Neq: true, nolang.Lt: true, nolang.Gt: true, nolang.Lte: true, nolang.Gte: true,
	nolang.And: true, nolang.Or: true, nolang.Not: true, nolang.Xor: true, nolang.Shl: true, nolang.Shr: true,
	nolang.ArrayGet: true, nolang.ArrayLen: true, nolang.Assert: true,
	nolang.Ret: true, nolang.EndFunc: true, nolang.Exhaust: true, nolang.Nop: true, nolang.Halt: true,
}

var patternB = map[nolang.Opcode]bool{
	nolang.Ref: true, nolang.Match: true, nolang.Call: true, nolang.Recurse: true,
	nolang.Project: true, nolang.Pre: true, nolang.Post: true,
}

var patternC = map[nolang.Opcode]bool{nolang.Func: true, nolang.Case: true}
var patternK = map[nolang.Opcode]bool{nolang.TupleNew: true, nolang.ArrayNew: true}

// ParseLine parses one line of assembly text into zero, one, or two
// instructions (CONST_EXT produces two: itself and its trailing data
// slot). A blank or comment-only line yields no instructions and no
// error.
func ParseLine(line string, lineNum int) ([]nolang.Instruction, error) {
	tokens, err := tokenizeLine(line, lineNum)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, nil
	}

	if tokens[0].kind != tokenIdent {
		return nil, &AsmError{Kind: UnexpectedToken, Line: lineNum, Token: tokens[0].text()}
	}
	mnemonic := tokens[0].ident

	opcode, ok := nolang.OpcodeByMnemonic(mnemonic)
	if !ok {
		return nil, &AsmError{Kind: UnknownOpcode, Line: lineNum, Token: mnemonic}
	}

	args := tokens[1:]

	switch {
	case patternA[opcode]:
		if err := expectEnd(args, lineNum); err != nil {
			return nil, err
		}
		return []nolang.Instruction{nolang.NewInstruction(opcode, nolang.None, 0, 0, 0)}, nil

	case patternB[opcode]:
		arg1, err := expectU16(args, 0, lineNum, mnemonic, 1)
		if err != nil {
			return nil, err
		}
		if err := expectEnd(args[1:], lineNum); err != nil {
			return nil, err
		}
		return []nolang.Instruction{nolang.NewInstruction(opcode, nolang.None, arg1, 0, 0)}, nil

	case patternC[opcode]:
		arg1, err := expectU16(args, 0, lineNum, mnemonic, 2)
		if err != nil {
			return nil, err
		}
		arg2, err := expectU16(args, 1, lineNum, mnemonic, 2)
		if err != nil {
			return nil, err
		}
		if err := expectEnd(args[2:], lineNum); err != nil {
			return nil, err
		}
		return []nolang.Instruction{nolang.NewInstruction(opcode, nolang.None, arg1, arg2, 0)}, nil

	case opcode == nolang.Param:
		tt, err := expectTypeTag(args, 0, lineNum, mnemonic, 1)
		if err != nil {
			return nil, err
		}
		if err := expectEnd(args[1:], lineNum); err != nil {
			return nil, err
		}
		return []nolang.Instruction{nolang.NewInstruction(opcode, tt, 0, 0, 0)}, nil

	case opcode == nolang.Typeof:
		tt, err := expectTypeTag(args, 0, lineNum, mnemonic, 1)
		if err != nil {
			return nil, err
		}
		if err := expectEnd(args[1:], lineNum); err != nil {
			return nil, err
		}
		return []nolang.Instruction{nolang.NewInstruction(opcode, nolang.None, uint16(tt), 0, 0)}, nil

	case opcode == nolang.Const:
		tt, err := expectTypeTag(args, 0, lineNum, mnemonic, 3)
		if err != nil {
			return nil, err
		}
		arg1, err := expectU16(args, 1, lineNum, mnemonic, 3)
		if err != nil {
			return nil, err
		}
		arg2, err := expectU16(args, 2, lineNum, mnemonic, 3)
		if err != nil {
			return nil, err
		}
		if err := expectEnd(args[3:], lineNum); err != nil {
			return nil, err
		}
		return []nolang.Instruction{nolang.NewInstruction(opcode, tt, arg1, arg2, 0)}, nil

	case opcode == nolang.ConstExt:
		tt, err := expectTypeTag(args, 0, lineNum, mnemonic, 2)
		if err != nil {
			return nil, err
		}
		full, err := expectNumber(args, 1, lineNum, mnemonic, 2)
		if err != nil {
			return nil, err
		}
		if err := expectEnd(args[2:], lineNum); err != nil {
			return nil, err
		}

		high16 := uint16((full >> 48) & 0xFFFF)
		midHigh := uint16((full >> 32) & 0xFFFF)
		midLow := uint16((full >> 16) & 0xFFFF)
		low16 := uint16(full & 0xFFFF)

		return []nolang.Instruction{
			nolang.NewInstruction(nolang.ConstExt, tt, high16, 0, 0),
			nolang.NewInstruction(nolang.Nop, nolang.None, midHigh, midLow, low16),
		}, nil

	case opcode == nolang.Hash:
		arg1, err := expectU16(args, 0, lineNum, mnemonic, 3)
		if err != nil {
			return nil, err
		}
		arg2, err := expectU16(args, 1, lineNum, mnemonic, 3)
		if err != nil {
			return nil, err
		}
		arg3, err := expectU16(args, 2, lineNum, mnemonic, 3)
		if err != nil {
			return nil, err
		}
		if err := expectEnd(args[3:], lineNum); err != nil {
			return nil, err
		}
		return []nolang.Instruction{nolang.NewInstruction(opcode, nolang.None, arg1, arg2, arg3)}, nil

	case opcode == nolang.VariantNew:
		tt, err := expectTypeTag(args, 0, lineNum, mnemonic, 3)
		if err != nil {
			return nil, err
		}
		arg1, err := expectU16(args, 1, lineNum, mnemonic, 3)
		if err != nil {
			return nil, err
		}
		arg2, err := expectU16(args, 2, lineNum, mnemonic, 3)
		if err != nil {
			return nil, err
		}
		if err := expectEnd(args[3:], lineNum); err != nil {
			return nil, err
		}
		return []nolang.Instruction{nolang.NewInstruction(opcode, tt, arg1, arg2, 0)}, nil

	case patternK[opcode]:
		tt, err := expectTypeTag(args, 0, lineNum, mnemonic, 2)
		if err != nil {
			return nil, err
		}
		arg1, err := expectU16(args, 1, lineNum, mnemonic, 2)
		if err != nil {
			return nil, err
		}
		if err := expectEnd(args[2:], lineNum); err != nil {
			return nil, err
		}
		return []nolang.Instruction{nolang.NewInstruction(opcode, tt, arg1, 0, 0)}, nil

	default:
		// Every opcode is covered by exactly one of the patterns above;
		// reaching here means AllOpcodes grew without a matching pattern
		// being added here.
		return nil, &AsmError{Kind: UnknownOpcode, Line: lineNum, Token: mnemonic}
	}
}

// Assemble parses a complete assembly source text into a Program.
func Assemble(source string) (*nolang.Program, error) {
	var instrs []nolang.Instruction
	line := 0
	start := 0
	for i := 0; i <= len(source); i++ {
		if i == len(source) || source[i] == '\n' {
			line++
			text := source[start:i]
			start = i + 1

			parsed, err := ParseLine(text, line)
			if err != nil {
				return nil, err
			}
			instrs = append(instrs, parsed...)
		}
	}
	return nolang.NewProgram(instrs), nil
}

func expectNumber(args []token, idx, lineNum int, opcode string, expected int) (uint64, error) {
	if idx >= len(args) {
		return 0, &AsmError{Kind: MissingArgument, Line: lineNum, Opcode: opcode, Expected: expected}
	}
	tok := args[idx]
	if tok.kind != tokenNumber {
		return 0, &AsmError{Kind: UnexpectedToken, Line: lineNum, Token: tok.text()}
	}
	return tok.number, nil
}

func expectU16(args []token, idx, lineNum int, opcode string, expected int) (uint16, error) {
	n, err := expectNumber(args, idx, lineNum, opcode, expected)
	if err != nil {
		return 0, err
	}
	if n > 0xFFFF {
		return 0, &AsmError{Kind: InvalidNumber, Line: lineNum, Token: args[idx].text()}
	}
	return uint16(n), nil
}

func expectTypeTag(args []token, idx, lineNum int, opcode string, expected int) (nolang.TypeTag, error) {
	if idx >= len(args) {
		return 0, &AsmError{Kind: MissingArgument, Line: lineNum, Opcode: opcode, Expected: expected}
	}
	tok := args[idx]
	if tok.kind != tokenIdent {
		return 0, &AsmError{Kind: UnexpectedToken, Line: lineNum, Token: tok.text()}
	}
	tt, ok := nolang.TypeTagByName(tok.ident)
	if !ok {
		return 0, &AsmError{Kind: UnknownTypeTag, Line: lineNum, Token: tok.ident}
	}
	return tt, nil
}

func expectEnd(remaining []token, lineNum int) error {
	if len(remaining) > 0 {
		return &AsmError{Kind: UnexpectedToken, Line: lineNum, Token: remaining[0].text()}
	}
	return nil
}
