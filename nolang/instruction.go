package nolang

import "encoding/binary"

// InstructionSize is the fixed width, in bytes, of every NoLang
// instruction on the wire.
const InstructionSize = 8

// Instruction is the decoded form of one 8-byte instruction record.
type Instruction struct {
	Opcode   Opcode
	TypeTag  TypeTag
	Arg1     uint16
	Arg2     uint16
	Arg3     uint16
}

func NewInstruction(op Opcode, tt TypeTag, arg1, arg2, arg3 uint16) Instruction {
	return Instruction{Opcode: op, TypeTag: tt, Arg1: arg1, Arg2: arg2, Arg3: arg3}
}

// Encode writes the instruction's 8-byte little-endian wire form.
func (i Instruction) Encode() [InstructionSize]byte {
	var buf [InstructionSize]byte
	buf[0] = byte(i.Opcode)
	buf[1] = byte(i.TypeTag)
	binary.LittleEndian.PutUint16(buf[2:4], i.Arg1)
	binary.LittleEndian.PutUint16(buf[4:6], i.Arg2)
	binary.LittleEndian.PutUint16(buf[6:8], i.Arg3)
	return buf
}

// DecodeInstruction decodes a single 8-byte record.
func DecodeInstruction(buf [InstructionSize]byte) (Instruction, error) {
	op := Opcode(buf[0])
	if buf[0] == 0x00 {
		return Instruction{}, errIllegalOpcode()
	}
	if !IsValidOpcode(buf[0]) {
		return Instruction{}, errReservedOpcode(buf[0])
	}

	tt := TypeTag(buf[1])
	if !IsValidTypeTag(buf[1]) {
		return Instruction{}, errReservedTypeTag(buf[1])
	}

	return Instruction{
		Opcode:  op,
		TypeTag: tt,
		Arg1:    binary.LittleEndian.Uint16(buf[2:4]),
		Arg2:    binary.LittleEndian.Uint16(buf[4:6]),
		Arg3:    binary.LittleEndian.Uint16(buf[6:8]),
	}, nil
}

// ConstValue projects a CONST instruction's arg1/arg2 pair into a runtime
// Value according to its type tag. Only valid when Opcode == Const; all
// other opcodes return (Value{}, false).
//
// The 32-bit composite is (arg1<<16)|arg2. I64 sign-extends it, U64
// zero-extends it, Bool treats arg1 as a truth flag, Char treats arg1 as a
// Unicode codepoint, and Unit ignores both. Every other type tag is not a
// projectable CONST shape.
func (i Instruction) ConstValue() (Value, bool) {
	if i.Opcode != Const {
		return Value{}, false
	}

	val32 := (uint32(i.Arg1) << 16) | uint32(i.Arg2)

	switch i.TypeTag {
	case I64:
		return NewI64(int64(int32(val32))), true
	case U64:
		return NewU64(uint64(val32)), true
	case Bool:
		return NewBool(i.Arg1 != 0), true
	case Char:
		r := rune(i.Arg1)
		if !isValidCodepoint(uint32(i.Arg1)) {
			return Value{}, false
		}
		return NewChar(r), true
	case Unit:
		return NewUnit(), true
	default:
		return Value{}, false
	}
}

func isValidCodepoint(cp uint32) bool {
	if cp > 0x10FFFF {
		return false
	}
	if cp >= 0xD800 && cp <= 0xDFFF {
		return false
	}
	return true
}
