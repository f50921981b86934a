// Package nolang defines the wire format and runtime value model shared by
// the verifier, the VM, the assembler, and the witness harness.
//
// An instruction is a fixed 8-byte record:
//
//	byte 0:  opcode
//	byte 1:  type tag
//	bytes 2-3: arg1 (u16, little-endian)
//	bytes 4-5: arg2 (u16, little-endian)
//	bytes 6-7: arg3 (u16, little-endian)
//
// There are 45 closed opcodes across eight byte ranges ([0x01, 0x05],
// [0x10, 0x15], [0x20, 0x25], [0x30, 0x35], [0x40, 0x42], [0x50, 0x57],
// [0x60, 0x65], [0x70, 0x72], plus HALT at 0xFE and NOP at 0xFF). Byte 0x00
// is permanently illegal so that a zeroed buffer never decodes as a valid
// program. The set is closed: no other opcode will ever be added to this
// file without a corresponding change to the verifier and VM dispatch
// tables below.
package nolang

type Opcode byte

const (
	Bind Opcode = 0x01
	Ref  Opcode = 0x02
	Drop Opcode = 0x03

	Const    Opcode = 0x04
	ConstExt Opcode = 0x05

	Add Opcode = 0x10
	Sub Opcode = 0x11
	Mul Opcode = 0x12
	Div Opcode = 0x13
	Mod Opcode = 0x14
	Neg Opcode = 0x15

	Eq  Opcode = 0x20
	Neq Opcode = 0x21
	Lt  Opcode = 0x22
	Gt  Opcode = 0x23
	Lte Opcode = 0x24
	Gte Opcode = 0x25

	And Opcode = 0x30
	Or  Opcode = 0x31
	Not Opcode = 0x32
	Xor Opcode = 0x33
	Shl Opcode = 0x34
	Shr Opcode = 0x35

	Match   Opcode = 0x40
	Case    Opcode = 0x41
	Exhaust Opcode = 0x42

	Func    Opcode = 0x50
	Pre     Opcode = 0x51
	Post    Opcode = 0x52
	Ret     Opcode = 0x53
	Call    Opcode = 0x54
	Recurse Opcode = 0x55
	EndFunc Opcode = 0x56
	Param   Opcode = 0x57

	VariantNew Opcode = 0x60
	TupleNew   Opcode = 0x61
	Project    Opcode = 0x62
	ArrayNew   Opcode = 0x63
	ArrayGet   Opcode = 0x64
	ArrayLen   Opcode = 0x65

	Hash   Opcode = 0x70
	Assert Opcode = 0x71
	Typeof Opcode = 0x72

	Halt Opcode = 0xFE
	Nop  Opcode = 0xFF
)

// AllOpcodes lists every valid opcode, in declaration order. Used by the
// assembler for mnemonic lookup and by tests that want to walk the full
// closed set.
var AllOpcodes = []Opcode{
	Bind, Ref, Drop,
	Const, ConstExt,
	Add, Sub, Mul, Div, Mod, Neg,
	Eq, Neq, Lt, Gt, Lte, Gte,
	And, Or, Not, Xor, Shl, Shr,
	Match, Case, Exhaust,
	Func, Pre, Post, Ret, Call, Recurse, EndFunc, Param,
	VariantNew, TupleNew, Project, ArrayNew, ArrayGet, ArrayLen,
	Hash, Assert, Typeof,
	Halt, Nop,
}

var opcodeMnemonics = map[Opcode]string{
	Bind: "BIND",
	Ref:  "REF",
	Drop: "DROP",

	Const:    "CONST",
	ConstExt: "CONST_EXT",

	Add: "ADD",
	Sub: "SUB",
	Mul: "MUL",
	Div: "DIV",
	Mod: "MOD",
	Neg: "NEG",

	Eq:  "EQ",
	Neq: "NEQ",
	Lt:  "LT",
	Gt:  "GT",
	Lte: "LTE",
	Gte: "GTE",

	And: "AND",
	Or:  "OR",
	Not: "NOT",
	Xor: "XOR",
	Shl: "SHL",
	Shr: "SHR",

	Match:   "MATCH",
	Case:    "CASE",
	Exhaust: "EXHAUST",

	Func:    "FUNC",
	Pre:     "PRE",
	Post:    "POST",
	Ret:     "RET",
	Call:    "CALL",
	Recurse: "RECURSE",
	EndFunc: "ENDFUNC",
	Param:   "PARAM",

	VariantNew: "VARIANT_NEW",
	TupleNew:   "TUPLE_NEW",
	Project:    "PROJECT",
	ArrayNew:   "ARRAY_NEW",
	ArrayGet:   "ARRAY_GET",
	ArrayLen:   "ARRAY_LEN",

	Hash:   "HASH",
	Assert: "ASSERT",
	Typeof: "TYPEOF",

	Halt: "HALT",
	Nop:  "NOP",
}

// mnemonicToOpcode is the reverse of opcodeMnemonics, built once in init()
// rather than maintained by hand alongside it.
var mnemonicToOpcode map[string]Opcode

func init() {
	mnemonicToOpcode = make(map[string]Opcode, len(opcodeMnemonics))
	for op, mnemonic := range opcodeMnemonics {
		mnemonicToOpcode[mnemonic] = op
	}
}

// Mnemonic returns the uppercase assembly mnemonic for an opcode, or
// "?unknown?" if the byte is not one of the 45 closed opcodes.
func (o Opcode) Mnemonic() string {
	m, ok := opcodeMnemonics[o]
	if !ok {
		return "?unknown?"
	}
	return m
}

func (o Opcode) String() string {
	return o.Mnemonic()
}

// OpcodeByMnemonic looks up an opcode by its uppercase mnemonic, as used by
// the assembler's parser.
func OpcodeByMnemonic(mnemonic string) (Opcode, bool) {
	op, ok := mnemonicToOpcode[mnemonic]
	return op, ok
}

// IsValidOpcode reports whether b is one of the 45 closed opcodes.
func IsValidOpcode(b byte) bool {
	_, ok := opcodeMnemonics[Opcode(b)]
	return ok
}
