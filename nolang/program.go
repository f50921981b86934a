package nolang

// Program is a decoded NoLang instruction stream. It carries no knowledge
// of whether it has been verified — that is the verifier's job, and the VM
// deliberately accepts Programs that have never been through it.
type Program struct {
	Instructions []Instruction
}

func NewProgram(instrs []Instruction) *Program {
	return &Program{Instructions: instrs}
}

// Encode concatenates every instruction's 8-byte wire form.
func (p *Program) Encode() []byte {
	out := make([]byte, 0, len(p.Instructions)*InstructionSize)
	for _, instr := range p.Instructions {
		enc := instr.Encode()
		out = append(out, enc[:]...)
	}
	return out
}

// DecodeProgram decodes a raw byte stream into a Program. The stream length
// must be a multiple of InstructionSize.
func DecodeProgram(data []byte) (*Program, error) {
	if len(data)%InstructionSize != 0 {
		return nil, errInvalidLength(len(data))
	}

	instrs := make([]Instruction, 0, len(data)/InstructionSize)
	for off := 0; off < len(data); off += InstructionSize {
		var buf [InstructionSize]byte
		copy(buf[:], data[off:off+InstructionSize])
		instr, err := DecodeInstruction(buf)
		if err != nil {
			return nil, err
		}
		instrs = append(instrs, instr)
	}

	return &Program{Instructions: instrs}, nil
}

func (p *Program) Len() int {
	return len(p.Instructions)
}

func (p *Program) IsEmpty() bool {
	return len(p.Instructions) == 0
}
