package insts

// Instruction is the structural view of a 32-bit MIPS instruction word.
// It is produced by Decode and never modified afterwards.
type Instruction struct {
	Raw    uint32 // Undecoded word
	Opcode Opcode // bits [31:26]
	Rs     uint8  // bits [25:21]
	Rt     uint8  // bits [20:16]
	Rd     uint8  // bits [15:11]
	Shamt  uint8  // bits [10:6]
	Funct  Funct  // bits [5:0], meaningful for SPECIAL
	Imm    uint16 // bits [15:0]
}

// Decoder decodes MIPS machine code into instructions.
type Decoder struct{}

// NewDecoder creates a new MIPS instruction decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode decodes a 32-bit instruction word.
func (d *Decoder) Decode(word uint32) Instruction {
	return Decode(word)
}

// Decode splits a 32-bit word into its fields. It is total: unknown opcodes
// still decode.
func Decode(word uint32) Instruction {
	return Instruction{
		Raw:    word,
		Opcode: Opcode(word >> 26),
		Rs:     uint8((word >> 21) & 0x1F),
		Rt:     uint8((word >> 16) & 0x1F),
		Rd:     uint8((word >> 11) & 0x1F),
		Shamt:  uint8((word >> 6) & 0x1F),
		Funct:  Funct(word & 0x3F),
		Imm:    uint16(word),
	}
}

// ZImm returns the immediate zero-extended to 32 bits.
func (i Instruction) ZImm() uint32 {
	return uint32(i.Imm)
}

// SImm returns the immediate sign-extended to 32 bits.
func (i Instruction) SImm() uint32 {
	return uint32(int32(int16(i.Imm)))
}

// BranchOffset returns the sign-extended, word-scaled branch displacement.
func (i Instruction) BranchOffset() uint32 {
	return i.SImm() << 2
}

// Target returns the 26-bit jump target field.
func (i Instruction) Target() uint32 {
	return i.Raw & 0x03FFFFFF
}

// CopOp returns the coprocessor sub-operation (rs field) of a COPz word.
func (i Instruction) CopOp() CopOp {
	return CopOp(i.Rs)
}

// IsCopCommand reports whether a COPz word is a coprocessor command
// (bit 25 set) rather than a register move.
func (i Instruction) IsCopCommand() bool {
	return i.Raw&(1<<25) != 0
}

// CopFunct returns the 25-bit command field of a coprocessor command.
func (i Instruction) CopFunct() uint32 {
	return i.Raw & 0x01FFFFFF
}

// CopNum returns the coprocessor number encoded in a COPz/LWCz/SWCz opcode.
func (i Instruction) CopNum() uint8 {
	return uint8(i.Opcode) & 0x3
}

// Name returns the mnemonic of the instruction, or "unknown".
func Name(i Instruction) string {
	switch i.Opcode {
	case OpSPECIAL:
		if n, ok := functNames[i.Funct]; ok {
			return n
		}
		return "unknown"
	case OpREGIMM:
		link := i.Rt&0x1E == 0x10
		switch {
		case i.Rt&1 != 0 && link:
			return "bgezal"
		case i.Rt&1 != 0:
			return "bgez"
		case link:
			return "bltzal"
		default:
			return "bltz"
		}
	case OpCOP0, OpCOP2:
		if i.IsCopCommand() {
			if i.Opcode == OpCOP0 && i.Funct == FnRFE {
				return "rfe"
			}
			return i.Opcode.String()
		}
		suffix := "0"
		if i.Opcode == OpCOP2 {
			suffix = "2"
		}
		switch i.CopOp() {
		case CopMF:
			return "mfc" + suffix
		case CopCF:
			return "cfc" + suffix
		case CopMT:
			return "mtc" + suffix
		case CopCT:
			return "ctc" + suffix
		}
		return "unknown"
	}
	if n, ok := opcodeNames[i.Opcode]; ok {
		return n
	}
	return "unknown"
}
