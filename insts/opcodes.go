package insts

import "fmt"

// Opcode is the 6-bit primary opcode in bits [31:26].
type Opcode uint8

// Primary opcodes.
const (
	OpSPECIAL Opcode = 0x00
	OpREGIMM  Opcode = 0x01
	OpJ       Opcode = 0x02
	OpJAL     Opcode = 0x03
	OpBEQ     Opcode = 0x04
	OpBNE     Opcode = 0x05
	OpBLEZ    Opcode = 0x06
	OpBGTZ    Opcode = 0x07
	OpADDI    Opcode = 0x08
	OpADDIU   Opcode = 0x09
	OpSLTI    Opcode = 0x0A
	OpSLTIU   Opcode = 0x0B
	OpANDI    Opcode = 0x0C
	OpORI     Opcode = 0x0D
	OpXORI    Opcode = 0x0E
	OpLUI     Opcode = 0x0F
	OpCOP0    Opcode = 0x10
	OpCOP1    Opcode = 0x11
	OpCOP2    Opcode = 0x12
	OpCOP3    Opcode = 0x13
	OpLB      Opcode = 0x20
	OpLH      Opcode = 0x21
	OpLWL     Opcode = 0x22
	OpLW      Opcode = 0x23
	OpLBU     Opcode = 0x24
	OpLHU     Opcode = 0x25
	OpLWR     Opcode = 0x26
	OpSB      Opcode = 0x28
	OpSH      Opcode = 0x29
	OpSWL     Opcode = 0x2A
	OpSW      Opcode = 0x2B
	OpSWR     Opcode = 0x2E
	OpLWC2    Opcode = 0x32
	OpSWC2    Opcode = 0x3A
)

// Funct is the 6-bit secondary opcode in bits [5:0] of SPECIAL instructions.
type Funct uint8

// SPECIAL funct codes.
const (
	FnSLL     Funct = 0x00
	FnSRL     Funct = 0x02
	FnSRA     Funct = 0x03
	FnSLLV    Funct = 0x04
	FnSRLV    Funct = 0x06
	FnSRAV    Funct = 0x07
	FnJR      Funct = 0x08
	FnJALR    Funct = 0x09
	FnSYSCALL Funct = 0x0C
	FnBREAK   Funct = 0x0D
	FnMFHI    Funct = 0x10
	FnMTHI    Funct = 0x11
	FnMFLO    Funct = 0x12
	FnMTLO    Funct = 0x13
	FnMULT    Funct = 0x18
	FnMULTU   Funct = 0x19
	FnDIV     Funct = 0x1A
	FnDIVU    Funct = 0x1B
	FnADD     Funct = 0x20
	FnADDU    Funct = 0x21
	FnSUB     Funct = 0x22
	FnSUBU    Funct = 0x23
	FnAND     Funct = 0x24
	FnOR      Funct = 0x25
	FnXOR     Funct = 0x26
	FnNOR     Funct = 0x27
	FnSLT     Funct = 0x2A
	FnSLTU    Funct = 0x2B
)

// REGIMM rt selectors. The hardware decodes bit 16 as "greater or equal" and
// rt&0x1E == 0x10 as "and link"; these are the canonical encodings.
const (
	RtBLTZ   uint8 = 0x00
	RtBGEZ   uint8 = 0x01
	RtBLTZAL uint8 = 0x10
	RtBGEZAL uint8 = 0x11
)

// CopOp is the coprocessor sub-operation held in the rs field of COPz words.
type CopOp uint8

// Coprocessor sub-operations. Values with bit 4 set are coprocessor commands.
const (
	CopMF CopOp = 0x00
	CopCF CopOp = 0x02
	CopMT CopOp = 0x04
	CopCT CopOp = 0x06
	CopBC CopOp = 0x08
	CopCO CopOp = 0x10
)

// FnRFE is the COP0 command that pops the status mode stack.
const FnRFE Funct = 0x10

var opcodeNames = map[Opcode]string{
	OpSPECIAL: "special", OpREGIMM: "regimm", OpJ: "j", OpJAL: "jal",
	OpBEQ: "beq", OpBNE: "bne", OpBLEZ: "blez", OpBGTZ: "bgtz",
	OpADDI: "addi", OpADDIU: "addiu", OpSLTI: "slti", OpSLTIU: "sltiu",
	OpANDI: "andi", OpORI: "ori", OpXORI: "xori", OpLUI: "lui",
	OpCOP0: "cop0", OpCOP1: "cop1", OpCOP2: "cop2", OpCOP3: "cop3",
	OpLB: "lb", OpLH: "lh", OpLWL: "lwl", OpLW: "lw",
	OpLBU: "lbu", OpLHU: "lhu", OpLWR: "lwr",
	OpSB: "sb", OpSH: "sh", OpSWL: "swl", OpSW: "sw", OpSWR: "swr",
	OpLWC2: "lwc2", OpSWC2: "swc2",
}

var functNames = map[Funct]string{
	FnSLL: "sll", FnSRL: "srl", FnSRA: "sra",
	FnSLLV: "sllv", FnSRLV: "srlv", FnSRAV: "srav",
	FnJR: "jr", FnJALR: "jalr", FnSYSCALL: "syscall", FnBREAK: "break",
	FnMFHI: "mfhi", FnMTHI: "mthi", FnMFLO: "mflo", FnMTLO: "mtlo",
	FnMULT: "mult", FnMULTU: "multu", FnDIV: "div", FnDIVU: "divu",
	FnADD: "add", FnADDU: "addu", FnSUB: "sub", FnSUBU: "subu",
	FnAND: "and", FnOR: "or", FnXOR: "xor", FnNOR: "nor",
	FnSLT: "slt", FnSLTU: "sltu",
}

func (o Opcode) String() string {
	if n, ok := opcodeNames[o]; ok {
		return n
	}
	return fmt.Sprintf("op%02X", uint8(o))
}

func (f Funct) String() string {
	if n, ok := functNames[f]; ok {
		return n
	}
	return fmt.Sprintf("fn%02X", uint8(f))
}
