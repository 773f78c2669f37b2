package emu

import (
	"github.com/sirupsen/logrus"

	"github.com/sarchlab/gfusx/insts"
)

// Handler executes one decoded instruction against the emulator.
type Handler func(e *Emulator, inst insts.Instruction)

type entry struct {
	name string
	fn   Handler
}

// Dispatcher maps instruction codes to handlers. The primary opcode selects
// the first level; SPECIAL is dispatched again on funct and COP0/COP2 on
// the rs sub-operation field.
type Dispatcher struct {
	primary [64]entry
	special [64]entry
	cop0    [32]entry
	cop2    [32]entry
}

// NewDispatcher creates a dispatcher populated with the R3000A instruction
// set.
func NewDispatcher() *Dispatcher {
	d := &Dispatcher{}

	d.RegisterPrimary(insts.OpSPECIAL, "special", executeSpecial)
	d.RegisterPrimary(insts.OpREGIMM, "regimm", (*Emulator).execREGIMM)
	d.RegisterPrimary(insts.OpJ, "j", (*Emulator).execJ)
	d.RegisterPrimary(insts.OpJAL, "jal", (*Emulator).execJAL)
	d.RegisterPrimary(insts.OpBEQ, "beq", (*Emulator).execBEQ)
	d.RegisterPrimary(insts.OpBNE, "bne", (*Emulator).execBNE)
	d.RegisterPrimary(insts.OpBLEZ, "blez", (*Emulator).execBLEZ)
	d.RegisterPrimary(insts.OpBGTZ, "bgtz", (*Emulator).execBGTZ)
	d.RegisterPrimary(insts.OpADDI, "addi", (*Emulator).execADDI)
	d.RegisterPrimary(insts.OpADDIU, "addiu", (*Emulator).execADDIU)
	d.RegisterPrimary(insts.OpSLTI, "slti", (*Emulator).execSLTI)
	d.RegisterPrimary(insts.OpSLTIU, "sltiu", (*Emulator).execSLTIU)
	d.RegisterPrimary(insts.OpANDI, "andi", (*Emulator).execANDI)
	d.RegisterPrimary(insts.OpORI, "ori", (*Emulator).execORI)
	d.RegisterPrimary(insts.OpXORI, "xori", (*Emulator).execXORI)
	d.RegisterPrimary(insts.OpLUI, "lui", (*Emulator).execLUI)
	d.RegisterPrimary(insts.OpCOP0, "cop0", executeCop0)
	d.RegisterPrimary(insts.OpCOP1, "cop1", (*Emulator).execCopUnusable)
	d.RegisterPrimary(insts.OpCOP2, "cop2", executeCop2)
	d.RegisterPrimary(insts.OpCOP3, "cop3", (*Emulator).execCopUnusable)
	d.RegisterPrimary(insts.OpLB, "lb", (*Emulator).execLB)
	d.RegisterPrimary(insts.OpLH, "lh", (*Emulator).execLH)
	d.RegisterPrimary(insts.OpLWL, "lwl", (*Emulator).execLWL)
	d.RegisterPrimary(insts.OpLW, "lw", (*Emulator).execLW)
	d.RegisterPrimary(insts.OpLBU, "lbu", (*Emulator).execLBU)
	d.RegisterPrimary(insts.OpLHU, "lhu", (*Emulator).execLHU)
	d.RegisterPrimary(insts.OpLWR, "lwr", (*Emulator).execLWR)
	d.RegisterPrimary(insts.OpSB, "sb", (*Emulator).execSB)
	d.RegisterPrimary(insts.OpSH, "sh", (*Emulator).execSH)
	d.RegisterPrimary(insts.OpSWL, "swl", (*Emulator).execSWL)
	d.RegisterPrimary(insts.OpSW, "sw", (*Emulator).execSW)
	d.RegisterPrimary(insts.OpSWR, "swr", (*Emulator).execSWR)
	d.RegisterPrimary(insts.OpLWC2, "lwc2", (*Emulator).execLWC2)
	d.RegisterPrimary(insts.OpSWC2, "swc2", (*Emulator).execSWC2)

	d.RegisterSpecial(insts.FnSLL, "sll", (*Emulator).execSLL)
	d.RegisterSpecial(insts.FnSRL, "srl", (*Emulator).execSRL)
	d.RegisterSpecial(insts.FnSRA, "sra", (*Emulator).execSRA)
	d.RegisterSpecial(insts.FnSLLV, "sllv", (*Emulator).execSLLV)
	d.RegisterSpecial(insts.FnSRLV, "srlv", (*Emulator).execSRLV)
	d.RegisterSpecial(insts.FnSRAV, "srav", (*Emulator).execSRAV)
	d.RegisterSpecial(insts.FnJR, "jr", (*Emulator).execJR)
	d.RegisterSpecial(insts.FnJALR, "jalr", (*Emulator).execJALR)
	d.RegisterSpecial(insts.FnSYSCALL, "syscall", (*Emulator).execSYSCALL)
	d.RegisterSpecial(insts.FnBREAK, "break", (*Emulator).execBREAK)
	d.RegisterSpecial(insts.FnMFHI, "mfhi", (*Emulator).execMFHI)
	d.RegisterSpecial(insts.FnMTHI, "mthi", (*Emulator).execMTHI)
	d.RegisterSpecial(insts.FnMFLO, "mflo", (*Emulator).execMFLO)
	d.RegisterSpecial(insts.FnMTLO, "mtlo", (*Emulator).execMTLO)
	d.RegisterSpecial(insts.FnMULT, "mult", (*Emulator).execMULT)
	d.RegisterSpecial(insts.FnMULTU, "multu", (*Emulator).execMULTU)
	d.RegisterSpecial(insts.FnDIV, "div", (*Emulator).execDIV)
	d.RegisterSpecial(insts.FnDIVU, "divu", (*Emulator).execDIVU)
	d.RegisterSpecial(insts.FnADD, "add", (*Emulator).execADD)
	d.RegisterSpecial(insts.FnADDU, "addu", (*Emulator).execADDU)
	d.RegisterSpecial(insts.FnSUB, "sub", (*Emulator).execSUB)
	d.RegisterSpecial(insts.FnSUBU, "subu", (*Emulator).execSUBU)
	d.RegisterSpecial(insts.FnAND, "and", (*Emulator).execAND)
	d.RegisterSpecial(insts.FnOR, "or", (*Emulator).execOR)
	d.RegisterSpecial(insts.FnXOR, "xor", (*Emulator).execXOR)
	d.RegisterSpecial(insts.FnNOR, "nor", (*Emulator).execNOR)
	d.RegisterSpecial(insts.FnSLT, "slt", (*Emulator).execSLT)
	d.RegisterSpecial(insts.FnSLTU, "sltu", (*Emulator).execSLTU)

	d.RegisterCop0(insts.CopMF, "mfc0", (*Emulator).execMFC0)
	d.RegisterCop0(insts.CopMT, "mtc0", (*Emulator).execMTC0)
	d.RegisterCop2(insts.CopMF, "mfc2", (*Emulator).execMFC2)
	d.RegisterCop2(insts.CopCF, "cfc2", (*Emulator).execCFC2)
	d.RegisterCop2(insts.CopMT, "mtc2", (*Emulator).execMTC2)
	d.RegisterCop2(insts.CopCT, "ctc2", (*Emulator).execCTC2)

	// Every rs value with bit 4 set is a coprocessor command.
	for op := insts.CopCO; op < 0x20; op++ {
		d.RegisterCop0(op, "cop0 command", (*Emulator).execCop0Command)
		d.RegisterCop2(op, "cop2 command", (*Emulator).execCop2Command)
	}

	return d
}

// RegisterPrimary binds a handler to a primary opcode, replacing any
// previous binding.
func (d *Dispatcher) RegisterPrimary(op insts.Opcode, name string, h Handler) {
	d.primary[op&0x3F] = entry{name: name, fn: h}
}

// RegisterSpecial binds a handler to a SPECIAL funct code.
func (d *Dispatcher) RegisterSpecial(fn insts.Funct, name string, h Handler) {
	d.special[fn&0x3F] = entry{name: name, fn: h}
}

// RegisterCop0 binds a handler to a COP0 sub-operation.
func (d *Dispatcher) RegisterCop0(op insts.CopOp, name string, h Handler) {
	d.cop0[op&0x1F] = entry{name: name, fn: h}
}

// RegisterCop2 binds a handler to a COP2 sub-operation.
func (d *Dispatcher) RegisterCop2(op insts.CopOp, name string, h Handler) {
	d.cop2[op&0x1F] = entry{name: name, fn: h}
}

// Lookup returns the name of the handler that would run inst, or false if
// the instruction is not implemented.
func (d *Dispatcher) Lookup(inst insts.Instruction) (string, bool) {
	var ent entry
	switch inst.Opcode {
	case insts.OpSPECIAL:
		ent = d.special[inst.Funct]
	case insts.OpCOP0:
		ent = d.cop0[inst.Rs]
	case insts.OpCOP2:
		ent = d.cop2[inst.Rs]
	default:
		ent = d.primary[inst.Opcode]
	}
	return ent.name, ent.fn != nil
}

func (d *Dispatcher) execute(e *Emulator, inst insts.Instruction) {
	ent := d.primary[inst.Opcode]
	if ent.fn == nil {
		e.logf(logrus.WarnLevel, LogCPU, "Unimplemented opcode %02X.", uint8(inst.Opcode))
		return
	}
	ent.fn(e, inst)
}

func executeSpecial(e *Emulator, inst insts.Instruction) {
	ent := e.dispatcher.special[inst.Funct]
	if ent.fn == nil {
		e.logf(logrus.WarnLevel, LogCPU, "Unimplemented SPECIAL funct %02X.", uint8(inst.Funct))
		return
	}
	ent.fn(e, inst)
}

func executeCop0(e *Emulator, inst insts.Instruction) {
	ent := e.dispatcher.cop0[inst.Rs]
	if ent.fn == nil {
		e.logf(logrus.WarnLevel, LogCPU, "Unimplemented COP0 operation %02X.", inst.Rs)
		return
	}
	ent.fn(e, inst)
}

func executeCop2(e *Emulator, inst insts.Instruction) {
	ent := e.dispatcher.cop2[inst.Rs]
	if ent.fn == nil {
		e.logf(logrus.WarnLevel, LogCPU, "Unimplemented COP2 operation %02X.", inst.Rs)
		return
	}
	ent.fn(e, inst)
}
