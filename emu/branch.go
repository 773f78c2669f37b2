package emu

import "github.com/sarchlab/gfusx/insts"

// Branch targets are computed from PC, which already points at the delay
// slot when a handler runs.

// branchRelative takes a PC-relative branch if cond holds.
func (e *Emulator) branchRelative(inst insts.Instruction, cond bool) {
	if cond {
		e.branch(e.PC + inst.BranchOffset())
	}
}

// execJ jumps within the current 256 MiB region.
func (e *Emulator) execJ(inst insts.Instruction) {
	e.branch(e.PC&0xF0000000 | inst.Target()<<2)
}

// execJAL jumps and links the address after the delay slot into RA.
func (e *Emulator) execJAL(inst insts.Instruction) {
	e.writeGPR(insts.RegRA, e.PC+InstructionWidth)
	e.branch(e.PC&0xF0000000 | inst.Target()<<2)
}

// execJR jumps to the address in rs.
func (e *Emulator) execJR(inst insts.Instruction) {
	e.branch(e.readGPR(inst.Rs))
}

// execJALR jumps to rs and links into rd. rs is read before rd is written.
func (e *Emulator) execJALR(inst insts.Instruction) {
	target := e.readGPR(inst.Rs)
	e.writeGPR(inst.Rd, e.PC+InstructionWidth)
	e.branch(target)
}

func (e *Emulator) execBEQ(inst insts.Instruction) {
	e.branchRelative(inst, e.readGPR(inst.Rs) == e.readGPR(inst.Rt))
}

func (e *Emulator) execBNE(inst insts.Instruction) {
	e.branchRelative(inst, e.readGPR(inst.Rs) != e.readGPR(inst.Rt))
}

func (e *Emulator) execBLEZ(inst insts.Instruction) {
	e.branchRelative(inst, int32(e.readGPR(inst.Rs)) <= 0)
}

func (e *Emulator) execBGTZ(inst insts.Instruction) {
	e.branchRelative(inst, int32(e.readGPR(inst.Rs)) > 0)
}

// execREGIMM handles BLTZ, BGEZ, BLTZAL and BGEZAL. Like the hardware, only
// bit 16 (greater or equal) and rt&0x1E == 0x10 (link) of rt are decoded,
// and the link register is written whether or not the branch is taken.
func (e *Emulator) execREGIMM(inst insts.Instruction) {
	v := int32(e.readGPR(inst.Rs))

	cond := v < 0
	if inst.Rt&1 != 0 {
		cond = v >= 0
	}

	if inst.Rt&0x1E == 0x10 {
		e.writeGPR(insts.RegRA, e.PC+InstructionWidth)
	}

	e.branchRelative(inst, cond)
}
