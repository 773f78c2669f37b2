package emu

import (
	"github.com/sirupsen/logrus"

	"github.com/sarchlab/gfusx/insts"
)

// addOverflows reports signed overflow of a + b = sum: both operands share a
// sign that the result does not.
func addOverflows(a, b, sum uint32) bool {
	return ((a^sum)&(b^sum))>>31 != 0
}

// subOverflows reports signed overflow of a - b = diff.
func subOverflows(a, b, diff uint32) bool {
	return ((a^b)&(a^diff))>>31 != 0
}

// execADD executes the trapping rd <- rs + rt.
func (e *Emulator) execADD(inst insts.Instruction) {
	rs, rt := e.readGPR(inst.Rs), e.readGPR(inst.Rt)
	result := rs + rt

	if e.settings.Debug && addOverflows(rs, rt, result) {
		e.PC -= InstructionWidth
		e.logf(logrus.InfoLevel, LogCPU, "Signed overflow in ADD instruction from 0x%08X.", e.PC)
		e.exception(ExcArithmeticOverflow, e.InDelaySlot, false)
		return
	}

	e.writeGPR(inst.Rd, result)
}

// execADDU executes rd <- rs + rt.
func (e *Emulator) execADDU(inst insts.Instruction) {
	e.writeGPR(inst.Rd, e.readGPR(inst.Rs)+e.readGPR(inst.Rt))
}

// execSUB executes the trapping rd <- rs - rt.
func (e *Emulator) execSUB(inst insts.Instruction) {
	rs, rt := e.readGPR(inst.Rs), e.readGPR(inst.Rt)
	result := rs - rt

	if e.settings.Debug && subOverflows(rs, rt, result) {
		e.PC -= InstructionWidth
		e.logf(logrus.InfoLevel, LogCPU, "Signed overflow in SUB instruction from 0x%08X.", e.PC)
		e.exception(ExcArithmeticOverflow, e.InDelaySlot, false)
		return
	}

	e.writeGPR(inst.Rd, result)
}

// execSUBU executes rd <- rs - rt.
func (e *Emulator) execSUBU(inst insts.Instruction) {
	e.writeGPR(inst.Rd, e.readGPR(inst.Rs)-e.readGPR(inst.Rt))
}

func (e *Emulator) execAND(inst insts.Instruction) {
	e.writeGPR(inst.Rd, e.readGPR(inst.Rs)&e.readGPR(inst.Rt))
}

func (e *Emulator) execOR(inst insts.Instruction) {
	e.writeGPR(inst.Rd, e.readGPR(inst.Rs)|e.readGPR(inst.Rt))
}

func (e *Emulator) execXOR(inst insts.Instruction) {
	e.writeGPR(inst.Rd, e.readGPR(inst.Rs)^e.readGPR(inst.Rt))
}

func (e *Emulator) execNOR(inst insts.Instruction) {
	e.writeGPR(inst.Rd, ^(e.readGPR(inst.Rs) | e.readGPR(inst.Rt)))
}

func (e *Emulator) execSLT(inst insts.Instruction) {
	e.writeGPR(inst.Rd, boolToWord(int32(e.readGPR(inst.Rs)) < int32(e.readGPR(inst.Rt))))
}

func (e *Emulator) execSLTU(inst insts.Instruction) {
	e.writeGPR(inst.Rd, boolToWord(e.readGPR(inst.Rs) < e.readGPR(inst.Rt)))
}

// execADDI executes the trapping rt <- rs + simm.
func (e *Emulator) execADDI(inst insts.Instruction) {
	rs, imm := e.readGPR(inst.Rs), inst.SImm()
	result := rs + imm

	if e.settings.Debug && addOverflows(rs, imm, result) {
		e.PC -= InstructionWidth
		e.logf(logrus.InfoLevel, LogCPU, "Signed overflow in ADDI instruction from 0x%08X.", e.PC)
		e.exception(ExcArithmeticOverflow, e.InDelaySlot, false)
		return
	}

	e.writeGPR(inst.Rt, result)
}

// execADDIU executes rt <- rs + simm.
func (e *Emulator) execADDIU(inst insts.Instruction) {
	e.writeGPR(inst.Rt, e.readGPR(inst.Rs)+inst.SImm())
}

func (e *Emulator) execSLTI(inst insts.Instruction) {
	e.writeGPR(inst.Rt, boolToWord(int32(e.readGPR(inst.Rs)) < int32(inst.SImm())))
}

// execSLTIU compares unsigned against the sign-extended immediate.
func (e *Emulator) execSLTIU(inst insts.Instruction) {
	e.writeGPR(inst.Rt, boolToWord(e.readGPR(inst.Rs) < inst.SImm()))
}

func (e *Emulator) execANDI(inst insts.Instruction) {
	e.writeGPR(inst.Rt, e.readGPR(inst.Rs)&inst.ZImm())
}

// execORI executes rt <- rs | imm.
func (e *Emulator) execORI(inst insts.Instruction) {
	e.writeGPR(inst.Rt, e.readGPR(inst.Rs)|inst.ZImm())
}

func (e *Emulator) execXORI(inst insts.Instruction) {
	e.writeGPR(inst.Rt, e.readGPR(inst.Rs)^inst.ZImm())
}

func (e *Emulator) execLUI(inst insts.Instruction) {
	e.writeGPR(inst.Rt, inst.ZImm()<<16)
}

func (e *Emulator) execSLL(inst insts.Instruction) {
	e.writeGPR(inst.Rd, e.readGPR(inst.Rt)<<inst.Shamt)
}

func (e *Emulator) execSRL(inst insts.Instruction) {
	e.writeGPR(inst.Rd, e.readGPR(inst.Rt)>>inst.Shamt)
}

func (e *Emulator) execSRA(inst insts.Instruction) {
	e.writeGPR(inst.Rd, uint32(int32(e.readGPR(inst.Rt))>>inst.Shamt))
}

func (e *Emulator) execSLLV(inst insts.Instruction) {
	e.writeGPR(inst.Rd, e.readGPR(inst.Rt)<<(e.readGPR(inst.Rs)&0x1F))
}

func (e *Emulator) execSRLV(inst insts.Instruction) {
	e.writeGPR(inst.Rd, e.readGPR(inst.Rt)>>(e.readGPR(inst.Rs)&0x1F))
}

func (e *Emulator) execSRAV(inst insts.Instruction) {
	e.writeGPR(inst.Rd, uint32(int32(e.readGPR(inst.Rt))>>(e.readGPR(inst.Rs)&0x1F)))
}

func (e *Emulator) execMFHI(inst insts.Instruction) {
	e.writeGPR(inst.Rd, e.GPR.HI)
}

func (e *Emulator) execMFLO(inst insts.Instruction) {
	e.writeGPR(inst.Rd, e.GPR.LO)
}

func (e *Emulator) execMTHI(inst insts.Instruction) {
	e.GPR.HI = e.readGPR(inst.Rs)
}

func (e *Emulator) execMTLO(inst insts.Instruction) {
	e.GPR.LO = e.readGPR(inst.Rs)
}

// execMULT executes hi:lo <- rs * rt (signed).
func (e *Emulator) execMULT(inst insts.Instruction) {
	p := int64(int32(e.readGPR(inst.Rs))) * int64(int32(e.readGPR(inst.Rt)))
	e.GPR.HI = uint32(uint64(p) >> 32)
	e.GPR.LO = uint32(p)
}

// execMULTU executes hi:lo <- rs * rt (unsigned).
func (e *Emulator) execMULTU(inst insts.Instruction) {
	p := uint64(e.readGPR(inst.Rs)) * uint64(e.readGPR(inst.Rt))
	e.GPR.HI = uint32(p >> 32)
	e.GPR.LO = uint32(p)
}

// execDIV executes lo <- rs / rt, hi <- rs % rt (signed). Division by zero
// and 0x80000000 / -1 produce the values the hardware leaves behind.
func (e *Emulator) execDIV(inst insts.Instruction) {
	n, d := int32(e.readGPR(inst.Rs)), int32(e.readGPR(inst.Rt))

	switch {
	case d == 0:
		e.GPR.HI = uint32(n)
		if n < 0 {
			e.GPR.LO = 1
		} else {
			e.GPR.LO = 0xFFFFFFFF
		}
	case uint32(n) == 0x80000000 && d == -1:
		e.GPR.HI = 0
		e.GPR.LO = 0x80000000
	default:
		e.GPR.HI = uint32(n % d)
		e.GPR.LO = uint32(n / d)
	}
}

// execDIVU executes lo <- rs / rt, hi <- rs % rt (unsigned).
func (e *Emulator) execDIVU(inst insts.Instruction) {
	n, d := e.readGPR(inst.Rs), e.readGPR(inst.Rt)

	if d == 0 {
		e.GPR.HI = n
		e.GPR.LO = 0xFFFFFFFF
		return
	}

	e.GPR.HI = n % d
	e.GPR.LO = n / d
}

func boolToWord(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
