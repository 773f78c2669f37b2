package emu

import (
	"github.com/sirupsen/logrus"

	"github.com/sarchlab/gfusx/insts"
)

// exception raises a synchronous exception. PC must hold the address of
// the faulting instruction. bd marks a fault in a branch delay slot; cop
// marks a fault raised by a coprocessor instruction, whose number is taken
// from the faulting word.
func (e *Emulator) exception(kind ExceptionKind, bd, cop bool) {
	cause := e.Cop0.R[Cop0Cause] & CauseIPMask
	cause |= uint32(kind) << CauseExcCodeShift

	epc := e.PC
	if bd {
		cause |= CauseBD
		epc -= InstructionWidth
	}

	if cop {
		cause |= uint32(insts.Decode(e.Code).CopNum()) << CauseCEShift
	}

	e.Cop0.R[Cop0Cause] = cause
	e.Cop0.R[Cop0EPC] = epc

	// Push the KU/IE mode stack; the new current mode is kernel with
	// interrupts disabled.
	sr := e.Cop0.R[Cop0Status]
	e.Cop0.R[Cop0Status] = sr&^statusModeStack | (sr<<2)&statusModeStack

	if sr&StatusBEV != 0 {
		e.PC = BootExceptionVector
	} else {
		e.PC = ExceptionVector
	}

	// The faulting instruction's pending branch never takes effect.
	e.InDelaySlot = false
	e.branchTaken = false

	e.logger.WithFields(logrus.Fields{
		"class": string(LogException),
		"epc":   epc,
		"bd":    bd,
	}).Debugf("Exception: %v.", kind)
}

// trap rolls PC back to the executing instruction and raises kind.
func (e *Emulator) trap(kind ExceptionKind) {
	e.PC -= InstructionWidth
	e.exception(kind, e.InDelaySlot, false)
}

// addressError records the offending address and raises kind.
func (e *Emulator) addressError(kind ExceptionKind, addr uint32) {
	e.Cop0.R[Cop0BadVaddr] = addr
	e.logf(logrus.InfoLevel, LogCPU, "Misaligned access to 0x%08X from 0x%08X.", addr, e.PC-InstructionWidth)
	e.trap(kind)
}

func (e *Emulator) execSYSCALL(_ insts.Instruction) {
	e.trap(ExcSyscall)
}

func (e *Emulator) execBREAK(_ insts.Instruction) {
	e.trap(ExcBreak)
}

// execCopUnusable raises CoprocessorUnusable for coprocessors the machine
// does not have.
func (e *Emulator) execCopUnusable(inst insts.Instruction) {
	e.logf(logrus.InfoLevel, LogCPU, "Coprocessor %d unusable at 0x%08X.", inst.CopNum(), e.PC-InstructionWidth)
	e.PC -= InstructionWidth
	e.exception(ExcCoprocessorUnusable, e.InDelaySlot, true)
}
