package emu

import (
	"github.com/sirupsen/logrus"

	"github.com/sarchlab/gfusx/insts"
)

// execMFC0 moves a system-control register into rt through the load delay.
func (e *Emulator) execMFC0(inst insts.Instruction) {
	e.scheduleLoad(inst.Rt, e.Cop0.Data(inst.Rd))
}

// execMTC0 writes a system-control register. Only the software interrupt
// bits of Cause are writable; BadVaddr and PRId are read-only.
func (e *Emulator) execMTC0(inst insts.Instruction) {
	v := e.readGPR(inst.Rt)

	switch inst.Rd {
	case Cop0Cause:
		c := e.Cop0.R[Cop0Cause]
		e.Cop0.R[Cop0Cause] = c&^CauseSWMask | v&CauseSWMask
	case Cop0BadVaddr, Cop0PRId:
	default:
		e.Cop0.SetData(inst.Rd, v)
	}
}

// execCop0Command runs RFE; any other COP0 command is unimplemented.
func (e *Emulator) execCop0Command(inst insts.Instruction) {
	if inst.Funct != insts.FnRFE {
		e.logf(logrus.WarnLevel, LogCPU, "Unimplemented COP0 command %02X.", uint8(inst.Funct))
		return
	}

	sr := e.Cop0.R[Cop0Status]
	e.Cop0.R[Cop0Status] = sr&^0xF | (sr>>2)&0xF
}

func (e *Emulator) execMFC2(inst insts.Instruction) {
	e.scheduleLoad(inst.Rt, e.Cop2.Data(inst.Rd))
}

func (e *Emulator) execCFC2(inst insts.Instruction) {
	e.scheduleLoad(inst.Rt, e.Cop2.Ctrl(inst.Rd))
}

func (e *Emulator) execMTC2(inst insts.Instruction) {
	e.Cop2.SetData(inst.Rd, e.readGPR(inst.Rt))
}

func (e *Emulator) execCTC2(inst insts.Instruction) {
	e.Cop2.SetCtrl(inst.Rd, e.readGPR(inst.Rt))
}

// execCop2Command logs geometry commands, which are not executed.
func (e *Emulator) execCop2Command(inst insts.Instruction) {
	e.logf(logrus.WarnLevel, LogCPU, "Unimplemented COP2 command %07X.", inst.CopFunct())
}
