package emu

// delayedLoad is a register write parked for one instruction.
type delayedLoad struct {
	reg    uint8
	value  uint32
	active bool
}

// writeGPR commits an instruction result to a general register: writes to
// register 0 have no effect at all, a load parked for the register is
// cancelled, and stack-pointer writes are reported before they land.
func (e *Emulator) writeGPR(reg uint8, value uint32) {
	if reg == 0 {
		return
	}

	e.cancelDelayedLoad(reg)

	if reg == StackPointer {
		e.setSP(e.GPR.R[reg], value)
	}

	e.GPR.R[reg] = value
}

// readGPR returns a source operand. Reading a register whose load is still
// in flight cancels that load.
func (e *Emulator) readGPR(reg uint8) uint32 {
	e.cancelDelayedLoad(reg)
	return e.GPR.Read(reg)
}

// setSP forwards a stack-pointer change to the hook.
func (e *Emulator) setSP(oldSP, newSP uint32) {
	if e.spHook != nil {
		e.spHook.SetSP(oldSP, newSP)
	}
}

// cancelDelayedLoad discards the load that would land after the current
// instruction if it targets reg.
func (e *Emulator) cancelDelayedLoad(reg uint8) {
	cur := &e.loads[e.loadSlot]
	if cur.active && cur.reg == reg {
		cur.active = false
	}
}

// pendingLoad returns the value still in flight for reg, if any.
func (e *Emulator) pendingLoad(reg uint8) (uint32, bool) {
	cur := &e.loads[e.loadSlot]
	if cur.active && cur.reg == reg {
		return cur.value, true
	}
	return 0, false
}

// scheduleLoad parks a load result so that it becomes visible after the
// next instruction.
func (e *Emulator) scheduleLoad(reg uint8, value uint32) {
	if reg == 0 {
		return
	}

	e.cancelDelayedLoad(reg)

	next := &e.loads[e.loadSlot^1]
	next.reg = reg
	next.value = value
	next.active = true
}

// resolveDelayedLoad lands the load parked by the previous instruction and
// rotates the slots.
func (e *Emulator) resolveDelayedLoad() {
	cur := &e.loads[e.loadSlot]
	if cur.active {
		if cur.reg == StackPointer {
			e.setSP(e.GPR.R[cur.reg], cur.value)
		}
		e.GPR.R[cur.reg] = cur.value
		cur.active = false
	}

	e.loadSlot ^= 1
}

// branch records a taken branch. PC moves to target after the delay slot.
func (e *Emulator) branch(target uint32) {
	e.branchTaken = true
	e.branchTarget = target
}

// resolveDelaySlot redirects PC once a delay slot has executed and arms the
// slot for a branch taken by the instruction that just ran.
func (e *Emulator) resolveDelaySlot() {
	if e.InDelaySlot {
		e.InDelaySlot = false
		e.PC = e.delayTarget
	}

	if e.branchTaken {
		e.branchTaken = false
		e.InDelaySlot = true
		e.delayTarget = e.branchTarget
	}
}
