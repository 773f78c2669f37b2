// Package emu provides functional MIPS R3000A emulation.
package emu

// RegFile represents the integer register file.
// It contains 32 general-purpose registers and the HI/LO multiply/divide
// result pair.
type RegFile struct {
	// R holds general-purpose registers R0-R31.
	// R[0] is hard-wired to zero: reads return 0 and writes are dropped.
	R [32]uint32

	// HI holds the high word of a product or the remainder of a division.
	HI uint32

	// LO holds the low word of a product or the quotient of a division.
	LO uint32
}

// Read reads a register value. Register 0 and out-of-range indices return 0.
func (r *RegFile) Read(reg uint8) uint32 {
	if reg == 0 || reg >= 32 {
		return 0
	}
	return r.R[reg]
}

// Write writes a value to a register. Writes to register 0 are ignored.
//
// Write bypasses the hazard and stack-pointer bookkeeping that instruction
// write-back goes through; it is meant for callers preparing state.
func (r *RegFile) Write(reg uint8, value uint32) {
	if reg == 0 || reg >= 32 {
		return
	}
	r.R[reg] = value
}

// CopRegCount is the number of registers in a coprocessor bank. Indices
// 0-31 are data registers (MFCz/MTCz), 32-63 control registers (CFCz/CTCz).
const CopRegCount = 64

// CopBank is a coprocessor register bank.
type CopBank struct {
	R [CopRegCount]uint32
}

// Data returns data register n.
func (c *CopBank) Data(n uint8) uint32 {
	return c.R[n&0x1F]
}

// SetData sets data register n.
func (c *CopBank) SetData(n uint8, value uint32) {
	c.R[n&0x1F] = value
}

// Ctrl returns control register n.
func (c *CopBank) Ctrl(n uint8) uint32 {
	return c.R[32+n&0x1F]
}

// SetCtrl sets control register n.
func (c *CopBank) SetCtrl(n uint8, value uint32) {
	c.R[32+n&0x1F] = value
}
