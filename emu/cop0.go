package emu

import "fmt"

// System-control coprocessor register indices.
const (
	Cop0BPC      = 3
	Cop0BDA      = 5
	Cop0JumpDest = 6
	Cop0DCIC     = 7
	Cop0BadVaddr = 8
	Cop0BDAM     = 9
	Cop0BPCM     = 11
	Cop0Status   = 12
	Cop0Cause    = 13
	Cop0EPC      = 14
	Cop0PRId     = 15
)

// Status register fields.
const (
	StatusIEc uint32 = 1 << 0  // Interrupt enable, current
	StatusKUc uint32 = 1 << 1  // Kernel/user mode, current
	StatusIEp uint32 = 1 << 2  // Interrupt enable, previous
	StatusKUp uint32 = 1 << 3  // Kernel/user mode, previous
	StatusIEo uint32 = 1 << 4  // Interrupt enable, old
	StatusKUo uint32 = 1 << 5  // Kernel/user mode, old
	StatusIsC uint32 = 1 << 16 // Isolate cache: stores do not reach memory
	StatusBEV uint32 = 1 << 22 // Boot exception vectors

	// statusModeStack covers the three IE/KU pairs pushed on exception
	// and popped by RFE.
	statusModeStack uint32 = 0x3F
)

// Cause register fields.
const (
	CauseExcCodeShift        = 2
	CauseExcCodeMask  uint32 = 0x1F << CauseExcCodeShift
	CauseIPMask       uint32 = 0xFF00 // Interrupt pending
	CauseSWMask       uint32 = 0x0300 // Software interrupts, the only writable bits
	CauseCEShift             = 28
	CauseCEMask       uint32 = 0x3 << CauseCEShift
	CauseBD           uint32 = 1 << 31
)

// Exception vectors.
const (
	ExceptionVector     uint32 = 0x80000080
	BootExceptionVector uint32 = 0xBFC00180
)

// ExceptionKind is the ExcCode recorded in the Cause register.
type ExceptionKind uint8

// Exception kinds.
const (
	ExcInterrupt           ExceptionKind = 0
	ExcAddressErrorLoad    ExceptionKind = 4
	ExcAddressErrorStore   ExceptionKind = 5
	ExcBusErrorInstruction ExceptionKind = 6
	ExcBusErrorData        ExceptionKind = 7
	ExcSyscall             ExceptionKind = 8
	ExcBreak               ExceptionKind = 9
	ExcReservedInstruction ExceptionKind = 10
	ExcCoprocessorUnusable ExceptionKind = 11
	ExcArithmeticOverflow  ExceptionKind = 12
)

func (k ExceptionKind) String() string {
	switch k {
	case ExcInterrupt:
		return "interrupt"
	case ExcAddressErrorLoad:
		return "address error (load)"
	case ExcAddressErrorStore:
		return "address error (store)"
	case ExcBusErrorInstruction:
		return "bus error (instruction)"
	case ExcBusErrorData:
		return "bus error (data)"
	case ExcSyscall:
		return "syscall"
	case ExcBreak:
		return "break"
	case ExcReservedInstruction:
		return "reserved instruction"
	case ExcCoprocessorUnusable:
		return "coprocessor unusable"
	case ExcArithmeticOverflow:
		return "arithmetic overflow"
	}
	return fmt.Sprintf("exception %d", uint8(k))
}

// ExcCode extracts the exception kind from a Cause register value.
func ExcCode(cause uint32) ExceptionKind {
	return ExceptionKind((cause & CauseExcCodeMask) >> CauseExcCodeShift)
}
