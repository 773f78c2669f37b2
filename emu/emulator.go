// Package emu provides functional MIPS R3000A emulation.
package emu

import (
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/gfusx/insts"
)

// ICacheSize is the capacity of the instruction store in bytes.
const ICacheSize = 2 * 1024 * 1024

// PhysMask strips the segment bits (KUSEG/KSEG0/KSEG1) from a virtual
// address.
const PhysMask uint32 = 0x1FFFFFFF

// InstructionWidth is the size of one instruction in bytes.
const InstructionWidth = 4

// DefaultCycleBias is the number of cycles charged per instruction.
const DefaultCycleBias = 2

// StackPointer is the register whose writes are reported to the
// StackPointerHook.
const StackPointer = insts.RegSP

// Settings are the caller-chosen execution options. They are read-only while
// the emulator runs and survive power cycles.
type Settings struct {
	// Debug enables the costlier correctness checks: signed-overflow traps
	// on ADD/ADDI/SUB and address-alignment traps on fetch, load and store.
	Debug bool

	// CycleBias overrides DefaultCycleBias when non-zero.
	CycleBias uint32
}

// State is the complete programmer-visible machine state. Power-on and
// power-off reset it to the zero value.
type State struct {
	// PC is the program counter.
	PC uint32

	// Code is the most recently fetched instruction word.
	Code uint32

	// Cycle counts elapsed cycles. It wraps.
	Cycle uint32

	// GPR is the integer register file.
	GPR RegFile

	// Cop0 is the system-control coprocessor bank.
	Cop0 CopBank

	// Cop2 is the geometry coprocessor bank.
	Cop2 CopBank

	// ICache holds the executable image, addressed by physical address.
	ICache [ICacheSize]byte

	// InDelaySlot is true while the instruction after a taken branch or
	// jump is pending or executing.
	InDelaySlot bool

	delayTarget  uint32
	branchTaken  bool
	branchTarget uint32

	loads    [2]delayedLoad
	loadSlot uint8
}

// FetchError reports an instruction fetch outside the instruction store.
// It is raised as a panic: the caller broke the stepping contract.
type FetchError struct {
	PC uint32
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("instruction fetch out of range at PC=0x%08X", e.PC)
}

// Emulator executes MIPS instructions functionally.
type Emulator struct {
	State

	settings   Settings
	cycleBias  uint32
	logger     logrus.FieldLogger
	spHook     StackPointerHook
	fetchTimer FetchTimer
	bus        Bus
	dispatcher *Dispatcher
}

// EmulatorOption is a functional option for configuring the Emulator.
type EmulatorOption func(*Emulator)

// WithSettings sets the execution settings.
func WithSettings(s Settings) EmulatorOption {
	return func(e *Emulator) {
		e.settings = s
	}
}

// WithLogger sets the diagnostic sink.
func WithLogger(l logrus.FieldLogger) EmulatorOption {
	return func(e *Emulator) {
		e.logger = l
	}
}

// WithStackPointerHook installs the stack-pointer interceptor.
func WithStackPointerHook(h StackPointerHook) EmulatorOption {
	return func(e *Emulator) {
		e.spHook = h
	}
}

// WithFetchTimer adds per-fetch latency on top of the cycle bias.
func WithFetchTimer(t FetchTimer) EmulatorOption {
	return func(e *Emulator) {
		e.fetchTimer = t
	}
}

// WithBus replaces the data bus used by loads and stores.
func WithBus(b Bus) EmulatorOption {
	return func(e *Emulator) {
		e.bus = b
	}
}

// NewEmulator creates a new emulator. The machine state starts at the
// power-on value.
func NewEmulator(opts ...EmulatorOption) *Emulator {
	e := &Emulator{
		logger:     logrus.StandardLogger(),
		dispatcher: NewDispatcher(),
	}

	for _, opt := range opts {
		opt(e)
	}

	e.cycleBias = e.settings.CycleBias
	if e.cycleBias == 0 {
		e.cycleBias = DefaultCycleBias
	}

	if e.bus == nil {
		e.bus = &storeBus{emu: e}
	}

	return e
}

// Settings returns the execution settings.
func (e *Emulator) Settings() Settings {
	return e.settings
}

// Dispatcher returns the emulator's instruction table. Handlers registered
// on it affect this emulator only.
func (e *Emulator) Dispatcher() *Dispatcher {
	return e.dispatcher
}

// Bus returns the data bus.
func (e *Emulator) Bus() Bus {
	return e.bus
}

// PowerOn resets the machine state to zero.
func (e *Emulator) PowerOn() {
	e.State = State{}
}

// PowerOff resets the machine state to zero.
func (e *Emulator) PowerOff() {
	e.State = State{}
}

// LoadProgram writes instruction words into the instruction store starting
// at the given byte offset. It does not move the PC.
func (e *Emulator) LoadProgram(offset uint32, words []uint32) error {
	if uint64(offset)+uint64(len(words))*InstructionWidth > ICacheSize {
		return fmt.Errorf("program of %d words does not fit at offset 0x%X", len(words), offset)
	}

	for i, w := range words {
		binary.LittleEndian.PutUint32(e.ICache[offset+uint32(i)*InstructionWidth:], w)
	}

	return nil
}

// LoadImage copies a raw little-endian image into the instruction store.
func (e *Emulator) LoadImage(offset uint32, image []byte) error {
	if uint64(offset)+uint64(len(image)) > ICacheSize {
		return fmt.Errorf("image of %d bytes does not fit at offset 0x%X", len(image), offset)
	}

	copy(e.ICache[offset:], image)

	return nil
}

// Step executes a single instruction. A taken branch and its delay slot
// take two steps.
func (e *Emulator) Step() {
	if e.settings.Debug && e.PC&(InstructionWidth-1) != 0 {
		e.Cop0.R[Cop0BadVaddr] = e.PC
		e.logf(logrus.InfoLevel, LogCPU, "Misaligned instruction fetch from 0x%08X.", e.PC)
		e.exception(ExcAddressErrorLoad, e.InDelaySlot, false)
		e.resolveDelayedLoad()
		return
	}

	// 1. Fetch
	e.fetch()

	// 2. Decode
	inst := insts.Decode(e.Code)

	// 3. Execute
	e.dispatcher.execute(e, inst)

	// 4. Retire hazards
	e.resolveDelayedLoad()
	e.resolveDelaySlot()
}

// fetch reads the word at PC into Code and advances PC and Cycle.
func (e *Emulator) fetch() {
	phys := e.PC & PhysMask
	if uint64(phys)+InstructionWidth > ICacheSize {
		panic(&FetchError{PC: e.PC})
	}

	e.Code = binary.LittleEndian.Uint32(e.ICache[phys:])
	e.PC += InstructionWidth
	e.Cycle += e.cycleBias

	if e.fetchTimer != nil {
		e.Cycle += e.fetchTimer.FetchLatency(phys)
	}
}

// DumpRegs writes code, pc, the general registers (4 rows of 8) and HI/LO.
func (s *State) DumpRegs(w io.Writer) error {
	var b strings.Builder

	fmt.Fprintf(&b, "code: %08X\n", s.Code)
	fmt.Fprintf(&b, "pc: %d\n", s.PC)
	b.WriteString("gpr:\n")
	for row := 0; row < 4; row++ {
		for col := 0; col < 8; col++ {
			fmt.Fprintf(&b, "  %08X", s.GPR.R[row*8+col])
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "  %08X  %08X\n", s.GPR.HI, s.GPR.LO)
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}
