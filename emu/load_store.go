package emu

import (
	"encoding/binary"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/gfusx/insts"
)

// Bus is the data side of the memory system used by loads and stores.
// Addresses are virtual; implementations decide how to map them.
type Bus interface {
	Read8(addr uint32) uint8
	Read16(addr uint32) uint16
	Read32(addr uint32) uint32
	Write8(addr uint32, value uint8)
	Write16(addr uint32, value uint16)
	Write32(addr uint32, value uint32)
}

// storeBus serves data accesses from the instruction store, so code and data
// share one RAM image. Accesses outside the store read 0 and drop writes.
type storeBus struct {
	emu *Emulator
}

func (b *storeBus) slice(addr uint32, size uint32) []byte {
	phys := addr & PhysMask
	if uint64(phys)+uint64(size) > ICacheSize {
		b.emu.logf(logrus.WarnLevel, LogMemory, "Unmapped %d-byte access at 0x%08X.", size, addr)
		return nil
	}
	return b.emu.ICache[phys : phys+size]
}

func (b *storeBus) Read8(addr uint32) uint8 {
	if s := b.slice(addr, 1); s != nil {
		return s[0]
	}
	return 0
}

func (b *storeBus) Read16(addr uint32) uint16 {
	if s := b.slice(addr, 2); s != nil {
		return binary.LittleEndian.Uint16(s)
	}
	return 0
}

func (b *storeBus) Read32(addr uint32) uint32 {
	if s := b.slice(addr, 4); s != nil {
		return binary.LittleEndian.Uint32(s)
	}
	return 0
}

func (b *storeBus) Write8(addr uint32, value uint8) {
	if s := b.slice(addr, 1); s != nil {
		s[0] = value
	}
}

func (b *storeBus) Write16(addr uint32, value uint16) {
	if s := b.slice(addr, 2); s != nil {
		binary.LittleEndian.PutUint16(s, value)
	}
}

func (b *storeBus) Write32(addr uint32, value uint32) {
	if s := b.slice(addr, 4); s != nil {
		binary.LittleEndian.PutUint32(s, value)
	}
}

// effectiveAddress returns base + simm.
func (e *Emulator) effectiveAddress(inst insts.Instruction) uint32 {
	return e.readGPR(inst.Rs) + inst.SImm()
}

// aligned checks addr against an access size. A misaligned address raises
// an address error in debug mode and reports false; otherwise it is forced
// to alignment.
func (e *Emulator) aligned(addr *uint32, size uint32, kind ExceptionKind) bool {
	mask := size - 1
	if *addr&mask == 0 {
		return true
	}

	if e.settings.Debug {
		e.addressError(kind, *addr)
		return false
	}

	*addr &^= mask
	return true
}

// storesIsolated reports whether SR.IsC diverts stores away from memory.
func (e *Emulator) storesIsolated(addr uint32) bool {
	if e.Cop0.R[Cop0Status]&StatusIsC == 0 {
		return false
	}
	e.logf(logrus.DebugLevel, LogMemory, "Store to 0x%08X dropped: cache isolated.", addr)
	return true
}

func (e *Emulator) execLB(inst insts.Instruction) {
	addr := e.effectiveAddress(inst)
	e.scheduleLoad(inst.Rt, uint32(int32(int8(e.bus.Read8(addr)))))
}

func (e *Emulator) execLBU(inst insts.Instruction) {
	addr := e.effectiveAddress(inst)
	e.scheduleLoad(inst.Rt, uint32(e.bus.Read8(addr)))
}

func (e *Emulator) execLH(inst insts.Instruction) {
	addr := e.effectiveAddress(inst)
	if !e.aligned(&addr, 2, ExcAddressErrorLoad) {
		return
	}
	e.scheduleLoad(inst.Rt, uint32(int32(int16(e.bus.Read16(addr)))))
}

func (e *Emulator) execLHU(inst insts.Instruction) {
	addr := e.effectiveAddress(inst)
	if !e.aligned(&addr, 2, ExcAddressErrorLoad) {
		return
	}
	e.scheduleLoad(inst.Rt, uint32(e.bus.Read16(addr)))
}

func (e *Emulator) execLW(inst insts.Instruction) {
	addr := e.effectiveAddress(inst)
	if !e.aligned(&addr, 4, ExcAddressErrorLoad) {
		return
	}
	e.scheduleLoad(inst.Rt, e.bus.Read32(addr))
}

// lwlrBase returns the register value LWL/LWR merge into. A load still in
// flight for the same register is forwarded.
func (e *Emulator) lwlrBase(reg uint8) uint32 {
	if v, ok := e.pendingLoad(reg); ok {
		return v
	}
	return e.GPR.Read(reg)
}

// execLWL loads the most significant bytes of an unaligned word.
func (e *Emulator) execLWL(inst insts.Instruction) {
	cur := e.lwlrBase(inst.Rt)
	addr := e.effectiveAddress(inst)
	mem := e.bus.Read32(addr &^ 3)

	var v uint32
	switch addr & 3 {
	case 0:
		v = cur&0x00FFFFFF | mem<<24
	case 1:
		v = cur&0x0000FFFF | mem<<16
	case 2:
		v = cur&0x000000FF | mem<<8
	case 3:
		v = mem
	}

	e.scheduleLoad(inst.Rt, v)
}

// execLWR loads the least significant bytes of an unaligned word.
func (e *Emulator) execLWR(inst insts.Instruction) {
	cur := e.lwlrBase(inst.Rt)
	addr := e.effectiveAddress(inst)
	mem := e.bus.Read32(addr &^ 3)

	var v uint32
	switch addr & 3 {
	case 0:
		v = mem
	case 1:
		v = cur&0xFF000000 | mem>>8
	case 2:
		v = cur&0xFFFF0000 | mem>>16
	case 3:
		v = cur&0xFFFFFF00 | mem>>24
	}

	e.scheduleLoad(inst.Rt, v)
}

func (e *Emulator) execSB(inst insts.Instruction) {
	addr := e.effectiveAddress(inst)
	if e.storesIsolated(addr) {
		return
	}
	e.bus.Write8(addr, uint8(e.readGPR(inst.Rt)))
}

func (e *Emulator) execSH(inst insts.Instruction) {
	addr := e.effectiveAddress(inst)
	if !e.aligned(&addr, 2, ExcAddressErrorStore) || e.storesIsolated(addr) {
		return
	}
	e.bus.Write16(addr, uint16(e.readGPR(inst.Rt)))
}

func (e *Emulator) execSW(inst insts.Instruction) {
	addr := e.effectiveAddress(inst)
	if !e.aligned(&addr, 4, ExcAddressErrorStore) || e.storesIsolated(addr) {
		return
	}
	e.bus.Write32(addr, e.readGPR(inst.Rt))
}

// execSWL stores the most significant bytes of rt to an unaligned word.
func (e *Emulator) execSWL(inst insts.Instruction) {
	addr := e.effectiveAddress(inst)
	if e.storesIsolated(addr) {
		return
	}

	aligned := addr &^ 3
	mem := e.bus.Read32(aligned)
	rt := e.readGPR(inst.Rt)

	var v uint32
	switch addr & 3 {
	case 0:
		v = mem&0xFFFFFF00 | rt>>24
	case 1:
		v = mem&0xFFFF0000 | rt>>16
	case 2:
		v = mem&0xFF000000 | rt>>8
	case 3:
		v = rt
	}

	e.bus.Write32(aligned, v)
}

// execSWR stores the least significant bytes of rt to an unaligned word.
func (e *Emulator) execSWR(inst insts.Instruction) {
	addr := e.effectiveAddress(inst)
	if e.storesIsolated(addr) {
		return
	}

	aligned := addr &^ 3
	mem := e.bus.Read32(aligned)
	rt := e.readGPR(inst.Rt)

	var v uint32
	switch addr & 3 {
	case 0:
		v = rt
	case 1:
		v = mem&0x000000FF | rt<<8
	case 2:
		v = mem&0x0000FFFF | rt<<16
	case 3:
		v = mem&0x00FFFFFF | rt<<24
	}

	e.bus.Write32(aligned, v)
}

// execLWC2 loads a geometry data register. The coprocessor write is not
// delayed.
func (e *Emulator) execLWC2(inst insts.Instruction) {
	addr := e.effectiveAddress(inst)
	if !e.aligned(&addr, 4, ExcAddressErrorLoad) {
		return
	}
	e.Cop2.SetData(inst.Rt, e.bus.Read32(addr))
}

func (e *Emulator) execSWC2(inst insts.Instruction) {
	addr := e.effectiveAddress(inst)
	if !e.aligned(&addr, 4, ExcAddressErrorStore) || e.storesIsolated(addr) {
		return
	}
	e.bus.Write32(addr, e.Cop2.Data(inst.Rt))
}
