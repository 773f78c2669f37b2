// Package loader provides ELF loading for little-endian MIPS32 executables.
package loader

import (
	"debug/elf"
	"fmt"
	"io"

	"github.com/sarchlab/gfusx/emu"
)

// SegmentFlags represents memory protection flags for a segment.
type SegmentFlags uint32

const (
	// SegmentFlagExecute indicates the segment is executable.
	SegmentFlagExecute SegmentFlags = 1 << iota
	// SegmentFlagWrite indicates the segment is writable.
	SegmentFlagWrite
	// SegmentFlagRead indicates the segment is readable.
	SegmentFlagRead
)

// DefaultStackTop is the initial stack pointer for ELF programs: the top of
// the 2 MiB RAM window seen through KSEG0, leaving room for a caller frame.
const DefaultStackTop uint32 = 0x801FFFF0

// Segment represents a loadable segment.
type Segment struct {
	// VirtAddr is the virtual address where this segment should be loaded.
	VirtAddr uint32
	// Data contains the segment contents from the file.
	Data []byte
	// MemSize is the size in memory (may be larger than len(Data) for BSS).
	MemSize uint32
	// Flags contains the segment protection flags.
	Flags SegmentFlags
}

// Program represents a loaded program ready for execution.
type Program struct {
	// EntryPoint is the virtual address where execution should begin.
	EntryPoint uint32
	// Segments contains all loadable segments.
	Segments []Segment
	// InitialSP is the initial stack pointer value.
	InitialSP uint32
}

// FromImage wraps a raw little-endian image placed at addr as a single
// executable segment. The stack pointer is left at zero.
func FromImage(addr, entry uint32, image []byte) *Program {
	return &Program{
		EntryPoint: entry,
		Segments: []Segment{{
			VirtAddr: addr,
			Data:     image,
			MemSize:  uint32(len(image)),
			Flags:    SegmentFlagRead | SegmentFlagExecute,
		}},
	}
}

// Load parses a MIPS32 ELF binary from path.
func Load(path string) (*Program, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ELF file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return parse(f)
}

// Parse parses a MIPS32 ELF binary from r.
func Parse(r io.ReaderAt) (*Program, error) {
	f, err := elf.NewFile(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ELF file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return parse(f)
}

func parse(f *elf.File) (*Program, error) {
	if f.Class != elf.ELFCLASS32 {
		return nil, fmt.Errorf("not a 32-bit ELF file")
	}

	if f.Data != elf.ELFDATA2LSB {
		return nil, fmt.Errorf("not a little-endian ELF file")
	}

	if f.Machine != elf.EM_MIPS {
		return nil, fmt.Errorf("not a MIPS ELF file (machine type: %v)", f.Machine)
	}

	prog := &Program{
		EntryPoint: uint32(f.Entry),
		InitialSP:  DefaultStackTop,
	}

	for _, phdr := range f.Progs {
		if phdr.Type != elf.PT_LOAD {
			continue
		}

		data := make([]byte, phdr.Filesz)
		if phdr.Filesz > 0 {
			n, err := phdr.ReadAt(data, 0)
			if err != nil && err != io.EOF {
				return nil, fmt.Errorf("failed to read segment at 0x%x: %w", phdr.Vaddr, err)
			}
			if uint64(n) != phdr.Filesz {
				return nil, fmt.Errorf("short read for segment at 0x%x: got %d bytes, expected %d",
					phdr.Vaddr, n, phdr.Filesz)
			}
		}

		var flags SegmentFlags
		if phdr.Flags&elf.PF_X != 0 {
			flags |= SegmentFlagExecute
		}
		if phdr.Flags&elf.PF_W != 0 {
			flags |= SegmentFlagWrite
		}
		if phdr.Flags&elf.PF_R != 0 {
			flags |= SegmentFlagRead
		}

		prog.Segments = append(prog.Segments, Segment{
			VirtAddr: uint32(phdr.Vaddr),
			Data:     data,
			MemSize:  uint32(phdr.Memsz),
			Flags:    flags,
		})
	}

	return prog, nil
}

// InstructionCount returns the number of instruction words held by the
// executable segments.
func (p *Program) InstructionCount() int {
	n := 0
	for _, seg := range p.Segments {
		if seg.Flags&SegmentFlagExecute != 0 {
			n += len(seg.Data) / emu.InstructionWidth
		}
	}
	return n
}

// Install copies every segment into the instruction store at its physical
// address, zero-fills the BSS tail, and points PC and SP at the entry and
// stack top. It does not power the emulator on.
func (p *Program) Install(e *emu.Emulator) error {
	for _, seg := range p.Segments {
		size := seg.MemSize
		if size < uint32(len(seg.Data)) {
			size = uint32(len(seg.Data))
		}

		phys := seg.VirtAddr & emu.PhysMask
		if uint64(phys)+uint64(size) > emu.ICacheSize {
			return fmt.Errorf("segment at 0x%08X (%d bytes) does not fit the instruction store",
				seg.VirtAddr, size)
		}

		if err := e.LoadImage(phys, seg.Data); err != nil {
			return err
		}

		if bss := size - uint32(len(seg.Data)); bss > 0 {
			if err := e.LoadImage(phys+uint32(len(seg.Data)), make([]byte, bss)); err != nil {
				return err
			}
		}
	}

	e.PC = p.EntryPoint
	e.GPR.Write(emu.StackPointer, p.InitialSP)

	return nil
}
