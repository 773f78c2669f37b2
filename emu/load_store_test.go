package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/sarchlab/gfusx/emu"
	"github.com/sarchlab/gfusx/insts"
)

type recordingBus struct {
	words  map[uint32]uint32
	writes []uint32
}

func newRecordingBus() *recordingBus {
	return &recordingBus{words: map[uint32]uint32{}}
}

func (b *recordingBus) Read8(addr uint32) uint8   { return uint8(b.Read32(addr &^ 3) >> (8 * (addr & 3))) }
func (b *recordingBus) Read16(addr uint32) uint16 { return uint16(b.Read32(addr&^3) >> (8 * (addr & 2))) }
func (b *recordingBus) Read32(addr uint32) uint32 { return b.words[addr] }
func (b *recordingBus) Write8(addr uint32, _ uint8) {
	b.writes = append(b.writes, addr)
}
func (b *recordingBus) Write16(addr uint32, _ uint16) {
	b.writes = append(b.writes, addr)
}
func (b *recordingBus) Write32(addr uint32, value uint32) {
	b.writes = append(b.writes, addr)
	b.words[addr] = value
}

var _ = Describe("Loads and stores", func() {
	var (
		e    *emu.Emulator
		hook *test.Hook
	)

	BeforeEach(func() {
		e, hook = newTestEmulator(emu.Settings{})
		load(e, 0x100, 0xCAFEBABE, 0x11111111)
	})

	Describe("load delay", func() {
		It("should land the value after one more instruction", func() {
			load(e, 0,
				insts.LW(insts.RegT0, 0x100, insts.RegZero),
				insts.NOP(),
				insts.ORI(insts.RegT2, insts.RegT0, 0),
			)

			e.Step()
			Expect(e.GPR.R[insts.RegT0]).To(Equal(uint32(0)))

			e.Step()
			Expect(e.GPR.R[insts.RegT0]).To(Equal(uint32(0xCAFEBABE)))

			e.Step()
			Expect(e.GPR.R[insts.RegT2]).To(Equal(uint32(0xCAFEBABE)))
		})

		It("should be cancelled when the next instruction reads the register", func() {
			e.GPR.R[insts.RegT0] = 0x1111
			load(e, 0,
				insts.LW(insts.RegT0, 0x100, insts.RegZero),
				insts.ADDU(insts.RegT1, insts.RegT0, insts.RegZero),
				insts.NOP(),
			)
			stepN(e, 3)

			Expect(e.GPR.R[insts.RegT0]).To(Equal(uint32(0x1111)))
			Expect(e.GPR.R[insts.RegT1]).To(Equal(uint32(0x1111)))
		})

		DescribeTable("cancellation by any source-operand read",
			func(reader uint32) {
				e.GPR.R[insts.RegT0] = 0x1111
				load(e, 0,
					insts.LW(insts.RegT0, 0x100, insts.RegZero),
					reader,
					insts.NOP(),
					insts.NOP(),
				)
				stepN(e, 4)

				Expect(e.GPR.R[insts.RegT0]).To(Equal(uint32(0x1111)))
			},
			Entry("register operand", insts.SUBU(insts.RegT1, insts.RegZero, insts.RegT0)),
			Entry("immediate operand", insts.ORI(insts.RegT1, insts.RegT0, 0)),
			Entry("shift amount", insts.SLLV(insts.RegT1, insts.RegT2, insts.RegT0)),
			Entry("store data", insts.SW(insts.RegT0, 0x300, insts.RegZero)),
			Entry("branch comparison", insts.BEQ(insts.RegT0, insts.RegZero, 4)),
			Entry("multiply operand", insts.MULTU(insts.RegT0, insts.RegT0)),
		)

		It("should store the old value when the store reads the loading register", func() {
			e.GPR.R[insts.RegT0] = 0x1111
			load(e, 0,
				insts.LW(insts.RegT0, 0x100, insts.RegZero),
				insts.SW(insts.RegT0, 0x300, insts.RegZero),
			)
			stepN(e, 2)

			Expect(e.Bus().Read32(0x300)).To(Equal(uint32(0x1111)))
		})

		It("should still land when the next instruction reads other registers", func() {
			e.GPR.R[insts.RegT1] = 5
			load(e, 0,
				insts.LW(insts.RegT0, 0x100, insts.RegZero),
				insts.ADDU(insts.RegT2, insts.RegT1, insts.RegT1),
				insts.NOP(),
			)
			stepN(e, 3)

			Expect(e.GPR.R[insts.RegT0]).To(Equal(uint32(0xCAFEBABE)))
			Expect(e.GPR.R[insts.RegT2]).To(Equal(uint32(10)))
		})

		It("should be cancelled by a direct write to the same register", func() {
			load(e, 0,
				insts.LW(insts.RegT0, 0x100, insts.RegZero),
				insts.ORI(insts.RegT0, insts.RegZero, 7),
				insts.NOP(),
			)
			stepN(e, 2)
			Expect(e.GPR.R[insts.RegT0]).To(Equal(uint32(7)))
			e.Step()
			Expect(e.GPR.R[insts.RegT0]).To(Equal(uint32(7)))
		})

		It("should be replaced by a newer load to the same register", func() {
			load(e, 0,
				insts.LW(insts.RegT0, 0x100, insts.RegZero),
				insts.LW(insts.RegT0, 0x104, insts.RegZero),
				insts.NOP(),
			)
			stepN(e, 2)
			Expect(e.GPR.R[insts.RegT0]).To(Equal(uint32(0)))
			e.Step()
			Expect(e.GPR.R[insts.RegT0]).To(Equal(uint32(0x11111111)))
		})

		It("should let back-to-back loads to different registers both land", func() {
			load(e, 0,
				insts.LW(insts.RegT0, 0x100, insts.RegZero),
				insts.LW(insts.RegT1, 0x104, insts.RegZero),
				insts.NOP(),
			)
			stepN(e, 3)
			Expect(e.GPR.R[insts.RegT0]).To(Equal(uint32(0xCAFEBABE)))
			Expect(e.GPR.R[insts.RegT1]).To(Equal(uint32(0x11111111)))
		})

		It("should report a delayed stack-pointer load to the hook", func() {
			rec := &spRecorder{}
			e, _ = newTestEmulator(emu.Settings{}, emu.WithStackPointerHook(rec))
			load(e, 0x100, 0x2000)
			load(e, 0, insts.LW(insts.RegSP, 0x100, insts.RegZero), insts.NOP())

			e.Step()
			Expect(rec.calls).To(BeEmpty())
			e.Step()
			Expect(rec.calls).To(Equal([][2]uint32{{0, 0x2000}}))
		})
	})

	Describe("sub-word loads", func() {
		BeforeEach(func() {
			load(e, 0x200, 0x8001FF80)
		})

		It("should sign- and zero-extend", func() {
			load(e, 0,
				insts.LB(insts.RegS0, 0x200, insts.RegZero),
				insts.LBU(insts.RegS1, 0x200, insts.RegZero),
				insts.LH(insts.RegS2, 0x202, insts.RegZero),
				insts.LHU(insts.RegS3, 0x202, insts.RegZero),
				insts.NOP(),
			)
			stepN(e, 5)
			Expect(e.GPR.R[insts.RegS0]).To(Equal(uint32(0xFFFFFF80)))
			Expect(e.GPR.R[insts.RegS1]).To(Equal(uint32(0x80)))
			Expect(e.GPR.R[insts.RegS2]).To(Equal(uint32(0xFFFF8001)))
			Expect(e.GPR.R[insts.RegS3]).To(Equal(uint32(0x8001)))
		})
	})

	Describe("unaligned word access", func() {
		BeforeEach(func() {
			load(e, 0x200, 0x33221100, 0x77665544)
		})

		It("should merge LWR and LWL through the load delay", func() {
			load(e, 0,
				insts.LWR(insts.RegT0, 0x201, insts.RegZero),
				insts.LWL(insts.RegT0, 0x204, insts.RegZero),
				insts.NOP(),
			)
			stepN(e, 2)
			Expect(e.GPR.R[insts.RegT0]).To(Equal(uint32(0)))
			e.Step()
			Expect(e.GPR.R[insts.RegT0]).To(Equal(uint32(0x44332211)))
		})

		It("should split SWR and SWL across two words", func() {
			e.GPR.R[insts.RegT0] = 0x44332211
			load(e, 0,
				insts.SWR(insts.RegT0, 0x301, insts.RegZero),
				insts.SWL(insts.RegT0, 0x304, insts.RegZero),
			)
			stepN(e, 2)
			Expect(e.Bus().Read32(0x300)).To(Equal(uint32(0x33221100)))
			Expect(e.Bus().Read32(0x304)).To(Equal(uint32(0x00000044)))
		})
	})

	Describe("stores", func() {
		It("should write bytes, halfwords and words", func() {
			e.GPR.R[insts.RegT0] = 0xAABBCCDD
			load(e, 0,
				insts.SB(insts.RegT0, 0x300, insts.RegZero),
				insts.SH(insts.RegT0, 0x302, insts.RegZero),
				insts.SW(insts.RegT0, 0x304, insts.RegZero),
			)
			stepN(e, 3)
			Expect(e.Bus().Read32(0x300)).To(Equal(uint32(0xCCDD00DD)))
			Expect(e.Bus().Read32(0x304)).To(Equal(uint32(0xAABBCCDD)))
		})

		It("should drop stores while the cache is isolated", func() {
			e.Cop0.R[emu.Cop0Status] = emu.StatusIsC
			e.GPR.R[insts.RegT0] = 0x12345678
			load(e, 0, insts.SW(insts.RegT0, 0x300, insts.RegZero))
			e.Step()
			Expect(e.Bus().Read32(0x300)).To(Equal(uint32(0)))
		})
	})

	Describe("alignment", func() {
		It("should force-align when debug checks are off", func() {
			e.GPR.R[insts.RegT0] = 0x102
			load(e, 0, insts.LW(insts.RegT1, 0, insts.RegT0), insts.NOP())
			stepN(e, 2)
			Expect(e.GPR.R[insts.RegT1]).To(Equal(uint32(0xCAFEBABE)))
		})

		It("should raise an address error on a misaligned load in debug mode", func() {
			e, _ = newTestEmulator(emu.Settings{Debug: true})
			e.GPR.R[insts.RegT0] = 0x101
			e.PC = 0x10
			load(e, 0x10, insts.LW(insts.RegT1, 0, insts.RegT0))
			e.Step()

			Expect(e.PC).To(Equal(emu.ExceptionVector))
			Expect(e.Cop0.R[emu.Cop0BadVaddr]).To(Equal(uint32(0x101)))
			Expect(e.Cop0.R[emu.Cop0EPC]).To(Equal(uint32(0x10)))
			Expect(emu.ExcCode(e.Cop0.R[emu.Cop0Cause])).To(Equal(emu.ExcAddressErrorLoad))
		})

		It("should raise an address error on a misaligned store in debug mode", func() {
			e, _ = newTestEmulator(emu.Settings{Debug: true})
			e.GPR.R[insts.RegT0] = 0x302
			load(e, 0, insts.SW(insts.RegT1, 0, insts.RegT0))
			e.Step()

			Expect(emu.ExcCode(e.Cop0.R[emu.Cop0Cause])).To(Equal(emu.ExcAddressErrorStore))
			Expect(e.Bus().Read32(0x300)).To(Equal(uint32(0)))
		})
	})

	It("should read zero outside the store and log it", func() {
		e.GPR.R[insts.RegT1] = 0x00300000
		e.GPR.R[insts.RegT0] = 5
		load(e, 0, insts.LW(insts.RegT0, 0, insts.RegT1), insts.NOP())
		stepN(e, 2)

		Expect(e.GPR.R[insts.RegT0]).To(Equal(uint32(0)))
		warnings := entriesAt(hook, logrus.WarnLevel)
		Expect(warnings).To(HaveLen(1))
		Expect(warnings[0].Data).To(HaveKeyWithValue("class", "memory"))
	})

	It("should route data accesses through a custom bus", func() {
		bus := newRecordingBus()
		bus.words[0x1F801070] = 0x55
		e, _ = newTestEmulator(emu.Settings{}, emu.WithBus(bus))
		e.GPR.R[insts.RegT0] = 0x1F801070
		e.GPR.R[insts.RegT1] = 0xAA
		load(e, 0,
			insts.LW(insts.RegT2, 0, insts.RegT0),
			insts.SW(insts.RegT1, 4, insts.RegT0),
			insts.NOP(),
		)
		stepN(e, 3)

		Expect(e.GPR.R[insts.RegT2]).To(Equal(uint32(0x55)))
		Expect(bus.writes).To(Equal([]uint32{0x1F801074}))
		Expect(bus.words[0x1F801074]).To(Equal(uint32(0xAA)))
	})
})
