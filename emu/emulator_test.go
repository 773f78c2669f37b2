package emu_test

import (
	"bytes"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/gfusx/emu"
	"github.com/sarchlab/gfusx/insts"
)

type fixedTimer struct {
	latency uint32
	addrs   []uint32
}

func (t *fixedTimer) FetchLatency(physAddr uint32) uint32 {
	t.addrs = append(t.addrs, physAddr)
	return t.latency
}

var _ = Describe("Emulator", func() {
	var e *emu.Emulator

	BeforeEach(func() {
		e, _ = newTestEmulator(emu.Settings{})
	})

	Describe("NewEmulator", func() {
		It("should start zeroed", func() {
			Expect(e.PC).To(Equal(uint32(0)))
			Expect(e.Cycle).To(Equal(uint32(0)))
			Expect(e.InDelaySlot).To(BeFalse())
		})

		It("should keep the settings it was given", func() {
			e, _ = newTestEmulator(emu.Settings{Debug: true, CycleBias: 3})
			Expect(e.Settings()).To(Equal(emu.Settings{Debug: true, CycleBias: 3}))
		})
	})

	Describe("PowerOn and PowerOff", func() {
		dirty := func() {
			load(e, 0, insts.LW(insts.RegT0, 0x100, insts.RegZero))
			e.Step()
			e.PC = 0x1234
			e.Code = 0xFFFFFFFF
			e.GPR.R[5] = 9
			e.GPR.HI = 1
			e.Cop0.R[emu.Cop0Status] = 0xFF
			e.Cop2.SetCtrl(4, 5)
			e.ICache[100] = 1
			e.InDelaySlot = true
		}

		It("should zero every field on power-on", func() {
			dirty()
			e.PowerOn()
			Expect(e.State == emu.State{}).To(BeTrue())
		})

		It("should zero every field on power-off", func() {
			dirty()
			e.PowerOff()
			Expect(e.State == emu.State{}).To(BeTrue())
		})

		It("should be a no-op on a zeroed machine", func() {
			e.PowerOn()
			e.PowerOn()
			Expect(e.State == emu.State{}).To(BeTrue())
		})

		It("should keep the settings across a power cycle", func() {
			e, _ = newTestEmulator(emu.Settings{Debug: true})
			e.PowerOff()
			e.PowerOn()
			Expect(e.Settings().Debug).To(BeTrue())
		})

		It("should drop a pending load", func() {
			load(e, 0x100, 0xCAFEBABE)
			load(e, 0, insts.LW(insts.RegT0, 0x100, insts.RegZero))
			e.Step()
			e.PowerOn()
			e.Step()
			Expect(e.GPR.R[insts.RegT0]).To(Equal(uint32(0)))
		})
	})

	Describe("LoadProgram", func() {
		It("should store words little-endian", func() {
			load(e, 8, 0x34080022)
			Expect(e.ICache[8:12]).To(Equal([]byte{0x22, 0x00, 0x08, 0x34}))
		})

		It("should not move the PC", func() {
			load(e, 8, 0x34080022)
			Expect(e.PC).To(Equal(uint32(0)))
		})

		It("should reject programs that overrun the store", func() {
			err := e.LoadProgram(emu.ICacheSize-4, []uint32{1, 2})
			Expect(err).To(HaveOccurred())
		})

		It("should load raw images", func() {
			Expect(e.LoadImage(4, []byte{1, 2, 3})).To(Succeed())
			Expect(e.ICache[4:7]).To(Equal([]byte{1, 2, 3}))
			Expect(e.LoadImage(emu.ICacheSize, []byte{1})).NotTo(Succeed())
		})
	})

	Describe("Step", func() {
		It("should fetch the word at PC and advance", func() {
			load(e, 0, insts.ORI(insts.RegT0, insts.RegZero, 34))
			e.Step()

			Expect(e.Code).To(Equal(uint32(0x34080022)))
			Expect(e.PC).To(Equal(uint32(4)))
			Expect(e.Cycle).To(Equal(uint32(emu.DefaultCycleBias)))
		})

		It("should honor a custom cycle bias", func() {
			e, _ = newTestEmulator(emu.Settings{CycleBias: 5})
			stepN(e, 2)
			Expect(e.Cycle).To(Equal(uint32(10)))
		})

		It("should let the cycle counter wrap", func() {
			e.Cycle = 0xFFFFFFFF
			e.Step()
			Expect(e.Cycle).To(Equal(uint32(1)))
		})

		It("should add fetch latency from the timer", func() {
			timer := &fixedTimer{latency: 3}
			e, _ = newTestEmulator(emu.Settings{}, emu.WithFetchTimer(timer))
			e.PC = 0x80000010
			e.Step()

			Expect(e.Cycle).To(Equal(uint32(5)))
			Expect(timer.addrs).To(Equal([]uint32{0x10}))
		})

		It("should mirror the segments onto the same store", func() {
			load(e, 0x40, insts.ORI(insts.RegT0, insts.RegZero, 7))
			e.PC = 0xA0000040
			e.Step()

			Expect(e.GPR.R[insts.RegT0]).To(Equal(uint32(7)))
			Expect(e.PC).To(Equal(uint32(0xA0000044)))
		})

		It("should panic on a fetch outside the store", func() {
			e.PC = emu.ICacheSize
			Expect(e.Step).To(PanicWith(BeAssignableToTypeOf(&emu.FetchError{})))
		})
	})

	Describe("Demo program", func() {
		BeforeEach(func() {
			load(e, 0,
				insts.ORI(insts.RegT0, insts.RegZero, 34),
				insts.ORI(insts.RegT1, insts.RegZero, 35),
				insts.ADDU(insts.RegT2, insts.RegT0, insts.RegT1),
			)
			stepN(e, 3)
		})

		It("should compute 34 + 35", func() {
			Expect(e.GPR.R[insts.RegT0]).To(Equal(uint32(34)))
			Expect(e.GPR.R[insts.RegT1]).To(Equal(uint32(35)))
			Expect(e.GPR.R[insts.RegT2]).To(Equal(uint32(69)))
			Expect(e.PC).To(Equal(uint32(12)))
			Expect(e.Cycle).To(Equal(uint32(6)))
		})

		It("should dump the registers", func() {
			zero := "  00000000"
			expected := "code: 01095021\n" +
				"pc: 12\n" +
				"gpr:\n" +
				strings.Repeat(zero, 8) + "\n" +
				"  00000022  00000023  00000045" + strings.Repeat(zero, 5) + "\n" +
				strings.Repeat(zero, 8) + "\n" +
				strings.Repeat(zero, 8) + "\n" +
				"  00000000  00000000\n" +
				"\n"

			var buf bytes.Buffer
			Expect(e.DumpRegs(&buf)).To(Succeed())
			Expect(buf.String()).To(Equal(expected))
		})
	})
})
