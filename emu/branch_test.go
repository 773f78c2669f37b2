package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/gfusx/emu"
	"github.com/sarchlab/gfusx/insts"
)

var _ = Describe("Branches", func() {
	var e *emu.Emulator

	BeforeEach(func() {
		e, _ = newTestEmulator(emu.Settings{})
	})

	Describe("delay slot", func() {
		BeforeEach(func() {
			load(e, 0,
				insts.BEQ(insts.RegZero, insts.RegZero, 3),
				insts.ORI(insts.RegT0, insts.RegZero, 1),
				insts.ORI(insts.RegT1, insts.RegZero, 2),
				insts.ORI(insts.RegT2, insts.RegZero, 3),
				insts.ORI(insts.RegT3, insts.RegZero, 4),
			)
		})

		It("should arm the delay slot without redirecting", func() {
			e.Step()
			Expect(e.PC).To(Equal(uint32(4)))
			Expect(e.InDelaySlot).To(BeTrue())
			Expect(e.GPR.R[insts.RegT0]).To(Equal(uint32(0)))
		})

		It("should execute the delay slot before the target", func() {
			stepN(e, 2)
			Expect(e.GPR.R[insts.RegT0]).To(Equal(uint32(1)))
			Expect(e.PC).To(Equal(uint32(16)))
			Expect(e.InDelaySlot).To(BeFalse())
		})

		It("should skip the instructions between slot and target", func() {
			stepN(e, 3)
			Expect(e.GPR.R[insts.RegT1]).To(Equal(uint32(0)))
			Expect(e.GPR.R[insts.RegT2]).To(Equal(uint32(0)))
			Expect(e.GPR.R[insts.RegT3]).To(Equal(uint32(4)))
			Expect(e.PC).To(Equal(uint32(20)))
		})
	})

	It("should fall through when not taken", func() {
		e.GPR.R[insts.RegT0] = 1
		load(e, 0, insts.BNE(insts.RegT0, insts.RegT0, 8))
		e.Step()
		Expect(e.InDelaySlot).To(BeFalse())
		e.Step()
		Expect(e.PC).To(Equal(uint32(8)))
	})

	It("should branch backwards", func() {
		load(e, 0x20, insts.BLEZ(insts.RegZero, -8))
		e.PC = 0x20
		stepN(e, 2)
		Expect(e.PC).To(Equal(uint32(0x04)))
	})

	DescribeTable("conditional branches",
		func(word uint32, rs uint32, taken bool) {
			e.GPR.R[insts.RegT0] = rs
			load(e, 0, word)
			stepN(e, 2)
			if taken {
				Expect(e.PC).To(Equal(uint32(0x14)))
			} else {
				Expect(e.PC).To(Equal(uint32(8)))
			}
		},
		Entry("bgtz positive", insts.BGTZ(insts.RegT0, 4), uint32(1), true),
		Entry("bgtz zero", insts.BGTZ(insts.RegT0, 4), uint32(0), false),
		Entry("blez negative", insts.BLEZ(insts.RegT0, 4), uint32(0xFFFFFFFF), true),
		Entry("bltz negative", insts.BLTZ(insts.RegT0, 4), uint32(0x80000000), true),
		Entry("bltz zero", insts.BLTZ(insts.RegT0, 4), uint32(0), false),
		Entry("bgez zero", insts.BGEZ(insts.RegT0, 4), uint32(0), true),
		Entry("bgez negative", insts.BGEZ(insts.RegT0, 4), uint32(0xFFFFFFFF), false),
	)

	Describe("jumps", func() {
		It("should jump within the current region", func() {
			load(e, 0x40, insts.J(0x100))
			e.PC = 0x80000040
			stepN(e, 2)
			Expect(e.PC).To(Equal(uint32(0x80000100)))
		})

		It("should link past the delay slot", func() {
			load(e, 0, insts.JAL(0x100))
			e.Step()
			Expect(e.GPR.R[insts.RegRA]).To(Equal(uint32(8)))
			e.Step()
			Expect(e.PC).To(Equal(uint32(0x100)))
		})

		It("should jump to a register", func() {
			e.GPR.R[insts.RegRA] = 0x200
			load(e, 0, insts.JR(insts.RegRA))
			stepN(e, 2)
			Expect(e.PC).To(Equal(uint32(0x200)))
		})

		It("should read the JALR target before linking", func() {
			e.GPR.R[insts.RegT0] = 0x200
			load(e, 0, insts.JALR(insts.RegT0, insts.RegT0))
			stepN(e, 2)
			Expect(e.GPR.R[insts.RegT0]).To(Equal(uint32(8)))
			Expect(e.PC).To(Equal(uint32(0x200)))
		})
	})

	Describe("link-and-branch on sign", func() {
		It("should link even when not taken", func() {
			e.GPR.R[insts.RegT0] = 0xFFFFFFFF
			load(e, 0, insts.BGEZAL(insts.RegT0, 4))
			stepN(e, 2)
			Expect(e.GPR.R[insts.RegRA]).To(Equal(uint32(8)))
			Expect(e.PC).To(Equal(uint32(8)))
		})

		It("should link and take BLTZAL", func() {
			e.GPR.R[insts.RegT0] = 0xFFFFFFFF
			load(e, 0, insts.BLTZAL(insts.RegT0, 4))
			stepN(e, 2)
			Expect(e.GPR.R[insts.RegRA]).To(Equal(uint32(8)))
			Expect(e.PC).To(Equal(uint32(0x14)))
		})
	})

	It("should chain a branch placed in a delay slot", func() {
		load(e, 0, insts.J(0x20), insts.J(0x40))
		load(e, 0x20,
			insts.ORI(insts.RegT0, insts.RegZero, 1),
			insts.ORI(insts.RegT1, insts.RegZero, 2),
		)
		load(e, 0x40, insts.ORI(insts.RegT2, insts.RegZero, 3))

		stepN(e, 2)
		Expect(e.PC).To(Equal(uint32(0x20)))
		Expect(e.InDelaySlot).To(BeTrue())

		stepN(e, 2)
		Expect(e.GPR.R[insts.RegT0]).To(Equal(uint32(1)))
		Expect(e.GPR.R[insts.RegT1]).To(Equal(uint32(0)))
		Expect(e.GPR.R[insts.RegT2]).To(Equal(uint32(3)))
		Expect(e.PC).To(Equal(uint32(0x44)))
	})
})
