package insts

// EncodeR builds a register-format word.
func EncodeR(op Opcode, rs, rt, rd, shamt uint8, fn Funct) uint32 {
	return uint32(op)<<26 |
		uint32(rs&0x1F)<<21 |
		uint32(rt&0x1F)<<16 |
		uint32(rd&0x1F)<<11 |
		uint32(shamt&0x1F)<<6 |
		uint32(fn&0x3F)
}

// EncodeI builds an immediate-format word.
func EncodeI(op Opcode, rs, rt uint8, imm uint16) uint32 {
	return uint32(op)<<26 | uint32(rs&0x1F)<<21 | uint32(rt&0x1F)<<16 | uint32(imm)
}

// EncodeJ builds a jump-format word from a byte address. Only bits [27:2]
// of the address are encodable.
func EncodeJ(op Opcode, addr uint32) uint32 {
	return uint32(op)<<26 | (addr>>2)&0x03FFFFFF
}

func special(rs, rt, rd, shamt uint8, fn Funct) uint32 {
	return EncodeR(OpSPECIAL, rs, rt, rd, shamt, fn)
}

// NOP encodes "sll zero, zero, 0".
func NOP() uint32 { return 0 }

// ORI encodes rt <- rs | imm.
func ORI(rt, rs Reg, imm uint16) uint32 { return EncodeI(OpORI, rs, rt, imm) }

// ANDI encodes rt <- rs & imm.
func ANDI(rt, rs Reg, imm uint16) uint32 { return EncodeI(OpANDI, rs, rt, imm) }

// XORI encodes rt <- rs ^ imm.
func XORI(rt, rs Reg, imm uint16) uint32 { return EncodeI(OpXORI, rs, rt, imm) }

// ADDI encodes the trapping rt <- rs + simm.
func ADDI(rt, rs Reg, imm int16) uint32 { return EncodeI(OpADDI, rs, rt, uint16(imm)) }

// ADDIU encodes rt <- rs + simm.
func ADDIU(rt, rs Reg, imm int16) uint32 { return EncodeI(OpADDIU, rs, rt, uint16(imm)) }

// SLTI encodes rt <- rs < simm (signed).
func SLTI(rt, rs Reg, imm int16) uint32 { return EncodeI(OpSLTI, rs, rt, uint16(imm)) }

// SLTIU encodes rt <- rs < simm (unsigned compare of the sign-extended value).
func SLTIU(rt, rs Reg, imm int16) uint32 { return EncodeI(OpSLTIU, rs, rt, uint16(imm)) }

// LUI encodes rt <- imm << 16.
func LUI(rt Reg, imm uint16) uint32 { return EncodeI(OpLUI, 0, rt, imm) }

// ADD encodes the trapping rd <- rs + rt.
func ADD(rd, rs, rt Reg) uint32 { return special(rs, rt, rd, 0, FnADD) }

// ADDU encodes rd <- rs + rt.
func ADDU(rd, rs, rt Reg) uint32 { return special(rs, rt, rd, 0, FnADDU) }

// SUB encodes the trapping rd <- rs - rt.
func SUB(rd, rs, rt Reg) uint32 { return special(rs, rt, rd, 0, FnSUB) }

// SUBU encodes rd <- rs - rt.
func SUBU(rd, rs, rt Reg) uint32 { return special(rs, rt, rd, 0, FnSUBU) }

// AND encodes rd <- rs & rt.
func AND(rd, rs, rt Reg) uint32 { return special(rs, rt, rd, 0, FnAND) }

// OR encodes rd <- rs | rt.
func OR(rd, rs, rt Reg) uint32 { return special(rs, rt, rd, 0, FnOR) }

// XOR encodes rd <- rs ^ rt.
func XOR(rd, rs, rt Reg) uint32 { return special(rs, rt, rd, 0, FnXOR) }

// NOR encodes rd <- ^(rs | rt).
func NOR(rd, rs, rt Reg) uint32 { return special(rs, rt, rd, 0, FnNOR) }

// SLT encodes rd <- rs < rt (signed).
func SLT(rd, rs, rt Reg) uint32 { return special(rs, rt, rd, 0, FnSLT) }

// SLTU encodes rd <- rs < rt (unsigned).
func SLTU(rd, rs, rt Reg) uint32 { return special(rs, rt, rd, 0, FnSLTU) }

// SLL encodes rd <- rt << sa.
func SLL(rd, rt Reg, sa uint8) uint32 { return special(0, rt, rd, sa, FnSLL) }

// SRL encodes rd <- rt >> sa (logical).
func SRL(rd, rt Reg, sa uint8) uint32 { return special(0, rt, rd, sa, FnSRL) }

// SRA encodes rd <- rt >> sa (arithmetic).
func SRA(rd, rt Reg, sa uint8) uint32 { return special(0, rt, rd, sa, FnSRA) }

// SLLV encodes rd <- rt << (rs & 31).
func SLLV(rd, rt, rs Reg) uint32 { return special(rs, rt, rd, 0, FnSLLV) }

// SRLV encodes rd <- rt >> (rs & 31) (logical).
func SRLV(rd, rt, rs Reg) uint32 { return special(rs, rt, rd, 0, FnSRLV) }

// SRAV encodes rd <- rt >> (rs & 31) (arithmetic).
func SRAV(rd, rt, rs Reg) uint32 { return special(rs, rt, rd, 0, FnSRAV) }

// MULT encodes hi:lo <- rs * rt (signed).
func MULT(rs, rt Reg) uint32 { return special(rs, rt, 0, 0, FnMULT) }

// MULTU encodes hi:lo <- rs * rt (unsigned).
func MULTU(rs, rt Reg) uint32 { return special(rs, rt, 0, 0, FnMULTU) }

// DIV encodes lo <- rs / rt, hi <- rs % rt (signed).
func DIV(rs, rt Reg) uint32 { return special(rs, rt, 0, 0, FnDIV) }

// DIVU encodes lo <- rs / rt, hi <- rs % rt (unsigned).
func DIVU(rs, rt Reg) uint32 { return special(rs, rt, 0, 0, FnDIVU) }

// MFHI encodes rd <- hi.
func MFHI(rd Reg) uint32 { return special(0, 0, rd, 0, FnMFHI) }

// MFLO encodes rd <- lo.
func MFLO(rd Reg) uint32 { return special(0, 0, rd, 0, FnMFLO) }

// MTHI encodes hi <- rs.
func MTHI(rs Reg) uint32 { return special(rs, 0, 0, 0, FnMTHI) }

// MTLO encodes lo <- rs.
func MTLO(rs Reg) uint32 { return special(rs, 0, 0, 0, FnMTLO) }

// JR encodes a jump to the address in rs.
func JR(rs Reg) uint32 { return special(rs, 0, 0, 0, FnJR) }

// JALR encodes a jump to rs, linking into rd.
func JALR(rd, rs Reg) uint32 { return special(rs, 0, rd, 0, FnJALR) }

// SYSCALL encodes a system call with a 20-bit code.
func SYSCALL(code uint32) uint32 { return code&0xFFFFF<<6 | uint32(FnSYSCALL) }

// BREAK encodes a breakpoint with a 20-bit code.
func BREAK(code uint32) uint32 { return code&0xFFFFF<<6 | uint32(FnBREAK) }

// J encodes a jump to a byte address within the current 256 MiB region.
func J(addr uint32) uint32 { return EncodeJ(OpJ, addr) }

// JAL encodes a jump-and-link to a byte address.
func JAL(addr uint32) uint32 { return EncodeJ(OpJAL, addr) }

// BEQ encodes a branch if rs == rt. offset counts instructions from the
// delay slot.
func BEQ(rs, rt Reg, offset int16) uint32 { return EncodeI(OpBEQ, rs, rt, uint16(offset)) }

// BNE encodes a branch if rs != rt.
func BNE(rs, rt Reg, offset int16) uint32 { return EncodeI(OpBNE, rs, rt, uint16(offset)) }

// BLEZ encodes a branch if rs <= 0.
func BLEZ(rs Reg, offset int16) uint32 { return EncodeI(OpBLEZ, rs, 0, uint16(offset)) }

// BGTZ encodes a branch if rs > 0.
func BGTZ(rs Reg, offset int16) uint32 { return EncodeI(OpBGTZ, rs, 0, uint16(offset)) }

// BLTZ encodes a branch if rs < 0.
func BLTZ(rs Reg, offset int16) uint32 { return EncodeI(OpREGIMM, rs, RtBLTZ, uint16(offset)) }

// BGEZ encodes a branch if rs >= 0.
func BGEZ(rs Reg, offset int16) uint32 { return EncodeI(OpREGIMM, rs, RtBGEZ, uint16(offset)) }

// BLTZAL encodes a linking branch if rs < 0.
func BLTZAL(rs Reg, offset int16) uint32 { return EncodeI(OpREGIMM, rs, RtBLTZAL, uint16(offset)) }

// BGEZAL encodes a linking branch if rs >= 0.
func BGEZAL(rs Reg, offset int16) uint32 { return EncodeI(OpREGIMM, rs, RtBGEZAL, uint16(offset)) }

// LB encodes rt <- sext(mem8[base+offset]).
func LB(rt Reg, offset int16, base Reg) uint32 { return EncodeI(OpLB, base, rt, uint16(offset)) }

// LBU encodes rt <- zext(mem8[base+offset]).
func LBU(rt Reg, offset int16, base Reg) uint32 { return EncodeI(OpLBU, base, rt, uint16(offset)) }

// LH encodes rt <- sext(mem16[base+offset]).
func LH(rt Reg, offset int16, base Reg) uint32 { return EncodeI(OpLH, base, rt, uint16(offset)) }

// LHU encodes rt <- zext(mem16[base+offset]).
func LHU(rt Reg, offset int16, base Reg) uint32 { return EncodeI(OpLHU, base, rt, uint16(offset)) }

// LW encodes rt <- mem32[base+offset].
func LW(rt Reg, offset int16, base Reg) uint32 { return EncodeI(OpLW, base, rt, uint16(offset)) }

// LWL encodes an unaligned load of the most significant bytes.
func LWL(rt Reg, offset int16, base Reg) uint32 { return EncodeI(OpLWL, base, rt, uint16(offset)) }

// LWR encodes an unaligned load of the least significant bytes.
func LWR(rt Reg, offset int16, base Reg) uint32 { return EncodeI(OpLWR, base, rt, uint16(offset)) }

// SB encodes mem8[base+offset] <- rt.
func SB(rt Reg, offset int16, base Reg) uint32 { return EncodeI(OpSB, base, rt, uint16(offset)) }

// SH encodes mem16[base+offset] <- rt.
func SH(rt Reg, offset int16, base Reg) uint32 { return EncodeI(OpSH, base, rt, uint16(offset)) }

// SW encodes mem32[base+offset] <- rt.
func SW(rt Reg, offset int16, base Reg) uint32 { return EncodeI(OpSW, base, rt, uint16(offset)) }

// SWL encodes an unaligned store of the most significant bytes.
func SWL(rt Reg, offset int16, base Reg) uint32 { return EncodeI(OpSWL, base, rt, uint16(offset)) }

// SWR encodes an unaligned store of the least significant bytes.
func SWR(rt Reg, offset int16, base Reg) uint32 { return EncodeI(OpSWR, base, rt, uint16(offset)) }

// LWC2 encodes cop2.data[rt] <- mem32[base+offset].
func LWC2(rt uint8, offset int16, base Reg) uint32 {
	return EncodeI(OpLWC2, base, rt, uint16(offset))
}

// SWC2 encodes mem32[base+offset] <- cop2.data[rt].
func SWC2(rt uint8, offset int16, base Reg) uint32 {
	return EncodeI(OpSWC2, base, rt, uint16(offset))
}

// MFC0 encodes rt <- cop0[rd].
func MFC0(rt Reg, rd uint8) uint32 { return EncodeR(OpCOP0, uint8(CopMF), rt, rd, 0, 0) }

// MTC0 encodes cop0[rd] <- rt.
func MTC0(rt Reg, rd uint8) uint32 { return EncodeR(OpCOP0, uint8(CopMT), rt, rd, 0, 0) }

// RFE encodes the return-from-exception mode pop.
func RFE() uint32 { return EncodeR(OpCOP0, uint8(CopCO), 0, 0, 0, FnRFE) }

// MFC2 encodes rt <- cop2.data[rd].
func MFC2(rt Reg, rd uint8) uint32 { return EncodeR(OpCOP2, uint8(CopMF), rt, rd, 0, 0) }

// CFC2 encodes rt <- cop2.ctrl[rd].
func CFC2(rt Reg, rd uint8) uint32 { return EncodeR(OpCOP2, uint8(CopCF), rt, rd, 0, 0) }

// MTC2 encodes cop2.data[rd] <- rt.
func MTC2(rt Reg, rd uint8) uint32 { return EncodeR(OpCOP2, uint8(CopMT), rt, rd, 0, 0) }

// CTC2 encodes cop2.ctrl[rd] <- rt.
func CTC2(rt Reg, rd uint8) uint32 { return EncodeR(OpCOP2, uint8(CopCT), rt, rd, 0, 0) }

// COP2 encodes a geometry-coprocessor command with a 25-bit command field.
func COP2(cmd uint32) uint32 { return uint32(OpCOP2)<<26 | 1<<25 | cmd&0x01FFFFFF }
