// Package insts provides MIPS R3000A instruction definitions, decoding and
// encoding.
//
// Decoding is pure bit-field extraction: every 32-bit word has a structural
// decomposition, whether or not the emulator implements the opcode it names.
// The package covers:
//   - Field extraction: opcode, rs, rt, rd, shamt, funct, immediate, target
//   - Opcode, SPECIAL funct and coprocessor sub-op constants
//   - Encoders for R, I and J formats plus per-mnemonic helpers
//
// Usage:
//
//	inst := insts.Decode(insts.ORI(insts.RegT0, insts.RegZero, 34))
//	fmt.Printf("Op: %v, Rt: %d, Imm: %d\n", inst.Opcode, inst.Rt, inst.Imm)
package insts
