package insts

// Reg is a general-purpose register index.
type Reg = uint8

// General-purpose registers by their conventional ABI names.
const (
	RegZero Reg = iota
	RegAT
	RegV0
	RegV1
	RegA0
	RegA1
	RegA2
	RegA3
	RegT0
	RegT1
	RegT2
	RegT3
	RegT4
	RegT5
	RegT6
	RegT7
	RegS0
	RegS1
	RegS2
	RegS3
	RegS4
	RegS5
	RegS6
	RegS7
	RegT8
	RegT9
	RegK0
	RegK1
	RegGP
	RegSP
	RegFP
	RegRA
)

// NumRegs is the number of general-purpose registers.
const NumRegs = 32

var regNames = [NumRegs]string{
	"zero", "at", "v0", "v1", "a0", "a1", "a2", "a3",
	"t0", "t1", "t2", "t3", "t4", "t5", "t6", "t7",
	"s0", "s1", "s2", "s3", "s4", "s5", "s6", "s7",
	"t8", "t9", "k0", "k1", "gp", "sp", "fp", "ra",
}

// RegName returns the ABI name of a register, e.g. "sp" for 29.
func RegName(r Reg) string {
	if int(r) >= NumRegs {
		return "?"
	}
	return regNames[r]
}

// RegByName looks up a register index by ABI name. "r0".."r31" and "s8" are
// accepted as aliases.
func RegByName(name string) (Reg, bool) {
	for i, n := range regNames {
		if n == name {
			return Reg(i), true
		}
	}
	if name == "s8" {
		return RegFP, true
	}
	var idx int
	if len(name) >= 2 && name[0] == 'r' {
		for _, c := range name[1:] {
			if c < '0' || c > '9' {
				return 0, false
			}
			idx = idx*10 + int(c-'0')
		}
		if idx < NumRegs {
			return Reg(idx), true
		}
	}
	return 0, false
}
