package asm

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"go.starlark.net/starlark"

	"github.com/sarchlab/gfusx/insts"
)

type fixupKind int

const (
	fixupBranch fixupKind = iota
	fixupJump
)

// fixup patches a word whose target label was not yet defined.
type fixup struct {
	index int
	label string
	kind  fixupKind
}

type builder struct {
	origin    uint32
	logger    logrus.FieldLogger
	constants map[string]int64

	words  []uint32
	labels map[string]uint32
	fixups []fixup
}

func newBuilder(opts ...Option) *builder {
	b := &builder{
		logger:    logrus.StandardLogger(),
		constants: map[string]int64{},
		labels:    map[string]uint32{},
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// here is the address the next word will occupy.
func (b *builder) here() uint32 {
	return b.origin + uint32(len(b.words))*4
}

func (b *builder) emit(word uint32) starlark.Value {
	addr := b.here()
	b.words = append(b.words, word)
	return starlark.MakeUint(uint(addr))
}

func (b *builder) predeclared() starlark.StringDict {
	env := starlark.StringDict{}

	for r := insts.Reg(0); r < insts.NumRegs; r++ {
		env[insts.RegName(r)] = starlark.MakeInt(int(r))
		env[fmt.Sprintf("r%d", r)] = starlark.MakeInt(int(r))
	}
	env["s8"] = starlark.MakeInt(int(insts.RegFP))

	for name, value := range b.constants {
		env[name] = starlark.MakeInt64(value)
	}

	for name, fn := range b.builtins() {
		env[name] = starlark.NewBuiltin(name, fn)
	}

	return env
}

type builtinFn = func(*starlark.Thread, *starlark.Builtin, starlark.Tuple, []starlark.Tuple) (starlark.Value, error)

func (b *builder) builtins() map[string]builtinFn {
	fns := map[string]builtinFn{
		"label": b.label,
		"here": func(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			if err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 0); err != nil {
				return nil, err
			}
			return starlark.MakeUint(uint(b.here())), nil
		},
		"word": func(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var v starlark.Value
			if err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 1, &v); err != nil {
				return nil, err
			}
			w, err := toUint(fn.Name(), v, 0xFFFFFFFF)
			if err != nil {
				return nil, err
			}
			return b.emit(w), nil
		},
		"nop": b.none(insts.NOP),
		"rfe": b.none(insts.RFE),
		"cop2": func(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var v starlark.Value
			if err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 1, &v); err != nil {
				return nil, err
			}
			cmd, err := toUint(fn.Name(), v, 0x01FFFFFF)
			if err != nil {
				return nil, err
			}
			return b.emit(insts.COP2(cmd)), nil
		},
		"syscall": b.code(insts.SYSCALL),
		"break_": b.code(insts.BREAK),
		"j":       b.jump(insts.OpJ),
		"jal":     b.jump(insts.OpJAL),
	}

	for name, enc := range map[string]func(a, b, c insts.Reg) uint32{
		"add": insts.ADD, "addu": insts.ADDU, "sub": insts.SUB, "subu": insts.SUBU,
		"and_": insts.AND, "or_": insts.OR, "xor": insts.XOR, "nor": insts.NOR,
		"slt": insts.SLT, "sltu": insts.SLTU,
		"sllv": insts.SLLV, "srlv": insts.SRLV, "srav": insts.SRAV,
	} {
		fns[name] = b.regs3(enc)
	}

	for name, enc := range map[string]func(rt, rs insts.Reg, imm int16) uint32{
		"addi": insts.ADDI, "addiu": insts.ADDIU, "slti": insts.SLTI, "sltiu": insts.SLTIU,
	} {
		fns[name] = b.signedImm(enc)
	}

	for name, enc := range map[string]func(rt, rs insts.Reg, imm uint16) uint32{
		"andi": insts.ANDI, "ori": insts.ORI, "xori": insts.XORI,
	} {
		fns[name] = b.unsignedImm(enc)
	}
	fns["lui"] = b.lui

	for name, enc := range map[string]func(rd, rt insts.Reg, sa uint8) uint32{
		"sll": insts.SLL, "srl": insts.SRL, "sra": insts.SRA,
	} {
		fns[name] = b.shift(enc)
	}

	for name, enc := range map[string]func(a, b insts.Reg) uint32{
		"mult": insts.MULT, "multu": insts.MULTU, "div": insts.DIV, "divu": insts.DIVU,
		"jalr": insts.JALR,
	} {
		fns[name] = b.regs2(enc)
	}

	for name, enc := range map[string]func(r insts.Reg) uint32{
		"mfhi": insts.MFHI, "mflo": insts.MFLO, "mthi": insts.MTHI, "mtlo": insts.MTLO,
		"jr": insts.JR,
	} {
		fns[name] = b.regs1(enc)
	}

	for name, enc := range map[string]func(rt insts.Reg, offset int16, base insts.Reg) uint32{
		"lb": insts.LB, "lbu": insts.LBU, "lh": insts.LH, "lhu": insts.LHU,
		"lw": insts.LW, "lwl": insts.LWL, "lwr": insts.LWR,
		"sb": insts.SB, "sh": insts.SH, "sw": insts.SW, "swl": insts.SWL, "swr": insts.SWR,
		"lwc2": insts.LWC2, "swc2": insts.SWC2,
	} {
		fns[name] = b.memory(enc)
	}

	for name, enc := range map[string]func(rt insts.Reg, rd uint8) uint32{
		"mfc0": insts.MFC0, "mtc0": insts.MTC0,
		"mfc2": insts.MFC2, "cfc2": insts.CFC2, "mtc2": insts.MTC2, "ctc2": insts.CTC2,
	} {
		fns[name] = b.regs2(func(rt, rd insts.Reg) uint32 { return enc(rt, rd) })
	}

	for name, enc := range map[string]func(rs, rt insts.Reg, offset int16) uint32{
		"beq": insts.BEQ, "bne": insts.BNE,
	} {
		fns[name] = b.branch2(enc)
	}

	for name, enc := range map[string]func(rs insts.Reg, offset int16) uint32{
		"blez": insts.BLEZ, "bgtz": insts.BGTZ, "bltz": insts.BLTZ, "bgez": insts.BGEZ,
		"bltzal": insts.BLTZAL, "bgezal": insts.BGEZAL,
	} {
		fns[name] = b.branch1(enc)
	}

	return fns
}

func (b *builder) label(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var name string
	if err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 1, &name); err != nil {
		return nil, err
	}
	if _, dup := b.labels[name]; dup {
		return nil, fmt.Errorf("%s: label %q already defined", fn.Name(), name)
	}
	b.labels[name] = b.here()
	return starlark.MakeUint(uint(b.here())), nil
}

func (b *builder) none(enc func() uint32) builtinFn {
	return func(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		if err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 0); err != nil {
			return nil, err
		}
		return b.emit(enc()), nil
	}
}

func (b *builder) code(enc func(code uint32) uint32) builtinFn {
	return func(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var v starlark.Value = starlark.MakeInt(0)
		if err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 0, &v); err != nil {
			return nil, err
		}
		code, err := toUint(fn.Name(), v, 0xFFFFF)
		if err != nil {
			return nil, err
		}
		return b.emit(enc(code)), nil
	}
}

func (b *builder) regs1(enc func(insts.Reg) uint32) builtinFn {
	return func(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var a starlark.Value
		if err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 1, &a); err != nil {
			return nil, err
		}
		r, err := toReg(fn.Name(), a)
		if err != nil {
			return nil, err
		}
		return b.emit(enc(r)), nil
	}
}

func (b *builder) regs2(enc func(a, b insts.Reg) uint32) builtinFn {
	return func(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var a, c starlark.Value
		if err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 2, &a, &c); err != nil {
			return nil, err
		}
		regs, err := toRegs(fn.Name(), a, c)
		if err != nil {
			return nil, err
		}
		return b.emit(enc(regs[0], regs[1])), nil
	}
}

func (b *builder) regs3(enc func(a, b, c insts.Reg) uint32) builtinFn {
	return func(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var a, c, d starlark.Value
		if err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 3, &a, &c, &d); err != nil {
			return nil, err
		}
		regs, err := toRegs(fn.Name(), a, c, d)
		if err != nil {
			return nil, err
		}
		return b.emit(enc(regs[0], regs[1], regs[2])), nil
	}
}

func (b *builder) signedImm(enc func(rt, rs insts.Reg, imm int16) uint32) builtinFn {
	return func(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var rt, rs, imm starlark.Value
		if err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 3, &rt, &rs, &imm); err != nil {
			return nil, err
		}
		regs, err := toRegs(fn.Name(), rt, rs)
		if err != nil {
			return nil, err
		}
		v, err := toInt16(fn.Name(), imm)
		if err != nil {
			return nil, err
		}
		return b.emit(enc(regs[0], regs[1], v)), nil
	}
}

func (b *builder) unsignedImm(enc func(rt, rs insts.Reg, imm uint16) uint32) builtinFn {
	return func(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var rt, rs, imm starlark.Value
		if err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 3, &rt, &rs, &imm); err != nil {
			return nil, err
		}
		regs, err := toRegs(fn.Name(), rt, rs)
		if err != nil {
			return nil, err
		}
		v, err := toUint(fn.Name(), imm, 0xFFFF)
		if err != nil {
			return nil, err
		}
		return b.emit(enc(regs[0], regs[1], uint16(v))), nil
	}
}

func (b *builder) lui(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var rt, imm starlark.Value
	if err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 2, &rt, &imm); err != nil {
		return nil, err
	}
	r, err := toReg(fn.Name(), rt)
	if err != nil {
		return nil, err
	}
	v, err := toUint(fn.Name(), imm, 0xFFFF)
	if err != nil {
		return nil, err
	}
	return b.emit(insts.LUI(r, uint16(v))), nil
}

func (b *builder) shift(enc func(rd, rt insts.Reg, sa uint8) uint32) builtinFn {
	return func(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var rd, rt, sa starlark.Value
		if err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 3, &rd, &rt, &sa); err != nil {
			return nil, err
		}
		regs, err := toRegs(fn.Name(), rd, rt)
		if err != nil {
			return nil, err
		}
		amount, err := toUint(fn.Name(), sa, 31)
		if err != nil {
			return nil, err
		}
		return b.emit(enc(regs[0], regs[1], uint8(amount))), nil
	}
}

func (b *builder) memory(enc func(rt insts.Reg, offset int16, base insts.Reg) uint32) builtinFn {
	return func(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var rt, offset, base starlark.Value
		if err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 3, &rt, &offset, &base); err != nil {
			return nil, err
		}
		regs, err := toRegs(fn.Name(), rt, base)
		if err != nil {
			return nil, err
		}
		off, err := toInt16(fn.Name(), offset)
		if err != nil {
			return nil, err
		}
		return b.emit(enc(regs[0], off, regs[1])), nil
	}
}

func (b *builder) branch2(enc func(rs, rt insts.Reg, offset int16) uint32) builtinFn {
	return func(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var rs, rt, target starlark.Value
		if err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 3, &rs, &rt, &target); err != nil {
			return nil, err
		}
		regs, err := toRegs(fn.Name(), rs, rt)
		if err != nil {
			return nil, err
		}
		return b.emitBranch(fn.Name(), enc(regs[0], regs[1], 0), target)
	}
}

func (b *builder) branch1(enc func(rs insts.Reg, offset int16) uint32) builtinFn {
	return func(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var rs, target starlark.Value
		if err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 2, &rs, &target); err != nil {
			return nil, err
		}
		r, err := toReg(fn.Name(), rs)
		if err != nil {
			return nil, err
		}
		return b.emitBranch(fn.Name(), enc(r, 0), target)
	}
}

func (b *builder) jump(op insts.Opcode) builtinFn {
	return func(_ *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var target starlark.Value
		if err := starlark.UnpackPositionalArgs(fn.Name(), args, kwargs, 1, &target); err != nil {
			return nil, err
		}
		return b.emitTarget(fn.Name(), insts.EncodeJ(op, 0), target, fixupJump)
	}
}

func (b *builder) emitBranch(name string, word uint32, target starlark.Value) (starlark.Value, error) {
	return b.emitTarget(name, word, target, fixupBranch)
}

// emitTarget emits a branch or jump word. A label target that is already
// defined is patched at once; otherwise the patch waits for resolve.
func (b *builder) emitTarget(name string, word uint32, target starlark.Value, kind fixupKind) (starlark.Value, error) {
	index := len(b.words)
	addr := b.emit(word)

	if label, ok := target.(starlark.String); ok {
		dest, defined := b.labels[string(label)]
		if !defined {
			b.fixups = append(b.fixups, fixup{index: index, label: string(label), kind: kind})
			return addr, nil
		}
		if err := b.patch(index, dest, kind); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return addr, nil
	}

	dest, err := toUint(name, target, 0xFFFFFFFF)
	if err != nil {
		return nil, err
	}
	if err := b.patch(index, dest, kind); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	return addr, nil
}

// patch fills the target field of word index.
func (b *builder) patch(index int, dest uint32, kind fixupKind) error {
	if dest%4 != 0 {
		return fmt.Errorf("target 0x%08X is not word aligned", dest)
	}

	slot := b.origin + uint32(index)*4 + 4

	switch kind {
	case fixupBranch:
		offset := int64(int32(dest-slot)) / 4
		if offset < -0x8000 || offset > 0x7FFF {
			return fmt.Errorf("target 0x%08X out of branch range", dest)
		}
		b.words[index] = b.words[index]&^0xFFFF | uint32(uint16(offset))
	case fixupJump:
		if dest&0xF0000000 != slot&0xF0000000 {
			return fmt.Errorf("target 0x%08X outside the current 256MB region", dest)
		}
		b.words[index] = b.words[index]&^0x03FFFFFF | (dest>>2)&0x03FFFFFF
	}

	return nil
}

// resolve patches forward references once the whole script has run.
func (b *builder) resolve() error {
	for _, f := range b.fixups {
		dest, ok := b.labels[f.label]
		if !ok {
			return fmt.Errorf("undefined label %q", f.label)
		}
		if err := b.patch(f.index, dest, f.kind); err != nil {
			return fmt.Errorf("label %q: %w", f.label, err)
		}
	}
	b.fixups = nil
	return nil
}

func toInt(name string, v starlark.Value) (int64, error) {
	i, ok := v.(starlark.Int)
	if !ok {
		return 0, fmt.Errorf("%s: got %s, want int", name, v.Type())
	}
	n, ok := i.Int64()
	if !ok {
		return 0, fmt.Errorf("%s: %v out of range", name, i)
	}
	return n, nil
}

func toUint(name string, v starlark.Value, max uint32) (uint32, error) {
	n, err := toInt(name, v)
	if err != nil {
		return 0, err
	}
	if n < 0 || n > int64(max) {
		return 0, fmt.Errorf("%s: %d out of range [0, %d]", name, n, max)
	}
	return uint32(n), nil
}

func toInt16(name string, v starlark.Value) (int16, error) {
	n, err := toInt(name, v)
	if err != nil {
		return 0, err
	}
	if n < -0x8000 || n > 0x7FFF {
		return 0, fmt.Errorf("%s: %d out of range [-32768, 32767]", name, n)
	}
	return int16(n), nil
}

func toReg(name string, v starlark.Value) (insts.Reg, error) {
	n, err := toUint(name, v, insts.NumRegs-1)
	if err != nil {
		return 0, fmt.Errorf("bad register: %w", err)
	}
	return insts.Reg(n), nil
}

func toRegs(name string, vs ...starlark.Value) ([]insts.Reg, error) {
	regs := make([]insts.Reg, len(vs))
	for i, v := range vs {
		r, err := toReg(name, v)
		if err != nil {
			return nil, err
		}
		regs[i] = r
	}
	return regs, nil
}
