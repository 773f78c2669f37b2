// Package asm builds instruction-store images from Starlark scripts.
//
// A script calls one builtin per instruction, in program order:
//
//	label("loop")
//	addiu(t0, t0, -1)
//	bne(t0, zero, "loop")
//	nop()
//
// Registers are predeclared by their ABI names (zero, at, v0, ... ra) and
// as r0..r31. Branch and jump targets are either absolute addresses or
// label names, which may be defined later in the script. The mnemonics that
// collide with Starlark keywords are spelled and_, or_ and break_.
package asm

import (
	"encoding/binary"
	"fmt"
	"io"
	"sort"

	"github.com/sirupsen/logrus"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/sarchlab/gfusx/insts"
)

// Program is an assembled image.
type Program struct {
	// Origin is the address of the first word.
	Origin uint32

	// Words are the instruction words in address order.
	Words []uint32

	// Labels maps label names to addresses.
	Labels map[string]uint32
}

// Image returns the program as little-endian bytes.
func (p *Program) Image() []byte {
	buf := make([]byte, len(p.Words)*4)
	for i, w := range p.Words {
		binary.LittleEndian.PutUint32(buf[i*4:], w)
	}
	return buf
}

// Listing writes one line per word: address, encoding and mnemonic. Label
// definitions are printed before the word they name.
func (p *Program) Listing(w io.Writer) error {
	byAddr := map[uint32][]string{}
	for name, addr := range p.Labels {
		byAddr[addr] = append(byAddr[addr], name)
	}

	for i, word := range p.Words {
		addr := p.Origin + uint32(i)*4

		names := byAddr[addr]
		sort.Strings(names)
		for _, name := range names {
			if _, err := fmt.Fprintf(w, "%s:\n", name); err != nil {
				return err
			}
		}

		if _, err := fmt.Fprintf(w, "  %08X  %08X  %s\n", addr, word, insts.Name(insts.Decode(word))); err != nil {
			return err
		}
	}

	return nil
}

// Option configures a build.
type Option func(*builder)

// WithOrigin sets the address of the first word. It must be word aligned.
func WithOrigin(addr uint32) Option {
	return func(b *builder) {
		b.origin = addr
	}
}

// WithLogger routes the script's print() output to the logger at info
// level.
func WithLogger(l logrus.FieldLogger) Option {
	return func(b *builder) {
		b.logger = l
	}
}

// WithConstant predeclares an integer constant for the script.
func WithConstant(name string, value int64) Option {
	return func(b *builder) {
		b.constants[name] = value
	}
}

// Build executes a Starlark script and returns the program it emits. src
// may be a string, a []byte or an io.Reader; name is used in error
// messages.
func Build(name string, src any, opts ...Option) (*Program, error) {
	b := newBuilder(opts...)

	if b.origin%4 != 0 {
		return nil, fmt.Errorf("origin 0x%08X is not word aligned", b.origin)
	}

	thread := &starlark.Thread{
		Name: name,
		Print: func(_ *starlark.Thread, msg string) {
			b.logger.WithField("script", name).Info(msg)
		},
	}
	fileOpts := &syntax.FileOptions{
		While:           true,
		TopLevelControl: true,
		GlobalReassign:  true,
	}

	if _, err := starlark.ExecFileOptions(fileOpts, thread, name, src, b.predeclared()); err != nil {
		return nil, fmt.Errorf("failed to run %s: %w", name, err)
	}

	if err := b.resolve(); err != nil {
		return nil, fmt.Errorf("failed to link %s: %w", name, err)
	}

	return &Program{
		Origin: b.origin,
		Words:  b.words,
		Labels: b.labels,
	}, nil
}

// BuildFile reads and builds the script at path.
func BuildFile(path string, opts ...Option) (*Program, error) {
	return Build(path, nil, opts...)
}
