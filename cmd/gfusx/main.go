// Package main provides the entry point for gfusx.
// gfusx is a functional MIPS R3000A instruction-core emulator.
package main

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/gfusx/asm"
	"github.com/sarchlab/gfusx/config"
	"github.com/sarchlab/gfusx/emu"
	"github.com/sarchlab/gfusx/insts"
	"github.com/sarchlab/gfusx/loader"
	"github.com/sarchlab/gfusx/timing/core"
	"github.com/sarchlab/gfusx/translate"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// options are the parsed command-line flags.
type options struct {
	configPath string
	scriptPath string
	dumpConfig string
	steps      int
	debug      bool
	listing    bool
	verbose    bool
	imagePath  string
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	opts := &options{}

	fs := flag.NewFlagSet("gfusx", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configPath, "config", "", "Path to configuration JSON file")
	fs.StringVar(&opts.scriptPath, "script", "", "Starlark script that builds the program")
	fs.StringVar(&opts.dumpConfig, "dump-config", "", "Write the effective configuration to this path and exit")
	fs.IntVar(&opts.steps, "steps", 0, "Instructions to execute (default: program length)")
	fs.BoolVar(&opts.debug, "debug", false, "Enable overflow and alignment traps")
	fs.BoolVar(&opts.listing, "listing", false, "Print the program listing before running")
	fs.BoolVar(&opts.verbose, "v", false, "Verbose output")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: gfusx [options] [program.bin|program.elf]\n")
		fmt.Fprintf(stderr, "\nWithout a program or -script, runs a built-in demo.\n")
		fmt.Fprintf(stderr, "\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if fs.NArg() > 1 {
		fs.Usage()
		return nil, fmt.Errorf("expected at most one program, got %d", fs.NArg())
	}
	opts.imagePath = fs.Arg(0)

	return opts, nil
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading config: %v\n", err)
		return 1
	}

	if opts.dumpConfig != "" {
		if err := cfg.SaveConfig(opts.dumpConfig); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	logger := cfg.NewLogger(stderr)

	prog, view, err := loadProgram(opts, cfg, logger)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading program: %v\n", err)
		return 1
	}

	if opts.listing {
		if err := printListing(stdout, prog, view); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
	}

	if err := simulate(opts, cfg, prog, logger, stdout); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	return 0
}

func loadConfig(opts *options) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if opts.configPath != "" {
		var err error
		cfg, err = config.LoadConfig(opts.configPath)
		if err != nil {
			return nil, err
		}
	}

	if opts.debug {
		cfg.Debug = true
	}
	if opts.verbose && cfg.Level() < logrus.DebugLevel {
		cfg.LogLevel = logrus.DebugLevel.String()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// demoProgram computes 34 + 35 into t2.
func demoProgram(origin uint32) *asm.Program {
	return &asm.Program{
		Origin: origin,
		Words: []uint32{
			insts.ORI(insts.RegT0, insts.RegZero, 34),
			insts.ORI(insts.RegT1, insts.RegZero, 35),
			insts.ADDU(insts.RegT2, insts.RegT0, insts.RegT1),
		},
	}
}

// loadProgram returns the program to install. The assembly view is nil for
// ELF input.
func loadProgram(opts *options, cfg *config.Config, logger logrus.FieldLogger) (*loader.Program, *asm.Program, error) {
	var prog *asm.Program

	switch {
	case opts.scriptPath != "":
		var err error
		prog, err = asm.BuildFile(opts.scriptPath, asm.WithOrigin(cfg.Origin()), asm.WithLogger(logger))
		if err != nil {
			return nil, nil, err
		}
	case opts.imagePath != "":
		image, err := os.ReadFile(opts.imagePath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read program: %w", err)
		}
		if bytes.HasPrefix(image, []byte(elf.ELFMAG)) {
			lp, err := loader.Parse(bytes.NewReader(image))
			return lp, nil, err
		}
		if len(image)%emu.InstructionWidth != 0 {
			return nil, nil, fmt.Errorf("program size %d is not a multiple of %d",
				len(image), emu.InstructionWidth)
		}
		prog = &asm.Program{Origin: cfg.Origin()}
		for i := 0; i < len(image); i += emu.InstructionWidth {
			prog.Words = append(prog.Words, binary.LittleEndian.Uint32(image[i:]))
		}
	default:
		prog = demoProgram(cfg.Origin())
	}

	return loader.FromImage(cfg.Origin(), cfg.Entry, prog.Image()), prog, nil
}

// printListing disassembles the program. ELF input is listed per executable
// segment.
func printListing(w io.Writer, lp *loader.Program, prog *asm.Program) error {
	if prog != nil {
		return prog.Listing(w)
	}

	for _, seg := range lp.Segments {
		if seg.Flags&loader.SegmentFlagExecute == 0 {
			continue
		}
		view := &asm.Program{Origin: seg.VirtAddr}
		for i := 0; i+emu.InstructionWidth <= len(seg.Data); i += emu.InstructionWidth {
			view.Words = append(view.Words, binary.LittleEndian.Uint32(seg.Data[i:]))
		}
		if err := view.Listing(w); err != nil {
			return err
		}
	}

	return nil
}

// simulate runs the program on a fresh core and dumps the registers.
func simulate(opts *options, cfg *config.Config, prog *loader.Program, logger logrus.FieldLogger, stdout io.Writer) error {
	c := core.NewCore(cfg, logger)
	defer c.Emulator().PowerOff()

	if err := c.Load(prog); err != nil {
		return err
	}

	steps := opts.steps
	if steps <= 0 {
		steps = prog.InstructionCount()
	}

	c.Run(steps)
	if c.Halted() {
		return c.Err()
	}

	if err := c.Emulator().DumpRegs(stdout); err != nil {
		return err
	}

	if opts.verbose {
		stats := c.Stats()
		fmt.Fprint(stdout, translate.From("Instructions executed: %d\n", stats.Instructions))
		fmt.Fprint(stdout, translate.From("Cycles: %d\n", stats.Cycles))
		fmt.Fprint(stdout, translate.From("Call depth: %d (max %d)\n", c.CallStack().Depth(), stats.MaxCallDepth))
		if c.ICache() != nil {
			fmt.Fprint(stdout, translate.From("I-cache: %d hits, %d misses (%.1f%%)\n",
				stats.ICache.Hits, stats.ICache.Misses, 100*stats.ICache.HitRate()))
		}
	}

	return nil
}
