// Package core provides the runnable CPU core model.
// It wires the emulator to the instruction-cache timing model and the
// call-stack tracker, and provides a high-level interface for simulation.
package core

import (
	"github.com/sirupsen/logrus"

	"github.com/sarchlab/gfusx/callstack"
	"github.com/sarchlab/gfusx/config"
	"github.com/sarchlab/gfusx/emu"
	"github.com/sarchlab/gfusx/loader"
	"github.com/sarchlab/gfusx/timing/cache"
)

// Stats holds performance statistics for the core.
type Stats struct {
	// Instructions is the number of instructions stepped.
	Instructions uint64
	// Cycles is the emulator cycle counter. It wraps at 32 bits.
	Cycles uint32
	// MaxCallDepth is the deepest stack-frame nesting observed.
	MaxCallDepth int
	// ICache holds the instruction-cache statistics. It is zero when the
	// model is disabled.
	ICache cache.Statistics
}

// Core represents a powered-on CPU core.
type Core struct {
	emulator *emu.Emulator
	icache   *cache.ICache
	tracker  *callstack.Tracker

	instructions uint64
	err          error
}

// NewCore creates a powered-on Core configured by cfg.
func NewCore(cfg *config.Config, logger logrus.FieldLogger) *Core {
	opts, ic := cfg.EmulatorOptions(logger)
	tracker := callstack.NewTracker()
	opts = append(opts, emu.WithStackPointerHook(tracker))

	c := &Core{
		emulator: emu.NewEmulator(opts...),
		icache:   ic,
		tracker:  tracker,
	}
	c.emulator.PowerOn()

	return c
}

// Emulator returns the underlying emulator.
func (c *Core) Emulator() *emu.Emulator {
	return c.emulator
}

// ICache returns the instruction-cache model, or nil when disabled.
func (c *Core) ICache() *cache.ICache {
	return c.icache
}

// CallStack returns the call-stack tracker.
func (c *Core) CallStack() *callstack.Tracker {
	return c.tracker
}

// Load installs a program and points the PC at its entry.
func (c *Core) Load(prog *loader.Program) error {
	return prog.Install(c.emulator)
}

// Tick executes one instruction. A fetch outside the instruction store
// halts the core.
func (c *Core) Tick() {
	if c.err != nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			fetchErr, ok := r.(*emu.FetchError)
			if !ok {
				panic(r)
			}
			c.err = fetchErr
		}
	}()

	c.emulator.Step()
	c.instructions++
}

// Halted returns true if the core has stopped on a fetch error.
func (c *Core) Halted() bool {
	return c.err != nil
}

// Err returns the error that halted the core.
func (c *Core) Err() error {
	return c.err
}

// Run executes up to n instructions and returns how many completed.
func (c *Core) Run(n int) int {
	executed := 0
	for ; executed < n; executed++ {
		c.Tick()
		if c.Halted() {
			break
		}
	}
	return executed
}

// Stats returns performance statistics for the core.
func (c *Core) Stats() Stats {
	stats := Stats{
		Instructions: c.instructions,
		Cycles:       c.emulator.Cycle,
		MaxCallDepth: c.tracker.MaxDepth(),
	}
	if c.icache != nil {
		stats.ICache = c.icache.Stats()
	}
	return stats
}

// Reset power-cycles the emulator and clears the tracker and cache.
func (c *Core) Reset() {
	c.emulator.PowerOff()
	c.emulator.PowerOn()
	c.tracker.Reset()
	if c.icache != nil {
		c.icache.Reset()
		c.icache.ResetStats()
	}
	c.instructions = 0
	c.err = nil
}
