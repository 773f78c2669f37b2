// Package config loads and validates emulator configuration files.
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/gfusx/emu"
	"github.com/sarchlab/gfusx/timing/cache"
)

// ICacheConfig describes the optional instruction-cache timing model.
type ICacheConfig struct {
	// Enabled attaches the model to the fetch unit.
	Enabled bool `json:"enabled"`

	// Size in bytes. Default: 4096.
	Size int `json:"size"`

	// Associativity is the number of ways. Default: 1 (direct mapped).
	Associativity int `json:"associativity"`

	// LineSize in bytes. Default: 16.
	LineSize int `json:"line_size"`

	// HitLatency is charged on every hit. Default: 0 cycles.
	HitLatency uint32 `json:"hit_latency"`

	// MissPenalty is charged on every line fill. Default: 4 cycles.
	MissPenalty uint32 `json:"miss_penalty"`
}

// Config holds the options of one emulator run.
type Config struct {
	// Debug enables overflow and alignment traps.
	Debug bool `json:"debug"`

	// CycleBias is the number of cycles charged per instruction.
	// Default: 2.
	CycleBias uint32 `json:"cycle_bias"`

	// LoadOffset is where program images are placed in the instruction
	// store. Default: 0.
	LoadOffset uint32 `json:"load_offset"`

	// Entry is the PC after power-on. Default: 0.
	Entry uint32 `json:"entry"`

	// ICache configures the instruction-cache timing model.
	ICache ICacheConfig `json:"icache"`

	// LogLevel is a logrus level name. Default: "info".
	LogLevel string `json:"log_level"`
}

// DefaultConfig returns a Config with the R3000A defaults.
func DefaultConfig() *Config {
	ic := cache.DefaultConfig()

	return &Config{
		Debug:     false,
		CycleBias: emu.DefaultCycleBias,
		ICache: ICacheConfig{
			Enabled:       false,
			Size:          ic.Size,
			Associativity: ic.Associativity,
			LineSize:      ic.LineSize,
			HitLatency:    ic.HitLatency,
			MissPenalty:   ic.MissPenalty,
		},
		LogLevel: logrus.InfoLevel.String(),
	}
}

// LoadConfig loads a Config from a JSON file. Fields missing from the file
// keep their defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// SaveConfig writes a Config to a JSON file.
func (c *Config) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks that the values describe a runnable machine.
func (c *Config) Validate() error {
	if c.CycleBias == 0 {
		return fmt.Errorf("cycle_bias must be > 0")
	}
	if c.LoadOffset%emu.InstructionWidth != 0 {
		return fmt.Errorf("load_offset must be word aligned")
	}
	if c.LoadOffset >= emu.ICacheSize {
		return fmt.Errorf("load_offset must be < 0x%X", emu.ICacheSize)
	}
	if c.Entry%emu.InstructionWidth != 0 {
		return fmt.Errorf("entry must be word aligned")
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level: %w", err)
	}
	if c.ICache.Enabled {
		if err := c.ICache.validate(); err != nil {
			return err
		}
	}
	return nil
}

func (ic *ICacheConfig) validate() error {
	if ic.LineSize < emu.InstructionWidth || ic.LineSize&(ic.LineSize-1) != 0 {
		return fmt.Errorf("icache.line_size must be a power of two >= %d", emu.InstructionWidth)
	}
	if ic.Associativity <= 0 {
		return fmt.Errorf("icache.associativity must be > 0")
	}
	if ic.Size <= 0 || ic.Size%(ic.LineSize*ic.Associativity) != 0 {
		return fmt.Errorf("icache.size must be a positive multiple of line_size * associativity")
	}
	return nil
}

// Clone returns a deep copy of the Config.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// Settings returns the emulator settings.
func (c *Config) Settings() emu.Settings {
	return emu.Settings{
		Debug:     c.Debug,
		CycleBias: c.CycleBias,
	}
}

// CacheConfig returns the instruction-cache geometry.
func (c *Config) CacheConfig() cache.Config {
	return cache.Config{
		Size:          c.ICache.Size,
		Associativity: c.ICache.Associativity,
		LineSize:      c.ICache.LineSize,
		HitLatency:    c.ICache.HitLatency,
		MissPenalty:   c.ICache.MissPenalty,
	}
}

// Origin returns the virtual address of the first word of a loaded image:
// LoadOffset seen through the segment Entry runs in.
func (c *Config) Origin() uint32 {
	return c.Entry&^emu.PhysMask | c.LoadOffset
}

// Level returns the parsed log level, or info if it does not parse.
func (c *Config) Level() logrus.Level {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

// NewLogger creates a logger writing to w at the configured level.
func (c *Config) NewLogger(w io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetLevel(c.Level())
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	return logger
}

// EmulatorOptions returns the options that build an emulator for this
// Config. The instruction cache is nil when the model is disabled.
func (c *Config) EmulatorOptions(logger logrus.FieldLogger) ([]emu.EmulatorOption, *cache.ICache) {
	opts := []emu.EmulatorOption{
		emu.WithSettings(c.Settings()),
		emu.WithLogger(logger),
	}

	if !c.ICache.Enabled {
		return opts, nil
	}

	ic := cache.New(c.CacheConfig())
	return append(opts, emu.WithFetchTimer(ic)), ic
}
