// Package cache models instruction-cache timing using Akita cache components.
//
// The model keeps tags only. Instruction bytes always come from the
// emulator's instruction store; the cache decides how many extra cycles a
// fetch costs.
package cache

import (
	akitacache "github.com/sarchlab/akita/v4/mem/cache"
)

// Config holds cache configuration parameters.
type Config struct {
	// Size in bytes
	Size int
	// Associativity (number of ways)
	Associativity int
	// LineSize in bytes
	LineSize int
	// HitLatency in cycles, charged on top of the cycle bias
	HitLatency uint32
	// MissPenalty in cycles, charged on a line fill
	MissPenalty uint32
}

// DefaultConfig returns the R3000A instruction cache: 4KB, direct mapped,
// 16B lines. Hits are free; a line fill stalls the pipeline.
func DefaultConfig() Config {
	return Config{
		Size:          4 * 1024,
		Associativity: 1,
		LineSize:      16,
		HitLatency:    0,
		MissPenalty:   4,
	}
}

// NumSets returns the number of sets the geometry implies.
func (c Config) NumSets() int {
	return c.Size / (c.Associativity * c.LineSize)
}

// Statistics holds cache performance statistics.
type Statistics struct {
	Fetches   uint64
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// HitRate returns Hits/Fetches, or 0 before the first fetch.
func (s Statistics) HitRate() float64 {
	if s.Fetches == 0 {
		return 0
	}
	return float64(s.Hits) / float64(s.Fetches)
}

// ICache is a tag-only instruction cache. It satisfies emu.FetchTimer.
type ICache struct {
	config Config

	// Akita cache directory for tag/state management
	directory *akitacache.DirectoryImpl

	stats Statistics
}

// New creates a new instruction cache with the given configuration.
func New(config Config) *ICache {
	return &ICache{
		config: config,
		directory: akitacache.NewDirectory(
			config.NumSets(),
			config.Associativity,
			config.LineSize,
			akitacache.NewLRUVictimFinder(),
		),
	}
}

// Config returns the cache configuration.
func (c *ICache) Config() Config {
	return c.config
}

// Stats returns cache statistics.
func (c *ICache) Stats() Statistics {
	return c.stats
}

// ResetStats clears cache statistics.
func (c *ICache) ResetStats() {
	c.stats = Statistics{}
}

func (c *ICache) lineAddr(addr uint32) uint64 {
	return uint64(addr) / uint64(c.config.LineSize) * uint64(c.config.LineSize)
}

// Access looks up the line holding addr, filling it on a miss, and reports
// whether it hit.
func (c *ICache) Access(addr uint32) bool {
	c.stats.Fetches++

	lineAddr := c.lineAddr(addr)

	block := c.directory.Lookup(0, lineAddr)
	if block != nil && block.IsValid {
		c.stats.Hits++
		c.directory.Visit(block) // Update LRU
		return true
	}

	c.stats.Misses++

	victim := c.directory.FindVictim(lineAddr)
	if victim == nil {
		return false
	}

	if victim.IsValid {
		c.stats.Evictions++
	}

	victim.Tag = lineAddr
	victim.IsValid = true
	victim.IsDirty = false
	c.directory.Visit(victim)

	return false
}

// FetchLatency charges a fetch from physAddr.
func (c *ICache) FetchLatency(physAddr uint32) uint32 {
	if c.Access(physAddr) {
		return c.config.HitLatency
	}
	return c.config.MissPenalty
}

// Contains reports whether the line holding addr is cached. It does not
// update statistics or LRU state.
func (c *ICache) Contains(addr uint32) bool {
	block := c.directory.Lookup(0, c.lineAddr(addr))
	return block != nil && block.IsValid
}

// Invalidate drops the line holding addr.
func (c *ICache) Invalidate(addr uint32) {
	block := c.directory.Lookup(0, c.lineAddr(addr))
	if block != nil && block.IsValid {
		block.IsValid = false
	}
}

// Reset invalidates all lines and clears statistics.
func (c *ICache) Reset() {
	c.directory.Reset()
	c.stats = Statistics{}
}
