package config_test

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"

	"github.com/sarchlab/gfusx/config"
	"github.com/sarchlab/gfusx/emu"
)

var _ = Describe("Config", func() {
	Describe("DefaultConfig", func() {
		It("should describe the R3000A", func() {
			c := config.DefaultConfig()

			Expect(c.Debug).To(BeFalse())
			Expect(c.CycleBias).To(Equal(uint32(emu.DefaultCycleBias)))
			Expect(c.ICache.Enabled).To(BeFalse())
			Expect(c.ICache.Size).To(Equal(4096))
			Expect(c.ICache.LineSize).To(Equal(16))
			Expect(c.LogLevel).To(Equal("info"))
		})

		It("should validate", func() {
			Expect(config.DefaultConfig().Validate()).To(Succeed())
		})
	})

	Describe("Validate", func() {
		var c *config.Config

		BeforeEach(func() {
			c = config.DefaultConfig()
		})

		It("should reject a zero cycle bias", func() {
			c.CycleBias = 0
			Expect(c.Validate()).To(MatchError(ContainSubstring("cycle_bias")))
		})

		It("should reject a misaligned load offset", func() {
			c.LoadOffset = 2
			Expect(c.Validate()).To(MatchError(ContainSubstring("load_offset")))
		})

		It("should reject a load offset outside the store", func() {
			c.LoadOffset = emu.ICacheSize
			Expect(c.Validate()).To(MatchError(ContainSubstring("load_offset")))
		})

		It("should reject a misaligned entry point", func() {
			c.Entry = 0x80000002
			Expect(c.Validate()).To(MatchError(ContainSubstring("entry")))
		})

		It("should reject an unknown log level", func() {
			c.LogLevel = "loud"
			Expect(c.Validate()).To(MatchError(ContainSubstring("log_level")))
		})

		It("should ignore the cache geometry while the model is off", func() {
			c.ICache.LineSize = 3
			Expect(c.Validate()).To(Succeed())
		})

		DescribeTable("cache geometry",
			func(size, assoc, line int, valid bool) {
				c.ICache = config.ICacheConfig{
					Enabled:       true,
					Size:          size,
					Associativity: assoc,
					LineSize:      line,
				}
				if valid {
					Expect(c.Validate()).To(Succeed())
				} else {
					Expect(c.Validate()).To(MatchError(ContainSubstring("icache")))
				}
			},
			Entry("R3000A", 4096, 1, 16, true),
			Entry("two-way", 8192, 2, 32, true),
			Entry("line not a power of two", 4096, 1, 24, false),
			Entry("line smaller than a word", 4096, 1, 2, false),
			Entry("no ways", 4096, 0, 16, false),
			Entry("size not a multiple", 1000, 1, 16, false),
		)
	})

	Describe("conversions", func() {
		DescribeTable("should place the image origin in the entry segment",
			func(entry, loadOffset, origin uint32) {
				c := config.DefaultConfig()
				c.Entry = entry
				c.LoadOffset = loadOffset

				Expect(c.Origin()).To(Equal(origin))
			},
			Entry("defaults", uint32(0), uint32(0), uint32(0)),
			Entry("KUSEG", uint32(0x104), uint32(0x100), uint32(0x100)),
			Entry("KSEG0", uint32(0x80000104), uint32(0x100), uint32(0x80000100)),
			Entry("KSEG1", uint32(0xBFC00000), uint32(0x10000), uint32(0xA0010000)),
		)

		It("should produce emulator settings", func() {
			c := config.DefaultConfig()
			c.Debug = true
			c.CycleBias = 3

			Expect(c.Settings()).To(Equal(emu.Settings{Debug: true, CycleBias: 3}))
		})

		It("should produce the cache geometry", func() {
			c := config.DefaultConfig()
			c.ICache.MissPenalty = 9

			cc := c.CacheConfig()
			Expect(cc.Size).To(Equal(4096))
			Expect(cc.MissPenalty).To(Equal(uint32(9)))
		})

		It("should parse the log level", func() {
			c := config.DefaultConfig()
			c.LogLevel = "debug"
			Expect(c.Level()).To(Equal(logrus.DebugLevel))

			c.LogLevel = "bogus"
			Expect(c.Level()).To(Equal(logrus.InfoLevel))
		})

		It("should build a logger at the configured level", func() {
			c := config.DefaultConfig()
			c.LogLevel = "warning"

			var buf bytes.Buffer
			logger := c.NewLogger(&buf)
			logger.Info("hidden")
			logger.Warn("shown")

			Expect(buf.String()).NotTo(ContainSubstring("hidden"))
			Expect(buf.String()).To(ContainSubstring("shown"))
		})

		It("should attach the cache model only when enabled", func() {
			c := config.DefaultConfig()
			logger := logrus.New()

			opts, ic := c.EmulatorOptions(logger)
			Expect(ic).To(BeNil())
			Expect(opts).To(HaveLen(2))

			c.ICache.Enabled = true
			opts, ic = c.EmulatorOptions(logger)
			Expect(ic).NotTo(BeNil())

			e := emu.NewEmulator(opts...)
			e.PowerOn()
			e.Step()
			Expect(e.Cycle).To(Equal(uint32(emu.DefaultCycleBias) + c.ICache.MissPenalty))
		})
	})

	Describe("Clone", func() {
		It("should copy every field", func() {
			original := config.DefaultConfig()
			original.Debug = true
			original.ICache.Enabled = true

			clone := original.Clone()
			Expect(clone).To(Equal(original))

			clone.ICache.Size = 1
			Expect(original.ICache.Size).To(Equal(4096))
		})
	})

	Describe("File I/O", func() {
		var tempDir string

		BeforeEach(func() {
			var err error
			tempDir, err = os.MkdirTemp("", "config-test")
			Expect(err).NotTo(HaveOccurred())
		})

		AfterEach(func() {
			_ = os.RemoveAll(tempDir)
		})

		It("should save and load config", func() {
			original := config.DefaultConfig()
			original.Debug = true
			original.CycleBias = 7
			original.ICache.Enabled = true

			path := filepath.Join(tempDir, "gfusx.json")
			Expect(original.SaveConfig(path)).To(Succeed())

			loaded, err := config.LoadConfig(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(Equal(original))
		})

		It("should keep defaults for missing fields", func() {
			path := filepath.Join(tempDir, "partial.json")
			Expect(os.WriteFile(path, []byte(`{"debug": true, "icache": {"enabled": true}}`), 0644)).To(Succeed())

			loaded, err := config.LoadConfig(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.Debug).To(BeTrue())
			Expect(loaded.CycleBias).To(Equal(uint32(emu.DefaultCycleBias)))
			Expect(loaded.ICache.LineSize).To(Equal(16))
		})

		It("should wrap the error for a non-existent file", func() {
			_, err := config.LoadConfig("/nonexistent/path/gfusx.json")
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, fs.ErrNotExist)).To(BeTrue())
		})

		It("should return error for invalid JSON", func() {
			path := filepath.Join(tempDir, "invalid.json")
			err := os.WriteFile(path, []byte("not valid json"), 0644)
			Expect(err).NotTo(HaveOccurred())

			_, err = config.LoadConfig(path)
			Expect(err).To(HaveOccurred())
		})
	})
})
