// Package config handles synvm.toml machine configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/ezrec/synvm/translate"
	"github.com/ezrec/synvm/vm"
)

var f = translate.From

var ErrMemorySize = errors.New(f("memory size out of range"))
var ErrBreakpoint = errors.New(f("breakpoint out of range"))
var ErrStepDelay = errors.New(f("step delay is negative"))

// Config is the configuration of a machine and its front end.
type Config struct {
	Program     string        `toml:"program"`     // Program image or source path.
	MemorySize  int           `toml:"memory-size"` // Words of memory.
	Breakpoints []int         `toml:"breakpoints"` // Initial breakpoint addresses.
	StepDelay   time.Duration `toml:"step-delay"`  // Pause between instructions.
	Dump        string        `toml:"dump"`        // Disassembly written on fault.
	Snapshot    string        `toml:"snapshot"`    // CBOR snapshot written on fault.
	Verbose     bool          `toml:"verbose"`     // Verbose logging.
	Locale      string        `toml:"locale"`      // Message language, as a BCP 47 tag.
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Program:    "challenge.bin",
		MemorySize: vm.MEMORY_SIZE,
		Dump:       "dump.txt",
	}
}

// Validate checks the ranges of the configuration.
func (cfg *Config) Validate() (err error) {
	if cfg.MemorySize < 1 || cfg.MemorySize > vm.MEMORY_SIZE {
		err = fmt.Errorf("%w: %d", ErrMemorySize, cfg.MemorySize)
		return
	}

	for _, bp := range cfg.Breakpoints {
		if bp < 0 || bp >= cfg.MemorySize {
			err = fmt.Errorf("%w: %d", ErrBreakpoint, bp)
			return
		}
	}

	if cfg.StepDelay < 0 {
		err = ErrStepDelay
		return
	}

	return
}

// Parse decodes a configuration over the defaults.
func Parse(data []byte) (cfg Config, err error) {
	cfg = Default()

	err = toml.Unmarshal(data, &cfg)
	if err != nil {
		return
	}

	err = cfg.Validate()
	return
}

// Load parses a synvm.toml file.
func Load(path string) (cfg Config, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		err = fmt.Errorf("cannot read %s: %w", path, err)
		return
	}

	cfg, err = Parse(data)
	if err != nil {
		err = fmt.Errorf("parse error in %s: %w", path, err)
		return
	}

	return
}
