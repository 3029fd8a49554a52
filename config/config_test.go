package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/synvm/vm"
)

func TestDefault(t *testing.T) {
	assert := assert.New(t)

	cfg := Default()
	assert.Equal("challenge.bin", cfg.Program)
	assert.Equal(vm.MEMORY_SIZE, cfg.MemorySize)
	assert.NoError(cfg.Validate())
}

func TestParse(t *testing.T) {
	assert := assert.New(t)

	cfg, err := Parse([]byte(`
program = "challenge.bin"
memory-size = 1024
breakpoints = [ 5, 10 ]
step-delay = "5ms"
snapshot = "fault.cbor"
verbose = true
locale = "en-US"
`))
	assert.NoError(err)
	assert.Equal("challenge.bin", cfg.Program)
	assert.Equal(1024, cfg.MemorySize)
	assert.Equal([]int{5, 10}, cfg.Breakpoints)
	assert.Equal(5*time.Millisecond, cfg.StepDelay)
	assert.Equal("dump.txt", cfg.Dump)
	assert.Equal("fault.cbor", cfg.Snapshot)
	assert.True(cfg.Verbose)
	assert.Equal("en-US", cfg.Locale)
}

func TestParse_Errors(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name string
		text string
		err  error
	}){
		{"memory-zero", "memory-size = 0", ErrMemorySize},
		{"memory-large", "memory-size = 32769", ErrMemorySize},
		{"breakpoint", "memory-size = 16\nbreakpoints = [16]", ErrBreakpoint},
		{"delay", `step-delay = "-1s"`, ErrStepDelay},
	}

	for _, entry := range table {
		_, err := Parse([]byte(entry.text))
		assert.ErrorIs(err, entry.err, entry.name)
	}

	_, err := Parse([]byte("memory-size = "))
	assert.Error(err)
}

func TestLoad(t *testing.T) {
	assert := assert.New(t)

	path := filepath.Join(t.TempDir(), "synvm.toml")
	assert.NoError(os.WriteFile(path, []byte("memory-size = 64\n"), 0o644))

	cfg, err := Load(path)
	assert.NoError(err)
	assert.Equal(64, cfg.MemorySize)

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(err, os.ErrNotExist)
}
