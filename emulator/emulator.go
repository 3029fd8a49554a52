// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"sync"

	"github.com/tliron/commonlog"

	"github.com/ezrec/synvm/asm"
	"github.com/ezrec/synvm/config"
	"github.com/ezrec/synvm/vm"
)

// Emulator state. Engine + source listing + diagnostic files.
//
// The Emulator is the Observer of its Engine: breakpoints, faults and
// warnings are logged, and a fault writes the diagnostic files.
// Use emu.Engine.Fault() for the fatal error of a halted engine.
type Emulator struct {
	Verbose    bool         // If set, enables verbose logging.
	*vm.Engine              // Reference to the engine.
	Program    *asm.Program // Source listing, if the program was assembled.

	DumpFile     string // Disassembly of live memory, written on fault.
	SnapshotFile string // CBOR snapshot, written on fault.

	log commonlog.Logger

	mutex sync.Mutex
	done  chan struct{}
	err   error
}

// New creates an emulator for a program image.
func New(program []byte, cfg config.Config) (emu *Emulator) {
	emu = &Emulator{
		Verbose:      cfg.Verbose,
		Engine:       vm.NewEngine(vm.Load(program, cfg.MemorySize)),
		DumpFile:     cfg.Dump,
		SnapshotFile: cfg.Snapshot,
		log:          commonlog.GetLogger("synvm.emulator"),
	}

	emu.Engine.Verbose = cfg.Verbose
	emu.Engine.Output = os.Stdout
	emu.Engine.Observer = emu
	emu.Engine.StepDelay = cfg.StepDelay

	for _, bp := range cfg.Breakpoints {
		emu.AddBreakpoint(vm.Word(bp))
	}

	return
}

// NewFromSource assembles a program and creates an emulator for it.
func NewFromSource(source io.Reader, cfg config.Config) (emu *Emulator, err error) {
	assembler := &asm.Assembler{Verbose: cfg.Verbose}
	prog, err := assembler.Parse(source)
	if err != nil {
		return
	}

	emu = New(prog.Bytes(), cfg)
	emu.Program = prog

	return
}

// LineNo returns the source line number for pc, or 0 if unknown.
func (emu *Emulator) LineNo(pc vm.Word) int {
	if emu.Program == nil {
		return 0
	}

	op, ok := emu.Program.Debug(pc)
	if !ok {
		return 0
	}

	return op.LineNo
}

// where wraps an error with the current location.
func (emu *Emulator) where(pc vm.Word, err error) error {
	return &ErrRuntime{PC: int(pc), LineNo: emu.LineNo(pc), Err: err}
}

// Reset the machine to the loaded program. Breakpoints are kept.
func (emu *Emulator) Reset() {
	emu.Engine.Reset()
}

// Step performs a single instruction of the emulator.
func (emu *Emulator) Step() (err error) {
	pc := emu.PC()

	err = emu.Engine.Step()
	if err != nil {
		err = emu.where(pc, err)
	}

	return
}

// RunUntilDone runs the engine until it halts, is stopped, or fails.
func (emu *Emulator) RunUntilDone(ctx context.Context) (err error) {
	if emu.Verbose {
		log.Printf("emulator: run")
	}

	err = emu.Engine.Run(ctx)
	if err != nil && !errors.Is(err, vm.ErrStopped) && ctx.Err() == nil {
		err = emu.where(emu.PC(), err)
	}

	return
}

// Start runs the engine in the background. Use Wait for the result.
func (emu *Emulator) Start(ctx context.Context) (err error) {
	emu.mutex.Lock()
	defer emu.mutex.Unlock()

	if emu.done != nil {
		select {
		case <-emu.done:
		default:
			err = ErrRunning
			return
		}
	}

	done := make(chan struct{})
	emu.done = done
	emu.err = nil

	go func() {
		defer close(done)
		err := emu.RunUntilDone(ctx)
		emu.mutex.Lock()
		emu.err = err
		emu.mutex.Unlock()
	}()

	return
}

// Running returns true while a background run is active.
func (emu *Emulator) Running() bool {
	emu.mutex.Lock()
	done := emu.done
	emu.mutex.Unlock()

	if done == nil {
		return false
	}

	select {
	case <-done:
		return false
	default:
		return true
	}
}

// Wait for the background run to finish, and return its result.
func (emu *Emulator) Wait() (err error) {
	emu.mutex.Lock()
	done := emu.done
	emu.mutex.Unlock()

	if done == nil {
		return
	}

	<-done

	emu.mutex.Lock()
	err = emu.err
	emu.mutex.Unlock()

	return
}

// Inspect runs fn where it may read the engine state: between two
// instructions of a background run, or directly when no run is active.
func (emu *Emulator) Inspect(fn func()) {
	emu.mutex.Lock()
	done := emu.done
	emu.mutex.Unlock()

	if done != nil && emu.Control().Inspect(fn, done) {
		return
	}

	fn()
}

// Pause the engine before its next instruction.
func (emu *Emulator) Pause() {
	emu.Control().Pause()
}

// Unpause the engine.
func (emu *Emulator) Unpause() {
	emu.Control().Resume()
}

// StepOnce executes one instruction of a paused background run.
func (emu *Emulator) StepOnce() {
	emu.Control().StepOnce()
}

// AddBreakpoint adds a breakpoint at addr.
func (emu *Emulator) AddBreakpoint(addr vm.Word) {
	emu.Control().AddBreakpoint(addr)
}

// RemoveBreakpoint removes the breakpoint at addr.
func (emu *Emulator) RemoveBreakpoint(addr vm.Word) {
	emu.Control().RemoveBreakpoint(addr)
}

// Breakpoints returns the sorted breakpoint addresses.
func (emu *Emulator) Breakpoints() []vm.Word {
	return emu.Control().Breakpoints.List()
}

// InsertInput queues text for the 'in' instruction.
func (emu *Emulator) InsertInput(text string) {
	emu.Control().Insert(text)
}

// IsStopped returns true once a stop has been requested.
func (emu *Emulator) IsStopped() bool {
	return emu.Control().IsStopped()
}

// Stop the engine.
func (emu *Emulator) Stop() {
	emu.Control().Stop()
}

// Breakpoint logs the machine state at a breakpoint.
func (emu *Emulator) Breakpoint(snap vm.Snapshot) {
	emu.log.Noticef("breakpoint at %d (line %d)\n%v", snap.PC, emu.LineNo(snap.PC), snap)
}

// Warning logs an instruction skipped as a no-op.
func (emu *Emulator) Warning(snap vm.Snapshot, err error) {
	emu.log.Warningf("%v", emu.where(snap.PC, err))
}

// Fault logs a failed instruction, and writes the diagnostic files.
func (emu *Emulator) Fault(snap vm.Snapshot, err error) {
	emu.log.Errorf("%v\n%v", emu.where(snap.PC, err), snap)

	if len(emu.DumpFile) > 0 {
		commonlog.CallAndLogError(func() error {
			return emu.WriteDump(emu.DumpFile)
		}, "dump", emu.log)
	}

	if len(emu.SnapshotFile) > 0 {
		commonlog.CallAndLogError(func() error {
			return emu.WriteSnapshot(emu.SnapshotFile, snap)
		}, "snapshot", emu.log)
	}
}

// writeFile creates path, and hands it to fn.
func writeFile(path string, fn func(w io.Writer) error) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return
	}

	err = fn(file)
	err = errors.Join(err, file.Close())

	return
}

// Disassemble writes the listing of the loaded program.
func (emu *Emulator) Disassemble(path string) error {
	return writeFile(path, func(w io.Writer) error {
		return asm.WriteListing(w, emu.Blueprint())
	})
}

// WriteDump writes the listing of the live memory.
func (emu *Emulator) WriteDump(path string) error {
	return writeFile(path, func(w io.Writer) error {
		return asm.WriteListing(w, emu.Memory())
	})
}

// WriteSnapshot writes the CBOR encoding of a snapshot.
func (emu *Emulator) WriteSnapshot(path string, snap vm.Snapshot) error {
	data, err := MarshalSnapshot(&snap)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}
