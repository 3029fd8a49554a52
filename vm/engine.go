// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package vm

import (
	"context"
	"errors"
	"io"
	"log"
	"time"
)

// State is the execution state of an Engine.
type State int

//go:generate go tool stringer -linecomment -type=State
const (
	STATE_IDLE    = State(0) // idle
	STATE_RUNNING = State(1) // running
	STATE_PAUSED  = State(2) // paused
	STATE_HALTED  = State(3) // halted
)

// Engine is the simulation context of the virtual machine.
//
// Step, Run and Reset must be called from a single goroutine. Everything
// another goroutine may do to a running engine goes through Control.
type Engine struct {
	Verbose   bool          // Set to enable verbose logging.
	Output    io.Writer     // Destination of 'out'.
	Observer  Observer      // Receiver of breakpoint and fault diagnostics.
	StepDelay time.Duration // Delay between instructions in Run.

	blueprint Memory
	memory    Memory
	register  Registers
	stack     Stack
	pc        Word

	started bool  // Set once the first step is attempted.
	halted  bool  // Set by 'halt', by an empty 'ret' and by faults.
	fault   error // Fatal error, cleared only by Reset.
	broke   bool  // Suspended at pc by a breakpoint, not yet executed.

	ctl *Control
}

// NewEngine creates an engine for the blueprint memory image. The image is
// copied and never modified.
func NewEngine(blueprint Memory) (e *Engine) {
	e = &Engine{
		Output:    io.Discard,
		Observer:  LogObserver{},
		blueprint: blueprint.Clone(),
		ctl:       newControl(),
	}

	e.Reset()

	return
}

// Control returns the handle used to steer the engine from other goroutines.
func (e *Engine) Control() *Control {
	return e.ctl
}

// Reset restores the blueprint memory, clears the registers, stack and
// program counter, and clears the stop and pause flags and pending input.
func (e *Engine) Reset() {
	if e.Verbose {
		log.Printf("vm: reset")
	}

	if len(e.memory) == len(e.blueprint) {
		copy(e.memory, e.blueprint)
	} else {
		e.memory = e.blueprint.Clone()
	}
	clear(e.register[:])
	e.stack.Reset()
	e.pc = 0

	e.started = false
	e.halted = false
	e.fault = nil
	e.broke = false

	e.ctl.reset()
}

// State returns the current execution state.
func (e *Engine) State() State {
	switch {
	case e.halted:
		return STATE_HALTED
	case e.ctl.IsPaused():
		return STATE_PAUSED
	case e.started:
		return STATE_RUNNING
	}
	return STATE_IDLE
}

// Fault returns the fatal error that halted the engine, if any.
func (e *Engine) Fault() error {
	return e.fault
}

// PC returns the program counter.
func (e *Engine) PC() Word {
	return e.pc
}

// Registers returns a copy of the register bank.
func (e *Engine) Registers() Registers {
	return e.register
}

// Stack returns a copy of the stack, bottom first.
func (e *Engine) Stack() []Word {
	return e.stack.Values()
}

// Memory returns a copy of the live memory.
func (e *Engine) Memory() Memory {
	return e.memory.Clone()
}

// Blueprint returns a copy of the initial memory image.
func (e *Engine) Blueprint() Memory {
	return e.blueprint.Clone()
}

// Snapshot captures the state reported to the Observer.
func (e *Engine) Snapshot() (snap Snapshot) {
	snap = Snapshot{
		PC:        e.pc,
		Registers: e.register,
		Stack:     e.stack.Values(),
	}

	if !e.memory.Contains(e.pc) {
		return
	}

	in, err := Decode(e.memory, e.pc)
	if err != nil {
		snap.Words = []Word{e.memory[e.pc]}
		return
	}

	snap.Instruction = in.String()
	snap.Words = Encode(in)

	return
}

// Step executes a single instruction.
func (e *Engine) Step() error {
	return e.StepContext(context.Background())
}

// StepContext executes a single instruction. The context bounds the wait of
// an 'in' instruction for input.
//
// If the program counter is at a breakpoint that has not yet been reported,
// the engine is paused, the Observer is notified, and ErrBreakpoint is
// returned without executing anything. The following step executes the
// instruction.
func (e *Engine) StepContext(ctx context.Context) (err error) {
	if e.fault != nil {
		err = errors.Join(ErrFaulted, e.fault)
		return
	}
	if e.halted {
		err = ErrHalted
		return
	}

	e.started = true

	if !e.broke && e.ctl.Breakpoints.Has(e.pc) {
		e.broke = true
		e.ctl.Pause()
		e.Observer.Breakpoint(e.Snapshot())
		err = ErrBreakpoint
		return
	}
	e.broke = false

	in, err := Decode(e.memory, e.pc)
	if err != nil {
		e.abort(err)
		return
	}

	if e.Verbose {
		log.Printf("%05d: %v", e.pc, in)
	}

	err = e.Execute(ctx, in)

	var ioErr *IOValueError
	switch {
	case err == nil:
	case errors.As(err, &ioErr):
		// Recoverable: report, then wait for an explicit resume.
		e.Observer.Fault(e.Snapshot(), err)
		e.ctl.Pause()
		e.pc += Width(in)
		if !e.memory.Contains(e.pc) {
			e.halted = true
		}
	case errors.Is(err, ErrStopped), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		// 'in' was interrupted; it is retried by the next step.
	default:
		err = &ExecError{PC: e.pc, Instruction: in, Err: err}
		e.abort(err)
	}

	return
}

// abort halts the engine on a fatal error.
func (e *Engine) abort(err error) {
	e.fault = err
	e.halted = true
	if e.Verbose {
		log.Printf("vm: abort at %d", e.pc)
	}
	e.Observer.Fault(e.Snapshot(), err)
}

// Run steps the engine until it halts, is stopped, or fails. While paused
// it blocks until resumed or stopped. A halt returns nil.
func (e *Engine) Run(ctx context.Context) (err error) {
	if e.Verbose {
		log.Printf("vm: run from %d", e.pc)
	}

	var ioErr *IOValueError
	for {
		if err = ctx.Err(); err != nil {
			return
		}
		if e.ctl.IsStopped() {
			err = ErrStopped
			return
		}
		e.ctl.serve()
		if !e.ctl.IsPaused() {
			e.ctl.single.Store(false)
		} else if !e.ctl.single.CompareAndSwap(true, false) {
			select {
			case <-e.ctl.Signal():
			case fn := <-e.ctl.inspect:
				fn()
			case <-ctx.Done():
			}
			continue
		}

		err = e.StepContext(ctx)
		switch {
		case err == nil:
		case errors.Is(err, ErrBreakpoint):
		case errors.As(err, &ioErr):
		case errors.Is(err, ErrStopped):
			// Loop around to report the stop.
		default:
			return
		}

		if e.halted {
			if e.Verbose {
				log.Printf("vm: halted at %d", e.pc)
			}
			err = nil
			return
		}

		if e.StepDelay > 0 {
			select {
			case <-time.After(e.StepDelay):
			case <-e.ctl.Signal():
			case fn := <-e.ctl.inspect:
				fn()
			case <-ctx.Done():
			}
		}
	}
}
