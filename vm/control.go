package vm

import (
	"sync/atomic"
)

// Control is the handle through which another goroutine (a console, or a
// signal handler) steers a running Engine. The stop and pause flags are the
// only engine state shared outside the run loop besides Input and
// Breakpoints. Anything else is read through Inspect.
type Control struct {
	stopped atomic.Bool
	paused  atomic.Bool
	single  atomic.Bool
	signal  chan struct{}
	inspect chan func()

	Input       *Input
	Breakpoints *Breakpoints
}

func newControl() *Control {
	return &Control{
		signal:      make(chan struct{}, 1),
		inspect:     make(chan func()),
		Input:       NewInput(),
		Breakpoints: &Breakpoints{},
	}
}

// poke wakes a run loop waiting on Signal.
func (ctl *Control) poke() {
	select {
	case ctl.signal <- struct{}{}:
	default:
	}
}

// Signal is notified whenever the stop or pause flag changes.
func (ctl *Control) Signal() <-chan struct{} {
	return ctl.signal
}

// Stop requests the engine to stop. It is observed within one instruction,
// including while an 'in' instruction waits for input.
func (ctl *Control) Stop() {
	ctl.stopped.Store(true)
	ctl.poke()
}

// IsStopped returns true once a stop has been requested.
func (ctl *Control) IsStopped() bool {
	return ctl.stopped.Load()
}

// Pause suspends the run loop before its next instruction.
func (ctl *Control) Pause() {
	ctl.single.Store(false)
	ctl.paused.Store(true)
	ctl.poke()
}

// Resume releases a paused run loop.
func (ctl *Control) Resume() {
	ctl.paused.Store(false)
	ctl.poke()
}

// StepOnce lets a paused run loop execute one instruction, after which it
// stays paused. It has no effect unless paused.
func (ctl *Control) StepOnce() {
	if !ctl.IsPaused() {
		return
	}
	ctl.single.Store(true)
	ctl.poke()
}

// Inspect runs fn on the goroutine of the run loop, between instructions,
// and waits for it to return. If idle is closed first, meaning no run loop
// is active, fn is not called and false is returned.
func (ctl *Control) Inspect(fn func(), idle <-chan struct{}) bool {
	done := make(chan struct{})
	req := func() {
		defer close(done)
		fn()
	}

	select {
	case ctl.inspect <- req:
		<-done
		return true
	case <-idle:
		return false
	}
}

// serve runs a pending Inspect request, if any.
func (ctl *Control) serve() {
	select {
	case fn := <-ctl.inspect:
		fn()
	default:
	}
}

// IsPaused returns true while paused.
func (ctl *Control) IsPaused() bool {
	return ctl.paused.Load()
}

// AddBreakpoint adds a breakpoint at pc.
func (ctl *Control) AddBreakpoint(pc Word) {
	ctl.Breakpoints.Add(pc)
}

// RemoveBreakpoint removes the breakpoint at pc.
func (ctl *Control) RemoveBreakpoint(pc Word) {
	ctl.Breakpoints.Remove(pc)
}

// Insert queues text for the 'in' instruction.
func (ctl *Control) Insert(text string) {
	ctl.Input.Insert(text)
}

// reset clears the flags and the pending input. Breakpoints are kept.
func (ctl *Control) reset() {
	ctl.stopped.Store(false)
	ctl.paused.Store(false)
	ctl.single.Store(false)
	ctl.Input.Reset()
	select {
	case <-ctl.signal:
	default:
	}
}
