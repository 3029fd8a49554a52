package vm

import (
	"sync"
)

// Input is the queue of pending input bytes drained by the 'in' instruction.
// Any number of goroutines may Insert; a single consumer may Read.
type Input struct {
	mutex   sync.Mutex
	pending []byte
	ready   chan struct{}
}

// NewInput returns an empty input queue.
func NewInput() *Input {
	return &Input{
		ready: make(chan struct{}, 1),
	}
}

// Insert appends text to the queue.
func (in *Input) Insert(text string) {
	if len(text) == 0 {
		return
	}

	in.mutex.Lock()
	in.pending = append(in.pending, text...)
	in.mutex.Unlock()

	select {
	case in.ready <- struct{}{}:
	default:
	}
}

// Read removes and returns the oldest pending byte.
func (in *Input) Read() (value byte, ok bool) {
	in.mutex.Lock()
	defer in.mutex.Unlock()

	if len(in.pending) == 0 {
		return
	}

	value = in.pending[0]
	in.pending = in.pending[1:]
	ok = true
	return
}

// Ready is signalled after an Insert. A reader woken by it must still Read,
// as another insert may have been coalesced into the same signal.
func (in *Input) Ready() <-chan struct{} {
	return in.ready
}

// Len returns the number of pending bytes.
func (in *Input) Len() int {
	in.mutex.Lock()
	defer in.mutex.Unlock()

	return len(in.pending)
}

// Reset discards all pending input.
func (in *Input) Reset() {
	in.mutex.Lock()
	in.pending = nil
	in.mutex.Unlock()

	select {
	case <-in.ready:
	default:
	}
}
