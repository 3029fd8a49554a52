package vm

import (
	"fmt"
	"log"
	"strings"
)

// Snapshot is the machine state reported at a breakpoint or a fault.
type Snapshot struct {
	PC          Word      `cbor:"1,keyasint"`
	Instruction string    `cbor:"2,keyasint"` // Decoded instruction, or empty if undecodable.
	Words       []Word    `cbor:"3,keyasint"` // Raw words at PC.
	Registers   Registers `cbor:"4,keyasint"`
	Stack       []Word    `cbor:"5,keyasint"`
}

// String returns the snapshot as a multi-line dump.
func (snap Snapshot) String() (text string) {
	var sb strings.Builder

	fmt.Fprintf(&sb, "% 6s: %d\n", "pc", snap.PC)
	if len(snap.Words) > 0 {
		fmt.Fprintf(&sb, "% 6s: %d\n", "mem", snap.Words[0])
	}
	insn := snap.Instruction
	if len(insn) == 0 {
		insn = "----"
	}
	fmt.Fprintf(&sb, "% 6s: %v\n", "insn", insn)
	for n, val := range snap.Registers {
		fmt.Fprintf(&sb, "% 6s: %d\n", fmt.Sprintf("r%d", n), val)
	}
	fmt.Fprintf(&sb, "% 6s: %v\n", "stack", snap.Stack)

	return sb.String()
}

// Observer receives the diagnostics of an Engine.
type Observer interface {
	// Breakpoint is called when execution suspends at a breakpoint.
	Breakpoint(snap Snapshot)
	// Fault is called when an instruction fails.
	Fault(snap Snapshot, err error)
	// Warning is called when an instruction is skipped as a no-op.
	Warning(snap Snapshot, err error)
}

// NopObserver discards all diagnostics.
type NopObserver struct{}

var _ Observer = NopObserver{}

func (NopObserver) Breakpoint(snap Snapshot)         {}
func (NopObserver) Fault(snap Snapshot, err error)   {}
func (NopObserver) Warning(snap Snapshot, err error) {}

// LogObserver writes diagnostics with the standard logger.
type LogObserver struct{}

var _ Observer = LogObserver{}

func (LogObserver) Breakpoint(snap Snapshot) {
	log.Printf("vm: breakpoint\n%v", snap)
}

func (LogObserver) Fault(snap Snapshot, err error) {
	log.Printf("vm: %v\n%v", err, snap)
}

func (LogObserver) Warning(snap Snapshot, err error) {
	log.Printf("vm: %v", err)
}
