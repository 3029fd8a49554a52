package vm

import (
	"errors"

	"github.com/ezrec/synvm/translate"
)

var f = translate.From

var (
	// Image errors
	ErrImage = errors.New(f("program image unreadable"))

	// Decode errors
	ErrUnknownOpcode = errors.New(f("unknown opcode"))
	ErrTruncated     = errors.New(f("instruction truncated by end of memory"))

	// Operand errors
	ErrOperandMalformed = errors.New(f("operand malformed"))
	ErrOperandAddress   = errors.New(f("operand is not a register"))

	// Execution errors
	ErrAddress        = errors.New(f("address outside memory"))
	ErrStackUnderflow = errors.New(f("stack empty"))
	ErrDivideByZero   = errors.New(f("modulo by zero"))
	ErrOutputRange    = errors.New(f("output value not a byte"))

	// Control outcomes
	ErrBreakpoint = errors.New(f("breakpoint"))
	ErrStopped    = errors.New(f("stopped"))
	ErrHalted     = errors.New(f("halted"))
	ErrFaulted    = errors.New(f("faulted, reset required"))
)

// DecodeError reports an instruction that could not be decoded.
type DecodeError struct {
	PC   Word
	Word Word
	Err  error
}

func (err *DecodeError) Error() string {
	return f("decode %d: word %d: %v", err.PC, err.Word, err.Err)
}

func (err *DecodeError) Unwrap() error {
	return err.Err
}

// OperandError reports an operand that cannot be used as required.
type OperandError struct {
	PC      Word
	Opcode  Opcode
	Operand Word
	Err     error
}

func (err *OperandError) Error() string {
	return f("%d: %v operand %d: %v", err.PC, err.Opcode, err.Operand, err.Err)
}

func (err *OperandError) Unwrap() error {
	return err.Err
}

// IOValueError reports an 'out' of a value that does not fit in a byte.
type IOValueError struct {
	PC    Word
	Value Word
}

func (err *IOValueError) Error() string {
	return f("%d: out %d: %v", err.PC, err.Value, ErrOutputRange)
}

func (err *IOValueError) Unwrap() error {
	return ErrOutputRange
}

// ExecError reports a fatal error raised while executing an instruction.
type ExecError struct {
	PC          Word
	Instruction Instruction
	Err         error
}

func (err *ExecError) Error() string {
	return f("%d: %v: %v", err.PC, err.Instruction, err.Err)
}

func (err *ExecError) Unwrap() error {
	return err.Err
}
