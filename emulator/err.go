package emulator

import (
	"errors"

	"github.com/ezrec/synvm/translate"
)

var f = translate.From

var ErrRunning = errors.New(f("emulator already running"))

// ErrRuntime indicates the location of a runtime error.
type ErrRuntime struct {
	PC     int
	LineNo int
	Err    error
}

func (err *ErrRuntime) Error() string {
	if err.LineNo == 0 {
		return f("pc %d %v", err.PC, err.Err)
	}
	return f("pc %d line %d %v", err.PC, err.LineNo, err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}
