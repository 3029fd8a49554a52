package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ezrec/synvm/emulator"
	"github.com/ezrec/synvm/translate"
	"github.com/ezrec/synvm/vm"
)

var f = translate.From

var (
	ErrCommand  = errors.New(f("unknown command"))
	ErrArgument = errors.New(f("wrong arguments"))
	ErrAddress  = errors.New(f("address out of range"))
)

// Console is the line based operator interface. Lines starting with '!'
// are commands, any other line is input for the program.
type Console struct {
	Emulator *emulator.Emulator
	Output   io.Writer // Command replies.
}

// InputWriter forwards everything written to it to the program input.
type InputWriter struct {
	Emulator *emulator.Emulator
}

func (iw InputWriter) Write(data []byte) (int, error) {
	iw.Emulator.InsertInput(string(data))
	return len(data), nil
}

// address parses a breakpoint address.
func (con *Console) address(args []string) (addr vm.Word, err error) {
	if len(args) != 1 {
		err = ErrArgument
		return
	}

	value, err := strconv.ParseUint(args[0], 0, 16)
	if err != nil || int(value) >= len(con.Emulator.Blueprint()) {
		err = fmt.Errorf("%w: %v", ErrAddress, args[0])
		return
	}

	addr = vm.Word(value)
	return
}

// Execute handles one console line. It returns true on '!quit'.
func (con *Console) Execute(ctx context.Context, line string) (quit bool, err error) {
	emu := con.Emulator

	if !strings.HasPrefix(line, "!") {
		emu.InsertInput(line + "\n")
		return
	}

	words := strings.Fields(line)
	command, args := words[0], words[1:]

	switch command {
	case "!run":
		err = emu.Start(ctx)
	case "!pause":
		emu.Pause()
	case "!continue":
		emu.Unpause()
	case "!step":
		if emu.Running() {
			emu.StepOnce()
		} else {
			err = emu.Step()
			if errors.Is(err, vm.ErrBreakpoint) {
				err = nil
			}
		}
	case "!state":
		var state vm.State
		var snap vm.Snapshot
		emu.Inspect(func() {
			state = emu.State()
			snap = emu.Snapshot()
		})
		fmt.Fprintf(con.Output, "%v: %v\n%v", f("state"), state, snap)
	case "!break", "!unbreak":
		var addr vm.Word
		addr, err = con.address(args)
		if err != nil {
			break
		}
		if command == "!break" {
			emu.AddBreakpoint(addr)
		} else {
			emu.RemoveBreakpoint(addr)
		}
	case "!breaks":
		fmt.Fprintf(con.Output, "%v: %v\n", f("breakpoints"), emu.Breakpoints())
	case "!reset":
		if emu.Running() {
			emu.Stop()
			_ = emu.Wait()
		}
		emu.Reset()
	case "!dump":
		if len(args) != 1 {
			err = ErrArgument
			break
		}
		emu.Inspect(func() {
			err = emu.WriteDump(args[0])
		})
	case "!stop":
		emu.Stop()
	case "!quit":
		emu.Stop()
		quit = true
	default:
		err = fmt.Errorf("%w: %v", ErrCommand, command)
	}

	return
}

// Serve reads console lines until '!quit' or the end of input.
func (con *Console) Serve(ctx context.Context, input io.Reader) (err error) {
	scanner := bufio.NewScanner(input)
	for scanner.Scan() {
		quit, cmd_err := con.Execute(ctx, scanner.Text())
		if cmd_err != nil {
			fmt.Fprintf(con.Output, "%v\n", cmd_err)
		}
		if quit {
			return nil
		}
	}

	return scanner.Err()
}

// Session serves the console until '!quit', the end of input, or an
// interrupt. An interrupt stops the engine and ends the session without
// waiting for another console line.
func (con *Console) Session(ctx context.Context, input io.Reader, interrupt <-chan os.Signal) (err error) {
	served := make(chan error, 1)
	go func() {
		served <- con.Serve(ctx, input)
	}()

	select {
	case err = <-served:
	case <-interrupt:
		con.Emulator.Stop()
	}

	return
}
