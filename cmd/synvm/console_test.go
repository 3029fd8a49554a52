package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/synvm/config"
	"github.com/ezrec/synvm/emulator"
	"github.com/ezrec/synvm/vm"
)

func newTestConsole(t *testing.T, source ...string) (con *Console, out *bytes.Buffer) {
	cfg := config.Default()
	cfg.Dump = ""
	cfg.MemorySize = 32

	emu, err := emulator.NewFromSource(strings.NewReader(strings.Join(source, "\n")), cfg)
	if err != nil {
		t.Fatal(err)
	}
	emu.Engine.Output = &bytes.Buffer{}

	out = &bytes.Buffer{}
	con = &Console{Emulator: emu, Output: out}
	return
}

func TestConsole_Breakpoints(t *testing.T) {
	assert := assert.New(t)

	con, out := newTestConsole(t, "noop", "halt")
	ctx := context.Background()

	for _, line := range []string{"!break 1", "!break 0x3", "!unbreak 3", "!breaks"} {
		quit, err := con.Execute(ctx, line)
		assert.NoError(err, line)
		assert.False(quit, line)
	}
	assert.Equal("breakpoints: [1]\n", out.String())

	table := [](struct {
		line string
		err  error
	}){
		{"!break", ErrArgument},
		{"!break 32", ErrAddress},
		{"!break x", ErrAddress},
		{"!dump", ErrArgument},
		{"!bogus", ErrCommand},
	}
	for _, entry := range table {
		_, err := con.Execute(ctx, entry.line)
		assert.ErrorIs(err, entry.err, entry.line)
	}
}

func TestConsole_Step(t *testing.T) {
	assert := assert.New(t)

	con, _ := newTestConsole(t, "noop", "noop", "halt")
	ctx := context.Background()
	emu := con.Emulator

	emu.AddBreakpoint(1)
	_, err := con.Execute(ctx, "!step")
	assert.NoError(err)
	assert.Equal(vm.Word(1), emu.PC())

	_, err = con.Execute(ctx, "!step")
	assert.NoError(err)
	assert.Equal(vm.STATE_PAUSED, emu.State())

	_, err = con.Execute(ctx, "!step")
	assert.NoError(err)
	assert.Equal(vm.Word(2), emu.PC())

	_, err = con.Execute(ctx, "!reset")
	assert.NoError(err)
	assert.Equal(vm.Word(0), emu.PC())
	assert.Equal(vm.STATE_IDLE, emu.State())
}

func TestConsole_Serve(t *testing.T) {
	assert := assert.New(t)

	con, out := newTestConsole(t,
		"loop: in r0",
		"      eq r1 r0 '\\n'",
		"      jf r1 loop",
		"      halt",
	)
	ctx := context.Background()
	emu := con.Emulator
	dump := filepath.Join(t.TempDir(), "dump.txt")

	script := strings.Join([]string{
		"!pause",
		"!run",
		"!run",
		"!continue",
		"look",
		"!quit",
		"ignored",
	}, "\n")

	err := con.Serve(ctx, strings.NewReader(script))
	assert.NoError(err)
	assert.Equal("emulator already running\n", out.String())

	done := make(chan error, 1)
	go func() {
		done <- emu.Wait()
	}()
	select {
	case err = <-done:
		if err != nil {
			assert.ErrorIs(err, vm.ErrStopped)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("run did not finish")
	}

	_, err = con.Execute(ctx, "!dump "+dump)
	assert.NoError(err)
	_, err = os.Stat(dump)
	assert.NoError(err)
}

func TestInputWriter(t *testing.T) {
	assert := assert.New(t)

	con, _ := newTestConsole(t, "in r0", "halt")
	emu := con.Emulator

	n, err := InputWriter{Emulator: emu}.Write([]byte("z"))
	assert.NoError(err)
	assert.Equal(1, n)

	assert.NoError(emu.RunUntilDone(context.Background()))
	assert.Equal(vm.Word('z'), emu.Registers()[0])
}

func TestConsole_StateWhileRunning(t *testing.T) {
	assert := assert.New(t)

	con, out := newTestConsole(t,
		"loop: add r0 r0 1",
		"      jmp loop",
	)
	ctx := context.Background()
	emu := con.Emulator

	_, err := con.Execute(ctx, "!run")
	assert.NoError(err)

	for range 50 {
		out.Reset()
		_, err = con.Execute(ctx, "!state")
		assert.NoError(err)
		assert.True(strings.HasPrefix(out.String(), "state: running\n"), out.String())
	}

	dump := filepath.Join(t.TempDir(), "dump.txt")
	_, err = con.Execute(ctx, "!dump "+dump)
	assert.NoError(err)

	_, err = con.Execute(ctx, "!pause")
	assert.NoError(err)
	out.Reset()
	_, err = con.Execute(ctx, "!state")
	assert.NoError(err)
	assert.True(strings.HasPrefix(out.String(), "state: paused\n"), out.String())

	_, err = con.Execute(ctx, "!stop")
	assert.NoError(err)
	assert.ErrorIs(emu.Wait(), vm.ErrStopped)

	text, err := os.ReadFile(dump)
	assert.NoError(err)
	assert.True(strings.HasPrefix(string(text), "0     add R0 R0 1\n4     jmp 0\n"))
}

func TestConsole_SessionInterrupt(t *testing.T) {
	assert := assert.New(t)

	con, _ := newTestConsole(t, "in r0", "halt")
	ctx := context.Background()
	emu := con.Emulator

	// The console input never delivers a line.
	reader, writer := io.Pipe()
	t.Cleanup(func() { writer.Close() })

	assert.NoError(emu.Start(ctx))

	interrupt := make(chan os.Signal, 1)
	interrupt <- os.Interrupt

	done := make(chan error, 1)
	go func() {
		done <- con.Session(ctx, reader, interrupt)
	}()

	select {
	case err := <-done:
		assert.NoError(err)
	case <-time.After(5 * time.Second):
		t.Fatal("interrupt did not end the session")
	}

	assert.True(emu.IsStopped())
	assert.ErrorIs(emu.Wait(), vm.ErrStopped)
}

func TestConsole_SessionQuit(t *testing.T) {
	assert := assert.New(t)

	con, _ := newTestConsole(t, "halt")
	err := con.Session(context.Background(), strings.NewReader("!quit\n"), nil)
	assert.NoError(err)
	assert.True(con.Emulator.IsStopped())
}
