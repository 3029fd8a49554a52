package asm

import (
	"bytes"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ezrec/synvm/vm"
)

func TestDisassemble(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name   string
		memory vm.Memory
		lines  []string
	}){
		{"empty", vm.Memory{}, nil},
		{"halt", vm.Memory{0}, []string{"0     halt"}},
		{"newline", vm.Memory{19, 10, 19, 65}, []string{"0     out \\n", "2     out 65"}},
		{"registers", vm.Memory{9, 32768, 32769, 4}, []string{"0     add R0 R1 4"}},
		{"data", vm.Memory{22, 32776, 21}, []string{"0     .word 22", "1     .word 32776", "2     noop"}},
		{"truncated", vm.Memory{21, 1, 32768}, []string{"0     noop", "1     .word 1", "2     .word 32768"}},
	}

	for _, entry := range table {
		var lines []string
		for line := range Disassemble(entry.memory) {
			lines = append(lines, line.String())
		}
		assert.Equal(entry.lines, lines, entry.name)
	}
}

func TestDisassemble_Break(t *testing.T) {
	assert := assert.New(t)

	count := 0
	for range Disassemble(vm.Memory{21, 21, 21, 21}) {
		count++
		if count == 2 {
			break
		}
	}
	assert.Equal(2, count)
}

func TestWriteListing(t *testing.T) {
	assert := assert.New(t)

	var buff bytes.Buffer
	err := WriteListing(&buff, vm.Memory{19, 10, 0})
	assert.NoError(err)
	assert.Equal("0     out \\n\n2     halt\n", buff.String())
}

// The disassembly text of any memory assembles back to the same words.
func FuzzDisassemble(f *testing.F) {
	f.Add([]byte{9, 0, 0, 0x80, 1, 0x80, 4, 0})
	f.Add([]byte{19, 0, 10, 0, 0, 0})
	f.Add([]byte{0xff, 0xff, 1})

	f.Fuzz(func(t *testing.T, data []byte) {
		mem := vm.Load(data, len(data)/2)

		var text []string
		for line := range Disassemble(mem) {
			text = append(text, line.Text())
		}

		asm := &Assembler{}
		prog, err := asm.Parse(strings.NewReader(strings.Join(text, "\n")))
		if err != nil {
			t.Fatal(err)
		}

		words := prog.Words()
		if !slices.Equal([]vm.Word(mem), words) {
			t.Fatalf("%v != %v", mem, words)
		}
	})
}
