package asm

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/ezrec/synvm/vm"
)

// Line is one record of a disassembly.
type Line struct {
	Addr     vm.Word   // Address of the first word.
	Opcode   vm.Opcode // Decoded opcode, unless Data is set.
	Operands []vm.Word // Raw operand words, or the data word.
	Data     bool      // Set if the word did not decode.
}

// Mnemonic returns the opcode name, or '.word' for data.
func (line Line) Mnemonic() string {
	if line.Data {
		return ".word"
	}
	return line.Opcode.String()
}

// Args returns the rendered operands.
func (line Line) Args() (args []string) {
	for _, arg := range line.Operands {
		switch {
		case line.Data:
			args = append(args, fmt.Sprintf("%d", arg))
		case line.Opcode == vm.OP_OUT && arg == '\n':
			args = append(args, `\n`)
		default:
			args = append(args, arg.Operand())
		}
	}
	return
}

// Width returns the number of memory words covered by the line.
func (line Line) Width() int {
	if line.Data {
		return len(line.Operands)
	}
	return line.Opcode.Width()
}

// Text returns the mnemonic and operands, in assembler syntax.
func (line Line) Text() string {
	return strings.Join(append([]string{line.Mnemonic()}, line.Args()...), " ")
}

// String returns the listing form: address, mnemonic, operands.
func (line Line) String() string {
	return fmt.Sprintf("%-5d %v", line.Addr, line.Text())
}

// Disassemble walks the memory from address 0 to its end. Words that do not
// decode, including instructions cut short by the end of memory, are
// rendered as data, one word at a time.
func Disassemble(mem vm.Memory) iter.Seq[Line] {
	return func(yield func(line Line) bool) {
		for addr := 0; addr < len(mem); {
			pc := vm.Word(addr)
			var line Line
			in, err := vm.Decode(mem, pc)
			if err != nil {
				line = Line{Addr: pc, Operands: []vm.Word{mem[pc]}, Data: true}
			} else {
				line = Line{Addr: pc, Opcode: in.Opcode(), Operands: in.Operands()}
			}
			if !yield(line) {
				return
			}
			addr += line.Width()
		}
	}
}

// WriteListing writes the disassembly of the memory, one line per record.
func WriteListing(w io.Writer, mem vm.Memory) (err error) {
	bw := bufio.NewWriter(w)
	for line := range Disassemble(mem) {
		_, err = fmt.Fprintln(bw, line.String())
		if err != nil {
			return
		}
	}
	return bw.Flush()
}
