package asm

import (
	"github.com/ezrec/synvm/vm"
)

// Opcode is one assembled source line.
type Opcode struct {
	LineNo int       // Source line number.
	Addr   int       // Address of the first word.
	Words  []string  // Source tokens, mnemonic first.
	Codes  []vm.Word // Generated memory words.
}

// Program is the output of the assembler.
type Program struct {
	Opcodes []Opcode
}

// Debug returns the source line that generated the word at addr.
func (prog *Program) Debug(addr vm.Word) (op *Opcode, ok bool) {
	for n := range prog.Opcodes {
		op = &prog.Opcodes[n]
		if int(addr) >= op.Addr && int(addr) < op.Addr+len(op.Codes) {
			ok = true
			return
		}
	}

	op = nil
	return
}

// Words returns the generated words in address order.
func (prog *Program) Words() (words []vm.Word) {
	for _, op := range prog.Opcodes {
		words = append(words, op.Codes...)
	}
	return
}

// Memory returns the program placed in a memory of size words.
func (prog *Program) Memory(size int) (mem vm.Memory) {
	mem = vm.NewMemory(size)
	copy(mem, prog.Words())
	return
}

// Bytes returns the program in image format.
func (prog *Program) Bytes() []byte {
	return vm.Memory(prog.Words()).Bytes()
}
