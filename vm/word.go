package vm

import (
	"fmt"
)

// Word is the native 16-bit value of the machine.
type Word uint16

const (
	WORD_MODULUS   = 32768                  // All arithmetic is modulo this value.
	WORD_MAX       = Word(WORD_MODULUS - 1) // Largest literal value.
	REGISTER_BASE  = Word(WORD_MODULUS)     // Encoding of register r0.
	REGISTER_LIMIT = 8                      // Number of registers.
	REGISTER_END   = REGISTER_BASE + REGISTER_LIMIT
)

// Reg returns the operand encoding of register n.
func Reg(n int) Word {
	return REGISTER_BASE + Word(n)
}

// IsLiteral returns true if the word is a literal value.
func (w Word) IsLiteral() bool {
	return w <= WORD_MAX
}

// IsRegister returns true if the word names one of the registers.
func (w Word) IsRegister() bool {
	return w >= REGISTER_BASE && w < REGISTER_END
}

// Register returns the register index named by the word.
func (w Word) Register() (index int, ok bool) {
	if !w.IsRegister() {
		return
	}

	return int(w - REGISTER_BASE), true
}

// Operand returns the disassembly form of the word used as an operand.
func (w Word) Operand() string {
	if reg, ok := w.Register(); ok {
		return fmt.Sprintf("R%d", reg)
	}

	return fmt.Sprintf("%d", w)
}

// Registers is the register bank.
type Registers [REGISTER_LIMIT]Word
