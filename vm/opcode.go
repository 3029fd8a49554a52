package vm

// Opcode is the operation encoded in the first word of an instruction.
type Opcode Word

const (
	OP_HALT = Opcode(0)  // halt
	OP_SET  = Opcode(1)  // set
	OP_PUSH = Opcode(2)  // push
	OP_POP  = Opcode(3)  // pop
	OP_EQ   = Opcode(4)  // eq
	OP_GT   = Opcode(5)  // gt
	OP_JMP  = Opcode(6)  // jmp
	OP_JT   = Opcode(7)  // jt
	OP_JF   = Opcode(8)  // jf
	OP_ADD  = Opcode(9)  // add
	OP_MULT = Opcode(10) // mult
	OP_MOD  = Opcode(11) // mod
	OP_AND  = Opcode(12) // and
	OP_OR   = Opcode(13) // or
	OP_NOT  = Opcode(14) // not
	OP_RMEM = Opcode(15) // rmem
	OP_WMEM = Opcode(16) // wmem
	OP_CALL = Opcode(17) // call
	OP_RET  = Opcode(18) // ret
	OP_OUT  = Opcode(19) // out
	OP_IN   = Opcode(20) // in
	OP_NOOP = Opcode(21) // noop

	OP_COUNT = 22
)

var opcodeName = [OP_COUNT]string{
	"halt", "set", "push", "pop", "eq", "gt", "jmp", "jt", "jf",
	"add", "mult", "mod", "and", "or", "not", "rmem", "wmem",
	"call", "ret", "out", "in", "noop",
}

var opcodeOperands = [OP_COUNT]int{
	0, 2, 1, 1, 3, 3, 1, 2, 2,
	3, 3, 3, 3, 3, 2, 2, 2,
	1, 0, 1, 1, 0,
}

// Valid returns true for the defined opcodes.
func (op Opcode) Valid() bool {
	return op < OP_COUNT
}

// String returns the mnemonic of the opcode.
func (op Opcode) String() string {
	if !op.Valid() {
		return f("Opcode(%d)", Word(op))
	}
	return opcodeName[op]
}

// Operands returns the number of operand words following the opcode.
func (op Opcode) Operands() int {
	if !op.Valid() {
		return 0
	}
	return opcodeOperands[op]
}

// Width returns the encoded size, in words, of the instruction.
func (op Opcode) Width() int {
	return 1 + op.Operands()
}

// ParseOpcode returns the opcode with the given mnemonic.
func ParseOpcode(name string) (op Opcode, ok bool) {
	for n, str := range opcodeName {
		if str == name {
			return Opcode(n), true
		}
	}
	return
}
