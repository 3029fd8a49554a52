package vm

import (
	"strings"
)

// Instruction is a decoded instruction. The concrete types are the opcode
// variants below, each holding only the raw operand words it uses.
type Instruction interface {
	Opcode() Opcode
	Operands() []Word
	String() string

	instruction()
}

type sealed struct{}

func (sealed) instruction() {}

type Halt struct{ sealed }
type Set struct {
	sealed
	A, B Word
}
type Push struct {
	sealed
	A Word
}
type Pop struct {
	sealed
	A Word
}
type Eq struct {
	sealed
	A, B, C Word
}
type Gt struct {
	sealed
	A, B, C Word
}
type Jmp struct {
	sealed
	A Word
}
type Jt struct {
	sealed
	A, B Word
}
type Jf struct {
	sealed
	A, B Word
}
type Add struct {
	sealed
	A, B, C Word
}
type Mult struct {
	sealed
	A, B, C Word
}
type Mod struct {
	sealed
	A, B, C Word
}
type And struct {
	sealed
	A, B, C Word
}
type Or struct {
	sealed
	A, B, C Word
}
type Not struct {
	sealed
	A, B Word
}
type Rmem struct {
	sealed
	A, B Word
}
type Wmem struct {
	sealed
	A, B Word
}
type Call struct {
	sealed
	A Word
}
type Ret struct{ sealed }
type Out struct {
	sealed
	A Word
}
type In struct {
	sealed
	A Word
}
type Noop struct{ sealed }

func (Halt) Opcode() Opcode { return OP_HALT }
func (Set) Opcode() Opcode  { return OP_SET }
func (Push) Opcode() Opcode { return OP_PUSH }
func (Pop) Opcode() Opcode  { return OP_POP }
func (Eq) Opcode() Opcode   { return OP_EQ }
func (Gt) Opcode() Opcode   { return OP_GT }
func (Jmp) Opcode() Opcode  { return OP_JMP }
func (Jt) Opcode() Opcode   { return OP_JT }
func (Jf) Opcode() Opcode   { return OP_JF }
func (Add) Opcode() Opcode  { return OP_ADD }
func (Mult) Opcode() Opcode { return OP_MULT }
func (Mod) Opcode() Opcode  { return OP_MOD }
func (And) Opcode() Opcode  { return OP_AND }
func (Or) Opcode() Opcode   { return OP_OR }
func (Not) Opcode() Opcode  { return OP_NOT }
func (Rmem) Opcode() Opcode { return OP_RMEM }
func (Wmem) Opcode() Opcode { return OP_WMEM }
func (Call) Opcode() Opcode { return OP_CALL }
func (Ret) Opcode() Opcode  { return OP_RET }
func (Out) Opcode() Opcode  { return OP_OUT }
func (In) Opcode() Opcode   { return OP_IN }
func (Noop) Opcode() Opcode { return OP_NOOP }

func (Halt) Operands() []Word   { return nil }
func (in Set) Operands() []Word { return []Word{in.A, in.B} }
func (in Push) Operands() []Word { return []Word{in.A} }
func (in Pop) Operands() []Word  { return []Word{in.A} }
func (in Eq) Operands() []Word   { return []Word{in.A, in.B, in.C} }
func (in Gt) Operands() []Word   { return []Word{in.A, in.B, in.C} }
func (in Jmp) Operands() []Word  { return []Word{in.A} }
func (in Jt) Operands() []Word   { return []Word{in.A, in.B} }
func (in Jf) Operands() []Word   { return []Word{in.A, in.B} }
func (in Add) Operands() []Word  { return []Word{in.A, in.B, in.C} }
func (in Mult) Operands() []Word { return []Word{in.A, in.B, in.C} }
func (in Mod) Operands() []Word  { return []Word{in.A, in.B, in.C} }
func (in And) Operands() []Word  { return []Word{in.A, in.B, in.C} }
func (in Or) Operands() []Word   { return []Word{in.A, in.B, in.C} }
func (in Not) Operands() []Word  { return []Word{in.A, in.B} }
func (in Rmem) Operands() []Word { return []Word{in.A, in.B} }
func (in Wmem) Operands() []Word { return []Word{in.A, in.B} }
func (in Call) Operands() []Word { return []Word{in.A} }
func (Ret) Operands() []Word     { return nil }
func (in Out) Operands() []Word  { return []Word{in.A} }
func (in In) Operands() []Word   { return []Word{in.A} }
func (Noop) Operands() []Word    { return nil }

func (in Halt) String() string { return format(in) }
func (in Set) String() string  { return format(in) }
func (in Push) String() string { return format(in) }
func (in Pop) String() string  { return format(in) }
func (in Eq) String() string   { return format(in) }
func (in Gt) String() string   { return format(in) }
func (in Jmp) String() string  { return format(in) }
func (in Jt) String() string   { return format(in) }
func (in Jf) String() string   { return format(in) }
func (in Add) String() string  { return format(in) }
func (in Mult) String() string { return format(in) }
func (in Mod) String() string  { return format(in) }
func (in And) String() string  { return format(in) }
func (in Or) String() string   { return format(in) }
func (in Not) String() string  { return format(in) }
func (in Rmem) String() string { return format(in) }
func (in Wmem) String() string { return format(in) }
func (in Call) String() string { return format(in) }
func (in Ret) String() string  { return format(in) }
func (in Out) String() string  { return format(in) }
func (in In) String() string   { return format(in) }
func (in Noop) String() string { return format(in) }

// format renders the mnemonic followed by the operands.
func format(in Instruction) string {
	words := []string{in.Opcode().String()}
	for _, arg := range in.Operands() {
		words = append(words, arg.Operand())
	}
	return strings.Join(words, " ")
}

// Width returns the encoded size, in words, of the instruction.
func Width(in Instruction) Word {
	return Word(in.Opcode().Width())
}

// Encode returns the instruction as memory words.
func Encode(in Instruction) []Word {
	return append([]Word{Word(in.Opcode())}, in.Operands()...)
}

// Make builds the instruction variant for op from its operand words.
func Make(op Opcode, args ...Word) (in Instruction, err error) {
	if !op.Valid() {
		err = ErrUnknownOpcode
		return
	}
	if len(args) != op.Operands() {
		err = ErrTruncated
		return
	}

	var a, b, c Word
	switch len(args) {
	case 3:
		c = args[2]
		fallthrough
	case 2:
		b = args[1]
		fallthrough
	case 1:
		a = args[0]
	}

	switch op {
	case OP_HALT:
		in = Halt{}
	case OP_SET:
		in = Set{A: a, B: b}
	case OP_PUSH:
		in = Push{A: a}
	case OP_POP:
		in = Pop{A: a}
	case OP_EQ:
		in = Eq{A: a, B: b, C: c}
	case OP_GT:
		in = Gt{A: a, B: b, C: c}
	case OP_JMP:
		in = Jmp{A: a}
	case OP_JT:
		in = Jt{A: a, B: b}
	case OP_JF:
		in = Jf{A: a, B: b}
	case OP_ADD:
		in = Add{A: a, B: b, C: c}
	case OP_MULT:
		in = Mult{A: a, B: b, C: c}
	case OP_MOD:
		in = Mod{A: a, B: b, C: c}
	case OP_AND:
		in = And{A: a, B: b, C: c}
	case OP_OR:
		in = Or{A: a, B: b, C: c}
	case OP_NOT:
		in = Not{A: a, B: b}
	case OP_RMEM:
		in = Rmem{A: a, B: b}
	case OP_WMEM:
		in = Wmem{A: a, B: b}
	case OP_CALL:
		in = Call{A: a}
	case OP_RET:
		in = Ret{}
	case OP_OUT:
		in = Out{A: a}
	case OP_IN:
		in = In{A: a}
	case OP_NOOP:
		in = Noop{}
	}

	return
}

// Decode decodes the instruction at pc. Operands are not interpreted.
func Decode(mem Memory, pc Word) (in Instruction, err error) {
	if !mem.Contains(pc) {
		err = &DecodeError{PC: pc, Err: ErrAddress}
		return
	}

	word := mem[pc]
	op := Opcode(word)
	if !op.Valid() {
		err = &DecodeError{PC: pc, Word: word, Err: ErrUnknownOpcode}
		return
	}

	end := int(pc) + op.Width()
	if end > len(mem) {
		err = &DecodeError{PC: pc, Word: word, Err: ErrTruncated}
		return
	}

	return Make(op, mem[int(pc)+1:end]...)
}
