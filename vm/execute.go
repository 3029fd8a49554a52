package vm

import (
	"context"
	"log"
)

// value resolves a read operand: a literal is itself, a register reference
// is the register's content.
func (e *Engine) value(op Opcode, arg Word) (value Word, err error) {
	if arg.IsLiteral() {
		value = arg
		return
	}

	reg, ok := arg.Register()
	if !ok {
		err = &OperandError{PC: e.pc, Opcode: op, Operand: arg, Err: ErrOperandMalformed}
		return
	}

	value = e.register[reg]
	return
}

// target resolves a destination operand to a register index. Anything but a
// register reference is reported as a warning, and the caller must skip the
// instruction.
func (e *Engine) target(op Opcode, arg Word) (reg int, ok bool) {
	reg, ok = arg.Register()
	if !ok {
		err := &OperandError{PC: e.pc, Opcode: op, Operand: arg, Err: ErrOperandAddress}
		e.Observer.Warning(e.Snapshot(), err)
	}
	return
}

// values resolves a list of read operands.
func (e *Engine) values(op Opcode, args ...Word) (vals []Word, err error) {
	vals = make([]Word, len(args))
	for n, arg := range args {
		vals[n], err = e.value(op, arg)
		if err != nil {
			return
		}
	}
	return
}

// address checks that addr is inside memory.
func (e *Engine) address(addr Word) (err error) {
	if !e.memory.Contains(addr) {
		err = ErrAddress
	}
	return
}

// binary resolves the two sources of a three operand instruction and stores
// fn of them, modulo 32768, in the destination register.
func (e *Engine) binary(op Opcode, a, b, c Word, fn func(b, c uint32) (uint32, error)) (err error) {
	dst, ok := e.target(op, a)
	if !ok {
		return
	}

	vals, err := e.values(op, b, c)
	if err != nil {
		return
	}

	result, err := fn(uint32(vals[0]), uint32(vals[1]))
	if err != nil {
		return
	}

	e.register[dst] = Word(result % WORD_MODULUS)
	return
}

func boolWord(cond bool) uint32 {
	if cond {
		return 1
	}
	return 0
}

// Execute executes a single decoded instruction at the program counter.
// On error the machine state, including the program counter, is unchanged.
func (e *Engine) Execute(ctx context.Context, in Instruction) (err error) {
	op := in.Opcode()
	next_pc := int(e.pc) + op.Width()

	jump := func(addr Word) {
		if err = e.address(addr); err == nil {
			next_pc = int(addr)
		}
	}

	switch in := in.(type) {
	case Halt:
		e.halted = true
		return
	case Set:
		dst, ok := e.target(op, in.A)
		if !ok {
			break
		}
		var val Word
		val, err = e.value(op, in.B)
		if err != nil {
			return
		}
		e.register[dst] = val
	case Push:
		var val Word
		val, err = e.value(op, in.A)
		if err != nil {
			return
		}
		e.stack.Push(val)
	case Pop:
		dst, ok := e.target(op, in.A)
		if !ok {
			break
		}
		val, ok := e.stack.Pop()
		if !ok {
			err = ErrStackUnderflow
			return
		}
		e.register[dst] = val
	case Eq:
		err = e.binary(op, in.A, in.B, in.C, func(b, c uint32) (uint32, error) { return boolWord(b == c), nil })
	case Gt:
		err = e.binary(op, in.A, in.B, in.C, func(b, c uint32) (uint32, error) { return boolWord(b > c), nil })
	case Jmp:
		var addr Word
		addr, err = e.value(op, in.A)
		if err != nil {
			return
		}
		jump(addr)
	case Jt, Jf:
		var vals []Word
		args := in.Operands()
		vals, err = e.values(op, args...)
		if err != nil {
			return
		}
		if (vals[0] != 0) == (op == OP_JT) {
			jump(vals[1])
		}
	case Add:
		err = e.binary(op, in.A, in.B, in.C, func(b, c uint32) (uint32, error) { return b + c, nil })
	case Mult:
		err = e.binary(op, in.A, in.B, in.C, func(b, c uint32) (uint32, error) { return b * c, nil })
	case Mod:
		err = e.binary(op, in.A, in.B, in.C, func(b, c uint32) (uint32, error) {
			if c == 0 {
				return 0, ErrDivideByZero
			}
			return b % c, nil
		})
	case And:
		err = e.binary(op, in.A, in.B, in.C, func(b, c uint32) (uint32, error) { return b & c, nil })
	case Or:
		err = e.binary(op, in.A, in.B, in.C, func(b, c uint32) (uint32, error) { return b | c, nil })
	case Not:
		dst, ok := e.target(op, in.A)
		if !ok {
			break
		}
		var val Word
		val, err = e.value(op, in.B)
		if err != nil {
			return
		}
		e.register[dst] = ^val & WORD_MAX
	case Rmem:
		dst, ok := e.target(op, in.A)
		if !ok {
			break
		}
		var addr Word
		addr, err = e.value(op, in.B)
		if err != nil {
			return
		}
		if err = e.address(addr); err != nil {
			return
		}
		e.register[dst] = e.memory[addr]
	case Wmem:
		// The destination is an address, never a register.
		var vals []Word
		vals, err = e.values(op, in.A, in.B)
		if err != nil {
			return
		}
		if err = e.address(vals[0]); err != nil {
			return
		}
		e.memory[vals[0]] = vals[1]
	case Call:
		var addr Word
		addr, err = e.value(op, in.A)
		if err != nil {
			return
		}
		jump(addr)
		if err != nil {
			return
		}
		e.stack.Push(Word(int(e.pc) + op.Width()))
	case Ret:
		addr, ok := e.stack.Pop()
		if !ok {
			// Returning from the outermost frame ends the program.
			e.halted = true
			return
		}
		jump(addr)
		if err != nil {
			e.stack.Push(addr)
			return
		}
	case Out:
		var val Word
		val, err = e.value(op, in.A)
		if err != nil {
			return
		}
		if val > 0xff {
			err = &IOValueError{PC: e.pc, Value: val}
			return
		}
		_, err = e.Output.Write([]byte{byte(val)})
		if err != nil {
			return
		}
	case In:
		dst, ok := e.target(op, in.A)
		if !ok {
			break
		}
		var val byte
		val, err = e.input(ctx)
		if err != nil {
			return
		}
		e.register[dst] = Word(val)
	case Noop:
	default:
		err = ErrUnknownOpcode
	}

	if err != nil {
		return
	}

	e.pc = Word(next_pc)

	// Falling off the end of memory ends the program.
	if next_pc >= len(e.memory) {
		e.halted = true
	}

	return
}

// input waits for a byte from the Input queue. The wait ends early if the
// engine is stopped or the context is done.
func (e *Engine) input(ctx context.Context) (value byte, err error) {
	in := e.ctl.Input
	for {
		var ok bool
		value, ok = in.Read()
		if ok {
			return
		}

		if e.ctl.IsStopped() {
			err = ErrStopped
			return
		}

		if e.Verbose {
			log.Printf("vm: %d: waiting for input", e.pc)
		}

		select {
		case <-in.Ready():
		case <-e.ctl.Signal():
		case fn := <-e.ctl.inspect:
			// The 'in' has not changed any state yet.
			fn()
		case <-ctx.Done():
			err = ctx.Err()
			return
		}
	}
}
