// Package vm implements the synvm virtual machine.
//
// The machine has a fixed-length memory of 16-bit words, eight 16-bit
// registers (r0-r7), an unbounded stack and a program counter. Words in
// 0..32767 are literal values, words in 32768..32775 name a register, and
// every other word is malformed. All arithmetic is modulo 32768.
//
// The Engine runs the fetch-decode-execute cycle. It is driven from one
// goroutine, while a Control handle lets another goroutine pause, resume and
// stop it, add breakpoints, and feed the Input queue drained by the 'in'
// instruction.
package vm
