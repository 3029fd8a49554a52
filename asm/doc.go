// Package asm implements the disassembler and assembler for synvm programs.
//
// The disassembler walks a memory image and renders one line per
// instruction, falling back to a '.word' data line for anything that does
// not decode. The assembler reads the same text back, and adds labels,
// equates, character literals and compile-time expressions.
package asm
