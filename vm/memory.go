package vm

import (
	"bufio"
	"encoding/binary"
	"errors"
	"io"
)

const (
	MEMORY_SIZE = 32768 // Default memory size, in words.
)

// Memory is a fixed length image of words.
type Memory []Word

// NewMemory returns a zeroed memory of size words.
func NewMemory(size int) Memory {
	return make(Memory, size)
}

// Clone returns a copy of the memory.
func (mem Memory) Clone() Memory {
	dup := make(Memory, len(mem))
	copy(dup, mem)
	return dup
}

// Contains returns true if addr is a valid index into the memory.
func (mem Memory) Contains(addr Word) bool {
	return int(addr) < len(mem)
}

// Bytes returns the memory in program image format.
func (mem Memory) Bytes() (data []byte) {
	data = make([]byte, 2*len(mem))
	for n, word := range mem {
		binary.LittleEndian.PutUint16(data[2*n:], uint16(word))
	}
	return
}

// LoadImage reads a little-endian image of 16-bit words into a memory of
// size words. Short images are zero padded, long images are truncated, and
// an odd trailing byte is dropped.
func LoadImage(r io.Reader, size int) (mem Memory, err error) {
	mem = NewMemory(size)

	br := bufio.NewReader(r)
	var pair [2]byte
	for n := range size {
		_, err = io.ReadFull(br, pair[:])
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			err = nil
			return
		}
		if err != nil {
			err = errors.Join(ErrImage, err)
			return
		}
		mem[n] = Word(binary.LittleEndian.Uint16(pair[:]))
	}

	return
}

// Load converts program bytes into a memory of size words.
func Load(program []byte, size int) Memory {
	mem := NewMemory(size)
	for n := range min(len(program)/2, size) {
		mem[n] = Word(binary.LittleEndian.Uint16(program[2*n:]))
	}
	return mem
}
