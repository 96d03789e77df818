package bits

import (
	"errors"
	"strings"
)

var (
	ErrBufferFull = errors.New("bits: buffer full")
	ErrOutOfRange = errors.New("bits: range out of bounds")
)

// Buffer is a fixed size run of bits with a write pointer.  Each byte holds a
// single bit (0 or 1), the same layout the assemblers receive from the slicer.
type Buffer struct {
	bits    []byte
	pointer int
}

func NewBuffer(size int) *Buffer {
	return &Buffer{
		bits: make([]byte, size),
	}
}

// NewBufferFromBits copies bits into a new buffer with the pointer at the end.
func NewBufferFromBits(bits []byte) *Buffer {
	b := &Buffer{
		bits:    make([]byte, len(bits)),
		pointer: len(bits),
	}
	for i, v := range bits {
		b.bits[i] = v & 1
	}
	return b
}

func (b *Buffer) Size() int {
	return len(b.bits)
}

func (b *Buffer) Pointer() int {
	return b.pointer
}

// SetPointer moves the write pointer, clamping it to the buffer.
func (b *Buffer) SetPointer(p int) {
	switch {
	case p < 0:
		b.pointer = 0
	case p > len(b.bits):
		b.pointer = len(b.bits)
	default:
		b.pointer = p
	}
}

func (b *Buffer) IsFull() bool {
	return b.pointer >= len(b.bits)
}

// Add appends a single bit at the pointer.
func (b *Buffer) Add(bit byte) error {
	if b.pointer >= len(b.bits) {
		return ErrBufferFull
	}
	b.bits[b.pointer] = bit & 1
	b.pointer++
	return nil
}

// AddDibit appends the high bit and then the low bit of a symbol.
func (b *Buffer) AddDibit(dibit byte) error {
	if b.pointer+2 > len(b.bits) {
		return ErrBufferFull
	}
	b.bits[b.pointer] = (dibit >> 1) & 1
	b.bits[b.pointer+1] = dibit & 1
	b.pointer += 2
	return nil
}

func (b *Buffer) Get(i int) bool {
	return b.bits[i] == 1
}

func (b *Buffer) Set(i int, v bool) {
	if v {
		b.bits[i] = 1
	} else {
		b.bits[i] = 0
	}
}

func (b *Buffer) Flip(i int) {
	b.bits[i] ^= 1
}

// Uint reads bits [start, end) most significant bit first.
func (b *Buffer) Uint(start, end int) (uint64, error) {
	if start < 0 || end > len(b.bits) || start > end || end-start > 64 {
		return 0, ErrOutOfRange
	}
	var v uint64
	for i := start; i < end; i++ {
		v = (v << 1) | uint64(b.bits[i])
	}
	return v, nil
}

// MustUint is Uint for field offsets fixed by the frame layout.
func (b *Buffer) MustUint(start, end int) uint64 {
	v, err := b.Uint(start, end)
	if err != nil {
		panic(err)
	}
	return v
}

// Clear zeroes bits [start, end).
func (b *Buffer) Clear(start, end int) error {
	if start < 0 || end > len(b.bits) || start > end {
		return ErrOutOfRange
	}
	for i := start; i < end; i++ {
		b.bits[i] = 0
	}
	return nil
}

// Bits exposes the underlying storage so FEC can work in place.
func (b *Buffer) Bits() []byte {
	return b.bits
}

func (b *Buffer) Copy() *Buffer {
	c := &Buffer{
		bits:    make([]byte, len(b.bits)),
		pointer: b.pointer,
	}
	copy(c.bits, b.bits)
	return c
}

// Resize grows or truncates the buffer.  Existing bits and the pointer are
// kept where they still fit.
func (b *Buffer) Resize(size int) {
	if size == len(b.bits) {
		return
	}
	if size < len(b.bits) {
		b.bits = b.bits[:size]
	} else {
		grown := make([]byte, size)
		copy(grown, b.bits)
		b.bits = grown
	}
	if b.pointer > size {
		b.pointer = size
	}
}

// Bytes packs the buffer MSB first, padding the final byte with zeroes.
func (b *Buffer) Bytes() []byte {
	out := make([]byte, (len(b.bits)+7)/8)
	for i, v := range b.bits {
		if v == 1 {
			out[i/8] |= 1 << (7 - uint(i%8))
		}
	}
	return out
}

func (b *Buffer) String() string {
	var sb strings.Builder
	sb.Grow(len(b.bits))
	for _, v := range b.bits {
		if v == 1 {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}
