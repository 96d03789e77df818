package bits

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestBufferAdd(t *testing.T) {
	b := NewBuffer(4)
	require.NoError(t, b.Add(1))
	require.NoError(t, b.AddDibit(0x2))
	require.NoError(t, b.Add(1))
	assert.True(t, b.IsFull())
	assert.ErrorIs(t, b.Add(0), ErrBufferFull)
	assert.Equal(t, "1101", b.String())
}

func TestBufferAddDibitFull(t *testing.T) {
	b := NewBuffer(3)
	require.NoError(t, b.AddDibit(0x3))
	assert.ErrorIs(t, b.AddDibit(0x3), ErrBufferFull)
	assert.Equal(t, 2, b.Pointer())
}

func TestBufferUint(t *testing.T) {
	tests := []struct {
		name       string
		bits       []byte
		start, end int
		want       uint64
	}{
		{"nibble", []byte{1, 0, 1, 0}, 0, 4, 0xa},
		{"middle", []byte{0, 1, 1, 0, 0}, 1, 3, 3},
		{"empty", []byte{1, 1}, 1, 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewBufferFromBits(tt.bits).Uint(tt.start, tt.end)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := NewBuffer(8).Uint(4, 9)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestBufferClearAndCopy(t *testing.T) {
	b := NewBufferFromBits([]byte{1, 1, 1, 1, 1, 1})
	c := b.Copy()
	require.NoError(t, b.Clear(2, 5))
	assert.Equal(t, "110001", b.String())
	assert.Equal(t, "111111", c.String())
	assert.Equal(t, b.Pointer(), c.Pointer())
	assert.ErrorIs(t, b.Clear(5, 7), ErrOutOfRange)
}

func TestBufferResizeKeepsPointer(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		size := rapid.IntRange(0, 512).Draw(t, "size")
		ptr := rapid.IntRange(0, size).Draw(t, "pointer")
		newSize := rapid.IntRange(0, 512).Draw(t, "newSize")

		b := NewBuffer(size)
		b.SetPointer(ptr)
		b.Resize(newSize)

		assert.Equal(t, newSize, b.Size())
		if ptr <= newSize {
			assert.Equal(t, ptr, b.Pointer())
		} else {
			assert.Equal(t, newSize, b.Pointer())
		}
	})
}

func TestBufferBytes(t *testing.T) {
	b := NewBufferFromBits([]byte{1, 0, 1, 1, 1, 1, 1, 0, 1})
	assert.Equal(t, []byte{0xbe, 0x80}, b.Bytes())
}
