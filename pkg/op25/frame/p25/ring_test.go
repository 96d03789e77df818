package p25

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestRingSnapshot(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		in := rapid.SliceOf(rapid.ByteRange(0, 3)).Draw(t, "dibits")
		r := newDibitRing(ringDibits)
		for _, d := range in {
			r.Put(d)
		}

		buffered := len(in)
		if buffered > ringDibits {
			buffered = ringDibits
		}
		require.Equal(t, buffered, r.Len())

		n := rapid.IntRange(0, buffered).Draw(t, "n")
		snap, err := r.Snapshot(n)
		require.NoError(t, err)
		assert.Equal(t, in[len(in)-n:], snap)

		if n > 0 {
			newest, err := r.At(0)
			require.NoError(t, err)
			assert.Equal(t, in[len(in)-1], newest)
		}
	})
}

func TestRingBounds(t *testing.T) {
	r := newDibitRing(5)
	r.Put(1)
	_, err := r.Snapshot(2)
	assert.Error(t, err)
	_, err = r.At(1)
	assert.Error(t, err)
	_, err = r.At(-1)
	assert.Error(t, err)

	d, err := r.At(0)
	require.NoError(t, err)
	assert.Equal(t, byte(1), d)
}

func TestDelayLine(t *testing.T) {
	l := newDelayLine(3)
	for i := byte(0); i < 3; i++ {
		_, ok := l.Push(i)
		assert.False(t, ok)
	}
	for i := byte(3); i < 10; i++ {
		out, ok := l.Push(i)
		require.True(t, ok)
		assert.Equal(t, i-3, out)
	}
}

func TestCorrelator(t *testing.T) {
	var c correlator
	sync := buildFrame(0, 0, nil, 0)[:SyncDibits]
	for i, d := range sync {
		c.push(d)
		assert.Equal(t, i == SyncDibits-1, c.primed())
	}
	assert.Equal(t, 0, c.errors(SyncPattern))

	c.push(0)
	assert.NotZero(t, c.errors(SyncPattern))
	c.reset()
	assert.False(t, c.primed())
}

func TestSkewedSyncPatterns(t *testing.T) {
	want := map[uint64]float64{
		0xffefafaaeeaa: -1.5707963267948966,
		0x001050551155: 1.5707963267948966,
		0xaa8a0a008800: 3.141592653589793,
	}
	require.Len(t, skewedSyncs, len(want))
	for _, s := range skewedSyncs {
		correction, ok := want[s.pattern]
		require.True(t, ok, "unexpected pattern %012x", s.pattern)
		assert.True(t, approxEqual(correction, s.correction))
	}

	// a half turn moves every symbol to the opposite point, so no bit
	// survives; reversed polarity only changes the sign bit
	c := &correlator{reg: skewedSyncs[2].pattern, count: SyncDibits}
	assert.Equal(t, 48, c.errors(SyncPattern))
	c.reg = 0xffdf5f55dd55
	assert.Equal(t, 24, c.errors(SyncPattern))
	for _, s := range skewedSyncs {
		assert.Greater(t, c.errors(s.pattern), DefaultMaxSyncErrors)
	}
}
