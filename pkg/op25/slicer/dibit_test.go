package slicer

import (
	"math"
	"testing"

	"github.com/norasector/turbine-p25/pkg/op25"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestDibitSlicer(t *testing.T) {
	s := NewDibitSlicer(nil)
	input := []float32{3, 1, -1, -3, 2.9, 0.2, -0.4, -2.6}
	want := []byte{
		op25.DibitPlus3, op25.DibitPlus1, op25.DibitMinus1, op25.DibitMinus3,
		op25.DibitPlus3, op25.DibitPlus1, op25.DibitMinus1, op25.DibitMinus3,
	}
	assert.Equal(t, want, s.Work(input))
	assert.Equal(t, len(input), s.PredictOutputSize(len(input)))
}

func TestDibitSlicerTracksLevel(t *testing.T) {
	s := NewDibitSlicer(nil)
	// the same constellation at a tenth of the nominal amplitude
	input := []float32{0.3, 0.1, -0.1, -0.3}
	for i := 0; i < 100; i++ {
		s.Work(input)
	}
	assert.InDelta(t, 0.2, s.Level(), 0.01)
	assert.Equal(t, []byte{op25.DibitPlus3, op25.DibitPlus1, op25.DibitMinus1, op25.DibitMinus3}, s.Work(input))

	// silence leaves the level alone
	before := s.Level()
	s.Work([]float32{0, 0, 0})
	assert.Equal(t, before, s.Level())
}

func TestPhaseCorrectionUndoesRotation(t *testing.T) {
	tests := []struct {
		name       string
		skew       func(byte) byte
		correction float64
	}{
		{"rotated +90", func(d byte) byte { return op25.RotateDibit(d, 1) }, -math.Pi / 2},
		{"rotated -90", func(d byte) byte { return op25.RotateDibit(d, -1) }, math.Pi / 2},
		{"rotated 180", func(d byte) byte { return op25.RotateDibit(d, 2) }, math.Pi},
		{"rotated -180", func(d byte) byte { return op25.RotateDibit(d, 2) }, -math.Pi},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPhaseCorrection(false)
			p.CorrectPhaseInversion(tt.correction)
			for d := byte(0); d < 4; d++ {
				assert.Equal(t, d, p.Apply(tt.skew(d)), "dibit %d", d)
			}
		})
	}
}

func TestPhaseCorrectionComposes(t *testing.T) {
	skews := []struct {
		skew       func(byte) byte
		correction float64
	}{
		{func(d byte) byte { return op25.RotateDibit(d, 1) }, -math.Pi / 2},
		{func(d byte) byte { return op25.RotateDibit(d, -1) }, math.Pi / 2},
		{func(d byte) byte { return op25.RotateDibit(d, 2) }, math.Pi},
	}

	rapid.Check(t, func(t *rapid.T) {
		p := NewPhaseCorrection(rapid.Bool().Draw(t, "inverted"))
		steps := rapid.SliceOfN(rapid.IntRange(0, len(skews)-1), 1, 8).Draw(t, "steps")
		for _, step := range steps {
			// a channel whose symbols come out of the current correction
			// skewed by one more step
			var undo [4]byte
			for d := byte(0); d < 4; d++ {
				undo[p.Apply(d)] = d
			}
			channel := func(d byte) byte { return undo[skews[step].skew(d)] }

			p.CorrectPhaseInversion(skews[step].correction)
			for d := byte(0); d < 4; d++ {
				require.Equal(t, d, p.Apply(channel(d)), "dibit %d", d)
			}
		}
	})
}

func TestRotator(t *testing.T) {
	r := NewRotator(nil)
	in := []byte{0, 1, 2, 3, 0x7}
	out := make([]byte, len(in))
	require.Equal(t, len(in), r.WorkBuffer(in, out))
	assert.Equal(t, []byte{0, 1, 2, 3, 3}, out)

	r.Correction().CorrectPhaseInversion(math.Pi)
	r.WorkBuffer(in, out)
	assert.Equal(t, []byte{3, 2, 1, 0, 0}, out)

	q, inverted := r.Correction().State()
	assert.Equal(t, 2, q)
	assert.False(t, inverted)
}

func TestHalfTurnKeepsPolarity(t *testing.T) {
	for _, inverted := range []bool{false, true} {
		p := NewPhaseCorrection(inverted)
		p.CorrectPhaseInversion(math.Pi)
		q, inv := p.State()
		assert.Equal(t, 2, q)
		assert.Equal(t, inverted, inv)

		// +3 arrives as -1 after a half turn
		want := op25.DibitPlus3
		if inverted {
			want = op25.DibitMinus3
		}
		assert.Equal(t, want, p.Apply(op25.DibitMinus1))
	}
}

func TestSlicerSharesCorrection(t *testing.T) {
	p := NewPhaseCorrection(true)
	s := NewDibitSlicer(p)
	assert.Same(t, p, s.Correction())
	assert.Equal(t, []byte{op25.DibitMinus3}, s.Work([]float32{3}))
}
