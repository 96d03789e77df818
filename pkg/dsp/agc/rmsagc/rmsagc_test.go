package rmsagc

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func rms(f []float32) float64 {
	var sum float64
	for _, v := range f {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum / float64(len(f)))
}

func TestRMSAGCConverges(t *testing.T) {
	tests := []struct {
		name  string
		scale float32
	}{
		{"quiet", 0.05},
		{"nominal", 1},
		{"hot", 40},
	}
	pattern := []float32{1, 3, -1, -3, 3, -3, 1, -1}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agc := NewRMSAGC(0.01, ReferenceC4FM)
			input := make([]float32, 8000)
			for i := range input {
				input[i] = pattern[i%len(pattern)] * tt.scale
			}
			out := agc.Work(input)
			assert.InDelta(t, ReferenceC4FM, rms(out[len(out)-800:]), 0.1)
			assert.InDelta(t, 1/float64(tt.scale), agc.Gain(), 0.05/float64(tt.scale))
		})
	}
}

func TestRMSAGCDefaults(t *testing.T) {
	agc := NewRMSAGC(0, 0)
	assert.InDelta(t, 1, agc.Gain(), 1e-9)
	assert.Equal(t, 3, agc.PredictOutputSize(3))

	agc.Work([]float32{100, 100, 100})
	assert.Less(t, agc.Gain(), 1.0)
	agc.Reset()
	assert.InDelta(t, 1, agc.Gain(), 1e-9)
}
