package rmsagc

import (
	"math"
)

// ReferenceC4FM is the RMS of equiprobable ±1/±3 symbols.
var ReferenceC4FM = math.Sqrt(5)

// RMSAGC is a root-mean-squared automatic gain controller.  It scales soft
// symbols so their running RMS sits at the reference level.
type RMSAGC struct {
	alpha     float64
	beta      float64
	reference float64
	average   float64
}

// NewRMSAGC creates a gain controller.  alpha is the averaging weight of each
// new sample, reference the output RMS.
func NewRMSAGC(alpha float64, reference float64) *RMSAGC {
	if alpha <= 0 || alpha > 1 {
		alpha = 0.01
	}
	if reference <= 0 {
		reference = ReferenceC4FM
	}
	return &RMSAGC{
		alpha:     alpha,
		beta:      1 - alpha,
		reference: reference,
		average:   reference * reference,
	}
}

// Gain is the factor currently applied to the input.
func (r *RMSAGC) Gain() float64 {
	if r.average <= 0 {
		return 1
	}
	return r.reference / math.Sqrt(r.average)
}

func (r *RMSAGC) Reset() {
	r.average = r.reference * r.reference
}

func (r *RMSAGC) PredictOutputSize(inputSize int) int {
	return inputSize
}

func (r *RMSAGC) WorkBuffer(input, output []float32) int {
	for i := 0; i < len(input); i++ {
		cur := float64(input[i])
		r.average = r.beta*r.average + r.alpha*cur*cur
		output[i] = float32(cur * r.Gain())
	}

	return len(input)
}

func (r *RMSAGC) Work(data []float32) []float32 {
	ret := make([]float32, len(data))
	r.WorkBuffer(data, ret)
	return ret
}
