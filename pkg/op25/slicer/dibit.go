package slicer

import (
	"math"
	"sync"

	"github.com/norasector/turbine-p25/pkg/op25"
	"github.com/norasector/turbine-p25/pkg/util"
	"gonum.org/v1/gonum/stat"
)

const (
	// mean |x| of equiprobable ±1/±3 symbols
	defaultLevel = 2.0
	levelAlpha   = 0.1
)

// PhaseCorrection is the rotation applied to symbols after slicing.  The frame
// detector drives it through CorrectPhaseInversion when it recognizes a
// rotated sync.  Polarity reversal is fixed for the life of the channel.
type PhaseCorrection struct {
	mu           sync.Mutex
	quarterTurns int
	inverted     bool
}

func NewPhaseCorrection(inverted bool) *PhaseCorrection {
	return &PhaseCorrection{inverted: inverted}
}

// CorrectPhaseInversion adds a rotation, rounded to whole quarter turns.  The
// polarity set at construction is left alone.
func (p *PhaseCorrection) CorrectPhaseInversion(radians float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	q := op25.QuarterTurns(radians)
	if p.inverted {
		q = -q
	}
	p.quarterTurns = ((p.quarterTurns+q)%4 + 4) % 4
}

// State returns the current rotation in quarter turns and the polarity.
func (p *PhaseCorrection) State() (quarterTurns int, inverted bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.quarterTurns, p.inverted
}

// Apply corrects one dibit.
func (p *PhaseCorrection) Apply(d byte) byte {
	q, inv := p.State()
	return apply(d, q, inv)
}

func apply(d byte, quarterTurns int, inverted bool) byte {
	d = op25.RotateDibit(d, quarterTurns)
	if inverted {
		d = op25.InvertDibit(d)
	}
	return d
}

// DibitSlicer maps soft C4FM symbols to dibits, one per output byte.  The
// decision thresholds sit at 0 and at ±level, where level tracks the mean
// magnitude of the input.
type DibitSlicer struct {
	correction *PhaseCorrection
	level      float64
}

func NewDibitSlicer(correction *PhaseCorrection) *DibitSlicer {
	if correction == nil {
		correction = NewPhaseCorrection(false)
	}
	return &DibitSlicer{
		correction: correction,
		level:      defaultLevel,
	}
}

// Correction is the slicer's phase correction sink.
func (s *DibitSlicer) Correction() *PhaseCorrection {
	return s.correction
}

func (s *DibitSlicer) Level() float64 {
	return s.level
}

func (s *DibitSlicer) updateLevel(input []float32) {
	if len(input) == 0 {
		return
	}
	mags := util.Float32SliceToFloat64(input)
	for i := range mags {
		mags[i] = math.Abs(mags[i])
	}
	mean := stat.Mean(mags, nil)
	if mean <= 0 || math.IsNaN(mean) {
		return
	}
	s.level = (1-levelAlpha)*s.level + levelAlpha*mean
}

func slice(f float32, level float64) byte {
	x := float64(f)
	switch {
	case x >= level:
		return op25.DibitPlus3
	case x >= 0:
		return op25.DibitPlus1
	case x > -level:
		return op25.DibitMinus1
	default:
		return op25.DibitMinus3
	}
}

func (s *DibitSlicer) WorkBuffer(input []float32, output []byte) int {
	s.updateLevel(input)
	q, inv := s.correction.State()
	for i := 0; i < len(input); i++ {
		output[i] = apply(slice(input[i], s.level), q, inv)
	}
	return len(input)
}

func (s *DibitSlicer) Work(items []float32) []byte {
	ret := make([]byte, len(items))
	s.WorkBuffer(items, ret)
	return ret
}

func (s *DibitSlicer) PredictOutputSize(inputSize int) int {
	return inputSize
}

// Rotator applies a phase correction to already sliced dibits.
type Rotator struct {
	correction *PhaseCorrection
}

func NewRotator(correction *PhaseCorrection) *Rotator {
	if correction == nil {
		correction = NewPhaseCorrection(false)
	}
	return &Rotator{correction: correction}
}

func (r *Rotator) Correction() *PhaseCorrection {
	return r.correction
}

func (r *Rotator) WorkBuffer(input []byte, output []byte) int {
	q, inv := r.correction.State()
	for i := 0; i < len(input); i++ {
		output[i] = apply(input[i]&3, q, inv)
	}
	return len(input)
}

func (r *Rotator) PredictOutputSize(inputSize int) int {
	return inputSize
}
