package p25

import (
	"sync/atomic"

	"github.com/rs/zerolog"
)

// EventHandler receives the detector's frame and sync status events.
type EventHandler interface {
	FrameDetected(Detection)
	SyncLost()
}

// Stats is a point in time copy of a decoder's counters.
type Stats struct {
	Dibits            uint64
	FramesDetected    uint64
	FramesCompleted   uint64
	FramesInterrupted uint64
	SyncLosses        uint64
	NIDFailures       uint64
	PhaseCorrections  uint64
	FECFailures       uint64
	CRCFailures       uint64
	Messages          uint64
	MessagesDropped   uint64
	CorrectedBits     uint64
	DiscardedDibits   uint64
}

type decoderStats struct {
	dibits            atomic.Uint64
	framesDetected    atomic.Uint64
	framesCompleted   atomic.Uint64
	framesInterrupted atomic.Uint64
	syncLosses        atomic.Uint64
	nidFailures       atomic.Uint64
	phaseCorrections  atomic.Uint64
	fecFailures       atomic.Uint64
	crcFailures       atomic.Uint64
	messages          atomic.Uint64
	correctedBits     atomic.Uint64
	discardedDibits   atomic.Uint64
}

// Decoder turns one channel's symbol stream into messages.  It owns the
// channel's detector, assembler and dispatcher; every symbol goes to the
// assembler (while a frame is in progress) and then to the detector.
//
// Receive must be called from a single goroutine.  Stats may be read from
// any goroutine.
type Decoder struct {
	logger     zerolog.Logger
	detector   *Detector
	assembler  *Assembler
	dispatcher *Dispatcher
	events     EventHandler

	strictErrors  int
	lenientErrors int

	// corrected bits already counted for the frame in progress
	frameCorrected int

	stats decoderStats
}

type DecoderOption func(*Decoder)

func WithLogger(logger zerolog.Logger) DecoderOption {
	return func(d *Decoder) {
		d.logger = logger
	}
}

func WithPhaseCorrector(c PhaseCorrector) DecoderOption {
	return func(d *Decoder) {
		d.detector.SetPhaseCorrector(c)
	}
}

// WithSyncErrors sets the correlator thresholds used outside and inside a
// voice sequence.  Non positive values keep the defaults.
func WithSyncErrors(strict, lenient int) DecoderOption {
	return func(d *Decoder) {
		if strict > 0 {
			d.strictErrors = strict
		}
		if lenient > 0 {
			d.lenientErrors = lenient
		}
	}
}

func WithEventHandler(h EventHandler) DecoderOption {
	return func(d *Decoder) {
		d.events = h
	}
}

func NewDecoder(handler MessageHandler, opts ...DecoderOption) *Decoder {
	d := &Decoder{
		logger:        zerolog.Nop(),
		detector:      NewDetector(zerolog.Nop()),
		dispatcher:    NewDispatcher(handler),
		strictErrors:  DefaultMaxSyncErrors,
		lenientErrors: DefaultVoiceSyncErrors,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.detector.logger = d.logger
	d.detector.SetStrictErrors(d.strictErrors)
	d.detector.SetMaxErrors(d.strictErrors)
	d.assembler = NewAssembler(d.logger, d.handle)
	return d
}

// Receive implements frame.Assembler.  Each byte holds one dibit in its low
// two bits.
func (d *Decoder) Receive(dibits []byte) {
	for _, dibit := range dibits {
		d.ReceiveDibit(dibit)
	}
}

func (d *Decoder) ReceiveDibit(dibit byte) {
	d.stats.dibits.Add(1)

	completed := false
	if d.assembler.Active() {
		switch d.assembler.Receive(dibit) {
		case StatusFrameComplete:
			d.stats.framesCompleted.Add(1)
			completed = true
		case StatusFECFailure:
			d.stats.fecFailures.Add(1)
		case StatusCRCFailure:
			d.stats.crcFailures.Add(1)
		}
	}

	d.detector.SetMaxErrors(d.threshold(d.assembler.Strictness()))

	ev := d.detector.Receive(dibit)
	if completed && ev.Kind != EventFrameDetected {
		d.detector.MarkFrameEnd()
	}
	switch ev.Kind {
	case EventFrameDetected:
		d.frameDetected(ev.Detection)
	case EventSyncLost:
		d.stats.syncLosses.Add(1)
		if d.events != nil {
			d.events.SyncLost()
		}
	case EventNIDFailure:
		d.stats.nidFailures.Add(1)
	case EventPhaseCorrection:
		d.stats.phaseCorrections.Add(1)
	}
}

func (d *Decoder) frameDetected(det Detection) {
	d.stats.framesDetected.Add(1)
	d.stats.discardedDibits.Add(uint64(det.DiscardedDibits))
	if d.assembler.Active() {
		d.stats.framesInterrupted.Add(1)
	}

	d.frameCorrected = 0
	if !det.Synthesized {
		d.frameCorrected = det.BitErrors
		d.stats.correctedBits.Add(uint64(det.BitErrors))
	}

	d.logger.Debug().
		Str("frame_type", det.FrameType.String()).
		Uint16("nac", det.NAC).
		Int("bit_errors", det.BitErrors).
		Int("discarded", det.DiscardedDibits).
		Bool("synthesized", det.Synthesized).
		Bool("fallback", det.Fallback).
		Msg("frame detected")

	d.assembler.Start(det)
	if d.events != nil {
		d.events.FrameDetected(det)
	}
}

func (d *Decoder) handle(m *Message) {
	d.stats.messages.Add(1)
	if m.CorrectedBits > d.frameCorrected && !m.FrameType.IsVoice() {
		d.stats.correctedBits.Add(uint64(m.CorrectedBits - d.frameCorrected))
		d.frameCorrected = m.CorrectedBits
	}
	d.dispatcher.Dispatch(m)
}

func (d *Decoder) threshold(s Strictness) int {
	if s == SyncLenient {
		return d.lenientErrors
	}
	return d.strictErrors
}

// Reset drops any frame in progress and all buffered symbols.
func (d *Decoder) Reset() {
	d.assembler.Reset()
	d.detector.Reset()
	d.frameCorrected = 0
}

// Detector exposes the channel's detector, mainly for inspection.
func (d *Decoder) Detector() *Detector {
	return d.detector
}

func (d *Decoder) Assembler() *Assembler {
	return d.assembler
}

func (d *Decoder) Stats() Stats {
	return Stats{
		Dibits:            d.stats.dibits.Load(),
		FramesDetected:    d.stats.framesDetected.Load(),
		FramesCompleted:   d.stats.framesCompleted.Load(),
		FramesInterrupted: d.stats.framesInterrupted.Load(),
		SyncLosses:        d.stats.syncLosses.Load(),
		NIDFailures:       d.stats.nidFailures.Load(),
		PhaseCorrections:  d.stats.phaseCorrections.Load(),
		FECFailures:       d.stats.fecFailures.Load(),
		CRCFailures:       d.stats.crcFailures.Load(),
		Messages:          d.stats.messages.Load(),
		MessagesDropped:   d.dispatcher.Dropped(),
		CorrectedBits:     d.stats.correctedBits.Load(),
		DiscardedDibits:   d.stats.discardedDibits.Load(),
	}
}
