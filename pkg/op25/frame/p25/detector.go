package p25

import (
	"github.com/rs/zerolog"
)

const (
	// A sync lost event is raised every syncLossDibits symbols without a
	// detection.  The counter only rolls back by syncLossRollback so the
	// event keeps firing at a steady rate.
	syncLossDibits   = 4864
	syncLossRollback = 4800

	synthesizedBitErrors = 63
	maxSynthesized       = 2

	ringDibits = 64
)

// PhaseCorrector is the symbol source's correction sink.  The detector asks it
// to rotate the constellation when it recognizes a rotated or polarity
// reversed sync.
type PhaseCorrector interface {
	CorrectPhaseInversion(radians float64)
}

// Detection describes a frame found by the detector.
type Detection struct {
	FrameType FrameType
	NAC       uint16
	// sync bit errors plus corrected NID bit errors
	BitErrors int
	// symbols since the last completed frame that were not part of any
	// message
	DiscardedDibits int
	// the NID could not be corrected and the frame type was inferred from
	// the previous voice frame
	Synthesized bool
	// found by the frame length fallback rather than by a sync match
	Fallback bool
}

type EventKind int

const (
	EventNone EventKind = iota
	EventFrameDetected
	EventSyncLost
	EventNIDFailure
	EventPhaseCorrection
)

func (k EventKind) String() string {
	switch k {
	case EventFrameDetected:
		return "frame_detected"
	case EventSyncLost:
		return "sync_lost"
	case EventNIDFailure:
		return "nid_failure"
	case EventPhaseCorrection:
		return "phase_correction"
	default:
		return "none"
	}
}

// Event is the outcome of feeding one symbol to the detector.
type Event struct {
	Kind      EventKind
	Detection Detection
	// rotation requested from the symbol source, radians
	Correction float64
}

// Detector finds frame sync and corrects the NID that follows it.
//
// The correlator runs NIDDibits symbols behind the input, so by the time it
// matches the whole NID is already in the ring.
type Detector struct {
	ring      *dibitRing
	delay     *delayLine
	corr      correlator
	corrector PhaseCorrector
	logger    zerolog.Logger

	maxErrors    int
	strictErrors int

	previous    FrameType
	lastNAC     uint16
	synthesized int
	last        *Detection

	sinceDetection int
	fallbackAt     int
	sinceFrameEnd  int
	lossCounter    int
}

func NewDetector(logger zerolog.Logger) *Detector {
	return &Detector{
		ring:         newDibitRing(ringDibits),
		delay:        newDelayLine(NIDDibits),
		logger:       logger,
		maxErrors:    DefaultMaxSyncErrors,
		strictErrors: DefaultMaxSyncErrors,
		previous:     FrameTypeTDU,
	}
}

// SetPhaseCorrector wires the symbol source's correction sink.  nil disables
// rotated sync handling.
func (d *Detector) SetPhaseCorrector(c PhaseCorrector) {
	d.corrector = c
}

// SetMaxErrors changes the number of sync bit errors accepted as a match.
func (d *Detector) SetMaxErrors(n int) {
	d.maxErrors = n
}

func (d *Detector) MaxErrors() int {
	return d.maxErrors
}

// SetStrictErrors sets the threshold used for rotated sync patterns.
func (d *Detector) SetStrictErrors(n int) {
	d.strictErrors = n
}

// Previous is the type of the last detected frame.
func (d *Detector) Previous() FrameType {
	return d.previous
}

// LastDetection returns the most recent detection, if any.
func (d *Detector) LastDetection() (Detection, bool) {
	if d.last == nil {
		return Detection{}, false
	}
	return *d.last, true
}

// MarkFrameEnd tells the detector that a message completed, so later symbols
// count as discarded until the next detection.
func (d *Detector) MarkFrameEnd() {
	d.sinceFrameEnd = 0
}

// Reset forgets all buffered symbols and detection history.
func (d *Detector) Reset() {
	d.ring = newDibitRing(ringDibits)
	d.delay = newDelayLine(NIDDibits)
	d.corr.reset()
	d.previous = FrameTypeTDU
	d.lastNAC = 0
	d.synthesized = 0
	d.last = nil
	d.sinceDetection = 0
	d.fallbackAt = 0
	d.sinceFrameEnd = 0
	d.lossCounter = 0
}

// Receive processes one symbol.
func (d *Detector) Receive(dibit byte) Event {
	dibit &= 3
	d.ring.Put(dibit)
	d.sinceFrameEnd++
	d.lossCounter++
	if d.fallbackAt > 0 {
		d.sinceDetection++
	}

	if delayed, ok := d.delay.Push(dibit); ok {
		d.corr.push(delayed)
		if d.corr.primed() {
			if errs := d.corr.errors(SyncPattern); errs <= d.maxErrors {
				return d.checkNID(errs, false)
			}
			if ev, ok := d.checkSkewed(); ok {
				return ev
			}
		}
	}

	if d.fallbackAt > 0 && d.sinceDetection >= d.fallbackAt {
		// The sync may have been hit too hard to match.  Try the NID
		// where the next frame should have put it.
		d.fallbackAt = 0
		ev := d.checkNID(d.corr.errors(SyncPattern), true)
		if ev.Kind == EventFrameDetected {
			return ev
		}
	}

	if d.lossCounter >= syncLossDibits {
		d.lossCounter -= syncLossRollback
		d.logger.Debug().Msg("sync lost")
		return Event{Kind: EventSyncLost}
	}
	return Event{}
}

func (d *Detector) checkSkewed() (Event, bool) {
	if d.corrector == nil {
		return Event{}, false
	}
	for _, s := range skewedSyncs {
		if d.corr.errors(s.pattern) > d.strictErrors {
			continue
		}
		d.logger.Debug().Float64("correction", s.correction).Msg("rotated sync, requesting phase correction")
		d.corrector.CorrectPhaseInversion(s.correction)
		d.corr.reset()
		return Event{Kind: EventPhaseCorrection, Correction: s.correction}, true
	}
	return Event{}, false
}

func (d *Detector) checkNID(syncErrors int, fallback bool) Event {
	region, err := d.ring.Snapshot(NIDDibits)
	if err != nil {
		return Event{}
	}
	codeword, err := extractNID(region)
	if err != nil {
		return Event{}
	}

	nid, err := decodeNID(codeword)
	if err == nil && nid.FrameType() != FrameTypeUnknown {
		return d.detected(Detection{
			FrameType: nid.FrameType(),
			NAC:       nid.NAC,
			BitErrors: syncErrors + nid.BitErrors,
			Fallback:  fallback,
		})
	}

	if companion, ok := d.previous.companion(); ok && d.synthesized < maxSynthesized {
		d.synthesized++
		synthesized := d.synthesized
		ev := d.detected(Detection{
			FrameType:   companion,
			NAC:         d.lastNAC,
			BitErrors:   synthesizedBitErrors,
			Synthesized: true,
			Fallback:    fallback,
		})
		d.synthesized = synthesized
		if d.synthesized == maxSynthesized {
			d.previous = FrameTypeTDU
		}
		return ev
	}

	d.logger.Debug().
		Int("sync_errors", syncErrors).
		Bool("fallback", fallback).
		Msg("uncorrectable NID")
	return Event{Kind: EventNIDFailure}
}

func (d *Detector) detected(det Detection) Event {
	det.DiscardedDibits = d.sinceFrameEnd - HeaderDibits
	if det.DiscardedDibits < 0 {
		det.DiscardedDibits = 0
	}

	d.previous = det.FrameType
	d.lastNAC = det.NAC
	d.synthesized = 0
	d.sinceFrameEnd = 0
	d.lossCounter = 0
	d.sinceDetection = 0
	d.fallbackAt = det.FrameType.FrameDibits()
	d.last = &det

	return Event{Kind: EventFrameDetected, Detection: det}
}
