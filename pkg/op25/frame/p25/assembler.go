package p25

import (
	"errors"
	"time"

	"github.com/norasector/turbine-p25/pkg/op25/bits"
	"github.com/norasector/turbine-p25/pkg/op25/crc"
	"github.com/norasector/turbine-p25/pkg/op25/fec/trellis"
	"github.com/rs/zerolog"
)

const (
	tsbkDataBits      = 80
	pduHeaderDataBits = 80
)

var errCRC = errors.New("p25: crc mismatch")

// Strictness selects the correlator threshold the detector should use.
type Strictness int

const (
	SyncStrict Strictness = iota
	// tolerate more sync errors while inside a voice sequence
	SyncLenient
)

// Status reports what a symbol did to the assembler.
type Status int

const (
	StatusIdle Status = iota
	StatusCollecting
	StatusBlockComplete
	StatusFrameComplete
	StatusFECFailure
	StatusCRCFailure
	StatusOverrun
)

func (s Status) String() string {
	switch s {
	case StatusCollecting:
		return "collecting"
	case StatusBlockComplete:
		return "block_complete"
	case StatusFrameComplete:
		return "frame_complete"
	case StatusFECFailure:
		return "fec_failure"
	case StatusCRCFailure:
		return "crc_failure"
	case StatusOverrun:
		return "overrun"
	default:
		return "idle"
	}
}

// Assembler collects the symbols of a detected frame into blocks, runs block
// FEC and CRC checks and emits one Message per completed frame or block.
//
// The assembler is driven from a single goroutine, one symbol at a time.
type Assembler struct {
	logger zerolog.Logger
	emit   func(*Message)

	state       FrameType
	active      bool
	nac         uint16
	synthesized bool

	// symbol index within the frame, counted from the first sync symbol
	frameDibit int
	buf        *bits.Buffer
	block      int
	corrected  int

	// PDU chain
	confirmed bool
	remaining int

	strictness Strictness
	viterbi    *trellis.ThreeQuarterRateDecoder
}

func NewAssembler(logger zerolog.Logger, emit func(*Message)) *Assembler {
	return &Assembler{
		logger:  logger,
		emit:    emit,
		state:   FrameTypeNID,
		buf:     bits.NewBuffer(0),
		viterbi: trellis.NewThreeQuarterRateDecoder(),
	}
}

func (a *Assembler) Active() bool {
	return a.active
}

// State is the frame type currently being assembled, FrameTypeNID when idle.
func (a *Assembler) State() FrameType {
	return a.state
}

// Strictness is the sync threshold the last completed frame asked for.
func (a *Assembler) Strictness() Strictness {
	return a.strictness
}

// Start begins assembling the frame described by a detection.  The NID has
// already been corrected, so collection starts with the symbol after it.
func (a *Assembler) Start(det Detection) {
	a.abandon()
	if det.FrameType.MessageBits() == 0 {
		return
	}
	a.state = det.FrameType
	a.active = true
	a.nac = det.NAC
	a.synthesized = det.Synthesized
	a.frameDibit = HeaderDibits
	a.corrected = det.BitErrors
	a.resize(a.state.MessageBits())
}

// Reset discards any partially assembled frame and returns to idle with the
// strict sync threshold.
func (a *Assembler) Reset() {
	a.abandon()
	a.strictness = SyncStrict
}

// abandon drops the frame in progress.  The strictness asked for by the last
// completed frame stays in force.
func (a *Assembler) abandon() {
	a.active = false
	a.state = FrameTypeNID
	a.block = 0
	a.corrected = 0
	a.confirmed = false
	a.remaining = 0
	a.synthesized = false
	a.buf.SetPointer(0)
	a.viterbi.Reset()
}

func (a *Assembler) resize(n int) {
	a.buf.Resize(n)
	_ = a.buf.Clear(0, n)
	a.buf.SetPointer(0)
}

// Receive adds one symbol to the frame in progress.  Status symbols are
// dropped by position.
func (a *Assembler) Receive(dibit byte) Status {
	if !a.active {
		return StatusIdle
	}

	frameDibit := a.frameDibit
	a.frameDibit++
	if isStatusDibit(frameDibit) {
		return StatusCollecting
	}

	if err := a.buf.AddDibit(dibit); err != nil {
		a.logger.Error().Err(err).
			Str("frame_type", a.state.String()).
			Int("size", a.buf.Size()).
			Msg("message buffer overrun")
		a.abandon()
		return StatusOverrun
	}
	if !a.buf.IsFull() {
		return StatusCollecting
	}
	return a.checkComplete()
}

func (a *Assembler) checkComplete() Status {
	switch a.state {
	case FrameTypeHDU, FrameTypeTDU, FrameTypeLDU1, FrameTypeLDU2, FrameTypeVSELP1, FrameTypeVSELP2:
		a.send(Raw{Data: a.buf.Bytes()}, !a.synthesized)
		a.strictness = SyncLenient
		return a.finish()

	case FrameTypeTDULC:
		a.send(Raw{Data: a.buf.Bytes()}, true)
		a.strictness = SyncStrict
		return a.finish()

	case FrameTypeTSBK1, FrameTypeTSBK2, FrameTypeTSBK3:
		return a.checkTSBK()

	case FrameTypePDU0:
		return a.checkPDUHeader()

	case FrameTypePDU1, FrameTypePDU2, FrameTypePDU3:
		return a.checkPDUBlock()

	case FrameTypePDUConfirmed:
		return a.checkConfirmedBlock()

	default:
		a.abandon()
		return StatusIdle
	}
}

func (a *Assembler) halfRate() (Status, bool) {
	block := a.buf.Bits()
	if err := trellis.Deinterleave(block); err != nil {
		return a.fail(StatusFECFailure, err), false
	}
	errs, err := trellis.DecodeHalfRate(block)
	if err != nil {
		return a.fail(StatusFECFailure, err), false
	}
	a.corrected += errs
	return StatusCollecting, true
}

func (a *Assembler) checkTSBK() Status {
	if st, ok := a.halfRate(); !ok {
		return st
	}
	if !crc.CheckCCITT16(a.buf.Bits(), tsbkDataBits) {
		return a.fail(StatusCRCFailure, errCRC)
	}
	a.buf.Resize(a.state.DecodedBits())

	tsbk := parseTSBK(a.buf)
	a.send(tsbk, true)
	if a.state.IsLastBlock(tsbk.LastBlock, 0) {
		a.strictness = SyncStrict
		return a.finish()
	}
	a.next(a.state.nextBlock(false))
	return StatusBlockComplete
}

func (a *Assembler) checkPDUHeader() Status {
	if st, ok := a.halfRate(); !ok {
		return st
	}
	if !crc.CheckCCITT16(a.buf.Bits(), pduHeaderDataBits) {
		return a.fail(StatusCRCFailure, errCRC)
	}
	a.buf.Resize(a.state.DecodedBits())

	header := parsePDUHeader(a.buf)
	a.confirmed = header.Confirmed
	a.remaining = header.BlocksToFollow
	a.send(header, true)
	if a.state.IsLastBlock(false, a.remaining) {
		a.strictness = SyncStrict
		return a.finish()
	}
	a.next(a.state.nextBlock(a.confirmed))
	return StatusBlockComplete
}

func (a *Assembler) checkPDUBlock() Status {
	if st, ok := a.halfRate(); !ok {
		return st
	}
	a.buf.Resize(a.state.DecodedBits())
	a.remaining--
	a.send(parseDataBlock(a.buf, false), true)
	return a.afterDataBlock()
}

func (a *Assembler) checkConfirmedBlock() Status {
	block := a.buf.Bits()
	if err := trellis.Deinterleave(block); err != nil {
		return a.fail(StatusFECFailure, err)
	}
	errs, err := a.viterbi.Decode(block)
	if err != nil {
		return a.fail(StatusFECFailure, err)
	}
	a.corrected += errs
	a.buf.Resize(a.state.DecodedBits())
	a.remaining--
	a.send(parseDataBlock(a.buf, true), crc.CheckConfirmedBlock(a.buf.Bits()))
	return a.afterDataBlock()
}

func (a *Assembler) afterDataBlock() Status {
	if a.state.IsLastBlock(false, a.remaining) {
		a.strictness = SyncStrict
		return a.finish()
	}
	a.next(a.state.nextBlock(a.confirmed))
	return StatusBlockComplete
}

func (a *Assembler) send(p Payload, valid bool) {
	msg := &Message{
		FrameType:     a.state,
		NAC:           a.nac,
		Bits:          a.buf.Copy(),
		Valid:         valid,
		CorrectedBits: a.corrected,
		Block:         a.block,
		Payload:       p,
		Timestamp:     time.Now().UTC(),
	}
	if a.emit != nil {
		a.emit(msg)
	}
}

// next moves on to the following block of the same frame.  The frame symbol
// counter keeps running so status symbols stay aligned.
func (a *Assembler) next(ft FrameType) {
	a.state = ft
	a.block++
	a.resize(ft.MessageBits())
}

func (a *Assembler) finish() Status {
	a.active = false
	a.state = FrameTypeNID
	return StatusFrameComplete
}

func (a *Assembler) fail(st Status, err error) Status {
	a.logger.Debug().Err(err).
		Str("frame_type", a.state.String()).
		Uint16("nac", a.nac).
		Int("block", a.block).
		Msg("abandoning frame")
	a.abandon()
	return st
}
