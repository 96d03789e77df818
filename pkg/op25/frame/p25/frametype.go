package p25

import "fmt"

// FrameType identifies the frame, or block within a multi block frame, that
// is being assembled.  FrameTypeNID is the idle state of the assembler.
type FrameType int

const (
	FrameTypeNID FrameType = iota
	FrameTypeHDU
	FrameTypeTDU
	FrameTypeLDU1
	FrameTypeVSELP1
	FrameTypeTSBK1
	FrameTypeTSBK2
	FrameTypeTSBK3
	FrameTypeVSELP2
	FrameTypeLDU2
	FrameTypePDU0
	FrameTypePDU1
	FrameTypePDU2
	FrameTypePDU3
	FrameTypePDUConfirmed
	FrameTypeTDULC
	FrameTypeUnknown
)

type lastBlockRule int

const (
	lastNever lastBlockRule = iota
	lastAlways
	// the block's last block flag decides
	lastFlag
	// the packet header's block count decides
	lastCount
)

type frameTypeInfo struct {
	name string
	duid int8
	// status stripped bits following the NID (or the previous block)
	messageBits int
	// bits left after FEC, 0 when the frame carries no block code
	decodedBits int
	// complete frame length including sync, NID and status symbols; 0 when
	// the length depends on the content
	frameDibits int
	last        lastBlockRule
	voice       bool
}

var frameTypes = [...]frameTypeInfo{
	FrameTypeNID:          {name: "NID", duid: -1},
	FrameTypeHDU:          {name: "HDU", duid: 0x0, messageBits: 658, frameDibits: 396, last: lastAlways},
	FrameTypeTDU:          {name: "TDU", duid: 0x3, messageBits: 28, frameDibits: 72, last: lastAlways},
	FrameTypeLDU1:         {name: "LDU1", duid: 0x5, messageBits: 1568, frameDibits: 864, last: lastAlways, voice: true},
	FrameTypeVSELP1:       {name: "VSELP1", duid: 0x6, messageBits: 1568, frameDibits: 864, last: lastAlways, voice: true},
	FrameTypeTSBK1:        {name: "TSBK1", duid: 0x7, messageBits: 196, decodedBits: 96, last: lastFlag},
	FrameTypeTSBK2:        {name: "TSBK2", duid: -1, messageBits: 196, decodedBits: 96, last: lastFlag},
	FrameTypeTSBK3:        {name: "TSBK3", duid: -1, messageBits: 196, decodedBits: 96, last: lastAlways},
	FrameTypeVSELP2:       {name: "VSELP2", duid: 0x9, messageBits: 1568, frameDibits: 864, last: lastAlways, voice: true},
	FrameTypeLDU2:         {name: "LDU2", duid: 0xa, messageBits: 1568, frameDibits: 864, last: lastAlways, voice: true},
	FrameTypePDU0:         {name: "PDU0", duid: 0xc, messageBits: 196, decodedBits: 96, last: lastCount},
	FrameTypePDU1:         {name: "PDU1", duid: -1, messageBits: 196, decodedBits: 96, last: lastCount},
	FrameTypePDU2:         {name: "PDU2", duid: -1, messageBits: 196, decodedBits: 96, last: lastCount},
	FrameTypePDU3:         {name: "PDU3", duid: -1, messageBits: 196, decodedBits: 96, last: lastCount},
	FrameTypePDUConfirmed: {name: "PDU_CONFIRMED", duid: -1, messageBits: 196, decodedBits: 144, last: lastCount},
	FrameTypeTDULC:        {name: "TDULC", duid: 0xf, messageBits: 308, frameDibits: 216, last: lastAlways},
	FrameTypeUnknown:      {name: "UNKNOWN", duid: -1},
}

var duidToFrameType = func() [16]FrameType {
	var out [16]FrameType
	for i := range out {
		out[i] = FrameTypeUnknown
	}
	for ft, info := range frameTypes {
		if info.duid >= 0 {
			out[info.duid] = FrameType(ft)
		}
	}
	return out
}()

// FrameTypeFromDUID maps a 4 bit data unit ID to the first frame type it
// starts.  Unassigned IDs map to FrameTypeUnknown.
func FrameTypeFromDUID(duid uint8) FrameType {
	return duidToFrameType[duid&0xf]
}

func (f FrameType) info() frameTypeInfo {
	if f < 0 || int(f) >= len(frameTypes) {
		return frameTypes[FrameTypeUnknown]
	}
	return frameTypes[f]
}

func (f FrameType) String() string {
	if f < 0 || int(f) >= len(frameTypes) {
		return fmt.Sprintf("FrameType(%d)", int(f))
	}
	return frameTypes[f].name
}

// DUID returns the data unit ID that announces this frame type, or -1 for
// continuation blocks and the pseudo types.
func (f FrameType) DUID() int {
	return int(f.info().duid)
}

// MessageBits is the size of the bit buffer used to assemble the frame.
func (f FrameType) MessageBits() int {
	return f.info().messageBits
}

// DecodedBits is the length a block is truncated to after FEC.
func (f FrameType) DecodedBits() int {
	if d := f.info().decodedBits; d > 0 {
		return d
	}
	return f.info().messageBits
}

// FrameDibits is the full on-air length of fixed length frames, 0 otherwise.
func (f FrameType) FrameDibits() int {
	return f.info().frameDibits
}

func (f FrameType) IsVoice() bool {
	return f.info().voice
}

// IsTrellisCoded reports whether the frame is a 196 bit trellis coded block.
func (f FrameType) IsTrellisCoded() bool {
	return f.info().decodedBits > 0
}

// IsLastBlock applies the frame type's last block rule.  flag is the block's
// own last block indication and remaining the packet blocks still expected.
func (f FrameType) IsLastBlock(flag bool, remaining int) bool {
	switch f.info().last {
	case lastAlways:
		return true
	case lastFlag:
		return flag
	case lastCount:
		return remaining <= 0
	default:
		return false
	}
}

// companion returns the voice frame that normally follows f.
func (f FrameType) companion() (FrameType, bool) {
	switch f {
	case FrameTypeLDU1:
		return FrameTypeLDU2, true
	case FrameTypeLDU2:
		return FrameTypeLDU1, true
	default:
		return FrameTypeUnknown, false
	}
}

// nextBlock is the frame type used for the block after f in a multi block
// frame.
func (f FrameType) nextBlock(confirmed bool) FrameType {
	switch f {
	case FrameTypeTSBK1:
		return FrameTypeTSBK2
	case FrameTypeTSBK2:
		return FrameTypeTSBK3
	case FrameTypePDU0:
		if confirmed {
			return FrameTypePDUConfirmed
		}
		return FrameTypePDU1
	case FrameTypePDU1:
		return FrameTypePDU2
	case FrameTypePDU2, FrameTypePDU3:
		return FrameTypePDU3
	case FrameTypePDUConfirmed:
		return FrameTypePDUConfirmed
	default:
		return FrameTypeNID
	}
}
