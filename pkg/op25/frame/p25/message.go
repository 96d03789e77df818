package p25

import (
	"fmt"
	"time"

	"github.com/norasector/turbine-p25/pkg/op25/bits"
)

// Message is one completed frame, or one block of a multi block frame.
type Message struct {
	FrameType FrameType
	NAC       uint16
	// post FEC contents, truncated to the decoded length
	Bits *bits.Buffer
	// CRC (where the block carries one) passed and the NID was not
	// synthesized
	Valid bool
	// bit errors corrected so far in the frame, including sync and NID
	CorrectedBits int
	// position of the block within its frame, 0 for the first
	Block     int
	Payload   Payload
	Timestamp time.Time
}

func (m *Message) String() string {
	return fmt.Sprintf("%s nac=%03x valid=%t corrected=%d block=%d", m.FrameType, m.NAC, m.Valid, m.CorrectedBits, m.Block)
}

// Payload is the parsed form of a message.  Frames whose contents are out of
// this package's reach (voice, header and link control words) carry Raw.
type Payload interface {
	payload()
}

// TSBK is a trunking signalling block.
type TSBK struct {
	LastBlock bool
	Protected bool
	Opcode    uint8
	MFID      uint8
	Args      [8]byte
	CRC       uint16
}

// PDUHeader is the header block of a packet data unit.
type PDUHeader struct {
	Confirmed      bool
	Outbound       bool
	Format         uint8
	SAP            uint8
	MFID           uint8
	LLID           uint32
	BlocksToFollow int
	PadOctets      int
}

// DataBlock is a PDU data block.  Serial is only meaningful for confirmed
// blocks.
type DataBlock struct {
	Confirmed bool
	Serial    uint8
	Data      []byte
}

// Raw carries frames that are passed on undecoded.
type Raw struct {
	Data []byte
}

func (TSBK) payload()      {}
func (PDUHeader) payload() {}
func (DataBlock) payload() {}
func (Raw) payload()       {}

func parseTSBK(b *bits.Buffer) TSBK {
	t := TSBK{
		LastBlock: b.Get(0),
		Protected: b.Get(1),
		Opcode:    uint8(b.MustUint(2, 8)),
		MFID:      uint8(b.MustUint(8, 16)),
		CRC:       uint16(b.MustUint(80, 96)),
	}
	for i := range t.Args {
		t.Args[i] = uint8(b.MustUint(16+8*i, 24+8*i))
	}
	return t
}

func parsePDUHeader(b *bits.Buffer) PDUHeader {
	return PDUHeader{
		Confirmed:      b.Get(1),
		Outbound:       b.Get(2),
		Format:         uint8(b.MustUint(3, 8)),
		SAP:            uint8(b.MustUint(10, 16)),
		MFID:           uint8(b.MustUint(16, 24)),
		LLID:           uint32(b.MustUint(24, 48)),
		BlocksToFollow: int(b.MustUint(49, 56)),
		PadOctets:      int(b.MustUint(59, 64)),
	}
}

func parseDataBlock(b *bits.Buffer, confirmed bool) DataBlock {
	if !confirmed {
		return DataBlock{Data: b.Bytes()}
	}
	data := bits.NewBufferFromBits(b.Bits()[16:])
	return DataBlock{
		Confirmed: true,
		Serial:    uint8(b.MustUint(0, 7)),
		Data:      data.Bytes(),
	}
}
