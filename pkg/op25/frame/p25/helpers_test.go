package p25

import (
	"math"
	"testing"

	"github.com/norasector/turbine-p25/pkg/op25/crc"
	"github.com/norasector/turbine-p25/pkg/op25/fec/trellis"
	"github.com/norasector/turbine-p25/pkg/op25/frame/p25/p25test"
	"github.com/stretchr/testify/require"
)

func nidBits(nac uint16, duid uint8) []byte {
	return p25test.NIDBits(nac, duid)
}

func syncBits() []byte {
	return p25test.SyncBits()
}

func buildFrame(nac uint16, duid uint8, payload []byte, total int) []byte {
	return p25test.Frame(nac, duid, payload, total)
}

func frameOf(t FrameType, nac uint16) []byte {
	return buildFrame(nac, uint8(t.DUID()), make([]byte, t.MessageBits()), t.FrameDibits())
}

func putUint(bits []byte, start, end int, v uint64) {
	p25test.PutUint(bits, start, end, v)
}

func halfRateBlock(data []byte) []byte {
	return p25test.HalfRateBlock(data)
}

func tsbkBlock(last bool, opcode uint8, args uint64, badCRC bool) []byte {
	return p25test.TSBKBlock(last, opcode, args, badCRC)
}

func pduHeaderBlock(confirmed bool, llid uint32, blocks int) []byte {
	d := make([]byte, 96)
	if confirmed {
		d[1] = 1
	}
	d[2] = 1
	putUint(d, 3, 8, 0x16)
	putUint(d, 10, 16, 0x3d)
	putUint(d, 24, 48, uint64(llid))
	putUint(d, 49, 56, uint64(blocks))
	crc.WriteCCITT16(d, pduHeaderDataBits)
	return halfRateBlock(d)
}

func dataBlock(fill byte) []byte {
	d := make([]byte, 96)
	for i := range d {
		d[i] = (fill >> uint(7-i%8)) & 1
	}
	return halfRateBlock(d)
}

func confirmedBlock(serial uint8, fill byte, badCRC bool) []byte {
	d := make([]byte, 144)
	putUint(d, 0, 7, uint64(serial))
	for i := 16; i < 144; i++ {
		d[i] = (fill >> uint(7-i%8)) & 1
	}
	crc.WriteConfirmedBlockCRC(d)
	if badCRC {
		d[10] ^= 1
	}
	coded := trellis.EncodeThreeQuarterRate(d)
	if err := trellis.Interleave(coded); err != nil {
		panic(err)
	}
	return coded
}

func concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func zeros(n int) []byte {
	return make([]byte, n)
}

// flipNIDBits inverts transmitted NID bits [from, to) of a frame.
func flipNIDBits(frame []byte, from, to int) []byte {
	out := append([]byte(nil), frame...)
	for n := from; n < to; n++ {
		pos := 2*SyncDibits + n
		if pos >= nidStatusBit {
			pos += 2
		}
		flipFrameBit(out, pos)
	}
	return out
}

func flipSyncBits(frame []byte, n int) []byte {
	out := append([]byte(nil), frame...)
	for i := 0; i < n; i++ {
		flipFrameBit(out, i)
	}
	return out
}

func flipFrameBit(frame []byte, pos int) {
	if pos%2 == 0 {
		frame[pos/2] ^= 2
	} else {
		frame[pos/2] ^= 1
	}
}

type collector struct {
	messages   []*Message
	detections []Detection
	syncLosses int
}

func (c *collector) HandleMessage(m *Message) {
	c.messages = append(c.messages, m)
}

func (c *collector) FrameDetected(d Detection) {
	c.detections = append(c.detections, d)
}

func (c *collector) SyncLost() {
	c.syncLosses++
}

func (c *collector) frameTypes() []FrameType {
	out := make([]FrameType, 0, len(c.messages))
	for _, m := range c.messages {
		out = append(out, m.FrameType)
	}
	return out
}

type fakeCorrector struct {
	corrections []float64
}

func (f *fakeCorrector) CorrectPhaseInversion(radians float64) {
	f.corrections = append(f.corrections, radians)
}

func newTestDecoder(t *testing.T, opts ...DecoderOption) (*Decoder, *collector) {
	t.Helper()
	c := &collector{}
	d := NewDecoder(c, append([]DecoderOption{WithEventHandler(c)}, opts...)...)
	require.NotNil(t, d)
	return d, c
}

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
