package p25

import (
	"math"
	"math/bits"

	"github.com/norasector/turbine-p25/pkg/op25"
)

const (
	// SyncPattern is the 48 bit frame sync that starts every frame.
	SyncPattern uint64 = 0x5575f5ff77ff
	SyncDibits         = 24

	// NIDDibits covers the 64 NID bits plus the status symbol inside them.
	NIDDibits    = 33
	HeaderDibits = SyncDibits + NIDDibits

	// A status symbol is inserted after every 35 data symbols.
	statusPeriod = 36

	syncMask uint64 = 1<<(2*SyncDibits) - 1
)

// DefaultMaxSyncErrors is the strict correlator threshold and
// DefaultVoiceSyncErrors the tolerance applied inside a voice sequence.
const (
	DefaultMaxSyncErrors   = 6
	DefaultVoiceSyncErrors = 8
)

func isStatusDibit(frameDibit int) bool {
	return frameDibit%statusPeriod == statusPeriod-1
}

// correlator is a 48 bit shift register of the most recent dibits.
type correlator struct {
	reg   uint64
	count int
}

func (c *correlator) push(dibit byte) {
	c.reg = (c.reg<<2 | uint64(dibit&3)) & syncMask
	if c.count < SyncDibits {
		c.count++
	}
}

func (c *correlator) primed() bool {
	return c.count >= SyncDibits
}

func (c *correlator) reset() {
	c.reg, c.count = 0, 0
}

// errors is the Hamming distance between the register and pattern.
func (c *correlator) errors(pattern uint64) int {
	return bits.OnesCount64((c.reg ^ pattern) & syncMask)
}

// skewedSync is the sync as it arrives when the receiver's constellation is
// off by a fixed rotation.  correction is the rotation the symbol source needs
// to apply to undo it.  Reversed polarity is not a rotation and is configured
// per channel instead.
type skewedSync struct {
	pattern    uint64
	correction float64
}

func transformSync(f func(byte) byte) uint64 {
	var v uint64
	for i := SyncDibits - 1; i >= 0; i-- {
		d := byte(SyncPattern>>(2*uint(i))) & 3
		v = v<<2 | uint64(f(d))
	}
	return v
}

var skewedSyncs = []skewedSync{
	{pattern: transformSync(func(d byte) byte { return op25.RotateDibit(d, 1) }), correction: -math.Pi / 2},
	{pattern: transformSync(func(d byte) byte { return op25.RotateDibit(d, -1) }), correction: math.Pi / 2},
	{pattern: transformSync(func(d byte) byte { return op25.RotateDibit(d, 2) }), correction: math.Pi},
}
