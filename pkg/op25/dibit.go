package op25

import "math"

// Dibit values as they come off a C4FM/CQPSK slicer.
const (
	DibitPlus1  byte = 0x0
	DibitPlus3  byte = 0x1
	DibitMinus1 byte = 0x2
	DibitMinus3 byte = 0x3
)

// Dibits in order of increasing CQPSK phase: +45, +135, -135 and -45 degrees.
var phaseOrder = [4]byte{DibitPlus1, DibitPlus3, DibitMinus3, DibitMinus1}

var phaseIndex = [4]int{0, 1, 3, 2}

// RotateDibit rotates a symbol by a number of quarter turns (90 degrees each,
// counter clockwise for positive values).
func RotateDibit(d byte, quarterTurns int) byte {
	q := ((phaseIndex[d&3]+quarterTurns)%4 + 4) % 4
	return phaseOrder[q]
}

// QuarterTurns converts a rotation in radians to the nearest whole number of
// quarter turns in the range [0, 4).
func QuarterTurns(radians float64) int {
	q := int(math.Round(radians / (math.Pi / 2)))
	return ((q % 4) + 4) % 4
}

// InvertDibit reverses the polarity of a symbol: +3 and -3 swap, as do +1 and
// -1.
func InvertDibit(d byte) byte {
	return (d & 3) ^ 0x2
}
