// Package trellis implements the P25 rate 1/2 and rate 3/4 trellis codes used
// by trunking, packet header and packet data blocks.
//
// A coded block is 196 bits: 49 four bit constellation symbols (98 dibits).
// All functions work on bit slices holding one bit per byte.
package trellis

import (
	"errors"
	"fmt"
)

const (
	BlockBits    = 196
	BlockSymbols = 49

	HalfRateBits         = 96
	ThreeQuarterRateBits = 144
)

var (
	ErrBlockLength   = errors.New("trellis: block must be 196 bits")
	ErrUncorrectable = errors.New("trellis: no surviving path")
)

// symbolToPoint maps a received dibit pair (first dibit in the high bits) to
// its constellation point.
var symbolToPoint = [16]uint8{11, 12, 0, 7, 14, 9, 5, 2, 10, 13, 1, 6, 15, 8, 4, 3}

var pointToSymbol [16]uint8

// branchMetric[received][transmitted] is the number of matching bits between
// two dibit pairs: 4 for an exact match, 0 when every bit differs.
var branchMetric = [16][16]uint8{
	{4, 3, 3, 2, 3, 2, 2, 1, 3, 2, 2, 1, 2, 1, 1, 0},
	{3, 4, 2, 3, 2, 3, 1, 2, 2, 3, 1, 2, 1, 2, 0, 1},
	{3, 2, 4, 3, 2, 1, 3, 2, 2, 1, 3, 2, 1, 0, 2, 1},
	{2, 3, 3, 4, 1, 2, 2, 3, 1, 2, 2, 3, 0, 1, 1, 2},
	{3, 2, 2, 1, 4, 3, 3, 2, 2, 1, 1, 0, 3, 2, 2, 1},
	{2, 3, 1, 2, 3, 4, 2, 3, 1, 2, 0, 1, 2, 3, 1, 2},
	{2, 1, 3, 2, 3, 2, 4, 3, 1, 0, 2, 1, 2, 1, 3, 2},
	{1, 2, 2, 3, 2, 3, 3, 4, 0, 1, 1, 2, 1, 2, 2, 3},
	{3, 2, 2, 1, 2, 1, 1, 0, 4, 3, 3, 2, 3, 2, 2, 1},
	{2, 3, 1, 2, 1, 2, 0, 1, 3, 4, 2, 3, 2, 3, 1, 2},
	{2, 1, 3, 2, 1, 0, 2, 1, 3, 2, 4, 3, 2, 1, 3, 2},
	{1, 2, 2, 3, 0, 1, 1, 2, 2, 3, 3, 4, 1, 2, 2, 3},
	{2, 1, 1, 0, 3, 2, 2, 1, 3, 2, 2, 1, 4, 3, 3, 2},
	{1, 2, 0, 1, 2, 3, 1, 2, 2, 3, 1, 2, 3, 4, 2, 3},
	{1, 0, 2, 1, 2, 1, 3, 2, 2, 1, 3, 2, 3, 2, 4, 3},
	{0, 1, 1, 2, 1, 2, 2, 3, 1, 2, 2, 3, 2, 3, 3, 4},
}

func init() {
	for sym, point := range symbolToPoint {
		pointToSymbol[point] = uint8(sym)
	}
	initHalfRate()
	initThreeQuarterRate()
}

// symbolAt reads the k-th four bit symbol of a block.
func symbolAt(bits []byte, k int) uint8 {
	i := 4 * k
	return (bits[i]&1)<<3 | (bits[i+1]&1)<<2 | (bits[i+2]&1)<<1 | bits[i+3]&1
}

func putSymbol(bits []byte, k int, sym uint8) {
	i := 4 * k
	bits[i] = (sym >> 3) & 1
	bits[i+1] = (sym >> 2) & 1
	bits[i+2] = (sym >> 1) & 1
	bits[i+3] = sym & 1
}

func checkBlock(bits []byte) error {
	if len(bits) != BlockBits {
		return fmt.Errorf("%w: got %d", ErrBlockLength, len(bits))
	}
	return nil
}
