// Package p25test builds bit exact P25 frames for tests.
package p25test

import (
	"github.com/norasector/turbine-p25/pkg/op25/crc"
	"github.com/norasector/turbine-p25/pkg/op25/fec/bch"
	"github.com/norasector/turbine-p25/pkg/op25/fec/trellis"
)

const (
	SyncPattern uint64 = 0x5575F5FF77FF
	SyncDibits         = 24
	// value written to every status symbol
	StatusDibit byte = 2

	statusPeriod = 36
	tsbkDataBits = 80
)

// IsStatusDibit reports whether frame dibit i carries a status symbol.
func IsStatusDibit(i int) bool {
	return i%statusPeriod == statusPeriod-1
}

// NIDBits is the transmitted NID: the BCH codeword high bit first followed by
// a zero parity bit.
func NIDBits(nac uint16, duid uint8) []byte {
	cw := bch.Encode(nac<<4 | uint16(duid))
	out := make([]byte, 0, 64)
	for n := 0; n < bch.N; n++ {
		out = append(out, cw[bch.N-1-n])
	}
	return append(out, 0)
}

func SyncBits() []byte {
	out := make([]byte, 0, 2*SyncDibits)
	for i := 0; i < 2*SyncDibits; i++ {
		out = append(out, byte(SyncPattern>>uint(2*SyncDibits-1-i))&1)
	}
	return out
}

// Frame lays out sync, NID and payload bits as dibits with status symbols
// inserted, padded to total dibits when total is non zero.
func Frame(nac uint16, duid uint8, payload []byte, total int) []byte {
	b := append(SyncBits(), NIDBits(nac, duid)...)
	b = append(b, payload...)

	out := make([]byte, 0, len(b)/2+len(b)/70+1)
	for i := 0; i < len(b); {
		if IsStatusDibit(len(out)) {
			out = append(out, StatusDibit)
			continue
		}
		out = append(out, b[i]<<1|b[i+1])
		i += 2
	}
	for len(out) < total {
		if IsStatusDibit(len(out)) {
			out = append(out, StatusDibit)
		} else {
			out = append(out, 0)
		}
	}
	return out
}

// PutUint writes v big endian into bits [start, end).
func PutUint(bits []byte, start, end int, v uint64) {
	for i := end - 1; i >= start; i-- {
		bits[i] = byte(v & 1)
		v >>= 1
	}
}

// HalfRateBlock trellis encodes and interleaves 96 data bits.
func HalfRateBlock(data []byte) []byte {
	coded := trellis.EncodeHalfRate(data)
	if err := trellis.Interleave(coded); err != nil {
		panic(err)
	}
	return coded
}

// TSBKBlock is an encoded trunking block with a standard (zero) MFID.
func TSBKBlock(last bool, opcode uint8, args uint64, badCRC bool) []byte {
	d := make([]byte, 96)
	if last {
		d[0] = 1
	}
	PutUint(d, 2, 8, uint64(opcode))
	PutUint(d, 16, 80, args)
	crc.WriteCCITT16(d, tsbkDataBits)
	if badCRC {
		d[95] ^= 1
	}
	return HalfRateBlock(d)
}

// TSBKFrame is a single block TSBK frame.
func TSBKFrame(nac uint16, opcode uint8, args uint64) []byte {
	return Frame(nac, 0x7, TSBKBlock(true, opcode, args, false), 0)
}

// Soft maps dibits to C4FM symbol levels.
func Soft(dibits []byte) []float32 {
	levels := [4]float32{1, 3, -1, -3}
	out := make([]float32, len(dibits))
	for i, d := range dibits {
		out[i] = levels[d&3]
	}
	return out
}
