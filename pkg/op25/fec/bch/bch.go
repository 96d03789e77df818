// Package bch implements the BCH(63,16,23) code protecting the P25 network
// identifier.  It corrects up to 11 bit errors per codeword.
//
// Codewords are bit slices (one bit per byte) indexed by polynomial degree:
// codeword[i] is the coefficient of x^i.  The 16 information bits occupy
// degrees 47-62 with the most significant information bit at degree 62.
package bch

import (
	"errors"
	"fmt"
)

const (
	N = 63
	K = 16
	T = 11

	parityBits = N - K

	// generator polynomial, octal 6331 1413 6723 5453
	generator uint64 = 06331141367235453

	// x^6 + x + 1
	fieldPoly = 0x43
	fieldSize = 64
	fieldMax  = fieldSize - 1
)

var ErrUncorrectable = errors.New("bch: too many errors to correct")

var (
	gfExp [2 * fieldMax]uint8
	gfLog [fieldSize]int
)

func init() {
	x := 1
	for i := 0; i < fieldMax; i++ {
		gfExp[i] = uint8(x)
		gfLog[x] = i
		x <<= 1
		if x&fieldSize != 0 {
			x ^= fieldPoly
		}
	}
	for i := fieldMax; i < len(gfExp); i++ {
		gfExp[i] = gfExp[i-fieldMax]
	}
}

func gfMul(a, b uint8) uint8 {
	if a == 0 || b == 0 {
		return 0
	}
	return gfExp[gfLog[a]+gfLog[b]]
}

func gfInv(a uint8) uint8 {
	return gfExp[(fieldMax-gfLog[a])%fieldMax]
}

// Encode produces the systematic 63 bit codeword for 16 information bits.
func Encode(info uint16) []byte {
	reg := uint64(info) << parityBits
	for i := N - 1; i >= parityBits; i-- {
		if reg&(1<<uint(i)) != 0 {
			reg ^= generator << uint(i-parityBits)
		}
	}
	cw := uint64(info)<<parityBits | reg

	out := make([]byte, N)
	for i := 0; i < N; i++ {
		out[i] = byte((cw >> uint(i)) & 1)
	}
	return out
}

// Info extracts the 16 information bits from a (corrected) codeword.
func Info(codeword []byte) uint16 {
	var v uint16
	for i := N - 1; i >= parityBits; i-- {
		v = (v << 1) | uint16(codeword[i]&1)
	}
	return v
}

// Decode corrects a copy of the codeword and returns it with the number of
// bit errors that were fixed.  A 64th bit, if present, is ignored.
func Decode(codeword []byte) ([]byte, int, error) {
	if len(codeword) != N && len(codeword) != N+1 {
		return nil, 0, fmt.Errorf("bch: codeword length %d, expected %d or %d", len(codeword), N, N+1)
	}

	cw := make([]byte, N)
	for i := 0; i < N; i++ {
		cw[i] = codeword[i] & 1
	}

	var syndromes [2*T + 1]uint8
	clean := true
	for j := 1; j <= 2*T; j++ {
		var s uint8
		for i := 0; i < N; i++ {
			if cw[i] == 1 {
				s ^= gfExp[(i*j)%fieldMax]
			}
		}
		syndromes[j] = s
		if s != 0 {
			clean = false
		}
	}
	if clean {
		return cw, 0, nil
	}

	locator, degree := berlekampMassey(&syndromes)
	if degree > T {
		return nil, 0, ErrUncorrectable
	}

	// Chien search: an error at position i makes the locator vanish at alpha^-i.
	positions := make([]int, 0, degree)
	for i := 0; i < N; i++ {
		var sum uint8
		for k := 0; k <= degree; k++ {
			if locator[k] != 0 {
				sum ^= gfExp[(gfLog[locator[k]]+k*(fieldMax-i))%fieldMax]
			}
		}
		if sum == 0 {
			positions = append(positions, i)
		}
	}
	if len(positions) != degree {
		return nil, 0, ErrUncorrectable
	}

	for _, p := range positions {
		cw[p] ^= 1
	}
	return cw, degree, nil
}

func berlekampMassey(s *[2*T + 1]uint8) ([2*T + 2]uint8, int) {
	var c, b [2*T + 2]uint8
	c[0], b[0] = 1, 1
	length, shift := 0, 1
	var last uint8 = 1

	for n := 0; n < 2*T; n++ {
		d := s[n+1]
		for i := 1; i <= length; i++ {
			d ^= gfMul(c[i], s[n+1-i])
		}

		if d == 0 {
			shift++
			continue
		}

		coef := gfMul(d, gfInv(last))
		if 2*length <= n {
			prev := c
			for i := shift; i < len(c); i++ {
				c[i] ^= gfMul(coef, b[i-shift])
			}
			length = n + 1 - length
			b = prev
			last = d
			shift = 1
		} else {
			for i := shift; i < len(c); i++ {
				c[i] ^= gfMul(coef, b[i-shift])
			}
			shift++
		}
	}
	return c, length
}
