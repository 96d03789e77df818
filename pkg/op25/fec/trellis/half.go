package trellis

import "math"

const halfRateStates = 4

// Rate 1/2 encoder: constellation point for (previous dibit, input dibit).
var halfRateEncoder = [halfRateStates][halfRateStates]uint8{
	{0, 15, 12, 3},
	{4, 11, 8, 7},
	{13, 2, 1, 14},
	{9, 6, 5, 10},
}

// halfRateSymbol is halfRateEncoder expressed as transmitted dibit pairs.
var halfRateSymbol [halfRateStates][halfRateStates]uint8

func initHalfRate() {
	for s := 0; s < halfRateStates; s++ {
		for in := 0; in < halfRateStates; in++ {
			halfRateSymbol[s][in] = pointToSymbol[halfRateEncoder[s][in]]
		}
	}
}

// EncodeHalfRate trellis codes 96 data bits into a 196 bit block in coded
// (not yet interleaved) symbol order.
func EncodeHalfRate(data []byte) []byte {
	out := make([]byte, BlockBits)
	var state uint8
	for k := 0; k < BlockSymbols; k++ {
		var in uint8
		if k < BlockSymbols-1 {
			in = (data[2*k]&1)<<1 | data[2*k+1]&1
		}
		putSymbol(out, k, halfRateSymbol[state][in])
		state = in
	}
	return out
}

// DecodeHalfRate runs a full four state Viterbi search over a deinterleaved
// block.  On return bits[:96] hold the decoded data and the remainder is
// cleared.  The result is the number of bit errors on the chosen path.
func DecodeHalfRate(bits []byte) (int, error) {
	if err := checkBlock(bits); err != nil {
		return 0, err
	}

	const unreachable = math.MaxInt32
	metrics := [halfRateStates]int{0, unreachable, unreachable, unreachable}
	var survivors [BlockSymbols][halfRateStates]uint8

	for k := 0; k < BlockSymbols; k++ {
		received := symbolAt(bits, k)
		next := [halfRateStates]int{unreachable, unreachable, unreachable, unreachable}
		for in := 0; in < halfRateStates; in++ {
			for s := 0; s < halfRateStates; s++ {
				if metrics[s] == unreachable {
					continue
				}
				m := metrics[s] + 4 - int(branchMetric[received][halfRateSymbol[s][in]])
				if m < next[in] {
					next[in] = m
					survivors[k][in] = uint8(s)
				}
			}
		}
		metrics = next
	}

	if metrics[0] == unreachable {
		return 0, ErrUncorrectable
	}

	// The encoder is flushed with a zero dibit, so the path ends in state 0.
	var dibits [BlockSymbols]uint8
	state := uint8(0)
	for k := BlockSymbols - 1; k >= 0; k-- {
		dibits[k] = state
		state = survivors[k][state]
	}

	for k := 0; k < BlockSymbols-1; k++ {
		bits[2*k] = (dibits[k] >> 1) & 1
		bits[2*k+1] = dibits[k] & 1
	}
	for i := HalfRateBits; i < BlockBits; i++ {
		bits[i] = 0
	}
	return metrics[0], nil
}
