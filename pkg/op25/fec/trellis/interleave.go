package trellis

// Transmitted symbol k carries coded symbol interleaveOrder[k].  Coded symbols
// are sent in four columns: 0,4,8..48 then 1,5..45 then 2,6..46 then 3,7..47.
var interleaveOrder [BlockSymbols]int

func init() {
	k := 0
	for column := 0; column < 4; column++ {
		for s := column; s < BlockSymbols; s += 4 {
			interleaveOrder[k] = s
			k++
		}
	}
}

// Deinterleave reorders a received 196 bit block into coded symbol order.
func Deinterleave(bits []byte) error {
	if err := checkBlock(bits); err != nil {
		return err
	}
	var coded [BlockSymbols]uint8
	for k := 0; k < BlockSymbols; k++ {
		coded[interleaveOrder[k]] = symbolAt(bits, k)
	}
	for s := 0; s < BlockSymbols; s++ {
		putSymbol(bits, s, coded[s])
	}
	return nil
}

// Interleave is the transmit side inverse of Deinterleave.
func Interleave(bits []byte) error {
	if err := checkBlock(bits); err != nil {
		return err
	}
	var sent [BlockSymbols]uint8
	for k := 0; k < BlockSymbols; k++ {
		sent[k] = symbolAt(bits, interleaveOrder[k])
	}
	for k := 0; k < BlockSymbols; k++ {
		putSymbol(bits, k, sent[k])
	}
	return nil
}
