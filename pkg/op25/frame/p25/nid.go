package p25

import (
	"fmt"

	"github.com/norasector/turbine-p25/pkg/op25/fec/bch"
)

const (
	// frame bit positions of the NID, counted from the first sync bit
	nidFirstBit = 2 * SyncDibits
	nidLastBit  = 2*HeaderDibits - 1
	// the status symbol inside the NID
	nidStatusBit = 2 * (statusPeriod - 1)
)

// NID is a corrected network identifier.
type NID struct {
	NAC       uint16
	DUID      uint8
	BitErrors int
}

func (n NID) FrameType() FrameType {
	return FrameTypeFromDUID(n.DUID)
}

// extractNID builds the 63 bit BCH codeword from the NID region of the
// stream: the newest NIDDibits dibits, oldest first.  Bits are collected from
// the newest received bit backwards with the status symbol skipped, which
// leaves the parity bit first.  It is dropped, so codeword[i] is the NID bit
// transmitted 62-i bits after the start of the NID.
func extractNID(region []byte) ([]byte, error) {
	if len(region) < NIDDibits {
		return nil, fmt.Errorf("nid: need %d dibits, got %d", NIDDibits, len(region))
	}
	region = region[len(region)-NIDDibits:]

	codeword := make([]byte, 0, bch.N+1)
	for bit := nidLastBit; bit >= nidFirstBit; bit-- {
		if bit == nidStatusBit || bit == nidStatusBit+1 {
			continue
		}
		d := region[bit/2-SyncDibits]
		if bit%2 == 0 {
			codeword = append(codeword, (d>>1)&1)
		} else {
			codeword = append(codeword, d&1)
		}
	}
	return codeword[1:], nil
}

// decodeNID corrects an extracted codeword and splits it into its fields.
func decodeNID(codeword []byte) (NID, error) {
	corrected, errs, err := bch.Decode(codeword)
	if err != nil {
		return NID{}, err
	}
	info := bch.Info(corrected)
	return NID{
		NAC:       info >> 4,
		DUID:      uint8(info & 0xf),
		BitErrors: errs,
	}, nil
}
