// Package crc implements the bit-serial checksums carried in P25 data blocks.
// Inputs are bit slices with one bit per byte.
package crc

const (
	ccittPoly uint16 = 0x1021
	crc9Poly  uint16 = 0x059
)

// CCITT16 computes the inverted CRC-CCITT used by trunking blocks and packet
// headers.
func CCITT16(bits []byte) uint16 {
	var reg uint16
	for _, b := range bits {
		fb := (reg>>15)&1 ^ uint16(b&1)
		reg <<= 1
		if fb == 1 {
			reg ^= ccittPoly
		}
	}
	return ^reg
}

// CheckCCITT16 verifies that the 16 bits following bits[:dataLen] match the
// checksum of bits[:dataLen].
func CheckCCITT16(bits []byte, dataLen int) bool {
	if len(bits) < dataLen+16 {
		return false
	}
	return CCITT16(bits[:dataLen]) == readUint16(bits[dataLen:dataLen+16])
}

// CRC9 computes the inverted 9 bit checksum of a confirmed data block.
func CRC9(bits []byte) uint16 {
	var reg uint16
	for _, b := range bits {
		fb := (reg>>8)&1 ^ uint16(b&1)
		reg = (reg << 1) & 0x1ff
		if fb == 1 {
			reg ^= crc9Poly
		}
	}
	return ^reg & 0x1ff
}

// CheckConfirmedBlock validates a 144 bit confirmed block laid out as a 7 bit
// serial number, 9 bit CRC and 128 data bits.
func CheckConfirmedBlock(block []byte) bool {
	if len(block) < 144 {
		return false
	}
	covered := make([]byte, 0, 135)
	covered = append(covered, block[:7]...)
	covered = append(covered, block[16:144]...)
	return CRC9(covered) == readUint16(block[7:16])
}

// WriteCCITT16 stores the checksum of bits[:dataLen] in the 16 bits after it.
func WriteCCITT16(bits []byte, dataLen int) {
	writeUint(bits[dataLen:dataLen+16], uint64(CCITT16(bits[:dataLen])))
}

// WriteConfirmedBlockCRC stores the CRC-9 of a confirmed block in bits 7-15.
func WriteConfirmedBlockCRC(block []byte) {
	covered := make([]byte, 0, 135)
	covered = append(covered, block[:7]...)
	covered = append(covered, block[16:144]...)
	writeUint(block[7:16], uint64(CRC9(covered)))
}

func readUint16(bits []byte) uint16 {
	var v uint16
	for _, b := range bits {
		v = (v << 1) | uint16(b&1)
	}
	return v
}

func writeUint(bits []byte, v uint64) {
	for i := len(bits) - 1; i >= 0; i-- {
		bits[i] = byte(v & 1)
		v >>= 1
	}
}
