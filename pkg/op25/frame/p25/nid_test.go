package p25

import (
	"testing"

	"github.com/norasector/turbine-p25/pkg/op25/fec/bch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestExtractNID(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		nac := rapid.Uint16Range(0, 0xfff).Draw(t, "nac")
		duid := rapid.Uint8Range(0, 0xf).Draw(t, "duid")
		lead := rapid.IntRange(0, ringDibits-HeaderDibits).Draw(t, "lead")

		header := buildFrame(nac, duid, nil, 0)
		require.Len(t, header, HeaderDibits)

		// the region handed over may carry older symbols in front
		region := append(make([]byte, lead), header[SyncDibits:]...)
		codeword, err := extractNID(region)
		require.NoError(t, err)
		assert.Equal(t, bch.Encode(nac<<4|uint16(duid)), codeword)

		nid, err := decodeNID(codeword)
		require.NoError(t, err)
		assert.Equal(t, nac, nid.NAC)
		assert.Equal(t, duid, nid.DUID)
		assert.Zero(t, nid.BitErrors)
	})
}

func TestExtractNIDReference(t *testing.T) {
	// 64 buffered dibits: 31 older symbols, then the NID with every bit n
	// where n%3 == 0 set.  The status symbol (3) sits after NID bit 21 and
	// parity bit 63 is set.
	region := []byte{
		1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1,
		1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1,
		2, 1, 0, 2, 1, 0, 2, 1, 0, 2, 1,
		3,
		0, 2, 1, 0, 2, 1, 0, 2, 1, 0, 2, 1, 0, 2, 1, 0, 2, 1, 0, 2, 1,
	}
	require.Len(t, region, 64)

	// NID bits 62 down to 0
	want := []byte{
		0, 0, 1, 0, 0, 1, 0, 0, 1, 0, 0, 1, 0, 0, 1, 0, 0, 1, 0, 0, 1,
		0, 0, 1, 0, 0, 1, 0, 0, 1, 0, 0, 1, 0, 0, 1, 0, 0, 1, 0, 0, 1,
		0, 0, 1, 0, 0, 1, 0, 0, 1, 0, 0, 1, 0, 0, 1, 0, 0, 1, 0, 0, 1,
	}
	codeword, err := extractNID(region)
	require.NoError(t, err)
	assert.Equal(t, want, codeword)
}

func TestExtractNIDShortRegion(t *testing.T) {
	_, err := extractNID(make([]byte, NIDDibits-1))
	assert.Error(t, err)
}

func TestDecodeNIDCorrects(t *testing.T) {
	frame := flipNIDBits(buildFrame(0x293, 0x7, nil, 0), 3, 8)
	codeword, err := extractNID(frame[SyncDibits:])
	require.NoError(t, err)

	nid, err := decodeNID(codeword)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x293), nid.NAC)
	assert.Equal(t, FrameTypeTSBK1, nid.FrameType())
	assert.Equal(t, 5, nid.BitErrors)
}

func TestDecodeNIDUncorrectable(t *testing.T) {
	frame := flipNIDBits(buildFrame(0x293, 0xa, nil, 0), 43, 63)
	codeword, err := extractNID(frame[SyncDibits:])
	require.NoError(t, err)

	_, err = decodeNID(codeword)
	assert.Error(t, err)
}
