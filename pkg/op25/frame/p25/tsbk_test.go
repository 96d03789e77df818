package p25

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGroupGrant(t *testing.T) {
	grant, ok := ParseGroupGrant(TSBK{
		Opcode: OpcodeGroupVoiceGrant,
		Args:   [8]byte{0x80, 0x11, 0x23, 0x4e, 0x21, 0x00, 0x12, 0x34},
	})
	require.True(t, ok)
	assert.Equal(t, GroupGrant{ServiceOptions: 0x80, Channel: 0x1123, Group: 0x4e21, Source: 0x1234}, grant)

	_, ok = ParseGroupGrant(TSBK{Opcode: OpcodeGroupVoiceGrant, MFID: 0x90})
	assert.False(t, ok)
	_, ok = ParseGroupGrant(TSBK{Opcode: OpcodeRFSSStatus})
	assert.False(t, ok)
}

func TestOpcodeName(t *testing.T) {
	assert.Equal(t, "network_status", OpcodeName(OpcodeNetworkStatus))
	assert.Equal(t, "opcode_3f", OpcodeName(0x3f))
}

func TestParseIdentifierUpdate(t *testing.T) {
	tests := []struct {
		name    string
		args    [8]byte
		want    IdentifierUpdate
		channel uint16
		freq    int
	}{
		{
			name:    "800 MHz, positive offset",
			args:    [8]byte{0x13, 0x24, 0x48, 0x64, 0x0a, 0x25, 0x10, 0xa2},
			want:    IdentifierUpdate{Identifier: 1, Bandwidth: 0x64, TxOffset: 4500000, Spacing: 12500, Base: 851006250},
			channel: 0x1005,
			freq:    851068750,
		},
		{
			name:    "700 MHz, negative offset",
			args:    [8]byte{0x23, 0x20, 0x48, 0x32, 0x09, 0x15, 0x75, 0x62},
			want:    IdentifierUpdate{Identifier: 2, Bandwidth: 0x64, TxOffset: -4500000, Spacing: 6250, Base: 762006250},
			channel: 0x2010,
			freq:    762106250,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, ok := ParseIdentifierUpdate(TSBK{Opcode: OpcodeIdentifierUpdate, Args: tt.args})
			require.True(t, ok)
			assert.Equal(t, tt.want, u)

			freq, ok := u.Frequency(tt.channel)
			require.True(t, ok)
			assert.Equal(t, tt.freq, freq)

			_, ok = u.Frequency(tt.channel + 0x1000)
			assert.False(t, ok)
		})
	}

	_, ok := ParseIdentifierUpdate(TSBK{Opcode: OpcodeNetworkStatus})
	assert.False(t, ok)
}

func TestParseGroupGrantUpdate(t *testing.T) {
	u, ok := ParseGroupGrantUpdate(TSBK{
		Opcode: OpcodeGroupVoiceGrantUpdate,
		Args:   [8]byte{0x10, 0x05, 0x4e, 0x21, 0x10, 0x06, 0x00, 0x65},
	})
	require.True(t, ok)
	assert.Equal(t, [2]uint16{0x1005, 0x1006}, u.Channels)
	assert.Equal(t, [2]uint16{0x4e21, 0x0065}, u.Groups)

	_, ok = ParseGroupGrantUpdate(TSBK{Opcode: OpcodeGroupVoiceGrant})
	assert.False(t, ok)
}
