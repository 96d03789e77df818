package p25

import "fmt"

// TSBK opcodes, outbound (from the site).
const (
	OpcodeGroupVoiceGrant       uint8 = 0x00
	OpcodeGroupVoiceGrantUpdate uint8 = 0x02
	OpcodeGroupVoiceUpdateExp   uint8 = 0x03
	OpcodeUnitVoiceGrant        uint8 = 0x04
	OpcodeGroupAffiliation      uint8 = 0x28
	OpcodeUnitRegistration      uint8 = 0x2c
	OpcodeIdentifierUpdateVU    uint8 = 0x34
	OpcodeSecondaryControl      uint8 = 0x39
	OpcodeRFSSStatus            uint8 = 0x3a
	OpcodeNetworkStatus         uint8 = 0x3b
	OpcodeAdjacentStatus        uint8 = 0x3c
	OpcodeIdentifierUpdate      uint8 = 0x3d
)

var opcodeNames = map[uint8]string{
	OpcodeGroupVoiceGrant:       "group_voice_grant",
	OpcodeGroupVoiceGrantUpdate: "group_voice_grant_update",
	OpcodeGroupVoiceUpdateExp:   "group_voice_grant_update_explicit",
	OpcodeUnitVoiceGrant:        "unit_voice_grant",
	OpcodeGroupAffiliation:      "group_affiliation_response",
	OpcodeUnitRegistration:      "unit_registration_response",
	OpcodeIdentifierUpdateVU:    "identifier_update_vu",
	OpcodeSecondaryControl:      "secondary_control_channel",
	OpcodeRFSSStatus:            "rfss_status",
	OpcodeNetworkStatus:         "network_status",
	OpcodeAdjacentStatus:        "adjacent_status",
	OpcodeIdentifierUpdate:      "identifier_update",
}

// OpcodeName returns a short name for a standard TSBK opcode.
func OpcodeName(opcode uint8) string {
	if name, ok := opcodeNames[opcode]; ok {
		return name
	}
	return fmt.Sprintf("opcode_%02x", opcode)
}

// GroupGrant is the content of a group voice channel grant.
type GroupGrant struct {
	ServiceOptions uint8
	Channel        uint16
	Group          uint16
	Source         uint32
}

// ParseGroupGrant decodes the argument field of a standard group voice grant.
func ParseGroupGrant(t TSBK) (GroupGrant, bool) {
	if t.Opcode != OpcodeGroupVoiceGrant || t.MFID != 0 {
		return GroupGrant{}, false
	}
	a := t.Args
	return GroupGrant{
		ServiceOptions: a[0],
		Channel:        uint16(a[1])<<8 | uint16(a[2]),
		Group:          uint16(a[3])<<8 | uint16(a[4]),
		Source:         uint32(a[5])<<16 | uint32(a[6])<<8 | uint32(a[7]),
	}, true
}

// IdentifierUpdate describes a channel band: how a 16 bit channel field
// (4 bit identifier, 12 bit channel number) maps to a frequency.
type IdentifierUpdate struct {
	Identifier uint8
	Bandwidth  uint16
	// Hz, transmit relative to receive
	TxOffset int
	// Hz
	Spacing int
	// Hz
	Base int
}

// ParseIdentifierUpdate decodes a standard identifier update.
func ParseIdentifierUpdate(t TSBK) (IdentifierUpdate, bool) {
	if t.Opcode != OpcodeIdentifierUpdate || t.MFID != 0 {
		return IdentifierUpdate{}, false
	}
	var v uint64
	for _, b := range t.Args {
		v = v<<8 | uint64(b)
	}

	toff := int(v>>42) & 0x1ff
	offset := (toff & 0xff) * 250000
	if toff&0x100 == 0 {
		offset = -offset
	}

	return IdentifierUpdate{
		Identifier: uint8(v >> 60),
		Bandwidth:  uint16(v>>51) & 0x1ff,
		TxOffset:   offset,
		Spacing:    int(v>>32&0x3ff) * 125,
		Base:       int(v&0xffffffff) * 5,
	}, true
}

// Frequency returns the downlink frequency of a channel field, or false when
// the field belongs to another band.
func (u IdentifierUpdate) Frequency(channel uint16) (int, bool) {
	if uint8(channel>>12) != u.Identifier {
		return 0, false
	}
	return u.Base + int(channel&0xfff)*u.Spacing, true
}

// GroupGrantUpdate announces up to two calls in progress.
type GroupGrantUpdate struct {
	Channels [2]uint16
	Groups   [2]uint16
}

func ParseGroupGrantUpdate(t TSBK) (GroupGrantUpdate, bool) {
	if t.Opcode != OpcodeGroupVoiceGrantUpdate || t.MFID != 0 {
		return GroupGrantUpdate{}, false
	}
	a := t.Args
	return GroupGrantUpdate{
		Channels: [2]uint16{uint16(a[0])<<8 | uint16(a[1]), uint16(a[4])<<8 | uint16(a[5])},
		Groups:   [2]uint16{uint16(a[2])<<8 | uint16(a[3]), uint16(a[6])<<8 | uint16(a[7])},
	}, true
}
