package turbine

import (
	"context"
	"testing"
	"time"

	"github.com/norasector/turbine-p25/pkg/op25"
	"github.com/norasector/turbine-p25/pkg/op25/frame/p25"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tsbkPacket(channel int, valid bool, tsbk p25.TSBK) op25.OSWPacket {
	return op25.OSWPacket{
		SystemID:   channel,
		SystemType: op25.SystemTypeP25,
		Packet: &p25.Message{
			FrameType: p25.FrameTypeTSBK1,
			Valid:     valid,
			Payload:   tsbk,
		},
	}
}

var band = p25.IdentifierUpdate{Identifier: 1, Spacing: 12500, Base: 851006250}

func TestSiteManager(t *testing.T) {
	site := NewSiteManager(4)
	assert.Zero(t, site.Frequency(0x1005))

	assert.True(t, site.UpdateBand(band))
	assert.False(t, site.UpdateBand(band))
	assert.Equal(t, 851068750, site.Frequency(0x1005))
	assert.Zero(t, site.Frequency(0x2005))

	site.UpdateGroup(100, 5000, 851068750)
	tg := site.TalkGroupForFrequency(851068750)
	require.NotNil(t, tg)
	assert.Equal(t, 100, tg.ID)
	assert.Equal(t, 4, tg.SystemID)
	require.NotNil(t, site.TalkGroupForSourceID(5000))

	// an update without a source keeps the known one and moves the group
	site.UpdateGroup(100, 0, 851081250)
	tg = site.TalkGroupForID(100)
	require.NotNil(t, tg)
	assert.Equal(t, 5000, tg.SourceID)
	assert.Equal(t, 851081250, tg.Frequency)
	assert.Nil(t, site.TalkGroupForFrequency(851068750))

	site.UpdateGroup(50, 0, 0)
	groups := site.ActiveGroups()
	require.Len(t, groups, 2)
	assert.Equal(t, 50, groups[0].ID)
	assert.Equal(t, 100, groups[1].ID)

	site.purgeTime = 0
	time.Sleep(time.Millisecond)
	assert.Nil(t, site.TalkGroupForID(100))
	assert.Empty(t, site.ActiveGroups())
}

func TestSystemManager(t *testing.T) {
	sm := NewSystemManager(zerolog.Nop())

	sm.Receive() <- tsbkPacket(1, true, p25.TSBK{
		Opcode: p25.OpcodeIdentifierUpdate,
		Args:   [8]byte{0x13, 0x24, 0x48, 0x64, 0x0a, 0x25, 0x10, 0xa2},
	})
	sm.Receive() <- tsbkPacket(1, true, p25.TSBK{
		Opcode: p25.OpcodeGroupVoiceGrant,
		Args:   [8]byte{0, 0x10, 0x05, 0x4e, 0x21, 0x00, 0x12, 0x34},
	})
	sm.Receive() <- tsbkPacket(1, true, p25.TSBK{
		Opcode: p25.OpcodeGroupVoiceGrantUpdate,
		Args:   [8]byte{0x10, 0x06, 0x00, 0x65, 0x00, 0x00, 0x00, 0x00},
	})
	// ignored: failed CRC, and a different channel's site
	sm.Receive() <- tsbkPacket(1, false, p25.TSBK{
		Opcode: p25.OpcodeGroupVoiceGrant,
		Args:   [8]byte{0, 0x10, 0x07, 0x00, 0x99, 0x00, 0x00, 0x01},
	})
	sm.Receive() <- tsbkPacket(2, true, p25.TSBK{
		Opcode: p25.OpcodeGroupVoiceGrant,
		Args:   [8]byte{0, 0x10, 0x07, 0x00, 0x77, 0x00, 0x00, 0x01},
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sm.Start(ctx), context.Canceled)

	groups := sm.SiteForChannel(1).ActiveGroups()
	require.Len(t, groups, 2)
	assert.Equal(t, 0x65, groups[0].ID)
	assert.Equal(t, 851081250, groups[0].Frequency)
	assert.Equal(t, 0x4e21, groups[1].ID)
	assert.Equal(t, 0x1234, groups[1].SourceID)
	assert.Equal(t, 851068750, groups[1].Frequency)

	other := sm.SiteForChannel(2).ActiveGroups()
	require.Len(t, other, 1)
	assert.Zero(t, other[0].Frequency)
}
