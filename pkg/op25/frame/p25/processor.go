package p25

import (
	"context"
	"fmt"
	"strconv"

	influxdb2 "github.com/influxdata/influxdb-client-go"
	"github.com/influxdata/influxdb-client-go/api"
	"github.com/norasector/turbine-p25/pkg/op25"
	"github.com/norasector/turbine-p25/pkg/op25/frame"
	"github.com/rs/zerolog"
)

var (
	_ frame.Processor = (*Processor)(nil)
	_ frame.Assembler = (*Decoder)(nil)
)

// Sink receives processed packets.  Sends never block: a sink that is not
// keeping up misses packets.
type Sink interface {
	Receive() chan<- op25.OSWPacket
}

// Processor summarizes the messages of every channel, records metrics and
// hands the packets on to the sinks.  Start returns nil once packets is
// closed.
type Processor struct {
	packets  chan op25.OSWPacket
	sinks    []Sink
	writeAPI api.WriteAPI
	logger   zerolog.Logger
}

func NewProcessor(packets chan op25.OSWPacket, sinks []Sink, writeAPI api.WriteAPI, logger zerolog.Logger) *Processor {
	return &Processor{
		packets:  packets,
		sinks:    sinks,
		writeAPI: writeAPI,
		logger:   logger,
	}
}

func (p *Processor) Start(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case pkt, ok := <-p.packets:
			if !ok {
				return nil
			}
			msg, ok := pkt.Packet.(*Message)
			if !ok || pkt.SystemType != op25.SystemTypeP25 {
				return fmt.Errorf("unrecognized packet type %s", pkt.SystemType)
			}

			metrics := make(map[string]interface{})
			p.summarize(pkt.SystemID, msg, metrics)

			skipped := 0
			for _, sink := range p.sinks {
				select {
				case sink.Receive() <- pkt:
				default:
					skipped++
				}
			}
			metrics["skipped_outputs"] = skipped

			go p.writeAPI.WritePoint(influxdb2.NewPoint("p25.message.processed",
				map[string]string{
					"channel":    strconv.Itoa(pkt.SystemID),
					"frame_type": msg.FrameType.String(),
					"nac":        fmt.Sprintf("%03x", msg.NAC),
				},
				metrics, pkt.Timestamp))
		}
	}
}

func incMap(m map[string]interface{}, key string) {
	if v, ok := m[key].(int); ok {
		m[key] = v + 1
	} else {
		m[key] = 1
	}
}

func (p *Processor) summarize(channel int, msg *Message, metrics map[string]interface{}) {
	metrics["corrected_bits"] = msg.CorrectedBits
	if !msg.Valid {
		incMap(metrics, "invalid")
	}

	switch payload := msg.Payload.(type) {
	case TSBK:
		incMap(metrics, "tsbk")
		incMap(metrics, OpcodeName(payload.Opcode))
		if grant, ok := ParseGroupGrant(payload); ok {
			p.logger.Debug().
				Int("channel", channel).
				Uint16("nac", msg.NAC).
				Int("tgid", int(grant.Group)).
				Int("source_id", int(grant.Source)).
				Int("voice_channel", int(grant.Channel)).
				Msg("group grant")
			return
		}
		p.logger.Trace().
			Int("channel", channel).
			Uint16("nac", msg.NAC).
			Str("opcode", OpcodeName(payload.Opcode)).
			Int("mfid", int(payload.MFID)).
			Msg("tsbk")

	case PDUHeader:
		incMap(metrics, "pdu_header")
		p.logger.Debug().
			Int("channel", channel).
			Uint16("nac", msg.NAC).
			Bool("confirmed", payload.Confirmed).
			Int("format", int(payload.Format)).
			Int("sap", int(payload.SAP)).
			Uint32("llid", payload.LLID).
			Int("blocks", payload.BlocksToFollow).
			Msg("packet header")

	case DataBlock:
		incMap(metrics, "data_block")
		metrics["data_bytes"] = len(payload.Data)

	default:
		incMap(metrics, msg.FrameType.String())
		if msg.FrameType == FrameTypeTDU || msg.FrameType == FrameTypeTDULC {
			p.logger.Debug().
				Int("channel", channel).
				Uint16("nac", msg.NAC).
				Str("frame_type", msg.FrameType.String()).
				Msg("call terminated")
		}
	}
}
