package output

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"net"
	"strconv"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go"
	"github.com/influxdata/influxdb-client-go/api"
	"github.com/norasector/turbine-p25/pkg/op25"
	"github.com/norasector/turbine-p25/pkg/turbine/config"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	receiveChannels = 8
	numSenders      = 2
)

// MessageUDPOutput sends each message as a protobuf Struct to every
// destination, prefixed with its little endian uint16 length.
type MessageUDPOutput struct {
	dests    []config.OutputDestination
	recvChan chan op25.OSWPacket
	metrics  api.WriteAPI
}

func NewMessageUDPOutput(dests []config.OutputDestination, metrics api.WriteAPI) *MessageUDPOutput {
	return &MessageUDPOutput{
		dests:    dests,
		recvChan: make(chan op25.OSWPacket, receiveChannels),
		metrics:  metrics,
	}
}

func (s *MessageUDPOutput) Receive() chan<- op25.OSWPacket {
	return s.recvChan
}

// Encode returns the framed wire form of a packet.
func Encode(pkt op25.OSWPacket) ([]byte, error) {
	fields, err := Fields(pkt)
	if err != nil {
		return nil, err
	}
	st, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("building struct: %w", err)
	}
	encoded, err := proto.Marshal(st)
	if err != nil {
		return nil, fmt.Errorf("marshaling protobuf: %w", err)
	}
	if len(encoded) > 0xffff {
		return nil, fmt.Errorf("encoded message too long: %d bytes", len(encoded))
	}

	var msgBuf bytes.Buffer
	if err := binary.Write(&msgBuf, binary.LittleEndian, uint16(len(encoded))); err != nil {
		return nil, err
	}
	msgBuf.Write(encoded)
	return msgBuf.Bytes(), nil
}

func (s *MessageUDPOutput) Start(ctx context.Context) error {
	eg, ctx := errgroup.WithContext(ctx)

	destAddrs := make([]*net.UDPAddr, 0, len(s.dests))
	for _, dest := range s.dests {

		ips, err := net.LookupIP(dest.Host)
		if err != nil {
			return err
		}
		if len(ips) == 0 {
			return fmt.Errorf("no IPs returned for %s", dest.Host)
		}

		destAddr := &net.UDPAddr{IP: ips[0], Port: dest.Port}
		destAddrs = append(destAddrs, destAddr)
		log.Info().IPAddr("dest_ip", destAddr.IP).Int("port", dest.Port).Msg("message output starting")
	}

	for i := 0; i < numSenders; i++ {
		eg.Go(func() error {

			conn, err := net.ListenUDP("udp", nil)
			if err != nil {
				return err
			}
			defer conn.Close()

			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case pkt := <-s.recvChan:

					msg, err := Encode(pkt)
					if err != nil {
						log.Warn().Err(err).Msg("error encoding message")
						continue
					}

					sent := 0
					var bytesWritten int
					for _, destAddr := range destAddrs {
						n, err := conn.WriteToUDP(msg, destAddr)
						if err != nil {
							log.Error().Err(err).Msg("error writing")
							continue
						}
						bytesWritten += n
						sent++
					}

					go s.metrics.WritePoint(influxdb2.NewPoint("p25.output.sent",
						map[string]string{
							"channel": strconv.Itoa(pkt.SystemID),
						},
						map[string]interface{}{
							"bytes_written":  bytesWritten,
							"encoded_length": len(msg),
							"sent":           sent,
							"dropped":        len(destAddrs) - sent,
						}, time.Now()))
				}
			}
		})
	}

	return eg.Wait()
}
