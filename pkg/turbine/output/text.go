package output

import (
	"bufio"
	"context"
	"io"
	"time"

	"github.com/norasector/turbine-p25/pkg/op25"
	"github.com/rs/zerolog/log"
)

const (
	textBufferLength = 64
	flushInterval    = time.Second
)

// TextOutput writes one line per message.
type TextOutput struct {
	dest     io.Writer
	recvChan chan op25.OSWPacket
	interval time.Duration
}

func NewTextOutput(dest io.Writer) *TextOutput {
	return &TextOutput{
		dest:     dest,
		recvChan: make(chan op25.OSWPacket, textBufferLength),
		interval: flushInterval,
	}
}

func (s *TextOutput) Receive() chan<- op25.OSWPacket {
	return s.recvChan
}

func (s *TextOutput) Start(ctx context.Context) error {
	w := bufio.NewWriter(s.dest)
	tick := time.NewTicker(s.interval)
	defer tick.Stop()

	write := func(pkt op25.OSWPacket) error {
		line, err := formatLine(pkt)
		if err != nil {
			log.Warn().Err(err).Msg("skipping packet")
			return nil
		}
		_, err = w.WriteString(line)
		return err
	}

	for {
		select {
		case <-ctx.Done():
			// write out whatever was already handed to us
			for {
				select {
				case pkt := <-s.recvChan:
					if err := write(pkt); err != nil {
						return err
					}
					continue
				default:
				}
				break
			}
			if err := w.Flush(); err != nil {
				return err
			}
			return ctx.Err()

		case <-tick.C:
			if err := w.Flush(); err != nil {
				return err
			}

		case pkt := <-s.recvChan:
			if err := write(pkt); err != nil {
				return err
			}
		}
	}
}
