package turbine

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go"
	"github.com/norasector/turbine-common/types"
	"github.com/norasector/turbine-p25/pkg/dsp/agc/rmsagc"
	"github.com/norasector/turbine-p25/pkg/dsp/processor"
	"github.com/norasector/turbine-p25/pkg/dsp/viz"
	"github.com/norasector/turbine-p25/pkg/op25"
	"github.com/norasector/turbine-p25/pkg/op25/frame/p25"
	"github.com/norasector/turbine-p25/pkg/op25/slicer"
	"github.com/norasector/turbine-p25/pkg/turbine/config"
	"github.com/norasector/turbine-p25/pkg/turbine/device"
	"github.com/norasector/turbine-p25/pkg/util"
	"github.com/rs/zerolog"
)

const segmentBufferLength = 4

// Channel decodes one symbol stream: soft symbols go through gain control
// and the slicer, sliced symbols through the phase corrector, and both end
// in the channel's decoder.
type Channel struct {
	config.Channel

	device     device.Device
	segments   chan device.Segment
	proc       *processor.Processor
	decoder    *p25.Decoder
	correction *slicer.PhaseCorrection
	slicer     *slicer.DibitSlicer
	logger     zerolog.Logger

	// filled by the decoder during Receive, drained after every segment
	pending []*p25.Message

	mu       sync.RWMutex
	last     p25.Detection
	lastSeen time.Time
	level    float64
}

func NewChannel(t *Turbine, in Input) (*Channel, error) {
	if in.Device == nil {
		return nil, fmt.Errorf("channel %d: no device", in.ID)
	}
	if rate := in.Device.SymbolRate(); rate != in.SymbolRate {
		return nil, fmt.Errorf("channel %d: device symbol rate %d does not match %d", in.ID, rate, in.SymbolRate)
	}

	ch := &Channel{
		Channel:    in.Channel,
		device:     in.Device,
		segments:   make(chan device.Segment, segmentBufferLength),
		correction: slicer.NewPhaseCorrection(in.Invert),
		logger:     t.logger.With().Int("channel", in.ID).Logger(),
	}

	ch.proc = processor.NewProcessor(strconv.Itoa(in.ID), "Soft Symbols", t.scopes)
	switch in.Format {
	case config.FormatFloat32:
		ch.slicer = slicer.NewDibitSlicer(ch.correction)
		ch.level = ch.slicer.Level()

		ch.proc.AddBlock(processor.NewDSPWorkerFF(
			"baseband_amp",
			"Baseband Amp (RMS AGC)",
			in.SymbolRate,
			in.SymbolRate,
			rmsagc.NewRMSAGC(t.opts.AGC.Alpha, t.opts.AGC.Gain),
			processor.WithPlotOptions([]viz.PlotOptions{viz.WithLevels(-2, 0, 2)}),
		))
		ch.proc.AddBlock(processor.NewDSPWorkerFB(
			"dibit_slicer",
			"Dibit Slicer",
			in.SymbolRate,
			in.SymbolRate,
			ch.slicer,
		))

	case config.FormatDibit:
		ch.proc.AddBlock(processor.NewDSPWorkerBB(
			"phase_correction",
			"Phase Correction",
			in.SymbolRate,
			in.SymbolRate,
			slicer.NewRotator(ch.correction),
		))

	default:
		return nil, fmt.Errorf("channel %d: unknown format %q", in.ID, in.Format)
	}

	if err := ch.proc.Initialize(); err != nil {
		return nil, err
	}

	ch.decoder = p25.NewDecoder(p25.MessageHandlerFunc(ch.queue),
		p25.WithLogger(ch.logger),
		p25.WithPhaseCorrector(ch.correction),
		p25.WithSyncErrors(in.MaxSyncErrors, in.VoiceSyncErrors),
		p25.WithEventHandler(ch),
	)

	t.logger.Info().
		Int("channel", in.ID).
		Str("name", in.Name).
		Str("frequency", op25.MHzToString(in.Frequency)).
		Str("format", in.Format).
		Int("symbol_rate", in.SymbolRate).
		Bool("invert", in.Invert).
		Msg("initializing channel")

	return ch, nil
}

func (ch *Channel) queue(m *p25.Message) {
	ch.pending = append(ch.pending, m)
}

func (ch *Channel) FrameDetected(det p25.Detection) {
	ch.mu.Lock()
	ch.last = det
	ch.lastSeen = time.Now()
	ch.mu.Unlock()
}

func (ch *Channel) SyncLost() {
	ch.logger.Debug().Msg("no sync")
}

// Decoder exposes the channel's decoder.
func (ch *Channel) Decoder() *p25.Decoder {
	return ch.decoder
}

func (t *Turbine) runChannel(ctx context.Context, ch *Channel) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case seg, ok := <-ch.segments:
			if !ok {
				ch.logger.Info().
					Uint64("messages", ch.decoder.Stats().Messages).
					Msg("input exhausted")
				return nil
			}
			if err := t.processChannel(ctx, ch, seg); err != nil {
				return err
			}
		}
	}
}

func (t *Turbine) processChannel(ctx context.Context, ch *Channel, seg device.Segment) error {
	start := time.Now()
	metrics := map[string]interface{}{
		"symbols": seg.Len(),
	}

	defer func() {

		metrics["duration"] = time.Since(start).Microseconds()

		go t.writeAPI.WritePoint(influxdb2.NewPoint("p25.channel.processed",
			map[string]string{
				"channel":   strconv.Itoa(ch.ID),
				"frequency": op25.MHzToString(ch.Frequency),
				"format":    ch.Format,
			},
			metrics, start))
	}()

	var sliced *types.SegmentBinaryBytes
	var err error
	switch {
	case seg.Float != nil && ch.Format == config.FormatFloat32:
		sliced, err = ch.proc.ProcessFloatToDibits(seg.Float, metrics)
	case seg.Dibits != nil && ch.Format == config.FormatDibit:
		sliced, err = ch.proc.ProcessDibits(seg.Dibits, metrics)
	default:
		return fmt.Errorf("channel %d: segment does not match format %s", ch.ID, ch.Format)
	}
	if err != nil {
		return err
	}

	before := ch.decoder.Stats()
	metrics["decoder_duration"] = util.TimeOperationMicroseconds(func() {
		ch.decoder.Receive(sliced.Data)
	})
	after := ch.decoder.Stats()
	metrics["frames_detected"] = int64(after.FramesDetected - before.FramesDetected)
	metrics["messages"] = int64(after.Messages - before.Messages)
	metrics["corrected_bits"] = int64(after.CorrectedBits - before.CorrectedBits)

	if ch.slicer != nil {
		ch.mu.Lock()
		ch.level = ch.slicer.Level()
		ch.mu.Unlock()
		metrics["level"] = ch.level
	}

	pending := ch.pending
	ch.pending = nil
	for _, m := range pending {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case t.packets <- op25.OSWPacket{
			SystemID:   ch.ID,
			SystemType: op25.SystemTypeP25,
			Packet:     m,
			Timestamp:  m.Timestamp,
		}:
		}
	}

	return nil
}
