package turbine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/influxdata/influxdb-client-go/api"
	"github.com/norasector/turbine-p25/pkg/dsp/viz"
	"github.com/norasector/turbine-p25/pkg/op25"
	"github.com/norasector/turbine-p25/pkg/op25/frame/p25"
	"github.com/norasector/turbine-p25/pkg/turbine/status"
	"github.com/norasector/turbine-p25/pkg/util"
	"golang.org/x/sync/errgroup"
)

const packetBufferLength = 32

// Turbine decodes every configured channel and hands the messages to the
// outputs.
type Turbine struct {
	opts       Options
	writeAPI   api.WriteAPI
	channels   []*Channel
	packets    chan op25.OSWPacket
	scopes     *viz.Registry
	sm         *SystemManager
	status     *status.Server
	statusPort int
	logger     zerolog.Logger

	mu       sync.Mutex
	cancel   context.CancelFunc
	finished atomic.Bool
}

type TurbineOption func(t *Turbine) error

func WithInfluxDB(influxClient api.WriteAPI) TurbineOption {
	return func(t *Turbine) error {
		t.writeAPI = influxClient
		return nil
	}
}

// WithStatusServer serves metrics, channel stats and scope images on port.
func WithStatusServer(port int) TurbineOption {
	return func(t *Turbine) error {
		if port <= 0 || port > 65535 {
			return fmt.Errorf("invalid status server port %d", port)
		}
		t.statusPort = port
		return nil
	}
}

func WithLogger(logger zerolog.Logger) TurbineOption {
	return func(t *Turbine) error {
		t.logger = logger
		return nil
	}
}

func NewTurbine(options Options, opts ...TurbineOption) (*Turbine, error) {
	t := &Turbine{
		opts:     options,
		packets:  make(chan op25.OSWPacket, packetBufferLength),
		writeAPI: util.NopWriteAPI{}, // overwritten with option
		scopes:   viz.NewRegistry(),
		logger:   log.Logger,
	}

	for _, opt := range opts {
		if err := opt(t); err != nil {
			return nil, err
		}
	}

	if len(options.Inputs) == 0 {
		return nil, errors.New("must specify at least one input")
	}

	t.sm = NewSystemManager(t.logger)

	seen := make(map[int]struct{}, len(options.Inputs))
	for _, in := range options.Inputs {
		if _, ok := seen[in.ID]; ok {
			return nil, fmt.Errorf("duplicate channel id %d", in.ID)
		}
		seen[in.ID] = struct{}{}

		ch, err := NewChannel(t, in)
		if err != nil {
			return nil, err
		}
		t.channels = append(t.channels, ch)
	}

	if t.statusPort > 0 {
		t.status = status.NewServer(t.statusPort, t, t.scopes, t.logger)
	}

	return t, nil
}

// Stop ends decoding.  Devices are released when Start returns.
func (t *Turbine) Stop() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		t.cancel()
	}
	return nil
}

// Start runs until every input is exhausted (returning nil), Stop is called
// or a component fails.
func (t *Turbine) Start(ctx context.Context) error {
	t.mu.Lock()
	ctx, t.cancel = context.WithCancel(ctx)
	cancel := t.cancel
	t.mu.Unlock()
	defer cancel()

	defer func() {
		for _, ch := range t.channels {
			if err := ch.device.Stop(); err != nil {
				t.logger.Warn().Err(err).Int("channel", ch.ID).Msg("error stopping device")
			}
		}
	}()

	eg, ctx := errgroup.WithContext(ctx)

	sinks := make([]p25.Sink, 0, len(t.opts.Outputs)+1)
	sinks = append(sinks, t.sm)
	for _, output := range t.opts.Outputs {
		thisOutput := output
		sinks = append(sinks, thisOutput)
		eg.Go(func() error {
			return thisOutput.Start(ctx)
		})
	}
	eg.Go(func() error {
		return t.sm.Start(ctx)
	})

	if t.status != nil {
		eg.Go(func() error {
			return t.status.Run(ctx)
		})
	}

	eg.Go(func() error {
		return t.processMessages(ctx, sinks, cancel)
	})

	var running sync.WaitGroup
	for _, ch := range t.channels {
		thisChannel := ch
		running.Add(1)
		eg.Go(func() error {
			return thisChannel.device.Start(ctx, thisChannel.segments)
		})
		eg.Go(func() error {
			defer running.Done()
			return t.runChannel(ctx, thisChannel)
		})
	}
	eg.Go(func() error {
		running.Wait()
		close(t.packets)
		return nil
	})

	var freqs []int
	for _, ch := range t.channels {
		freqs = append(freqs, ch.Frequency)
	}
	ev := t.logger.Info().Int("channels", len(t.channels))
	if low, high, ok := util.FrequencyRange(freqs...); ok {
		ev = ev.Str("low_freq", op25.MHzToString(low)).Str("high_freq", op25.MHzToString(high))
	}
	ev.Msg("Starting")

	err := eg.Wait()
	if errors.Is(err, context.Canceled) && t.finished.Load() {
		return nil
	}
	return err
}

// processMessages runs the message processor until the channels are done,
// then shuts everything else down.
func (t *Turbine) processMessages(ctx context.Context, sinks []p25.Sink, done context.CancelFunc) error {
	proc := p25.NewProcessor(t.packets, sinks, t.writeAPI, t.logger)
	if err := proc.Start(ctx); err != nil {
		return err
	}
	t.finished.Store(true)
	t.logger.Info().Msg("all inputs decoded")
	done()
	return nil
}

// ChannelStats implements status.Source.
func (t *Turbine) ChannelStats() []status.ChannelStats {
	ret := make([]status.ChannelStats, 0, len(t.channels))
	for _, ch := range t.channels {
		quarterTurns, inverted := ch.correction.State()
		s := status.ChannelStats{
			ID:           ch.ID,
			Name:         ch.Name,
			Frequency:    op25.MHzToString(ch.Frequency),
			Format:       ch.Format,
			QuarterTurns: quarterTurns,
			Inverted:     inverted,
			Decoder:      ch.decoder.Stats(),
			ActiveGroups: t.sm.SiteForChannel(ch.ID).ActiveGroups(),
		}

		ch.mu.RLock()
		if !ch.lastSeen.IsZero() {
			s.LastFrameType = ch.last.FrameType.String()
			s.LastNAC = fmt.Sprintf("%03x", ch.last.NAC)
			s.LastSeen = ch.lastSeen
		}
		s.Level = ch.level
		ch.mu.RUnlock()

		ret = append(ret, s)
	}
	return ret
}

// Scopes is the registry of soft symbol plots.
func (t *Turbine) Scopes() *viz.Registry {
	return t.scopes
}
