package status

import (
	"strconv"
	"time"

	"github.com/norasector/turbine-common/types"
	"github.com/norasector/turbine-p25/pkg/op25/frame/p25"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "p25"

// ChannelStats is a snapshot of one channel.
type ChannelStats struct {
	ID            int       `json:"id"`
	Name          string    `json:"name"`
	Frequency     string    `json:"frequency"`
	Format        string    `json:"format"`
	LastFrameType string    `json:"last_frame_type,omitempty"`
	LastNAC       string    `json:"last_nac,omitempty"`
	LastSeen      time.Time `json:"last_seen,omitempty"`
	QuarterTurns  int       `json:"quarter_turns"`
	Inverted      bool      `json:"inverted"`
	Level         float64   `json:"level,omitempty"`
	Decoder       p25.Stats `json:"decoder"`
	// groups with a call in progress
	ActiveGroups []types.TalkGroup `json:"active_groups,omitempty"`
}

// Source lists the channels being decoded.
type Source interface {
	ChannelStats() []ChannelStats
}

type counter struct {
	desc  *prometheus.Desc
	value func(p25.Stats) uint64
}

func newCounter(name, help string, value func(p25.Stats) uint64) counter {
	return counter{
		desc:  prometheus.NewDesc(prometheus.BuildFQName(namespace, "decoder", name), help, []string{"channel", "name"}, nil),
		value: value,
	}
}

// Collector exports decoder counters.  Values are read from the source at
// scrape time.
type Collector struct {
	source   Source
	counters []counter
	level    *prometheus.Desc
}

func NewCollector(source Source) *Collector {
	return &Collector{
		source: source,
		counters: []counter{
			newCounter("dibits_total", "Symbols received.", func(s p25.Stats) uint64 { return s.Dibits }),
			newCounter("frames_detected_total", "Frames found by the sync detector.", func(s p25.Stats) uint64 { return s.FramesDetected }),
			newCounter("frames_completed_total", "Frames fully reassembled.", func(s p25.Stats) uint64 { return s.FramesCompleted }),
			newCounter("frames_interrupted_total", "Frames abandoned for a new sync.", func(s p25.Stats) uint64 { return s.FramesInterrupted }),
			newCounter("sync_losses_total", "Sync loss events.", func(s p25.Stats) uint64 { return s.SyncLosses }),
			newCounter("nid_failures_total", "Syncs whose NID could not be corrected.", func(s p25.Stats) uint64 { return s.NIDFailures }),
			newCounter("phase_corrections_total", "Rotated sync patterns seen.", func(s p25.Stats) uint64 { return s.PhaseCorrections }),
			newCounter("fec_failures_total", "Blocks the trellis decoder rejected.", func(s p25.Stats) uint64 { return s.FECFailures }),
			newCounter("crc_failures_total", "Blocks with a bad CRC.", func(s p25.Stats) uint64 { return s.CRCFailures }),
			newCounter("messages_total", "Messages produced.", func(s p25.Stats) uint64 { return s.Messages }),
			newCounter("messages_dropped_total", "Invalid messages not forwarded.", func(s p25.Stats) uint64 { return s.MessagesDropped }),
			newCounter("corrected_bits_total", "Bit errors corrected.", func(s p25.Stats) uint64 { return s.CorrectedBits }),
			newCounter("discarded_dibits_total", "Symbols outside any frame.", func(s p25.Stats) uint64 { return s.DiscardedDibits }),
		},
		level: prometheus.NewDesc(prometheus.BuildFQName(namespace, "slicer", "level"), "Soft symbol decision level.", []string{"channel", "name"}, nil),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, ctr := range c.counters {
		ch <- ctr.desc
	}
	ch <- c.level
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, stats := range c.source.ChannelStats() {
		id := strconv.Itoa(stats.ID)
		for _, ctr := range c.counters {
			ch <- prometheus.MustNewConstMetric(ctr.desc, prometheus.CounterValue, float64(ctr.value(stats.Decoder)), id, stats.Name)
		}
		if stats.Level > 0 {
			ch <- prometheus.MustNewConstMetric(c.level, prometheus.GaugeValue, stats.Level, id, stats.Name)
		}
	}
}
