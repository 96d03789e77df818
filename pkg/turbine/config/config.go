package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

const (
	FormatDibit   = "dibit"
	FormatFloat32 = "float32"
)

const (
	DefaultSymbolRate      = 4800
	DefaultMaxSyncErrors   = 6
	DefaultVoiceSyncErrors = 8
	DefaultReadSize        = 480
	DefaultReadDelay       = 100 * time.Millisecond
	DefaultAGCAlpha        = 0.01
)

type Config struct {
	Channels           []Channel           `yaml:"channels"`
	AGC                AGC                 `yaml:"agc"`
	ReadSize           int                 `yaml:"read_size"`
	ReadDelay          time.Duration       `yaml:"read_delay"`
	OutputDestinations []OutputDestination `yaml:"output_destinations"`
	TextOutput         bool                `yaml:"text_output"`
	StatusServer       struct {
		Port int `yaml:"port"`
	} `yaml:"status_server"`
	InfluxDB struct {
		Host         string `yaml:"host"`
		Organization string `yaml:"organization"`
		Bucket       string `yaml:"bucket"`
	} `yaml:"influxdb"`
}

type AGC struct {
	Alpha float64 `yaml:"alpha"`
	// target RMS of the soft symbols; 0 selects the C4FM reference
	Gain float64 `yaml:"gain"`
}

type OutputDestination struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Channel is one symbol stream to decode.
type Channel struct {
	ID              int    `yaml:"id"`
	Name            string `yaml:"name"`
	Frequency       int    `yaml:"frequency"`
	Input           string `yaml:"input"`
	Format          string `yaml:"format"`
	SymbolRate      int    `yaml:"symbol_rate"`
	MaxSyncErrors   int    `yaml:"max_sync_errors"`
	VoiceSyncErrors int    `yaml:"voice_sync_errors"`
	// the capture has reversed polarity
	Invert bool `yaml:"invert"`
}

// Load reads, defaults and validates a YAML config file.
func Load(path string) (*Config, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return Parse(contents)
}

func Parse(contents []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(contents, &c); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// ApplyDefaults fills in zero values.
func (c *Config) ApplyDefaults() {
	if c.ReadSize <= 0 {
		c.ReadSize = DefaultReadSize
	}
	if c.ReadDelay <= 0 {
		c.ReadDelay = DefaultReadDelay
	}
	if c.AGC.Alpha <= 0 {
		c.AGC.Alpha = DefaultAGCAlpha
	}
	for i := range c.Channels {
		ch := &c.Channels[i]
		if ch.Format == "" {
			ch.Format = FormatDibit
		}
		if ch.SymbolRate <= 0 {
			ch.SymbolRate = DefaultSymbolRate
		}
		if ch.MaxSyncErrors <= 0 {
			ch.MaxSyncErrors = DefaultMaxSyncErrors
		}
		if ch.VoiceSyncErrors <= 0 {
			ch.VoiceSyncErrors = DefaultVoiceSyncErrors
		}
		if ch.Name == "" {
			ch.Name = fmt.Sprintf("channel-%d", ch.ID)
		}
	}
}

func (c *Config) Validate() error {
	if len(c.Channels) == 0 {
		return errors.New("at least one channel is required")
	}
	if c.AGC.Alpha >= 1 {
		return fmt.Errorf("agc alpha %g out of range (0, 1)", c.AGC.Alpha)
	}

	ids := make(map[int]struct{}, len(c.Channels))
	for _, ch := range c.Channels {
		if _, ok := ids[ch.ID]; ok {
			return fmt.Errorf("duplicate channel id %d", ch.ID)
		}
		ids[ch.ID] = struct{}{}

		if ch.Input == "" {
			return fmt.Errorf("channel %d: input is required", ch.ID)
		}
		if ch.Format != FormatDibit && ch.Format != FormatFloat32 {
			return fmt.Errorf("channel %d: unknown format %q", ch.ID, ch.Format)
		}
		// the correlator compares 48 bits
		if ch.MaxSyncErrors >= 24 || ch.VoiceSyncErrors >= 24 {
			return fmt.Errorf("channel %d: sync error thresholds must be below 24", ch.ID)
		}
	}

	for _, dest := range c.OutputDestinations {
		if dest.Host == "" || dest.Port <= 0 || dest.Port > 65535 {
			return fmt.Errorf("invalid output destination %s:%d", dest.Host, dest.Port)
		}
	}
	return nil
}
