package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
channels:
  - id: 1
    name: county control
    frequency: 851012500
    input: /tmp/control.dibits
  - id: 2
    frequency: 851262500
    input: /tmp/soft.f32
    format: float32
    max_sync_errors: 4
    invert: true
agc:
  alpha: 0.05
read_delay: 20ms
text_output: true
output_destinations:
  - host: localhost
    port: 9000
status_server:
  port: 8080
influxdb:
  host: http://localhost:8086
  organization: radio
  bucket: p25
`

func TestParse(t *testing.T) {
	c, err := Parse([]byte(sample))
	require.NoError(t, err)

	require.Len(t, c.Channels, 2)
	assert.Equal(t, Channel{
		ID:              1,
		Name:            "county control",
		Frequency:       851012500,
		Input:           "/tmp/control.dibits",
		Format:          FormatDibit,
		SymbolRate:      DefaultSymbolRate,
		MaxSyncErrors:   DefaultMaxSyncErrors,
		VoiceSyncErrors: DefaultVoiceSyncErrors,
	}, c.Channels[0])

	second := c.Channels[1]
	assert.Equal(t, "channel-2", second.Name)
	assert.Equal(t, FormatFloat32, second.Format)
	assert.Equal(t, 4, second.MaxSyncErrors)
	assert.True(t, second.Invert)

	assert.Equal(t, 0.05, c.AGC.Alpha)
	assert.Zero(t, c.AGC.Gain)
	assert.Equal(t, DefaultReadSize, c.ReadSize)
	assert.Equal(t, 20*time.Millisecond, c.ReadDelay)
	assert.True(t, c.TextOutput)
	assert.Equal(t, []OutputDestination{{Host: "localhost", Port: 9000}}, c.OutputDestinations)
	assert.Equal(t, 8080, c.StatusServer.Port)
	assert.Equal(t, "p25", c.InfluxDB.Bucket)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"no channels", "text_output: true"},
		{"missing input", "channels: [{id: 1}]"},
		{"bad format", "channels: [{id: 1, input: a, format: iq}]"},
		{"duplicate id", "channels: [{id: 1, input: a}, {id: 1, input: b}]"},
		{"threshold", "channels: [{id: 1, input: a, max_sync_errors: 30}]"},
		{"alpha", "channels: [{id: 1, input: a}]\nagc: {alpha: 2}"},
		{"destination", "channels: [{id: 1, input: a}]\noutput_destinations: [{host: x, port: 0}]"},
		{"yaml", "channels: ["},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p25.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, c.Channels, 2)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
