package util

import (
	"testing"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go"
	"github.com/stretchr/testify/assert"
)

func TestFrequencyRange(t *testing.T) {
	low, high, ok := FrequencyRange(851262500, 0, 851012500, 852000000)
	assert.True(t, ok)
	assert.Equal(t, 851012500, low)
	assert.Equal(t, 852000000, high)

	_, _, ok = FrequencyRange(0, 0)
	assert.False(t, ok)
	_, _, ok = FrequencyRange()
	assert.False(t, ok)
}

func TestFloat32SliceToFloat64(t *testing.T) {
	assert.Equal(t, []float64{1.5, -3, 0}, Float32SliceToFloat64([]float32{1.5, -3, 0}))
	assert.Empty(t, Float32SliceToFloat64(nil))
}

func TestTimeOperationMicroseconds(t *testing.T) {
	took := TimeOperationMicroseconds(func() { time.Sleep(2 * time.Millisecond) })
	assert.GreaterOrEqual(t, took, int64(2000))
}

func TestMockWriteAPI(t *testing.T) {
	m := &MockWriteAPI{}
	now := time.Now()
	m.WritePoint(influxdb2.NewPoint("a", nil, map[string]interface{}{"v": 1}, now))
	m.WritePoint(influxdb2.NewPoint("b", nil, map[string]interface{}{"v": 2}, now))
	m.WritePoint(influxdb2.NewPoint("a", nil, map[string]interface{}{"v": 3}, now))
	m.WriteRecord("c v=1")

	assert.Len(t, m.Points("a"), 2)
	assert.Len(t, m.Points(""), 3)
	assert.Empty(t, m.Points("missing"))
}
