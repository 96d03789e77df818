package util

import (
	"sync"

	"github.com/influxdata/influxdb-client-go/api/write"
)

// MockWriteAPI is an api.WriteAPI that keeps every point in memory.
type MockWriteAPI struct {
	mu     sync.Mutex
	points []*write.Point
	lines  []string
}

func (m *MockWriteAPI) WriteRecord(line string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lines = append(m.lines, line)
}

func (m *MockWriteAPI) WritePoint(point *write.Point) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.points = append(m.points, point)
}

func (m *MockWriteAPI) Flush() {}

func (m *MockWriteAPI) Close() {}

func (m *MockWriteAPI) Errors() <-chan error { return nil }

// Points returns the points written so far with the given measurement name,
// or all of them when name is empty.
func (m *MockWriteAPI) Points(name string) []*write.Point {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*write.Point
	for _, p := range m.points {
		if name == "" || p.Name() == name {
			out = append(out, p)
		}
	}
	return out
}

// NopWriteAPI discards everything.  It stands in when no InfluxDB server is
// configured.
type NopWriteAPI struct{}

func (NopWriteAPI) WriteRecord(string) {}

func (NopWriteAPI) WritePoint(*write.Point) {}

func (NopWriteAPI) Flush() {}

func (NopWriteAPI) Close() {}

func (NopWriteAPI) Errors() <-chan error { return nil }
