package file

import (
	"context"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/norasector/turbine-p25/pkg/turbine/device"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "capture.bin")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func drain(t *testing.T, dev *FileDevice) []device.Segment {
	t.Helper()
	segments := make(chan device.Segment)
	errCh := make(chan error, 1)
	go func() {
		errCh <- dev.Start(context.Background(), segments)
	}()

	var out []device.Segment
	for seg := range segments {
		out = append(out, seg)
	}
	require.NoError(t, <-errCh)
	return out
}

func TestDibitCapture(t *testing.T) {
	data := []byte{0, 1, 2, 3, 0xff, 0x04, 2}
	dev, err := NewFileDevice(writeTemp(t, data), FormatDibit, 3, 4800, 851012500, time.Millisecond)
	require.NoError(t, err)
	defer dev.Stop()

	segs := drain(t, dev)
	require.Len(t, segs, 3)
	assert.Equal(t, []byte{0, 1, 2}, segs[0].Dibits.Data)
	assert.Equal(t, []byte{3, 3, 0}, segs[1].Dibits.Data)
	assert.Equal(t, []byte{2}, segs[2].Dibits.Data)
	assert.Equal(t, 2, segs[1].Dibits.SegmentNumber)
	assert.Equal(t, 4800, segs[0].Dibits.SymbolRate)
	assert.Nil(t, segs[0].Float)
	assert.Equal(t, 1, segs[2].Len())
}

func TestFloatCapture(t *testing.T) {
	values := []float32{3, -1, 1.5, -3}
	data := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(data[4*i:], math.Float32bits(v))
	}
	dev, err := NewFileDevice(writeTemp(t, data), FormatFloat32, 2, 4800, 851012500, time.Millisecond)
	require.NoError(t, err)
	defer dev.Stop()

	segs := drain(t, dev)
	require.Len(t, segs, 2)
	assert.Equal(t, []float32{3, -1}, segs[0].Float.Data)
	assert.Equal(t, []float32{1.5, -3}, segs[1].Float.Data)
	assert.Equal(t, 851012500, segs[1].Float.Frequency)
}

func TestCancel(t *testing.T) {
	dev, err := NewFileDevice(writeTemp(t, make([]byte, 64)), FormatDibit, 1, 4800, 0, time.Hour)
	require.NoError(t, err)
	defer dev.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	segments := make(chan device.Segment)
	assert.ErrorIs(t, dev.Start(ctx, segments), context.Canceled)
	_, ok := <-segments
	assert.False(t, ok)
}

func TestInvalidDevice(t *testing.T) {
	_, err := NewFileDevice(writeTemp(t, nil), Format("iq"), 1, 4800, 0, time.Millisecond)
	assert.Error(t, err)
	_, err = NewFileDevice(filepath.Join(t.TempDir(), "missing"), FormatDibit, 1, 4800, 0, time.Millisecond)
	assert.Error(t, err)
}
