package file

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/norasector/turbine-common/types"
	"github.com/norasector/turbine-p25/pkg/turbine/device"
)

type Format string

const (
	// one symbol per byte, low two bits
	FormatDibit Format = "dibit"
	// little endian float32 soft symbols
	FormatFloat32 Format = "float32"
)

func (f Format) bytesPerSymbol() int {
	if f == FormatFloat32 {
		return 4
	}
	return 1
}

// FileDevice replays a symbol capture, readSize symbols every timeBetween.
type FileDevice struct {
	readFile    *os.File
	format      Format
	readSize    int
	timeBetween time.Duration
	symbolRate  int
	frequency   int
}

func NewFileDevice(file string, format Format, readSize int, symbolRate int, frequency int, timeBetween time.Duration) (*FileDevice, error) {
	if format != FormatDibit && format != FormatFloat32 {
		return nil, fmt.Errorf("unknown file format %q", format)
	}
	if readSize <= 0 {
		return nil, fmt.Errorf("invalid read size %d", readSize)
	}

	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}

	return &FileDevice{
		readFile:    f,
		format:      format,
		readSize:    readSize,
		timeBetween: timeBetween,
		symbolRate:  symbolRate,
		frequency:   frequency,
	}, nil

}

func (f *FileDevice) Start(ctx context.Context, segments chan<- device.Segment) error {
	defer close(segments)

	tick := time.NewTicker(f.timeBetween)
	defer tick.Stop()

	segNum := 0
	buf := make([]byte, f.readSize*f.format.bytesPerSymbol())
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C:
			n, err := io.ReadFull(f.readFile, buf)
			switch {
			case errors.Is(err, io.EOF):
				return nil
			case errors.Is(err, io.ErrUnexpectedEOF):
				// short final read
			case err != nil:
				return err
			}

			segNum++
			seg := f.segment(buf[:n], segNum)

			select {
			case <-ctx.Done():
				return ctx.Err()
			case segments <- seg:
			}

			if n < len(buf) {
				return nil
			}
		}
	}

}

func (f *FileDevice) segment(data []byte, segNum int) device.Segment {
	if f.format == FormatDibit {
		seg := &types.SegmentBinaryBytes{
			SymbolRate:    f.symbolRate,
			Data:          make([]byte, len(data)),
			SegmentNumber: segNum,
		}
		for i, b := range data {
			seg.Data[i] = b & 3
		}
		return device.Segment{Dibits: seg}
	}

	seg := &types.SegmentFloat32{
		Frequency:     f.frequency,
		SegmentNumber: segNum,
		Data:          make([]float32, len(data)/4),
	}
	for i := range seg.Data {
		seg.Data[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[4*i:]))
	}
	return device.Segment{Float: seg}
}

func (f *FileDevice) Stop() error {
	return f.readFile.Close()
}

func (f *FileDevice) SymbolRate() int {
	return f.symbolRate
}
