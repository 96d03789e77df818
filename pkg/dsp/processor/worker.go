package processor

import "github.com/norasector/turbine-p25/pkg/dsp/viz"

type DataType int

const (
	// soft symbols
	DataTypeFloat DataType = iota
	// one dibit per byte
	DataTypeBytes
)

func (d DataType) String() string {
	switch d {
	case DataTypeFloat:
		return "float"
	case DataTypeBytes:
		return "bytes"
	default:
		return "unknown"
	}
}

type DSPWorker struct {
	Name        string
	DisplayName string
	InputRate   int
	OutputRate  int

	inputDataType  DataType
	outputDataType DataType

	fbWorker FBWorker
	ffWorker FFWorker
	bbWorker BBWorker

	fOutputBuffer []float32
	bOutputBuffer []byte

	timeDomain *viz.TimeDomainPlotter
	vizSize    int
	plotType   viz.PlotType

	plotOptions []viz.PlotOptions
}

type DSPWorkerOption func(r *DSPWorker)

func WithPlotOptions(opts []viz.PlotOptions) DSPWorkerOption {
	return func(r *DSPWorker) {
		r.plotOptions = append(r.plotOptions, opts...)
	}
}
func WithVizLength(length int) DSPWorkerOption {
	return func(r *DSPWorker) {
		r.vizSize = length
	}
}
func WithPlotType(plotType viz.PlotType) DSPWorkerOption {
	return func(r *DSPWorker) {
		r.plotType = plotType
	}
}

func baseWorker(name, displayName string, inputRate, outputRate int) *DSPWorker {
	return &DSPWorker{
		Name:        name,
		DisplayName: displayName,
		InputRate:   inputRate,
		OutputRate:  outputRate,
	}
}

func NewDSPWorkerFF(name, displayName string, inputRate, outputRate int, worker FFWorker, opts ...DSPWorkerOption) *DSPWorker {
	ret := baseWorker(name, displayName, inputRate, outputRate)
	ret.inputDataType = DataTypeFloat
	ret.outputDataType = DataTypeFloat
	ret.ffWorker = worker

	for _, opt := range opts {
		opt(ret)
	}

	return ret
}

func NewDSPWorkerFB(name, displayName string, inputRate, outputRate int, worker FBWorker, opts ...DSPWorkerOption) *DSPWorker {
	ret := baseWorker(name, displayName, inputRate, outputRate)
	ret.inputDataType = DataTypeFloat
	ret.outputDataType = DataTypeBytes
	ret.fbWorker = worker

	for _, opt := range opts {
		opt(ret)
	}

	return ret
}

func NewDSPWorkerBB(name, displayName string, inputRate, outputRate int, worker BBWorker, opts ...DSPWorkerOption) *DSPWorker {
	ret := baseWorker(name, displayName, inputRate, outputRate)
	ret.inputDataType = DataTypeBytes
	ret.outputDataType = DataTypeBytes
	ret.bbWorker = worker

	for _, opt := range opts {
		opt(ret)
	}

	return ret
}

// Float in, dibits out (1 symbol per byte)
type FBWorker interface {
	WorkBuffer([]float32, []byte) int
	PredictOutputSize(int) int
}

type FFWorker interface {
	WorkBuffer([]float32, []float32) int
	PredictOutputSize(int) int
}

type BBWorker interface {
	WorkBuffer([]byte, []byte) int
	PredictOutputSize(int) int
}
