package processor

import (
	"errors"
	"fmt"
	"time"

	"github.com/norasector/turbine-common/types"
	"github.com/norasector/turbine-p25/pkg/dsp/viz"
)

const defaultVizLength = 240

// Processor runs a channel's symbol stream through a chain of workers.
type Processor struct {
	Name        string
	InputName   string
	blocks      []*DSPWorker
	scopes      *viz.Registry
	initialized bool
	inputScope  *viz.TimeDomainPlotter
}

// NewProcessor creates an empty chain.  scopes may be nil, in which case
// nothing is plotted.
func NewProcessor(name, inputName string, scopes *viz.Registry) *Processor {
	ret := &Processor{
		Name:      name,
		InputName: inputName,
		scopes:    scopes,
	}

	return ret
}

func (p *Processor) AddBlock(worker *DSPWorker) {
	p.blocks = append(p.blocks, worker)
}

func (p *Processor) InputType() DataType {
	if len(p.blocks) == 0 {
		return DataTypeFloat
	}
	return p.blocks[0].inputDataType
}

func (p *Processor) Initialize() error {
	if p.initialized {
		return nil
	}
	if len(p.blocks) < 1 {
		return fmt.Errorf("must specify at least 1 block")
	}

	vizIndex := 0
	nextIndexString := func(s string) string {
		vizIndex++
		return fmt.Sprintf("%02d. %s", vizIndex, s)
	}

	first := p.blocks[0]
	if p.scopes != nil && first.inputDataType == DataTypeFloat {
		p.inputScope = viz.NewTimeDomainPlotter(nextIndexString(p.InputName), defaultVizLength)
		p.scopes.Register(p.Name, p.inputScope)
	}

	for i, cur := range p.blocks {
		if i+1 < len(p.blocks) {
			next := p.blocks[i+1]
			if cur.outputDataType != next.inputDataType {
				return fmt.Errorf("cur: %s next %s data type mismatch (%s %s)", cur.Name, next.Name, cur.outputDataType, next.inputDataType)
			}
			if cur.OutputRate != next.InputRate {
				return fmt.Errorf("cur: %s next %s rate mismatch (%d %d)", cur.Name, next.Name, cur.OutputRate, next.InputRate)
			}
		}

		if p.scopes == nil || cur.outputDataType != DataTypeFloat {
			continue
		}
		vizLength := defaultVizLength
		if cur.vizSize > 0 {
			vizLength = cur.vizSize
		}
		cur.timeDomain = viz.NewTimeDomainPlotter(nextIndexString(cur.DisplayName), vizLength)
		for _, opt := range cur.plotOptions {
			cur.timeDomain.AddPlotOption(opt)
		}
		if cur.plotType != viz.PlotTypeDefault {
			cur.timeDomain.SetPlotType(cur.plotType)
		}
		p.scopes.Register(p.Name, cur.timeDomain)
	}

	p.initialized = true

	return nil
}

func growFloat(buf []float32, n int) []float32 {
	if cap(buf) < n {
		return make([]float32, n*2)
	}
	return buf[:cap(buf)]
}

func growBytes(buf []byte, n int) []byte {
	if cap(buf) < n {
		return make([]byte, n*2)
	}
	return buf[:cap(buf)]
}

// processData runs the chain from either a float or a byte input.
func (p *Processor) processData(floatInput []float32, byteInput []byte, expectedInputType, expectedOutputType DataType, metrics map[string]interface{}) ([]float32, []byte, error) {
	if len(floatInput) > 0 && len(byteInput) > 0 {
		return nil, nil, errors.New("may only specify one input")
	}

	if p.blocks[0].inputDataType != expectedInputType {
		return nil, nil, fmt.Errorf("invalid input type: got %s expected %s", p.blocks[0].inputDataType, expectedInputType)
	}
	if p.blocks[len(p.blocks)-1].outputDataType != expectedOutputType {
		return nil, nil, fmt.Errorf("invalid output type: got %s expected %s", p.blocks[len(p.blocks)-1].outputDataType, expectedOutputType)
	}

	if p.inputScope != nil && len(floatInput) > 0 {
		p.inputScope.AppendFloat(floatInput)
	}

	var floatOutput []float32
	var byteOutput []byte

	for _, block := range p.blocks {
		if block.inputDataType != expectedInputType {
			return nil, nil, fmt.Errorf("error in %s: expected %s got %s input type", block.Name, expectedInputType, block.inputDataType)
		}

		var work func()

		switch block.inputDataType {
		case DataTypeFloat:
			switch block.outputDataType {
			case DataTypeFloat:
				block.fOutputBuffer = growFloat(block.fOutputBuffer, block.ffWorker.PredictOutputSize(len(floatInput)))
				work = func() {
					length := block.ffWorker.WorkBuffer(floatInput, block.fOutputBuffer)
					floatOutput = block.fOutputBuffer[:length]
					if block.timeDomain != nil {
						block.timeDomain.AppendFloat(floatOutput)
					}
				}

			case DataTypeBytes:
				block.bOutputBuffer = growBytes(block.bOutputBuffer, block.fbWorker.PredictOutputSize(len(floatInput)))
				work = func() {
					length := block.fbWorker.WorkBuffer(floatInput, block.bOutputBuffer)
					byteOutput = block.bOutputBuffer[:length]
				}
			default:
				return nil, nil, fmt.Errorf("%s unknown output type %s for input %s", block.Name, block.outputDataType, block.inputDataType)
			}

		case DataTypeBytes:
			switch block.outputDataType {
			case DataTypeBytes:
				block.bOutputBuffer = growBytes(block.bOutputBuffer, block.bbWorker.PredictOutputSize(len(byteInput)))
				work = func() {
					length := block.bbWorker.WorkBuffer(byteInput, block.bOutputBuffer)
					byteOutput = block.bOutputBuffer[:length]
				}
			default:
				return nil, nil, fmt.Errorf("%s unknown output type %s for input %s", block.Name, block.outputDataType, block.inputDataType)
			}

		default:
			return nil, nil, fmt.Errorf("unknown input type %s", block.inputDataType)
		}

		start := time.Now()
		work()
		metrics[fmt.Sprintf("%s_duration", block.Name)] = time.Since(start).Microseconds()

		if block != p.blocks[len(p.blocks)-1] {
			floatInput = floatOutput
			byteInput = byteOutput

			floatOutput = nil
			byteOutput = nil
			expectedInputType = block.outputDataType
		}
	}
	return floatOutput, byteOutput, nil
}

func (p *Processor) rate() int {
	return p.blocks[len(p.blocks)-1].OutputRate
}

// ProcessFloatToDibits slices a segment of soft symbols.  The returned data
// aliases the processor's buffers and is only valid until the next call.
func (p *Processor) ProcessFloatToDibits(input *types.SegmentFloat32, metrics map[string]interface{}) (*types.SegmentBinaryBytes, error) {
	if !p.initialized {
		if err := p.Initialize(); err != nil {
			return nil, err
		}
	}

	_, byteOutput, err := p.processData(input.Data, nil, DataTypeFloat, DataTypeBytes, metrics)
	if err != nil {
		return nil, err
	}

	return &types.SegmentBinaryBytes{
		SymbolRate:    p.rate(),
		Data:          byteOutput,
		SegmentNumber: input.SegmentNumber,
	}, nil
}

// ProcessDibits runs already sliced symbols through the chain.
func (p *Processor) ProcessDibits(input *types.SegmentBinaryBytes, metrics map[string]interface{}) (*types.SegmentBinaryBytes, error) {
	if !p.initialized {
		if err := p.Initialize(); err != nil {
			return nil, err
		}
	}

	_, byteOutput, err := p.processData(nil, input.Data, DataTypeBytes, DataTypeBytes, metrics)
	if err != nil {
		return nil, err
	}

	return &types.SegmentBinaryBytes{
		SymbolRate:    p.rate(),
		Data:          byteOutput,
		SegmentNumber: input.SegmentNumber,
	}, nil
}
