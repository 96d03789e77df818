package processor

import (
	"testing"

	"github.com/norasector/turbine-common/types"
	"github.com/norasector/turbine-p25/pkg/dsp/agc/rmsagc"
	"github.com/norasector/turbine-p25/pkg/dsp/viz"
	"github.com/norasector/turbine-p25/pkg/op25"
	"github.com/norasector/turbine-p25/pkg/op25/slicer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const symbolRate = 4800

func softChain(scopes *viz.Registry) *Processor {
	p := NewProcessor("channel-1", "Soft Symbols", scopes)
	p.AddBlock(NewDSPWorkerFF("agc", "RMS AGC", symbolRate, symbolRate, rmsagc.NewRMSAGC(0.01, rmsagc.ReferenceC4FM)))
	p.AddBlock(NewDSPWorkerFB("slicer", "Dibit Slicer", symbolRate, symbolRate, slicer.NewDibitSlicer(nil)))
	return p
}

func TestProcessFloatToDibits(t *testing.T) {
	scopes := viz.NewRegistry()
	p := softChain(scopes)

	pattern := []float32{3, 1, -1, -3}
	want := []byte{op25.DibitPlus3, op25.DibitPlus1, op25.DibitMinus1, op25.DibitMinus3}

	for seg := 1; seg <= 3; seg++ {
		// segments of growing length reuse and grow the buffers
		in := &types.SegmentFloat32{SegmentNumber: seg, Data: make([]float32, 0, 400*seg)}
		for i := 0; i < 100*seg; i++ {
			in.Data = append(in.Data, pattern...)
		}

		metrics := map[string]interface{}{}
		out, err := p.ProcessFloatToDibits(in, metrics)
		require.NoError(t, err)
		assert.Equal(t, seg, out.SegmentNumber)
		assert.Equal(t, symbolRate, out.SymbolRate)
		require.Len(t, out.Data, len(in.Data))
		for i, d := range out.Data {
			require.Equal(t, want[i%4], d, "symbol %d", i)
		}
		assert.Contains(t, metrics, "agc_duration")
		assert.Contains(t, metrics, "slicer_duration")
	}

	names, ok := scopes.Producers("channel-1")
	require.True(t, ok)
	assert.Equal(t, []string{"01. Soft Symbols", "02. RMS AGC"}, names)
}

func TestProcessDibits(t *testing.T) {
	correction := slicer.NewPhaseCorrection(true)
	p := NewProcessor("channel-2", "Dibits", nil)
	p.AddBlock(NewDSPWorkerBB("rotator", "Phase Correction", symbolRate, symbolRate, slicer.NewRotator(correction)))
	assert.Equal(t, DataTypeBytes, p.InputType())

	out, err := p.ProcessDibits(&types.SegmentBinaryBytes{Data: []byte{0, 1, 2, 3}}, map[string]interface{}{})
	require.NoError(t, err)
	assert.Equal(t, []byte{2, 3, 0, 1}, out.Data)

	_, err = p.ProcessFloatToDibits(&types.SegmentFloat32{Data: []float32{1}}, map[string]interface{}{})
	assert.Error(t, err)
}

func TestInitializeErrors(t *testing.T) {
	assert.Error(t, NewProcessor("empty", "in", nil).Initialize())

	mismatch := NewProcessor("mismatch", "in", nil)
	mismatch.AddBlock(NewDSPWorkerFB("slicer", "Slicer", symbolRate, symbolRate, slicer.NewDibitSlicer(nil)))
	mismatch.AddBlock(NewDSPWorkerFF("agc", "AGC", symbolRate, symbolRate, rmsagc.NewRMSAGC(0.01, 0)))
	assert.Error(t, mismatch.Initialize())

	rates := NewProcessor("rates", "in", nil)
	rates.AddBlock(NewDSPWorkerFF("agc", "AGC", symbolRate, 2*symbolRate, rmsagc.NewRMSAGC(0.01, 0)))
	rates.AddBlock(NewDSPWorkerFB("slicer", "Slicer", symbolRate, symbolRate, slicer.NewDibitSlicer(nil)))
	assert.Error(t, rates.Initialize())
}
