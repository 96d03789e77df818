package viz

import (
	"bytes"
	"sync"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

type PlotType int

const (
	PlotTypeDefault PlotType = iota
	PlotTypeScatter
	PlotTypeLines
)

// TimeDomainPlotter keeps the last size samples of a stream and renders them
// as a PNG on request.
type TimeDomainPlotter struct {
	mu          sync.Mutex
	bufFloat    []float32
	size        int
	name        string
	plotFunc    func(*plot.Plot, ...interface{}) error
	plotOptions []PlotOptions
}

func NewTimeDomainPlotter(name string, size int) *TimeDomainPlotter {
	ret := &TimeDomainPlotter{
		bufFloat: make([]float32, 0, size),
		size:     size,
		name:     name,
		plotFunc: plotutil.AddScatters,
	}

	return ret
}

func (t *TimeDomainPlotter) Name() string {
	return t.name
}

func (t *TimeDomainPlotter) SetPlotType(tp PlotType) {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch tp {
	case PlotTypeLines:
		t.plotFunc = plotutil.AddLines
	default:
		t.plotFunc = plotutil.AddScatters
	}
}

func (tp *TimeDomainPlotter) AppendFloat(f []float32) {
	tp.mu.Lock()
	defer tp.mu.Unlock()

	if len(f) >= tp.size {
		tp.bufFloat = append(tp.bufFloat[:0], f[len(f)-tp.size:]...)
		return
	}
	tp.bufFloat = append(tp.bufFloat, f...)
	if len(tp.bufFloat) > tp.size {
		tp.bufFloat = append(tp.bufFloat[:0], tp.bufFloat[len(tp.bufFloat)-tp.size:]...)
	}
}

// Samples returns a copy of the buffered samples, oldest first.
func (tp *TimeDomainPlotter) Samples() []float32 {
	tp.mu.Lock()
	defer tp.mu.Unlock()
	return append([]float32(nil), tp.bufFloat...)
}

func (tp *TimeDomainPlotter) AddPlotOption(opt PlotOptions) {
	tp.mu.Lock()
	defer tp.mu.Unlock()
	tp.plotOptions = append(tp.plotOptions, opt)
}

// GetImage renders the buffer.  It returns nil until the buffer has filled.
func (tp *TimeDomainPlotter) GetImage() *ImageContainer {
	tp.mu.Lock()
	defer tp.mu.Unlock()

	if len(tp.bufFloat) < tp.size {
		return nil
	}

	p := plotWithDefaults()

	p.Title.Text = tp.name
	p.Y.Label.Text = "Amplitude"
	p.Y.Min = -4
	p.Y.Max = 4
	p.X.Label.Text = "symbol"

	for _, opt := range tp.plotOptions {
		opt(p)
	}

	grid := plotter.NewGrid()
	p.Add(grid)

	pts := make(plotter.XYs, tp.size)
	for i := 0; i < tp.size; i++ {
		pts[i] = plotter.XY{X: float64(i), Y: float64(tp.bufFloat[i])}
	}
	if err := tp.plotFunc(p, "f(t)", pts); err != nil {
		return nil
	}

	var imageData bytes.Buffer
	w, err := p.WriterTo(8*vg.Inch, 6*vg.Inch, "png")
	if err != nil {
		return nil
	}
	if _, err := w.WriteTo(&imageData); err != nil {
		return nil
	}
	return &ImageContainer{name: tp.name, data: imageData.Bytes()}
}
