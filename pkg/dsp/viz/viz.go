package viz

import (
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
)

type PlotOptions func(p *plot.Plot)

func plotWithDefaults() *plot.Plot {

	p := plot.New()
	p.BackgroundColor = color.Black
	p.Title.TextStyle.Color = color.White
	p.Y.Label.TextStyle.Color = color.White
	p.Y.Color = color.White
	p.X.Label.TextStyle.Color = color.White
	p.X.Color = color.White
	p.Legend.TextStyle.Color = color.White
	p.X.Tick.Color = color.White
	p.Y.Tick.Color = color.White
	p.X.Tick.Label.Color = color.White
	p.Y.Tick.Label.Color = color.White

	return p
}

// WithLevels draws horizontal guides, typically the slicer thresholds.
func WithLevels(levels ...float64) PlotOptions {
	return func(p *plot.Plot) {
		for _, level := range levels {
			l := level
			f := plotter.NewFunction(func(float64) float64 { return l })
			f.Color = color.RGBA{R: 200, G: 60, B: 60, A: 255}
			p.Add(f)
		}
	}
}
