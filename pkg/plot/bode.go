// Package plot draws frequency responses with gonum/plot.
package plot

import (
	"fmt"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgsvg"
)

const (
	Width  = 16 * vg.Centimeter
	Height = 16 * vg.Centimeter
)

// Bode writes an SVG with the magnitude (dB) above the phase (degrees),
// both on a logarithmic frequency axis.
func Bode(w io.Writer, title string, freq, db, phase []float64) error {
	if len(freq) == 0 || len(freq) != len(db) || len(freq) != len(phase) {
		return fmt.Errorf("bode: mismatched data lengths %d, %d, %d", len(freq), len(db), len(phase))
	}

	mag, err := logPlot(title, "Magnitude [dB]", freq, db)
	if err != nil {
		return err
	}
	ph, err := logPlot("", "Phase [deg]", freq, phase)
	if err != nil {
		return err
	}

	img := vgsvg.New(Width, Height)
	dc := draw.New(img)
	tiles := draw.Tiles{Rows: 2, Cols: 1, PadY: 4 * vg.Millimeter, PadTop: 2 * vg.Millimeter, PadBottom: 2 * vg.Millimeter}
	canvases := plot.Align([][]*plot.Plot{{mag}, {ph}}, tiles, dc)
	mag.Draw(canvases[0][0])
	ph.Draw(canvases[1][0])

	if _, err := img.WriteTo(w); err != nil {
		return fmt.Errorf("bode: writing svg: %w", err)
	}
	return nil
}

func logPlot(title, yLabel string, x, y []float64) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Frequency [Hz]"
	p.Y.Label.Text = yLabel
	p.X.Scale = plot.LogScale{}
	p.X.Tick.Marker = plot.LogTicks{Prec: -1}

	pts := make(plotter.XYs, len(x))
	for i := range x {
		pts[i].X = x[i]
		pts[i].Y = y[i]
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, fmt.Errorf("bode: %s: %w", yLabel, err)
	}
	p.Add(plotter.NewGrid(), line)
	return p, nil
}
