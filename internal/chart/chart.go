// Package chart renders the daily cumulative report as a PNG line chart.
package chart

import (
	"bytes"
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"fecviz/internal/fec"
)

// Line renders the report as a PNG: cumulative total against date,
// points connected in date order. Axis titles and labels follow the
// report vocabulary the accountants expect.
func Line(report *fec.Report) ([]byte, error) {
	p := plot.New()
	p.Title.Text = "Cumul TOTAL par Date"
	p.X.Label.Text = "Dates"
	p.Y.Label.Text = "Cumul TOTAL"
	p.Add(plotter.NewGrid())

	if len(report.Days) > 0 {
		pts := make(plotter.XYs, len(report.Days))
		for i, day := range report.Days {
			pts[i].X = float64(day.Date.Time().Unix())
			pts[i].Y, _ = day.Total.Float64()
		}
		line, points, err := plotter.NewLinePoints(pts)
		if err != nil {
			return nil, fmt.Errorf("build line: %w", err)
		}
		line.Color = color.RGBA{B: 255, A: 255}
		points.Shape = draw.CircleGlyph{}
		points.Color = color.RGBA{B: 255, A: 255}
		p.Add(line, points)

		p.X.Tick.Marker = plot.TimeTicks{Format: fec.DateFormat}
		// Rotate date labels so dense ranges stay readable.
		p.X.Tick.Label.Rotation = math.Pi / 4
		p.X.Tick.Label.XAlign = draw.XRight
		p.X.Tick.Label.YAlign = draw.YCenter
	} else {
		// Nothing to plot: pin the axes so the empty canvas still renders.
		p.X.Min, p.X.Max = 0, 1
		p.Y.Min, p.Y.Max = 0, 1
	}

	w, err := p.WriterTo(14*vg.Inch, 7*vg.Inch, "png")
	if err != nil {
		return nil, fmt.Errorf("render chart: %w", err)
	}
	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("encode chart: %w", err)
	}
	return buf.Bytes(), nil
}
