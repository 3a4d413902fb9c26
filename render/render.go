// Package render draws engine charts as SVG or PNG images.
package render

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/spektr-org/covidnl/engine"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrEmptyChart        = errors.New("chart has no series")
)

// Formats lists the image formats Write understands.
var Formats = []string{"svg", "png"}

// Options sizes the image.
type Options struct {
	Width  vg.Length
	Height vg.Length
}

// DefaultOptions renders a 10x6 inch image.
func DefaultOptions() Options {
	return Options{Width: 10 * vg.Inch, Height: 6 * vg.Inch}
}

// Chart builds a grouped bar plot: one bar per series within each category,
// category labels tilted 45 degrees, legend top right.
func Chart(cfg *engine.ChartConfig, opts Options) (*plot.Plot, error) {
	if cfg == nil || len(cfg.Series) == 0 || len(cfg.Categories) == 0 {
		return nil, ErrEmptyChart
	}

	p := plot.New()
	p.Title.Text = cfg.Title
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.Text = cfg.XAxis
	p.Y.Label.Text = cfg.YAxis
	p.Y.Min = 0
	p.Legend.Top = true
	if cfg.ShowGrid {
		grid := plotter.NewGrid()
		grid.Vertical.Width = 0
		p.Add(grid)
	}

	n := len(cfg.Series)
	width := barWidth(opts.Width, len(cfg.Categories), n)
	for i, s := range cfg.Series {
		values := make(plotter.Values, len(cfg.Categories))
		for j, pt := range s.Data {
			if j < len(values) {
				values[j] = pt.Value
			}
		}

		bars, err := plotter.NewBarChart(values, width)
		if err != nil {
			return nil, fmt.Errorf("series %q: %w", s.Name, err)
		}
		bars.Color = parseColor(s.Color)
		bars.LineStyle.Width = vg.Length(0)
		bars.Offset = vg.Length(float64(i)-float64(n-1)/2) * width

		p.Add(bars)
		p.Legend.Add(s.Name, bars)
	}

	p.NominalX(cfg.Categories...)
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter

	return p, nil
}

// Write renders cfg in format ("svg" or "png") to w.
func Write(w io.Writer, cfg *engine.ChartConfig, format string, opts Options) error {
	format = strings.ToLower(format)
	if format != "svg" && format != "png" {
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	p, err := Chart(cfg, opts)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(opts.Width, opts.Height, format)
	if err != nil {
		return fmt.Errorf("failed to render %s: %w", format, err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write %s: %w", format, err)
	}
	return nil
}

// ContentType returns the MIME type for format.
func ContentType(format string) string {
	if strings.ToLower(format) == "png" {
		return "image/png"
	}
	return "image/svg+xml"
}

// barWidth shares 70% of the plot width between all bars, clamped to a
// readable range.
func barWidth(total vg.Length, categories, series int) vg.Length {
	w := total * 0.7 / vg.Length(categories*series)
	switch {
	case w < vg.Points(2):
		return vg.Points(2)
	case w > vg.Points(24):
		return vg.Points(24)
	}
	return w
}

func parseColor(hex string) color.Color {
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.Gray{Y: 128}
	}
	return c
}
