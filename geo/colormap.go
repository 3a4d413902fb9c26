package geo

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// NoDataColor fills regions whose statistic is unknown.
const NoDataColor = "#cccccc"

// YlGnBu9 is the 9-class ColorBrewer yellow-green-blue ramp.
var YlGnBu9 = []string{
	"#ffffd9", "#edf8b1", "#c7e9b4", "#7fcdbb", "#41b6c4",
	"#1d91c0", "#225ea8", "#253494", "#081d58",
}

// Colormap maps values linearly onto a colour ramp between Min and Max.
type Colormap struct {
	Min, Max float64
	stops    []colorful.Color
}

// NewColormap scales the YlGnBu ramp to [min, max].
func NewColormap(min, max float64) Colormap {
	stops := make([]colorful.Color, len(YlGnBu9))
	for i, hex := range YlGnBu9 {
		stops[i], _ = colorful.Hex(hex)
	}
	return Colormap{Min: min, Max: max, stops: stops}
}

// Color returns the hex colour for v. Values outside the range clamp to the
// ends; NaN gets NoDataColor.
func (c Colormap) Color(v float64) string {
	if math.IsNaN(v) {
		return NoDataColor
	}
	t := 0.0
	if span := c.Max - c.Min; span > 0 {
		t = (v - c.Min) / span
	}
	t = math.Max(0, math.Min(1, t))

	pos := t * float64(len(c.stops)-1)
	i := int(math.Floor(pos))
	if i >= len(c.stops)-1 {
		return c.stops[len(c.stops)-1].Hex()
	}
	return c.stops[i].BlendRgb(c.stops[i+1], pos-float64(i)).Hex()
}

// Colors returns the ramp's hex stops for a legend.
func (c Colormap) Colors() []string {
	out := make([]string, len(c.stops))
	for i, s := range c.stops {
		out[i] = s.Hex()
	}
	return out
}
