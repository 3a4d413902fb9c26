package render

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/plot/vg"

	"github.com/spektr-org/covidnl/engine"
)

func sampleChart() *engine.ChartConfig {
	return &engine.ChartConfig{
		ChartType:  "bar",
		Title:      "COVID-19 Cases in the Netherlands by year",
		XAxis:      "Year",
		YAxis:      "Count",
		Categories: []string{"2020", "2021"},
		Series: []engine.ChartSeries{
			{Key: "Total_reported", Name: "Cases", Color: "#1f77b4", Data: []engine.ChartPoint{{Label: "2020", Value: 15}, {Label: "2021", Value: 30}}},
			{Key: "Deceased", Name: "Deaths", Color: "#d62728", Data: []engine.ChartPoint{{Label: "2020", Value: 1}, {Label: "2021", Value: 3}}},
		},
		ShowLegend: true,
		ShowGrid:   true,
	}
}

func TestChartBuildsPlot(t *testing.T) {
	p, err := Chart(sampleChart(), DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "COVID-19 Cases in the Netherlands by year", p.Title.Text)
	assert.Equal(t, "Year", p.X.Label.Text)
}

func TestWriteSVGAndPNG(t *testing.T) {
	var svg bytes.Buffer
	require.NoError(t, Write(&svg, sampleChart(), "svg", DefaultOptions()))
	assert.Contains(t, svg.String(), "<svg")

	var png bytes.Buffer
	require.NoError(t, Write(&png, sampleChart(), "PNG", Options{Width: 4 * vg.Inch, Height: 3 * vg.Inch}))
	assert.True(t, bytes.HasPrefix(png.Bytes(), []byte("\x89PNG")))
}

func TestWriteErrors(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, Write(&buf, sampleChart(), "gif", DefaultOptions()), ErrUnsupportedFormat)
	assert.ErrorIs(t, Write(&buf, nil, "svg", DefaultOptions()), ErrEmptyChart)
	assert.ErrorIs(t, Write(&buf, &engine.ChartConfig{Categories: []string{"2020"}}, "svg", DefaultOptions()), ErrEmptyChart)
}

func TestBarWidthClamped(t *testing.T) {
	assert.Equal(t, vg.Points(24), barWidth(10*vg.Inch, 1, 1))
	assert.Equal(t, vg.Points(2), barWidth(10*vg.Inch, 500, 3))
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "image/png", ContentType("png"))
	assert.Equal(t, "image/svg+xml", ContentType("svg"))
}

func TestParseColorFallback(t *testing.T) {
	r, g, b, _ := parseColor("not-a-colour").RGBA()
	assert.Equal(t, r, g)
	assert.Equal(t, g, b)
}
