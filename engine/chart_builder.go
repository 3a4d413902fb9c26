package engine

import (
	"math"

	"github.com/spektr-org/covidnl/schema"
)

// ============================================================================
// CHART BUILDER — Produces ChartConfig from QuerySpec + Groups
// ============================================================================
// One series per measure, one point per group. Series take the measure's
// colour from the catalogue so a metric keeps its colour across charts.
// ============================================================================

// Fallback palette for measures without a catalogue colour.
var defaultColors = []string{
	"#4F46E5", "#10B981", "#F59E0B", "#EF4444", "#8B5CF6",
	"#06B6D4", "#EC4899", "#84CC16", "#F97316", "#6366F1",
}

// BuildChart produces a grouped-bar ChartConfig.
func BuildChart(spec QuerySpec, groups []Group, catalog schema.Config) *ChartConfig {
	if len(groups) == 0 || len(spec.Measures) == 0 {
		return nil
	}

	chartType := spec.Visualize
	if chartType == "" {
		chartType = "bar"
	}

	config := &ChartConfig{
		ChartType:  chartType,
		Title:      spec.Title,
		XAxis:      LabelForDimension(spec.GroupBy),
		YAxis:      "Count",
		ShowLegend: true,
		ShowGrid:   true,
	}

	config.Categories = make([]string, len(groups))
	for i, g := range groups {
		config.Categories[i] = g.Label
	}

	config.Series = make([]ChartSeries, 0, len(spec.Measures))
	for i, key := range spec.Measures {
		name, color := key, defaultColors[i%len(defaultColors)]
		if m, ok := catalog.Measure(key); ok {
			name = m.DisplayName
			if m.Color != "" {
				color = m.Color
			}
		}

		points := make([]ChartPoint, 0, len(groups))
		for _, g := range groups {
			points = append(points, ChartPoint{Label: g.Label, Value: RoundTo2(g.Value(key))})
		}
		config.Series = append(config.Series, ChartSeries{Key: key, Name: name, Data: points, Color: color})
		config.Colors = append(config.Colors, color)
	}

	return config
}

// RoundTo2 rounds to 2 decimal places.
func RoundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}
