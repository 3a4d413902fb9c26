package geo

import (
	"html"
	"math"

	"github.com/spektr-org/covidnl/schema"
)

// Popup renders the click text of a region: "Name: Utrecht".
func Popup(name string) string {
	return "Name: " + html.EscapeString(name)
}

// Tooltip renders the hover text of a region:
//
//	Utrecht<br>Incidence rate cases: 1,234.57
//	Utrecht<br>Total reported: 12,345
//	Utrecht: no data
//
// Rates get two decimals, counts a grouped integer.
func Tooltip(name, stat string, value float64) string {
	name = html.EscapeString(name)
	if math.IsNaN(value) {
		return name + ": no data"
	}
	label := schema.LabelFor(stat)
	if m, ok := schema.MapStatistic(stat); ok && m.IsRate {
		return name + "<br>" + label + ": " + schema.FormatRate(value)
	}
	return name + "<br>" + label + ": " + schema.FormatCount(value)
}
