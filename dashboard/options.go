package dashboard

import (
	"strconv"

	"github.com/spektr-org/covidnl/dataset"
	"github.com/spektr-org/covidnl/engine"
	"github.com/spektr-org/covidnl/geo"
	"github.com/spektr-org/covidnl/schema"
)

// Choice is one option of a dropdown or checkbox group.
type Choice struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Color string `json:"color,omitempty"`
}

// Options lists every widget choice of both tabs. It is computed once at
// startup.
type Options struct {
	Years          []string            `json:"years"`
	Provinces      []string            `json:"provinces"`
	Municipalities map[string][]string `json:"municipalities"`
	Aggregations   []string            `json:"aggregations"`
	Metrics        []Choice            `json:"metrics"`

	MapLevels       []string `json:"mapLevels"`
	MapAggregations []string `json:"mapAggregations"`
	MapStatistics   []Choice `json:"mapStatistics"`

	ChartDefaults engine.ChartQuery `json:"chartDefaults"`
	MapDefaults   geo.MapQuery      `json:"mapDefaults"`
}

func buildOptions(rows []dataset.Daily) Options {
	o := Options{
		Years:          []string{engine.All},
		Provinces:      append([]string{engine.ProvinceNational, engine.ProvinceAll}, dataset.Provinces(rows)...),
		Municipalities: make(map[string][]string),
		Aggregations:   engine.Aggregations,
		ChartDefaults:  engine.DefaultChartQuery(),
		MapDefaults:    geo.DefaultMapQuery(),
	}
	for _, y := range dataset.Years(rows) {
		o.Years = append(o.Years, strconv.Itoa(y))
	}
	for _, p := range dataset.Provinces(rows) {
		o.Municipalities[p] = append([]string{engine.All}, dataset.Municipalities(rows, p)...)
	}
	for _, m := range schema.ChartMetrics() {
		o.Metrics = append(o.Metrics, Choice{Key: m.Key, Label: m.DisplayName, Color: m.Color})
	}

	for _, l := range geo.Levels {
		o.MapLevels = append(o.MapLevels, string(l))
	}
	for _, p := range geo.Periods {
		o.MapAggregations = append(o.MapAggregations, string(p))
	}
	for _, m := range schema.MapStatistics {
		o.MapStatistics = append(o.MapStatistics, Choice{Key: m.Key, Label: m.DisplayName})
	}
	return o
}

// municipalityChoices is the municipality dropdown for a province selection;
// only a concrete province enables it.
func (o Options) municipalityChoices(province string) ([]string, bool) {
	m, ok := o.Municipalities[province]
	if !ok {
		return []string{engine.All}, false
	}
	return m, true
}
