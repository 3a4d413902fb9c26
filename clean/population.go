package clean

import (
	"math"
	"sort"
	"strings"

	"github.com/spektr-org/covidnl/dataset"
	"github.com/spektr-org/covidnl/metrics"
	"github.com/spektr-org/covidnl/reconcile"
	"github.com/spektr-org/covidnl/schema"
	"github.com/spektr-org/covidnl/source"
)

// PopulationStats counts what happened to the population table.
type PopulationStats struct {
	Read          int
	NotMunicipal  int // province, national and other non-GM regions
	BadPeriod     int
	MissingValue  int
	Fused         int
	Redistributed reconcile.Report
	Output        int
}

// Population cleans the CBS population table. Only municipal regions (RegioS
// starting with "GM") are kept; the year is the first four digits of
// Perioden; non-numeric populations count as missing. Merged municipalities
// are summed into their successor, dissolved municipalities are divided over
// their receivers, and the result holds one row per municipality and year,
// sorted by code then year. A municipality-year with no known value is absent
// rather than zero.
func Population(t *source.Table, reg *reconcile.Registry) ([]dataset.Population, PopulationStats) {
	st := PopulationStats{Read: t.Len()}
	values := make(map[reconcile.Key]float64)

	for i := 0; i < t.Len(); i++ {
		region := strings.ToUpper(t.Get(i, schema.ColRegion))
		if !strings.HasPrefix(region, "GM") {
			st.NotMunicipal++
			continue
		}
		year, ok := parseYear(t.Get(i, schema.ColPeriod))
		if !ok {
			st.BadPeriod++
			continue
		}
		v := dataset.ParseFloat(t.Get(i, schema.ColPopulation))
		if math.IsNaN(v) {
			st.MissingValue++
			continue
		}
		if reg.Fused(region) {
			st.Fused++
		}
		values[reconcile.Key{Code: reg.Code(region), Year: year}] += v
	}

	values, st.Redistributed = reg.Redistribute(values)

	out := make([]dataset.Population, 0, len(values))
	for k, v := range values {
		out = append(out, dataset.Population{Code: k.Code, Year: k.Year, Population: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Code != out[j].Code {
			return out[i].Code < out[j].Code
		}
		return out[i].Year < out[j].Year
	})

	st.Output = len(out)
	name := t.Schema.Name
	metrics.RowsDropped.WithLabelValues(name, "not_municipal").Add(float64(st.NotMunicipal))
	metrics.RowsDropped.WithLabelValues(name, "bad_period").Add(float64(st.BadPeriod))
	metrics.RowsDropped.WithLabelValues(name, "missing_value").Add(float64(st.MissingValue))
	metrics.Reconciled.WithLabelValues(name, "fusion").Add(float64(st.Fused))
	metrics.Reconciled.WithLabelValues(name, "split").Add(float64(st.Redistributed.YearsSplit))
	return out, st
}
