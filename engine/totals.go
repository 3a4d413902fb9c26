package engine

import (
	"strings"

	"github.com/spektr-org/covidnl/schema"
)

// BuildTotals sums each measure over the whole view.
func BuildTotals(view RecordView, measures []string) *Totals {
	t := &Totals{
		Values: make(map[string]float64, len(measures)),
		Period: DerivePeriod(view),
		Count:  view.Len(),
	}
	for _, m := range measures {
		t.Values[m] = SumMeasure(view, m)
	}
	return t
}

// DerivePeriod describes the months covered by view: "2021-03",
// "2020-02 to 2023-03", or "" when the view is empty.
func DerivePeriod(view RecordView) string {
	var first, last string
	for i := 0; i < view.Len(); i++ {
		m := view.Dimension(i, DimMonth)
		if m == "" {
			continue
		}
		if first == "" || m < first {
			first = m
		}
		if m > last {
			last = m
		}
	}
	if first == last {
		return first
	}
	return first + " to " + last
}

// summaryLine renders totals as "1,234 Cases, 5 Deaths (2021-01 to 2021-12)".
func summaryLine(t *Totals, measures []string, catalog schema.Config) string {
	parts := make([]string, 0, len(measures))
	for _, key := range measures {
		label := key
		if m, ok := catalog.Measure(key); ok {
			label = m.DisplayName
		}
		parts = append(parts, schema.FormatCount(t.Values[key])+" "+label)
	}
	s := strings.Join(parts, ", ")
	if t.Period != "" {
		s += " (" + t.Period + ")"
	}
	return s
}
