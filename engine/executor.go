package engine

import (
	"fmt"
	"slices"

	"github.com/spektr-org/covidnl/schema"
)

// ============================================================================
// EXECUTOR — Dispatcher
// ============================================================================
// Entry point: Execute(spec, view, opts...)
//
// Pipeline:
//   1. Apply filters from QuerySpec → narrowed view
//   2. Group and sum each measure
//   3. Build the chart and the matching table
//   4. Attach totals and a one-line summary
//
// Nothing is copied: the engine reads the rows through RecordView.
// ============================================================================

// Execute runs a QuerySpec against a RecordView and returns a render-ready
// Result. An empty match is not an error; it yields Type "empty".
func Execute(spec QuerySpec, view RecordView, opts ...Option) (*Result, error) {
	cfg := applyOptions(opts)

	measures := spec.Measures
	if measures == nil {
		measures = chartMetricKeys()
	}
	for _, m := range measures {
		if !slices.Contains(view.MeasureKeys(), m) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownMetric, m)
		}
	}
	spec.Measures = measures

	// 1. Apply filters (no row copies)
	filtered := ApplyFilters(view, spec.Filters)

	cfg.Logger.Debug().
		Int("records", view.Len()).
		Int("filtered", filtered.Len()).
		Str("group_by", spec.GroupBy).
		Strs("measures", measures).
		Msg("executing query")

	if filtered.Len() == 0 || len(measures) == 0 {
		return &Result{
			Type:    "empty",
			Title:   spec.Title,
			Summary: "No records match the selection.",
		}, nil
	}

	// 2. Group and aggregate
	groups := GroupAndAggregate(filtered, spec.GroupBy, measures, spec.SortBy)

	// 3. Build
	result := &Result{
		Type:        "chart",
		Title:       spec.Title,
		Records:     filtered.Len(),
		ChartConfig: BuildChart(spec, groups, schema.Cleaned),
		TableData:   BuildTable(spec, groups, schema.Cleaned),
	}

	// 4. Totals
	result.Totals = BuildTotals(filtered, measures)
	result.Summary = summaryLine(result.Totals, measures, schema.Cleaned)

	return result, nil
}
