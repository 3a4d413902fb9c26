package engine

import (
	"github.com/spektr-org/covidnl/schema"
)

// ============================================================================
// TABLE BUILDER — Produces TableData from QuerySpec + Groups
// ============================================================================
// The table mirrors the chart: one row per group, one column per measure,
// a total row underneath.
// ============================================================================

// BuildTable produces a TableData from a QuerySpec and its groups.
func BuildTable(spec QuerySpec, groups []Group, catalog schema.Config) *TableData {
	groupLabel := "Group"
	if spec.GroupBy != "" {
		groupLabel = LabelForDimension(spec.GroupBy)
	}

	columns := []Column{{Key: "group", Label: groupLabel, Type: "text", Align: "left"}}
	for _, key := range spec.Measures {
		label := key
		if m, ok := catalog.Measure(key); ok {
			label = m.DisplayName
		}
		columns = append(columns, Column{Key: key, Label: label, Type: "number", Align: "right"})
	}

	if len(groups) == 0 {
		return &TableData{Title: spec.Title, Columns: columns, Rows: [][]string{}}
	}

	rows := make([][]string, 0, len(groups))
	totals := make(map[string]float64, len(spec.Measures))
	for _, g := range groups {
		row := make([]string, 0, len(columns))
		row = append(row, g.Label)
		for _, key := range spec.Measures {
			row = append(row, schema.FormatCount(g.Value(key)))
			totals[key] += g.Value(key)
		}
		rows = append(rows, row)
	}

	summary := &Summary{Label: "Total", Values: make(map[string]string, len(totals))}
	for key, v := range totals {
		summary.Values[key] = schema.FormatCount(v)
	}

	return &TableData{
		Title:   spec.Title,
		Columns: columns,
		Rows:    rows,
		Summary: summary,
	}
}
