package engine

// ============================================================================
// RECORD VIEW — Read access to the rows behind a chart
// ============================================================================
// The engine never copies rows. Filtering and grouping narrow a view to a
// list of row positions in its parent.
//
//   DailyView  — cleaned daily rows (daily.go)
//   subset     — positions into a parent view
// ============================================================================

// RecordView provides indexed access to a dataset.
type RecordView interface {
	Len() int
	Dimension(index int, key string) string
	Measure(index int, key string) float64
	DimensionKeys() []string
	MeasureKeys() []string
}

// subset is the rows of parent at the given positions, in that order.
type subset struct {
	parent RecordView
	rows   []int
}

// narrow returns the rows of parent at positions. Subsets of subsets point
// straight at the root view.
func narrow(parent RecordView, positions []int) RecordView {
	if s, ok := parent.(*subset); ok {
		rows := make([]int, len(positions))
		for i, p := range positions {
			rows[i] = s.rows[p]
		}
		return &subset{parent: s.parent, rows: rows}
	}
	return &subset{parent: parent, rows: positions}
}

func (s *subset) Len() int { return len(s.rows) }

func (s *subset) Dimension(i int, key string) string {
	if i < 0 || i >= len(s.rows) {
		return ""
	}
	return s.parent.Dimension(s.rows[i], key)
}

func (s *subset) Measure(i int, key string) float64 {
	if i < 0 || i >= len(s.rows) {
		return 0
	}
	return s.parent.Measure(s.rows[i], key)
}

func (s *subset) DimensionKeys() []string { return s.parent.DimensionKeys() }
func (s *subset) MeasureKeys() []string   { return s.parent.MeasureKeys() }
