package engine

import (
	"maps"
	"slices"
	"strings"
)

// ============================================================================
// FILTERS — Widget selections as dimension constraints
// ============================================================================
// Constraints on different dimensions must all hold; the values listed for
// one dimension are alternatives. Values compare case-insensitively, so
// "zuid-holland" selects "Zuid-Holland".
// ============================================================================

type constraint struct {
	dimension string
	allowed   map[string]bool
}

func (c constraint) holds(view RecordView, i int) bool {
	return c.allowed[strings.ToLower(view.Dimension(i, c.dimension))]
}

// constraintsOf drops dimensions without values and orders the rest by key.
func constraintsOf(f Filters) []constraint {
	var out []constraint
	for _, dim := range slices.Sorted(maps.Keys(f.Dimensions)) {
		values := f.Dimensions[dim]
		if len(values) == 0 {
			continue
		}
		c := constraint{dimension: dim, allowed: make(map[string]bool, len(values))}
		for _, v := range values {
			c.allowed[strings.ToLower(v)] = true
		}
		out = append(out, c)
	}
	return out
}

// ApplyFilters narrows view to the rows that satisfy every constraint. With
// no constraints the view is returned unchanged.
func ApplyFilters(view RecordView, filters Filters) RecordView {
	constraints := constraintsOf(filters)
	if len(constraints) == 0 {
		return view
	}

	var keep []int
rows:
	for i := range view.Len() {
		for _, c := range constraints {
			if !c.holds(view, i) {
				continue rows
			}
		}
		keep = append(keep, i)
	}
	return narrow(view, keep)
}
