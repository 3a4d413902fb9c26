package engine

import (
	"sort"
	"strconv"
	"strings"

	"github.com/spektr-org/covidnl/dataset"
)

// ============================================================================
// AGGREGATORS — Grouping, Aggregation, and Sorting via RecordView
// ============================================================================
// Grouping narrows the view once per distinct value; each group
// then carries one sum per requested measure.
// ============================================================================

// GroupAndAggregate is the main entry point for the aggregation pipeline.
// Pipeline: group → sum each measure → sort.
func GroupAndAggregate(view RecordView, groupBy string, measures []string, sortBy string) []Group {
	if view.Len() == 0 {
		return nil
	}

	// 1. Group
	var groups []Group
	if groupBy == "" {
		groups = []Group{{Key: "all", Label: "Total", View: view}}
	} else {
		groups = groupBySingle(view, groupBy)
	}

	// 2. Aggregate
	for i := range groups {
		aggregateGroup(&groups[i], measures)
	}

	// 3. Sort
	SortGroups(groups, sortBy)

	return groups
}

// ============================================================================
// GROUPING
// ============================================================================

func groupBySingle(view RecordView, dimension string) []Group {
	grouped := make(map[string][]int)
	order := make([]string, 0)

	for i := 0; i < view.Len(); i++ {
		key := view.Dimension(i, dimension)
		if _, exists := grouped[key]; !exists {
			order = append(order, key)
		}
		grouped[key] = append(grouped[key], i)
	}

	groups := make([]Group, 0, len(order))
	for _, key := range order {
		groups = append(groups, Group{
			Key:   key,
			Label: key,
			View:  narrow(view, grouped[key]),
		})
	}
	return groups
}

// ============================================================================
// AGGREGATION
// ============================================================================

func aggregateGroup(group *Group, measures []string) {
	group.Count = group.View.Len()
	group.Values = make(map[string]float64, len(measures))
	for _, m := range measures {
		group.Values[m] = SumMeasure(group.View, m)
	}
}

// SumMeasure sums a named measure across a view.
func SumMeasure(view RecordView, measure string) float64 {
	var total float64
	for i := 0; i < view.Len(); i++ {
		total += view.Measure(i, measure)
	}
	return total
}

// ============================================================================
// SORTING
// ============================================================================

// SortGroups orders groups by key: "chronological" for years and months,
// "alpha_asc" for names. Any other mode keeps the grouping order.
func SortGroups(groups []Group, sortBy string) {
	switch sortBy {
	case "chronological":
		sort.SliceStable(groups, func(i, j int) bool { return parseSortableDate(groups[i].Key) < parseSortableDate(groups[j].Key) })
	case "alpha_asc":
		sort.SliceStable(groups, func(i, j int) bool { return strings.ToLower(groups[i].Key) < strings.ToLower(groups[j].Key) })
	}
}

// parseSortableDate turns "2021-03" into 202103 and "2021" into 202100.
// Anything else sorts first.
func parseSortableDate(key string) int {
	if m, err := dataset.ParseMonth(key); err == nil {
		return m.Year*100 + int(m.Month)
	}
	if y, err := strconv.Atoi(key); err == nil {
		return y * 100
	}
	return 0
}

// ============================================================================
// LABELS
// ============================================================================

// LabelForDimension returns a capitalized label for a dimension.
func LabelForDimension(dimension string) string {
	if len(dimension) == 0 {
		return ""
	}
	return strings.ToUpper(dimension[:1]) + dimension[1:]
}
