package engine

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/spektr-org/covidnl/schema"
)

// ============================================================================
// CHART QUERY — Dashboard selections translated into a QuerySpec
// ============================================================================

// Widget values with a special meaning.
const (
	All               = "All"
	ProvinceNational  = "Netherlands"
	ProvinceAll       = "All Provinces"
	AggYear           = "Year"
	AggMunicipalities = "Municipalities"
	AggMonths         = "Months"
)

// Aggregations lists the aggregate-by choices in display order.
var Aggregations = []string{AggYear, AggMunicipalities, AggMonths}

var (
	ErrUnknownAggregation = errors.New("unknown aggregation")
	ErrUnknownMetric      = errors.New("unknown metric")
	ErrInvalidYear        = errors.New("invalid year")
)

// ChartQuery holds the chart tab's widget state.
type ChartQuery struct {
	Year         string   `form:"year" json:"year"`
	Province     string   `form:"province" json:"province"`
	Municipality string   `form:"municipality" json:"municipality"`
	Aggregation  string   `form:"aggregation" json:"aggregation"`
	Metrics      []string `form:"metric" json:"metrics"`
}

// DefaultChartQuery is the chart tab's initial state: every year, the whole
// country, per year, all three metrics.
func DefaultChartQuery() ChartQuery {
	return ChartQuery{
		Year:         All,
		Province:     ProvinceNational,
		Municipality: All,
		Aggregation:  AggYear,
		Metrics:      chartMetricKeys(),
	}
}

// Normalize fills empty fields with their defaults and validates the rest.
// A nil Metrics selects every metric; an empty one (or one holding only
// blanks) selects none and the chart comes out empty.
func (q ChartQuery) Normalize() (ChartQuery, error) {
	def := DefaultChartQuery()
	if q.Year == "" {
		q.Year = def.Year
	}
	if q.Province == "" {
		q.Province = def.Province
	}
	if q.Municipality == "" || !q.provinceSelected() {
		q.Municipality = All
	}
	if q.Aggregation == "" {
		q.Aggregation = def.Aggregation
	}
	if q.Metrics == nil {
		q.Metrics = def.Metrics
	} else {
		q.Metrics = slices.DeleteFunc(slices.Clone(q.Metrics), func(m string) bool { return m == "" })
	}

	if q.Year != All {
		if _, err := strconv.Atoi(q.Year); err != nil {
			return q, fmt.Errorf("%w: %q", ErrInvalidYear, q.Year)
		}
	}
	if !slices.Contains(Aggregations, q.Aggregation) {
		return q, fmt.Errorf("%w: %q", ErrUnknownAggregation, q.Aggregation)
	}
	valid := chartMetricKeys()
	for _, m := range q.Metrics {
		if !slices.Contains(valid, m) {
			return q, fmt.Errorf("%w: %q", ErrUnknownMetric, m)
		}
	}
	return q, nil
}

func (q ChartQuery) provinceSelected() bool {
	return q.Province != "" && q.Province != ProvinceNational && q.Province != ProvinceAll && q.Province != All
}

// Plan turns a normalized ChartQuery into a QuerySpec. "Municipalities"
// breaks down by province under All Provinces, by municipality under a
// selected province, and gives a single national bar under Netherlands.
func Plan(q ChartQuery) QuerySpec {
	spec := QuerySpec{
		Visualize: "bar",
		Measures:  q.Metrics,
		Filters:   Filters{Dimensions: map[string][]string{}},
	}

	if q.Year != All {
		spec.Filters.Dimensions[DimYear] = []string{q.Year}
	}
	if q.provinceSelected() {
		spec.Filters.Dimensions[DimProvince] = []string{q.Province}
		if q.Municipality != All {
			spec.Filters.Dimensions[DimMunicipality] = []string{q.Municipality}
		}
	}

	switch q.Aggregation {
	case AggMonths:
		spec.GroupBy, spec.SortBy = DimMonth, "chronological"
	case AggMunicipalities:
		switch {
		case q.Province == ProvinceAll:
			spec.GroupBy = DimProvince
		case q.provinceSelected():
			spec.GroupBy = DimMunicipality
		default:
			spec.GroupBy = DimNation
		}
		spec.SortBy = "alpha_asc"
	default:
		spec.GroupBy, spec.SortBy = DimYear, "chronological"
	}

	spec.Title = chartTitle(q)
	return spec
}

func chartTitle(q ChartQuery) string {
	names := make([]string, 0, len(q.Metrics))
	for _, key := range q.Metrics {
		if m, ok := schema.Cleaned.Measure(key); ok {
			names = append(names, m.DisplayName)
		}
	}

	var scope string
	switch {
	case q.Province == ProvinceAll:
		scope = "all provinces"
	case q.provinceSelected() && q.Municipality != All:
		scope = q.Municipality + " (" + q.Province + ")"
	case q.provinceSelected():
		scope = q.Province
	default:
		scope = "the Netherlands"
	}

	title := fmt.Sprintf("COVID-19 %s in %s by %s", strings.Join(names, ", "), scope, strings.ToLower(q.Aggregation))
	if q.Year != All {
		title += ", " + q.Year
	}
	return title
}
