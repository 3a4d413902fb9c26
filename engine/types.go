package engine

// ============================================================================
// ENGINE TYPES — Filter, group and sum over daily municipal rows
// ============================================================================
// The engine reads rows through RecordView and never owns them. A QuerySpec
// says which rows to keep, which dimension to group on and which measures to
// sum; builders turn the groups into a ChartConfig and a TableData.
// ============================================================================

// ============================================================================
// QUERYSPEC — Contract between the dashboard widgets and the engine
// ============================================================================

// QuerySpec defines what the engine should compute.
// Plan builds one from the dashboard's chart selections.
type QuerySpec struct {
	Filters   Filters  `json:"filters"`   // Which records to include
	Measures  []string `json:"measures"`  // One series / column per measure, in this order
	GroupBy   string   `json:"groupBy"`   // Dimension key: "year", "month", "province", ...
	SortBy    string   `json:"sortBy"`    // "chronological" or "alpha_asc"
	Visualize string   `json:"visualize"` // "bar"
	Title     string   `json:"title"`
}

// Filters define which records to include.
// Keys are dimension names. Values are allowed values.
// OR within a dimension, AND across dimensions. Empty = all.
type Filters struct {
	Dimensions map[string][]string `json:"dimensions"`
}

// HasFilter reports whether dimension is constrained to at least one value.
func (f Filters) HasFilter(dimension string) bool {
	return len(f.Dimensions[dimension]) > 0
}

// ============================================================================
// RESULT — Render-ready output
// ============================================================================

// Result is the engine's render-ready output.
type Result struct {
	Type    string `json:"type"` // "chart", "empty"
	Title   string `json:"title"`
	Summary string `json:"summary"`

	// Both carry the same figures; nil when Type is "empty".
	ChartConfig *ChartConfig `json:"chartConfig,omitempty"`
	TableData   *TableData   `json:"tableData,omitempty"`

	Totals  *Totals `json:"totals,omitempty"`
	Records int     `json:"records"`
}

// ============================================================================
// GROUP — Intermediate computation result
// ============================================================================

// Group is one category of the chart x-axis with a sum per measure.
type Group struct {
	Key    string             `json:"key"`
	Label  string             `json:"label"`
	Values map[string]float64 `json:"values"`
	Count  int                `json:"count"`
	View   RecordView         `json:"-"` // rows of this group, narrowed from the parent view
}

// Value returns the group's sum for measure.
func (g Group) Value(measure string) float64 { return g.Values[measure] }

// ============================================================================
// CHART TYPES
// ============================================================================

// ChartConfig defines how to render a chart.
type ChartConfig struct {
	ChartType  string        `json:"chartType"`
	Title      string        `json:"title"`
	XAxis      string        `json:"xAxis,omitempty"`
	YAxis      string        `json:"yAxis,omitempty"`
	Categories []string      `json:"categories"`
	Series     []ChartSeries `json:"series"`
	Colors     []string      `json:"colors,omitempty"`
	ShowLegend bool          `json:"showLegend"`
	ShowGrid   bool          `json:"showGrid"`
}

// ChartSeries represents a data series in a chart.
type ChartSeries struct {
	Key   string       `json:"key"`
	Name  string       `json:"name"`
	Data  []ChartPoint `json:"data"`
	Color string       `json:"color,omitempty"`
}

// ChartPoint represents a single data point.
type ChartPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// ============================================================================
// TABLE TYPES
// ============================================================================

// TableData defines how to render a table.
type TableData struct {
	Title   string     `json:"title"`
	Columns []Column   `json:"columns"`
	Rows    [][]string `json:"rows"`
	Summary *Summary   `json:"summary,omitempty"`
}

// Column defines a table column.
type Column struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Type  string `json:"type"`  // "text", "number"
	Align string `json:"align"` // "left", "center", "right"
}

// Summary is the footer row of a table.
type Summary struct {
	Label  string            `json:"label"`
	Values map[string]string `json:"values"`
}

// ============================================================================
// TOTALS
// ============================================================================

// Totals sums every requested measure over the filtered rows.
type Totals struct {
	Values map[string]float64 `json:"values"`
	Period string             `json:"period"`
	Count  int                `json:"count"`
}
