package schema

import (
	"errors"
	"fmt"
	"strings"
)

// ============================================================================
// SCHEMA — Describes the shape of each dataset the pipeline reads or writes
// ============================================================================
// Raw datasets (RIVM cases, RIVM hospital admissions, CBS population) are
// validated against these definitions before any row is parsed. The cleaned
// dataset definition fixes the column order of data_cleaned.csv.
// Measures double as the metric catalogue for charts, maps and tooltips.
// ============================================================================

// ErrMissingColumn is returned when a required column is absent from a header.
var ErrMissingColumn = errors.New("missing required column")

// Config describes the complete shape of a dataset.
type Config struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`

	Dimensions []DimensionMeta `json:"dimensions"`
	Measures   []MeasureMeta   `json:"measures"`
}

// DimensionMeta describes a string field used for grouping/filtering.
type DimensionMeta struct {
	Key            string `json:"key"`
	DisplayName    string `json:"displayName"`
	Description    string `json:"description,omitempty"`
	Required       bool   `json:"required"`
	Parent         string `json:"parent,omitempty"` // Parent dimension key for hierarchies
	IsTemporal     bool   `json:"isTemporal,omitempty"`
	TemporalFormat string `json:"temporalFormat,omitempty"`
}

// MeasureMeta describes a numeric field used for aggregation.
type MeasureMeta struct {
	Key                string `json:"key"`
	DisplayName        string `json:"displayName"`
	Description        string `json:"description,omitempty"`
	Unit               string `json:"unit,omitempty"` // "people", "per 100k"
	Required           bool   `json:"required"`
	IsRate             bool   `json:"isRate,omitempty"`
	Color              string `json:"color,omitempty"`
	DefaultAggregation string `json:"defaultAggregation,omitempty"`
}

// DimensionKeys returns all dimension keys.
func (c Config) DimensionKeys() []string {
	keys := make([]string, len(c.Dimensions))
	for i, d := range c.Dimensions {
		keys[i] = d.Key
	}
	return keys
}

// MeasureKeys returns all measure keys.
func (c Config) MeasureKeys() []string {
	keys := make([]string, len(c.Measures))
	for i, m := range c.Measures {
		keys[i] = m.Key
	}
	return keys
}

// Columns returns dimension keys followed by measure keys.
func (c Config) Columns() []string {
	return append(c.DimensionKeys(), c.MeasureKeys()...)
}

// Measure looks up a measure by key.
func (c Config) Measure(key string) (MeasureMeta, bool) {
	for _, m := range c.Measures {
		if m.Key == key {
			return m, true
		}
	}
	return MeasureMeta{}, false
}

// Index maps header column names to their positions. Header cells
// are compared after trimming whitespace and a UTF-8 byte order mark. All
// missing columns are reported in one error wrapping ErrMissingColumn.
func (c Config) Index(header []string) (map[string]int, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := pos[h]; !dup {
			pos[h] = i
		}
	}

	var missing []string
	for _, d := range c.Dimensions {
		if _, ok := pos[d.Key]; !ok && d.Required {
			missing = append(missing, d.Key)
		}
	}
	for _, m := range c.Measures {
		if _, ok := pos[m.Key]; !ok && m.Required {
			missing = append(missing, m.Key)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%s: %w: %s", c.Name, ErrMissingColumn, strings.Join(missing, ", "))
	}
	return pos, nil
}

// Validate checks that header holds every required column.
func (c Config) Validate(header []string) error {
	_, err := c.Index(header)
	return err
}

// DefaultDimension creates a required DimensionMeta.
func DefaultDimension(key, displayName string) DimensionMeta {
	return DimensionMeta{
		Key:         key,
		DisplayName: displayName,
		Required:    true,
	}
}

// DefaultMeasure creates a required, summed MeasureMeta.
func DefaultMeasure(key, displayName string) MeasureMeta {
	return MeasureMeta{
		Key:                key,
		DisplayName:        displayName,
		Unit:               "people",
		Required:           true,
		DefaultAggregation: "sum",
	}
}

// LabelFor turns a column key into a display label ("Total_reported" →
// "Total reported").
func LabelFor(key string) string {
	return strings.ReplaceAll(key, "_", " ")
}
