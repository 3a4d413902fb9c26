package engine

import (
	"strconv"

	"github.com/spektr-org/covidnl/dataset"
	"github.com/spektr-org/covidnl/schema"
)

// Dimension keys of a DailyView.
const (
	DimYear         = "year"
	DimMonth        = "month"
	DimProvince     = "province"
	DimMunicipality = "municipality"
	DimNation       = "nation"
)

// Nation is the single value of DimNation.
const Nation = "Netherlands"

var dailyDimensions = map[string]func(dataset.Daily) string{
	DimYear:         func(d dataset.Daily) string { return strconv.Itoa(d.Year()) },
	DimMonth:        func(d dataset.Daily) string { return d.Month().String() },
	DimProvince:     func(d dataset.Daily) string { return d.Province },
	DimMunicipality: func(d dataset.Daily) string { return d.Name },
	DimNation:       func(dataset.Daily) string { return Nation },
}

// Measures are the summable counts; population and rates are not additive
// across rows and stay out of the chart.
var dailyMeasures = map[string]func(dataset.Daily) float64{
	schema.ColTotalReported:     func(d dataset.Daily) float64 { return float64(d.TotalReported) },
	schema.ColDeceased:          func(d dataset.Daily) float64 { return float64(d.Deceased) },
	schema.ColHospitalAdmission: func(d dataset.Daily) float64 { return float64(d.HospitalAdmission) },
}

var (
	dailyDimensionKeys = []string{DimYear, DimMonth, DimProvince, DimMunicipality, DimNation}
	dailyMeasureKeys   = []string{schema.ColTotalReported, schema.ColDeceased, schema.ColHospitalAdmission}
)

// DailyView exposes cleaned daily rows to the engine. Measures use the
// cleaned dataset's column names.
type DailyView struct {
	rows []dataset.Daily
}

// BindDaily returns a view over rows. The slice is referenced, not copied.
func BindDaily(rows []dataset.Daily) RecordView {
	return &DailyView{rows: rows}
}

func (v *DailyView) Len() int { return len(v.rows) }

func (v *DailyView) Dimension(i int, key string) string {
	fn, ok := dailyDimensions[key]
	if !ok || i < 0 || i >= len(v.rows) {
		return ""
	}
	return fn(v.rows[i])
}

func (v *DailyView) Measure(i int, key string) float64 {
	fn, ok := dailyMeasures[key]
	if !ok || i < 0 || i >= len(v.rows) {
		return 0
	}
	return fn(v.rows[i])
}

func (v *DailyView) DimensionKeys() []string { return dailyDimensionKeys }
func (v *DailyView) MeasureKeys() []string   { return dailyMeasureKeys }
