// Package report exports yearly and monthly summaries of the cleaned dataset
// as an Excel workbook.
package report

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/spektr-org/covidnl/dataset"
	"github.com/spektr-org/covidnl/geo"
)

// Sheet names in workbook order.
const (
	SheetMunicipalities = "Municipalities"
	SheetProvinces      = "Provinces"
	SheetNational       = "Netherlands"
	SheetMonthly        = "Monthly"
)

type sheet struct {
	name   string
	level  geo.Level
	period geo.Period
}

var sheets = []sheet{
	{SheetMunicipalities, geo.Municipality, geo.Yearly},
	{SheetProvinces, geo.Province, geo.Yearly},
	{SheetNational, geo.National, geo.Yearly},
	{SheetMonthly, geo.National, geo.Monthly},
}

var metricHeaders = []string{
	"Population", "Cases", "Deaths", "Hospital admissions",
	"Cases per 100,000", "Deaths per 100,000", "Hospital admissions per 100,000",
}

// Write streams the workbook to w.
func Write(w io.Writer, rows []dataset.Daily) error {
	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", s.name); err != nil {
				return fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(s.name); err != nil {
			return fmt.Errorf("create sheet %s: %w", s.name, err)
		}
		if err := writeSheet(f, s, geo.Aggregate(rows, s.level, s.period), bold); err != nil {
			return err
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// WriteFile writes the workbook to path, creating its directory.
func WriteFile(path string, rows []dataset.Daily) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create %s: %w", filepath.Dir(path), err)
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Write(out, rows); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func writeSheet(f *excelize.File, s sheet, regions []geo.Region, headerStyle int) error {
	sw, err := f.NewStreamWriter(s.name)
	if err != nil {
		return fmt.Errorf("stream %s: %w", s.name, err)
	}

	keys := keyHeaders(s)
	if err := sw.SetColWidth(1, len(keys)+len(metricHeaders), 16); err != nil {
		return fmt.Errorf("%s column width: %w", s.name, err)
	}

	header := make([]interface{}, 0, len(keys)+len(metricHeaders))
	for _, h := range append(keys, metricHeaders...) {
		header = append(header, excelize.Cell{StyleID: headerStyle, Value: h})
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("%s header: %w", s.name, err)
	}

	for i, r := range regions {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, rowValues(s, r)); err != nil {
			return fmt.Errorf("%s row %d: %w", s.name, i+2, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush %s: %w", s.name, err)
	}
	return nil
}

func keyHeaders(s sheet) []string {
	period := "Year"
	if s.period == geo.Monthly {
		period = "Month"
	}
	switch s.level {
	case geo.Municipality:
		return []string{period, "Code", "Municipality", "Province"}
	case geo.Province:
		return []string{period, "Province"}
	}
	return []string{period}
}

func rowValues(s sheet, r geo.Region) []interface{} {
	vals := []interface{}{s.period.Format(r.Start)}
	switch s.level {
	case geo.Municipality:
		vals = append(vals, r.Code, r.Name, r.Province)
	case geo.Province:
		vals = append(vals, r.Province)
	}
	return append(vals,
		cellFloat(r.Population, 0),
		r.TotalReported,
		r.Deceased,
		r.HospitalAdmission,
		cellFloat(r.IncidenceCases(), 2),
		cellFloat(r.IncidenceDeaths(), 2),
		cellFloat(r.IncidenceHospital(), 2),
	)
}

// cellFloat rounds v to places decimals; unknown values leave the cell empty.
func cellFloat(v float64, places int) interface{} {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
