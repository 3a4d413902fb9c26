package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spektr-org/covidnl/schema"
)

// ============================================================================
// CLEANED DATASET FILE — data_cleaned.csv
// ============================================================================
// Comma separated, header row, one Daily per line. Unknown population and
// rates are written as empty cells.
// ============================================================================

// WriteCSV writes rows in schema.Cleaned column order.
func WriteCSV(w io.Writer, rows []Daily) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(schema.Cleaned.Columns()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, d := range rows {
		rec := []string{
			d.Date.Format(DateLayout),
			d.Month().String(),
			strconv.Itoa(d.Year()),
			d.Code,
			d.Name,
			d.Province,
			FormatFloat(d.Population),
			strconv.Itoa(d.HospitalAdmission),
			strconv.Itoa(d.TotalReported),
			strconv.Itoa(d.Deceased),
			FormatFloat(d.IncidenceHospital),
			FormatFloat(d.IncidenceCases),
			FormatFloat(d.IncidenceDeaths),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes rows to path, creating parent directories.
func WriteFile(path string, rows []Daily) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return WriteCSV(f, rows)
}

// ReadCSV parses a cleaned dataset. Year and Month are derived from Date.
func ReadCSV(r io.Reader) ([]Daily, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx, err := schema.Cleaned.Index(header)
	if err != nil {
		return nil, err
	}

	var rows []Daily
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		d, err := parseDaily(rec, idx)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rows = append(rows, d)
	}
	return rows, nil
}

// ReadFile reads a cleaned dataset from disk.
func ReadFile(path string) ([]Daily, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open cleaned dataset: %w", err)
	}
	defer f.Close()
	return ReadCSV(f)
}

func parseDaily(rec []string, idx map[string]int) (Daily, error) {
	cell := func(col string) string {
		i := idx[col]
		if i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	date, err := time.Parse(DateLayout, cell(schema.ColDate))
	if err != nil {
		return Daily{}, fmt.Errorf("parse date: %w", err)
	}
	d := Daily{
		Date:     date,
		Code:     cell(schema.ColMunicipalityCode),
		Name:     cell(schema.ColMunicipalityName),
		Province: cell(schema.ColProvince),
	}
	if d.HospitalAdmission, err = parseCount(cell(schema.ColHospitalAdmission)); err != nil {
		return Daily{}, err
	}
	if d.TotalReported, err = parseCount(cell(schema.ColTotalReported)); err != nil {
		return Daily{}, err
	}
	if d.Deceased, err = parseCount(cell(schema.ColDeceased)); err != nil {
		return Daily{}, err
	}
	d.Population = ParseFloat(cell(schema.ColPopulationClean))
	d.IncidenceHospital = ParseFloat(cell(schema.ColIncidenceHospital))
	d.IncidenceCases = ParseFloat(cell(schema.ColIncidenceCases))
	d.IncidenceDeaths = ParseFloat(cell(schema.ColIncidenceDeaths))
	return d, nil
}

// parseCount accepts "12" and "12.0" (pandas writes float columns that way).
func parseCount(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse count %q: %w", s, err)
	}
	return int(math.Round(f)), nil
}

// FormatFloat renders v without trailing zeros; NaN renders empty.
func FormatFloat(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ParseFloat parses a cell, returning NaN for empty or non-numeric input.
func ParseFloat(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return math.NaN()
	}
	return f
}
