// Package clean turns raw source tables into typed, de-duplicated rows on the
// current municipal map.
package clean

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spektr-org/covidnl/dataset"
	"github.com/spektr-org/covidnl/metrics"
	"github.com/spektr-org/covidnl/reconcile"
	"github.com/spektr-org/covidnl/schema"
	"github.com/spektr-org/covidnl/source"
)

// Stats counts what happened to the rows of one dataset.
type Stats struct {
	Read                int
	BadDate             int
	MissingMunicipality int
	MissingProvince     int
	Fused               int // rows re-labelled onto a successor municipality
	Output              int
}

// Dropped is the number of input rows that did not contribute to the output.
func (s Stats) Dropped() int {
	return s.BadDate + s.MissingMunicipality + s.MissingProvince
}

func (s Stats) record(name string) {
	drop := metrics.RowsDropped
	drop.WithLabelValues(name, "bad_date").Add(float64(s.BadDate))
	drop.WithLabelValues(name, "missing_municipality").Add(float64(s.MissingMunicipality))
	drop.WithLabelValues(name, "missing_province").Add(float64(s.MissingProvince))
	metrics.Reconciled.WithLabelValues(name, "fusion").Add(float64(s.Fused))
}

// ============================================================================
// CASES
// ============================================================================

type caseKey struct {
	date     time.Time
	code     string
	name     string
	province string
}

// Cases cleans the raw RIVM case table: rows with an unparseable publication
// date or without municipality code, name or province are dropped, merged
// municipalities are re-labelled, and rows are summed per date, municipality
// and province. Output is sorted by date, code, name and province.
func Cases(t *source.Table, reg *reconcile.Registry) ([]dataset.Case, Stats) {
	st := Stats{Read: t.Len()}
	sums := make(map[caseKey]*dataset.Case)

	for i := 0; i < t.Len(); i++ {
		date, ok := parseDate(t.Get(i, schema.ColDateOfPublication))
		if !ok {
			st.BadDate++
			continue
		}
		code, name := t.Get(i, schema.ColMunicipalityCode), t.Get(i, schema.ColMunicipalityName)
		if code == "" || name == "" {
			st.MissingMunicipality++
			continue
		}
		province := t.Get(i, schema.ColProvince)
		if province == "" {
			st.MissingProvince++
			continue
		}
		if reg.Fused(code) {
			st.Fused++
		}
		code, name = reg.Resolve(code, name)
		name = reg.Name(name)

		k := caseKey{date: date, code: code, name: name, province: province}
		c, ok := sums[k]
		if !ok {
			c = &dataset.Case{Date: date, Code: code, Name: name, Province: province}
			sums[k] = c
		}
		c.TotalReported += parseCount(t.Get(i, schema.ColTotalReported))
		c.Deceased += parseCount(t.Get(i, schema.ColDeceased))
	}

	out := make([]dataset.Case, 0, len(sums))
	for _, c := range sums {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.Code != b.Code {
			return a.Code < b.Code
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.Province < b.Province
	})

	st.Output = len(out)
	st.record(t.Schema.Name)
	return out, st
}

// ============================================================================
// HOSPITAL ADMISSIONS
// ============================================================================

type admissionKey struct {
	date time.Time
	code string
	name string
}

// Hospital cleans the raw RIVM hospital admission table: rows with an
// unparseable date or without municipality code or name are dropped, merged
// municipalities are re-labelled, and admissions are summed per date and
// municipality. Output is sorted by date, code and name.
func Hospital(t *source.Table, reg *reconcile.Registry) ([]dataset.Admission, Stats) {
	st := Stats{Read: t.Len()}
	sums := make(map[admissionKey]*dataset.Admission)

	for i := 0; i < t.Len(); i++ {
		date, ok := parseDate(t.Get(i, schema.ColDateOfStatistics))
		if !ok {
			st.BadDate++
			continue
		}
		code, name := t.Get(i, schema.ColMunicipalityCode), t.Get(i, schema.ColMunicipalityName)
		if code == "" || name == "" {
			st.MissingMunicipality++
			continue
		}
		if reg.Fused(code) {
			st.Fused++
		}
		code, name = reg.Resolve(code, name)
		name = reg.Name(name)

		k := admissionKey{date: date, code: code, name: name}
		a, ok := sums[k]
		if !ok {
			a = &dataset.Admission{Date: date, Code: code, Name: name}
			sums[k] = a
		}
		a.HospitalAdmission += parseCount(t.Get(i, schema.ColHospitalAdmission))
	}

	out := make([]dataset.Admission, 0, len(sums))
	for _, a := range sums {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.Code != b.Code {
			return a.Code < b.Code
		}
		return a.Name < b.Name
	})

	st.Output = len(out)
	st.record(t.Schema.Name)
	return out, st
}

// ============================================================================
// PARSING HELPERS
// ============================================================================

var dateLayouts = []string{dataset.DateLayout, "2006-01-02 15:04:05", time.RFC3339}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// parseCount treats empty and non-numeric cells as zero.
func parseCount(s string) int {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int(math.Round(f))
}

var yearPattern = regexp.MustCompile(`\d{4}`)

// parseYear extracts the first four-digit run ("2021JJ00" → 2021).
func parseYear(s string) (int, bool) {
	m := yearPattern.FindString(s)
	if m == "" {
		return 0, false
	}
	y, err := strconv.Atoi(m)
	return y, err == nil
}
