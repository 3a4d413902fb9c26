// Package dataset holds the typed rows that flow through the pipeline and the
// cleaned dataset file format.
package dataset

import (
	"fmt"
	"math"
	"time"
)

// DateLayout is the day format used by RIVM and by data_cleaned.csv.
const DateLayout = "2006-01-02"

// ============================================================================
// MONTH — calendar month period ("2021-03")
// ============================================================================

// Month is a calendar month.
type Month struct {
	Year  int
	Month time.Month
}

// MonthOf returns the month containing t.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// ParseMonth parses "YYYY-MM".
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Month{}, fmt.Errorf("parse month %q: %w", s, err)
	}
	return MonthOf(t), nil
}

// String formats the month as "YYYY-MM".
func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// Start returns midnight UTC on the first day of the month.
func (m Month) Start() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// Before reports whether m is earlier than o.
func (m Month) Before(o Month) bool {
	if m.Year != o.Year {
		return m.Year < o.Year
	}
	return m.Month < o.Month
}

// ============================================================================
// CLEANED INPUT ROWS
// ============================================================================

// Case is one municipality-day of reported cases and deaths.
type Case struct {
	Date          time.Time
	Code          string
	Name          string
	Province      string
	TotalReported int
	Deceased      int
}

// Year returns the calendar year of the row.
func (c Case) Year() int { return c.Date.Year() }

// Month returns the calendar month of the row.
func (c Case) Month() Month { return MonthOf(c.Date) }

// Admission is one municipality-day of hospital admissions.
type Admission struct {
	Date              time.Time
	Code              string
	Name              string
	HospitalAdmission int
}

// Year returns the calendar year of the row.
func (a Admission) Year() int { return a.Date.Year() }

// Month returns the calendar month of the row.
func (a Admission) Month() Month { return MonthOf(a.Date) }

// Population is the population of one municipality in one year. Population
// is fractional once a dissolved municipality has been redistributed.
type Population struct {
	Code       string
	Year       int
	Population float64
}

// ============================================================================
// DAILY — the combined row written to data_cleaned.csv
// ============================================================================

// Daily joins cases, admissions and population for one municipality-day.
// Population and the incidence rates are NaN when the population is unknown.
type Daily struct {
	Date              time.Time
	Code              string
	Name              string
	Province          string
	Population        float64
	HospitalAdmission int
	TotalReported     int
	Deceased          int
	IncidenceHospital float64
	IncidenceCases    float64
	IncidenceDeaths   float64
}

// Year returns the calendar year of the row.
func (d Daily) Year() int { return d.Date.Year() }

// Month returns the calendar month of the row.
func (d Daily) Month() Month { return MonthOf(d.Date) }

// HasPopulation reports whether the municipality's population is known.
func (d Daily) HasPopulation() bool {
	return !math.IsNaN(d.Population) && d.Population > 0
}

// PerHundredThousand returns count per 100,000 inhabitants, or NaN when the
// population is unknown or zero.
func PerHundredThousand(count, population float64) float64 {
	if math.IsNaN(population) || population <= 0 {
		return math.NaN()
	}
	return count / population * 100_000
}
