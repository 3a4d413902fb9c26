// Package geo aggregates the cleaned dataset per municipality, province and
// country, per month and per year, joins the result to municipal boundaries
// and serves the resulting layers to the map.
package geo

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrUnknownLevel     = errors.New("unknown level")
	ErrUnknownPeriod    = errors.New("unknown aggregation period")
	ErrUnknownStatistic = errors.New("unknown statistic")
	ErrNoData           = errors.New("no data")
)

// Level is a geographic aggregation level.
type Level string

const (
	Municipality Level = "Municipality"
	Province     Level = "Province"
	National     Level = "National"
)

// Levels in dropdown order.
var Levels = []Level{Municipality, Province, National}

// ParseLevel accepts a level name in any case.
func ParseLevel(s string) (Level, error) {
	for _, l := range Levels {
		if strings.EqualFold(s, string(l)) {
			return l, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownLevel, s)
}

func (l Level) abbrev() string {
	switch l {
	case Province:
		return "prov"
	case National:
		return "nl"
	default:
		return "mun"
	}
}

// Period is a temporal aggregation.
type Period string

const (
	Monthly Period = "monthly"
	Yearly  Period = "yearly"
)

// Periods in dropdown order.
var Periods = []Period{Monthly, Yearly}

// ParsePeriod accepts a period name in any case.
func ParsePeriod(s string) (Period, error) {
	for _, p := range Periods {
		if strings.EqualFold(s, string(p)) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPeriod, s)
}

// Start truncates t to the first day of its period.
func (p Period) Start(t time.Time) time.Time {
	if p == Yearly {
		return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	}
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// Format renders a period start the way the map's date dropdown shows it:
// "2021-03" for months, "2021" for years.
func (p Period) Format(t time.Time) string {
	if p == Yearly {
		return t.Format("2006")
	}
	return t.Format("2006-01")
}

// FileName is the GeoJSON file holding one level and period,
// e.g. "agg_prov_monthly.geojson".
func FileName(l Level, p Period) string {
	return fmt.Sprintf("agg_%s_%s.geojson", l.abbrev(), p)
}
