// Package combine joins cleaned cases, hospital admissions and population
// into the daily rows of the cleaned dataset.
package combine

import (
	"math"
	"sort"
	"time"

	"github.com/spektr-org/covidnl/dataset"
	"github.com/spektr-org/covidnl/metrics"
)

const metricsDataset = "combined"

// Stats counts rows lost or left incomplete by the joins.
type Stats struct {
	CasesUnmatched    int // case rows with no admission row for the same day and municipality
	HospitalUnmatched int
	MissingPopulation int // joined rows whose municipality-year has no population
	Output            int
}

type dayKey struct {
	date time.Time
	code string
}

// CasesAndHospital keeps only municipality-days present in both inputs. The
// municipality name comes from the admission row; province, cases and deaths
// from the case row. Output is ordered by date then code. Population and
// incidence are left unknown.
func CasesAndHospital(cases []dataset.Case, hospital []dataset.Admission) ([]dataset.Daily, Stats) {
	var st Stats

	byKey := make(map[dayKey][]int, len(hospital))
	for i, a := range hospital {
		k := dayKey{a.Date, a.Code}
		byKey[k] = append(byKey[k], i)
	}

	matched := make(map[dayKey]bool, len(byKey))
	out := make([]dataset.Daily, 0, len(cases))
	for _, c := range cases {
		k := dayKey{c.Date, c.Code}
		idx, ok := byKey[k]
		if !ok {
			st.CasesUnmatched++
			continue
		}
		matched[k] = true
		for _, i := range idx {
			a := hospital[i]
			out = append(out, dataset.Daily{
				Date:              c.Date,
				Code:              c.Code,
				Name:              a.Name,
				Province:          c.Province,
				Population:        math.NaN(),
				HospitalAdmission: a.HospitalAdmission,
				TotalReported:     c.TotalReported,
				Deceased:          c.Deceased,
				IncidenceHospital: math.NaN(),
				IncidenceCases:    math.NaN(),
				IncidenceDeaths:   math.NaN(),
			})
		}
	}
	for k, idx := range byKey {
		if !matched[k] {
			st.HospitalUnmatched += len(idx)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Code < out[j].Code
	})

	st.Output = len(out)
	metrics.RowsDropped.WithLabelValues(metricsDataset, "cases_without_hospital").Add(float64(st.CasesUnmatched))
	metrics.RowsDropped.WithLabelValues(metricsDataset, "hospital_without_cases").Add(float64(st.HospitalUnmatched))
	return out, st
}

type popKey struct {
	code string
	year int
}

// WithPopulation attaches the population of each row's municipality and year
// and computes incidence per 100,000 inhabitants. Rows are never dropped; a
// row without population keeps NaN population and rates. The input slice is
// not modified.
func WithPopulation(rows []dataset.Daily, population []dataset.Population) ([]dataset.Daily, Stats) {
	st := Stats{Output: len(rows)}

	pop := make(map[popKey]float64, len(population))
	for _, p := range population {
		pop[popKey{p.Code, p.Year}] = p.Population
	}

	out := make([]dataset.Daily, len(rows))
	for i, r := range rows {
		p, ok := pop[popKey{r.Code, r.Year()}]
		if !ok {
			p = math.NaN()
			st.MissingPopulation++
		}
		r.Population = p
		r.IncidenceHospital = dataset.PerHundredThousand(float64(r.HospitalAdmission), p)
		r.IncidenceCases = dataset.PerHundredThousand(float64(r.TotalReported), p)
		r.IncidenceDeaths = dataset.PerHundredThousand(float64(r.Deceased), p)
		out[i] = r
	}

	metrics.RowsLoaded.WithLabelValues(metricsDataset).Add(float64(len(out)))
	return out, st
}
