package geo

import (
	"math"
	"sort"
	"time"

	"github.com/spektr-org/covidnl/dataset"
)

// NationalKey identifies the single national region.
const NationalKey = "NL"

// NationalName labels the national region on the map.
const NationalName = "The Netherlands"

// Region is one region in one period with summed counts.
type Region struct {
	Level    Level
	Key      string // municipality code, province name or NationalKey
	Code     string
	Name     string
	Province string
	Start    time.Time

	TotalReported     int
	Deceased          int
	HospitalAdmission int
	Population        float64 // NaN when no member municipality has a known population
}

// IncidenceCases is cases per 100,000 inhabitants.
func (r Region) IncidenceCases() float64 {
	return dataset.PerHundredThousand(float64(r.TotalReported), r.Population)
}

// IncidenceDeaths is deaths per 100,000 inhabitants.
func (r Region) IncidenceDeaths() float64 {
	return dataset.PerHundredThousand(float64(r.Deceased), r.Population)
}

// IncidenceHospital is hospital admissions per 100,000 inhabitants.
func (r Region) IncidenceHospital() float64 {
	return dataset.PerHundredThousand(float64(r.HospitalAdmission), r.Population)
}

type regionKey struct {
	key   string
	start time.Time
}

type accumulator struct {
	region  Region
	members map[string]float64 // municipality code → population for the period's year
}

func regionKeyFor(l Level, d dataset.Daily) string {
	switch l {
	case Province:
		return d.Province
	case National:
		return NationalKey
	default:
		return d.Code
	}
}

// Aggregate sums cases, deaths and admissions per region and period. The
// population of a region in a period is the population of the period's year
// summed over the distinct municipalities that reported in that period.
// Unknown populations are skipped; a region with none known has NaN
// population and rates. Rows without a province are left out of the
// province level. Output is sorted by period then key.
func Aggregate(rows []dataset.Daily, l Level, p Period) []Region {
	acc := make(map[regionKey]*accumulator)

	for _, d := range rows {
		key := regionKeyFor(l, d)
		if key == "" {
			continue
		}
		k := regionKey{key: key, start: p.Start(d.Date)}
		a, ok := acc[k]
		if !ok {
			a = &accumulator{
				region:  Region{Level: l, Key: key, Start: k.start},
				members: make(map[string]float64),
			}
			switch l {
			case Municipality:
				a.region.Code, a.region.Name, a.region.Province = d.Code, d.Name, d.Province
			case Province:
				a.region.Name, a.region.Province = d.Province, d.Province
			case National:
				a.region.Name = NationalName
			}
			acc[k] = a
		}

		a.region.TotalReported += d.TotalReported
		a.region.Deceased += d.Deceased
		a.region.HospitalAdmission += d.HospitalAdmission
		if pop, seen := a.members[d.Code]; !seen || math.IsNaN(pop) {
			a.members[d.Code] = d.Population
		}
	}

	out := make([]Region, 0, len(acc))
	for _, a := range acc {
		a.region.Population = sumKnown(a.members)
		out = append(out, a.region)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Start.Equal(out[j].Start) {
			return out[i].Start.Before(out[j].Start)
		}
		return out[i].Key < out[j].Key
	})
	return out
}

func sumKnown(values map[string]float64) float64 {
	total, known := 0.0, false
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		total += v
		known = true
	}
	if !known {
		return math.NaN()
	}
	return total
}
