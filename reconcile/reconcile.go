// Package reconcile maps historical Dutch municipality codes onto the current
// municipal map.
//
// Two kinds of reorganisation are modelled. A Fusion folds an old
// municipality into its successor: every figure recorded under the old code is
// re-labelled with the successor's code and name. A Split dissolves a
// municipality over several receivers: its population is divided equally
// between them for every year in which it has a value, and the dissolved code
// disappears from the result.
package reconcile

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrInvalidRule is returned by NewRegistry for malformed or contradictory rules.
var ErrInvalidRule = errors.New("invalid reconciliation rule")

// Fusion re-labels an old municipality as its successor.
type Fusion struct {
	From     string `yaml:"from" json:"from"`
	FromName string `yaml:"from_name" json:"fromName"`
	To       string `yaml:"to" json:"to"`
	ToName   string `yaml:"to_name" json:"toName"`
}

// Split divides a dissolved municipality equally over its receivers.
type Split struct {
	From     string   `yaml:"from" json:"from"`
	FromName string   `yaml:"from_name" json:"fromName"`
	To       []string `yaml:"to" json:"to"`
}

// Key identifies a municipality-year value.
type Key struct {
	Code string
	Year int
}

// Report summarises what Redistribute did.
type Report struct {
	YearsSplit int // (dissolved municipality, year) pairs divided and removed
	Created    int // receiver-years that had no value of their own
}

// Registry resolves codes through fusion chains and applies splits.
type Registry struct {
	fusions map[string]Fusion
	names   map[string]string // historical name → current name
	splits  []Split
}

// NewRegistry validates the rules and builds a registry. Fusion chains
// (A→B, B→C) resolve to the last successor; cycles are rejected.
func NewRegistry(fusions []Fusion, splits []Split) (*Registry, error) {
	r := &Registry{
		fusions: make(map[string]Fusion, len(fusions)),
		names:   make(map[string]string),
	}

	for _, f := range fusions {
		f.From = normalizeCode(f.From)
		f.To = normalizeCode(f.To)
		if f.From == "" || f.To == "" {
			return nil, fmt.Errorf("%w: fusion %q→%q needs both codes", ErrInvalidRule, f.From, f.To)
		}
		if f.From == f.To {
			return nil, fmt.Errorf("%w: fusion %s maps onto itself", ErrInvalidRule, f.From)
		}
		if strings.TrimSpace(f.ToName) == "" {
			return nil, fmt.Errorf("%w: fusion %s→%s has no successor name", ErrInvalidRule, f.From, f.To)
		}
		if prev, dup := r.fusions[f.From]; dup && prev.To != f.To {
			return nil, fmt.Errorf("%w: %s fused into both %s and %s", ErrInvalidRule, f.From, prev.To, f.To)
		}
		r.fusions[f.From] = f
	}

	for code, f := range r.fusions {
		final, err := r.resolve(code)
		if err != nil {
			return nil, err
		}
		if name := strings.TrimSpace(f.FromName); name != "" {
			r.names[name] = final.ToName
		}
		// A successor that was itself merged away is a historical name too.
		if next, ok := r.fusions[f.To]; ok {
			tail, err := r.resolve(next.From)
			if err != nil {
				return nil, err
			}
			r.names[strings.TrimSpace(f.ToName)] = tail.ToName
		}
	}

	for _, s := range splits {
		s.From = normalizeCode(s.From)
		if s.From == "" || len(s.To) == 0 {
			return nil, fmt.Errorf("%w: split %q needs a code and receivers", ErrInvalidRule, s.From)
		}
		if _, fused := r.fusions[s.From]; fused {
			return nil, fmt.Errorf("%w: %s is both fused and split", ErrInvalidRule, s.From)
		}
		receivers := make([]string, 0, len(s.To))
		for _, to := range s.To {
			to = normalizeCode(to)
			if to == "" || to == s.From {
				return nil, fmt.Errorf("%w: split %s has invalid receiver %q", ErrInvalidRule, s.From, to)
			}
			receivers = append(receivers, to)
		}
		s.To = receivers
		r.splits = append(r.splits, s)
	}

	return r, nil
}

// MustRegistry is NewRegistry for rule sets known to be valid.
func MustRegistry(fusions []Fusion, splits []Split) *Registry {
	r, err := NewRegistry(fusions, splits)
	if err != nil {
		panic(err)
	}
	return r
}

// Default returns the registry for the municipal map used by the datasets.
func Default() *Registry {
	return MustRegistry(DefaultFusions(), DefaultSplits())
}

func (r *Registry) resolve(code string) (Fusion, error) {
	seen := map[string]bool{code: true}
	f, ok := r.fusions[code]
	if !ok {
		return Fusion{}, nil
	}
	for {
		next, ok := r.fusions[f.To]
		if !ok {
			return f, nil
		}
		if seen[next.From] {
			return Fusion{}, fmt.Errorf("%w: fusion cycle through %s", ErrInvalidRule, next.From)
		}
		seen[next.From] = true
		f = Fusion{From: f.From, FromName: f.FromName, To: next.To, ToName: next.ToName}
	}
}

// Resolve returns the current code and name for a municipality. Codes that
// were never fused are returned unchanged together with the given name.
func (r *Registry) Resolve(code, name string) (string, string) {
	f, _ := r.resolve(normalizeCode(code))
	if f.To == "" {
		return code, name
	}
	return f.To, f.ToName
}

// Code returns the current code for a municipality code.
func (r *Registry) Code(code string) string {
	c, _ := r.Resolve(code, "")
	return c
}

// Name returns the current name for a historical municipality name. Names
// that never belonged to a merged municipality are returned unchanged.
func (r *Registry) Name(name string) string {
	if current, ok := r.names[strings.TrimSpace(name)]; ok {
		return current
	}
	return name
}

// Fused reports whether code belongs to a municipality that was merged away.
func (r *Registry) Fused(code string) bool {
	_, ok := r.fusions[normalizeCode(code)]
	return ok
}

// Dissolved reports whether code belongs to a split municipality.
func (r *Registry) Dissolved(code string) bool {
	code = normalizeCode(code)
	for _, s := range r.splits {
		if s.From == code {
			return true
		}
	}
	return false
}

// Fusions returns the registered fusions sorted by old code.
func (r *Registry) Fusions() []Fusion {
	out := make([]Fusion, 0, len(r.fusions))
	for _, f := range r.fusions {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].From < out[j].From })
	return out
}

// Splits returns the registered splits in registration order.
func (r *Registry) Splits() []Split {
	return append([]Split(nil), r.splits...)
}

// Redistribute applies every split to a set of municipality-year values. The
// input must already carry current (fused) codes and hold only known values.
// For each year in which a dissolved municipality has a value, that value is
// divided equally over its receivers; receivers without a value for that year
// get one. All entries of dissolved municipalities are removed. The input map
// is not modified.
func (r *Registry) Redistribute(values map[Key]float64) (map[Key]float64, Report) {
	out := make(map[Key]float64, len(values))
	for k, v := range values {
		out[k] = v
	}

	var rep Report
	for _, s := range r.splits {
		years := make([]int, 0)
		for k := range out {
			if k.Code == s.From {
				years = append(years, k.Year)
			}
		}
		sort.Ints(years)

		for _, year := range years {
			from := Key{Code: s.From, Year: year}
			share := out[from] / float64(len(s.To))
			for _, to := range s.To {
				k := Key{Code: r.Code(to), Year: year}
				if _, ok := out[k]; !ok {
					rep.Created++
				}
				out[k] += share
			}
			delete(out, from)
			rep.YearsSplit++
		}
	}
	return out, rep
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
