package geo

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/paulmach/orb/geojson"
	"golang.org/x/sync/errgroup"

	"github.com/spektr-org/covidnl/dataset"
	"github.com/spektr-org/covidnl/schema"
)

// ============================================================================
// ATLAS — The six layers indexed for render-time lookup
// ============================================================================

// Layer is one level and period, indexed by formatted date.
type Layer struct {
	Level  Level
	Period Period
	dates  []string
	byDate map[string][]*geojson.Feature
}

// Dates returns the formatted dates of the layer, sorted.
func (l *Layer) Dates() []string { return l.dates }

// Atlas holds every layer in memory. It is read-only once loaded and safe
// for concurrent use.
type Atlas struct {
	mu     sync.RWMutex
	layers map[Level]map[Period]*Layer
}

// NewAtlas returns an empty atlas.
func NewAtlas() *Atlas {
	return &Atlas{layers: make(map[Level]map[Period]*Layer)}
}

// LoadAtlas reads the six layer files from dir.
func LoadAtlas(ctx context.Context, dir string) (*Atlas, error) {
	a := NewAtlas()
	g, ctx := errgroup.WithContext(ctx)
	for _, l := range Levels {
		for _, p := range Periods {
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				path := filepath.Join(dir, FileName(l, p))
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("read layer: %w", err)
				}
				fc, err := geojson.UnmarshalFeatureCollection(data)
				if err != nil {
					return fmt.Errorf("decode %s: %w", path, err)
				}
				return a.Add(l, p, fc)
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return a, nil
}

// Add indexes fc as the layer for l and p, replacing any earlier one.
func (a *Atlas) Add(l Level, p Period, fc *geojson.FeatureCollection) error {
	layer := &Layer{Level: l, Period: p, byDate: make(map[string][]*geojson.Feature)}
	for i, f := range fc.Features {
		start, err := parseDate(f.Properties.MustString(schema.ColDate, ""))
		if err != nil {
			return fmt.Errorf("%s feature %d: %w", FileName(l, p), i, err)
		}
		key := p.Format(start)
		if _, seen := layer.byDate[key]; !seen {
			layer.dates = append(layer.dates, key)
		}
		layer.byDate[key] = append(layer.byDate[key], f)
	}
	sort.Strings(layer.dates)

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.layers[l] == nil {
		a.layers[l] = make(map[Period]*Layer)
	}
	a.layers[l][p] = layer
	return nil
}

var layerDateLayouts = []string{dataset.DateLayout, "2006-01-02T15:04:05", time.RFC3339}

func parseDate(s string) (time.Time, error) {
	for _, layout := range layerDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid %s %q", schema.ColDate, s)
}

// Layer returns the layer for l and p.
func (a *Atlas) Layer(l Level, p Period) (*Layer, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	layer, ok := a.layers[l][p]
	if !ok {
		return nil, fmt.Errorf("%w: %s %s layer not loaded", ErrNoData, l, p)
	}
	return layer, nil
}

// ============================================================================
// RENDER
// ============================================================================

// MapQuery holds the map tab's widget state.
type MapQuery struct {
	Level       string `form:"level" json:"level"`
	Aggregation string `form:"aggregation" json:"aggregation"`
	Stat        string `form:"stat" json:"stat"`
	Date        string `form:"date" json:"date"`
}

// DefaultMapQuery is the map tab's initial state. An empty Date selects the
// layer's first date.
func DefaultMapQuery() MapQuery {
	return MapQuery{
		Level:       string(Municipality),
		Aggregation: string(Yearly),
		Stat:        schema.ColIncidenceCases,
	}
}

// Legend describes the colour scale of a rendered map. Min and Max are nil
// when no region has a value.
type Legend struct {
	Caption string   `json:"caption"`
	Min     *float64 `json:"min"`
	Max     *float64 `json:"max"`
	Colors  []string `json:"colors"`
	NoData  string   `json:"noData"`
}

// MapView is a rendered map: features carry "fill" and "tooltip_text".
type MapView struct {
	Level    Level                      `json:"level"`
	Period   Period                     `json:"aggregation"`
	Stat     string                     `json:"stat"`
	Date     string                     `json:"date"`
	Dates    []string                   `json:"dates"`
	Legend   Legend                     `json:"legend"`
	Features *geojson.FeatureCollection `json:"features"`
}

// Render colours one layer at one date by one statistic. Cached features
// are not modified.
func (a *Atlas) Render(q MapQuery) (*MapView, error) {
	def := DefaultMapQuery()
	if q.Level == "" {
		q.Level = def.Level
	}
	if q.Aggregation == "" {
		q.Aggregation = def.Aggregation
	}
	if q.Stat == "" {
		q.Stat = def.Stat
	}

	l, err := ParseLevel(q.Level)
	if err != nil {
		return nil, err
	}
	p, err := ParsePeriod(q.Aggregation)
	if err != nil {
		return nil, err
	}
	if _, ok := schema.MapStatistic(q.Stat); !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStatistic, q.Stat)
	}
	layer, err := a.Layer(l, p)
	if err != nil {
		return nil, err
	}
	if len(layer.dates) == 0 {
		return nil, fmt.Errorf("%w: %s %s layer is empty", ErrNoData, l, p)
	}
	if q.Date == "" {
		q.Date = layer.dates[0]
	}
	features, ok := layer.byDate[q.Date]
	if !ok {
		return nil, fmt.Errorf("%w: no %s %s data for %s", ErrNoData, l, p, q.Date)
	}

	values := make([]float64, len(features))
	lo, hi, known := 0.0, 0.0, false
	for i, f := range features {
		v, ok := number(f.Properties[q.Stat])
		if !ok {
			values[i] = math.NaN()
			continue
		}
		values[i] = v
		if !known || v < lo {
			lo = v
		}
		if !known || v > hi {
			hi = v
		}
		known = true
	}

	cm := NewColormap(lo, hi)
	fc := geojson.NewFeatureCollection()
	for i, f := range features {
		out := geojson.NewFeature(f.Geometry)
		out.Properties = f.Properties.Clone()
		delete(out.Properties, schema.ColDate)
		out.Properties["fill"] = cm.Color(values[i])
		name := regionName(l, f.Properties)
		out.Properties["tooltip_text"] = Tooltip(name, q.Stat, values[i])
		out.Properties["popup_text"] = Popup(name)
		fc.Append(out)
	}

	view := &MapView{
		Level:    l,
		Period:   p,
		Stat:     q.Stat,
		Date:     q.Date,
		Dates:    layer.dates,
		Features: fc,
		Legend:   Legend{Caption: q.Stat, Colors: cm.Colors(), NoData: NoDataColor},
	}
	if known {
		view.Legend.Min, view.Legend.Max = &lo, &hi
	}
	return view, nil
}

func regionName(l Level, props geojson.Properties) string {
	switch l {
	case Municipality:
		return props.MustString(schema.ColMunicipalityName, NationalName)
	case Province:
		return props.MustString(schema.ColProvince, NationalName)
	}
	return NationalName
}

// number reads a numeric property; decoded files hold float64, freshly built
// collections hold ints.
func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n)
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
