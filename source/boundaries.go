package source

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Boundary is the outline of one municipality.
type Boundary struct {
	Code     string
	Name     string
	Geometry orb.Geometry
}

// Boundaries indexes municipality outlines by code.
type Boundaries map[string]Boundary

// Codes returns the municipality codes, sorted.
func (b Boundaries) Codes() []string {
	out := make([]string, 0, len(b))
	for c := range b {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// ParseBoundaries decodes a GeoJSON FeatureCollection of municipalities. The
// code is read from codeProperty (e.g. "statcode"), the name from
// nameProperty. Features without a code or without polygon geometry are
// rejected.
func ParseBoundaries(data []byte, codeProperty, nameProperty string) (Boundaries, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("decode municipalities geojson: %w", err)
	}

	out := make(Boundaries, len(fc.Features))
	for i, f := range fc.Features {
		code := strings.ToUpper(strings.TrimSpace(f.Properties.MustString(codeProperty, "")))
		if code == "" {
			return nil, fmt.Errorf("feature %d: no %q property", i, codeProperty)
		}
		switch f.Geometry.(type) {
		case orb.Polygon, orb.MultiPolygon:
		default:
			return nil, fmt.Errorf("feature %s: unsupported geometry %T", code, f.Geometry)
		}
		if _, dup := out[code]; dup {
			return nil, fmt.Errorf("feature %s: duplicate municipality code", code)
		}
		out[code] = Boundary{
			Code:     code,
			Name:     f.Properties.MustString(nameProperty, ""),
			Geometry: f.Geometry,
		}
	}
	return out, nil
}

// LoadBoundaries reads and parses a municipality GeoJSON file.
func LoadBoundaries(path, codeProperty, nameProperty string) (Boundaries, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return ParseBoundaries(data, codeProperty, nameProperty)
}
