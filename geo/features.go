package geo

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/spektr-org/covidnl/dataset"
	"github.com/spektr-org/covidnl/schema"
	"github.com/spektr-org/covidnl/source"
)

// Shapes holds the geometry of every region at every level.
type Shapes map[Level]map[string]orb.Geometry

// BuildShapes derives region outlines from municipal boundaries. A province
// is the MultiPolygon of the municipalities that report under it; the
// country is the MultiPolygon of all boundaries. Polygons are collected,
// not dissolved.
func BuildShapes(rows []dataset.Daily, b source.Boundaries) Shapes {
	shapes := Shapes{
		Municipality: make(map[string]orb.Geometry, len(b)),
		Province:     make(map[string]orb.Geometry),
		National:     make(map[string]orb.Geometry, 1),
	}
	for code, boundary := range b {
		shapes[Municipality][code] = boundary.Geometry
	}

	members := make(map[string]map[string]bool)
	for _, d := range rows {
		if d.Province == "" {
			continue
		}
		if members[d.Province] == nil {
			members[d.Province] = make(map[string]bool)
		}
		members[d.Province][d.Code] = true
	}
	for province, codes := range members {
		var mp orb.MultiPolygon
		for _, code := range sortedKeys(codes) {
			if boundary, ok := b[code]; ok {
				mp = appendPolygons(mp, boundary.Geometry)
			}
		}
		if len(mp) > 0 {
			shapes[Province][province] = mp
		}
	}

	var nl orb.MultiPolygon
	for _, code := range b.Codes() {
		nl = appendPolygons(nl, b[code].Geometry)
	}
	if len(nl) > 0 {
		shapes[National][NationalKey] = nl
	}
	return shapes
}

func appendPolygons(mp orb.MultiPolygon, g orb.Geometry) orb.MultiPolygon {
	switch g := g.(type) {
	case orb.Polygon:
		return append(mp, g)
	case orb.MultiPolygon:
		return append(mp, g...)
	}
	return mp
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Properties are the GeoJSON properties of a region. Unknown populations and
// rates encode as null.
func (r Region) Properties() geojson.Properties {
	props := geojson.Properties{
		schema.ColDate:                   r.Start.Format(dataset.DateLayout),
		schema.ColTotalReported:          r.TotalReported,
		schema.ColDeceased:               r.Deceased,
		schema.ColHospitalAdmission:      r.HospitalAdmission,
		schema.ColPopulationClean:        nullable(r.Population),
		schema.ColIncidenceCases:         nullable(r.IncidenceCases()),
		schema.ColIncidenceDeaths:        nullable(r.IncidenceDeaths()),
		schema.ColIncidenceHospitalShort: nullable(r.IncidenceHospital()),
	}
	switch r.Level {
	case Municipality:
		props[schema.ColMunicipalityCode] = r.Code
		props[schema.ColMunicipalityName] = r.Name
		props[schema.ColProvince] = r.Province
	case Province:
		props[schema.ColProvince] = r.Province
	}
	return props
}

func nullable(v float64) any {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}

// Collection joins regions to their shapes. Regions without a shape are
// left out and counted.
func Collection(regions []Region, shapes Shapes) (*geojson.FeatureCollection, int) {
	fc := geojson.NewFeatureCollection()
	dropped := 0
	for _, r := range regions {
		g, ok := shapes[r.Level][r.Key]
		if !ok {
			dropped++
			continue
		}
		f := geojson.NewFeature(g)
		f.Properties = r.Properties()
		fc.Append(f)
	}
	return fc, dropped
}
