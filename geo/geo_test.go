package geo

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/covidnl/dataset"
	"github.com/spektr-org/covidnl/schema"
	"github.com/spektr-org/covidnl/source"
)

// ── Test Data ─────────────────────────────────────────────────────────────────

func daily(date, code, name, province string, pop float64, cases, deaths, hosp int) dataset.Daily {
	d, _ := time.Parse(dataset.DateLayout, date)
	return dataset.Daily{
		Date: d, Code: code, Name: name, Province: province, Population: pop,
		TotalReported: cases, Deceased: deaths, HospitalAdmission: hosp,
	}
}

func fixtureRows() []dataset.Daily {
	return []dataset.Daily{
		daily("2020-12-15", "GM0344", "Utrecht", "Utrecht", 360000, 100, 1, 5),
		daily("2021-01-10", "GM0344", "Utrecht", "Utrecht", 361000, 200, 2, 6),
		daily("2021-01-11", "GM0344", "Utrecht", "Utrecht", 361000, 50, 0, 1),
		daily("2021-01-10", "GM0307", "Amersfoort", "Utrecht", 158000, 80, 0, 1),
		daily("2021-02-01", "GM0599", "Rotterdam", "Zuid-Holland", math.NaN(), 10, 0, 0),
		daily("2021-02-01", "GM9999", "Nowhere", "Zuid-Holland", 1000, 1, 0, 0),
	}
}

func square(x, y float64) orb.Polygon {
	return orb.Polygon{{{x, y}, {x + 1, y}, {x + 1, y + 1}, {x, y + 1}, {x, y}}}
}

func fixtureBoundaries() source.Boundaries {
	return source.Boundaries{
		"GM0344": {Code: "GM0344", Name: "Utrecht", Geometry: square(5, 52)},
		"GM0307": {Code: "GM0307", Name: "Amersfoort", Geometry: square(6, 52)},
		"GM0599": {Code: "GM0599", Name: "Rotterdam", Geometry: orb.MultiPolygon{square(4, 51), square(3, 51)}},
	}
}

func find(t *testing.T, regions []Region, key string, start string) Region {
	t.Helper()
	for _, r := range regions {
		if r.Key == key && r.Start.Format(dataset.DateLayout) == start {
			return r
		}
	}
	t.Fatalf("no region %s at %s", key, start)
	return Region{}
}

// ============================================================================
// LEVELS AND PERIODS
// ============================================================================

func TestFileNames(t *testing.T) {
	assert.Equal(t, "agg_mun_monthly.geojson", FileName(Municipality, Monthly))
	assert.Equal(t, "agg_prov_yearly.geojson", FileName(Province, Yearly))
	assert.Equal(t, "agg_nl_monthly.geojson", FileName(National, Monthly))
}

func TestParseLevelAndPeriod(t *testing.T) {
	l, err := ParseLevel("province")
	require.NoError(t, err)
	assert.Equal(t, Province, l)
	_, err = ParseLevel("county")
	assert.ErrorIs(t, err, ErrUnknownLevel)

	p, err := ParsePeriod("Yearly")
	require.NoError(t, err)
	assert.Equal(t, Yearly, p)
	_, err = ParsePeriod("weekly")
	assert.ErrorIs(t, err, ErrUnknownPeriod)

	ts := time.Date(2021, 3, 17, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "2021-03", Monthly.Format(Monthly.Start(ts)))
	assert.Equal(t, "2021", Yearly.Format(Yearly.Start(ts)))
	assert.Equal(t, time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC), Yearly.Start(ts))
}

// ============================================================================
// AGGREGATION
// ============================================================================

func TestAggregateMunicipalityMonthly(t *testing.T) {
	regions := Aggregate(fixtureRows(), Municipality, Monthly)
	require.Len(t, regions, 5)

	utrecht := find(t, regions, "GM0344", "2021-01-01")
	assert.Equal(t, 250, utrecht.TotalReported)
	assert.Equal(t, 2, utrecht.Deceased)
	assert.Equal(t, 7, utrecht.HospitalAdmission)
	assert.Equal(t, 361000.0, utrecht.Population)
	assert.InDelta(t, 250.0/361000*100000, utrecht.IncidenceCases(), 1e-9)
	assert.Equal(t, "Utrecht", utrecht.Province)

	assert.Equal(t, "2020-12-01", regions[0].Start.Format(dataset.DateLayout), "sorted by period first")
}

func TestAggregateProvinceYearlySumsDistinctMunicipalities(t *testing.T) {
	regions := Aggregate(fixtureRows(), Province, Yearly)
	require.Len(t, regions, 3)

	ut := find(t, regions, "Utrecht", "2021-01-01")
	assert.Equal(t, 330, ut.TotalReported)
	assert.Equal(t, 519000.0, ut.Population)
	assert.InDelta(t, 330.0/519000*100000, ut.IncidenceCases(), 1e-9)

	zh := find(t, regions, "Zuid-Holland", "2021-01-01")
	assert.Equal(t, 1000.0, zh.Population, "unknown populations are skipped")
}

func TestAggregateNational(t *testing.T) {
	regions := Aggregate(fixtureRows(), National, Yearly)
	require.Len(t, regions, 2)
	assert.Equal(t, NationalName, regions[1].Name)
	assert.Equal(t, 341, regions[1].TotalReported)
	assert.Equal(t, 520000.0, regions[1].Population)
}

func TestAggregateUnknownPopulation(t *testing.T) {
	regions := Aggregate(fixtureRows(), Municipality, Yearly)
	rdam := find(t, regions, "GM0599", "2021-01-01")
	assert.True(t, math.IsNaN(rdam.Population))

	props := rdam.Properties()
	assert.Nil(t, props[schema.ColPopulationClean])
	assert.Nil(t, props[schema.ColIncidenceCases])
	assert.Equal(t, 10, props[schema.ColTotalReported])
	assert.Equal(t, "2021-01-01", props[schema.ColDate])
	assert.Equal(t, "Rotterdam", props[schema.ColMunicipalityName])
}

// ============================================================================
// GEOMETRY
// ============================================================================

func TestBuildShapes(t *testing.T) {
	shapes := BuildShapes(fixtureRows(), fixtureBoundaries())

	ut, ok := shapes[Province]["Utrecht"].(orb.MultiPolygon)
	require.True(t, ok)
	assert.Len(t, ut, 2)

	zh, ok := shapes[Province]["Zuid-Holland"].(orb.MultiPolygon)
	require.True(t, ok)
	assert.Len(t, zh, 2, "a member MultiPolygon contributes every part")

	nl, ok := shapes[National][NationalKey].(orb.MultiPolygon)
	require.True(t, ok)
	assert.Len(t, nl, 4)
}

func TestCollectionDropsRegionsWithoutGeometry(t *testing.T) {
	rows := fixtureRows()
	fc, dropped := Collection(Aggregate(rows, Municipality, Monthly), BuildShapes(rows, fixtureBoundaries()))
	assert.Equal(t, 1, dropped)
	assert.Len(t, fc.Features, 4)
}

// ============================================================================
// WRITE + ATLAS
// ============================================================================

func writeFixture(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "geodata")
	stats, err := WriteAll(context.Background(), dir, fixtureRows(), fixtureBoundaries(), zerolog.Nop())
	require.NoError(t, err)
	require.Len(t, stats, 6)
	assert.Equal(t, Municipality, stats[0].Level)
	assert.Equal(t, Monthly, stats[0].Period)
	assert.Equal(t, 4, stats[0].Features)
	assert.Equal(t, 1, stats[0].Dropped)
	assert.Equal(t, National, stats[5].Level)
	assert.Equal(t, 2, stats[5].Features)
	return dir
}

func TestWriteAllCreatesSixFiles(t *testing.T) {
	dir := writeFixture(t)
	for _, l := range Levels {
		for _, p := range Periods {
			_, err := os.Stat(filepath.Join(dir, FileName(l, p)))
			assert.NoError(t, err, FileName(l, p))
		}
	}
}

func TestLoadAtlasAndRender(t *testing.T) {
	atlas, err := LoadAtlas(context.Background(), writeFixture(t))
	require.NoError(t, err)

	layer, err := atlas.Layer(Municipality, Yearly)
	require.NoError(t, err)
	assert.Equal(t, []string{"2020", "2021"}, layer.Dates())

	monthly, err := atlas.Layer(Province, Monthly)
	require.NoError(t, err)
	assert.Equal(t, []string{"2020-12", "2021-01", "2021-02"}, monthly.Dates())

	// defaults: Municipality, yearly, Incidence_rate_cases, first date
	view, err := atlas.Render(MapQuery{})
	require.NoError(t, err)
	assert.Equal(t, "2020", view.Date)
	require.Len(t, view.Features.Features, 1)
	props := view.Features.Features[0].Properties
	assert.Equal(t, "#ffffd9", props["fill"])
	assert.Equal(t, "Utrecht<br>Incidence rate cases: 27.78", props["tooltip_text"])
	assert.Equal(t, "Name: Utrecht", props["popup_text"])
	_, hasDate := props[schema.ColDate]
	assert.False(t, hasDate)
}

func TestRenderColoursAndNoData(t *testing.T) {
	atlas, err := LoadAtlas(context.Background(), writeFixture(t))
	require.NoError(t, err)

	view, err := atlas.Render(MapQuery{Level: "Municipality", Aggregation: "yearly", Stat: schema.ColTotalReported, Date: "2021"})
	require.NoError(t, err)
	byName := map[string]geojson.Properties{}
	for _, f := range view.Features.Features {
		byName[f.Properties.MustString(schema.ColMunicipalityName)] = f.Properties
	}
	assert.Equal(t, "#081d58", byName["Utrecht"]["fill"])
	assert.Equal(t, "#ffffd9", byName["Rotterdam"]["fill"])
	assert.Equal(t, "Utrecht<br>Total reported: 250", byName["Utrecht"]["tooltip_text"])
	require.NotNil(t, view.Legend.Min)
	assert.Equal(t, 10.0, *view.Legend.Min)
	assert.Equal(t, 250.0, *view.Legend.Max)

	view, err = atlas.Render(MapQuery{Stat: schema.ColIncidenceCases, Date: "2021"})
	require.NoError(t, err)
	for _, f := range view.Features.Features {
		if f.Properties.MustString(schema.ColMunicipalityName) == "Rotterdam" {
			assert.Equal(t, NoDataColor, f.Properties["fill"])
			assert.Equal(t, "Rotterdam: no data", f.Properties["tooltip_text"])
		}
	}

	national, err := atlas.Render(MapQuery{Level: "National", Aggregation: "yearly", Stat: schema.ColDeceased, Date: "2021"})
	require.NoError(t, err)
	require.Len(t, national.Features.Features, 1)
	assert.Equal(t, "The Netherlands<br>Deceased: 2", national.Features.Features[0].Properties["tooltip_text"])
}

func TestRenderErrors(t *testing.T) {
	atlas, err := LoadAtlas(context.Background(), writeFixture(t))
	require.NoError(t, err)

	_, err = atlas.Render(MapQuery{Level: "Street"})
	assert.ErrorIs(t, err, ErrUnknownLevel)
	_, err = atlas.Render(MapQuery{Stat: "Population"})
	assert.ErrorIs(t, err, ErrUnknownStatistic)
	_, err = atlas.Render(MapQuery{Date: "1999"})
	assert.ErrorIs(t, err, ErrNoData)

	_, err = NewAtlas().Layer(Municipality, Yearly)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestLoadAtlasMissingDir(t *testing.T) {
	_, err := LoadAtlas(context.Background(), filepath.Join(t.TempDir(), "absent"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

// ============================================================================
// COLOUR AND TOOLTIP
// ============================================================================

func TestColormap(t *testing.T) {
	cm := NewColormap(0, 8)
	assert.Equal(t, "#ffffd9", cm.Color(0))
	assert.Equal(t, "#41b6c4", cm.Color(4))
	assert.Equal(t, "#081d58", cm.Color(8))
	assert.Equal(t, "#081d58", cm.Color(100))
	assert.Equal(t, NoDataColor, cm.Color(math.NaN()))
	assert.Len(t, cm.Colors(), 9)

	flat := NewColormap(5, 5)
	assert.Equal(t, "#ffffd9", flat.Color(5))
}

func TestTooltip(t *testing.T) {
	assert.Equal(t, "Utrecht<br>Incidence rate cases: 1,234.57", Tooltip("Utrecht", schema.ColIncidenceCases, 1234.567))
	assert.Equal(t, "Utrecht<br>Total reported: 12,345", Tooltip("Utrecht", schema.ColTotalReported, 12345))
	assert.Equal(t, "Utrecht: no data", Tooltip("Utrecht", schema.ColTotalReported, math.NaN()))
	assert.Equal(t, "Name: &#39;s-Gravenhage", Popup("'s-Gravenhage"))
}
