package pipeline

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spektr-org/covidnl/config"
	"github.com/spektr-org/covidnl/dataset"
	"github.com/spektr-org/covidnl/geo"
)

// ── Test Data ─────────────────────────────────────────────────────────────────

const (
	casesCurrent = `Date_of_publication;Municipality_code;Municipality_name;Province;Total_reported;Deceased
2021-01-10;GM0344;Utrecht;Utrecht;200;2
2021-01-10;GM0307;Amersfoort;Utrecht;80;0
`
	casesArchive = `Date_of_publication;Municipality_code;Municipality_name;Province;Total_reported;Deceased
2020-12-15;GM0344;Utrecht;Utrecht;100;1
`
	hospitalCurrent = `Date_of_statistics;Municipality_code;Municipality_name;Hospital_admission
2021-01-10;GM0344;Utrecht;6
2021-01-10;GM0307;Amersfoort;1
`
	hospitalArchive = `Date_of_statistics;Municipality_code;Municipality_name;Hospital_admission
2020-12-15;GM0344;Utrecht;5
2020-12-16;GM0344;Utrecht;3
`
	population = `ID;RegioS;Perioden;TotaleBevolking_1
1;GM0344;2020JJ00;360000
2;GM0344;2021JJ00;361000
3;GM0307;2021JJ00;158000
`
	boundaries = `{"type":"FeatureCollection","features":[
 {"type":"Feature","properties":{"statcode":"GM0344","statnaam":"Utrecht"},
  "geometry":{"type":"Polygon","coordinates":[[[5,52],[6,52],[6,53],[5,52]]]}},
 {"type":"Feature","properties":{"statcode":"GM0307","statnaam":"Amersfoort"},
  "geometry":{"type":"Polygon","coordinates":[[[6,52],[7,52],[7,53],[6,52]]]}}
]}`
)

func fixtureConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"cases_2.csv":                 casesCurrent,
		"cases_1.csv":                 casesArchive,
		"hosp_2.csv":                  hospitalCurrent,
		"hosp_1.csv":                  hospitalArchive,
		"population_data.csv":         population,
		"municipalities_2023.geojson": boundaries,
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}

	cfg := config.Default()
	cfg.Paths.DataDir = dir
	cfg.Sources = config.Sources{Concurrency: 2}
	return cfg
}

func newPipeline(t *testing.T, cfg *config.Config, opts ...Option) *Pipeline {
	t.Helper()
	p, err := New(cfg, zerolog.Nop(), opts...)
	require.NoError(t, err)
	return p
}

// ============================================================================
// PREPARE
// ============================================================================

func TestPrepareWritesCleanedDataset(t *testing.T) {
	cfg := fixtureConfig(t)
	p := newPipeline(t, cfg)

	res, err := p.Prepare(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cfg.Paths.DataDir, "data_cleaned.csv"), res.Path)
	assert.Equal(t, 3, res.Rows)
	assert.Equal(t, 3, res.Cases.Output)
	assert.Equal(t, 0, res.Joined.CasesUnmatched)
	assert.Equal(t, 0, res.Incidence.MissingPopulation)

	rows, err := dataset.ReadFile(res.Path)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "2020-12-15", rows[0].Date.Format(dataset.DateLayout))
	assert.Equal(t, "GM0344", rows[0].Code)
	assert.Equal(t, 5, rows[0].HospitalAdmission)
	assert.InDelta(t, 100.0/360000*100000, rows[0].IncidenceCases, 1e-6)

	assert.Equal(t, "GM0307", rows[1].Code)
	assert.Equal(t, "Utrecht", rows[1].Province)
	assert.Equal(t, 158000.0, rows[1].Population)
	assert.Equal(t, "GM0344", rows[2].Code)
}

func TestPrepareMissingSource(t *testing.T) {
	cfg := fixtureConfig(t)
	require.NoError(t, os.Remove(filepath.Join(cfg.Paths.DataDir, "hosp_1.csv")))

	_, err := newPipeline(t, cfg).Prepare(context.Background(), false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "clean:")
}

func TestPrepareWithoutArchives(t *testing.T) {
	cfg := fixtureConfig(t)
	cfg.Paths.CasesArchive = ""
	cfg.Paths.HospitalArchive = ""

	res, err := newPipeline(t, cfg).Prepare(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Rows)
}

// ============================================================================
// AGGREGATE / EXPORT
// ============================================================================

func TestAggregateAndLoadAtlas(t *testing.T) {
	cfg := fixtureConfig(t)
	p := newPipeline(t, cfg)
	ctx := context.Background()

	_, err := p.Prepare(ctx, false)
	require.NoError(t, err)

	stats, err := p.Aggregate(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 6)
	assert.Equal(t, geo.Municipality, stats[0].Level)
	assert.Equal(t, geo.Monthly, stats[0].Period)
	assert.Equal(t, 3, stats[0].Features)
	assert.Zero(t, stats[0].Dropped)

	atlas, err := p.LoadAtlas(ctx)
	require.NoError(t, err)
	layer, err := atlas.Layer(geo.Province, geo.Yearly)
	require.NoError(t, err)
	assert.Equal(t, []string{"2020", "2021"}, layer.Dates())
}

func TestAggregateWithoutCleanedDataset(t *testing.T) {
	_, err := newPipeline(t, fixtureConfig(t)).Aggregate(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load_cleaned:")
}

func TestExport(t *testing.T) {
	cfg := fixtureConfig(t)
	p := newPipeline(t, cfg)
	ctx := context.Background()

	_, err := p.Prepare(ctx, false)
	require.NoError(t, err)

	path, err := p.Export(ctx)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cfg.Paths.DataDir, "covid_summary.xlsx"), path)
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

// ============================================================================
// DOWNLOAD
// ============================================================================

func TestTargetsSkipEmptyURLs(t *testing.T) {
	cfg := config.Default()
	targets := newPipeline(t, cfg).Targets()
	require.Len(t, targets, 4)
	assert.Equal(t, cfg.Sources.CasesURL, targets[0].URL)
	assert.Equal(t, filepath.Join("data", "cases_2.csv"), targets[0].Path)
}

func TestPrepareDownloadsFirst(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/cases.csv":
			_, _ = w.Write([]byte(casesCurrent))
		case "/hospital.csv":
			_, _ = w.Write([]byte(hospitalCurrent))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	cfg := fixtureConfig(t)
	cfg.Paths.CasesArchive = ""
	cfg.Paths.HospitalArchive = ""
	require.NoError(t, os.Remove(filepath.Join(cfg.Paths.DataDir, "cases_2.csv")))
	cfg.Sources.CasesURL = srv.URL + "/cases.csv"
	cfg.Sources.HospitalURL = srv.URL + "/hospital.csv"

	p := newPipeline(t, cfg, WithHTTPClient(srv.Client()))
	require.Len(t, p.Targets(), 2)

	res, err := p.Prepare(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Rows)
}

func TestDownloadFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	cfg := fixtureConfig(t)
	cfg.Sources.CasesURL = srv.URL + "/missing.csv"

	err := newPipeline(t, cfg, WithHTTPClient(srv.Client())).Download(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "download:")
}

func TestNewRejectsNilConfig(t *testing.T) {
	_, err := New(nil, zerolog.Nop())
	assert.Error(t, err)
}
