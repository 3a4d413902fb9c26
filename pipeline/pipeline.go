// Package pipeline runs the batch stages: download the sources, prepare the
// cleaned dataset, aggregate it into map layers and export the workbook.
package pipeline

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/spektr-org/covidnl/clean"
	"github.com/spektr-org/covidnl/combine"
	"github.com/spektr-org/covidnl/config"
	"github.com/spektr-org/covidnl/dataset"
	"github.com/spektr-org/covidnl/geo"
	"github.com/spektr-org/covidnl/metrics"
	"github.com/spektr-org/covidnl/reconcile"
	"github.com/spektr-org/covidnl/report"
	"github.com/spektr-org/covidnl/schema"
	"github.com/spektr-org/covidnl/source"
	"github.com/spektr-org/covidnl/telemetry"
)

// Pipeline wires configuration, reconciliation rules and logging into the
// batch stages.
type Pipeline struct {
	cfg    *config.Config
	reg    *reconcile.Registry
	log    zerolog.Logger
	client *http.Client
	tracer trace.Tracer
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithHTTPClient replaces the download client.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Pipeline) { p.client = c }
}

// New validates cfg and builds a pipeline.
func New(cfg *config.Config, log zerolog.Logger, opts ...Option) (*Pipeline, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	reg, err := cfg.Registry()
	if err != nil {
		return nil, fmt.Errorf("reconcile: %w", err)
	}
	p := &Pipeline{
		cfg:    cfg,
		reg:    reg,
		log:    log,
		client: &http.Client{Timeout: cfg.Sources.Timeout},
		tracer: telemetry.Tracer("pipeline"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// stage runs fn inside a span, records its duration and logs the outcome.
func (p *Pipeline) stage(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, span := p.tracer.Start(ctx, name)
	defer span.End()

	stop := metrics.Timer(name)
	err := fn(ctx)
	elapsed := stop()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("%s: %w", name, err)
	}
	p.log.Info().Str("stage", name).Dur("elapsed", elapsed).Msg("stage complete")
	return nil
}

// ============================================================================
// DOWNLOAD
// ============================================================================

// Targets lists the configured downloads. Sources without a URL are
// expected to be present in the data directory already.
func (p *Pipeline) Targets() []source.Target {
	src, paths := p.cfg.Sources, p.cfg.Paths
	candidates := []source.Target{
		{URL: src.CasesURL, Path: paths.Cases},
		{URL: src.CasesArchiveURL, Path: paths.CasesArchive},
		{URL: src.HospitalURL, Path: paths.Hospital},
		{URL: src.HospitalArchiveURL, Path: paths.HospitalArchive},
		{URL: src.PopulationURL, Path: paths.Population},
		{URL: src.MunicipalitiesURL, Path: paths.Municipalities},
	}
	var out []source.Target
	for _, t := range candidates {
		if t.URL == "" || t.Path == "" {
			continue
		}
		out = append(out, source.Target{URL: t.URL, Path: paths.Resolve(t.Path)})
	}
	return out
}

// Download fetches every configured source file.
func (p *Pipeline) Download(ctx context.Context) error {
	return p.stage(ctx, "download", func(ctx context.Context) error {
		targets := p.Targets()
		trace.SpanFromContext(ctx).SetAttributes(attribute.Int("targets", len(targets)))
		d := source.NewDownloader(p.client, p.log, p.cfg.Sources.Concurrency)
		return d.DownloadAll(ctx, targets)
	})
}

// ============================================================================
// PREPARE
// ============================================================================

// PrepareResult reports what Prepare did.
type PrepareResult struct {
	Path       string
	Rows       int
	Cases      clean.Stats
	Hospital   clean.Stats
	Population clean.PopulationStats
	Joined     combine.Stats
	Incidence  combine.Stats
}

// Prepare loads the raw sources, cleans and joins them and writes the
// cleaned dataset. With download set the sources are fetched first.
func (p *Pipeline) Prepare(ctx context.Context, download bool) (*PrepareResult, error) {
	if download {
		if err := p.Download(ctx); err != nil {
			return nil, err
		}
	}

	paths := p.cfg.Paths
	res := &PrepareResult{Path: paths.Resolve(paths.Cleaned)}

	var (
		cases      []dataset.Case
		hospital   []dataset.Admission
		population []dataset.Population
		rows       []dataset.Daily
	)

	err := p.stage(ctx, "clean", func(context.Context) error {
		t, err := loadPair(paths, paths.Cases, paths.CasesArchive, schema.RawCases)
		if err != nil {
			return err
		}
		cases, res.Cases = clean.Cases(t, p.reg)
		p.logStats("cases", res.Cases)

		t, err = loadPair(paths, paths.Hospital, paths.HospitalArchive, schema.RawHospital)
		if err != nil {
			return err
		}
		hospital, res.Hospital = clean.Hospital(t, p.reg)
		p.logStats("hospital", res.Hospital)

		t, err = source.LoadPopulation(paths.Resolve(paths.Population))
		if err != nil {
			return err
		}
		population, res.Population = clean.Population(t, p.reg)
		p.log.Info().
			Str("dataset", "population").
			Int("read", res.Population.Read).
			Int("not_municipal", res.Population.NotMunicipal).
			Int("missing", res.Population.MissingValue).
			Int("fused", res.Population.Fused).
			Int("years_split", res.Population.Redistributed.YearsSplit).
			Int("output", res.Population.Output).
			Msg("cleaned")
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = p.stage(ctx, "combine", func(context.Context) error {
		joined, st := combine.CasesAndHospital(cases, hospital)
		res.Joined = st
		rows, res.Incidence = combine.WithPopulation(joined, population)
		p.log.Info().
			Int("cases_unmatched", res.Joined.CasesUnmatched).
			Int("hospital_unmatched", res.Joined.HospitalUnmatched).
			Int("missing_population", res.Incidence.MissingPopulation).
			Int("rows", len(rows)).
			Msg("combined")
		if len(rows) == 0 {
			p.log.Warn().Msg("no municipality-day is present in both case and hospital data")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = p.stage(ctx, "write_cleaned", func(context.Context) error {
		return dataset.WriteFile(res.Path, rows)
	})
	if err != nil {
		return nil, err
	}
	res.Rows = len(rows)
	p.log.Info().Str("file", res.Path).Int("rows", res.Rows).Msg("wrote cleaned dataset")
	return res, nil
}

// loadPair reads the current file and, when configured, appends the archive.
func loadPair(paths config.Paths, current, archive string, sch schema.Config) (*source.Table, error) {
	if archive == "" {
		return source.ReadTableFile(paths.Resolve(current), sch)
	}
	if sch.Name == schema.RawHospital.Name {
		return source.LoadHospital(paths.Resolve(current), paths.Resolve(archive))
	}
	return source.LoadCases(paths.Resolve(current), paths.Resolve(archive))
}

func (p *Pipeline) logStats(name string, st clean.Stats) {
	p.log.Info().
		Str("dataset", name).
		Int("read", st.Read).
		Int("bad_date", st.BadDate).
		Int("missing_municipality", st.MissingMunicipality).
		Int("missing_province", st.MissingProvince).
		Int("fused", st.Fused).
		Int("output", st.Output).
		Msg("cleaned")
}

// ============================================================================
// AGGREGATE / EXPORT / LOAD
// ============================================================================

// LoadCleaned reads the cleaned dataset written by Prepare.
func (p *Pipeline) LoadCleaned(ctx context.Context) ([]dataset.Daily, error) {
	var rows []dataset.Daily
	err := p.stage(ctx, "load_cleaned", func(context.Context) error {
		var err error
		rows, err = dataset.ReadFile(p.cfg.Paths.Resolve(p.cfg.Paths.Cleaned))
		return err
	})
	return rows, err
}

// Aggregate reads the cleaned dataset and the municipality boundaries and
// writes the six map layers.
func (p *Pipeline) Aggregate(ctx context.Context) ([]geo.LayerStats, error) {
	rows, err := p.LoadCleaned(ctx)
	if err != nil {
		return nil, err
	}

	var stats []geo.LayerStats
	err = p.stage(ctx, "aggregate", func(ctx context.Context) error {
		paths, g := p.cfg.Paths, p.cfg.Geo
		boundaries, err := source.LoadBoundaries(paths.Resolve(paths.Municipalities), g.CodeProperty, g.NameProperty)
		if err != nil {
			return err
		}
		stats, err = geo.WriteAll(ctx, paths.Resolve(paths.GeoDir), rows, boundaries, p.log)
		return err
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// Export writes the summary workbook and returns its path.
func (p *Pipeline) Export(ctx context.Context) (string, error) {
	rows, err := p.LoadCleaned(ctx)
	if err != nil {
		return "", err
	}
	path := p.cfg.Paths.Resolve(p.cfg.Paths.Workbook)
	err = p.stage(ctx, "export", func(context.Context) error {
		return report.WriteFile(path, rows)
	})
	if err != nil {
		return "", err
	}
	return path, nil
}

// LoadAtlas reads the map layers written by Aggregate.
func (p *Pipeline) LoadAtlas(ctx context.Context) (*geo.Atlas, error) {
	var atlas *geo.Atlas
	err := p.stage(ctx, "load_atlas", func(ctx context.Context) error {
		var err error
		atlas, err = geo.LoadAtlas(ctx, p.cfg.Paths.Resolve(p.cfg.Paths.GeoDir))
		return err
	})
	return atlas, err
}
