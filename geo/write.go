package geo

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/spektr-org/covidnl/dataset"
	"github.com/spektr-org/covidnl/metrics"
	"github.com/spektr-org/covidnl/source"
)

// LayerStats describes one written layer.
type LayerStats struct {
	Level    Level
	Period   Period
	Path     string
	Features int
	Dropped  int // regions without geometry
}

// WriteAll aggregates rows at every level and period and writes the six
// layer files into dir. Layers are built concurrently.
func WriteAll(ctx context.Context, dir string, rows []dataset.Daily, b source.Boundaries, log zerolog.Logger) ([]LayerStats, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", dir, err)
	}
	shapes := BuildShapes(rows, b)

	var (
		mu    sync.Mutex
		stats []LayerStats
	)
	g, ctx := errgroup.WithContext(ctx)
	for _, l := range Levels {
		for _, p := range Periods {
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				st, err := writeLayer(dir, rows, shapes, l, p)
				if err != nil {
					return err
				}
				log.Info().
					Str("file", st.Path).
					Int("features", st.Features).
					Int("dropped", st.Dropped).
					Msg("wrote layer")

				mu.Lock()
				stats = append(stats, st)
				mu.Unlock()
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(stats, func(i, j int) bool { return layerIndex(stats[i]) < layerIndex(stats[j]) })
	return stats, nil
}

func writeLayer(dir string, rows []dataset.Daily, shapes Shapes, l Level, p Period) (LayerStats, error) {
	fc, dropped := Collection(Aggregate(rows, l, p), shapes)
	data, err := fc.MarshalJSON()
	if err != nil {
		return LayerStats{}, fmt.Errorf("encode %s layer: %w", FileName(l, p), err)
	}

	path := filepath.Join(dir, FileName(l, p))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return LayerStats{}, fmt.Errorf("write %s: %w", path, err)
	}

	metrics.RowsDropped.WithLabelValues("geo_"+l.abbrev(), "no_geometry").Add(float64(dropped))
	return LayerStats{Level: l, Period: p, Path: path, Features: len(fc.Features), Dropped: dropped}, nil
}

func layerIndex(st LayerStats) int {
	return slices.Index(Levels, st.Level)*len(Periods) + slices.Index(Periods, st.Period)
}
