package main

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/spektr-org/covidnl/dashboard"
	"github.com/spektr-org/covidnl/engine"
	"github.com/spektr-org/covidnl/geo"
	"github.com/spektr-org/covidnl/render"
)

// ============================================================================
// PIPELINE COMMANDS
// ============================================================================

func newDownloadCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "download",
		Short: "Fetch the configured source files into the data directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.pipeline()
			if err != nil {
				return err
			}
			return p.Download(cmd.Context())
		},
	}
}

func newPrepareCmd(a *app) *cobra.Command {
	var download bool
	cmd := &cobra.Command{
		Use:   "prepare",
		Short: "Clean, reconcile and join the sources into data_cleaned.csv",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.pipeline()
			if err != nil {
				return err
			}
			res, err := p.Prepare(cmd.Context(), download)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d rows written to %s\n", res.Rows, res.Path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&download, "download", false, "download the sources first")
	return cmd
}

func newAggregateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "aggregate",
		Short: "Write the monthly and yearly GeoJSON layers per municipality, province and country",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.pipeline()
			if err != nil {
				return err
			}
			stats, err := p.Aggregate(cmd.Context())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, st := range stats {
				fmt.Fprintf(w, "%-40s %6d features", st.Path, st.Features)
				if st.Dropped > 0 {
					fmt.Fprintf(w, " (%d without geometry)", st.Dropped)
				}
				fmt.Fprintln(w)
			}
			return nil
		},
	}
}

func newExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Write a spreadsheet with yearly and monthly summaries",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.pipeline()
			if err != nil {
				return err
			}
			path, err := p.Export(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "workbook written to %s\n", path)
			return nil
		},
	}
}

// ============================================================================
// CHART
// ============================================================================

func newChartCmd(a *app) *cobra.Command {
	var (
		q       = engine.DefaultChartQuery()
		format  string
		outFile string
	)
	cmd := &cobra.Command{
		Use:   "chart",
		Short: "Aggregate the cleaned dataset the way the dashboard chart does",
		Example: `  covidnl chart --province Utrecht --aggregation Municipalities --format csv
  covidnl chart --year 2021 --aggregation Months --metric Total_reported --format svg --out cases.svg`,
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := q.Normalize()
			if err != nil {
				return err
			}

			p, err := a.pipeline()
			if err != nil {
				return err
			}
			rows, err := p.LoadCleaned(cmd.Context())
			if err != nil {
				return err
			}
			res, err := engine.Execute(engine.Plan(query), engine.BindDaily(rows), engine.WithLogger(a.log))
			if err != nil {
				return err
			}

			var buf bytes.Buffer
			if err := writeResult(&buf, query, res, format); err != nil {
				return err
			}
			if outFile == "" {
				_, err = buf.WriteTo(cmd.OutOrStdout())
				return err
			}
			if err := os.WriteFile(outFile, buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("write output file: %w", err)
			}
			a.log.Info().Str("file", outFile).Str("format", format).Msg("chart written")
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&q.Year, "year", q.Year, `year or "All"`)
	f.StringVar(&q.Province, "province", q.Province, `province, "Netherlands" or "All Provinces"`)
	f.StringVar(&q.Municipality, "municipality", q.Municipality, `municipality within --province, or "All"`)
	f.StringVar(&q.Aggregation, "aggregation", q.Aggregation, "Year, Municipalities or Months")
	f.StringSliceVar(&q.Metrics, "metric", q.Metrics, "metrics to include (repeatable)")
	f.StringVar(&format, "format", "json", "output format: json, pretty, csv, table, svg, png")
	f.StringVarP(&outFile, "out", "o", "", "write output to a file instead of stdout")
	return cmd
}

func writeResult(w io.Writer, q engine.ChartQuery, res *engine.Result, format string) error {
	switch format {
	case "json", "pretty":
		return writeJSON(w, chartOutput{Query: q, Result: res}, format)
	case "csv":
		return writeCSV(w, res)
	case "table":
		return writeTable(w, res)
	case "svg", "png":
		if res.ChartConfig == nil {
			return fmt.Errorf("nothing to render: %s", res.Summary)
		}
		return render.Write(w, res.ChartConfig, format, render.DefaultOptions())
	}
	return fmt.Errorf("%w: %q", render.ErrUnsupportedFormat, format)
}

// ============================================================================
// SERVE / VERSION
// ============================================================================

func newServeCmd(a *app) *cobra.Command {
	var (
		addr  string
		noMap bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the chart and map dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := a.pipeline()
			if err != nil {
				return err
			}
			rows, err := p.LoadCleaned(ctx)
			if err != nil {
				return err
			}

			var atlas *geo.Atlas
			if !noMap {
				atlas, err = p.LoadAtlas(ctx)
				if err != nil {
					a.log.Warn().Err(err).Msg("map layers unavailable, serving chart only")
					atlas = nil
				}
			}

			srv, err := dashboard.New(rows, atlas, a.log)
			if err != nil {
				return err
			}
			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			return srv.ListenAndServe(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().BoolVar(&noMap, "no-map", false, "serve the chart tab only")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "covidnl "+version)
		},
	}
}
