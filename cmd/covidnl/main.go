package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/spektr-org/covidnl/config"
	"github.com/spektr-org/covidnl/logging"
	"github.com/spektr-org/covidnl/pipeline"
	"github.com/spektr-org/covidnl/telemetry"
)

// ============================================================================
// COVIDNL CLI — Dutch municipal COVID-19 data, cleaned, mapped and charted
// ============================================================================

var version = "0.1.0"

// app carries what every subcommand needs once the root has initialised.
type app struct {
	configPath string
	logLevel   string
	logFormat  string

	cfg      *config.Config
	log      zerolog.Logger
	shutdown func(context.Context) error
}

func (a *app) pipeline() (*pipeline.Pipeline, error) {
	return pipeline.New(a.cfg, a.log)
}

func newRootCmd() *cobra.Command {
	a := &app{log: zerolog.Nop()}

	root := &cobra.Command{
		Use:   "covidnl",
		Short: "COVID-19 per Dutch municipality: prepare, aggregate, chart and map",
		Long: `covidnl downloads the RIVM case and hospital admission files and the CBS
population table, reconciles them onto the current municipal map, computes
incidence per 100,000 inhabitants and writes data_cleaned.csv. From that file
it builds monthly and yearly GeoJSON layers per municipality, province and
country, and serves a chart and map dashboard.

Typical run:
  covidnl prepare --download
  covidnl aggregate
  covidnl serve`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("log-level") || cfg.App.LogLevel == "" {
				cfg.App.LogLevel = a.logLevel
			}
			if cmd.Flags().Changed("log-format") || cfg.App.LogFormat == "" {
				cfg.App.LogFormat = a.logFormat
			}
			a.cfg = cfg
			a.log = logging.NewWithWriter(cmd.ErrOrStderr(), cfg.App.LogLevel, cfg.App.LogFormat)

			a.shutdown, err = telemetry.Setup(cmd.Context(), cfg.App.OTelEndpoint)
			if err != nil {
				return fmt.Errorf("telemetry: %w", err)
			}
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.shutdown == nil {
				return nil
			}
			return a.shutdown(context.Background())
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "path to a YAML config file")
	pf.StringVar(&a.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	pf.StringVar(&a.logFormat, "log-format", "console", "log format: console or json")

	root.AddCommand(
		newDownloadCmd(a),
		newPrepareCmd(a),
		newAggregateCmd(a),
		newExportCmd(a),
		newChartCmd(a),
		newServeCmd(a),
		newVersionCmd(),
	)
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
