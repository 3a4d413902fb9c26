package engine

import (
	"github.com/rs/zerolog"

	"github.com/spektr-org/covidnl/schema"
)

// ============================================================================
// ENGINE OPTIONS — Functional options for Execute()
// ============================================================================

// Option configures engine behavior via functional options pattern.
type Option func(*config)

type config struct {
	Logger zerolog.Logger
}

// WithLogger routes engine debug output to logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *config) {
		c.Logger = logger
	}
}

// applyOptions creates a config from functional options.
func applyOptions(opts []Option) *config {
	cfg := &config{Logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

func chartMetricKeys() []string {
	metrics := schema.ChartMetrics()
	keys := make([]string, len(metrics))
	for i, m := range metrics {
		keys[i] = m.Key
	}
	return keys
}
