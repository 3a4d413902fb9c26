// Package metrics exposes Prometheus collectors for the pipeline and the
// dashboard.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RowsLoaded = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "covidnl_rows_loaded_total", Help: "Raw rows read per dataset"},
		[]string{"dataset"},
	)
	RowsDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "covidnl_rows_dropped_total", Help: "Rows discarded during cleaning and joining"},
		[]string{"dataset", "reason"},
	)
	Reconciled = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "covidnl_municipalities_reconciled_total", Help: "Rows re-labelled or redistributed by municipality reconciliation"},
		[]string{"dataset", "kind"},
	)
	Downloads = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "covidnl_downloads_total", Help: "Source downloads by outcome"},
		[]string{"outcome"},
	)
	StageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "covidnl_stage_duration_seconds",
			Help:    "Wall time per pipeline stage",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
		},
		[]string{"stage"},
	)
	Requests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "covidnl_dashboard_requests_total", Help: "Dashboard requests by route and status"},
		[]string{"route", "status"},
	)
)

func init() {
	prometheus.MustRegister(RowsLoaded, RowsDropped, Reconciled, Downloads, StageDuration, Requests)
}

// Timer observes the elapsed time of a stage when the returned func is called.
func Timer(stage string) func() time.Duration {
	start := time.Now()
	return func() time.Duration {
		d := time.Since(start)
		StageDuration.WithLabelValues(stage).Observe(d.Seconds())
		return d
	}
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
