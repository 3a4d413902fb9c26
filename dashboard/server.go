// Package dashboard serves the chart and map tabs over HTTP.
package dashboard

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/spektr-org/covidnl/dataset"
	"github.com/spektr-org/covidnl/engine"
	"github.com/spektr-org/covidnl/geo"
	"github.com/spektr-org/covidnl/metrics"
)

//go:embed templates/*.html
var templates embed.FS

const shutdownTimeout = 5 * time.Second

// Server is the read-only dashboard over the cleaned rows and the map atlas.
// A nil atlas disables the map endpoints.
type Server struct {
	view    engine.RecordView
	options Options
	atlas   *geo.Atlas
	log     zerolog.Logger
	router  *gin.Engine
}

// New builds the dashboard. rows must not be modified afterwards.
func New(rows []dataset.Daily, atlas *geo.Atlas, log zerolog.Logger) (*Server, error) {
	tmpl, err := template.ParseFS(templates, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	s := &Server{
		view:    engine.BindDaily(rows),
		options: buildOptions(rows),
		atlas:   atlas,
		log:     log,
	}

	r := gin.New()
	r.Use(gin.Recovery(), s.observe())
	r.SetHTMLTemplate(tmpl)

	r.GET("/", s.index)
	r.GET("/healthz", s.healthz)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group("/api")
	api.GET("/options", s.chartOptions)
	api.GET("/municipalities", s.municipalities)
	api.GET("/chart", s.chart)
	api.GET("/map/dates", s.mapDates)
	api.GET("/map", s.mapView)

	r.GET("/chart.svg", s.chartImage("svg"))
	r.GET("/chart.png", s.chartImage("png"))

	s.router = r
	return s, nil
}

// Handler exposes the router, e.g. for httptest.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe runs the HTTP server until the context ends.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	s.log.Info().Str("addr", addr).Bool("map", s.atlas != nil).Msg("dashboard listening")
	go func() {
		serveErr <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		err := httpServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}

// observe counts and logs every request by route and status.
func (s *Server) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		metrics.Requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
		s.log.Debug().
			Str("method", c.Request.Method).
			Str("route", route).
			Int("status", status).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	}
}
