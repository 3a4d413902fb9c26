package dashboard

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/spektr-org/covidnl/engine"
	"github.com/spektr-org/covidnl/geo"
	"github.com/spektr-org/covidnl/render"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error string `json:"error"`
}

func (s *Server) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, engine.ErrUnknownAggregation),
		errors.Is(err, engine.ErrUnknownMetric),
		errors.Is(err, engine.ErrInvalidYear),
		errors.Is(err, geo.ErrUnknownLevel),
		errors.Is(err, geo.ErrUnknownPeriod),
		errors.Is(err, geo.ErrUnknownStatistic),
		errors.Is(err, render.ErrUnsupportedFormat):
		status = http.StatusBadRequest
	case errors.Is(err, geo.ErrNoData):
		status = http.StatusNotFound
	default:
		s.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
	}
	c.AbortWithStatusJSON(status, errorBody{Error: err.Error()})
}

// ============================================================================
// PAGE
// ============================================================================

func (s *Server) index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{
		"Title":      "COVID-19 in the Netherlands",
		"MapEnabled": s.atlas != nil,
	})
}

func (s *Server) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"rows":   s.view.Len(),
		"map":    s.atlas != nil,
	})
}

// ============================================================================
// CHART TAB
// ============================================================================

func (s *Server) chartOptions(c *gin.Context) {
	c.JSON(http.StatusOK, s.options)
}

func (s *Server) municipalities(c *gin.Context) {
	names, enabled := s.options.municipalityChoices(c.Query("province"))
	c.JSON(http.StatusOK, gin.H{"municipalities": names, "enabled": enabled})
}

func (s *Server) runChart(c *gin.Context) (*engine.Result, error) {
	var q engine.ChartQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		return nil, err
	}
	q, err := q.Normalize()
	if err != nil {
		return nil, err
	}
	return engine.Execute(engine.Plan(q), s.view, engine.WithLogger(s.log))
}

func (s *Server) chart(c *gin.Context) {
	res, err := s.runChart(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) chartImage(format string) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := s.runChart(c)
		if err != nil {
			s.fail(c, err)
			return
		}
		if res.ChartConfig == nil {
			c.Status(http.StatusNoContent)
			return
		}

		var buf bytes.Buffer
		if err := render.Write(&buf, res.ChartConfig, format, render.DefaultOptions()); err != nil {
			s.fail(c, err)
			return
		}
		c.Data(http.StatusOK, render.ContentType(format), buf.Bytes())
	}
}

// ============================================================================
// MAP TAB
// ============================================================================

func (s *Server) requireAtlas(c *gin.Context) bool {
	if s.atlas == nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, errorBody{Error: "map data not loaded; run the aggregate command"})
		return false
	}
	return true
}

func (s *Server) mapDates(c *gin.Context) {
	if !s.requireAtlas(c) {
		return
	}
	def := geo.DefaultMapQuery()
	l, err := geo.ParseLevel(c.DefaultQuery("level", def.Level))
	if err != nil {
		s.fail(c, err)
		return
	}
	p, err := geo.ParsePeriod(c.DefaultQuery("aggregation", def.Aggregation))
	if err != nil {
		s.fail(c, err)
		return
	}
	layer, err := s.atlas.Layer(l, p)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"dates": layer.Dates()})
}

func (s *Server) mapView(c *gin.Context) {
	if !s.requireAtlas(c) {
		return
	}
	var q geo.MapQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		s.fail(c, err)
		return
	}
	view, err := s.atlas.Render(q)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
