package web

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func NewRouter(h *Handler, logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger.With().Str("component", "http").Logger()))

	r.GET("/", h.Index)
	r.GET("/health", h.Health)
	r.GET("/stats", h.Stats)

	api := r.Group("/api")
	{
		api.GET("/recent", h.Recent)
		api.GET("/recent.geojson", h.RecentGeoJSON)
	}
	return r
}

// requestLogger logs every request at debug, keep-alive probes included, and
// anything that failed at warn.
func requestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		ev := logger.Debug()
		if status >= 500 || len(c.Errors) > 0 {
			ev = logger.Warn()
			if err := c.Errors.Last(); err != nil {
				ev = ev.Err(err.Err)
			}
		}
		ev.Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}
