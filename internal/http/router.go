// Package http exposes the remapper as a Gin HTTP service.
package http

import (
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"go.ngs.io/vertint/internal/metrics"
)

// SetupRouter creates and configures the Gin router. An empty origin list allows all
// origins.
func SetupRouter(handler *Handler, allowedOrigins []string, gatherer prometheus.Gatherer, m *metrics.Collector) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery(), requestMetrics(m))

	// Setup CORS middleware.
	corsConfig := cors.DefaultConfig()
	if len(allowedOrigins) > 0 {
		corsConfig.AllowOrigins = allowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	router.Use(cors.New(corsConfig))

	// API v1 routes.
	v1 := router.Group("/v1")
	v1.POST("/remap", handler.PostRemap)
	v1.GET("/operators", handler.GetOperators)

	levels := v1.Group("/levels")
	levels.GET("", handler.GetLevelLists)
	levels.GET("/default", handler.GetDefaultLevels)

	// Health check and metrics.
	router.GET("/health", handler.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	return router
}

// requestMetrics records the duration and status of every routed request.
func requestMetrics(m *metrics.Collector) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		m.RecordAPIRequest(endpoint, c.Request.Method, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
