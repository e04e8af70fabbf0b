package http

import (
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"pairlink/internal/infrastructure/middleware"
	"pairlink/internal/infrastructure/monitoring"
	"pairlink/internal/infrastructure/signal"
	"pairlink/pkg/config"
)

// NewRouter wires the HTTP surface around the core: the signaling
// endpoint, health, metrics and the static demo client. None of the
// routes besides /ws touch room state.
func NewRouter(cfg *config.Config, ws *signal.WebSocketServer, health *monitoring.Health, logger *zap.SugaredLogger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.LoggingMiddleware(logger))
	if cfg.Tracing.Enabled {
		r.Use(middleware.TracingMiddleware())
	}

	r.GET("/ws", middleware.NewUpgradeRateLimitMiddleware(cfg), gin.WrapF(ws.HandleWebSocket))
	r.GET("/health", health.Handler())

	if cfg.Monitoring.PrometheusEnabled {
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	if cfg.Signal.StaticDir != "" {
		r.Static("/static", cfg.Signal.StaticDir)
		r.StaticFile("/", filepath.Join(cfg.Signal.StaticDir, "index.html"))
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	return r
}
