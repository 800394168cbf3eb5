// Package http exposes the consolidation service over a gin REST facade.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/PatentCliff/internal/config"
	"github.com/turtacn/PatentCliff/internal/infrastructure/monitoring/logging"
	prom "github.com/turtacn/PatentCliff/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/PatentCliff/internal/interfaces/http/handlers"
	"github.com/turtacn/PatentCliff/internal/interfaces/http/middleware"
	"github.com/turtacn/PatentCliff/pkg/errors"
)

// RouterConfig aggregates the handler and middleware dependencies of the
// route tree.
type RouterConfig struct {
	Server config.ServerConfig

	// Handlers
	ConsolidationHandler *handlers.ConsolidationHandler
	HealthHandler        *handlers.HealthHandler

	// Infrastructure
	Logger         logging.Logger
	Metrics        *prom.ConsolidationMetrics
	MetricsHandler http.Handler
}

// NewRouter builds the gin engine.  Probes and /metrics sit outside the
// rate limiter and body limit; /api/v1 gets both.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true

	// --- Global middleware (applied to every request) ---
	r.Use(
		middleware.RequestID(),
		middleware.Recovery(logger),
		middleware.RequestLogging(logger.Named("http"), middleware.DefaultLoggingConfig()),
		middleware.Metrics(cfg.Metrics),
		middleware.CORS(cfg.Server.CORSOrigins),
	)

	// --- Public health endpoints ---
	if cfg.HealthHandler != nil {
		cfg.HealthHandler.RegisterRoutes(r)
	}
	if cfg.MetricsHandler != nil {
		r.GET("/metrics", gin.WrapH(cfg.MetricsHandler))
	}

	// --- API v1 ---
	limiter := middleware.NewRateLimiter(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.Server.RateLimit,
		Burst:             cfg.Server.RateBurst,
	})
	api := r.Group("/api/v1",
		limiter.Middleware(),
		middleware.BodyLimit(cfg.Server.MaxBodySize),
		middleware.Timeout(cfg.Server.RequestTimeout),
	)
	if cfg.ConsolidationHandler != nil {
		cfg.ConsolidationHandler.RegisterRoutes(api)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, handlers.ErrorResponse{Code: string(errors.ErrCodeNotFound), Message: "route not found"})
	})
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, handlers.ErrorResponse{Code: string(errors.ErrCodeBadRequest), Message: "method not allowed"})
	})
	return r
}

//Personal.AI order the ending
