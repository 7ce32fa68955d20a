package router

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	httpmetrics "github.com/jwalitptl/admin-dashboard/internal/handler/prometheus"
	"github.com/jwalitptl/admin-dashboard/internal/middleware"
	apperrors "github.com/jwalitptl/admin-dashboard/pkg/errors"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

type RouterConfig struct {
	Mode         string
	CORSConfig   middleware.CORSConfig
	RateLimit    *middleware.RateLimiterConfig
	MaxBodyBytes int64
}

type Router struct {
	engine     *gin.Engine
	logger     zerolog.Logger
	auth       *middleware.AuthMiddleware
	healthH    Handler
	dashboardH Handler
}

// NewRouter builds the engine with the core middleware chain. A nil auth
// leaves the dashboard routes open and a nil RateLimit disables limiting.
func NewRouter(
	logger zerolog.Logger,
	metrics *httpmetrics.Handler,
	auth *middleware.AuthMiddleware,
	healthH Handler,
	dashboardH Handler,
	config RouterConfig,
) *Router {
	if config.Mode != "" {
		gin.SetMode(config.Mode)
	}
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = middleware.DefaultMaxBodySize
	}

	engine := gin.New()

	r := &Router{
		engine:     engine,
		logger:     logger,
		auth:       auth,
		healthH:    healthH,
		dashboardH: dashboardH,
	}

	engine.Use(
		middleware.Recovery(logger),
		middleware.RequestID(logger),
		middleware.Logger(logger),
		middleware.ErrorHandler(logger),
	)
	if metrics != nil {
		engine.Use(metrics.Middleware())
	}
	engine.Use(
		middleware.SecurityHeaders(),
		middleware.CORS(config.CORSConfig),
	)
	if config.RateLimit != nil {
		engine.Use(middleware.NewRateLimiter(*config.RateLimit).RateLimit())
	}
	engine.Use(middleware.SizeLimit(config.MaxBodyBytes))

	return r
}

func (r *Router) Setup() {
	api := r.engine.Group("/api/v1")

	api.Use(func(c *gin.Context) {
		c.Header("X-API-Version", "1.0")
		c.Next()
	})

	r.healthH.RegisterRoutes(api)

	protected := api.Group("")
	if r.auth != nil {
		protected.Use(r.auth.Authenticate())
	} else {
		r.logger.Warn().Msg("Dashboard routes are not authenticated")
	}
	r.dashboardH.RegisterRoutes(protected)

	r.engine.NoRoute(func(c *gin.Context) {
		_ = c.Error(apperrors.NotFound("route", nil))
	})
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
