// Package api provides the HTTP surface of the relay.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/statusrelay/statusrelay/internal/api/handler"
	"github.com/statusrelay/statusrelay/internal/api/middleware"
	"github.com/statusrelay/statusrelay/internal/api/response"
	"github.com/statusrelay/statusrelay/internal/metrics"
	"github.com/statusrelay/statusrelay/internal/provider/resilience"
	"github.com/statusrelay/statusrelay/internal/service"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version     string
	BuildTime   string
	Logger      zerolog.Logger
	ServiceName string

	// Metrics records OpenTelemetry HTTP metrics (optional).
	Metrics *middleware.Metrics

	// PromMetrics backs GET /metrics (optional).
	PromMetrics *metrics.Metrics

	Dispatcher handler.Dispatcher
	Registry   *service.Registry
	Health     *resilience.Registry

	// MaxBodyBytes caps plugin request bodies. Default: handler.DefaultMaxBodyBytes.
	MaxBodyBytes int64

	RateLimit   middleware.RateLimitConfig
	CORSOrigins []string
	RequireTLS  bool
}

// NewRouter creates a new chi router with all routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "statusrelay"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.Tracing(serviceName))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware())
	}
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.RequireTLS(cfg.RequireTLS))
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.ContentTypeJSON)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, r, "no route for "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.MethodNotAllowed(w, r, r.Method+" is not allowed on "+r.URL.Path)
	})

	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.Registry, cfg.Health)

	// Plugin protocol endpoint
	if cfg.Dispatcher != nil {
		pluginHandler := handler.NewPluginHandler(cfg.Dispatcher, cfg.Logger, cfg.MaxBodyBytes)
		r.With(
			middleware.RateLimitByIP(cfg.RateLimit),
			middleware.RequireJSON,
		).Post("/", pluginHandler.Handle)
	}

	r.Route("/ops", func(r chi.Router) {
		r.Get("/health", opsHandler.HealthCheck)
		r.Get("/ready", opsHandler.ReadinessCheck)
		r.Get("/status", opsHandler.SystemStatus)
	})

	if cfg.PromMetrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.PromMetrics.Handler())
	}

	return r
}
