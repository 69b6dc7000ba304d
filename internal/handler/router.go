package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/snipurl/snip/internal/metrics"
	"github.com/snipurl/snip/internal/middleware"
	"github.com/snipurl/snip/internal/ratelimit"
)

// RouterConfig holds the cross-cutting settings of the HTTP surface.
type RouterConfig struct {
	Logger        *slog.Logger
	IsDevelopment bool
	// TrustProxy rewrites the client address from X-Forwarded-For / X-Real-IP.
	TrustProxy         bool
	CORSAllowedOrigins []string
	MaxRequestBodySize int64
	// Limiter is nil when rate limiting is disabled.
	Limiter ratelimit.Limiter
	Metrics metrics.Recorder
}

// Routes bundles the handlers mounted by NewRouter.
type Routes struct {
	Fallback  *Handler
	Health    *HealthHandler
	Links     *LinkHandler
	Admin     *AdminHandler
	Analytics *AnalyticsHandler
	Redirect  *RedirectHandler
	// Metrics is optional.
	Metrics *MetricsHandler
}

// NewRouter configures the chi router with all routes and middleware.
func NewRouter(cfg RouterConfig, routes Routes) *chi.Mux {
	r := chi.NewRouter()

	if cfg.TrustProxy {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recoverer(cfg.Logger, cfg.IsDevelopment))
	r.Use(middleware.Security(middleware.SecurityConfig{IsDevelopment: cfg.IsDevelopment}))

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.CORSAllowedOrigins
	r.Use(middleware.CORS(corsCfg))

	if cfg.MaxRequestBodySize > 0 {
		r.Use(middleware.MaxBodySize(cfg.MaxRequestBodySize))
	}

	// Probes are not rate limited.
	r.Get("/health", routes.Health.Health)
	r.Get("/readyz", routes.Health.Readyz)
	if routes.Metrics != nil {
		r.Get("/metrics", routes.Metrics.Metrics)
	}

	limit := func(p ratelimit.Policy) func(http.Handler) http.Handler {
		if cfg.Limiter == nil {
			return func(next http.Handler) http.Handler { return next }
		}
		return middleware.RateLimit(middleware.RateLimitConfig{
			Logger:  cfg.Logger,
			Limiter: cfg.Limiter,
			Policy:  p,
			Metrics: cfg.Metrics,
		})
	}

	r.Group(func(r chi.Router) {
		r.Use(limit(ratelimit.GeneralPolicy))

		r.Route("/api", func(r chi.Router) {
			r.With(limit(ratelimit.ShortenPolicy)).Post("/shorten", routes.Links.Shorten)
			r.With(limit(ratelimit.BulkPolicy)).Post("/bulk-shorten", routes.Links.BulkShorten)
			r.Get("/admin/urls", routes.Admin.ListURLs)
			r.Get("/analytics/{identifier}", routes.Analytics.GetAnalytics)
			r.NotFound(routes.Fallback.NotFound)
			r.MethodNotAllowed(routes.Fallback.MethodNotAllowed)
		})

		r.Get("/{shortCode}", routes.Redirect.Redirect)
	})

	r.NotFound(routes.Fallback.NotFound)
	r.MethodNotAllowed(routes.Fallback.MethodNotAllowed)

	return r
}
