package main

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/mineos/landing/internal/cache"
	"github.com/mineos/landing/internal/config"
	"github.com/mineos/landing/internal/handler"
	"github.com/mineos/landing/internal/middleware"
)

// routerDeps collects everything the router mounts.
type routerDeps struct {
	cfg         *config.Config
	logger      *slog.Logger
	base        *handler.Handler
	health      *handler.HealthHandler
	subscribers *handler.SubscriberHandler
	referrals   *handler.ReferralHandler
	metrics     http.Handler
	limiter     middleware.SignupLimiter
}

// newRouter configures the chi router with all routes and middleware.
func newRouter(d routerDeps) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(d.logger))
	r.Use(middleware.Recoverer(d.logger, d.cfg.IsDevelopment()))
	r.Use(middleware.Security(middleware.SecurityConfig{IsDevelopment: d.cfg.IsDevelopment()}))

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = d.cfg.GetCORSAllowedOrigins()
	r.Use(middleware.CORS(corsCfg))

	// Probes and metrics
	r.Get("/healthz", d.health.Healthz)
	r.Get("/readyz", d.health.Readyz)
	if d.metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.metrics)
	}

	r.Get("/", d.base.Hello)

	// Referral deep link
	r.Get("/register", d.referrals.Register)
	r.Get("/register/", d.referrals.Register)

	rateLimitCfg := middleware.RateLimitConfig{
		Logger:  d.logger,
		Limiter: d.limiter,
		Enabled: d.cfg.RateLimitSignupEnabled,
		RPS:     d.cfg.RateLimitSignupRPS,
		Burst:   d.cfg.RateLimitSignupBurst,
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.MaxBodySize(d.cfg.MaxRequestBodySize))

		r.With(middleware.RateLimitSignup(rateLimitCfg)).Post("/subscribers", d.subscribers.Create)

		if d.cfg.AdminEnabled() {
			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.AdminAuth(middleware.AdminAuthConfig{
					Logger:    d.logger,
					TokenHash: d.cfg.AdminTokenHash,
				}))
				r.Get("/subscribers", d.subscribers.List)
			})
		}
	})

	// 404 and 405 handlers
	r.NotFound(d.base.NotFound)
	r.MethodNotAllowed(d.base.MethodNotAllowed)

	return r
}

// signupLimiterOrNil avoids wrapping a nil *cache.Cache in a non-nil interface.
func signupLimiterOrNil(c *cache.Cache) middleware.SignupLimiter {
	if c == nil {
		return nil
	}
	return c
}
