// Civitas - Multi-Dimensional Reputation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/civitas

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/civitas/internal/metrics"
	"github.com/tomtom215/civitas/internal/middleware"
)

// RouterConfig holds the cross-cutting HTTP settings.
type RouterConfig struct {
	RealmID     string
	CORSOrigins []string

	// RateLimitRequests per RateLimitWindow per client IP.
	RateLimitRequests int
	RateLimitWindow   time.Duration
	RateLimitDisabled bool
}

// NewRouter mounts the API on a chi router.
//
// Global stack, outermost first: request ID, realm tag, real IP, panic
// recovery, Prometheus metrics, CORS, security headers. Rate limiting is
// applied per route group so the limit handler can label the group.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Realm(cfg.RealmID))
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.PrometheusMetrics)
	r.Use(corsHandler(cfg.CORSOrigins))
	r.Use(middleware.SecurityHeaders)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "route not found", nil, nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "method not allowed", nil, nil)
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(rateLimit(cfg, "health"))
			r.Get("/health/live", h.HealthLive)
			r.Get("/health/ready", h.HealthReady)
		})

		r.Group(func(r chi.Router) {
			r.Use(rateLimit(cfg, "api"))

			r.Post("/events", h.SubmitEvent)

			r.Route("/players/{id}", func(r chi.Router) {
				r.Get("/reputation", h.GetReputation)
				r.Get("/transactions", h.ListTransactions)
				r.Get("/badges", h.GetBadges)
				r.Post("/badges/check", h.CheckBadges)
			})

			r.Post("/rewards", h.CalculateReward)
			r.Get("/economy/tiers", h.ListTiers)
			r.Get("/badges/ladders", h.ListLadders)

			r.Get("/flags", h.ListFlags)
			r.Get("/flags/{kind}/{subject}", h.LatestFlag)

			r.Post("/proposals", h.CreateProposal)
			r.Post("/proposals/{id}/votes", h.CastVote)
			r.Post("/proposals/{id}/analyze", h.AnalyzeProposal)

			r.Post("/transfers", h.RecordTransfer)
			r.Post("/transfers/analyze", h.AnalyzeTransfers)
		})
	})

	return r
}

func corsHandler(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	allowCredentials := true
	for _, o := range origins {
		if o == "*" {
			// Browsers refuse credentials with a wildcard origin.
			allowCredentials = false
			break
		}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader, "Retry-After"},
		AllowCredentials: allowCredentials,
		MaxAge:           300,
	})
}

// rateLimit limits requests per client IP. group labels refusals in metrics.
func rateLimit(cfg RouterConfig, group string) func(http.Handler) http.Handler {
	if cfg.RateLimitDisabled || cfg.RateLimitRequests <= 0 || cfg.RateLimitWindow <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(
		cfg.RateLimitRequests,
		cfg.RateLimitWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			metrics.RecordRateLimitHit(group)
			respondError(w, r, http.StatusTooManyRequests, ErrCodeTooManyRequests, "rate limit exceeded", nil, nil)
		}),
	)
}
