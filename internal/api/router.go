// EduPredict - Student Academic Risk and Course Recommendation Pipeline
// Copyright 2026 EduPredict Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/edupredict/edupredict

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// RouterConfig holds the HTTP surface settings.
type RouterConfig struct {
	// RequestTimeout bounds handler execution.
	RequestTimeout time.Duration

	// RateLimit is requests per window per client IP; 0 disables limiting.
	RateLimit       int
	RateLimitWindow time.Duration

	// CORSOrigins lists allowed origins; empty disables CORS entirely.
	CORSOrigins []string
}

// DefaultRouterConfig returns the standard HTTP surface settings.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		RequestTimeout:  30 * time.Second,
		RateLimit:       100,
		RateLimitWindow: time.Minute,
	}
}

// NewRouter assembles the chi router: recovery, request ids, logging and
// metrics on every route, the prediction API under /api/v1, plus health and
// metrics endpoints.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewRouter(h *Handlers, cfg RouterConfig, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogger(logger))
	if cfg.RequestTimeout > 0 {
		r.Use(chimiddleware.Timeout(cfg.RequestTimeout))
	}
	if len(cfg.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.CORSOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type"},
			MaxAge:         86400,
		}))
	}

	r.Get("/healthz", h.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.RateLimit > 0 {
			r.Use(httprate.LimitByIP(cfg.RateLimit, cfg.RateLimitWindow))
		}

		r.Post("/predict", h.PredictPerformance)
		r.Get("/students/{studentID}/recommendations", h.RecommendCourses)
		r.Get("/students/{studentID}/similar", h.SimilarStudents)
	})

	return r
}
