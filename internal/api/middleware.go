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
	"github.com/rs/zerolog"

	"github.com/edupredict/edupredict/internal/metrics"
)

// requestLogger emits one structured event per request and feeds the
// Prometheus request instruments. The chi route pattern, not the raw path,
// labels the metrics so cardinality stays bounded.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			pattern := chi.RouteContext(r.Context()).RoutePattern()
			if pattern == "" {
				pattern = r.URL.Path
			}
			duration := time.Since(start)
			metrics.ObserveAPIRequest(r.Method, pattern, ww.Status(), duration)

			logger.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("request_id", chimiddleware.GetReqID(r.Context())).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", duration).
				Msg("request")
		})
	}
}
