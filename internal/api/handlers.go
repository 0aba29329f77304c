// EduPredict - Student Academic Risk and Course Recommendation Pipeline
// Copyright 2026 EduPredict Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/edupredict/edupredict

package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/edupredict/edupredict/internal/metrics"
	"github.com/edupredict/edupredict/internal/ml"
	"github.com/edupredict/edupredict/internal/predict"
)

// maxRequestBody bounds the predict request body size.
const maxRequestBody = 1 << 20

// Pinger reports entity store reachability for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers serves the prediction endpoints.
type Handlers struct {
	service  *predict.Service
	pinger   Pinger
	validate *validator.Validate
	logger   zerolog.Logger
}

// NewHandlers wires the endpoint handlers. pinger may be nil when the
// server runs without a database.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewHandlers(service *predict.Service, pinger Pinger, logger zerolog.Logger) *Handlers {
	return &Handlers{
		service:  service,
		pinger:   pinger,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger.With().Str("component", "api").Logger(),
	}
}

// PredictPerformance handles POST /api/v1/predict.
func (h *Handlers) PredictPerformance(w http.ResponseWriter, r *http.Request) {
	var req predict.PerformanceRequest
	body := http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, CodeValidation, "malformed request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respondError(w, h.logger, http.StatusBadRequest, CodeValidation, err.Error())
		return
	}

	forecast, err := h.service.PredictPerformance(r.Context(), req)
	if err != nil {
		metrics.PredictionsTotal.WithLabelValues(ml.TaskPerformance, "error").Inc()
		h.respondServiceError(w, err)
		return
	}

	metrics.PredictionsTotal.WithLabelValues(ml.TaskPerformance, "ok").Inc()
	respondJSON(w, h.logger, http.StatusOK, forecast)
}

// RecommendCourses handles GET /api/v1/students/{studentID}/recommendations.
func (h *Handlers) RecommendCourses(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "studentID")
	limit, ok := parseLimit(w, h.logger, r)
	if !ok {
		return
	}

	recs, err := h.service.RecommendCourses(r.Context(), studentID, limit)
	if err != nil {
		metrics.PredictionsTotal.WithLabelValues(ml.TaskRecommendation, "error").Inc()
		h.respondServiceError(w, err)
		return
	}

	metrics.PredictionsTotal.WithLabelValues(ml.TaskRecommendation, "ok").Inc()
	respondJSON(w, h.logger, http.StatusOK, recs)
}

// SimilarStudents handles GET /api/v1/students/{studentID}/similar.
func (h *Handlers) SimilarStudents(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "studentID")
	limit, ok := parseLimit(w, h.logger, r)
	if !ok {
		return
	}

	peers, err := h.service.SimilarStudents(r.Context(), studentID, limit)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, h.logger, http.StatusOK, peers)
}

// Health handles GET /healthz. The server is healthy when it can serve;
// database reachability is reported but only degrades the status.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "ok"}
	if h.pinger != nil {
		if err := h.pinger.Ping(r.Context()); err != nil {
			status["status"] = "degraded"
			status["database"] = err.Error()
		} else {
			status["database"] = "ok"
		}
	}
	respondJSON(w, h.logger, http.StatusOK, status)
}

// respondServiceError maps service errors to HTTP statuses.
func (h *Handlers) respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ml.ErrNotFound):
		respondError(w, h.logger, http.StatusNotFound, CodeNotFound, "student not found")
	case errors.Is(err, ml.ErrModelUnavailable):
		respondError(w, h.logger, http.StatusServiceUnavailable, CodeModelUnavailable,
			"no trained model is available yet")
	default:
		h.logger.Error().Err(err).Msg("request failed")
		respondError(w, h.logger, http.StatusInternalServerError, CodeInternal, "internal error")
	}
}

// parseLimit reads the optional limit query parameter. Zero means no limit.
func parseLimit(w http.ResponseWriter, logger zerolog.Logger, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		respondError(w, logger, http.StatusBadRequest, CodeValidation, "limit must be a non-negative integer")
		return 0, false
	}
	return limit, true
}
