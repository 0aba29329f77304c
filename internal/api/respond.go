// EduPredict - Student Academic Risk and Course Recommendation Pipeline
// Copyright 2026 EduPredict Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/edupredict/edupredict

// Package api exposes the prediction service over HTTP.
package api

import (
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// Response is the envelope every endpoint returns.
type Response struct {
	Status string    `json:"status"`
	Data   any       `json:"data,omitempty"`
	Error  *APIError `json:"error,omitempty"`

	// Timestamp is the server time the response was generated.
	Timestamp time.Time `json:"timestamp"`
}

// APIError carries a machine-readable code plus a human message.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes returned by the API.
const (
	CodeValidation       = "VALIDATION_ERROR"
	CodeNotFound         = "NOT_FOUND"
	CodeModelUnavailable = "MODEL_UNAVAILABLE"
	CodeInternal         = "INTERNAL_ERROR"
)

func respondJSON(w http.ResponseWriter, logger zerolog.Logger, status int, data any) {
	writeEnvelope(w, logger, status, &Response{
		Status:    "ok",
		Data:      data,
		Timestamp: time.Now().UTC(),
	})
}

func respondError(w http.ResponseWriter, logger zerolog.Logger, status int, code, message string) {
	writeEnvelope(w, logger, status, &Response{
		Status:    "error",
		Error:     &APIError{Code: code, Message: message},
		Timestamp: time.Now().UTC(),
	})
}

func writeEnvelope(w http.ResponseWriter, logger zerolog.Logger, status int, resp *Response) {
	w.Header().Set("Content-Type", "application/json")

	data, err := json.Marshal(resp)
	if err != nil {
		logger.Error().Err(err).Msg("marshal response failed")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logger.Error().Err(err).Msg("write response failed")
	}
}
