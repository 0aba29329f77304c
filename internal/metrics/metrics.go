// EduPredict - Student Academic Risk and Course Recommendation Pipeline
// Copyright 2026 EduPredict Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/edupredict/edupredict

// Package metrics registers the Prometheus instruments for both binaries.
// Everything registers against the default registry; /metrics on the server
// exposes it via promhttp.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API endpoint metrics.
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edupredict_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "edupredict_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "endpoint"},
	)

	// Prediction serving metrics.
	PredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edupredict_predictions_total",
			Help: "Total number of served predictions",
		},
		[]string{"task", "outcome"},
	)

	ModelLoadFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edupredict_model_load_failures_total",
			Help: "Total number of failed serving artifact loads",
		},
		[]string{"task"},
	)

	// Training pipeline metrics.
	TrainingRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edupredict_training_runs_total",
			Help: "Total number of training runs",
		},
		[]string{"task", "outcome"},
	)

	TrainingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "edupredict_training_duration_seconds",
			Help:    "Training run duration in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
		[]string{"task"},
	)

	// Entity store metrics.
	DatasetFetchErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "edupredict_dataset_fetch_errors_total",
			Help: "Total number of failed dataset fetches",
		},
	)
)

// ObserveAPIRequest records one completed HTTP request.
func ObserveAPIRequest(method, endpoint string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// ObserveTrainingRun records one finished training run.
func ObserveTrainingRun(task, outcome string, duration time.Duration) {
	TrainingRunsTotal.WithLabelValues(task, outcome).Inc()
	TrainingDuration.WithLabelValues(task).Observe(duration.Seconds())
}
