// EduPredict - Student Academic Risk and Course Recommendation Pipeline
// Copyright 2026 EduPredict Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/edupredict/edupredict

// Package predict serves fitted models to callers without retraining.
//
// The service loads the latest persisted artifacts lazily on first use and
// caches them. A failed load is not cached: the next call retries, so a
// serving process started before the first training run heals itself once
// artifacts appear. Every load is validated against the task's exported
// parameter snapshot, which pins the feature column order the models were
// fitted with.
package predict

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/edupredict/edupredict/internal/metrics"
	"github.com/edupredict/edupredict/internal/ml"
	"github.com/edupredict/edupredict/internal/ml/export"
	"github.com/edupredict/edupredict/internal/ml/mlstore"
	"github.com/edupredict/edupredict/internal/ml/models"
)

// PerformanceRequest carries the raw inputs for one performance forecast.
type PerformanceRequest struct {
	CurrentGPA       float64 `json:"current_gpa" validate:"gte=0,lte=4"`
	CourseDifficulty int     `json:"course_difficulty" validate:"gte=1,lte=5"`
	AttendanceRate   float64 `json:"attendance_rate" validate:"gte=0,lte=100"`
	HasDisability    bool    `json:"has_disability"`
	Credits          int     `json:"credits" validate:"gte=1,lte=12"`
}

// PerformanceForecast is one scored performance prediction.
type PerformanceForecast struct {
	// PredictedGrade is the regressor's grade point estimate.
	PredictedGrade float64 `json:"predicted_grade"`

	// AtRisk flags the row when the risk probability crosses 0.5.
	AtRisk bool `json:"at_risk"`

	// RiskProbability is the classifier's at-risk probability.
	RiskProbability float64 `json:"risk_probability"`

	// FeatureImportance maps feature name to the forest's importance.
	FeatureImportance map[string]float64 `json:"feature_importance"`

	// ModelRunID identifies the training run that produced the models.
	ModelRunID string `json:"model_run_id"`
}

// CourseRecommendation is one ranked course suggestion.
type CourseRecommendation struct {
	CourseID string `json:"course_id"`

	// SuccessProbability is the classifier's estimate that the student
	// meets the success threshold in this course.
	SuccessProbability float64 `json:"success_probability"`
}

// Service scores requests against the latest persisted artifacts.
type Service struct {
	store    *mlstore.Store
	provider ml.EntityProvider
	cfg      ml.TrainerConfig
	logger   zerolog.Logger

	mu   sync.Mutex
	perf *performanceArtifacts
	rec  *recommendationArtifacts
}

// performanceArtifacts is the cached serving state for the risk task. The
// logistic model scores the at-risk probability; the forest contributes the
// feature importances.
type performanceArtifacts struct {
	scaler      ml.StandardScaler
	classifier  models.LogisticRegression
	forest      models.RandomForestClassifier
	regressor   models.RandomForestRegressor
	importances map[string]float64
	runID       string
}

// recommendationArtifacts is the cached serving state for the course task.
type recommendationArtifacts struct {
	scaler     ml.StandardScaler
	classifier models.RandomForestClassifier
	runID      string
}

// NewService wires a prediction service over the given artifact store. The
// provider supplies entity data for recommendation and similarity queries.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewService(store *mlstore.Store, provider ml.EntityProvider, cfg ml.TrainerConfig, logger zerolog.Logger) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("predict: artifact store is required")
	}
	if provider == nil {
		return nil, fmt.Errorf("predict: entity provider is required")
	}

	return &Service{
		store:    store,
		provider: provider,
		cfg:      cfg,
		logger:   logger.With().Str("component", "predict").Logger(),
	}, nil
}

// PredictPerformance scores one student-course pairing.
func (s *Service) PredictPerformance(ctx context.Context, req PerformanceRequest) (*PerformanceForecast, error) {
	art, err := s.performance(ctx)
	if err != nil {
		return nil, err
	}

	row := ml.FeatureMatrix{
		Columns: ml.PerformanceFeatureColumns,
		Rows: [][]float64{{
			req.CurrentGPA,
			float64(req.CourseDifficulty),
			req.AttendanceRate,
			boolToFloat(req.HasDisability),
			float64(req.Credits),
		}},
	}
	scaled, err := art.scaler.Transform(row)
	if err != nil {
		return nil, fmt.Errorf("scale request: %w", err)
	}
	x := scaled.Rows[0]

	proba := art.classifier.PredictProba(x)
	return &PerformanceForecast{
		PredictedGrade:    art.regressor.Predict(x),
		AtRisk:            proba >= 0.5,
		RiskProbability:   proba,
		FeatureImportance: art.importances,
		ModelRunID:        art.runID,
	}, nil
}

// RecommendCourses ranks the courses the student has not yet taken by
// predicted success probability, descending, course id ascending on ties.
// limit <= 0 returns the full ranking.
func (s *Service) RecommendCourses(ctx context.Context, studentID string, limit int) ([]CourseRecommendation, error) {
	art, err := s.recommendation(ctx)
	if err != nil {
		return nil, err
	}

	ds, err := s.provider.FetchDataset(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch dataset: %w", err)
	}

	candidates, err := ml.AssembleRecommendationCandidates(ds, studentID)
	if err != nil {
		return nil, err
	}
	if candidates.Features.NumRows() == 0 {
		return nil, nil
	}

	// Candidate assembly and model training use different column orders;
	// realign by name before scaling.
	aligned, err := candidates.Features.Select(ml.RecommendationFeatureColumns...)
	if err != nil {
		return nil, fmt.Errorf("align candidate columns: %w", err)
	}
	scaled, err := art.scaler.Transform(aligned)
	if err != nil {
		return nil, fmt.Errorf("scale candidates: %w", err)
	}

	out := make([]CourseRecommendation, len(scaled.Rows))
	for i, row := range scaled.Rows {
		out[i] = CourseRecommendation{
			CourseID:           candidates.CourseIDs[i],
			SuccessProbability: art.classifier.PredictProba(row),
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].SuccessProbability != out[j].SuccessProbability {
			return out[i].SuccessProbability > out[j].SuccessProbability
		}
		return out[i].CourseID < out[j].CourseID
	})

	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

// SimilarStudents ranks the student's peers by profile similarity.
// limit <= 0 returns the full ranking.
func (s *Service) SimilarStudents(ctx context.Context, studentID string, limit int) ([]ml.SimilarStudent, error) {
	ds, err := s.provider.FetchDataset(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch dataset: %w", err)
	}

	peers, err := ml.RankSimilarStudents(ds, studentID)
	if err != nil {
		return nil, err
	}
	if limit > 0 && limit < len(peers) {
		peers = peers[:limit]
	}
	return peers, nil
}

// performance returns the cached risk-task artifacts, loading them on the
// first call or after a previous failed load.
func (s *Service) performance(ctx context.Context) (*performanceArtifacts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.perf != nil {
		return s.perf, nil
	}

	snapshot, err := s.loadSnapshot(ml.TaskPerformance, ml.PerformanceFeatureColumns)
	if err != nil {
		metrics.ModelLoadFailures.WithLabelValues(ml.TaskPerformance).Inc()
		return nil, err
	}

	var art performanceArtifacts
	meta, err := s.store.Load(ctx, ml.TaskPerformance+"_scaler", 0, &art.scaler)
	if err != nil {
		return nil, fmt.Errorf("load scaler: %w: %w", err, ml.ErrModelUnavailable)
	}
	if _, err := s.store.Load(ctx, ml.TaskPerformance+"_logistic_regression", 0, &art.classifier); err != nil {
		return nil, fmt.Errorf("load classifier: %w: %w", err, ml.ErrModelUnavailable)
	}
	if _, err := s.store.Load(ctx, ml.TaskPerformance+"_random_forest", 0, &art.forest); err != nil {
		return nil, fmt.Errorf("load forest: %w: %w", err, ml.ErrModelUnavailable)
	}
	if _, err := s.store.Load(ctx, ml.TaskPerformance+"_random_forest_regressor", 0, &art.regressor); err != nil {
		return nil, fmt.Errorf("load regressor: %w: %w", err, ml.ErrModelUnavailable)
	}

	art.runID = meta.RunID
	art.importances = make(map[string]float64, len(art.scaler.Columns))
	for i, name := range art.scaler.Columns {
		if i < len(art.forest.Importances) {
			art.importances[name] = art.forest.Importances[i]
		}
	}

	s.perf = &art
	s.logger.Info().
		Str("run_id", art.runID).
		Str("task", ml.TaskPerformance).
		Str("snapshot_run_id", snapshot.Metadata.RunID).
		Msg("serving artifacts loaded")
	return s.perf, nil
}

// recommendation returns the cached course-task artifacts.
func (s *Service) recommendation(ctx context.Context) (*recommendationArtifacts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rec != nil {
		return s.rec, nil
	}

	snapshot, err := s.loadSnapshot(ml.TaskRecommendation, ml.RecommendationFeatureColumns)
	if err != nil {
		metrics.ModelLoadFailures.WithLabelValues(ml.TaskRecommendation).Inc()
		return nil, err
	}

	var art recommendationArtifacts
	meta, err := s.store.Load(ctx, ml.TaskRecommendation+"_scaler", 0, &art.scaler)
	if err != nil {
		return nil, fmt.Errorf("load scaler: %w: %w", err, ml.ErrModelUnavailable)
	}
	if _, err := s.store.Load(ctx, ml.TaskRecommendation+"_random_forest", 0, &art.classifier); err != nil {
		return nil, fmt.Errorf("load classifier: %w: %w", err, ml.ErrModelUnavailable)
	}

	art.runID = meta.RunID
	s.rec = &art
	s.logger.Info().
		Str("run_id", art.runID).
		Str("task", ml.TaskRecommendation).
		Str("snapshot_run_id", snapshot.Metadata.RunID).
		Msg("serving artifacts loaded")
	return s.rec, nil
}

// loadSnapshot reads and validates the task's parameter snapshot, then
// checks the fitted feature column order against what serving will send.
func (s *Service) loadSnapshot(task string, wantColumns []string) (*export.Snapshot, error) {
	snapshot, err := export.Load(s.snapshotPath(task))
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w: %w", err, ml.ErrModelUnavailable)
	}

	got := snapshot.Metadata.FeatureNames
	if len(got) != len(wantColumns) {
		return nil, fmt.Errorf("snapshot for %s has %d feature columns, serving expects %d: %w",
			task, len(got), len(wantColumns), ml.ErrModelUnavailable)
	}
	for i, name := range wantColumns {
		if got[i] != name {
			return nil, fmt.Errorf("snapshot for %s column %d is %q, serving expects %q: %w",
				task, i, got[i], name, ml.ErrModelUnavailable)
		}
	}
	return snapshot, nil
}

func (s *Service) snapshotPath(task string) string {
	return filepath.Join(s.cfg.SnapshotDir, task+"_params.json")
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
