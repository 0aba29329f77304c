// EduPredict - Student Academic Risk and Course Recommendation Pipeline
// Copyright 2026 EduPredict Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/edupredict/edupredict

package ml

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/edupredict/edupredict/internal/ml/export"
	"github.com/edupredict/edupredict/internal/ml/mlstore"
	"github.com/edupredict/edupredict/internal/ml/models"
)

// PerformanceResult summarizes one risk/performance training run.
type PerformanceResult struct {
	RunID     string    `json:"run_id"`
	TrainedAt time.Time `json:"trained_at"`
	Stage     RunStage  `json:"stage"`

	// Samples is the joined row count before splitting.
	Samples int `json:"samples"`

	// Classifiers holds test-split metrics per successfully fitted family.
	Classifiers map[string]ClassifierMetrics `json:"classifiers"`

	// Regression holds the grade regressor's test-split metrics.
	Regression RegressionMetrics `json:"regression"`

	// FeatureImportances maps feature name to the random forest's
	// normalized importance score.
	FeatureImportances map[string]float64 `json:"feature_importances"`

	// Failures lists families whose fit failed; the run proceeds without
	// them as long as at least one classifier survives.
	Failures []string `json:"failures,omitempty"`

	SnapshotPath string `json:"snapshot_path"`
}

// PerformanceTrainer runs the academic risk and grade prediction pipeline:
// fetch, assemble, scale, split, fit three classifier families plus a grade
// regressor, evaluate, persist artifacts and export a parameter snapshot.
type PerformanceTrainer struct {
	provider EntityProvider
	store    *mlstore.Store
	cfg      TrainerConfig
	logger   zerolog.Logger
}

// NewPerformanceTrainer validates the configuration and wires the pipeline.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewPerformanceTrainer(provider EntityProvider, store *mlstore.Store, cfg TrainerConfig, logger zerolog.Logger) (*PerformanceTrainer, error) {
	if provider == nil {
		return nil, fmt.Errorf("performance trainer: entity provider is required")
	}
	if store == nil {
		return nil, fmt.Errorf("performance trainer: artifact store is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &PerformanceTrainer{
		provider: provider,
		store:    store,
		cfg:      cfg,
		logger:   logger.With().Str("component", "trainer").Str("task", TaskPerformance).Logger(),
	}, nil
}

// Run executes one full training run. Individual classifier families may
// fail to fit without failing the run; the regressor is mandatory.
func (t *PerformanceTrainer) Run(ctx context.Context) (*PerformanceResult, error) {
	ctx, cancel := context.WithTimeout(ctx, t.cfg.Timeout)
	defer cancel()

	result := &PerformanceResult{
		RunID:       uuid.NewString(),
		TrainedAt:   time.Now(),
		Stage:       StageFetching,
		Classifiers: make(map[string]ClassifierMetrics),
	}
	log := t.logger.With().Str("run_id", result.RunID).Logger()

	ds, err := t.provider.FetchDataset(ctx)
	if err != nil {
		result.Stage = StageFailed
		return result, fmt.Errorf("fetch dataset: %w", err)
	}

	result.Stage = StageAssembling
	data := AssemblePerformanceFeatures(ds)
	result.Samples = data.Features.NumRows()
	log.Info().
		Int("grades", len(ds.Grades)).
		Int("joined_rows", result.Samples).
		Msg("assembled performance features")

	if result.Samples < t.cfg.MinSamples {
		result.Stage = StageFailed
		return result, fmt.Errorf("%d joined rows, need %d: %w", result.Samples, t.cfg.MinSamples, ErrInsufficientData)
	}

	// Scaler is fitted on the full feature matrix before splitting; the
	// same scaler standardizes serving-time rows.
	var scaler StandardScaler
	scaled, err := scaler.FitTransform(data.Features)
	if err != nil {
		result.Stage = StageFailed
		return result, fmt.Errorf("fit scaler: %w", err)
	}

	result.Stage = StageSplitting
	trainIdx, testIdx, err := StratifiedSplit(data.AtRisk, t.cfg.TestFraction, t.cfg.Seed)
	if err != nil {
		result.Stage = StageFailed
		return result, err
	}

	XTrain := takeRows(scaled.Rows, trainIdx)
	XTest := takeRows(scaled.Rows, testIdx)
	yTrain := takeInt(data.AtRisk, trainIdx)
	yTest := takeInt(data.AtRisk, testIdx)
	gTrain := takeFloat(data.GradePoints, trainIdx)
	gTest := takeFloat(data.GradePoints, testIdx)

	result.Stage = StageFitting
	families := t.classifierFamilies()
	fitted := make(map[string]models.Classifier, len(families))
	for _, family := range families {
		clf := family.build()
		if fitErr := clf.Fit(XTrain, yTrain); fitErr != nil {
			ferr := &FitError{Family: clf.Name(), Err: fitErr}
			log.Error().Err(ferr).Str("family", clf.Name()).Msg("classifier fit failed")
			result.Failures = append(result.Failures, clf.Name())
			continue
		}
		fitted[clf.Name()] = clf
	}
	if len(fitted) == 0 {
		result.Stage = StageFailed
		return result, fmt.Errorf("every classifier family failed to fit")
	}

	regressor := models.NewRandomForestRegressor(t.cfg.Seed)
	if err := regressor.Fit(XTrain, gTrain); err != nil {
		result.Stage = StageFailed
		return result, &FitError{Family: regressor.Name(), Err: err}
	}

	result.Stage = StageEvaluating
	for _, family := range families {
		clf, ok := fitted[family.name]
		if !ok {
			continue
		}
		metrics := evaluateClassifier(clf, XTest, yTest)
		mean, std, cvErr := crossValF1(family.build, XTrain, yTrain, t.cfg.CVFolds, t.cfg.Seed)
		if cvErr != nil {
			log.Warn().Err(cvErr).Str("family", family.name).Msg("cross-validation skipped")
		} else {
			metrics.CVMean = mean
			metrics.CVStd = std
		}
		result.Classifiers[family.name] = metrics

		log.Info().
			Str("family", family.name).
			Float64("f1", metrics.F1).
			Float64("roc_auc", metrics.ROCAUC).
			Msg("classifier evaluated")
	}
	result.Regression = evaluateRegressor(regressor, XTest, gTest)

	if forest, ok := fitted["random_forest"]; ok {
		result.FeatureImportances = importanceMap(scaled.Columns, forest.(models.FeatureRanker))
	}

	result.Stage = StageExporting
	meta := mlstore.Metadata{
		RunID:           result.RunID,
		TrainedAt:       result.TrainedAt,
		TrainingSamples: len(XTrain),
	}
	for name, clf := range fitted {
		if _, err := t.store.Save(ctx, TaskPerformance+"_"+name, clf, meta); err != nil {
			result.Stage = StageFailed
			return result, fmt.Errorf("save %s: %w", name, err)
		}
	}
	if _, err := t.store.Save(ctx, TaskPerformance+"_"+regressor.Name(), regressor, meta); err != nil {
		result.Stage = StageFailed
		return result, fmt.Errorf("save %s: %w", regressor.Name(), err)
	}
	if _, err := t.store.Save(ctx, TaskPerformance+"_scaler", &scaler, meta); err != nil {
		result.Stage = StageFailed
		return result, fmt.Errorf("save scaler: %w", err)
	}

	snapshot := export.New(TaskPerformance, result.RunID, result.TrainedAt, len(XTrain), scaled.Columns)
	for name, clf := range fitted {
		snapshot.AddModel(name, clf.Params())
		snapshot.Metrics[name] = result.Classifiers[name]
	}
	snapshot.AddModel(regressor.Name(), regressor.Params())
	snapshot.Metrics[regressor.Name()] = result.Regression

	result.SnapshotPath = t.cfg.snapshotPath(TaskPerformance)
	if err := snapshot.Write(result.SnapshotPath); err != nil {
		result.Stage = StageFailed
		return result, err
	}

	result.Stage = StageDone
	log.Info().
		Int("classifiers", len(fitted)).
		Strs("failures", result.Failures).
		Float64("regression_rmse", result.Regression.RMSE).
		Msg("training run complete")
	return result, nil
}

// classifierFamily pairs a family name with its fresh-instance factory, so
// cross-validation can refit an identically configured model per fold.
type classifierFamily struct {
	name  string
	build func() models.Classifier
}

func (t *PerformanceTrainer) classifierFamilies() []classifierFamily {
	seed := t.cfg.Seed
	return []classifierFamily{
		{"logistic_regression", func() models.Classifier { return models.NewLogisticRegression() }},
		{"random_forest", func() models.Classifier { return models.NewRandomForestClassifier(seed) }},
		{"gradient_boosting", func() models.Classifier { return models.NewGradientBoostingClassifier() }},
	}
}

// importanceMap pairs feature names with a ranker's importance scores.
func importanceMap(columns []string, ranker models.FeatureRanker) map[string]float64 {
	scores := ranker.FeatureImportances()
	out := make(map[string]float64, len(columns))
	for i, name := range columns {
		if i < len(scores) {
			out[name] = scores[i]
		}
	}
	return out
}
