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

// RecommendationResult summarizes one course recommendation training run.
type RecommendationResult struct {
	RunID     string    `json:"run_id"`
	TrainedAt time.Time `json:"trained_at"`
	Stage     RunStage  `json:"stage"`

	// Samples is the joined student-course pair count before splitting.
	Samples int `json:"samples"`

	// Classifiers holds test-split metrics per successfully fitted family.
	Classifiers map[string]ClassifierMetrics `json:"classifiers"`

	// FeatureImportances maps feature name to the random forest's
	// normalized importance score.
	FeatureImportances map[string]float64 `json:"feature_importances"`

	// DecisionRules is the fitted tree rendered as threshold rules,
	// truncated for the snapshot.
	DecisionRules string `json:"decision_rules,omitempty"`

	// Failures lists families whose fit failed.
	Failures []string `json:"failures,omitempty"`

	SnapshotPath string `json:"snapshot_path"`
}

// RecommendationTrainer runs the course success pipeline: one training pair
// per historical student-course grade, labeled by the success threshold.
// Alongside the classifier families it fits an unsupervised neighbor index
// over the scaled pairs so serving can surface peer cohorts.
type RecommendationTrainer struct {
	provider EntityProvider
	store    *mlstore.Store
	cfg      TrainerConfig
	logger   zerolog.Logger
}

// NewRecommendationTrainer validates the configuration and wires the
// pipeline.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewRecommendationTrainer(provider EntityProvider, store *mlstore.Store, cfg TrainerConfig, logger zerolog.Logger) (*RecommendationTrainer, error) {
	if provider == nil {
		return nil, fmt.Errorf("recommendation trainer: entity provider is required")
	}
	if store == nil {
		return nil, fmt.Errorf("recommendation trainer: artifact store is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &RecommendationTrainer{
		provider: provider,
		store:    store,
		cfg:      cfg,
		logger:   logger.With().Str("component", "trainer").Str("task", TaskRecommendation).Logger(),
	}, nil
}

// Run executes one full training run with per-family partial failure.
func (t *RecommendationTrainer) Run(ctx context.Context) (*RecommendationResult, error) {
	ctx, cancel := context.WithTimeout(ctx, t.cfg.Timeout)
	defer cancel()

	result := &RecommendationResult{
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
	pairs := AssembleTrainingPairs(ds)
	result.Samples = pairs.Features.NumRows()
	log.Info().
		Int("grades", len(ds.Grades)).
		Int("pairs", result.Samples).
		Msg("assembled training pairs")

	if result.Samples < t.cfg.MinSamples {
		result.Stage = StageFailed
		return result, fmt.Errorf("%d training pairs, need %d: %w", result.Samples, t.cfg.MinSamples, ErrInsufficientData)
	}

	var scaler StandardScaler
	scaled, err := scaler.FitTransform(pairs.Features)
	if err != nil {
		result.Stage = StageFailed
		return result, fmt.Errorf("fit scaler: %w", err)
	}

	result.Stage = StageSplitting
	trainIdx, testIdx, err := StratifiedSplit(pairs.Success, t.cfg.TestFraction, t.cfg.Seed)
	if err != nil {
		result.Stage = StageFailed
		return result, err
	}

	XTrain := takeRows(scaled.Rows, trainIdx)
	XTest := takeRows(scaled.Rows, testIdx)
	yTrain := takeInt(pairs.Success, trainIdx)
	yTest := takeInt(pairs.Success, testIdx)

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

	// Neighbor index over every scaled pair, not just the train split:
	// serving looks up peers across the whole known population.
	index := models.NewNearestNeighborsIndex()
	if err := index.Fit(scaled.Rows); err != nil {
		result.Stage = StageFailed
		return result, &FitError{Family: "nearest_neighbors", Err: err}
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

	if forest, ok := fitted["random_forest"]; ok {
		result.FeatureImportances = importanceMap(scaled.Columns, forest.(models.FeatureRanker))
	}
	if tree, ok := fitted["decision_tree"]; ok {
		result.DecisionRules = tree.(*models.DecisionTreeClassifier).RuleDump(scaled.Columns, export.MaxRuleDumpChars)
	}

	result.Stage = StageExporting
	meta := mlstore.Metadata{
		RunID:           result.RunID,
		TrainedAt:       result.TrainedAt,
		TrainingSamples: len(XTrain),
	}
	for name, clf := range fitted {
		if _, err := t.store.Save(ctx, TaskRecommendation+"_"+name, clf, meta); err != nil {
			result.Stage = StageFailed
			return result, fmt.Errorf("save %s: %w", name, err)
		}
	}
	if _, err := t.store.Save(ctx, TaskRecommendation+"_nearest_neighbors", index, meta); err != nil {
		result.Stage = StageFailed
		return result, fmt.Errorf("save nearest_neighbors: %w", err)
	}
	if _, err := t.store.Save(ctx, TaskRecommendation+"_scaler", &scaler, meta); err != nil {
		result.Stage = StageFailed
		return result, fmt.Errorf("save scaler: %w", err)
	}

	snapshot := export.New(TaskRecommendation, result.RunID, result.TrainedAt, len(XTrain), scaled.Columns)
	for name, clf := range fitted {
		params := clf.Params()
		if name == "decision_tree" {
			params["rules"] = result.DecisionRules
		}
		snapshot.AddModel(name, params)
		snapshot.Metrics[name] = result.Classifiers[name]
	}
	snapshot.AddModel("nearest_neighbors", index.Params())

	result.SnapshotPath = t.cfg.snapshotPath(TaskRecommendation)
	if err := snapshot.Write(result.SnapshotPath); err != nil {
		result.Stage = StageFailed
		return result, err
	}

	result.Stage = StageDone
	log.Info().
		Int("classifiers", len(fitted)).
		Strs("failures", result.Failures).
		Msg("training run complete")
	return result, nil
}

func (t *RecommendationTrainer) classifierFamilies() []classifierFamily {
	seed := t.cfg.Seed
	return []classifierFamily{
		{"knn", func() models.Classifier { return models.NewKNNClassifier() }},
		{"random_forest", func() models.Classifier {
			forest := models.NewRandomForestClassifier(seed)
			forest.NEstimators = 150
			forest.MaxDepth = 12
			return forest
		}},
		{"decision_tree", func() models.Classifier { return models.NewDecisionTreeClassifier() }},
		{"adaboost", func() models.Classifier { return models.NewAdaBoostClassifier() }},
	}
}
