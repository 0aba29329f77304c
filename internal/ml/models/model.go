// EduPredict - Student Academic Risk and Course Recommendation Pipeline
// Copyright 2026 EduPredict Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/edupredict/edupredict

// Package models implements the model families the ensemble trainers fit.
//
// Every family is a plain value type with exported hyperparameter and
// fitted-state fields so a fitted model round-trips through gob without a
// custom codec. A model is fitted at most once: trainers construct a fresh
// instance per run and never refit, so a fitted model is effectively
// immutable.
//
// # Families
//
//   - Linear: LogisticRegression
//   - Trees: DecisionTreeClassifier (interpretable, depth-bounded)
//   - Bagged ensembles: RandomForestClassifier, RandomForestRegressor
//   - Boosted ensembles: GradientBoostingClassifier, AdaBoostClassifier
//   - Neighbors: KNNClassifier, NearestNeighborsIndex
package models

import "fmt"

// Classifier is a binary classifier over numeric feature rows. Class 1 is
// the positive class throughout.
type Classifier interface {
	// Name returns the family identifier used in results and snapshots.
	Name() string

	// Fit trains on the given rows and binary labels. Returns an error
	// when the data is degenerate for this family (e.g., a single class).
	Fit(X [][]float64, y []int) error

	// Predict returns the predicted class for one row.
	Predict(x []float64) int

	// PredictProba returns the positive-class probability for one row.
	PredictProba(x []float64) float64

	// Params returns the exportable view of the fitted model: primitives,
	// numerics and nested maps only, never the fitted object itself.
	Params() map[string]any
}

// Regressor predicts a continuous target over numeric feature rows.
type Regressor interface {
	Name() string
	Fit(X [][]float64, y []float64) error
	Predict(x []float64) float64
	Params() map[string]any
}

// FeatureRanker is implemented by families that expose per-feature
// importance scores. Scores are non-negative and sum to at most 1.
type FeatureRanker interface {
	FeatureImportances() []float64
}

// checkFitInput validates the common preconditions shared by all Fit
// implementations.
func checkFitInput(X [][]float64, n int) error {
	if len(X) == 0 {
		return fmt.Errorf("empty training set")
	}
	if len(X) != n {
		return fmt.Errorf("feature rows (%d) and labels (%d) misaligned", len(X), n)
	}
	return nil
}

// countClasses returns the number of distinct labels and the positive count.
func countClasses(y []int) (distinct, positives int) {
	seen := make(map[int]struct{}, 2)
	for _, label := range y {
		seen[label] = struct{}{}
		if label == 1 {
			positives++
		}
	}
	return len(seen), positives
}

// balancedWeights returns per-sample weights inversely proportional to
// class frequency: w_c = n / (k * n_c). With Balanced disabled every
// sample gets weight 1.
func balancedWeights(y []int, balanced bool) []float64 {
	w := make([]float64, len(y))
	if !balanced {
		for i := range w {
			w[i] = 1
		}
		return w
	}

	counts := make(map[int]int)
	for _, label := range y {
		counts[label]++
	}
	n := float64(len(y))
	k := float64(len(counts))
	for i, label := range y {
		w[i] = n / (k * float64(counts[label]))
	}
	return w
}

// normalizeImportances scales importance accumulators to sum to 1 in place.
// A zero vector is left unchanged.
func normalizeImportances(imp []float64) {
	var sum float64
	for _, v := range imp {
		sum += v
	}
	if sum == 0 {
		return
	}
	for i := range imp {
		imp[i] /= sum
	}
}
