// EduPredict - Student Academic Risk and Course Recommendation Pipeline
// Copyright 2026 EduPredict Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/edupredict/edupredict

package models

import (
	"fmt"
	"math"
	"math/rand"
)

// RandomForestClassifier bags gini-criterion trees over bootstrap samples,
// each tree restricted to a sqrt(p) feature subset per split. Probabilities
// average the per-tree leaf probabilities.
type RandomForestClassifier struct {
	NEstimators     int
	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int
	Balanced        bool
	Seed            int64

	Trees       []*TreeNode
	NFeatures   int
	Importances []float64
}

// NewRandomForestClassifier applies the risk-task defaults.
func NewRandomForestClassifier(seed int64) *RandomForestClassifier {
	return &RandomForestClassifier{
		NEstimators:     200,
		MaxDepth:        15,
		MinSamplesSplit: 5,
		MinSamplesLeaf:  2,
		Balanced:        true,
		Seed:            seed,
	}
}

// Name returns the family identifier.
func (f *RandomForestClassifier) Name() string { return "random_forest" }

// Fit grows NEstimators trees on seeded bootstrap resamples.
func (f *RandomForestClassifier) Fit(X [][]float64, y []int) error {
	if err := checkFitInput(X, len(y)); err != nil {
		return fmt.Errorf("random_forest: %w", err)
	}

	f.NFeatures = len(X[0])
	f.Importances = make([]float64, f.NFeatures)
	f.Trees = make([]*TreeNode, 0, f.NEstimators)

	w := balancedWeights(y, f.Balanced)
	rng := rand.New(rand.NewSource(f.Seed))
	maxFeatures := int(math.Sqrt(float64(f.NFeatures)))
	if maxFeatures < 1 {
		maxFeatures = 1
	}

	for t := 0; t < f.NEstimators; t++ {
		indices := bootstrapSample(rng, len(X))
		cfg := treeConfig{
			maxDepth:    f.MaxDepth,
			minSplit:    f.MinSamplesSplit,
			minLeaf:     f.MinSamplesLeaf,
			maxFeatures: maxFeatures,
			rng:         rng,
		}
		f.Trees = append(f.Trees, growClassificationTree(X, y, w, indices, 0, cfg, f.Importances))
	}

	normalizeImportances(f.Importances)
	return nil
}

// Predict thresholds the averaged tree probability at 0.5.
func (f *RandomForestClassifier) Predict(x []float64) int {
	if f.PredictProba(x) >= 0.5 {
		return 1
	}
	return 0
}

// PredictProba averages the positive-class fraction across all trees.
func (f *RandomForestClassifier) PredictProba(x []float64) float64 {
	var sum float64
	for _, tree := range f.Trees {
		sum += tree.descend(x).Proba
	}
	return sum / float64(len(f.Trees))
}

// FeatureImportances returns normalized impurity-decrease importances
// accumulated across the whole forest.
func (f *RandomForestClassifier) FeatureImportances() []float64 {
	return f.Importances
}

// Params returns the exportable snapshot entry for this family.
func (f *RandomForestClassifier) Params() map[string]any {
	return map[string]any{
		"n_estimators":        f.NEstimators,
		"max_depth":           f.MaxDepth,
		"min_samples_split":   f.MinSamplesSplit,
		"min_samples_leaf":    f.MinSamplesLeaf,
		"n_features":          f.NFeatures,
		"n_classes":           2,
		"feature_importances": append([]float64(nil), f.Importances...),
	}
}

// RandomForestRegressor bags variance-criterion trees over bootstrap
// samples. All features are candidates at every split.
type RandomForestRegressor struct {
	NEstimators     int
	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int
	Seed            int64

	Trees       []*TreeNode
	NFeatures   int
	Importances []float64
}

// NewRandomForestRegressor applies the grade-prediction defaults.
func NewRandomForestRegressor(seed int64) *RandomForestRegressor {
	return &RandomForestRegressor{
		NEstimators:     200,
		MaxDepth:        15,
		MinSamplesSplit: 5,
		MinSamplesLeaf:  2,
		Seed:            seed,
	}
}

// Name returns the family identifier.
func (f *RandomForestRegressor) Name() string { return "random_forest_regressor" }

// Fit grows NEstimators regression trees on seeded bootstrap resamples.
func (f *RandomForestRegressor) Fit(X [][]float64, y []float64) error {
	if err := checkFitInput(X, len(y)); err != nil {
		return fmt.Errorf("random_forest_regressor: %w", err)
	}

	f.NFeatures = len(X[0])
	f.Importances = make([]float64, f.NFeatures)
	f.Trees = make([]*TreeNode, 0, f.NEstimators)

	rng := rand.New(rand.NewSource(f.Seed))
	for t := 0; t < f.NEstimators; t++ {
		indices := bootstrapSample(rng, len(X))
		cfg := treeConfig{
			maxDepth: f.MaxDepth,
			minSplit: f.MinSamplesSplit,
			minLeaf:  f.MinSamplesLeaf,
		}
		f.Trees = append(f.Trees, growRegressionTree(X, y, indices, 0, cfg, f.Importances))
	}

	normalizeImportances(f.Importances)
	return nil
}

// Predict averages the tree predictions.
func (f *RandomForestRegressor) Predict(x []float64) float64 {
	var sum float64
	for _, tree := range f.Trees {
		sum += tree.descend(x).Value
	}
	return sum / float64(len(f.Trees))
}

// FeatureImportances returns normalized impurity-decrease importances.
func (f *RandomForestRegressor) FeatureImportances() []float64 {
	return f.Importances
}

// Params returns the exportable snapshot entry for this family.
func (f *RandomForestRegressor) Params() map[string]any {
	return map[string]any{
		"n_estimators":        f.NEstimators,
		"max_depth":           f.MaxDepth,
		"min_samples_split":   f.MinSamplesSplit,
		"min_samples_leaf":    f.MinSamplesLeaf,
		"n_features":          f.NFeatures,
		"feature_importances": append([]float64(nil), f.Importances...),
	}
}

// bootstrapSample draws n indices with replacement.
func bootstrapSample(rng *rand.Rand, n int) []int {
	indices := make([]int, n)
	for i := range indices {
		indices[i] = rng.Intn(n)
	}
	return indices
}

var (
	_ Classifier    = (*RandomForestClassifier)(nil)
	_ FeatureRanker = (*RandomForestClassifier)(nil)
	_ Regressor     = (*RandomForestRegressor)(nil)
	_ FeatureRanker = (*RandomForestRegressor)(nil)
)
