// EduPredict - Student Academic Risk and Course Recommendation Pipeline
// Copyright 2026 EduPredict Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/edupredict/edupredict

package models

import (
	"fmt"
	"math"
)

// GradientBoostingClassifier fits shallow regression trees to the
// pseudo-residuals of the logistic loss. Leaf values take a single Newton
// step, sum(residual) / sum(p*(1-p)) over the rows reaching the leaf.
type GradientBoostingClassifier struct {
	NEstimators     int
	LearningRate    float64
	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int

	InitialScore float64
	Trees        []*TreeNode
	NFeatures    int
	Importances  []float64
}

// NewGradientBoostingClassifier applies the risk-task defaults.
func NewGradientBoostingClassifier() *GradientBoostingClassifier {
	return &GradientBoostingClassifier{
		NEstimators:     100,
		LearningRate:    0.05,
		MaxDepth:        5,
		MinSamplesSplit: 5,
		MinSamplesLeaf:  2,
	}
}

// Name returns the family identifier.
func (g *GradientBoostingClassifier) Name() string { return "gradient_boosting" }

// Fit runs NEstimators boosting rounds from the log-odds prior. Both
// classes must be present or the prior is infinite.
func (g *GradientBoostingClassifier) Fit(X [][]float64, y []int) error {
	if err := checkFitInput(X, len(y)); err != nil {
		return fmt.Errorf("gradient_boosting: %w", err)
	}
	distinct, positives := countClasses(y)
	if distinct < 2 {
		return fmt.Errorf("gradient_boosting: training labels contain a single class")
	}

	n := len(X)
	g.NFeatures = len(X[0])
	g.Importances = make([]float64, g.NFeatures)
	g.Trees = make([]*TreeNode, 0, g.NEstimators)
	g.InitialScore = math.Log(float64(positives) / float64(n-positives))

	scores := make([]float64, n)
	for i := range scores {
		scores[i] = g.InitialScore
	}

	residuals := make([]float64, n)
	cfg := treeConfig{
		maxDepth: g.MaxDepth,
		minSplit: g.MinSamplesSplit,
		minLeaf:  g.MinSamplesLeaf,
	}
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}

	for round := 0; round < g.NEstimators; round++ {
		for i := range residuals {
			residuals[i] = float64(y[i]) - sigmoid(scores[i])
		}

		tree := growRegressionTree(X, residuals, indices, 0, cfg, g.Importances)
		newtonLeafValues(tree, X, residuals, scores, indices)
		g.Trees = append(g.Trees, tree)

		for i, row := range X {
			scores[i] += g.LearningRate * tree.descend(row).Value
		}
	}

	normalizeImportances(g.Importances)
	return nil
}

// newtonLeafValues replaces each leaf's mean-residual value with the
// one-step Newton update for the logistic loss.
func newtonLeafValues(root *TreeNode, X [][]float64, residuals, scores []float64, indices []int) {
	type leafStats struct{ sumR, sumPQ float64 }
	stats := make(map[*TreeNode]*leafStats)

	for _, i := range indices {
		leaf := root.descend(X[i])
		st, ok := stats[leaf]
		if !ok {
			st = &leafStats{}
			stats[leaf] = st
		}
		p := sigmoid(scores[i])
		st.sumR += residuals[i]
		st.sumPQ += p * (1 - p)
	}

	for leaf, st := range stats {
		if st.sumPQ > 1e-12 {
			leaf.Value = st.sumR / st.sumPQ
		}
	}
}

// Predict thresholds the probability at 0.5.
func (g *GradientBoostingClassifier) Predict(x []float64) int {
	if g.PredictProba(x) >= 0.5 {
		return 1
	}
	return 0
}

// PredictProba sums the staged scores and maps through the sigmoid.
func (g *GradientBoostingClassifier) PredictProba(x []float64) float64 {
	score := g.InitialScore
	for _, tree := range g.Trees {
		score += g.LearningRate * tree.descend(x).Value
	}
	return sigmoid(score)
}

// FeatureImportances returns normalized impurity-decrease importances.
func (g *GradientBoostingClassifier) FeatureImportances() []float64 {
	return g.Importances
}

// Params returns the exportable snapshot entry for this family.
func (g *GradientBoostingClassifier) Params() map[string]any {
	return map[string]any{
		"n_estimators":        g.NEstimators,
		"learning_rate":       g.LearningRate,
		"max_depth":           g.MaxDepth,
		"n_features":          g.NFeatures,
		"feature_importances": append([]float64(nil), g.Importances...),
	}
}

// AdaBoostClassifier boosts weighted decision stumps. Each round refits
// the sample weight distribution toward the rows the previous stump missed.
type AdaBoostClassifier struct {
	NEstimators  int
	LearningRate float64

	Stumps    []*TreeNode
	Alphas    []float64
	NFeatures int
}

// NewAdaBoostClassifier applies the recommendation-task defaults.
func NewAdaBoostClassifier() *AdaBoostClassifier {
	return &AdaBoostClassifier{
		NEstimators:  100,
		LearningRate: 0.1,
	}
}

// Name returns the family identifier.
func (a *AdaBoostClassifier) Name() string { return "adaboost" }

// Fit boosts until NEstimators stumps are fitted or boosting stalls.
// Stalling after at least one stump is not an error; the partial ensemble
// stands.
func (a *AdaBoostClassifier) Fit(X [][]float64, y []int) error {
	if err := checkFitInput(X, len(y)); err != nil {
		return fmt.Errorf("adaboost: %w", err)
	}
	if distinct, _ := countClasses(y); distinct < 2 {
		return fmt.Errorf("adaboost: training labels contain a single class")
	}

	n := len(X)
	a.NFeatures = len(X[0])
	a.Stumps = nil
	a.Alphas = nil

	w := make([]float64, n)
	for i := range w {
		w[i] = 1 / float64(n)
	}

	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	cfg := treeConfig{maxDepth: 1, minSplit: 2, minLeaf: 1}
	imp := make([]float64, a.NFeatures)

	for round := 0; round < a.NEstimators; round++ {
		stump := growClassificationTree(X, y, w, indices, 0, cfg, imp)

		var weightedErr float64
		for i, row := range X {
			if stumpPredict(stump, row) != y[i] {
				weightedErr += w[i]
			}
		}

		if weightedErr <= 1e-12 {
			// Perfect stump dominates the vote; further rounds add nothing.
			a.Stumps = append(a.Stumps, stump)
			a.Alphas = append(a.Alphas, a.LearningRate*10)
			break
		}
		if weightedErr >= 0.5 {
			if len(a.Stumps) == 0 {
				return fmt.Errorf("adaboost: first stump no better than chance")
			}
			break
		}

		alpha := a.LearningRate * math.Log((1-weightedErr)/weightedErr)
		a.Stumps = append(a.Stumps, stump)
		a.Alphas = append(a.Alphas, alpha)

		var wSum float64
		for i, row := range X {
			if stumpPredict(stump, row) != y[i] {
				w[i] *= math.Exp(alpha)
			}
			wSum += w[i]
		}
		for i := range w {
			w[i] /= wSum
		}
	}

	return nil
}

func stumpPredict(stump *TreeNode, x []float64) int {
	if stump.descend(x).Proba >= 0.5 {
		return 1
	}
	return 0
}

// Predict takes the alpha-weighted majority vote.
func (a *AdaBoostClassifier) Predict(x []float64) int {
	if a.PredictProba(x) >= 0.5 {
		return 1
	}
	return 0
}

// PredictProba returns the positive share of the alpha-weighted vote.
func (a *AdaBoostClassifier) PredictProba(x []float64) float64 {
	var votePos, voteTotal float64
	for i, stump := range a.Stumps {
		voteTotal += a.Alphas[i]
		if stumpPredict(stump, x) == 1 {
			votePos += a.Alphas[i]
		}
	}
	if voteTotal == 0 {
		return 0.5
	}
	return votePos / voteTotal
}

// Params returns the exportable snapshot entry for this family.
func (a *AdaBoostClassifier) Params() map[string]any {
	return map[string]any{
		"n_estimators":  a.NEstimators,
		"learning_rate": a.LearningRate,
		"n_fitted":      len(a.Stumps),
		"n_features":    a.NFeatures,
	}
}

var (
	_ Classifier    = (*GradientBoostingClassifier)(nil)
	_ FeatureRanker = (*GradientBoostingClassifier)(nil)
	_ Classifier    = (*AdaBoostClassifier)(nil)
)
