// EduPredict - Student Academic Risk and Course Recommendation Pipeline
// Copyright 2026 EduPredict Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/edupredict/edupredict

package models

import (
	"fmt"
	"math"
)

// LogisticRegression is the linear baseline family, fitted by full-batch
// gradient descent on the weighted log loss. Inputs are expected to be
// standardized; the fixed learning rate is tuned for unit-variance features.
type LogisticRegression struct {
	MaxIter      int
	LearningRate float64
	Tolerance    float64
	Balanced     bool

	Coef      []float64
	Intercept float64
	NIter     int
}

// NewLogisticRegression applies the risk-task defaults.
func NewLogisticRegression() *LogisticRegression {
	return &LogisticRegression{
		MaxIter:      1000,
		LearningRate: 0.1,
		Tolerance:    1e-6,
		Balanced:     true,
	}
}

// Name returns the family identifier.
func (lr *LogisticRegression) Name() string { return "logistic_regression" }

// Fit runs gradient descent until the coefficient update falls below
// Tolerance or MaxIter passes complete. Both classes must be present.
func (lr *LogisticRegression) Fit(X [][]float64, y []int) error {
	if err := checkFitInput(X, len(y)); err != nil {
		return fmt.Errorf("logistic_regression: %w", err)
	}
	if distinct, _ := countClasses(y); distinct < 2 {
		return fmt.Errorf("logistic_regression: training labels contain a single class")
	}

	p := len(X[0])
	lr.Coef = make([]float64, p)
	lr.Intercept = 0

	w := balancedWeights(y, lr.Balanced)
	var wTotal float64
	for _, wi := range w {
		wTotal += wi
	}

	grad := make([]float64, p)
	for iter := 0; iter < lr.MaxIter; iter++ {
		for j := range grad {
			grad[j] = 0
		}
		var gradIntercept float64

		for i, row := range X {
			err := sigmoid(lr.decision(row)) - float64(y[i])
			scaled := w[i] * err
			for j, v := range row {
				grad[j] += scaled * v
			}
			gradIntercept += scaled
		}

		var maxStep float64
		for j := range lr.Coef {
			step := lr.LearningRate * grad[j] / wTotal
			lr.Coef[j] -= step
			if s := math.Abs(step); s > maxStep {
				maxStep = s
			}
		}
		step := lr.LearningRate * gradIntercept / wTotal
		lr.Intercept -= step
		if s := math.Abs(step); s > maxStep {
			maxStep = s
		}

		lr.NIter = iter + 1
		if maxStep < lr.Tolerance {
			break
		}
	}

	return nil
}

// Predict thresholds the probability at 0.5.
func (lr *LogisticRegression) Predict(x []float64) int {
	if lr.PredictProba(x) >= 0.5 {
		return 1
	}
	return 0
}

// PredictProba returns the sigmoid of the linear decision value.
func (lr *LogisticRegression) PredictProba(x []float64) float64 {
	return sigmoid(lr.decision(x))
}

func (lr *LogisticRegression) decision(x []float64) float64 {
	z := lr.Intercept
	for j, c := range lr.Coef {
		z += c * x[j]
	}
	return z
}

// Params returns the exportable snapshot entry for this family. The
// coefficients themselves are part of the export: they are the model.
func (lr *LogisticRegression) Params() map[string]any {
	return map[string]any{
		"max_iter":     lr.MaxIter,
		"n_iter":       lr.NIter,
		"coefficients": append([]float64(nil), lr.Coef...),
		"intercept":    lr.Intercept,
	}
}

// sigmoid is numerically stable at both tails.
func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

var _ Classifier = (*LogisticRegression)(nil)
