// EduPredict - Student Academic Risk and Course Recommendation Pipeline
// Copyright 2026 EduPredict Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/edupredict/edupredict

package ml

import (
	"fmt"

	"github.com/edupredict/edupredict/internal/ml/models"
)

// evaluateClassifier scores a fitted classifier on the held-out rows.
// CV statistics are filled in separately by crossValF1.
func evaluateClassifier(clf models.Classifier, X [][]float64, y []int) ClassifierMetrics {
	pred := make([]int, len(X))
	scores := make([]float64, len(X))
	for i, row := range X {
		pred[i] = clf.Predict(row)
		scores[i] = clf.PredictProba(row)
	}

	precision, recall, f1 := PrecisionRecallF1(y, pred)
	return ClassifierMetrics{
		Accuracy:  Accuracy(y, pred),
		Precision: precision,
		Recall:    recall,
		F1:        f1,
		ROCAUC:    ROCAUC(y, scores),
		Confusion: Confusion(y, pred),
	}
}

// evaluateRegressor scores a fitted regressor on the held-out rows.
func evaluateRegressor(reg models.Regressor, X [][]float64, y []float64) RegressionMetrics {
	pred := make([]float64, len(X))
	for i, row := range X {
		pred[i] = reg.Predict(row)
	}
	return RegressionMetrics{
		RMSE: RMSE(y, pred),
		MAE:  MAE(y, pred),
		R2:   R2(y, pred),
	}
}

// crossValF1 runs stratified k-fold cross-validation over the training rows
// only, fitting a fresh model per fold via the factory. Returns the mean and
// population standard deviation of the per-fold F1 scores. A fold whose fit
// fails propagates the error; CV runs on data the full fit already accepted,
// so a fold failure signals a genuinely degenerate fold.
func crossValF1(factory func() models.Classifier, X [][]float64, y []int, k int, seed int64) (mean, std float64, err error) {
	folds, err := StratifiedKFold(y, k, seed)
	if err != nil {
		return 0, 0, err
	}

	f1s := make([]float64, 0, k)
	for fold, valIdx := range folds {
		trainIdx := complement(len(y), valIdx)

		clf := factory()
		if fitErr := clf.Fit(takeRows(X, trainIdx), takeInt(y, trainIdx)); fitErr != nil {
			return 0, 0, fmt.Errorf("cv fold %d: %w", fold, fitErr)
		}

		pred := make([]int, len(valIdx))
		for i, idx := range valIdx {
			pred[i] = clf.Predict(X[idx])
		}
		f1s = append(f1s, F1Score(takeInt(y, valIdx), pred))
	}

	mean, std = meanStd(f1s)
	return mean, std, nil
}

// takeRows returns the rows of X at the given indices.
func takeRows(X [][]float64, indices []int) [][]float64 {
	out := make([][]float64, len(indices))
	for i, idx := range indices {
		out[i] = X[idx]
	}
	return out
}
