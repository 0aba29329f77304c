// EduPredict - Student Academic Risk and Course Recommendation Pipeline
// Copyright 2026 EduPredict Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/edupredict/edupredict

package ml

import (
	"math"
	"sort"
)

// ClassifierMetrics is the standardized evaluation block computed for every
// classifier family on the held-out test split. Precision, recall and F1
// treat class 1 as the positive class.
type ClassifierMetrics struct {
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	ROCAUC    float64 `json:"roc_auc"`

	// CVMean and CVStd are the 5-fold cross-validated F1 statistics,
	// computed on the training split only.
	CVMean float64 `json:"cv_f1_mean"`
	CVStd  float64 `json:"cv_f1_std"`

	Confusion ConfusionMatrix `json:"confusion"`
}

// RegressionMetrics is the evaluation block for the grade regressor.
type RegressionMetrics struct {
	RMSE float64 `json:"rmse"`
	MAE  float64 `json:"mae"`
	R2   float64 `json:"r2"`
}

// ConfusionMatrix holds binary classification outcome counts.
type ConfusionMatrix struct {
	TrueNegatives  int `json:"tn"`
	FalsePositives int `json:"fp"`
	FalseNegatives int `json:"fn"`
	TruePositives  int `json:"tp"`
}

// Accuracy is the fraction of correct predictions.
func Accuracy(yTrue, yPred []int) float64 {
	if len(yTrue) == 0 {
		return 0
	}
	correct := 0
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(yTrue))
}

// PrecisionRecallF1 computes binary precision, recall and F1 with class 1
// as positive. Undefined ratios (no predicted or no actual positives) are 0.
func PrecisionRecallF1(yTrue, yPred []int) (precision, recall, f1 float64) {
	cm := Confusion(yTrue, yPred)

	if cm.TruePositives+cm.FalsePositives > 0 {
		precision = float64(cm.TruePositives) / float64(cm.TruePositives+cm.FalsePositives)
	}
	if cm.TruePositives+cm.FalseNegatives > 0 {
		recall = float64(cm.TruePositives) / float64(cm.TruePositives+cm.FalseNegatives)
	}
	if precision+recall > 0 {
		f1 = 2 * precision * recall / (precision + recall)
	}
	return precision, recall, f1
}

// F1Score returns only the binary F1, positive class 1.
func F1Score(yTrue, yPred []int) float64 {
	_, _, f1 := PrecisionRecallF1(yTrue, yPred)
	return f1
}

// Confusion tallies binary outcomes.
func Confusion(yTrue, yPred []int) ConfusionMatrix {
	var cm ConfusionMatrix
	for i := range yTrue {
		switch {
		case yTrue[i] == 1 && yPred[i] == 1:
			cm.TruePositives++
		case yTrue[i] == 1 && yPred[i] == 0:
			cm.FalseNegatives++
		case yTrue[i] == 0 && yPred[i] == 1:
			cm.FalsePositives++
		default:
			cm.TrueNegatives++
		}
	}
	return cm
}

// ROCAUC computes the area under the ROC curve from predicted positive-class
// probabilities, using the rank statistic formulation. Tied scores share
// their average rank. Returns 0.5 when only one class is present, matching
// the no-information baseline.
func ROCAUC(yTrue []int, scores []float64) float64 {
	nPos, nNeg := 0, 0
	for _, label := range yTrue {
		if label == 1 {
			nPos++
		} else {
			nNeg++
		}
	}
	if nPos == 0 || nNeg == 0 {
		return 0.5
	}

	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool { return scores[order[i]] < scores[order[j]] })

	// Average ranks across tied score groups.
	ranks := make([]float64, len(scores))
	for i := 0; i < len(order); {
		j := i
		for j < len(order) && scores[order[j]] == scores[order[i]] {
			j++
		}
		avgRank := float64(i+j+1) / 2 // ranks are 1-based
		for k := i; k < j; k++ {
			ranks[order[k]] = avgRank
		}
		i = j
	}

	var posRankSum float64
	for i, label := range yTrue {
		if label == 1 {
			posRankSum += ranks[i]
		}
	}

	u := posRankSum - float64(nPos)*float64(nPos+1)/2
	return u / (float64(nPos) * float64(nNeg))
}

// RMSE is the root mean squared error.
func RMSE(yTrue, yPred []float64) float64 {
	if len(yTrue) == 0 {
		return 0
	}
	var sum float64
	for i := range yTrue {
		d := yTrue[i] - yPred[i]
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(yTrue)))
}

// MAE is the mean absolute error.
func MAE(yTrue, yPred []float64) float64 {
	if len(yTrue) == 0 {
		return 0
	}
	var sum float64
	for i := range yTrue {
		sum += math.Abs(yTrue[i] - yPred[i])
	}
	return sum / float64(len(yTrue))
}

// R2 is the coefficient of determination. A constant target yields 0.
func R2(yTrue, yPred []float64) float64 {
	if len(yTrue) == 0 {
		return 0
	}

	var mean float64
	for _, v := range yTrue {
		mean += v
	}
	mean /= float64(len(yTrue))

	var ssRes, ssTot float64
	for i := range yTrue {
		d := yTrue[i] - yPred[i]
		ssRes += d * d
		t := yTrue[i] - mean
		ssTot += t * t
	}
	if ssTot == 0 {
		return 0
	}
	return 1 - ssRes/ssTot
}

// meanStd returns the mean and population standard deviation of v.
func meanStd(v []float64) (mean, std float64) {
	if len(v) == 0 {
		return 0, 0
	}
	for _, x := range v {
		mean += x
	}
	mean /= float64(len(v))
	for _, x := range v {
		d := x - mean
		std += d * d
	}
	return mean, math.Sqrt(std / float64(len(v)))
}
