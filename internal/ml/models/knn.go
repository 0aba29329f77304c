// EduPredict - Student Academic Risk and Course Recommendation Pipeline
// Copyright 2026 EduPredict Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/edupredict/edupredict

package models

import (
	"fmt"
	"math"
	"sort"
)

// KNNClassifier is a lazy distance-weighted nearest-neighbor classifier.
// Fit only retains the training data; all work happens at query time.
type KNNClassifier struct {
	// K is the neighbor count. When zero, Fit picks min(5, n/2) with a
	// floor of 1.
	K int

	TrainX [][]float64
	TrainY []int
}

// NewKNNClassifier defers the neighbor count to Fit.
func NewKNNClassifier() *KNNClassifier { return &KNNClassifier{} }

// Name returns the family identifier.
func (k *KNNClassifier) Name() string { return "knn" }

// Fit stores the training rows. Data is copied so later mutation of the
// caller's slices cannot change fitted behavior.
func (k *KNNClassifier) Fit(X [][]float64, y []int) error {
	if err := checkFitInput(X, len(y)); err != nil {
		return fmt.Errorf("knn: %w", err)
	}

	if k.K == 0 {
		k.K = len(X) / 2
		if k.K > 5 {
			k.K = 5
		}
		if k.K < 1 {
			k.K = 1
		}
	}
	if k.K > len(X) {
		return fmt.Errorf("knn: k=%d exceeds %d training samples", k.K, len(X))
	}

	k.TrainX = make([][]float64, len(X))
	for i, row := range X {
		k.TrainX[i] = append([]float64(nil), row...)
	}
	k.TrainY = append([]int(nil), y...)
	return nil
}

// Predict thresholds the weighted vote at 0.5.
func (k *KNNClassifier) Predict(x []float64) int {
	if k.PredictProba(x) >= 0.5 {
		return 1
	}
	return 0
}

// PredictProba returns the inverse-distance weighted positive vote share
// over the K nearest training rows. An exact match (zero distance) decides
// the query outright, as an infinite weight would.
func (k *KNNClassifier) PredictProba(x []float64) float64 {
	neighbors := nearest(k.TrainX, x, k.K)

	var wPos, wTotal float64
	for _, nb := range neighbors {
		if nb.dist == 0 {
			return float64(k.TrainY[nb.index])
		}
		w := 1 / nb.dist
		wTotal += w
		if k.TrainY[nb.index] == 1 {
			wPos += w
		}
	}
	return wPos / wTotal
}

// Params returns the exportable snapshot entry for this family.
func (k *KNNClassifier) Params() map[string]any {
	return map[string]any{
		"n_neighbors": k.K,
		"weights":     "distance",
		"metric":      "euclidean",
		"n_samples":   len(k.TrainX),
	}
}

// NearestNeighborsIndex is an unsupervised neighbor lookup over fitted
// rows, used to surface peer cohorts for a query row.
type NearestNeighborsIndex struct {
	// K is the default neighbor count. When zero, Fit picks
	// min(10, n-1) with a floor of 1.
	K int

	Rows [][]float64
}

// NewNearestNeighborsIndex defers the neighbor count to Fit.
func NewNearestNeighborsIndex() *NearestNeighborsIndex { return &NearestNeighborsIndex{} }

// Fit stores a copy of the reference rows.
func (idx *NearestNeighborsIndex) Fit(X [][]float64) error {
	if len(X) == 0 {
		return fmt.Errorf("neighbors: empty reference set")
	}

	if idx.K == 0 {
		idx.K = len(X) - 1
		if idx.K > 10 {
			idx.K = 10
		}
		if idx.K < 1 {
			idx.K = 1
		}
	}

	idx.Rows = make([][]float64, len(X))
	for i, row := range X {
		idx.Rows[i] = append([]float64(nil), row...)
	}
	return nil
}

// Kneighbors returns the indices and distances of the K reference rows
// nearest to x, ascending by distance with index as the tie-break.
func (idx *NearestNeighborsIndex) Kneighbors(x []float64) (indices []int, distances []float64) {
	neighbors := nearest(idx.Rows, x, idx.K)
	indices = make([]int, len(neighbors))
	distances = make([]float64, len(neighbors))
	for i, nb := range neighbors {
		indices[i] = nb.index
		distances[i] = nb.dist
	}
	return indices, distances
}

// Params returns the exportable snapshot entry for the index.
func (idx *NearestNeighborsIndex) Params() map[string]any {
	return map[string]any{
		"n_neighbors": idx.K,
		"metric":      "euclidean",
		"n_samples":   len(idx.Rows),
	}
}

type neighbor struct {
	index int
	dist  float64
}

// nearest returns the k rows closest to x by euclidean distance, ascending,
// ties broken by row index.
func nearest(rows [][]float64, x []float64, k int) []neighbor {
	all := make([]neighbor, len(rows))
	for i, row := range rows {
		all[i] = neighbor{index: i, dist: euclidean(row, x)}
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].dist != all[j].dist {
			return all[i].dist < all[j].dist
		}
		return all[i].index < all[j].index
	})
	if k > len(all) {
		k = len(all)
	}
	return all[:k]
}

func euclidean(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

var _ Classifier = (*KNNClassifier)(nil)
