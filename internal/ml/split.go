// EduPredict - Student Academic Risk and Course Recommendation Pipeline
// Copyright 2026 EduPredict Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/edupredict/edupredict

package ml

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// StratifiedSplit partitions row indices into train and test sets, keeping
// the class ratio of the binary label in both partitions to within integer
// rounding. The same seed and label vector always produce the same split;
// the returned index slices are sorted ascending so downstream iteration is
// order-independent of the shuffle.
func StratifiedSplit(y []int, testFraction float64, seed int64) (train, test []int, err error) {
	if testFraction <= 0 || testFraction >= 1 {
		return nil, nil, fmt.Errorf("split: test fraction must be in (0, 1), got %v", testFraction)
	}

	byClass := indicesByClass(y)
	rng := rand.New(rand.NewSource(seed))

	// Classes processed in sorted order so shuffling consumes the rng
	// deterministically.
	classes := make([]int, 0, len(byClass))
	for c := range byClass {
		classes = append(classes, c)
	}
	sort.Ints(classes)

	for _, c := range classes {
		idx := byClass[c]
		rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })

		nTest := int(math.Round(testFraction * float64(len(idx))))
		if nTest == 0 && len(idx) > 1 {
			nTest = 1
		}

		test = append(test, idx[:nTest]...)
		train = append(train, idx[nTest:]...)
	}

	if len(train) == 0 || len(test) == 0 {
		return nil, nil, fmt.Errorf("split: %d samples too few for a %v test fraction", len(y), testFraction)
	}

	sort.Ints(train)
	sort.Ints(test)
	return train, test, nil
}

// StratifiedKFold assigns row indices to k folds, preserving the class
// ratio per fold. Folds are deterministic for a fixed seed and label
// vector. Each returned fold is the held-out validation set for that round.
func StratifiedKFold(y []int, k int, seed int64) ([][]int, error) {
	if k < 2 {
		return nil, fmt.Errorf("split: need at least 2 folds, got %d", k)
	}
	if k > len(y) {
		return nil, fmt.Errorf("split: %d folds exceed %d samples", k, len(y))
	}

	byClass := indicesByClass(y)
	rng := rand.New(rand.NewSource(seed))

	classes := make([]int, 0, len(byClass))
	for c := range byClass {
		classes = append(classes, c)
	}
	sort.Ints(classes)

	folds := make([][]int, k)
	for _, c := range classes {
		idx := byClass[c]
		rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })
		for i, sample := range idx {
			folds[i%k] = append(folds[i%k], sample)
		}
	}

	for _, fold := range folds {
		sort.Ints(fold)
	}
	return folds, nil
}

// indicesByClass groups row indices by label value.
func indicesByClass(y []int) map[int][]int {
	byClass := make(map[int][]int)
	for i, label := range y {
		byClass[label] = append(byClass[label], i)
	}
	return byClass
}

// complement returns all indices of a 0..n-1 range not present in the
// excluded set. Used to build the training side of a CV fold.
func complement(n int, excluded []int) []int {
	skip := make(map[int]struct{}, len(excluded))
	for _, i := range excluded {
		skip[i] = struct{}{}
	}
	out := make([]int, 0, n-len(excluded))
	for i := 0; i < n; i++ {
		if _, ok := skip[i]; !ok {
			out = append(out, i)
		}
	}
	return out
}
