// EduPredict - Student Academic Risk and Course Recommendation Pipeline
// Copyright 2026 EduPredict Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/edupredict/edupredict

package models

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
)

// TreeNode is one node of a fitted CART tree. Exported with exported fields
// so whole trees serialize through gob. Leaf nodes carry Proba (classifier)
// or Value (regressor); internal nodes carry the split.
type TreeNode struct {
	// Feature is the column index the node splits on.
	Feature int

	// Threshold sends rows with value <= Threshold left.
	Threshold float64

	Left  *TreeNode
	Right *TreeNode

	// Leaf marks terminal nodes.
	Leaf bool

	// Proba is the positive-class fraction at a classifier leaf.
	Proba float64

	// Value is the target mean at a regressor leaf.
	Value float64

	// Samples is the training row count that reached the node.
	Samples int
}

// descend walks the tree to the leaf covering x.
func (n *TreeNode) descend(x []float64) *TreeNode {
	for !n.Leaf {
		if x[n.Feature] <= n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return n
}

// treeConfig bundles the growth limits shared by both tree kinds.
type treeConfig struct {
	maxDepth    int // <= 0 means unlimited
	minSplit    int
	minLeaf     int
	maxFeatures int // <= 0 means all features
	rng         *rand.Rand
}

// splitCandidate is the best split found for one node.
type splitCandidate struct {
	feature   int
	threshold float64
	decrease  float64
	left      []int
	right     []int
	found     bool
}

// candidateFeatures picks the feature subset examined at one node.
func (c treeConfig) candidateFeatures(p int) []int {
	if c.maxFeatures <= 0 || c.maxFeatures >= p {
		features := make([]int, p)
		for i := range features {
			features[i] = i
		}
		return features
	}
	perm := c.rng.Perm(p)
	features := perm[:c.maxFeatures]
	sort.Ints(features)
	return features
}

// ───────────────────────── classification trees ─────────────────────────

// growClassificationTree builds a gini-criterion tree over the given row
// indices. Weighted impurity decreases accumulate into imp per feature.
func growClassificationTree(X [][]float64, y []int, w []float64, indices []int, depth int, cfg treeConfig, imp []float64) *TreeNode {
	node := &TreeNode{Samples: len(indices)}

	var wPos, wTotal float64
	for _, i := range indices {
		wTotal += w[i]
		if y[i] == 1 {
			wPos += w[i]
		}
	}
	node.Proba = wPos / wTotal

	impurity := giniImpurity(wPos, wTotal)
	if impurity == 0 || len(indices) < cfg.minSplit || (cfg.maxDepth > 0 && depth >= cfg.maxDepth) {
		node.Leaf = true
		return node
	}

	best := bestClassificationSplit(X, y, w, indices, cfg, impurity, wTotal)
	if !best.found {
		node.Leaf = true
		return node
	}

	imp[best.feature] += best.decrease
	node.Feature = best.feature
	node.Threshold = best.threshold
	node.Left = growClassificationTree(X, y, w, best.left, depth+1, cfg, imp)
	node.Right = growClassificationTree(X, y, w, best.right, depth+1, cfg, imp)
	return node
}

// bestClassificationSplit scans candidate features for the split with the
// largest weighted gini decrease.
func bestClassificationSplit(X [][]float64, y []int, w []float64, indices []int, cfg treeConfig, parentImpurity, wTotal float64) splitCandidate {
	var best splitCandidate

	for _, feature := range cfg.candidateFeatures(len(X[0])) {
		ordered := make([]int, len(indices))
		copy(ordered, indices)
		sort.SliceStable(ordered, func(a, b int) bool {
			return X[ordered[a]][feature] < X[ordered[b]][feature]
		})

		var wLeft, wLeftPos float64
		wRight := wTotal
		var wRightPos float64
		for _, i := range ordered {
			if y[i] == 1 {
				wRightPos += w[i]
			}
		}

		for pos := 1; pos < len(ordered); pos++ {
			prev := ordered[pos-1]
			wLeft += w[prev]
			wRight -= w[prev]
			if y[prev] == 1 {
				wLeftPos += w[prev]
				wRightPos -= w[prev]
			}

			if X[prev][feature] == X[ordered[pos]][feature] {
				continue
			}
			if pos < cfg.minLeaf || len(ordered)-pos < cfg.minLeaf {
				continue
			}

			decrease := wTotal*parentImpurity -
				wLeft*giniImpurity(wLeftPos, wLeft) -
				wRight*giniImpurity(wRightPos, wRight)

			if decrease > best.decrease {
				best = splitCandidate{
					feature:   feature,
					threshold: (X[prev][feature] + X[ordered[pos]][feature]) / 2,
					decrease:  decrease,
					left:      append([]int(nil), ordered[:pos]...),
					right:     append([]int(nil), ordered[pos:]...),
					found:     true,
				}
			}
		}
	}

	return best
}

// giniImpurity computes binary gini from the positive weight share.
func giniImpurity(wPos, wTotal float64) float64 {
	if wTotal == 0 {
		return 0
	}
	p := wPos / wTotal
	return 2 * p * (1 - p)
}

// ─────────────────────────── regression trees ───────────────────────────

// growRegressionTree builds an SSE-criterion tree over the given indices.
func growRegressionTree(X [][]float64, target []float64, indices []int, depth int, cfg treeConfig, imp []float64) *TreeNode {
	node := &TreeNode{Samples: len(indices)}

	var sum, sumSq float64
	for _, i := range indices {
		sum += target[i]
		sumSq += target[i] * target[i]
	}
	n := float64(len(indices))
	node.Value = sum / n

	sse := sumSq - sum*sum/n
	if sse <= 1e-12 || len(indices) < cfg.minSplit || (cfg.maxDepth > 0 && depth >= cfg.maxDepth) {
		node.Leaf = true
		return node
	}

	best := bestRegressionSplit(X, target, indices, cfg, sse)
	if !best.found {
		node.Leaf = true
		return node
	}

	if imp != nil {
		imp[best.feature] += best.decrease
	}
	node.Feature = best.feature
	node.Threshold = best.threshold
	node.Left = growRegressionTree(X, target, best.left, depth+1, cfg, imp)
	node.Right = growRegressionTree(X, target, best.right, depth+1, cfg, imp)
	return node
}

// bestRegressionSplit scans candidate features for the split with the
// largest SSE reduction.
func bestRegressionSplit(X [][]float64, target []float64, indices []int, cfg treeConfig, parentSSE float64) splitCandidate {
	var best splitCandidate

	for _, feature := range cfg.candidateFeatures(len(X[0])) {
		ordered := make([]int, len(indices))
		copy(ordered, indices)
		sort.SliceStable(ordered, func(a, b int) bool {
			return X[ordered[a]][feature] < X[ordered[b]][feature]
		})

		var sumLeft, sumSqLeft float64
		var sumRight, sumSqRight float64
		for _, i := range ordered {
			sumRight += target[i]
			sumSqRight += target[i] * target[i]
		}

		for pos := 1; pos < len(ordered); pos++ {
			prev := ordered[pos-1]
			t := target[prev]
			sumLeft += t
			sumSqLeft += t * t
			sumRight -= t
			sumSqRight -= t * t

			if X[prev][feature] == X[ordered[pos]][feature] {
				continue
			}
			if pos < cfg.minLeaf || len(ordered)-pos < cfg.minLeaf {
				continue
			}

			nL, nR := float64(pos), float64(len(ordered)-pos)
			sseLeft := sumSqLeft - sumLeft*sumLeft/nL
			sseRight := sumSqRight - sumRight*sumRight/nR
			decrease := parentSSE - sseLeft - sseRight

			if decrease > best.decrease {
				best = splitCandidate{
					feature:   feature,
					threshold: (X[prev][feature] + X[ordered[pos]][feature]) / 2,
					decrease:  decrease,
					left:      append([]int(nil), ordered[:pos]...),
					right:     append([]int(nil), ordered[pos:]...),
					found:     true,
				}
			}
		}
	}

	return best
}

// ─────────────────────── interpretable single tree ───────────────────────

// DecisionTreeClassifier is a single depth-bounded CART classifier. It is
// the interpretable family: RuleDump renders the fitted tree as indented
// threshold rules.
type DecisionTreeClassifier struct {
	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int
	Balanced        bool

	Root        *TreeNode
	NFeatures   int
	Importances []float64
}

// NewDecisionTreeClassifier applies the recommendation-task defaults.
func NewDecisionTreeClassifier() *DecisionTreeClassifier {
	return &DecisionTreeClassifier{
		MaxDepth:        8,
		MinSamplesSplit: 5,
		MinSamplesLeaf:  2,
		Balanced:        true,
	}
}

// Name returns the family identifier.
func (t *DecisionTreeClassifier) Name() string { return "decision_tree" }

// Fit grows the tree. A single-class label vector is accepted: the tree
// degenerates to one leaf.
func (t *DecisionTreeClassifier) Fit(X [][]float64, y []int) error {
	if err := checkFitInput(X, len(y)); err != nil {
		return fmt.Errorf("decision_tree: %w", err)
	}

	t.NFeatures = len(X[0])
	t.Importances = make([]float64, t.NFeatures)

	w := balancedWeights(y, t.Balanced)
	indices := make([]int, len(X))
	for i := range indices {
		indices[i] = i
	}

	cfg := treeConfig{
		maxDepth: t.MaxDepth,
		minSplit: t.MinSamplesSplit,
		minLeaf:  t.MinSamplesLeaf,
	}
	t.Root = growClassificationTree(X, y, w, indices, 0, cfg, t.Importances)
	normalizeImportances(t.Importances)
	return nil
}

// Predict returns the majority class at the covering leaf.
func (t *DecisionTreeClassifier) Predict(x []float64) int {
	if t.PredictProba(x) >= 0.5 {
		return 1
	}
	return 0
}

// PredictProba returns the positive-class fraction at the covering leaf.
func (t *DecisionTreeClassifier) PredictProba(x []float64) float64 {
	return t.Root.descend(x).Proba
}

// FeatureImportances returns normalized impurity-decrease importances.
func (t *DecisionTreeClassifier) FeatureImportances() []float64 {
	return t.Importances
}

// Params returns the exportable snapshot entry for this family.
func (t *DecisionTreeClassifier) Params() map[string]any {
	return map[string]any{
		"max_depth":           t.MaxDepth,
		"min_samples_split":   t.MinSamplesSplit,
		"min_samples_leaf":    t.MinSamplesLeaf,
		"n_features":          t.NFeatures,
		"n_classes":           2,
		"feature_importances": append([]float64(nil), t.Importances...),
	}
}

// RuleDump renders the fitted tree as human-readable threshold rules,
// truncated to maxChars so snapshot size stays bounded.
func (t *DecisionTreeClassifier) RuleDump(featureNames []string, maxChars int) string {
	var b strings.Builder
	dumpNode(&b, t.Root, featureNames, 0)

	rules := b.String()
	if maxChars > 0 && len(rules) > maxChars {
		rules = rules[:maxChars]
	}
	return rules
}

func dumpNode(b *strings.Builder, n *TreeNode, names []string, depth int) {
	indent := strings.Repeat("|   ", depth)
	if n.Leaf {
		class := 0
		if n.Proba >= 0.5 {
			class = 1
		}
		fmt.Fprintf(b, "%s|--- class: %d (p=%.2f, n=%d)\n", indent, class, n.Proba, n.Samples)
		return
	}

	name := fmt.Sprintf("feature_%d", n.Feature)
	if n.Feature < len(names) {
		name = names[n.Feature]
	}

	fmt.Fprintf(b, "%s|--- %s <= %.4f\n", indent, name, n.Threshold)
	dumpNode(b, n.Left, names, depth+1)
	fmt.Fprintf(b, "%s|--- %s >  %.4f\n", indent, name, n.Threshold)
	dumpNode(b, n.Right, names, depth+1)
}

var (
	_ Classifier    = (*DecisionTreeClassifier)(nil)
	_ FeatureRanker = (*DecisionTreeClassifier)(nil)
)
