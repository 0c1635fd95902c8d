package model

import (
	"fmt"
	"math"
	"sort"

	"clinaudit/domain/core"
)

// GradientBoosting is a binary classifier built from depth-limited regression
// trees fit to the log-loss gradient, with Newton leaf values. No row or
// feature subsampling, so fits are deterministic.
type GradientBoosting struct {
	NEstimators  int
	LearningRate float64
	MaxDepth     int
	MinLeaf      int

	baseScore float64
	trees     []*regressionTree
	fitted    bool
}

// NewGradientBoosting returns an unfitted ensemble.
func NewGradientBoosting(estimators int, learningRate float64, maxDepth int) *GradientBoosting {
	return &GradientBoosting{
		NEstimators:  estimators,
		LearningRate: learningRate,
		MaxDepth:     maxDepth,
		MinLeaf:      5,
	}
}

// Fit trains the ensemble stage-wise on the logistic loss.
func (m *GradientBoosting) Fit(x [][]float64, y []float64) error {
	if len(x) == 0 || len(x) != len(y) {
		return fmt.Errorf("boosting fit: %d rows vs %d labels", len(x), len(y))
	}

	pos := 0.0
	for _, v := range y {
		pos += v
	}
	p := clampProb(pos / float64(len(y)))
	m.baseScore = math.Log(p / (1 - p))

	score := make([]float64, len(y))
	for i := range score {
		score[i] = m.baseScore
	}

	grad := make([]float64, len(y))
	hess := make([]float64, len(y))
	m.trees = make([]*regressionTree, 0, m.NEstimators)
	for t := 0; t < m.NEstimators; t++ {
		for i := range y {
			pi := sigmoid(score[i])
			grad[i] = y[i] - pi
			hess[i] = pi * (1 - pi)
		}
		tree := fitTree(x, grad, hess, m.MaxDepth, m.MinLeaf)
		m.trees = append(m.trees, tree)
		for i, row := range x {
			score[i] += m.LearningRate * tree.predict(row)
		}
	}
	m.fitted = true
	return nil
}

// PredictProba returns the positive-class probability per row.
func (m *GradientBoosting) PredictProba(x [][]float64) ([]float64, error) {
	if !m.fitted {
		return nil, core.ErrModelNotFit
	}
	out := make([]float64, len(x))
	for i, row := range x {
		score := m.baseScore
		for _, tree := range m.trees {
			score += m.LearningRate * tree.predict(row)
		}
		out[i] = sigmoid(score)
	}
	return out, nil
}

func clampProb(p float64) float64 {
	return math.Min(math.Max(p, 1e-6), 1-1e-6)
}

// regressionTree is a binary tree over feature thresholds. Leaves hold the
// Newton step sum(g)/sum(h) for the rows they contain.
type regressionTree struct {
	feature   int
	threshold float64
	left      *regressionTree
	right     *regressionTree
	value     float64
	leaf      bool
}

func (t *regressionTree) predict(row []float64) float64 {
	node := t
	for !node.leaf {
		if row[node.feature] <= node.threshold {
			node = node.left
		} else {
			node = node.right
		}
	}
	return node.value
}

func fitTree(x [][]float64, grad, hess []float64, maxDepth, minLeaf int) *regressionTree {
	rows := make([]int, len(x))
	for i := range rows {
		rows[i] = i
	}
	return buildNode(x, grad, hess, rows, maxDepth, minLeaf)
}

func buildNode(x [][]float64, grad, hess []float64, rows []int, depth, minLeaf int) *regressionTree {
	sumG, sumH := 0.0, 0.0
	for _, i := range rows {
		sumG += grad[i]
		sumH += hess[i]
	}
	if depth == 0 || len(rows) < 2*minLeaf {
		return leafNode(sumG, sumH)
	}

	feature, threshold, ok := bestSplit(x, grad, hess, rows, sumG, sumH, minLeaf)
	if !ok {
		return leafNode(sumG, sumH)
	}

	var left, right []int
	for _, i := range rows {
		if x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	return &regressionTree{
		feature:   feature,
		threshold: threshold,
		left:      buildNode(x, grad, hess, left, depth-1, minLeaf),
		right:     buildNode(x, grad, hess, right, depth-1, minLeaf),
	}
}

func leafNode(sumG, sumH float64) *regressionTree {
	return &regressionTree{leaf: true, value: sumG / (sumH + 1e-12)}
}

// bestSplit scans every feature's sorted values for the threshold maximizing
// the Newton gain. Equal adjacent values never split apart.
func bestSplit(x [][]float64, grad, hess []float64, rows []int, sumG, sumH float64, minLeaf int) (int, float64, bool) {
	nFeatures := len(x[rows[0]])
	baseGain := sumG * sumG / (sumH + 1e-12)

	bestGain := 0.0
	bestFeature, bestThreshold := -1, 0.0

	order := make([]int, len(rows))
	for f := 0; f < nFeatures; f++ {
		copy(order, rows)
		sort.Slice(order, func(a, b int) bool { return x[order[a]][f] < x[order[b]][f] })

		leftG, leftH := 0.0, 0.0
		for k := 0; k < len(order)-1; k++ {
			i := order[k]
			leftG += grad[i]
			leftH += hess[i]
			if x[order[k]][f] == x[order[k+1]][f] {
				continue
			}
			if k+1 < minLeaf || len(order)-k-1 < minLeaf {
				continue
			}
			rightG, rightH := sumG-leftG, sumH-leftH
			gain := leftG*leftG/(leftH+1e-12) + rightG*rightG/(rightH+1e-12) - baseGain
			if gain > bestGain {
				bestGain = gain
				bestFeature = f
				bestThreshold = (x[order[k]][f] + x[order[k+1]][f]) / 2
			}
		}
	}
	if bestFeature < 0 {
		return 0, 0, false
	}
	return bestFeature, bestThreshold, true
}
