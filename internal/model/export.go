package model

import (
	"clinaudit/domain/core"
)

// Node is the serializable form of a fitted regression tree, used by the
// frozen model artifact.
type Node struct {
	Feature   int     `json:"f,omitempty"`
	Threshold float64 `json:"t,omitempty"`
	Left      *Node   `json:"l,omitempty"`
	Right     *Node   `json:"r,omitempty"`
	Value     float64 `json:"v,omitempty"`
	Leaf      bool    `json:"leaf,omitempty"`
}

// Predict walks the tree for one feature row.
func (n *Node) Predict(row []float64) float64 {
	node := n
	for !node.Leaf {
		if row[node.Feature] <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node.Value
}

// Export returns the fitted ensemble in serializable form.
func (m *GradientBoosting) Export() (baseScore float64, trees []*Node, err error) {
	if !m.fitted {
		return 0, nil, core.ErrModelNotFit
	}
	trees = make([]*Node, len(m.trees))
	for i, t := range m.trees {
		trees[i] = exportTree(t)
	}
	return m.baseScore, trees, nil
}

// ImportGradientBoosting reconstructs a fitted ensemble from its serialized
// form, ready to predict but not refit.
func ImportGradientBoosting(baseScore, learningRate float64, trees []*Node) *GradientBoosting {
	m := &GradientBoosting{
		NEstimators:  len(trees),
		LearningRate: learningRate,
		baseScore:    baseScore,
		fitted:       true,
	}
	m.trees = make([]*regressionTree, len(trees))
	for i, n := range trees {
		m.trees[i] = importTree(n)
	}
	return m
}

func exportTree(t *regressionTree) *Node {
	if t.leaf {
		return &Node{Leaf: true, Value: t.value}
	}
	return &Node{
		Feature:   t.feature,
		Threshold: t.threshold,
		Left:      exportTree(t.left),
		Right:     exportTree(t.right),
	}
}

func importTree(n *Node) *regressionTree {
	if n.Leaf {
		return &regressionTree{leaf: true, value: n.Value}
	}
	return &regressionTree{
		feature:   n.Feature,
		threshold: n.Threshold,
		left:      importTree(n.Left),
		right:     importTree(n.Right),
	}
}
