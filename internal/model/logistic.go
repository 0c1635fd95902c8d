package model

import (
	"fmt"
	"math"

	"clinaudit/domain/core"

	"gonum.org/v1/gonum/floats"
)

// LogisticRegression is a binary linear classifier trained by full-batch
// gradient descent on the regularized log loss. Zero initialization keeps
// fits deterministic; the loss is convex so no symmetry breaking is needed.
type LogisticRegression struct {
	// C is the inverse regularization strength; Penalty is "l1" or "l2".
	C       float64
	Penalty string

	Epochs       int
	LearningRate float64

	weights []float64
	bias    float64
	fitted  bool
}

// NewLogisticRegression returns an unfitted model with the given penalty
// configuration and training defaults sized for standardized features.
func NewLogisticRegression(c float64, penalty string) *LogisticRegression {
	return &LogisticRegression{
		C:            c,
		Penalty:      penalty,
		Epochs:       500,
		LearningRate: 0.1,
	}
}

// Fit trains on the full matrix. x rows must all share one width.
func (m *LogisticRegression) Fit(x [][]float64, y []float64) error {
	if len(x) == 0 || len(x) != len(y) {
		return fmt.Errorf("logistic fit: %d rows vs %d labels", len(x), len(y))
	}
	nFeatures := len(x[0])
	m.weights = make([]float64, nFeatures)
	m.bias = 0

	n := float64(len(x))
	grad := make([]float64, nFeatures)
	for epoch := 0; epoch < m.Epochs; epoch++ {
		for j := range grad {
			grad[j] = 0
		}
		gradBias := 0.0
		for i, row := range x {
			p := sigmoid(floats.Dot(m.weights, row) + m.bias)
			d := p - y[i]
			floats.AddScaled(grad, d, row)
			gradBias += d
		}
		floats.Scale(1/n, grad)
		gradBias /= n

		// Penalty gradient; the bias stays unregularized.
		reg := 1 / (m.C * n)
		for j, w := range m.weights {
			if m.Penalty == "l1" {
				grad[j] += reg * sign(w)
			} else {
				grad[j] += reg * w
			}
		}

		floats.AddScaled(m.weights, -m.LearningRate, grad)
		m.bias -= m.LearningRate * gradBias
	}
	m.fitted = true
	return nil
}

// PredictProba returns the positive-class probability per row.
func (m *LogisticRegression) PredictProba(x [][]float64) ([]float64, error) {
	if !m.fitted {
		return nil, core.ErrModelNotFit
	}
	out := make([]float64, len(x))
	for i, row := range x {
		if len(row) != len(m.weights) {
			return nil, fmt.Errorf("logistic predict: row has %d features, model has %d", len(row), len(m.weights))
		}
		out[i] = sigmoid(floats.Dot(m.weights, row) + m.bias)
	}
	return out, nil
}

// Coefficients exposes the fitted weights and bias for artifact export.
func (m *LogisticRegression) Coefficients() ([]float64, float64, error) {
	if !m.fitted {
		return nil, 0, core.ErrModelNotFit
	}
	w := make([]float64, len(m.weights))
	copy(w, m.weights)
	return w, m.bias, nil
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
