package model

// Classifier is the capability the audit needs from any model family: fit on
// a numeric matrix, emit positive-class probabilities. Concrete families are
// swappable; nothing downstream knows which one it is scoring.
type Classifier interface {
	Fit(x [][]float64, y []float64) error
	PredictProba(x [][]float64) ([]float64, error)
}

// GridPoint is one hyperparameter combination: report-friendly params plus a
// factory producing a fresh, unfitted classifier with those params. A fresh
// instance per fit keeps fit state from crossing folds.
type GridPoint struct {
	Params map[string]any
	New    func() Classifier
}

// Family is a model family with its exhaustive search grid. Grid order is
// the declared tie-break order for inner search merges.
type Family struct {
	Name string
	Grid []GridPoint
	// Default produces a fresh classifier at the family's fixed baseline
	// parameters, used where a single representative fit suffices (the
	// with/without-cognitive holdout comparison).
	Default func() Classifier
}

// DefaultFamilies returns the two audited families: a linear model and a
// boosted-tree model, each with its small fixed grid.
func DefaultFamilies() []Family {
	return []Family{LogisticFamily(), BoostingFamily()}
}

// LogisticFamily is the linear family: C in {0.1, 1, 10} crossed with
// l1/l2 penalties.
func LogisticFamily() Family {
	var grid []GridPoint
	for _, c := range []float64{0.1, 1.0, 10.0} {
		for _, penalty := range []string{"l1", "l2"} {
			c, penalty := c, penalty
			grid = append(grid, GridPoint{
				Params: map[string]any{"C": c, "penalty": penalty},
				New: func() Classifier {
					return NewLogisticRegression(c, penalty)
				},
			})
		}
	}
	return Family{
		Name: "logistic_regression",
		Grid: grid,
		Default: func() Classifier {
			return NewLogisticRegression(1.0, "l2")
		},
	}
}

// BoostingFamily is the tree-ensemble family: estimators {100, 200} x
// learning rate {0.05, 0.1} x depth {2, 3, 5}.
func BoostingFamily() Family {
	var grid []GridPoint
	for _, estimators := range []int{100, 200} {
		for _, lr := range []float64{0.05, 0.1} {
			for _, depth := range []int{2, 3, 5} {
				estimators, lr, depth := estimators, lr, depth
				grid = append(grid, GridPoint{
					Params: map[string]any{
						"n_estimators":  estimators,
						"learning_rate": lr,
						"max_depth":     depth,
					},
					New: func() Classifier {
						return NewGradientBoosting(estimators, lr, depth)
					},
				})
			}
		}
	}
	return Family{
		Name: "gradient_boosting",
		Grid: grid,
		Default: func() Classifier {
			return NewGradientBoosting(100, 0.1, 3)
		},
	}
}
