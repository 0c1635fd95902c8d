package validation

import (
	"clinaudit/domain/report"
	"clinaudit/domain/table"
	"clinaudit/internal/model"
	"clinaudit/internal/preprocess"
	"clinaudit/internal/stats"
)

// HoldoutEvaluator scores a model family on one stratified train/test split.
// Deliberately biased-but-cheap: it exists for the quick with/without
// cognitive-feature comparison, not as a generalization estimate.
type HoldoutEvaluator struct {
	TestFraction float64
	Seed         int64
}

// Evaluate fits a fresh classifier on the training partition and reports the
// six holdout metrics. The preprocessing pipeline is fit on the training
// partition only.
func (h HoldoutEvaluator) Evaluate(x *table.Dataset, y []float64, clf model.Classifier) (report.HoldoutMetrics, error) {
	trainIdx, testIdx, err := StratifiedSplit(y, h.TestFraction, h.Seed)
	if err != nil {
		return report.HoldoutMetrics{}, err
	}

	xTrain, xTest := x.TakeRows(trainIdx), x.TakeRows(testIdx)
	yTrain, yTest := Subset(y, trainIdx), Subset(y, testIdx)

	pipe := preprocess.New(xTrain)
	mTrain, err := pipe.FitTransform(xTrain)
	if err != nil {
		return report.HoldoutMetrics{}, err
	}
	mTest, err := pipe.Transform(xTest)
	if err != nil {
		return report.HoldoutMetrics{}, err
	}

	if err := clf.Fit(mTrain, yTrain); err != nil {
		return report.HoldoutMetrics{}, err
	}
	proba, err := clf.PredictProba(mTest)
	if err != nil {
		return report.HoldoutMetrics{}, err
	}

	auc, err := stats.RankAUC(proba, yTest)
	if err != nil {
		return report.HoldoutMetrics{}, err
	}
	accuracy, precision, recall, f1, brier := stats.BinaryMetrics(yTest, proba)
	return report.HoldoutMetrics{
		Accuracy:  accuracy,
		Precision: precision,
		Recall:    recall,
		F1:        f1,
		ROCAUC:    auc,
		Brier:     brier,
	}, nil
}
