package validation

import (
	"context"
	"log"

	"clinaudit/domain/report"
	"clinaudit/domain/table"
	"clinaudit/internal/model"
	"clinaudit/internal/preprocess"
	"clinaudit/internal/stats"

	"golang.org/x/sync/errgroup"
)

// NestedCrossValidator produces a generalization estimate that is not
// contaminated by hyperparameter selection: an outer stratified k-fold for
// scoring wraps an inner stratified search run independently per outer fold.
//
// Invariants: no row sits in both the training and test role of the same
// outer fold, the outer test folds form an exact partition of the dataset,
// and every preprocessing pipeline is fit strictly on the partition it
// transforms the training side of.
type NestedCrossValidator struct {
	OuterFolds int
	InnerFolds int
	Seed       int64
}

// Run executes the protocol for one model family.
func (cv NestedCrossValidator) Run(ctx context.Context, x *table.Dataset, y []float64, family model.Family) (report.NestedCVResult, error) {
	outer, err := StratifiedKFold(y, cv.OuterFolds, cv.Seed)
	if err != nil {
		return report.NestedCVResult{}, err
	}

	result := report.NestedCVResult{
		OuterScores: make([]float64, 0, cv.OuterFolds),
		Folds:       make([]report.FoldResult, 0, cv.OuterFolds),
	}

	for foldIdx, testIdx := range outer {
		if err := ctx.Err(); err != nil {
			return report.NestedCVResult{}, err
		}
		trainIdx := Complement(testIdx, x.NumRows())

		xTrain, xTest := x.TakeRows(trainIdx), x.TakeRows(testIdx)
		yTrain, yTest := Subset(y, trainIdx), Subset(y, testIdx)

		best, bestScore, err := cv.gridSearch(ctx, xTrain, yTrain, family)
		if err != nil {
			return report.NestedCVResult{}, err
		}

		// Refit the winning combination on the full outer-training
		// partition with a fresh pipeline and model.
		pipe := preprocess.New(xTrain)
		mTrain, err := pipe.FitTransform(xTrain)
		if err != nil {
			return report.NestedCVResult{}, err
		}
		mTest, err := pipe.Transform(xTest)
		if err != nil {
			return report.NestedCVResult{}, err
		}
		clf := family.Grid[best].New()
		if err := clf.Fit(mTrain, yTrain); err != nil {
			return report.NestedCVResult{}, err
		}
		proba, err := clf.PredictProba(mTest)
		if err != nil {
			return report.NestedCVResult{}, err
		}
		auc, err := stats.RankAUC(proba, yTest)
		if err != nil {
			return report.NestedCVResult{}, err
		}

		log.Printf("[NestedCV] %s fold %d/%d: inner=%.4f outer=%.4f",
			family.Name, foldIdx+1, cv.OuterFolds, bestScore, auc)
		result.OuterScores = append(result.OuterScores, auc)
		result.Folds = append(result.Folds, report.FoldResult{
			Fold:       foldIdx + 1,
			BestParams: family.Grid[best].Params,
			ValScore:   bestScore,
			TestAUC:    auc,
		})
	}

	mean, std := stats.MeanStd(result.OuterScores)
	result.MeanAUC = mean
	result.StdAUC = std
	result.CI95 = stats.NormalCI95(mean, std, len(result.OuterScores))
	return result, nil
}

// gridSearch evaluates every grid point over an inner stratified k-fold,
// scoring by ROC-AUC. Candidates run concurrently since each fit is
// independent and read-only over the shared training partition; the merge is
// deterministic regardless of completion order: the strictly best mean wins,
// ties broken by grid declaration order.
func (cv NestedCrossValidator) gridSearch(ctx context.Context, xTrain *table.Dataset, yTrain []float64, family model.Family) (int, float64, error) {
	innerFolds, err := StratifiedKFold(yTrain, cv.InnerFolds, cv.Seed)
	if err != nil {
		return 0, 0, err
	}

	scores := make([]float64, len(family.Grid))
	g, gctx := errgroup.WithContext(ctx)
	for gi := range family.Grid {
		gi := gi
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			mean, err := cv.candidateScore(xTrain, yTrain, innerFolds, family.Grid[gi])
			if err != nil {
				return err
			}
			scores[gi] = mean
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, 0, err
	}

	best := 0
	for gi := 1; gi < len(scores); gi++ {
		if scores[gi] > scores[best] {
			best = gi
		}
	}
	return best, scores[best], nil
}

func (cv NestedCrossValidator) candidateScore(xTrain *table.Dataset, yTrain []float64, innerFolds [][]int, gp model.GridPoint) (float64, error) {
	aucs := make([]float64, 0, len(innerFolds))
	for _, valIdx := range innerFolds {
		fitIdx := Complement(valIdx, xTrain.NumRows())

		xFit, xVal := xTrain.TakeRows(fitIdx), xTrain.TakeRows(valIdx)
		yFit, yVal := Subset(yTrain, fitIdx), Subset(yTrain, valIdx)

		pipe := preprocess.New(xFit)
		mFit, err := pipe.FitTransform(xFit)
		if err != nil {
			return 0, err
		}
		mVal, err := pipe.Transform(xVal)
		if err != nil {
			return 0, err
		}

		clf := gp.New()
		if err := clf.Fit(mFit, yFit); err != nil {
			return 0, err
		}
		proba, err := clf.PredictProba(mVal)
		if err != nil {
			return 0, err
		}
		auc, err := stats.RankAUC(proba, yVal)
		if err != nil {
			return 0, err
		}
		aucs = append(aucs, auc)
	}
	mean, _ := stats.MeanStd(aucs)
	return mean, nil
}
