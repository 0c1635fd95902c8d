package stats

import (
	"fmt"
	"math"
	"sort"

	"clinaudit/domain/core"

	mstats "github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"
)

// RankAUC computes the probability that a randomly chosen positive example
// ranks above a randomly chosen negative one on the given scores, using
// average ranks so ties contribute half credit. Errors on NaN scores or a
// single-class target; callers treat that as a skippable degenerate column.
func RankAUC(scores, y []float64) (float64, error) {
	if len(scores) != len(y) {
		return 0, fmt.Errorf("scores and target length mismatch: %d vs %d", len(scores), len(y))
	}
	if len(scores) == 0 {
		return 0, fmt.Errorf("%w: empty input", core.ErrDegenerateColumn)
	}

	nPos, nNeg := 0, 0
	for i, s := range scores {
		if math.IsNaN(s) {
			return 0, fmt.Errorf("%w: NaN score at row %d", core.ErrDegenerateColumn, i)
		}
		if y[i] == 1 {
			nPos++
		} else {
			nNeg++
		}
	}
	if nPos == 0 || nNeg == 0 {
		return 0, fmt.Errorf("%w: target has a single class", core.ErrDegenerateColumn)
	}

	idx := make([]int, len(scores))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return scores[idx[a]] < scores[idx[b]] })

	// Average ranks across tied score groups.
	ranks := make([]float64, len(scores))
	for i := 0; i < len(idx); {
		j := i
		for j < len(idx) && scores[idx[j]] == scores[idx[i]] {
			j++
		}
		avg := float64(i+j+1) / 2 // ranks are 1-based
		for k := i; k < j; k++ {
			ranks[idx[k]] = avg
		}
		i = j
	}

	sumPos := 0.0
	for i, r := range ranks {
		if y[i] == 1 {
			sumPos += r
		}
	}
	np, nn := float64(nPos), float64(nNeg)
	return (sumPos - np*(np+1)/2) / (np * nn), nil
}

// FoldToChance maps an AUC symmetric around 0.5 to its distance-from-chance
// form, so inversely predictive features surface as strongly as positive ones.
func FoldToChance(auc float64) float64 {
	return math.Max(auc, 1-auc)
}

// BinaryMetrics scores hard predictions and probabilities for the positive
// class. Zero-division cases (no predicted or no actual positives) score 0
// rather than erroring.
func BinaryMetrics(yTrue, proba []float64) (accuracy, precision, recall, f1, brier float64) {
	var tp, fp, fn, correct float64
	for i, p := range proba {
		pred := 0.0
		if p >= 0.5 {
			pred = 1.0
		}
		if pred == yTrue[i] {
			correct++
		}
		switch {
		case pred == 1 && yTrue[i] == 1:
			tp++
		case pred == 1 && yTrue[i] == 0:
			fp++
		case pred == 0 && yTrue[i] == 1:
			fn++
		}
		d := p - yTrue[i]
		brier += d * d
	}
	n := float64(len(proba))
	if n == 0 {
		return 0, 0, 0, 0, 0
	}
	accuracy = correct / n
	brier /= n
	if tp+fp > 0 {
		precision = tp / (tp + fp)
	}
	if tp+fn > 0 {
		recall = tp / (tp + fn)
	}
	if precision+recall > 0 {
		f1 = 2 * precision * recall / (precision + recall)
	}
	return accuracy, precision, recall, f1, brier
}

// MeanStd returns the mean and population standard deviation.
func MeanStd(values []float64) (float64, float64) {
	mean, _ := mstats.Mean(values)
	std, _ := mstats.StandardDeviationPopulation(values)
	return mean, std
}

// NormalCI95 is a normal-approximation 95% confidence interval around the
// mean of n observations with the given population standard deviation.
func NormalCI95(mean, std float64, n int) [2]float64 {
	if n <= 1 {
		return [2]float64{mean, mean}
	}
	z := distuv.Normal{Mu: 0, Sigma: 1}.Quantile(0.975)
	half := z * std / math.Sqrt(float64(n))
	return [2]float64{mean - half, mean + half}
}
