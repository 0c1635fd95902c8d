package validation

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"clinaudit/domain/core"
)

// classIndices groups row indices by label, shuffled with the given rng so
// the same seed always deals the same folds.
func classIndices(y []float64, rng *rand.Rand) map[float64][]int {
	byClass := map[float64][]int{}
	for i, v := range y {
		byClass[v] = append(byClass[v], i)
	}
	// Deterministic iteration order before shuffling.
	labels := sortedLabels(byClass)
	for _, label := range labels {
		idx := byClass[label]
		rng.Shuffle(len(idx), func(a, b int) { idx[a], idx[b] = idx[b], idx[a] })
	}
	return byClass
}

func sortedLabels(byClass map[float64][]int) []float64 {
	labels := make([]float64, 0, len(byClass))
	for label := range byClass {
		labels = append(labels, label)
	}
	sort.Float64s(labels)
	return labels
}

// StratifiedKFold partitions rows into k test folds preserving class
// proportions. Every row lands in exactly one test fold.
func StratifiedKFold(y []float64, k int, seed int64) ([][]int, error) {
	if k < 2 {
		return nil, fmt.Errorf("k must be at least 2, got %d", k)
	}
	rng := rand.New(rand.NewSource(seed))
	byClass := classIndices(y, rng)
	for _, label := range sortedLabels(byClass) {
		if len(byClass[label]) < k {
			return nil, fmt.Errorf("%w: class %g has %d rows for %d folds",
				core.ErrInsufficientData, label, len(byClass[label]), k)
		}
	}

	folds := make([][]int, k)
	for _, label := range sortedLabels(byClass) {
		for pos, row := range byClass[label] {
			f := pos % k
			folds[f] = append(folds[f], row)
		}
	}
	for _, fold := range folds {
		sort.Ints(fold)
	}
	return folds, nil
}

// Complement returns all rows of a dataset of size n except the given fold.
func Complement(fold []int, n int) []int {
	in := make([]bool, n)
	for _, i := range fold {
		in[i] = true
	}
	out := make([]int, 0, n-len(fold))
	for i := 0; i < n; i++ {
		if !in[i] {
			out = append(out, i)
		}
	}
	return out
}

// StratifiedSplit returns train/test row indices with the test fraction
// preserved per class.
func StratifiedSplit(y []float64, testFraction float64, seed int64) (train, test []int, err error) {
	if testFraction <= 0 || testFraction >= 1 {
		return nil, nil, fmt.Errorf("test fraction must be in (0,1), got %g", testFraction)
	}
	rng := rand.New(rand.NewSource(seed))
	byClass := classIndices(y, rng)
	for _, label := range sortedLabels(byClass) {
		idx := byClass[label]
		nTest := int(math.Round(float64(len(idx)) * testFraction))
		if nTest < 1 || nTest >= len(idx) {
			return nil, nil, fmt.Errorf("%w: class %g has %d rows, cannot hold out %g",
				core.ErrInsufficientData, label, len(idx), testFraction)
		}
		test = append(test, idx[:nTest]...)
		train = append(train, idx[nTest:]...)
	}
	sort.Ints(train)
	sort.Ints(test)
	return train, test, nil
}

// Subset picks the labeled values at the given rows.
func Subset(y []float64, rows []int) []float64 {
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = y[r]
	}
	return out
}
