package stats

import (
	"math"
	"math/rand"
	"sort"
)

// Mutual information between a (possibly continuous) feature and a discrete
// target, estimated by quantile binning and Shannon entropy:
// I(X;Y) = H(X) + H(Y) - H(X,Y).
//
// The seeded RNG adds a vanishing jitter before binning so tie-heavy columns
// (one-hot indicators, near-constant measurements) bin reproducibly across
// runs with the same seed.

const miBins = 10

// MutualInformation estimates I(x;y) in bits. y is expected to be discrete
// (the binary target); x is binned into at most miBins quantile bins.
func MutualInformation(x, y []float64, rng *rand.Rand) float64 {
	if len(x) != len(y) || len(x) == 0 {
		return 0
	}

	jittered := make([]float64, len(x))
	scale := jitterScale(x)
	for i, v := range x {
		jittered[i] = v + rng.Float64()*scale
	}

	xBins := discretize(jittered, miBins)
	yBins := make([]int, len(y))
	for i, v := range y {
		yBins[i] = int(v)
	}

	hX := entropy(xBins)
	hY := entropy(yBins)
	hXY := jointEntropy(xBins, yBins)

	// Binning noise can push the difference slightly negative.
	return math.Max(0, hX+hY-hXY)
}

func jitterScale(x []float64) float64 {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range x {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	span := hi - lo
	if span == 0 || math.IsInf(span, 0) {
		span = 1
	}
	return span * 1e-9
}

// discretize assigns each value to a quantile bin.
func discretize(data []float64, numBins int) []int {
	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)

	bins := make([]int, len(data))
	for i, val := range data {
		bin := 0
		for b := 1; b < numBins; b++ {
			threshold := sorted[(len(sorted)*b)/numBins]
			if val >= threshold {
				bin = b
			} else {
				break
			}
		}
		bins[i] = bin
	}
	return bins
}

// Entropy sums accumulate over sorted bin keys: map iteration order is
// randomized per run, and a different float summation order drifts the MI in
// the last bits, breaking bit-for-bit reproducibility across runs.
func entropy(bins []int) float64 {
	if len(bins) == 0 {
		return 0
	}
	counts := make(map[int]int)
	for _, b := range bins {
		counts[b]++
	}
	keys := make([]int, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	h := 0.0
	n := float64(len(bins))
	for _, k := range keys {
		p := float64(counts[k]) / n
		h -= p * math.Log2(p)
	}
	return h
}

func jointEntropy(xBins, yBins []int) float64 {
	if len(xBins) != len(yBins) || len(xBins) == 0 {
		return 0
	}
	counts := make(map[[2]int]int)
	for i := range xBins {
		counts[[2]int{xBins[i], yBins[i]}]++
	}
	keys := make([][2]int, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(a, b int) bool {
		if keys[a][0] != keys[b][0] {
			return keys[a][0] < keys[b][0]
		}
		return keys[a][1] < keys[b][1]
	})
	h := 0.0
	n := float64(len(xBins))
	for _, k := range keys {
		p := float64(counts[k]) / n
		h -= p * math.Log2(p)
	}
	return h
}
