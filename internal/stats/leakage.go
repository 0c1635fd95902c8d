package stats

import (
	"log"
	"math/rand"
	"sort"

	"clinaudit/domain/core"
	"clinaudit/domain/report"
	"clinaudit/domain/table"
)

// LeakageScorer computes per-feature univariate leakage signals: a
// discriminative (rank AUC) score folded around chance, and a mutual
// information score. Features whose computation degenerates are skipped
// silently; one bad column must not block the audit.
type LeakageScorer struct {
	Seed           int64
	ProxyThreshold float64
	TopSuspicious  int
}

// SingleFeatureAUCs scores every column of x against the target, folded to
// chance distance. Skipped columns are absent from the result.
func (s LeakageScorer) SingleFeatureAUCs(x *table.Dataset, y []float64) map[core.ColumnName]float64 {
	aucs := make(map[core.ColumnName]float64, x.NumCols())
	for _, col := range x.Columns() {
		score, err := s.columnAUC(col, y)
		if err != nil {
			// Degenerate column (missing values, single class): excluded
			// from the leakage report, run continues. Anything that is not a
			// scoring skip would be a caller bug, so it is at least logged.
			if !core.IsFeatureSkipped(err) {
				log.Printf("[LeakageScorer] unexpected scoring failure: %v", err)
			}
			continue
		}
		aucs[col.Name] = FoldToChance(score)
	}
	return aucs
}

func (s LeakageScorer) columnAUC(col table.Column, y []float64) (float64, error) {
	if col.IsNumeric() {
		score, err := RankAUC(col.Floats, y)
		if err != nil {
			return 0, core.NewFeatureSkippedError(col.Name, err)
		}
		return score, nil
	}
	// Categorical proxy: one-hot encode (explicit missing indicator
	// included) and average the indicators row-wise into a single score
	// surrogate. This is an approximate ranking signal, not a multi-class
	// AUC; with exactly one indicator set per row it collapses toward a
	// constant, which the fold reports as chance.
	indicators := oneHot(col)
	n := col.Len()
	surrogate := make([]float64, n)
	for _, ind := range indicators {
		for i := 0; i < n; i++ {
			surrogate[i] += ind.values[i]
		}
	}
	k := float64(len(indicators))
	for i := range surrogate {
		surrogate[i] /= k
	}
	score, err := RankAUC(surrogate, y)
	if err != nil {
		return 0, core.NewFeatureSkippedError(col.Name, err)
	}
	return score, nil
}

// MutualInfoScores one-hot encodes categorical columns (missing indicator
// included), zero-fills missing numerics, and estimates MI per encoded
// column. Keys are encoded names: numeric columns keep their name,
// categorical columns expand to "<name>_<category>".
func (s LeakageScorer) MutualInfoScores(x *table.Dataset, y []float64) map[string]float64 {
	rng := rand.New(rand.NewSource(s.Seed))
	out := make(map[string]float64)
	for _, col := range x.Columns() {
		if col.IsNumeric() {
			filled := make([]float64, col.Len())
			for i, v := range col.Floats {
				if col.IsMissing(i) {
					filled[i] = 0
				} else {
					filled[i] = v
				}
			}
			out[col.Name.String()] = MutualInformation(filled, y, rng)
			continue
		}
		for _, ind := range oneHot(col) {
			out[col.Name.String()+"_"+ind.label] = MutualInformation(ind.values, y, rng)
		}
	}
	return out
}

type indicator struct {
	label  string
	values []float64
}

// oneHot expands a categorical column into sorted category indicators plus a
// trailing missing-value indicator.
func oneHot(col table.Column) []indicator {
	categories := col.DistinctNonMissing()
	sort.Strings(categories)

	indicators := make([]indicator, 0, len(categories)+1)
	for _, cat := range categories {
		values := make([]float64, col.Len())
		for i, v := range col.Strings {
			if v == cat {
				values[i] = 1
			}
		}
		indicators = append(indicators, indicator{label: cat, values: values})
	}
	missing := make([]float64, col.Len())
	for i := 0; i < col.Len(); i++ {
		if col.IsMissing(i) {
			missing[i] = 1
		}
	}
	return append(indicators, indicator{label: "nan", values: missing})
}

// Score assembles the ranked suspicious list and proxy flags for the leakage
// report.
func (s LeakageScorer) Score(x *table.Dataset, y []float64) ([]report.SuspiciousFeature, []string) {
	aucs := s.SingleFeatureAUCs(x, y)
	mi := s.MutualInfoScores(x, y)

	entries := make([]report.SuspiciousFeature, 0, x.NumCols())
	for _, name := range x.Names() {
		e := report.SuspiciousFeature{Feature: name.String()}
		if a, ok := aucs[name]; ok {
			v := a
			e.SingleFeatureAUC = &v
		}
		if m, ok := mi[name.String()]; ok {
			v := m
			e.MutualInfo = &v
		}
		entries = append(entries, e)
	}

	// Descending by AUC, then MI; missing scores rank last. Stable so full
	// ties keep dataset column order.
	sort.SliceStable(entries, func(i, j int) bool {
		ai, aj := entries[i].SingleFeatureAUC, entries[j].SingleFeatureAUC
		if (ai == nil) != (aj == nil) {
			return aj == nil
		}
		if ai != nil && aj != nil && *ai != *aj {
			return *ai > *aj
		}
		mi_, mj := entries[i].MutualInfo, entries[j].MutualInfo
		if (mi_ == nil) != (mj == nil) {
			return mj == nil
		}
		if mi_ != nil && mj != nil {
			return *mi_ > *mj
		}
		return false
	})
	if len(entries) > s.TopSuspicious {
		entries = entries[:s.TopSuspicious]
	}

	var flags []string
	for _, name := range x.Names() {
		if a, ok := aucs[name]; ok && a >= s.ProxyThreshold {
			flags = append(flags, name.String())
		}
	}
	if len(flags) > 0 {
		log.Printf("[LeakageScorer] %d feature(s) flagged as near-certain leakage proxies", len(flags))
	}
	return entries, flags
}

// Profile summarizes every column of the dataset for the leakage report.
func Profile(d *table.Dataset) []report.ColumnProfile {
	profiles := make([]report.ColumnProfile, 0, d.NumCols())
	for _, col := range d.Columns() {
		profiles = append(profiles, report.ColumnProfile{
			Name:     col.Name.String(),
			DType:    string(col.DType),
			Missing:  col.MissingCount(),
			Distinct: len(col.DistinctNonMissing()),
		})
	}
	return profiles
}
