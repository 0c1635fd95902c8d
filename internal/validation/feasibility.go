package validation

import (
	"sort"

	"clinaudit/domain/report"
	"clinaudit/domain/table"
)

// FeasibilityAssessor reports whether chronological or site-grouped
// validation is possible and at what granularity. It never fits a model;
// the output is metadata for a human deciding whether deeper validation is
// warranted.
type FeasibilityAssessor struct {
	Tokens table.TokenTable
}

// Assess runs both sub-checks. Absent columns yield "not applicable"
// messages, never errors.
func (a FeasibilityAssessor) Assess(d *table.Dataset) report.TemporalSiteReport {
	return report.TemporalSiteReport{
		Temporal: a.assessTemporal(d),
		Site:     a.assessSite(d),
	}
}

func (a FeasibilityAssessor) assessTemporal(d *table.Dataset) report.TemporalFeasibility {
	name, ok := a.Tokens.TemporalColumn(d)
	if !ok {
		return report.TemporalFeasibility{
			Message: "No date/year column detected; temporal split skipped.",
		}
	}

	// Order rows chronologically, then split by position: 70/15/15. The
	// sort establishes that a chronological ordering exists; split sizes
	// are purely positional.
	col, _ := d.Column(name)
	idx := make([]int, d.NumRows())
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ka, sa := table.ParseTemporal(col, idx[a])
		kb, sb := table.ParseTemporal(col, idx[b])
		if sa != "" || sb != "" {
			return sa < sb
		}
		return ka < kb
	})

	n := len(idx)
	trainEnd := int(0.7 * float64(n))
	valEnd := int(0.85 * float64(n))
	return report.TemporalFeasibility{
		DateColumn: name.String(),
		Sizes: map[string]int{
			"train": trainEnd,
			"val":   valEnd - trainEnd,
			"test":  n - valEnd,
		},
	}
}

func (a FeasibilityAssessor) assessSite(d *table.Dataset) report.SiteFeasibility {
	name, ok := a.Tokens.SiteColumn(d)
	if !ok {
		return report.SiteFeasibility{
			Message: "No site/hospital column detected; site validation suggestion recorded.",
		}
	}

	col, _ := d.Column(name)
	groups := len(col.DistinctNonMissing())
	if col.MissingCount() > 0 {
		// Missing site still forms a group, mirroring a string cast.
		groups++
	}
	return report.SiteFeasibility{
		SiteColumn: name.String(),
		NGroups:    groups,
	}
}
