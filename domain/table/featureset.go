package table

import (
	"clinaudit/domain/core"
)

// FeatureSet is a named, ordered subset of columns eligible for modelling.
// Target and identifier columns are always excluded; cognitive columns are
// excluded only for the "without cognitive" set.
type FeatureSet struct {
	Name    string
	Columns []core.ColumnName
}

// Canonical feature set names used throughout the audit.
const (
	FeatureSetAll          = "all_features"
	FeatureSetNonCognitive = "non_cognitive_features"
)

// SplitFeatures separates a dataset into a feature matrix and a coerced
// target vector. Column order of the original dataset is preserved.
func SplitFeatures(d *Dataset, target core.ColumnName, tt TokenTable, dropCognitive bool) (*Dataset, []float64, []core.ColumnName, error) {
	y, err := d.TargetVector(target)
	if err != nil {
		return nil, nil, nil, err
	}

	exclude := []core.ColumnName{target}
	for _, id := range tt.IdentifierColumns(d) {
		if id != target {
			exclude = append(exclude, id)
		}
	}
	if dropCognitive {
		exclude = append(exclude, tt.CognitiveColumns(d)...)
	}

	x := d.Drop(exclude)
	return x, y, x.Names(), nil
}

// BuildFeatureSets produces the two canonical feature sets for an audit run.
func BuildFeatureSets(d *Dataset, target core.ColumnName, tt TokenTable) ([]FeatureSet, error) {
	_, _, allNames, err := SplitFeatures(d, target, tt, false)
	if err != nil {
		return nil, err
	}
	_, _, nonCogNames, err := SplitFeatures(d, target, tt, true)
	if err != nil {
		return nil, err
	}
	return []FeatureSet{
		{Name: FeatureSetAll, Columns: allNames},
		{Name: FeatureSetNonCognitive, Columns: nonCogNames},
	}, nil
}
