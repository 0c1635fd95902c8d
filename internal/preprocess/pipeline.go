package preprocess

import (
	"fmt"
	"math"
	"sort"

	"clinaudit/domain/core"
	"clinaudit/domain/table"

	"gonum.org/v1/gonum/stat"
)

// Pipeline standardizes numeric columns and one-hot encodes categorical
// columns. All statistics are learned at Fit time from the training fold
// only; Transform applies them unchanged, so evaluation data never leaks
// into the preprocessing state.
type Pipeline struct {
	numeric     []core.ColumnName
	categorical []core.ColumnName

	means map[core.ColumnName]float64
	stds  map[core.ColumnName]float64
	// categories holds the training-time levels per categorical column,
	// sorted. Unknown levels at transform time map to an all-zero row.
	categories map[core.ColumnName][]string

	fitted bool
}

// New builds a pipeline for the columns of x, split by dtype alone (name
// heuristics play no part here).
func New(x *table.Dataset) *Pipeline {
	p := &Pipeline{
		means:      map[core.ColumnName]float64{},
		stds:       map[core.ColumnName]float64{},
		categories: map[core.ColumnName][]string{},
	}
	for _, col := range x.Columns() {
		if col.IsNumeric() {
			p.numeric = append(p.numeric, col.Name)
		} else {
			p.categorical = append(p.categorical, col.Name)
		}
	}
	return p
}

// Fit learns scaler means/deviations and category levels from the training
// fold. Calling Fit a second time is an error: refitting an already-used
// pipeline on different data is how test statistics leak.
func (p *Pipeline) Fit(x *table.Dataset) error {
	if p.fitted {
		return fmt.Errorf("pipeline already fitted; build a fresh one per fold")
	}
	for _, name := range p.numeric {
		col, ok := x.Column(name)
		if !ok {
			return fmt.Errorf("numeric column %q missing from fit data", name)
		}
		values := nonMissing(col)
		if len(values) == 0 {
			// All-missing column scales to zero.
			p.means[name], p.stds[name] = 0, 0
			continue
		}
		mean := stat.Mean(values, nil)
		std := math.Sqrt(stat.PopVariance(values, nil))
		p.means[name], p.stds[name] = mean, std
	}
	for _, name := range p.categorical {
		col, ok := x.Column(name)
		if !ok {
			return fmt.Errorf("categorical column %q missing from fit data", name)
		}
		levels := col.DistinctNonMissing()
		sort.Strings(levels)
		p.categories[name] = levels
	}
	p.fitted = true
	return nil
}

// Transform maps a dataset onto the learned feature space. It never updates
// learned statistics, so repeated application is idempotent.
func (p *Pipeline) Transform(x *table.Dataset) ([][]float64, error) {
	if !p.fitted {
		return nil, core.ErrPipelineNotFit
	}
	n := x.NumRows()
	width := p.Width()
	out := make([][]float64, n)
	for i := range out {
		out[i] = make([]float64, width)
	}

	j := 0
	for _, name := range p.numeric {
		col, ok := x.Column(name)
		if !ok {
			return nil, fmt.Errorf("numeric column %q missing from transform data", name)
		}
		mean, std := p.means[name], p.stds[name]
		for i := 0; i < n; i++ {
			v := col.Floats[i]
			if math.IsNaN(v) {
				// Missing numeric imputes to the training mean, which
				// standardizes to zero.
				v = mean
			}
			if std > 0 {
				out[i][j] = (v - mean) / std
			} else {
				out[i][j] = 0
			}
		}
		j++
	}
	for _, name := range p.categorical {
		col, ok := x.Column(name)
		if !ok {
			return nil, fmt.Errorf("categorical column %q missing from transform data", name)
		}
		levels := p.categories[name]
		index := make(map[string]int, len(levels))
		for k, lv := range levels {
			index[lv] = k
		}
		for i := 0; i < n; i++ {
			if col.IsMissing(i) {
				continue
			}
			if k, known := index[col.Strings[i]]; known {
				out[i][j+k] = 1
			}
			// Unknown category: row stays all-zero across this block.
		}
		j += len(levels)
	}
	return out, nil
}

// FitTransform fits on x and returns its transformed matrix.
func (p *Pipeline) FitTransform(x *table.Dataset) ([][]float64, error) {
	if err := p.Fit(x); err != nil {
		return nil, err
	}
	return p.Transform(x)
}

// Width is the number of output features after encoding.
func (p *Pipeline) Width() int {
	w := len(p.numeric)
	for _, name := range p.categorical {
		w += len(p.categories[name])
	}
	return w
}

// FeatureNames returns the encoded feature names in output order.
func (p *Pipeline) FeatureNames() []string {
	names := make([]string, 0, p.Width())
	for _, n := range p.numeric {
		names = append(names, n.String())
	}
	for _, n := range p.categorical {
		for _, lv := range p.categories[n] {
			names = append(names, n.String()+"_"+lv)
		}
	}
	return names
}

// ScalerStats returns full-width mean/std arrays aligned with FeatureNames.
// One-hot positions carry identity stats (mean 0, std 1) so a frozen model
// artifact can standardize raw encoded vectors uniformly.
func (p *Pipeline) ScalerStats() (means, stds []float64) {
	w := p.Width()
	means = make([]float64, w)
	stds = make([]float64, w)
	for i := range stds {
		stds[i] = 1
	}
	for j, name := range p.numeric {
		means[j] = p.means[name]
		if s := p.stds[name]; s > 0 {
			stds[j] = s
		}
	}
	return means, stds
}

// Mean returns the learned mean for a numeric column (testing hook for the
// idempotence guarantee).
func (p *Pipeline) Mean(name core.ColumnName) (float64, bool) {
	v, ok := p.means[name]
	return v, ok
}

// Std returns the learned standard deviation for a numeric column.
func (p *Pipeline) Std(name core.ColumnName) (float64, bool) {
	v, ok := p.stds[name]
	return v, ok
}

func nonMissing(col table.Column) []float64 {
	out := make([]float64, 0, len(col.Floats))
	for _, v := range col.Floats {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}
