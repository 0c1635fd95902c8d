package table

import (
	"fmt"
	"math"
	"sort"

	"clinaudit/domain/core"
)

// DType is the value type of a column, decided purely from its values.
type DType string

const (
	DTypeNumeric     DType = "numeric"
	DTypeCategorical DType = "categorical"
)

// Column is a single named column. Numeric columns store parsed floats with
// NaN marking missing cells; categorical columns store raw strings with ""
// marking missing cells. Exactly one of the value slices is populated.
type Column struct {
	Name    core.ColumnName
	DType   DType
	Floats  []float64
	Strings []string
}

// Len returns the number of rows in the column.
func (c Column) Len() int {
	if c.DType == DTypeNumeric {
		return len(c.Floats)
	}
	return len(c.Strings)
}

// IsNumeric reports whether the column holds numeric values.
func (c Column) IsNumeric() bool {
	return c.DType == DTypeNumeric
}

// IsMissing reports whether the cell at row i is missing.
func (c Column) IsMissing(i int) bool {
	if c.DType == DTypeNumeric {
		return math.IsNaN(c.Floats[i])
	}
	return c.Strings[i] == ""
}

// MissingCount returns the number of missing cells.
func (c Column) MissingCount() int {
	n := 0
	for i := 0; i < c.Len(); i++ {
		if c.IsMissing(i) {
			n++
		}
	}
	return n
}

// DistinctNonMissing returns the distinct non-missing values as strings,
// sorted for stable output.
func (c Column) DistinctNonMissing() []string {
	seen := map[string]struct{}{}
	for i := 0; i < c.Len(); i++ {
		if c.IsMissing(i) {
			continue
		}
		var v string
		if c.DType == DTypeNumeric {
			v = formatFloat(c.Floats[i])
		} else {
			v = c.Strings[i]
		}
		seen[v] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// IsBinary reports whether the non-missing values are a subset of {0,1} with
// at most 3 distinct values. Categorical columns qualify when their raw
// strings are "0"/"1".
func (c Column) IsBinary() bool {
	distinct := c.DistinctNonMissing()
	if len(distinct) == 0 || len(distinct) > 3 {
		return false
	}
	for _, v := range distinct {
		if v != "0" && v != "1" {
			return false
		}
	}
	return true
}

// IsIntegerTyped reports whether the column is numeric and every non-missing
// value is a whole number (e.g. a year column stored as ints).
func (c Column) IsIntegerTyped() bool {
	if c.DType != DTypeNumeric {
		return false
	}
	for _, v := range c.Floats {
		if math.IsNaN(v) {
			continue
		}
		if v != math.Trunc(v) {
			return false
		}
	}
	return true
}

// Take returns a new column containing the rows at the given indices, in order.
func (c Column) Take(idx []int) Column {
	out := Column{Name: c.Name, DType: c.DType}
	if c.DType == DTypeNumeric {
		out.Floats = make([]float64, len(idx))
		for i, j := range idx {
			out.Floats[i] = c.Floats[j]
		}
		return out
	}
	out.Strings = make([]string, len(idx))
	for i, j := range idx {
		out.Strings[i] = c.Strings[j]
	}
	return out
}

func formatFloat(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%g", v)
}

// Dataset is an ordered collection of equal-length named columns.
type Dataset struct {
	columns []Column
	index   map[core.ColumnName]int
	rows    int
}

// NewDataset builds a dataset from ordered columns, validating equal lengths
// and unique names.
func NewDataset(columns []Column) (*Dataset, error) {
	d := &Dataset{
		columns: columns,
		index:   make(map[core.ColumnName]int, len(columns)),
	}
	for i, c := range columns {
		if _, dup := d.index[c.Name]; dup {
			return nil, fmt.Errorf("duplicate column name %q", c.Name)
		}
		d.index[c.Name] = i
		if i == 0 {
			d.rows = c.Len()
		} else if c.Len() != d.rows {
			return nil, fmt.Errorf("column %q has %d rows, expected %d", c.Name, c.Len(), d.rows)
		}
	}
	return d, nil
}

// NumRows returns the row count.
func (d *Dataset) NumRows() int { return d.rows }

// NumCols returns the column count.
func (d *Dataset) NumCols() int { return len(d.columns) }

// Columns returns the ordered columns.
func (d *Dataset) Columns() []Column { return d.columns }

// Names returns the ordered column names.
func (d *Dataset) Names() []core.ColumnName {
	names := make([]core.ColumnName, len(d.columns))
	for i, c := range d.columns {
		names[i] = c.Name
	}
	return names
}

// Column looks up a column by name.
func (d *Dataset) Column(name core.ColumnName) (Column, bool) {
	i, ok := d.index[name]
	if !ok {
		return Column{}, false
	}
	return d.columns[i], true
}

// HasColumn reports whether a column exists.
func (d *Dataset) HasColumn(name core.ColumnName) bool {
	_, ok := d.index[name]
	return ok
}

// Select returns a dataset restricted to the named columns, preserving the
// requested order. Unknown names are skipped.
func (d *Dataset) Select(names []core.ColumnName) *Dataset {
	cols := make([]Column, 0, len(names))
	for _, n := range names {
		if c, ok := d.Column(n); ok {
			cols = append(cols, c)
		}
	}
	out, _ := NewDataset(cols)
	return out
}

// Drop returns a dataset without the named columns, preserving column order.
func (d *Dataset) Drop(names []core.ColumnName) *Dataset {
	drop := make(map[core.ColumnName]struct{}, len(names))
	for _, n := range names {
		drop[n] = struct{}{}
	}
	cols := make([]Column, 0, len(d.columns))
	for _, c := range d.columns {
		if _, skip := drop[c.Name]; !skip {
			cols = append(cols, c)
		}
	}
	out, _ := NewDataset(cols)
	return out
}

// TakeRows returns a dataset containing the rows at the given indices, in order.
func (d *Dataset) TakeRows(idx []int) *Dataset {
	cols := make([]Column, len(d.columns))
	for i, c := range d.columns {
		cols[i] = c.Take(idx)
	}
	out, _ := NewDataset(cols)
	return out
}

// TargetVector coerces the named column to a {0,1} float vector. Missing
// values coerce to 0, matching an integer cast of the raw column.
func (d *Dataset) TargetVector(name core.ColumnName) ([]float64, error) {
	c, ok := d.Column(name)
	if !ok {
		return nil, fmt.Errorf("target column %q not found", name)
	}
	y := make([]float64, c.Len())
	for i := 0; i < c.Len(); i++ {
		if c.IsMissing(i) {
			y[i] = 0
			continue
		}
		var v float64
		if c.DType == DTypeNumeric {
			v = c.Floats[i]
		} else if c.Strings[i] == "1" {
			v = 1
		}
		if v >= 0.5 {
			y[i] = 1
		} else {
			y[i] = 0
		}
	}
	return y, nil
}
