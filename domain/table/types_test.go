package table

import (
	"math"
	"testing"

	"clinaudit/domain/core"
)

func missingFloat() float64 { return math.NaN() }

func TestIsBinary(t *testing.T) {
	cases := []struct {
		name string
		col  Column
		want bool
	}{
		{"zero one numeric", numericCol("a", 0, 1, 0, 1), true},
		{"with missing", Column{Name: "b", DType: DTypeNumeric, Floats: []float64{0, 1, math.NaN()}}, true},
		{"three-valued", numericCol("c", 0, 1, 2), false},
		{"all missing", Column{Name: "d", DType: DTypeNumeric, Floats: []float64{math.NaN()}}, false},
		{"string zero one", categoricalCol("e", "0", "1", "0"), true},
		{"string labels", categoricalCol("f", "yes", "no"), false},
	}
	for _, tc := range cases {
		if got := tc.col.IsBinary(); got != tc.want {
			t.Errorf("%s: IsBinary = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestIsIntegerTyped(t *testing.T) {
	if !numericCol("year", 2019, 2020, 2021).IsIntegerTyped() {
		t.Error("whole-number column should be integer typed")
	}
	if numericCol("bmi", 22.5, 31.0).IsIntegerTyped() {
		t.Error("fractional column should not be integer typed")
	}
	if categoricalCol("site", "A", "B").IsIntegerTyped() {
		t.Error("categorical column should not be integer typed")
	}
}

func TestNewDataset_RejectsRaggedAndDuplicate(t *testing.T) {
	if _, err := NewDataset([]Column{
		numericCol("a", 1, 2, 3),
		numericCol("b", 1, 2),
	}); err == nil {
		t.Error("expected error for unequal column lengths")
	}
	if _, err := NewDataset([]Column{
		numericCol("a", 1, 2),
		numericCol("a", 3, 4),
	}); err == nil {
		t.Error("expected error for duplicate column names")
	}
}

func TestDropAndTakeRows(t *testing.T) {
	d := mustDataset(t,
		numericCol("a", 1, 2, 3, 4),
		numericCol("b", 5, 6, 7, 8),
	)
	dropped := d.Drop([]core.ColumnName{"a"})
	if dropped.NumCols() != 1 || dropped.HasColumn("a") {
		t.Error("Drop should remove exactly the named column")
	}

	sub := d.TakeRows([]int{2, 0})
	if sub.NumRows() != 2 {
		t.Fatalf("expected 2 rows, got %d", sub.NumRows())
	}
	col, _ := sub.Column("a")
	if col.Floats[0] != 3 || col.Floats[1] != 1 {
		t.Errorf("TakeRows must preserve requested order, got %v", col.Floats)
	}
}

func TestDistinctNonMissing_FormatsIntegersPlainly(t *testing.T) {
	col := numericCol("site", 1, 2, 2, 3)
	got := col.DistinctNonMissing()
	want := []string{"1", "2", "3"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("distinct[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
