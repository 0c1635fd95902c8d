package validation

import (
	"errors"
	"testing"

	"clinaudit/domain/core"
)

func balancedTarget(n int) []float64 {
	y := make([]float64, n)
	for i := range y {
		y[i] = float64(i % 2)
	}
	return y
}

func TestStratifiedKFold_ExactPartition(t *testing.T) {
	y := balancedTarget(103)
	folds, err := StratifiedKFold(y, 5, 42)
	if err != nil {
		t.Fatalf("StratifiedKFold failed: %v", err)
	}
	if len(folds) != 5 {
		t.Fatalf("expected 5 folds, got %d", len(folds))
	}

	seen := make(map[int]int)
	for _, fold := range folds {
		for _, i := range fold {
			seen[i]++
		}
	}
	if len(seen) != len(y) {
		t.Errorf("folds cover %d rows, want %d", len(seen), len(y))
	}
	for i, count := range seen {
		if count != 1 {
			t.Errorf("row %d appears in %d test folds, want exactly 1", i, count)
		}
	}
}

func TestStratifiedKFold_PreservesClassBalance(t *testing.T) {
	y := balancedTarget(100)
	folds, err := StratifiedKFold(y, 5, 42)
	if err != nil {
		t.Fatalf("StratifiedKFold failed: %v", err)
	}
	for f, fold := range folds {
		pos := 0
		for _, i := range fold {
			if y[i] == 1 {
				pos++
			}
		}
		if pos != len(fold)/2 {
			t.Errorf("fold %d: %d positives of %d rows, want half", f, pos, len(fold))
		}
	}
}

func TestStratifiedKFold_Deterministic(t *testing.T) {
	y := balancedTarget(60)
	a, err := StratifiedKFold(y, 3, 7)
	if err != nil {
		t.Fatalf("StratifiedKFold failed: %v", err)
	}
	b, err := StratifiedKFold(y, 3, 7)
	if err != nil {
		t.Fatalf("StratifiedKFold failed: %v", err)
	}
	for f := range a {
		if len(a[f]) != len(b[f]) {
			t.Fatalf("fold %d size differs across identical calls", f)
		}
		for i := range a[f] {
			if a[f][i] != b[f][i] {
				t.Fatalf("fold %d differs across identical calls", f)
			}
		}
	}

	c, err := StratifiedKFold(y, 3, 8)
	if err != nil {
		t.Fatalf("StratifiedKFold failed: %v", err)
	}
	same := true
	for f := range a {
		for i := range a[f] {
			if a[f][i] != c[f][i] {
				same = false
			}
		}
	}
	if same {
		t.Error("different seeds should deal different folds")
	}
}

func TestStratifiedKFold_InsufficientClassRows(t *testing.T) {
	y := []float64{0, 0, 0, 0, 1, 1} // 2 positives, 3 folds
	_, err := StratifiedKFold(y, 3, 42)
	if err == nil {
		t.Fatal("expected insufficient data error")
	}
	if !errors.Is(err, core.ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}
}

func TestComplement(t *testing.T) {
	got := Complement([]int{1, 3}, 5)
	want := []int{0, 2, 4}
	if len(got) != len(want) {
		t.Fatalf("complement = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("complement[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestStratifiedSplit_FractionPerClass(t *testing.T) {
	y := balancedTarget(100)
	train, test, err := StratifiedSplit(y, 0.2, 42)
	if err != nil {
		t.Fatalf("StratifiedSplit failed: %v", err)
	}
	if len(test) != 20 || len(train) != 80 {
		t.Errorf("split sizes %d/%d, want 80/20", len(train), len(test))
	}
	pos := 0
	for _, i := range test {
		if y[i] == 1 {
			pos++
		}
	}
	if pos != 10 {
		t.Errorf("test partition has %d positives, want 10", pos)
	}

	// Disjointness.
	inTest := map[int]bool{}
	for _, i := range test {
		inTest[i] = true
	}
	for _, i := range train {
		if inTest[i] {
			t.Fatalf("row %d is in both partitions", i)
		}
	}
}

func TestStratifiedSplit_RejectsBadFraction(t *testing.T) {
	y := balancedTarget(10)
	if _, _, err := StratifiedSplit(y, 0, 42); err == nil {
		t.Error("expected error for fraction 0")
	}
	if _, _, err := StratifiedSplit(y, 1, 42); err == nil {
		t.Error("expected error for fraction 1")
	}
}

func TestSubset(t *testing.T) {
	y := []float64{10, 20, 30, 40}
	got := Subset(y, []int{3, 0})
	if got[0] != 40 || got[1] != 10 {
		t.Errorf("Subset = %v, want [40 10]", got)
	}
}
