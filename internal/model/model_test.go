package model

import (
	"math/rand"
	"testing"
)

// separableData returns a linearly separable problem: positives live above
// x0=0, negatives below, with a small margin.
func separableData(n int, seed int64) ([][]float64, []float64) {
	rng := rand.New(rand.NewSource(seed))
	x := make([][]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		label := float64(i % 2)
		offset := -1.0
		if label == 1 {
			offset = 1.0
		}
		x[i] = []float64{offset + rng.NormFloat64()*0.2, rng.NormFloat64()}
		y[i] = label
	}
	return x, y
}

func accuracyOf(t *testing.T, clf Classifier, x [][]float64, y []float64) float64 {
	t.Helper()
	proba, err := clf.PredictProba(x)
	if err != nil {
		t.Fatalf("PredictProba failed: %v", err)
	}
	correct := 0
	for i, p := range proba {
		pred := 0.0
		if p >= 0.5 {
			pred = 1.0
		}
		if pred == y[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(y))
}

func TestLogisticRegression_LearnsSeparableData(t *testing.T) {
	x, y := separableData(200, 1)
	clf := NewLogisticRegression(1.0, "l2")
	if err := clf.Fit(x, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	if acc := accuracyOf(t, clf, x, y); acc < 0.95 {
		t.Errorf("training accuracy %g on separable data, want >= 0.95", acc)
	}
}

func TestLogisticRegression_L1Penalty(t *testing.T) {
	x, y := separableData(200, 2)
	clf := NewLogisticRegression(0.1, "l1")
	if err := clf.Fit(x, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	if acc := accuracyOf(t, clf, x, y); acc < 0.9 {
		t.Errorf("training accuracy %g with l1 penalty, want >= 0.9", acc)
	}
}

func TestLogisticRegression_DeterministicFit(t *testing.T) {
	x, y := separableData(100, 3)
	a := NewLogisticRegression(1.0, "l2")
	b := NewLogisticRegression(1.0, "l2")
	if err := a.Fit(x, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	if err := b.Fit(x, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	wa, ba, _ := a.Coefficients()
	wb, bb, _ := b.Coefficients()
	if ba != bb {
		t.Errorf("bias differs across identical fits: %g vs %g", ba, bb)
	}
	for j := range wa {
		if wa[j] != wb[j] {
			t.Errorf("weight %d differs across identical fits", j)
		}
	}
}

func TestPredictBeforeFit(t *testing.T) {
	if _, err := NewLogisticRegression(1.0, "l2").PredictProba([][]float64{{0, 0}}); err == nil {
		t.Error("logistic predict before fit should fail")
	}
	if _, err := NewGradientBoosting(10, 0.1, 2).PredictProba([][]float64{{0, 0}}); err == nil {
		t.Error("boosting predict before fit should fail")
	}
}

func TestGradientBoosting_LearnsSeparableData(t *testing.T) {
	x, y := separableData(200, 4)
	clf := NewGradientBoosting(50, 0.1, 3)
	if err := clf.Fit(x, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	if acc := accuracyOf(t, clf, x, y); acc < 0.95 {
		t.Errorf("training accuracy %g on separable data, want >= 0.95", acc)
	}
}

func TestGradientBoosting_LearnsInteraction(t *testing.T) {
	// XOR-style target: no single linear threshold works, trees of depth 2
	// must find the interaction.
	rng := rand.New(rand.NewSource(5))
	n := 400
	x := make([][]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		a, b := rng.Float64()*2-1, rng.Float64()*2-1
		x[i] = []float64{a, b}
		if (a > 0) != (b > 0) {
			y[i] = 1
		}
	}
	clf := NewGradientBoosting(100, 0.1, 3)
	if err := clf.Fit(x, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	if acc := accuracyOf(t, clf, x, y); acc < 0.9 {
		t.Errorf("training accuracy %g on XOR data, want >= 0.9", acc)
	}
}

func TestGradientBoosting_ExportImportRoundTrip(t *testing.T) {
	x, y := separableData(200, 6)
	clf := NewGradientBoosting(30, 0.1, 3)
	if err := clf.Fit(x, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	base, trees, err := clf.Export()
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	restored := ImportGradientBoosting(base, clf.LearningRate, trees)

	want, err := clf.PredictProba(x)
	if err != nil {
		t.Fatalf("PredictProba failed: %v", err)
	}
	got, err := restored.PredictProba(x)
	if err != nil {
		t.Fatalf("restored PredictProba failed: %v", err)
	}
	for i := range want {
		if want[i] != got[i] {
			t.Fatalf("restored model diverges at row %d: %g vs %g", i, got[i], want[i])
		}
	}
}

func TestExport_BeforeFit(t *testing.T) {
	if _, _, err := NewGradientBoosting(10, 0.1, 2).Export(); err == nil {
		t.Error("export before fit should fail")
	}
}

func TestFamilies(t *testing.T) {
	families := DefaultFamilies()
	if len(families) != 2 {
		t.Fatalf("expected 2 families, got %d", len(families))
	}
	if families[0].Name != "logistic_regression" || families[1].Name != "gradient_boosting" {
		t.Errorf("unexpected family names: %s, %s", families[0].Name, families[1].Name)
	}
	if len(LogisticFamily().Grid) != 6 {
		t.Errorf("logistic grid should have 6 points, got %d", len(LogisticFamily().Grid))
	}
	if len(BoostingFamily().Grid) != 12 {
		t.Errorf("boosting grid should have 12 points, got %d", len(BoostingFamily().Grid))
	}
	// Each grid point must produce a fresh instance.
	gp := LogisticFamily().Grid[0]
	if gp.New() == gp.New() {
		t.Error("grid factory must return distinct instances")
	}
}

func TestFamilyDefault_FreshBaselineInstances(t *testing.T) {
	for _, family := range DefaultFamilies() {
		a, b := family.Default(), family.Default()
		if a == nil || b == nil {
			t.Fatalf("%s baseline factory returned nil", family.Name)
		}
		if a == b {
			t.Errorf("%s baseline must be a fresh instance per call", family.Name)
		}
		// Unfitted: fit state must never be shared across callers.
		if _, err := a.PredictProba([][]float64{{0, 0}}); err == nil {
			t.Errorf("%s baseline should start unfitted", family.Name)
		}
	}
}
