package app

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"clinaudit/domain/core"
	"clinaudit/domain/report"
	"clinaudit/domain/table"
	"clinaudit/internal/config"
	"clinaudit/internal/model"
)

// stubReader serves a pre-built dataset.
type stubReader struct {
	d    *table.Dataset
	err  error
	path string
}

func (r stubReader) Read() (*table.Dataset, error) { return r.d, r.err }
func (r stubReader) Path() string                  { return r.path }

// memSink records every write in memory.
type memSink struct {
	reports map[core.ReportName]any
	summary string
}

func newMemSink() *memSink {
	return &memSink{reports: map[core.ReportName]any{}}
}

func (s *memSink) WriteReport(_ context.Context, name core.ReportName, payload any) error {
	s.reports[name] = payload
	return nil
}

func (s *memSink) WriteSummary(_ context.Context, markdown string) error {
	s.summary = markdown
	return nil
}

func auditConfig() config.AuditConfig {
	return config.AuditConfig{
		Seed:              42,
		OuterFolds:        3,
		InnerFolds:        2,
		HoldoutFraction:   0.2,
		ProxyAUCThreshold: 0.98,
		TopSuspicious:     30,
	}
}

// fastFamily keeps the nested CV stage quick.
func fastFamily() model.Family {
	mk := func(c float64) func() model.Classifier {
		return func() model.Classifier {
			clf := model.NewLogisticRegression(c, "l2")
			clf.Epochs = 100
			return clf
		}
	}
	return model.Family{
		Name: "logistic_regression",
		Grid: []model.GridPoint{
			{Params: map[string]any{"C": 0.1}, New: mk(0.1)},
			{Params: map[string]any{"C": 1.0}, New: mk(1.0)},
		},
	}
}

// clinicalFixture builds a 500-row dataset with a verbatim target leak, a
// predictive cognitive score, three hospitals and an integer year column.
func clinicalFixture(t *testing.T) *table.Dataset {
	t.Helper()
	n := 500
	rng := rand.New(rand.NewSource(9))

	patientID := make([]float64, n)
	age := make([]float64, n)
	mmse := make([]float64, n)
	leak := make([]float64, n)
	diagnosis := make([]float64, n)
	hospital := make([]string, n)
	year := make([]float64, n)
	for i := 0; i < n; i++ {
		y := float64(i % 2)
		diagnosis[i] = y
		leak[i] = y
		patientID[i] = float64(i + 1)
		age[i] = 60 + rng.Float64()*30
		// Diagnosed patients score lower, with enough overlap that the
		// honest signal stays clearly below the proxy threshold.
		mmse[i] = 24 - 6*y + rng.NormFloat64()*4
		hospital[i] = fmt.Sprintf("hospital_%d", i%3)
		year[i] = float64(2015 + i%8)
	}

	d, err := table.NewDataset([]table.Column{
		{Name: "PatientID", DType: table.DTypeNumeric, Floats: patientID},
		{Name: "Age", DType: table.DTypeNumeric, Floats: age},
		{Name: "MMSE", DType: table.DTypeNumeric, Floats: mmse},
		{Name: "LeakedLabel", DType: table.DTypeNumeric, Floats: leak},
		{Name: "Hospital", DType: table.DTypeCategorical, Strings: hospital},
		{Name: "AdmissionYear", DType: table.DTypeNumeric, Floats: year},
		{Name: "Diagnosis", DType: table.DTypeNumeric, Floats: diagnosis},
	})
	if err != nil {
		t.Fatalf("NewDataset failed: %v", err)
	}
	return d
}

func TestAuditService_EndToEnd(t *testing.T) {
	sink := newMemSink()
	reader := stubReader{d: clinicalFixture(t), path: "data/synthetic.csv"}
	service := NewAuditService(auditConfig(), reader, sink).WithFamilies(fastFamily())

	result, err := service.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if got := len(result.Manifest.Completed); got != 6 {
		t.Errorf("completed %d stages, want 6: %v", got, result.Manifest.Completed)
	}
	if result.Manifest.Target != "Diagnosis" {
		t.Errorf("target = %q, want Diagnosis", result.Manifest.Target)
	}

	// All four reports plus the summary were persisted.
	for _, name := range []core.ReportName{
		core.ReportLeakageAudit, core.ReportWithWithout,
		core.ReportTemporalSite, core.ReportNestedCVSummary,
	} {
		if _, ok := sink.reports[name]; !ok {
			t.Errorf("report %s was not written", name)
		}
	}
	if sink.summary == "" {
		t.Error("run summary was not written")
	}
	if !strings.Contains(sink.summary, result.Manifest.RunID.String()) {
		t.Error("summary should carry the run id")
	}

	// The verbatim leak is flagged; honest features are not.
	if len(result.Leakage.ProxyFlags) != 1 || result.Leakage.ProxyFlags[0] != "LeakedLabel" {
		t.Errorf("proxy flags = %v, want [LeakedLabel]", result.Leakage.ProxyFlags)
	}
	if result.Leakage.TopSuspicious[0].Feature != "LeakedLabel" {
		t.Errorf("leaked column should rank first, got %s", result.Leakage.TopSuspicious[0].Feature)
	}

	// MMSE is detected as cognitive and excluded from the non-cognitive set.
	foundMMSE := false
	for _, c := range result.Leakage.CognitiveDetected {
		if c == "MMSE" {
			foundMMSE = true
		}
	}
	if !foundMMSE {
		t.Errorf("MMSE should be detected as cognitive: %v", result.Leakage.CognitiveDetected)
	}
	for _, f := range result.WithWithout.WithoutCognitive.Features {
		if f == "MMSE" {
			t.Error("non-cognitive feature set must not contain MMSE")
		}
	}

	// Feasibility: 70/15/15 positional temporal split and 3 site groups.
	if s := result.Feasibility.Temporal.Sizes; s["train"] != 350 || s["val"] != 75 || s["test"] != 75 {
		t.Errorf("temporal sizes = %v, want 350/75/75", s)
	}
	if result.Feasibility.Site.NGroups != 3 {
		t.Errorf("site groups = %d, want 3", result.Feasibility.Site.NGroups)
	}

	// Nested CV ran for the injected family; the target leak is excluded from
	// features only via the target drop, so AUC on real features stays sane.
	res, ok := result.NestedCV["logistic_regression"]
	if !ok {
		t.Fatalf("nested CV missing family result: %v", result.NestedCV)
	}
	if len(res.OuterScores) != 3 {
		t.Errorf("outer scores = %d, want 3", len(res.OuterScores))
	}
	// LeakedLabel is a verbatim target copy sitting in the feature matrix,
	// so every outer fold must score essentially perfect AUC.
	for i, score := range res.OuterScores {
		if score < 0.99 {
			t.Errorf("outer fold %d AUC = %g, want >= 0.99 with a verbatim target copy present", i, score)
		}
	}
	if res.MeanAUC < 0.99 {
		t.Errorf("mean AUC = %g, want >= 0.99 with a verbatim target copy present", res.MeanAUC)
	}
}

func TestAuditService_AmbiguousTargetWritesNothing(t *testing.T) {
	d, err := table.NewDataset([]table.Column{
		{Name: "Flag", DType: table.DTypeNumeric, Floats: []float64{0, 1, 0, 1}},
		{Name: "Status", DType: table.DTypeNumeric, Floats: []float64{1, 0, 1, 0}},
	})
	if err != nil {
		t.Fatalf("NewDataset failed: %v", err)
	}
	sink := newMemSink()
	service := NewAuditService(auditConfig(), stubReader{d: d}, sink).WithFamilies(fastFamily())

	result, err := service.Run(context.Background())
	if err == nil {
		t.Fatal("expected semantics failure")
	}
	if result.Manifest.FailedStage != StageSemantics {
		t.Errorf("failed stage = %q, want %q", result.Manifest.FailedStage, StageSemantics)
	}
	if len(sink.reports) != 0 || sink.summary != "" {
		t.Error("an ambiguous target must not persist any report")
	}
}

func TestAuditService_MissingDataFailsAtLoad(t *testing.T) {
	sink := newMemSink()
	reader := stubReader{err: core.NewDataNotFoundError([]string{"data/x.csv"})}
	service := NewAuditService(auditConfig(), reader, sink)

	result, err := service.Run(context.Background())
	if err == nil {
		t.Fatal("expected load failure")
	}
	if result.Manifest.FailedStage != StageLoad {
		t.Errorf("failed stage = %q, want %q", result.Manifest.FailedStage, StageLoad)
	}
	if len(sink.reports) != 0 {
		t.Error("no report should be written when the dataset is missing")
	}
}

func TestRenderSummary_MentionsProxyFlags(t *testing.T) {
	service := NewAuditService(auditConfig(), stubReader{}, newMemSink())
	r := &AuditResult{
		Manifest: report.RunManifest{RunID: core.NewRunID(), Target: "Diagnosis", Seed: 42},
		Leakage:  &report.LeakageReport{ProxyFlags: []string{"LeakedLabel"}},
	}
	md := service.renderSummary(r)
	if !strings.Contains(md, "LeakedLabel") {
		t.Error("summary should list proxy flags")
	}
	if !strings.Contains(md, "# Model Validation Audit") {
		t.Error("summary should carry the heading")
	}
}
