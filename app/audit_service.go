package app

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"clinaudit/domain/core"
	"clinaudit/domain/report"
	"clinaudit/domain/table"
	"clinaudit/internal/config"
	"clinaudit/internal/errors"
	"clinaudit/internal/model"
	"clinaudit/internal/stats"
	"clinaudit/internal/validation"
	"clinaudit/ports"
)

// Stage names as they appear in manifests and failure diagnostics.
const (
	StageLoad        = "load"
	StageSemantics   = "semantics"
	StageLeakage     = "leakage"
	StageHoldout     = "holdout"
	StageFeasibility = "feasibility"
	StageNestedCV    = "nested_cv"
)

// AuditService sequences the audit stages and persists the four reports.
// Each stage's report is written as soon as it is computed, so a later-stage
// failure never loses earlier results; only a target ambiguity or a missing
// dataset aborts before anything is persisted.
type AuditService struct {
	cfg      config.AuditConfig
	reader   ports.DatasetReader
	sink     ports.ReportSink
	tokens   table.TokenTable
	families []model.Family
	runID    core.RunID
}

// AuditResult carries everything a run produced, persisted or not.
type AuditResult struct {
	Manifest    report.RunManifest
	Leakage     *report.LeakageReport
	WithWithout *report.WithWithoutReport
	Feasibility *report.TemporalSiteReport
	NestedCV    report.NestedCVReport
}

// NewAuditService wires an audit run with the default token table and the
// two default model families.
func NewAuditService(cfg config.AuditConfig, reader ports.DatasetReader, sink ports.ReportSink) *AuditService {
	return &AuditService{
		cfg:      cfg,
		reader:   reader,
		sink:     sink,
		tokens:   table.DefaultTokenTable(),
		families: model.DefaultFamilies(),
		runID:    core.NewRunID(),
	}
}

// WithRunID pins the run identifier, letting callers share it with sinks
// that key rows by run (the Postgres sink does).
func (s *AuditService) WithRunID(id core.RunID) *AuditService {
	if !core.ID(id).IsEmpty() {
		s.runID = id
	}
	return s
}

// RunID reports the identifier the next Run will stamp on its manifest.
func (s *AuditService) RunID() core.RunID { return s.runID }

// WithFamilies overrides the model families the nested CV stage audits.
func (s *AuditService) WithFamilies(families ...model.Family) *AuditService {
	if len(families) > 0 {
		s.families = families
	}
	return s
}

// Run executes the full audit. On error the returned result still holds
// whatever was computed and persisted before the failing stage.
func (s *AuditService) Run(ctx context.Context) (*AuditResult, error) {
	started := time.Now()
	result := &AuditResult{
		Manifest: report.RunManifest{
			RunID:     s.runID,
			Seed:      s.cfg.Seed,
			StartedAt: core.NewTimestamp(started),
		},
	}
	fail := func(stage string, err error) (*AuditResult, error) {
		result.Manifest.FailedStage = stage
		result.Manifest.Error = err.Error()
		result.Manifest.FinishedAt = core.Now()
		return result, errors.StageFailed(stage, err)
	}

	// Load. Missing data aborts before any computation.
	dataset, err := s.reader.Read()
	if err != nil {
		return fail(StageLoad, err)
	}
	result.Manifest.DataPath = s.reader.Path()
	result.Manifest.Completed = append(result.Manifest.Completed, StageLoad)

	// Semantics. An ambiguous target is a hard stop: nothing downstream is
	// trustworthy, so no report is written at all.
	target, err := table.DetectTarget(dataset)
	if err != nil {
		return fail(StageSemantics, err)
	}
	result.Manifest.Target = target.String()
	log.Printf("[AuditService] run %s: target=%s rows=%d cols=%d",
		result.Manifest.RunID, target, dataset.NumRows(), dataset.NumCols())

	xAll, y, usedAll, err := table.SplitFeatures(dataset, target, s.tokens, false)
	if err != nil {
		return fail(StageSemantics, err)
	}
	xNonCog, _, usedNonCog, err := table.SplitFeatures(dataset, target, s.tokens, true)
	if err != nil {
		return fail(StageSemantics, err)
	}
	cognitive := s.tokens.CognitiveColumns(dataset)
	log.Printf("[AuditService] detected cognitive features: %v", cognitive)
	result.Manifest.Completed = append(result.Manifest.Completed, StageSemantics)

	// Leakage audit over every non-target column, identifiers included;
	// an identifier that predicts the target is exactly what we look for.
	scorer := stats.LeakageScorer{
		Seed:           s.cfg.Seed,
		ProxyThreshold: s.cfg.ProxyAUCThreshold,
		TopSuspicious:  s.cfg.TopSuspicious,
	}
	suspicious, proxyFlags := scorer.Score(dataset.Drop([]core.ColumnName{target}), y)
	result.Leakage = &report.LeakageReport{
		Target:            target.String(),
		CognitiveDetected: columnStrings(cognitive),
		TopSuspicious:     suspicious,
		ProxyFlags:        proxyFlags,
		DatasetProfile:    stats.Profile(dataset),
	}
	if err := s.sink.WriteReport(ctx, core.ReportLeakageAudit, result.Leakage); err != nil {
		return fail(StageLeakage, err)
	}
	result.Manifest.Completed = append(result.Manifest.Completed, StageLeakage)

	// Quick with/without-cognitive comparison on a single stratified split,
	// using the boosting family's baseline parameters.
	holdout := validation.HoldoutEvaluator{TestFraction: s.cfg.HoldoutFraction, Seed: s.cfg.Seed}
	boosting := model.BoostingFamily()
	metricsAll, err := holdout.Evaluate(xAll, y, boosting.Default())
	if err != nil {
		return fail(StageHoldout, err)
	}
	metricsNonCog, err := holdout.Evaluate(xNonCog, y, boosting.Default())
	if err != nil {
		return fail(StageHoldout, err)
	}
	result.WithWithout = &report.WithWithoutReport{
		WithCognitive:    report.FeatureSetEvaluation{Features: columnStrings(usedAll), Metrics: metricsAll},
		WithoutCognitive: report.FeatureSetEvaluation{Features: columnStrings(usedNonCog), Metrics: metricsNonCog},
	}
	if err := s.sink.WriteReport(ctx, core.ReportWithWithout, result.WithWithout); err != nil {
		return fail(StageHoldout, err)
	}
	result.Manifest.Completed = append(result.Manifest.Completed, StageHoldout)

	// Temporal/site feasibility metadata.
	assessor := validation.FeasibilityAssessor{Tokens: s.tokens}
	feasibility := assessor.Assess(dataset)
	result.Feasibility = &feasibility
	if err := s.sink.WriteReport(ctx, core.ReportTemporalSite, result.Feasibility); err != nil {
		return fail(StageFeasibility, err)
	}
	result.Manifest.Completed = append(result.Manifest.Completed, StageFeasibility)

	// Nested CV per model family, always on the full feature set.
	cv := validation.NestedCrossValidator{
		OuterFolds: s.cfg.OuterFolds,
		InnerFolds: s.cfg.InnerFolds,
		Seed:       s.cfg.Seed,
	}
	nested := report.NestedCVReport{}
	for _, family := range s.families {
		res, err := cv.Run(ctx, xAll, y, family)
		if err != nil {
			return fail(StageNestedCV, err)
		}
		nested[family.Name] = res
	}
	result.NestedCV = nested
	if err := s.sink.WriteReport(ctx, core.ReportNestedCVSummary, nested); err != nil {
		return fail(StageNestedCV, err)
	}
	result.Manifest.Completed = append(result.Manifest.Completed, StageNestedCV)

	result.Manifest.FinishedAt = core.Now()
	if err := s.sink.WriteSummary(ctx, s.renderSummary(result)); err != nil {
		log.Printf("[AuditService] failed to write run summary: %v", err)
	}
	return result, nil
}

// renderSummary produces the markdown run summary that sits next to the four
// JSON reports (and backs the server's report page).
func (s *AuditService) renderSummary(r *AuditResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Model Validation Audit\n\n")
	fmt.Fprintf(&b, "- Run: `%s`\n", r.Manifest.RunID)
	fmt.Fprintf(&b, "- Data: `%s`\n", r.Manifest.DataPath)
	fmt.Fprintf(&b, "- Target: `%s`\n", r.Manifest.Target)
	fmt.Fprintf(&b, "- Seed: %d\n\n", r.Manifest.Seed)

	if r.Leakage != nil {
		fmt.Fprintf(&b, "## Leakage\n\n")
		if len(r.Leakage.ProxyFlags) == 0 {
			fmt.Fprintf(&b, "No near-certain leakage proxies flagged.\n\n")
		} else {
			fmt.Fprintf(&b, "Proxy flags (folded AUC >= %.2f): %s\n\n",
				s.cfg.ProxyAUCThreshold, strings.Join(r.Leakage.ProxyFlags, ", "))
		}
	}
	if r.WithWithout != nil {
		fmt.Fprintf(&b, "## Holdout (with vs without cognitive)\n\n")
		fmt.Fprintf(&b, "| set | roc_auc | f1 | brier |\n|---|---|---|---|\n")
		fmt.Fprintf(&b, "| with | %.4f | %.4f | %.4f |\n",
			r.WithWithout.WithCognitive.Metrics.ROCAUC,
			r.WithWithout.WithCognitive.Metrics.F1,
			r.WithWithout.WithCognitive.Metrics.Brier)
		fmt.Fprintf(&b, "| without | %.4f | %.4f | %.4f |\n\n",
			r.WithWithout.WithoutCognitive.Metrics.ROCAUC,
			r.WithWithout.WithoutCognitive.Metrics.F1,
			r.WithWithout.WithoutCognitive.Metrics.Brier)
	}
	if r.NestedCV != nil {
		fmt.Fprintf(&b, "## Nested cross-validation\n\n")
		for _, family := range s.families {
			if res, ok := r.NestedCV[family.Name]; ok {
				fmt.Fprintf(&b, "- %s: mean AUC %.4f (std %.4f)\n", family.Name, res.MeanAUC, res.StdAUC)
			}
		}
		fmt.Fprintf(&b, "\n")
	}
	fmt.Fprintf(&b, "Stages completed: %s\n", strings.Join(r.Manifest.Completed, ", "))
	return b.String()
}

func columnStrings(names []core.ColumnName) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = n.String()
	}
	return out
}
