package report

import (
	"clinaudit/domain/core"
)

// ColumnProfile summarizes one column of the audited dataset.
type ColumnProfile struct {
	Name     string `json:"name"`
	DType    string `json:"dtype"`
	Missing  int    `json:"missing"`
	Distinct int    `json:"distinct"`
}

// SuspiciousFeature is one leakage-score record. Nil scores mean the feature
// was skipped for that estimator (degenerate values).
type SuspiciousFeature struct {
	Feature          string   `json:"feature"`
	SingleFeatureAUC *float64 `json:"single_feature_auc"`
	MutualInfo       *float64 `json:"mutual_info"`
}

// LeakageReport is the first of the four audit reports.
type LeakageReport struct {
	Target             string              `json:"target"`
	CognitiveDetected  []string            `json:"cognitive_features_detected"`
	TopSuspicious      []SuspiciousFeature `json:"top_suspicious_by_auc_mi"`
	ProxyFlags         []string            `json:"proxy_flags"`
	DatasetProfile     []ColumnProfile     `json:"dataset_profile"`
}

// HoldoutMetrics holds the six single-split evaluation metrics.
type HoldoutMetrics struct {
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	ROCAUC    float64 `json:"roc_auc"`
	Brier     float64 `json:"brier"`
}

// FeatureSetEvaluation pairs a feature set with its holdout metrics.
type FeatureSetEvaluation struct {
	Features []string       `json:"features"`
	Metrics  HoldoutMetrics `json:"metrics"`
}

// WithWithoutReport compares holdout performance with and without the
// cognitive feature set.
type WithWithoutReport struct {
	WithCognitive    FeatureSetEvaluation `json:"with_cognitive"`
	WithoutCognitive FeatureSetEvaluation `json:"without_cognitive"`
}

// FoldResult records one outer fold of nested cross-validation. Immutable
// once created.
type FoldResult struct {
	Fold       int            `json:"fold"`
	BestParams map[string]any `json:"best_params"`
	ValScore   float64        `json:"val_score"`
	TestAUC    float64        `json:"test_auc"`
}

// NestedCVResult aggregates the outer folds for one model family.
type NestedCVResult struct {
	OuterScores []float64    `json:"outer_scores"`
	MeanAUC     float64      `json:"mean_auc"`
	StdAUC      float64      `json:"std_auc"`
	CI95        [2]float64   `json:"ci95"`
	Folds       []FoldResult `json:"folds"`
}

// NestedCVReport maps model family name to its nested CV result.
type NestedCVReport map[string]NestedCVResult

// TemporalFeasibility describes whether a chronological split is possible.
// Message is set instead of the split when no temporal column exists.
type TemporalFeasibility struct {
	DateColumn string         `json:"date_column,omitempty"`
	Sizes      map[string]int `json:"sizes,omitempty"`
	Message    string         `json:"message,omitempty"`
}

// SiteFeasibility describes whether grouped (leave-one-site-out) validation
// is statistically meaningful.
type SiteFeasibility struct {
	SiteColumn string `json:"site_column,omitempty"`
	NGroups    int    `json:"n_groups,omitempty"`
	Message    string `json:"message,omitempty"`
}

// TemporalSiteReport is the feasibility report.
type TemporalSiteReport struct {
	Temporal TemporalFeasibility `json:"temporal"`
	Site     SiteFeasibility     `json:"site"`
}

// RunManifest records the audit run itself: what ran, on what data, with
// which seed, and how far it got.
type RunManifest struct {
	RunID       core.RunID     `json:"run_id"`
	DataPath    string         `json:"data_path"`
	Target      string         `json:"target"`
	Seed        int64          `json:"seed"`
	StartedAt   core.Timestamp `json:"started_at"`
	FinishedAt  core.Timestamp `json:"finished_at"`
	Completed   []string       `json:"completed_stages"`
	FailedStage string         `json:"failed_stage,omitempty"`
	Error       string         `json:"error,omitempty"`
}
