package predictor

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"clinaudit/domain/core"
	"clinaudit/internal/model"

	"gonum.org/v1/gonum/floats"
)

// Artifact is the frozen, JSON-serialized model the prediction service loads
// at startup: feature schema, scaler statistics learned at training time,
// and family-specific parameters. It is the only thing the serving path
// knows about models.
type Artifact struct {
	ModelName    string         `json:"model_name"`
	ModelVersion string         `json:"model_version"`
	Family       string         `json:"family"`
	FeatureNames []string       `json:"feature_names"`
	Means        []float64      `json:"means"`
	Stds         []float64      `json:"stds"`
	TrainedAt    core.Timestamp `json:"trained_at"`

	// Linear family.
	Weights []float64 `json:"weights,omitempty"`
	Bias    float64   `json:"bias,omitempty"`

	// Boosted-tree family.
	BaseScore    float64       `json:"base_score,omitempty"`
	LearningRate float64       `json:"learning_rate,omitempty"`
	Trees        []*model.Node `json:"trees,omitempty"`
}

// Load reads an artifact from disk.
func Load(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", core.ErrArtifactNotFound, path)
		}
		return nil, fmt.Errorf("failed to read model artifact: %w", err)
	}
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("failed to decode model artifact: %w", err)
	}
	if err := a.validate(); err != nil {
		return nil, err
	}
	return &a, nil
}

// Save writes the artifact, creating the parent directory as needed.
func (a *Artifact) Save(path string) error {
	if err := a.validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create models directory: %w", err)
	}
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal model artifact: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write model artifact: %w", err)
	}
	return nil
}

func (a *Artifact) validate() error {
	n := len(a.FeatureNames)
	if n == 0 {
		return fmt.Errorf("artifact has no feature names")
	}
	if len(a.Means) != n || len(a.Stds) != n {
		return fmt.Errorf("artifact scaler stats width %d/%d does not match %d features",
			len(a.Means), len(a.Stds), n)
	}
	for i, sd := range a.Stds {
		// A zero, negative or NaN deviation would divide standardization
		// into NaN/Inf probabilities at serving time.
		if !(sd > 0) {
			return fmt.Errorf("artifact std for feature %s must be positive, got %v",
				a.FeatureNames[i], sd)
		}
	}
	switch a.Family {
	case "logistic_regression":
		if len(a.Weights) != n {
			return fmt.Errorf("artifact has %d weights for %d features", len(a.Weights), n)
		}
	case "gradient_boosting":
		if len(a.Trees) == 0 {
			return fmt.Errorf("boosting artifact has no trees")
		}
	default:
		return fmt.Errorf("unknown model family %q", a.Family)
	}
	return nil
}

// NumFeatures is the expected input vector length.
func (a *Artifact) NumFeatures() int { return len(a.FeatureNames) }

// Score standardizes a raw encoded feature vector with the frozen scaler
// statistics and returns the positive-class probability.
func (a *Artifact) Score(features []float64) (float64, error) {
	if len(features) != a.NumFeatures() {
		return 0, fmt.Errorf("%w: got %d features, expected %d",
			core.ErrFeatureMismatch, len(features), a.NumFeatures())
	}
	z := make([]float64, len(features))
	for i, v := range features {
		z[i] = (v - a.Means[i]) / a.Stds[i]
	}

	switch a.Family {
	case "logistic_regression":
		return sigmoid(floats.Dot(a.Weights, z) + a.Bias), nil
	default: // gradient_boosting, enforced by validate
		score := a.BaseScore
		for _, tree := range a.Trees {
			score += a.LearningRate * tree.Predict(z)
		}
		return sigmoid(score), nil
	}
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}
