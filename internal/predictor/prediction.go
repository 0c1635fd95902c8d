package predictor

import "math"

// Prediction is the serving-layer view of one scored feature vector.
type Prediction struct {
	PatientID    string  `json:"patient_id,omitempty"`
	Prediction   int     `json:"prediction"`
	Probability  float64 `json:"probability"`
	RiskLevel    string  `json:"risk_level"`
	Confidence   string  `json:"confidence"`
	ModelVersion string  `json:"model_version"`
}

// Risk bands over the positive-class probability.
const (
	RiskLow      = "Low"
	RiskModerate = "Moderate"
	RiskHigh     = "High"
	RiskCritical = "Critical"
)

// Predict scores one feature vector and attaches the interpretation bands.
func (a *Artifact) Predict(features []float64, patientID string) (Prediction, error) {
	p, err := a.Score(features)
	if err != nil {
		return Prediction{}, err
	}
	label := 0
	if p >= 0.5 {
		label = 1
	}
	return Prediction{
		PatientID:    patientID,
		Prediction:   label,
		Probability:  p,
		RiskLevel:    riskLevel(p),
		Confidence:   confidence(p),
		ModelVersion: a.ModelVersion,
	}, nil
}

func riskLevel(p float64) string {
	switch {
	case p < 0.40:
		return RiskLow
	case p < 0.65:
		return RiskModerate
	case p < 0.80:
		return RiskHigh
	default:
		return RiskCritical
	}
}

// confidence reflects distance from the decision boundary, not calibration.
func confidence(p float64) string {
	d := math.Abs(p - 0.5)
	switch {
	case d >= 0.30:
		return "high"
	case d >= 0.15:
		return "moderate"
	default:
		return "borderline"
	}
}
