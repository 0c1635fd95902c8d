package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"clinaudit/domain/core"
	"clinaudit/internal/config"
	"clinaudit/internal/predictor"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	dir := t.TempDir()

	artifact := &predictor.Artifact{
		ModelName:    "clinical_risk_model",
		ModelVersion: "1.0.0",
		Family:       "logistic_regression",
		FeatureNames: []string{"Age", "MMSE"},
		Means:        []float64{70, 20},
		Stds:         []float64{10, 5},
		Weights:      []float64{1, 0},
		TrainedAt:    core.Now(),
	}
	artifactPath := filepath.Join(dir, "risk_model.json")
	if err := artifact.Save(artifactPath); err != nil {
		t.Fatalf("Save artifact failed: %v", err)
	}

	summaryPath := filepath.Join(dir, "run_summary.md")
	if err := os.WriteFile(summaryPath, []byte("# Model Validation Audit\n\nNo flags.\n"), 0644); err != nil {
		t.Fatalf("write summary failed: %v", err)
	}

	srv, err := NewServer(config.ServerConfig{
		Port:         "0",
		GinMode:      "test",
		ArtifactPath: artifactPath,
	}, summaryPath)
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	return srv
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body failed: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	srv := testServer(t)
	w := doJSON(t, srv, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if body["status"] != "healthy" || body["model_version"] != "1.0.0" {
		t.Errorf("unexpected body: %v", body)
	}
}

func TestFeatures(t *testing.T) {
	srv := testServer(t)
	w := doJSON(t, srv, http.MethodGet, "/features", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var body struct {
		FeatureNames []string `json:"feature_names"`
		NumFeatures  int      `json:"num_features"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if body.NumFeatures != 2 || len(body.FeatureNames) != 2 {
		t.Errorf("unexpected schema: %+v", body)
	}
}

func TestPredict(t *testing.T) {
	srv := testServer(t)
	w := doJSON(t, srv, http.MethodPost, "/predict", PredictRequest{
		PatientID: "p-1",
		Features:  []float64{90, 20},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", w.Code, w.Body.String())
	}
	var pred predictor.Prediction
	if err := json.Unmarshal(w.Body.Bytes(), &pred); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if pred.Prediction != 1 || pred.RiskLevel != predictor.RiskCritical {
		t.Errorf("unexpected prediction: %+v", pred)
	}
	if pred.PatientID != "p-1" {
		t.Errorf("patient id lost: %+v", pred)
	}
}

func TestPredict_MissingFeaturesIsBadRequest(t *testing.T) {
	srv := testServer(t)
	w := doJSON(t, srv, http.MethodPost, "/predict", map[string]any{"patient_id": "p-1"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestPredict_WrongWidthIsUnprocessable(t *testing.T) {
	srv := testServer(t)
	w := doJSON(t, srv, http.MethodPost, "/predict", PredictRequest{
		Features: []float64{90},
	})
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422 (body: %s)", w.Code, w.Body.String())
	}
}

func TestBatchPredict(t *testing.T) {
	srv := testServer(t)
	w := doJSON(t, srv, http.MethodPost, "/predict/batch", BatchPredictRequest{
		Items: []PredictRequest{
			{PatientID: "a", Features: []float64{90, 20}},
			{PatientID: "b", Features: []float64{90}}, // wrong width
		},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", w.Code, w.Body.String())
	}
	var body struct {
		Results []BatchItemResult `json:"results"`
		Count   int               `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if body.Count != 2 {
		t.Fatalf("count = %d, want 2", body.Count)
	}
	if body.Results[0].Prediction == nil || body.Results[0].Error != "" {
		t.Errorf("item 0 should succeed: %+v", body.Results[0])
	}
	if body.Results[1].Prediction != nil || body.Results[1].Error == "" {
		t.Errorf("item 1 should carry a per-item error: %+v", body.Results[1])
	}
}

func TestBatchPredict_CapEnforced(t *testing.T) {
	srv := testServer(t)
	items := make([]PredictRequest, maxBatchSize+1)
	for i := range items {
		items[i] = PredictRequest{Features: []float64{70, 20}}
	}
	w := doJSON(t, srv, http.MethodPost, "/predict/batch", BatchPredictRequest{Items: items})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestAuditReport_RendersMarkdown(t *testing.T) {
	srv := testServer(t)
	w := doJSON(t, srv, http.MethodGet, "/audit/report", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if got := w.Body.String(); !bytes.Contains([]byte(got), []byte("<h1")) {
		t.Errorf("expected rendered HTML heading, got %q", got)
	}
}

func TestAuditReport_NotFoundWithoutRun(t *testing.T) {
	srv := testServer(t)
	srv.summaryPath = filepath.Join(t.TempDir(), "missing.md")
	w := doJSON(t, srv, http.MethodGet, "/audit/report", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestNewServer_MissingArtifact(t *testing.T) {
	_, err := NewServer(config.ServerConfig{
		GinMode:      "test",
		ArtifactPath: filepath.Join(t.TempDir(), "missing.json"),
	}, "")
	if !errors.Is(err, core.ErrArtifactNotFound) {
		t.Errorf("expected ErrArtifactNotFound, got %v", err)
	}
}
