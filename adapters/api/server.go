package api

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"clinaudit/internal/config"
	"clinaudit/internal/predictor"

	"github.com/gin-gonic/gin"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// maxBatchSize caps a single batch request; larger cohorts go through
// repeated calls so one request cannot pin the server.
const maxBatchSize = 100

// Server serves predictions from a frozen model artifact alongside the
// latest audit run summary.
type Server struct {
	router      *gin.Engine
	artifact    *predictor.Artifact
	summaryPath string
	cfg         config.ServerConfig
}

// NewServer loads the model artifact and wires the routes.
func NewServer(cfg config.ServerConfig, summaryPath string) (*Server, error) {
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}
	artifact, err := predictor.Load(cfg.ArtifactPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load model artifact: %w", err)
	}
	log.Printf("[Server] loaded %s artifact %s (%d features)",
		artifact.Family, artifact.ModelVersion, artifact.NumFeatures())

	s := &Server{
		router:      gin.Default(),
		artifact:    artifact,
		summaryPath: summaryPath,
		cfg:         cfg,
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/features", s.handleFeatures)
	s.router.POST("/predict", s.handlePredict)
	s.router.POST("/predict/batch", s.handleBatchPredict)
	s.router.GET("/audit/report", s.handleAuditReport)
}

// Run blocks serving HTTP on the configured port.
func (s *Server) Run() error {
	addr := ":" + s.cfg.Port
	log.Printf("[Server] listening on %s", addr)
	return s.router.Run(addr)
}

// Router exposes the engine for httptest.
func (s *Server) Router() http.Handler { return s.router }

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":        "healthy",
		"model_name":    s.artifact.ModelName,
		"model_version": s.artifact.ModelVersion,
		"family":        s.artifact.Family,
	})
}

func (s *Server) handleFeatures(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"feature_names": s.artifact.FeatureNames,
		"num_features":  s.artifact.NumFeatures(),
		"model_version": s.artifact.ModelVersion,
	})
}

// PredictRequest is one feature vector in artifact schema order.
type PredictRequest struct {
	PatientID string    `json:"patient_id"`
	Features  []float64 `json:"features" binding:"required"`
}

// BatchPredictRequest scores multiple vectors in one call.
type BatchPredictRequest struct {
	Items []PredictRequest `json:"items" binding:"required,min=1"`
}

// BatchItemResult carries either a prediction or a per-item error; one bad
// vector does not fail the rest of the batch.
type BatchItemResult struct {
	Index      int                   `json:"index"`
	Prediction *predictor.Prediction `json:"prediction,omitempty"`
	Error      string                `json:"error,omitempty"`
}

func (s *Server) handlePredict(c *gin.Context) {
	var req PredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	pred, err := s.artifact.Predict(req.Features, req.PatientID)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, pred)
}

func (s *Server) handleBatchPredict(c *gin.Context) {
	var req BatchPredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.Items) > maxBatchSize {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("batch size %d exceeds limit of %d", len(req.Items), maxBatchSize),
		})
		return
	}

	results := make([]BatchItemResult, len(req.Items))
	for i, item := range req.Items {
		pred, err := s.artifact.Predict(item.Features, item.PatientID)
		if err != nil {
			results[i] = BatchItemResult{Index: i, Error: err.Error()}
			continue
		}
		p := pred
		results[i] = BatchItemResult{Index: i, Prediction: &p}
	}
	c.JSON(http.StatusOK, gin.H{"results": results, "count": len(results)})
}

// handleAuditReport renders the latest run summary markdown as HTML so the
// audit outcome is reviewable next to the model it gates.
func (s *Server) handleAuditReport(c *gin.Context) {
	raw, err := os.ReadFile(s.summaryPath)
	if err != nil {
		if os.IsNotExist(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no audit run summary found; run the audit first"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	rendered := markdown.ToHTML(raw, p, renderer)
	c.Data(http.StatusOK, "text/html; charset=utf-8", rendered)
}
