package reportsink

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"clinaudit/domain/core"
	"clinaudit/internal/errors"
)

// FileSink writes each report as pretty-printed JSON under a base directory,
// truncating any previous run's file for the same report name.
type FileSink struct {
	BaseDir string
}

// NewFileSink creates a file sink rooted at baseDir.
func NewFileSink(baseDir string) *FileSink {
	return &FileSink{BaseDir: baseDir}
}

// EnsureBaseDir creates the base directory if it doesn't exist.
func (s *FileSink) EnsureBaseDir() error {
	return os.MkdirAll(s.BaseDir, 0755)
}

// WriteReport persists one report payload as <name>.json.
func (s *FileSink) WriteReport(_ context.Context, name core.ReportName, payload any) error {
	if err := s.EnsureBaseDir(); err != nil {
		return errors.WithCode(errors.CodeSinkError,
			fmt.Errorf("failed to create reports directory: %w", err))
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "failed to marshal report %s", name)
	}

	path := filepath.Join(s.BaseDir, name.String()+".json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.WithCode(errors.CodeSinkError,
			fmt.Errorf("failed to write report file: %w", err))
	}
	return nil
}

// WriteSummary persists the markdown run summary alongside the reports.
func (s *FileSink) WriteSummary(_ context.Context, markdown string) error {
	if err := s.EnsureBaseDir(); err != nil {
		return errors.WithCode(errors.CodeSinkError,
			fmt.Errorf("failed to create reports directory: %w", err))
	}
	path := filepath.Join(s.BaseDir, "run_summary.md")
	if err := os.WriteFile(path, []byte(markdown), 0644); err != nil {
		return errors.WithCode(errors.CodeSinkError,
			fmt.Errorf("failed to write run summary: %w", err))
	}
	return nil
}

// SummaryPath returns where the markdown run summary lives.
func (s *FileSink) SummaryPath() string {
	return filepath.Join(s.BaseDir, "run_summary.md")
}
