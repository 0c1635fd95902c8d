package core

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors - centralized error definitions
var (
	// Pre-flight errors
	ErrDataNotFound = errors.New("no dataset file located")

	// Semantics errors
	ErrTargetAmbiguous = errors.New("unable to uniquely determine target column")

	// Scoring errors
	ErrFeatureScoringSkipped = errors.New("feature scoring skipped")
	ErrDegenerateColumn      = errors.New("degenerate column")

	// Validation errors
	ErrInsufficientData = errors.New("insufficient data for stratified splitting")
	ErrPipelineNotFit   = errors.New("pipeline used before fitting")
	ErrModelNotFit      = errors.New("model used before fitting")

	// Artifact errors
	ErrArtifactNotFound = errors.New("model artifact not found")
	ErrFeatureMismatch  = errors.New("feature vector does not match artifact schema")
)

// NewTargetAmbiguousError reports every binary-looking candidate so the caller
// can rename the intended target instead of having one picked silently.
func NewTargetAmbiguousError(candidates []ColumnName) error {
	names := make([]string, len(candidates))
	for i, c := range candidates {
		names[i] = c.String()
	}
	return fmt.Errorf("%w. Candidates: %s. Rename your target to 'Diagnosis' or pass it explicitly",
		ErrTargetAmbiguous, strings.Join(names, ", "))
}

// NewDataNotFoundError lists the paths that were probed.
func NewDataNotFoundError(candidates []string) error {
	return fmt.Errorf("%w (tried: %s)", ErrDataNotFound, strings.Join(candidates, ", "))
}

// NewFeatureSkippedError wraps the per-feature reason; callers aggregate these
// away rather than surfacing them.
func NewFeatureSkippedError(column ColumnName, cause error) error {
	return fmt.Errorf("%w: %s: %v", ErrFeatureScoringSkipped, column, cause)
}

// Error checking helpers
func IsTargetAmbiguous(err error) bool {
	return errors.Is(err, ErrTargetAmbiguous)
}

func IsDataNotFound(err error) bool {
	return errors.Is(err, ErrDataNotFound)
}

func IsFeatureSkipped(err error) bool {
	return errors.Is(err, ErrFeatureScoringSkipped)
}
