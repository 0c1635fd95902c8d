package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to v4 if v7 fails
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types
type (
	// RunID identifies a single audit run.
	RunID ID
	// ColumnName is the name of a dataset column as it appears in the header.
	ColumnName string
	// ReportName is the stable name a report is persisted under.
	ReportName string
)

func (id RunID) String() string     { return ID(id).String() }
func (c ColumnName) String() string { return string(c) }
func (r ReportName) String() string { return string(r) }

// NewRunID creates a fresh run identifier.
func NewRunID() RunID {
	return RunID(NewID())
}

// ParseRunID parses a string into RunID
func ParseRunID(s string) (RunID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("run ID cannot be empty")
	}
	return RunID(s), nil
}

// The four report names every audit run persists.
const (
	ReportLeakageAudit    ReportName = "leakage_audit_report"
	ReportWithWithout     ReportName = "with_without_cognitive_metrics"
	ReportTemporalSite    ReportName = "temporal_site_validation"
	ReportNestedCVSummary ReportName = "nested_cv_summary"
)
