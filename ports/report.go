package ports

import (
	"context"

	"clinaudit/domain/core"
)

// ReportSink persists structured audit results to durable storage. Each
// report name is fully overwritten per run; reports are never versioned.
type ReportSink interface {
	// WriteReport persists one named JSON-serializable payload.
	WriteReport(ctx context.Context, name core.ReportName, payload any) error
	// WriteSummary persists the human-readable markdown run summary.
	WriteSummary(ctx context.Context, markdown string) error
}
