package reportsink

import (
	"context"

	"clinaudit/domain/core"
	"clinaudit/ports"
)

// MultiSink fans every write out to all child sinks. The first error stops
// the fan-out; earlier sinks keep what was already written.
type MultiSink struct {
	sinks []ports.ReportSink
}

// NewMultiSink combines sinks into one.
func NewMultiSink(sinks ...ports.ReportSink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

func (m *MultiSink) WriteReport(ctx context.Context, name core.ReportName, payload any) error {
	for _, s := range m.sinks {
		if err := s.WriteReport(ctx, name, payload); err != nil {
			return err
		}
	}
	return nil
}

func (m *MultiSink) WriteSummary(ctx context.Context, markdown string) error {
	for _, s := range m.sinks {
		if err := s.WriteSummary(ctx, markdown); err != nil {
			return err
		}
	}
	return nil
}
