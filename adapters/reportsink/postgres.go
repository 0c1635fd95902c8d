package reportsink

import (
	"context"
	"encoding/json"
	"fmt"

	"clinaudit/domain/core"
	"clinaudit/internal/errors"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

const reportsSchema = `
CREATE TABLE IF NOT EXISTS audit_reports (
	report_name TEXT PRIMARY KEY,
	run_id      TEXT NOT NULL,
	payload     JSONB NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS audit_summaries (
	run_id     TEXT PRIMARY KEY,
	summary_md TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`

// PostgresSink upserts report payloads into Postgres, one row per report
// name, so the table always reflects the latest run.
type PostgresSink struct {
	db    *sqlx.DB
	runID core.RunID
}

// OpenPostgresSink connects to the database, ensures the schema, and returns
// a sink bound to the given run.
func OpenPostgresSink(url string, runID core.RunID) (*PostgresSink, error) {
	db, err := sqlx.Connect("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect report database: %w", err)
	}
	if _, err := db.Exec(reportsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure report schema: %w", err)
	}
	return &PostgresSink{db: db, runID: runID}, nil
}

// WriteReport upserts a report payload keyed by report name.
func (s *PostgresSink) WriteReport(ctx context.Context, name core.ReportName, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrapf(err, "failed to marshal report %s", name)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO audit_reports (report_name, run_id, payload, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (report_name)
		DO UPDATE SET run_id = EXCLUDED.run_id, payload = EXCLUDED.payload, updated_at = now()`,
		name.String(), s.runID.String(), data)
	if err != nil {
		return errors.WithCode(errors.CodeSinkError,
			fmt.Errorf("failed to upsert report %s: %w", name, err))
	}
	return nil
}

// WriteSummary stores the markdown run summary keyed by run id.
func (s *PostgresSink) WriteSummary(ctx context.Context, markdown string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_summaries (run_id, summary_md)
		VALUES ($1, $2)
		ON CONFLICT (run_id) DO UPDATE SET summary_md = EXCLUDED.summary_md`,
		s.runID.String(), markdown)
	if err != nil {
		return errors.WithCode(errors.CodeSinkError,
			fmt.Errorf("failed to store run summary: %w", err))
	}
	return nil
}

// Close releases the database connection.
func (s *PostgresSink) Close() error {
	return s.db.Close()
}
