package migration

import (
	"context"

	"cpseval/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner handles database schema migrations
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in the correct order. Every step
// is idempotent.
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createAnalysisRunsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create analysis_runs table")
	}

	if err := r.createReportRowsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create report_rows table")
	}

	if err := r.createLedgerEntriesTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create ledger_entries table")
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create indexes")
	}

	return nil
}

func (r *MigrationRunner) createAnalysisRunsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS analysis_runs (
			run_id UUID PRIMARY KEY,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
			schema_hash VARCHAR(64) NOT NULL,
			dataset_hash VARCHAR(64) NOT NULL,
			baseline VARCHAR(32) NOT NULL,
			weighting VARCHAR(32) NOT NULL,
			alignment VARCHAR(32) NOT NULL,
			alpha DOUBLE PRECISION NOT NULL,
			beta DOUBLE PRECISION NOT NULL,
			warnings JSONB
		)
	`)
	return err
}

func (r *MigrationRunner) createReportRowsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS report_rows (
			run_id UUID NOT NULL REFERENCES analysis_runs(run_id) ON DELETE CASCADE,
			model VARCHAR(255) NOT NULL,
			threshold DOUBLE PRECISION NOT NULL,
			status VARCHAR(32) NOT NULL,
			error TEXT NOT NULL DEFAULT '',
			n INTEGER NOT NULL,
			test_mean_cps DOUBLE PRECISION NOT NULL,
			test_tcps DOUBLE PRECISION NOT NULL,
			cv DOUBLE PRECISION NOT NULL,
			cps_improvement_pct DOUBLE PRECISION NOT NULL,
			tcps_improvement_pct DOUBLE PRECISION NOT NULL,
			se DOUBLE PRECISION NOT NULL,
			t_statistic DOUBLE PRECISION NOT NULL,
			df INTEGER NOT NULL,
			p_value DOUBLE PRECISION NOT NULL,
			p_interp VARCHAR(16) NOT NULL,
			cohens_d DOUBLE PRECISION NOT NULL,
			interpretation VARCHAR(64) NOT NULL,
			effect_size VARCHAR(16) NOT NULL,
			ci_lower DOUBLE PRECISION NOT NULL,
			ci_upper DOUBLE PRECISION NOT NULL,
			significant BOOLEAN NOT NULL,
			significance VARCHAR(8) NOT NULL,
			PRIMARY KEY (run_id, model, threshold)
		)
	`)
	return err
}

func (r *MigrationRunner) createLedgerEntriesTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS ledger_entries (
			id BIGSERIAL PRIMARY KEY,
			run_id UUID NOT NULL,
			model VARCHAR(255) NOT NULL,
			fields TEXT[] NOT NULL,
			payload DOUBLE PRECISION[] NOT NULL,
			submitted_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)
	`)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_runs_created_at ON analysis_runs(created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_runs_dataset_hash ON analysis_runs(dataset_hash)",
		"CREATE INDEX IF NOT EXISTS idx_rows_model ON report_rows(model)",
		"CREATE INDEX IF NOT EXISTS idx_ledger_run_id ON ledger_entries(run_id)",
	}

	for _, index := range indexes {
		if _, err := db.ExecContext(ctx, index); err != nil {
			return err
		}
	}
	return nil
}
