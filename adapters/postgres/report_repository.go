package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"time"

	"cpseval/domain/core"
	"cpseval/domain/scoring"
	"cpseval/internal/errors"
	"cpseval/internal/report"
	"cpseval/ports"

	"github.com/jmoiron/sqlx"
)

// reportRepository implements the ReportRepository interface
type reportRepository struct {
	db *sqlx.DB
}

// NewReportRepository creates a new report repository
func NewReportRepository(db *sqlx.DB) ports.ReportRepository {
	return &reportRepository{db: db}
}

// runRecord is the analysis_runs row of a report.
type runRecord struct {
	RunID       core.RunID       `db:"run_id"`
	CreatedAt   time.Time        `db:"created_at"`
	SchemaHash  core.SchemaHash  `db:"schema_hash"`
	DatasetHash core.DatasetHash `db:"dataset_hash"`
	Baseline    string           `db:"baseline"`
	Weighting   string           `db:"weighting"`
	Alignment   string           `db:"alignment"`
	Alpha       float64          `db:"alpha"`
	Beta        float64          `db:"beta"`
	Warnings    []byte           `db:"warnings"`
}

// rowRecord binds a report row to its run for named inserts.
type rowRecord struct {
	RunID core.RunID `db:"run_id"`
	report.Row
}

const rowColumns = `model, threshold, status, error, n, test_mean_cps, test_tcps, cv,
	cps_improvement_pct, tcps_improvement_pct, se, t_statistic, df, p_value, p_interp,
	cohens_d, interpretation, effect_size, ci_lower, ci_upper, significant, significance`

// Save stores the run and all of its rows in one transaction.
func (r *reportRepository) Save(ctx context.Context, rep *report.Report) error {
	warnings, err := json.Marshal(rep.Warnings)
	if err != nil {
		return errors.Wrap(err, "failed to marshal warnings")
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.WithCode(errors.CodeDatabaseError, err)
	}
	defer tx.Rollback()

	_, err = tx.NamedExecContext(ctx, `INSERT INTO analysis_runs (
		run_id, created_at, schema_hash, dataset_hash, baseline, weighting, alignment, alpha, beta, warnings
	) VALUES (
		:run_id, :created_at, :schema_hash, :dataset_hash, :baseline, :weighting, :alignment, :alpha, :beta, :warnings
	)`, runRecord{
		RunID:       rep.RunID,
		CreatedAt:   rep.CreatedAt,
		SchemaHash:  rep.SchemaHash,
		DatasetHash: rep.DatasetHash,
		Baseline:    rep.Baseline,
		Weighting:   rep.Weighting,
		Alignment:   rep.Alignment,
		Alpha:       rep.Alpha,
		Beta:        rep.Beta,
		Warnings:    warnings,
	})
	if err != nil {
		return errors.Wrapf(errors.WithCode(errors.CodeDatabaseError, err), "failed to insert run %s", rep.RunID)
	}

	for _, row := range rep.Rows {
		_, err := tx.NamedExecContext(ctx, `INSERT INTO report_rows (run_id, `+rowColumns+`) VALUES (
			:run_id, :model, :threshold, :status, :error, :n, :test_mean_cps, :test_tcps, :cv,
			:cps_improvement_pct, :tcps_improvement_pct, :se, :t_statistic, :df, :p_value, :p_interp,
			:cohens_d, :interpretation, :effect_size, :ci_lower, :ci_upper, :significant, :significance
		)`, rowRecord{RunID: rep.RunID, Row: row})
		if err != nil {
			return errors.Wrapf(errors.WithCode(errors.CodeDatabaseError, err), "failed to insert row %s @ %s", row.Model, row.Threshold)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.WithCode(errors.CodeDatabaseError, err)
	}
	log.Printf("[ReportRepository] Saved run %s (%d rows)", rep.RunID, len(rep.Rows))
	return nil
}

// GetByRunID loads a stored report with its rows in report order.
func (r *reportRepository) GetByRunID(ctx context.Context, runID core.RunID) (*report.Report, error) {
	var run runRecord
	err := r.db.GetContext(ctx, &run, `SELECT
		run_id, created_at, schema_hash, dataset_hash, baseline, weighting, alignment, alpha, beta,
		COALESCE(warnings, 'null'::jsonb) AS warnings
	FROM analysis_runs WHERE run_id = $1`, runID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFound("report " + runID.String())
		}
		return nil, errors.Wrap(errors.WithCode(errors.CodeDatabaseError, err), "failed to get run")
	}

	rep := &report.Report{Meta: report.Meta{
		RunID:       run.RunID,
		CreatedAt:   run.CreatedAt,
		SchemaHash:  run.SchemaHash,
		DatasetHash: run.DatasetHash,
		Baseline:    run.Baseline,
		Weighting:   run.Weighting,
		Alignment:   run.Alignment,
		Alpha:       run.Alpha,
		Beta:        run.Beta,
	}}
	if len(run.Warnings) > 0 {
		var warnings []scoring.Warning
		if err := json.Unmarshal(run.Warnings, &warnings); err != nil {
			return nil, errors.Wrap(err, "failed to unmarshal warnings")
		}
		rep.Warnings = warnings
	}

	err = r.db.SelectContext(ctx, &rep.Rows, `SELECT `+rowColumns+`
	FROM report_rows WHERE run_id = $1
	ORDER BY model, threshold`, runID)
	if err != nil {
		return nil, errors.Wrap(errors.WithCode(errors.CodeDatabaseError, err), "failed to get report rows")
	}
	return rep, nil
}

// List returns stored runs, newest first.
func (r *reportRepository) List(ctx context.Context, limit, offset int) ([]ports.ReportSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	var out []ports.ReportSummary
	err := r.db.SelectContext(ctx, &out, `SELECT
		a.run_id, a.created_at, a.schema_hash, a.dataset_hash,
		(SELECT COUNT(*) FROM report_rows r WHERE r.run_id = a.run_id) AS row_count
	FROM analysis_runs a
	ORDER BY a.created_at DESC
	LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, errors.Wrap(errors.WithCode(errors.CodeDatabaseError, err), "failed to list runs")
	}
	return out, nil
}
