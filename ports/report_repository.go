package ports

import (
	"context"
	"time"

	"cpseval/domain/core"
	"cpseval/internal/report"
)

// ReportSummary is the list view of a stored report.
type ReportSummary struct {
	RunID       core.RunID       `json:"run_id" db:"run_id"`
	CreatedAt   time.Time        `json:"created_at" db:"created_at"`
	SchemaHash  core.SchemaHash  `json:"schema_hash" db:"schema_hash"`
	DatasetHash core.DatasetHash `json:"dataset_hash" db:"dataset_hash"`
	Rows        int              `json:"rows" db:"row_count"`
}

// ReportRepository persists finished reports.
type ReportRepository interface {
	Save(ctx context.Context, rep *report.Report) error
	GetByRunID(ctx context.Context, runID core.RunID) (*report.Report, error)
	List(ctx context.Context, limit, offset int) ([]ReportSummary, error)
}
