// Package memory holds process-local stand-ins for the postgres adapters,
// used when no DATABASE_URL is configured and in tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"cpseval/domain/core"
	"cpseval/internal/errors"
	"cpseval/internal/report"
	"cpseval/ports"
)

// ReportRepository keeps reports in a map guarded by a RWMutex.
type ReportRepository struct {
	mu      sync.RWMutex
	reports map[core.RunID]*report.Report
}

// NewReportRepository creates an empty in-memory report store
func NewReportRepository() *ReportRepository {
	return &ReportRepository{reports: make(map[core.RunID]*report.Report)}
}

var _ ports.ReportRepository = (*ReportRepository)(nil)

func (r *ReportRepository) Save(ctx context.Context, rep *report.Report) error {
	if rep == nil || rep.RunID == "" {
		return errors.InvalidInput("report has no run id")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports[rep.RunID] = rep
	return nil
}

func (r *ReportRepository) GetByRunID(ctx context.Context, runID core.RunID) (*report.Report, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rep, ok := r.reports[runID]
	if !ok {
		return nil, errors.NotFound("report " + runID.String())
	}
	return rep, nil
}

// List returns summaries newest first.
func (r *ReportRepository) List(ctx context.Context, limit, offset int) ([]ports.ReportSummary, error) {
	r.mu.RLock()
	out := make([]ports.ReportSummary, 0, len(r.reports))
	for _, rep := range r.reports {
		out = append(out, ports.ReportSummary{
			RunID:       rep.RunID,
			CreatedAt:   rep.CreatedAt,
			SchemaHash:  rep.SchemaHash,
			DatasetHash: rep.DatasetHash,
			Rows:        len(rep.Rows),
		})
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].RunID < out[j].RunID
	})
	if limit <= 0 {
		limit = 50
	}
	if offset >= len(out) {
		return []ports.ReportSummary{}, nil
	}
	end := offset + limit
	if end > len(out) {
		end = len(out)
	}
	return out[offset:end], nil
}
