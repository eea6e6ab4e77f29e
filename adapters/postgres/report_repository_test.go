package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"cpseval/domain/core"
	"cpseval/domain/scoring"
	"cpseval/internal/errors"
	"cpseval/internal/migration"
	"cpseval/internal/report"
	"cpseval/ports"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDB(t *testing.T) *sqlx.DB {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	db, err := sqlx.Connect("postgres", url)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, migration.NewRunner().Run(context.Background(), db))
	return db
}

func sampleReport() *report.Report {
	return &report.Report{
		Meta: report.Meta{
			RunID:       core.NewRunID(),
			CreatedAt:   time.Now().UTC().Truncate(time.Millisecond),
			SchemaHash:  core.SchemaHash(core.NewHash([]byte("schema"))),
			DatasetHash: core.DatasetHash(core.NewHash([]byte("dataset"))),
			Baseline:    "0.01",
			Weighting:   "fixed",
			Alignment:   "prefix",
			Alpha:       0.15,
			Beta:        0.10,
		},
		Rows: []report.Row{
			{Model: "llama", Threshold: 0.5, Status: scoring.StatusOK, N: 4, TestMeanCPS: 0.5975,
				TStatistic: 5.56, DF: 3, PValue: 0.0115, PInterp: "p < 0.05", EffectSize: "large",
				Interpretation: "Large improvement", Significant: true, Significance: "*"},
			{Model: "llama", Threshold: 0.7, Status: scoring.StatusInsufficientData, Error: "1 sample"},
		},
		Warnings: []scoring.Warning{{Code: scoring.WarningMetricAbsent, Message: "BLEU has no observations"}},
	}
}

func TestReportRepository_SaveAndGet(t *testing.T) {
	db := testDB(t)
	repo := NewReportRepository(db)
	ctx := context.Background()

	rep := sampleReport()
	require.NoError(t, repo.Save(ctx, rep))

	got, err := repo.GetByRunID(ctx, rep.RunID)
	require.NoError(t, err)
	assert.Equal(t, rep.RunID, got.RunID)
	assert.Equal(t, rep.SchemaHash, got.SchemaHash)
	assert.Equal(t, rep.Rows, got.Rows)
	assert.Equal(t, rep.Warnings, got.Warnings)

	list, err := repo.List(ctx, 100, 0)
	require.NoError(t, err)
	var found *ports.ReportSummary
	for i := range list {
		if list[i].RunID == rep.RunID {
			found = &list[i]
		}
	}
	require.NotNil(t, found)
	assert.Equal(t, 2, found.Rows)
}

func TestReportRepository_GetMissingIsNotFound(t *testing.T) {
	db := testDB(t)
	_, err := NewReportRepository(db).GetByRunID(context.Background(), core.NewRunID())
	assert.True(t, errors.HasCode(err, errors.CodeNotFound))
}

func TestLedgerRepository_Submit(t *testing.T) {
	db := testDB(t)
	rep := sampleReport()
	entries := []ports.LedgerEntry{{
		RunID:   rep.RunID,
		Model:   "llama",
		Fields:  report.LedgerFields,
		Payload: report.LedgerPayload(rep.Rows[0]),
	}}
	require.NoError(t, NewLedgerRepository(db).Submit(context.Background(), entries))

	var count int
	require.NoError(t, db.Get(&count, `SELECT COUNT(*) FROM ledger_entries WHERE run_id = $1`, rep.RunID))
	assert.Equal(t, 1, count)
}
