package postgres

import (
	"context"
	"log"

	"cpseval/internal/errors"
	"cpseval/ports"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// ledgerRepository implements ports.LedgerSubmitter on the ledger_entries table
type ledgerRepository struct {
	db *sqlx.DB
}

// NewLedgerRepository creates a ledger submitter backed by postgres
func NewLedgerRepository(db *sqlx.DB) ports.LedgerSubmitter {
	return &ledgerRepository{db: db}
}

// Submit appends entries in one transaction.
func (r *ledgerRepository) Submit(ctx context.Context, entries []ports.LedgerEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.WithCode(errors.CodeDatabaseError, err)
	}
	defer tx.Rollback()

	for _, e := range entries {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO ledger_entries (run_id, model, fields, payload) VALUES ($1, $2, $3, $4)`,
			e.RunID, e.Model, pq.Array(e.Fields), pq.Array(e.Payload))
		if err != nil {
			return errors.Wrapf(errors.WithCode(errors.CodeDatabaseError, err), "failed to submit ledger entry for %s", e.Model)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.WithCode(errors.CodeDatabaseError, err)
	}
	log.Printf("[LedgerRepository] Submitted %d entries", len(entries))
	return nil
}
