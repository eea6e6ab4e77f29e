package ports

import (
	"context"

	"cpseval/domain/core"
)

// LedgerEntry is one report row flattened for an external results ledger.
type LedgerEntry struct {
	RunID   core.RunID
	Model   string
	Fields  []string  // Names of Payload entries, in order
	Payload []float64 // Fixed-order numeric vector
}

// LedgerSubmitter hands finished report rows to an external ledger. It is
// write-only; nothing in the engine reads entries back.
type LedgerSubmitter interface {
	Submit(ctx context.Context, entries []LedgerEntry) error
}
