package memory

import (
	"context"
	"log"
	"sync"

	"cpseval/ports"
)

// Ledger records submitted entries in memory.
type Ledger struct {
	mu      sync.Mutex
	entries []ports.LedgerEntry
}

// NewLedger creates an empty in-memory ledger
func NewLedger() *Ledger {
	return &Ledger{}
}

var _ ports.LedgerSubmitter = (*Ledger)(nil)

func (l *Ledger) Submit(ctx context.Context, entries []ports.LedgerEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entries...)
	log.Printf("[Ledger] Recorded %d entries (total %d)", len(entries), len(l.entries))
	return nil
}

// Entries returns a copy of everything submitted so far.
func (l *Ledger) Entries() []ports.LedgerEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]ports.LedgerEntry, len(l.entries))
	copy(out, l.entries)
	return out
}
