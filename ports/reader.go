package ports

import (
	"context"

	"cpseval/domain/scoring"
)

// RecordSource yields the metric records of one dataset. Implementations
// read files, directories or request bodies; the engine only sees records.
type RecordSource interface {
	Load(ctx context.Context) ([]scoring.MetricRecord, error)
	// Describe names the source for logs.
	Describe() string
}
