package analysis

import (
	"sync/atomic"
)

// SequenceManager hands out ordered sequence numbers for progress events
// emitted by concurrent group workers.
type SequenceManager struct {
	current int64
}

// NewSequenceManager creates a sequence manager whose first ID is 1.
func NewSequenceManager() *SequenceManager {
	return &SequenceManager{}
}

// Next returns a new, unique sequence number. Safe for concurrent use.
func (s *SequenceManager) Next() int64 {
	return atomic.AddInt64(&s.current, 1)
}

// GetCurrent returns the last issued number without incrementing.
func (s *SequenceManager) GetCurrent() int64 {
	return atomic.LoadInt64(&s.current)
}
