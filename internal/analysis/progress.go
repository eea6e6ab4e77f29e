package analysis

import (
	"time"

	"cpseval/domain/core"
	"cpseval/domain/scoring"
)

// Phase names the stage a progress event belongs to.
type Phase string

const (
	PhaseScoring    Phase = "scoring"
	PhaseComparison Phase = "comparison"
)

// ProgressEvent reports that one group finished a phase.
type ProgressEvent struct {
	Seq       int64               `json:"seq"`
	RunID     core.RunID          `json:"run_id"`
	Phase     Phase               `json:"phase"`
	Group     scoring.GroupKey    `json:"group"`
	Status    scoring.GroupStatus `json:"status"`
	Done      int                 `json:"done"`
	Total     int                 `json:"total"`
	Timestamp time.Time           `json:"timestamp"`
}

// ProgressSink receives progress events. Implementations must be safe for
// concurrent use; events may arrive out of Seq order.
type ProgressSink interface {
	Publish(event ProgressEvent)
}

// ProgressFunc adapts a function to ProgressSink.
type ProgressFunc func(ProgressEvent)

func (f ProgressFunc) Publish(event ProgressEvent) { f(event) }
