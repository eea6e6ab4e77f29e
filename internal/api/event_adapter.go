package api

import (
	"log"

	"cpseval/internal/analysis"
)

// loggingSink wraps a ProgressSink and logs every tenth event of a run.
type loggingSink struct {
	next analysis.ProgressSink
}

// NewLoggingSink adapts next so that progress also reaches the server log.
func NewLoggingSink(next analysis.ProgressSink) analysis.ProgressSink {
	return loggingSink{next: next}
}

func (s loggingSink) Publish(event analysis.ProgressEvent) {
	if event.Done == event.Total || event.Seq%10 == 0 {
		log.Printf("[Progress] Run %s %s %d/%d (%s: %s)",
			event.RunID, event.Phase, event.Done, event.Total, event.Group, event.Status)
	}
	if s.next != nil {
		s.next.Publish(event)
	}
}
