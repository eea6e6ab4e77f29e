// Package normalize maps raw metric values onto [0,1] using a dataset-wide
// min/max reference frame and the metric's polarity.
package normalize

import (
	"math"

	"cpseval/domain/scoring"
	"cpseval/internal/errors"
	"cpseval/internal/schema"
)

// Normalizer is a pure function of a value and a frozen GlobalStats snapshot.
type Normalizer struct {
	schema *schema.Schema
	stats  scoring.GlobalStats
}

// New builds a Normalizer. Every schema metric must have a range in stats.
func New(s *schema.Schema, global scoring.GlobalStats) (*Normalizer, error) {
	frozen := make(scoring.GlobalStats, len(global))
	for _, metric := range s.Names() {
		r, ok := global[metric]
		if !ok {
			return nil, errors.ConfigInvalidf("global stats missing metric %q", metric)
		}
		if r.Min > r.Max {
			return nil, errors.ConfigInvalidf("global stats for %q have min %v > max %v", metric, r.Min, r.Max)
		}
		frozen[metric] = r
	}
	return &Normalizer{schema: s, stats: frozen}, nil
}

// Stats returns a copy of the reference frame.
func (n *Normalizer) Stats() scoring.GlobalStats {
	out := make(scoring.GlobalStats, len(n.stats))
	for k, v := range n.stats {
		out[k] = v
	}
	return out
}

// Normalize maps value into [0,1].
//   - unknown metric: configuration error
//   - NaN: 0.0 (worst case)
//   - max == min: 1.0
//   - otherwise the polarity-aware min/max scaling, clamped to [0,1]
func (n *Normalizer) Normalize(value float64, metric string) (float64, error) {
	polarity, ok := n.schema.Polarity(metric)
	if !ok {
		return 0, errors.ConfigInvalidf("metric %q is not part of the schema", metric)
	}
	r := n.stats[metric]

	if math.IsNaN(value) {
		return 0, nil
	}
	if r.Degenerate() {
		return 1, nil
	}

	span := r.Max - r.Min
	var normalized float64
	if polarity == scoring.HigherIsBetter {
		normalized = (value - r.Min) / span
	} else {
		normalized = (r.Max - value) / span
	}
	return clamp01(normalized), nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
