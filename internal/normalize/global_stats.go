package normalize

import (
	"fmt"
	"math"

	"cpseval/domain/scoring"
	"cpseval/internal/schema"

	"github.com/montanaflynn/stats"
)

// CollectGlobalStats computes the per-metric min/max over exactly the given
// records. NaN and infinite values are ignored. A schema metric with no
// observations gets the range [0,1] with Count 0, so every value of it
// normalizes as missing, and a METRIC_ABSENT warning is returned.
func CollectGlobalStats(records []scoring.MetricRecord, s *schema.Schema) (scoring.GlobalStats, []scoring.Warning) {
	global := make(scoring.GlobalStats, s.Len())
	var warnings []scoring.Warning

	for _, metric := range s.Names() {
		values := make(stats.Float64Data, 0, len(records))
		for _, r := range records {
			v := r.Value(metric)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			values = append(values, v)
		}

		if len(values) == 0 {
			global[metric] = scoring.MetricRange{Min: 0, Max: 1, Count: 0}
			warnings = append(warnings, scoring.Warning{
				Code:    scoring.WarningMetricAbsent,
				Message: fmt.Sprintf("metric %q has no observations; every value scores as missing (0.0)", metric),
			})
			continue
		}

		// Min and Max only fail on empty input, which is excluded above.
		minVal, _ := stats.Min(values)
		maxVal, _ := stats.Max(values)
		global[metric] = scoring.MetricRange{Min: minVal, Max: maxVal, Count: len(values)}
	}

	return global, warnings
}
