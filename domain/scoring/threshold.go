package scoring

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Threshold is the retrieval similarity cut-off a group was evaluated at.
// Valid values lie in (0,1]; NoFiltering marks runs where no similarity
// filter was applied.
type Threshold float64

// NoFiltering is the reserved sentinel for "no similarity filtering".
const NoFiltering Threshold = 0

// IsNoFiltering reports whether t is the no-filtering sentinel.
func (t Threshold) IsNoFiltering() bool { return t == NoFiltering }

// Float returns the numeric value used by threshold-dependent weighting.
func (t Threshold) Float() float64 { return float64(t) }

// String renders the label used in report tables (two decimals, as the
// threshold directories are named).
func (t Threshold) String() string {
	if t.IsNoFiltering() {
		return "no_filtering"
	}
	return strconv.FormatFloat(float64(t), 'f', 2, 64)
}

// Equal compares thresholds after rounding to four decimals so that values
// parsed from "0.7" and "70" land in the same group.
func (t Threshold) Equal(o Threshold) bool {
	return math.Round(float64(t)*1e4) == math.Round(float64(o)*1e4)
}

// Key returns a stable grouping key for t.
func (t Threshold) Key() int64 {
	return int64(math.Round(float64(t) * 1e4))
}

var (
	decimalPattern = regexp.MustCompile(`(\d+\.\d+)`)
	integerPattern = regexp.MustCompile(`(\d+)$`)
)

// ParseThreshold accepts "0.75", "threshold_0.75", "75" (percent) and the
// no-filtering spellings "none", "no_filtering", "nofilter", "baseline_none".
func ParseThreshold(s string) (Threshold, error) {
	raw := strings.ToLower(strings.TrimSpace(s))
	switch raw {
	case "none", "no_filtering", "no-filtering", "nofilter", "no filtering", "baseline_none":
		return NoFiltering, nil
	case "":
		return 0, fmt.Errorf("empty threshold label")
	}

	for _, pattern := range []*regexp.Regexp{decimalPattern, integerPattern} {
		match := pattern.FindStringSubmatch(raw)
		if match == nil {
			continue
		}
		value, err := strconv.ParseFloat(match[1], 64)
		if err != nil {
			continue
		}
		if value > 1.0 {
			value /= 100.0
		}
		if value >= 0.01 && value <= 1.0 {
			return Threshold(value), nil
		}
	}
	return 0, fmt.Errorf("could not parse threshold from %q", s)
}
