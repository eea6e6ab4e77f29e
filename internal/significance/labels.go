package significance

import "math"

// SignificanceLevel returns the star label for p.
func SignificanceLevel(p float64) string {
	switch {
	case p < 0.001:
		return "***"
	case p < 0.01:
		return "**"
	case p < 0.05:
		return "*"
	default:
		return "ns"
	}
}

// PInterpretation returns the p-value bucket used in reports.
func PInterpretation(p float64) string {
	switch {
	case p < 0.001:
		return "p < 0.001"
	case p < 0.01:
		return "p < 0.01"
	case p < 0.05:
		return "p < 0.05"
	default:
		return "p > 0.05"
	}
}

// EffectSize labels |d| using Cohen's conventional cutoffs.
func EffectSize(d float64) string {
	d = math.Abs(d)
	switch {
	case d >= 0.8:
		return "large"
	case d >= 0.5:
		return "medium"
	case d >= 0.2:
		return "small"
	default:
		return "negligible"
	}
}
