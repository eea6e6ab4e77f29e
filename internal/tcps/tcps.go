// Package tcps aggregates the CPS values of one (model, threshold) group
// into the Threshold-aware Composite Performance Score:
//
//	T-CPS = mean * (1 + alpha * max(0, 1 - CV)) - beta * CV^2
//
// T-CPS describes a group. It is not a per-item statistic and is never
// tested for significance.
package tcps

import (
	"math"

	"cpseval/domain/scoring"
	"cpseval/internal/errors"

	"github.com/montanaflynn/stats"
)

const (
	DefaultAlpha = 0.1
	DefaultBeta  = 0.05
)

// Params are the stability bonus (Alpha) and dispersion penalty (Beta).
type Params struct {
	Alpha float64 `json:"alpha"`
	Beta  float64 `json:"beta"`
}

// DefaultParams returns alpha 0.1, beta 0.05.
func DefaultParams() Params {
	return Params{Alpha: DefaultAlpha, Beta: DefaultBeta}
}

// Validate rejects non-finite or negative parameters.
func (p Params) Validate() error {
	for name, v := range map[string]float64{"alpha": p.Alpha, "beta": p.Beta} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return errors.ConfigInvalidf("T-CPS %s must be a finite non-negative number, got %v", name, v)
		}
	}
	return nil
}

// Aggregate summarises cpsValues. An empty slice is insufficient data; a
// single value yields std 0, CV 0 and T-CPS equal to that value.
func Aggregate(cpsValues []float64, p Params) (scoring.ThresholdSummary, error) {
	if len(cpsValues) == 0 {
		return scoring.ThresholdSummary{}, errors.InsufficientData("cannot aggregate an empty CPS group")
	}

	data := stats.Float64Data(cpsValues)
	mean, err := stats.Mean(data)
	if err != nil {
		return scoring.ThresholdSummary{}, errors.Wrap(err, "mean of CPS group")
	}
	minVal, _ := stats.Min(data)
	maxVal, _ := stats.Max(data)

	summary := scoring.ThresholdSummary{
		N:       len(cpsValues),
		MeanCPS: mean,
		MinCPS:  minVal,
		MaxCPS:  maxVal,
	}

	if len(cpsValues) == 1 {
		summary.TCPS = mean
		return summary, nil
	}

	std, err := stats.StandardDeviationSample(data)
	if err != nil {
		return scoring.ThresholdSummary{}, errors.Wrap(err, "standard deviation of CPS group")
	}
	summary.StdCPS = std

	if mean != 0 {
		summary.CV = std / mean
	}
	summary.ConsistencyFactor = math.Max(0, 1-summary.CV)
	summary.VariancePenalty = summary.CV * summary.CV
	summary.TCPS = mean*(1+p.Alpha*summary.ConsistencyFactor) - p.Beta*summary.VariancePenalty

	return summary, nil
}

// ImprovementPct is the relative change of test over base in percent,
// 0 when base is 0.
func ImprovementPct(base, test float64) float64 {
	if base == 0 {
		return 0
	}
	return (test - base) / base * 100
}
