package report

import (
	"cpseval/domain/scoring"
	"cpseval/internal/errors"

	"github.com/montanaflynn/stats"
)

// ModelAnalysis is the cross-threshold view of one model. It is only
// computed once every group of the model has finished.
type ModelAnalysis struct {
	Model string `json:"model"`

	OptimalThreshold scoring.Threshold `json:"optimal_threshold"`
	OptimalTCPS      float64           `json:"optimal_tcps"`

	MinTCPS  float64 `json:"min_tcps"`
	MaxTCPS  float64 `json:"max_tcps"`
	MeanTCPS float64 `json:"mean_tcps"`
	StdTCPS  float64 `json:"std_tcps"`

	BestCPSThreshold    scoring.Threshold `json:"best_cps_threshold"`
	BestCPSImprovement  float64           `json:"best_cps_improvement_pct"`
	BestTCPSThreshold   scoring.Threshold `json:"best_tcps_threshold"`
	BestTCPSImprovement float64           `json:"best_tcps_improvement_pct"`
	// Alignment is ALIGNED when the best CPS and T-CPS thresholds agree,
	// NotAvailable when no threshold was compared against the baseline.
	Alignment string `json:"alignment"`

	SignificantThresholds int `json:"significant_thresholds"`
	// ScoredThresholds counts thresholds compared against the baseline;
	// Thresholds counts every threshold with a T-CPS summary.
	ScoredThresholds int `json:"scored_thresholds"`
	Thresholds       int `json:"thresholds"`
}

const (
	Aligned   = "ALIGNED"
	Different = "DIFFERENT"
)

// AnalyzeModel summarises the rows of model. The optimal threshold and the
// T-CPS spread use every row with a T-CPS summary, the improvement and
// significance fields only rows compared against the baseline. Ties keep
// the first row. A model with no summarised rows is insufficient data.
func AnalyzeModel(rows []Row, model string) (ModelAnalysis, error) {
	var described []Row
	for _, r := range rows {
		if r.Model == model && r.Described() {
			described = append(described, r)
		}
	}
	if len(described) == 0 {
		return ModelAnalysis{}, errors.InsufficientDataf("model %q has no summarised thresholds", model)
	}

	out := ModelAnalysis{Model: model, Thresholds: len(described), Alignment: NotAvailable}
	tcps := make(stats.Float64Data, 0, len(described))

	best := described[0]
	var bestCPS, bestTCPS *Row
	for i, r := range described {
		tcps = append(tcps, r.TestTCPS)
		if r.TestTCPS > best.TestTCPS {
			best = r
		}
		if !r.Scored() {
			continue
		}
		out.ScoredThresholds++
		if bestCPS == nil || r.CPSImprovementPct > bestCPS.CPSImprovementPct {
			bestCPS = &described[i]
		}
		if bestTCPS == nil || r.TCPSImprovementPct > bestTCPS.TCPSImprovementPct {
			bestTCPS = &described[i]
		}
		if r.Significant {
			out.SignificantThresholds++
		}
	}

	out.OptimalThreshold = best.Threshold
	out.OptimalTCPS = best.TestTCPS
	out.MinTCPS, _ = stats.Min(tcps)
	out.MaxTCPS, _ = stats.Max(tcps)
	out.MeanTCPS, _ = stats.Mean(tcps)
	if len(tcps) > 1 {
		out.StdTCPS, _ = stats.StandardDeviationSample(tcps)
	}

	if bestCPS != nil {
		out.BestCPSThreshold = bestCPS.Threshold
		out.BestCPSImprovement = bestCPS.CPSImprovementPct
		out.BestTCPSThreshold = bestTCPS.Threshold
		out.BestTCPSImprovement = bestTCPS.TCPSImprovementPct
		out.Alignment = Different
		if bestCPS.Threshold.Equal(bestTCPS.Threshold) {
			out.Alignment = Aligned
		}
	}
	return out, nil
}

// AnalyzeModels runs AnalyzeModel for every model of the report that has
// at least one summarised row.
func (r *Report) AnalyzeModels() []ModelAnalysis {
	var out []ModelAnalysis
	for _, m := range r.Models() {
		a, err := AnalyzeModel(r.Rows, m)
		if err != nil {
			continue
		}
		out = append(out, a)
	}
	return out
}
