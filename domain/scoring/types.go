package scoring

import (
	"fmt"
	"math"
	"sort"
)

// ============================================================================
// METRIC METADATA
// ============================================================================

// Polarity is the direction of "better" for a metric.
type Polarity int

const (
	HigherIsBetter Polarity = 1
	LowerIsBetter  Polarity = -1
)

func (p Polarity) String() string {
	switch p {
	case HigherIsBetter:
		return "higher_is_better"
	case LowerIsBetter:
		return "lower_is_better"
	}
	return fmt.Sprintf("polarity(%d)", int(p))
}

// Valid reports whether p is one of the two defined polarities.
func (p Polarity) Valid() bool {
	return p == HigherIsBetter || p == LowerIsBetter
}

// ParsePolarity accepts +1/-1 and the textual names.
func ParsePolarity(s string) (Polarity, error) {
	switch s {
	case "1", "+1", "higher", "higher_is_better", "max":
		return HigherIsBetter, nil
	case "-1", "lower", "lower_is_better", "min":
		return LowerIsBetter, nil
	}
	return 0, fmt.Errorf("unknown polarity %q", s)
}

// Category tags a metric for threshold-dependent weight modulation.
type Category string

const (
	CategoryNone      Category = ""
	CategoryPrecision Category = "precision"
	CategoryRecall    Category = "recall"
	CategorySemantic  Category = "semantic"
	CategoryFluency   Category = "fluency"
)

// ============================================================================
// INPUT
// ============================================================================

// MetricRecord is one evaluated item as produced by upstream evaluation.
// Values may hold NaN for missing measurements.
type MetricRecord struct {
	Model      string             `json:"model"`
	Threshold  Threshold          `json:"threshold"`
	QuestionID int                `json:"question_id"`
	Values     map[string]float64 `json:"values"`
}

// Value returns the raw value for metric, NaN when absent.
func (r MetricRecord) Value(metric string) float64 {
	v, ok := r.Values[metric]
	if !ok {
		return math.NaN()
	}
	return v
}

// GroupKey identifies one (model, threshold) group.
type GroupKey struct {
	Model     string    `json:"model"`
	Threshold Threshold `json:"threshold"`
}

func (k GroupKey) String() string {
	return fmt.Sprintf("%s @ %s", k.Model, k.Threshold)
}

// ============================================================================
// NORMALIZATION REFERENCE FRAME
// ============================================================================

// MetricRange is the observed spread of one metric over a dataset.
type MetricRange struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Count int     `json:"count"` // Non-NaN observations
}

// Degenerate reports whether the metric carries no spread.
func (r MetricRange) Degenerate() bool { return r.Max == r.Min }

// GlobalStats is the per-metric min/max snapshot for exactly one dataset.
// It is computed once per run and never mutated afterwards.
type GlobalStats map[string]MetricRange

// ============================================================================
// OUTPUT
// ============================================================================

// ScoreRecord carries the CPS of one MetricRecord.
type ScoreRecord struct {
	Model      string    `json:"model"`
	Threshold  Threshold `json:"threshold"`
	QuestionID int       `json:"question_id"`
	CPS        float64   `json:"cps"`
}

// ThresholdSummary aggregates the CPS values of one group.
type ThresholdSummary struct {
	N                 int     `json:"n"`
	MeanCPS           float64 `json:"mean_cps"`
	StdCPS            float64 `json:"std_cps"`
	CV                float64 `json:"cv"`
	ConsistencyFactor float64 `json:"consistency_factor"`
	VariancePenalty   float64 `json:"variance_penalty"`
	TCPS              float64 `json:"tcps"`
	MinCPS            float64 `json:"min_cps"`
	MaxCPS            float64 `json:"max_cps"`
}

// SignificanceResult is the paired comparison of one group against the
// baseline group of the same model.
type SignificanceResult struct {
	N              int     `json:"n"`
	BaselineMean   float64 `json:"baseline_mean"`
	TestMean       float64 `json:"test_mean"`
	MeanDiff       float64 `json:"mean_difference"`
	StdDiff        float64 `json:"std_difference"`
	StandardError  float64 `json:"standard_error"`
	TStatistic     float64 `json:"t_statistic"`
	DF             int     `json:"degrees_of_freedom"`
	PValue         float64 `json:"p_value"`
	CohensD        float64 `json:"cohens_d"`
	CILower        float64 `json:"ci_lower"`
	CIUpper        float64 `json:"ci_upper"`
	ImprovementPct float64 `json:"improvement_pct"`

	SignificanceLevel string `json:"significance_level"` // "***", "**", "*", "ns"
	PInterpretation   string `json:"p_interpretation"`
	EffectSize        string `json:"effect_size"` // large, medium, small, negligible
	IsSignificant     bool   `json:"is_significant"`

	Warnings []Warning `json:"warnings,omitempty"`
}

// ============================================================================
// WARNINGS AND GROUP STATUS
// ============================================================================

// WarningCode represents structured warning types
type WarningCode string

const (
	// WarningDataAlignment: baseline and test sample counts differ (or ids
	// did not match) and pairs were dropped.
	WarningDataAlignment WarningCode = "DATA_ALIGNMENT"
	// WarningMetricAbsent: a schema metric has no observations in the dataset.
	WarningMetricAbsent WarningCode = "METRIC_ABSENT"
	// WarningGroupSkipped: a group could not be scored or compared.
	WarningGroupSkipped WarningCode = "GROUP_SKIPPED"
)

// Warning is a non-fatal condition surfaced to the caller.
type Warning struct {
	Code    WarningCode `json:"code"`
	Group   *GroupKey   `json:"group,omitempty"`
	Message string      `json:"message"`
}

func (w Warning) String() string {
	if w.Group != nil {
		return fmt.Sprintf("[%s] %s: %s", w.Code, w.Group, w.Message)
	}
	return fmt.Sprintf("[%s] %s", w.Code, w.Message)
}

// GroupStatus distinguishes computed groups from groups that could not be scored.
type GroupStatus string

const (
	StatusOK               GroupStatus = "ok"
	StatusBaseline         GroupStatus = "baseline"
	StatusNoData           GroupStatus = "no_data"
	StatusInsufficientData GroupStatus = "insufficient_data"
	StatusNoBaseline       GroupStatus = "no_baseline"
)

// Scored reports whether a group took part in cross-group comparisons.
func (s GroupStatus) Scored() bool { return s == StatusOK }

// GroupResult is everything the engine computed for one group.
type GroupResult struct {
	Key          GroupKey            `json:"key"`
	Status       GroupStatus         `json:"status"`
	Error        string              `json:"error,omitempty"`
	Scores       []ScoreRecord       `json:"scores,omitempty"`
	Summary      *ThresholdSummary   `json:"summary,omitempty"`
	Significance *SignificanceResult `json:"significance,omitempty"`
	TCPSGainPct  float64             `json:"tcps_improvement_pct"`
}

// CPSValues returns the group's CPS values in record order.
func (g GroupResult) CPSValues() []float64 {
	out := make([]float64, len(g.Scores))
	for i, s := range g.Scores {
		out[i] = s.CPS
	}
	return out
}

// QuestionIDs returns the group's question ids in record order.
func (g GroupResult) QuestionIDs() []int {
	out := make([]int, len(g.Scores))
	for i, s := range g.Scores {
		out[i] = s.QuestionID
	}
	return out
}

// Weights maps metric name to weight. Weights handed to the scorer are
// expected to sum to 1.
type Weights map[string]float64

// Sum returns the total weight.
func (w Weights) Sum() float64 {
	total := 0.0
	for _, name := range w.Names() {
		total += w[name]
	}
	return total
}

// Names returns the metric names in sorted order.
func (w Weights) Names() []string {
	names := make([]string, 0, len(w))
	for name := range w {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns an independent copy.
func (w Weights) Clone() Weights {
	out := make(Weights, len(w))
	for k, v := range w {
		out[k] = v
	}
	return out
}
