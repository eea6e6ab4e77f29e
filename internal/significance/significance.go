// Package significance runs paired comparisons between the per-question CPS
// values of a baseline group and a test group of the same model.
package significance

import (
	"fmt"
	"math"
	"sort"

	"cpseval/domain/scoring"
	"cpseval/internal/errors"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	// Alpha is the significance level for IsSignificant.
	Alpha = 0.05
	// ConfidenceLevel of the interval around the mean difference.
	ConfidenceLevel = 0.95

	// zeroSpreadTolerance is the relative bound under which the paired
	// differences count as constant.
	zeroSpreadTolerance = 1e-12
)

// Alignment selects how baseline and test values are paired.
type Alignment string

const (
	// AlignPrefix pairs by position and truncates to the shorter sequence.
	AlignPrefix Alignment = "prefix"
	// AlignQuestionID pairs by question id and drops unmatched ids.
	AlignQuestionID Alignment = "question_id"
)

// ParseAlignment maps a config value onto an Alignment. Empty means prefix.
func ParseAlignment(s string) (Alignment, error) {
	switch Alignment(s) {
	case "", AlignPrefix:
		return AlignPrefix, nil
	case AlignQuestionID:
		return AlignQuestionID, nil
	}
	return "", errors.ConfigInvalidf("unknown alignment %q (want prefix or question_id)", s)
}

// Compare pairs baseline and test by position. When lengths differ both are
// truncated to the common prefix and a DATA_ALIGNMENT warning is attached.
// The warning is returned alongside an error too.
func Compare(baseline, test []float64) (scoring.SignificanceResult, error) {
	n := len(baseline)
	if len(test) < n {
		n = len(test)
	}

	var warnings []scoring.Warning
	if len(baseline) != len(test) {
		warnings = append(warnings, scoring.Warning{
			Code: scoring.WarningDataAlignment,
			Message: fmt.Sprintf("baseline has %d values, test has %d; truncated both to %d",
				len(baseline), len(test), n),
		})
	}

	result, err := paired(baseline[:n], test[:n])
	if err != nil {
		return scoring.SignificanceResult{Warnings: warnings}, err
	}
	result.Warnings = warnings
	return result, nil
}

// CompareByQuestion pairs baseline and test scores on QuestionID. Ids present
// on only one side are dropped with a DATA_ALIGNMENT warning. Pairs are
// ordered by question id. Duplicate ids within one side are rejected.
func CompareByQuestion(baseline, test []scoring.ScoreRecord) (scoring.SignificanceResult, error) {
	base := make(map[int]float64, len(baseline))
	for _, s := range baseline {
		if _, dup := base[s.QuestionID]; dup {
			return scoring.SignificanceResult{}, errors.InvalidInput(fmt.Sprintf("duplicate question id %d in baseline", s.QuestionID))
		}
		base[s.QuestionID] = s.CPS
	}

	seen := make(map[int]bool, len(test))
	ids := make([]int, 0, len(test))
	for _, s := range test {
		if seen[s.QuestionID] {
			return scoring.SignificanceResult{}, errors.InvalidInput(fmt.Sprintf("duplicate question id %d in test group", s.QuestionID))
		}
		seen[s.QuestionID] = true
		if _, ok := base[s.QuestionID]; ok {
			ids = append(ids, s.QuestionID)
		}
	}
	sort.Ints(ids)

	testByID := make(map[int]float64, len(test))
	for _, s := range test {
		testByID[s.QuestionID] = s.CPS
	}

	b := make([]float64, len(ids))
	t := make([]float64, len(ids))
	for i, id := range ids {
		b[i] = base[id]
		t[i] = testByID[id]
	}

	var warnings []scoring.Warning
	if dropped := len(baseline) + len(test) - 2*len(ids); dropped > 0 {
		warnings = append(warnings, scoring.Warning{
			Code: scoring.WarningDataAlignment,
			Message: fmt.Sprintf("%d of %d baseline and %d test questions matched by id; %d unmatched dropped",
				len(ids), len(baseline), len(test), dropped),
		})
	}

	result, err := paired(b, t)
	if err != nil {
		return scoring.SignificanceResult{Warnings: warnings}, err
	}
	result.Warnings = warnings
	return result, nil
}

// paired runs the paired t-test on equal-length sequences.
func paired(baseline, test []float64) (scoring.SignificanceResult, error) {
	n := len(baseline)
	if n < 2 {
		return scoring.SignificanceResult{}, errors.InsufficientDataf("paired comparison needs at least 2 pairs, got %d", n)
	}

	diffs := make([]float64, n)
	for i := range diffs {
		diffs[i] = test[i] - baseline[i]
	}

	meanDiff, stdDiff := stat.MeanStdDev(diffs, nil)
	// Rounding leaves a constant shift with a spread of ~1e-17; that is no spread.
	if stdDiff <= zeroSpreadTolerance*math.Max(1, math.Abs(meanDiff)) {
		stdDiff = 0
	}
	se := stdDiff / math.Sqrt(float64(n))
	df := n - 1

	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(df)}

	tStat, cohensD, margin, pValue := 0.0, 0.0, 0.0, 1.0
	if stdDiff > 0 {
		tStat = meanDiff / se
		cohensD = meanDiff / stdDiff
		margin = tDist.Quantile(1-(1-ConfidenceLevel)/2) * se
		if tStat != 0 {
			pValue = math.Min(1, 2*tDist.Survival(math.Abs(tStat)))
		}
	}

	baselineMean := stat.Mean(baseline, nil)
	improvement := 0.0
	if baselineMean != 0 {
		improvement = 100 * meanDiff / baselineMean
	}

	return scoring.SignificanceResult{
		N:                 n,
		BaselineMean:      baselineMean,
		TestMean:          stat.Mean(test, nil),
		MeanDiff:          meanDiff,
		StdDiff:           stdDiff,
		StandardError:     se,
		TStatistic:        tStat,
		DF:                df,
		PValue:            pValue,
		CohensD:           cohensD,
		CILower:           meanDiff - margin,
		CIUpper:           meanDiff + margin,
		ImprovementPct:    improvement,
		SignificanceLevel: SignificanceLevel(pValue),
		PInterpretation:   PInterpretation(pValue),
		EffectSize:        EffectSize(cohensD),
		IsSignificant:     pValue < Alpha,
	}, nil
}
