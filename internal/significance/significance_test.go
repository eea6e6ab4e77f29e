package significance

import (
	stderrors "errors"
	"testing"

	"cpseval/domain/core"
	"cpseval/domain/scoring"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompare_ImprovedThreshold(t *testing.T) {
	baseline := []float64{0.50, 0.52, 0.48, 0.51}
	test := []float64{0.60, 0.58, 0.62, 0.59}

	res, err := Compare(baseline, test)
	require.NoError(t, err)

	assert.Equal(t, 4, res.N)
	assert.Equal(t, 3, res.DF)
	assert.InDelta(t, 0.095, res.MeanDiff, 1e-12)
	assert.InDelta(t, 0.034157, res.StdDiff, 1e-5)
	assert.InDelta(t, 0.017078, res.StandardError, 1e-5)
	assert.InDelta(t, 5.5627, res.TStatistic, 1e-3)
	assert.InDelta(t, 0.0115, res.PValue, 5e-4)
	assert.InDelta(t, 2.781, res.CohensD, 1e-2)
	assert.InDelta(t, 0.0407, res.CILower, 5e-4)
	assert.InDelta(t, 0.1493, res.CIUpper, 5e-4)
	assert.InDelta(t, 18.9, res.ImprovementPct, 0.2)
	assert.InDelta(t, 0.5025, res.BaselineMean, 1e-12)
	assert.InDelta(t, 0.5975, res.TestMean, 1e-12)

	assert.True(t, res.IsSignificant)
	assert.Equal(t, "*", res.SignificanceLevel)
	assert.Equal(t, "p < 0.05", res.PInterpretation)
	assert.Equal(t, "large", res.EffectSize)
	assert.Empty(t, res.Warnings)
}

func TestCompare_SelfComparison(t *testing.T) {
	values := []float64{0.4, 0.55, 0.61, 0.38, 0.7}

	res, err := Compare(values, values)
	require.NoError(t, err)

	assert.Equal(t, 0.0, res.MeanDiff)
	assert.Equal(t, 0.0, res.TStatistic)
	assert.Equal(t, 1.0, res.PValue)
	assert.Equal(t, 0.0, res.CohensD)
	assert.False(t, res.IsSignificant)
	assert.Equal(t, "ns", res.SignificanceLevel)
	assert.Equal(t, "negligible", res.EffectSize)
}

func TestCompare_ConstantShiftHasZeroVariance(t *testing.T) {
	res, err := Compare([]float64{0.1, 0.2, 0.3}, []float64{0.2, 0.3, 0.4})
	require.NoError(t, err)

	assert.InDelta(t, 0.1, res.MeanDiff, 1e-12)
	assert.Equal(t, 0.0, res.TStatistic)
	assert.Equal(t, 0.0, res.CohensD)
	assert.Equal(t, 1.0, res.PValue)
	assert.Equal(t, 0.0, res.StandardError)
	assert.InDelta(t, res.MeanDiff, res.CILower, 1e-15)
	assert.InDelta(t, res.MeanDiff, res.CIUpper, 1e-15)
	assert.False(t, res.IsSignificant)
	assert.Equal(t, "ns", res.SignificanceLevel)
	assert.Equal(t, "negligible", res.EffectSize)
}

func TestCompare_ConstantShiftIgnoresRoundingSpread(t *testing.T) {
	baseline := make([]float64, 50)
	test := make([]float64, 50)
	for i := range baseline {
		baseline[i] = 0.3 + 0.013*float64(i)
		test[i] = baseline[i] - 0.07
	}

	res, err := Compare(baseline, test)
	require.NoError(t, err)

	assert.InDelta(t, -0.07, res.MeanDiff, 1e-12)
	assert.Equal(t, 0.0, res.StdDiff)
	assert.Equal(t, 0.0, res.TStatistic)
	assert.Equal(t, 0.0, res.CohensD)
	assert.Equal(t, 1.0, res.PValue)
	assert.False(t, res.IsSignificant)
}

func TestCompare_TruncatesAndWarns(t *testing.T) {
	res, err := Compare([]float64{0.5, 0.52, 0.48, 0.51, 0.9}, []float64{0.60, 0.58, 0.62, 0.59})
	require.NoError(t, err)

	assert.Equal(t, 4, res.N)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, scoring.WarningDataAlignment, res.Warnings[0].Code)
	assert.InDelta(t, 0.095, res.MeanDiff, 1e-12)
}

func TestCompare_InsufficientData(t *testing.T) {
	tests := []struct {
		name           string
		baseline, test []float64
	}{
		{"empty", nil, nil},
		{"single pair", []float64{0.5}, []float64{0.6}},
		{"truncated to one", []float64{0.5}, []float64{0.6, 0.7, 0.8}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compare(tt.baseline, tt.test)
			assert.True(t, stderrors.Is(err, core.ErrInsufficientData), "got %v", err)
		})
	}
}

func TestCompare_Antisymmetric(t *testing.T) {
	a := []float64{0.31, 0.45, 0.52, 0.40, 0.47}
	b := []float64{0.35, 0.44, 0.60, 0.49, 0.50}

	ab, err := Compare(a, b)
	require.NoError(t, err)
	ba, err := Compare(b, a)
	require.NoError(t, err)

	assert.InDelta(t, ab.TStatistic, -ba.TStatistic, 1e-12)
	assert.InDelta(t, ab.PValue, ba.PValue, 1e-12)
	assert.Equal(t, ab.EffectSize, ba.EffectSize)
}

func TestCompareByQuestion(t *testing.T) {
	rec := func(id int, v float64) scoring.ScoreRecord {
		return scoring.ScoreRecord{QuestionID: id, CPS: v}
	}
	baseline := []scoring.ScoreRecord{rec(1, 0.50), rec(2, 0.52), rec(3, 0.48), rec(4, 0.51), rec(9, 0.3)}
	test := []scoring.ScoreRecord{rec(4, 0.59), rec(3, 0.62), rec(2, 0.58), rec(1, 0.60)}

	res, err := CompareByQuestion(baseline, test)
	require.NoError(t, err)

	assert.Equal(t, 4, res.N)
	assert.InDelta(t, 0.095, res.MeanDiff, 1e-12)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, scoring.WarningDataAlignment, res.Warnings[0].Code)

	_, err = CompareByQuestion([]scoring.ScoreRecord{rec(1, 0.1), rec(1, 0.2)}, test)
	assert.Error(t, err)
}

func TestParseAlignment(t *testing.T) {
	a, err := ParseAlignment("")
	require.NoError(t, err)
	assert.Equal(t, AlignPrefix, a)

	a, err = ParseAlignment("question_id")
	require.NoError(t, err)
	assert.Equal(t, AlignQuestionID, a)

	_, err = ParseAlignment("strict")
	assert.True(t, stderrors.Is(err, core.ErrConfiguration))
}
