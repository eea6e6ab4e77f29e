package schema

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	"cpseval/domain/core"
	"cpseval/domain/scoring"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoMetricEntries() []Entry {
	return []Entry{
		{Name: "A", Weight: 0.6, Polarity: scoring.HigherIsBetter, Category: scoring.CategoryPrecision},
		{Name: "B", Weight: 0.4, Polarity: scoring.LowerIsBetter, Category: scoring.CategoryRecall, Aliases: []string{"b_score"}},
	}
}

func TestDefault_IsValid(t *testing.T) {
	s := Default()
	assert.Equal(t, 9, s.Len())
	assert.InDelta(t, 1.0, s.BaseWeights().Sum(), WeightTolerance)

	p, ok := s.Polarity("Laplace Perplexity")
	require.True(t, ok)
	assert.Equal(t, scoring.LowerIsBetter, p)
}

func TestNew_RejectsMalformedSchemas(t *testing.T) {
	tests := []struct {
		name    string
		entries []Entry
	}{
		{"empty", nil},
		{"weights do not sum to one", []Entry{
			{Name: "A", Weight: 0.5, Polarity: scoring.HigherIsBetter},
			{Name: "B", Weight: 0.4, Polarity: scoring.HigherIsBetter},
		}},
		{"negative weight", []Entry{
			{Name: "A", Weight: 1.2, Polarity: scoring.HigherIsBetter},
			{Name: "B", Weight: -0.2, Polarity: scoring.HigherIsBetter},
		}},
		{"missing polarity", []Entry{
			{Name: "A", Weight: 1.0},
		}},
		{"duplicate name", []Entry{
			{Name: "A", Weight: 0.5, Polarity: scoring.HigherIsBetter},
			{Name: "A", Weight: 0.5, Polarity: scoring.HigherIsBetter},
		}},
		{"alias collides with metric", []Entry{
			{Name: "A", Weight: 0.5, Polarity: scoring.HigherIsBetter, Aliases: []string{"b"}},
			{Name: "B", Weight: 0.5, Polarity: scoring.HigherIsBetter},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.entries)
			require.Error(t, err)
			assert.True(t, stderrors.Is(err, core.ErrConfiguration), "expected configuration error, got %v", err)
		})
	}
}

func TestNew_AcceptsSumWithinTolerance(t *testing.T) {
	_, err := New([]Entry{
		{Name: "A", Weight: 0.6000004, Polarity: scoring.HigherIsBetter},
		{Name: "B", Weight: 0.4, Polarity: scoring.HigherIsBetter},
	})
	assert.NoError(t, err)
}

func TestResolve_ExplicitAliasesOnly(t *testing.T) {
	s, err := New(twoMetricEntries())
	require.NoError(t, err)

	name, ok := s.Resolve("  B_SCORE ")
	assert.True(t, ok)
	assert.Equal(t, "B", name)

	name, ok = s.Resolve("a")
	assert.True(t, ok)
	assert.Equal(t, "A", name)

	_, ok = s.Resolve("B score")
	assert.False(t, ok, "near-miss labels must not resolve")
}

func TestResolveColumns(t *testing.T) {
	s, err := New(twoMetricEntries())
	require.NoError(t, err)

	mapping, missing, err := s.ResolveColumns([]string{"Question", "A", "Answer"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"A": "A"}, mapping)
	assert.Equal(t, []string{"B"}, missing)

	_, _, err = s.ResolveColumns([]string{"B", "b_score"})
	assert.True(t, stderrors.Is(err, core.ErrConfiguration))
}

func TestHash_StableAcrossEntryOrder(t *testing.T) {
	entries := twoMetricEntries()
	a, err := New(entries)
	require.NoError(t, err)
	b, err := New([]Entry{entries[1], entries[0]})
	require.NoError(t, err)

	assert.Equal(t, a.Hash(), b.Hash())
	assert.Equal(t, []string{"A", "B"}, b.Names())
}

func TestParse_RoundTripsThroughYAML(t *testing.T) {
	data, err := Marshal(Default())
	require.NoError(t, err)

	parsed, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, Default().Hash(), parsed.Hash())
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schema.yaml")
	doc := `metrics:
  - name: A
    weight: 0.6
    polarity: "+1"
    category: precision
  - name: B
    weight: 0.4
    polarity: lower_is_better
    aliases: [b_score]
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	s, err := LoadFile(path)
	require.NoError(t, err)
	p, _ := s.Polarity("B")
	assert.Equal(t, scoring.LowerIsBetter, p)

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.True(t, stderrors.Is(err, core.ErrConfiguration))

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("metrics:\n  - name: A\n    weight: 1\n    polarity: sideways\n"), 0o644))
	_, err = LoadFile(bad)
	assert.True(t, stderrors.Is(err, core.ErrConfiguration))
}
