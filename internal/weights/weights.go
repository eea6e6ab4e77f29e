// Package weights derives the weight vector used for one group, either the
// schema's fixed base weights or a threshold-dependent variant.
package weights

import (
	"fmt"
	"math"

	"cpseval/domain/scoring"
	"cpseval/internal/errors"
	"cpseval/internal/schema"
)

// Mode selects how weights are derived per group.
type Mode string

const (
	ModeFixed     Mode = "fixed"
	ModeThreshold Mode = "threshold"
)

// ParseMode validates a weighting mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeFixed, ModeThreshold:
		return Mode(s), nil
	case "":
		return ModeFixed, nil
	}
	return "", errors.ConfigInvalidf("unknown weighting mode %q (want %q or %q)", s, ModeFixed, ModeThreshold)
}

// Strategy yields the weights to score a group at threshold with. The
// returned weights always sum to 1.
type Strategy interface {
	Weights(threshold scoring.Threshold) (scoring.Weights, error)
	Mode() Mode
}

// NewStrategy builds the strategy for mode over s.
func NewStrategy(mode Mode, s *schema.Schema) (Strategy, error) {
	switch mode {
	case ModeFixed, "":
		return Fixed{schema: s}, nil
	case ModeThreshold:
		return ThresholdAdjusted{schema: s}, nil
	}
	return nil, errors.ConfigInvalidf("unknown weighting mode %q", mode)
}

// Fixed returns the schema base weights regardless of threshold.
type Fixed struct {
	schema *schema.Schema
}

func (f Fixed) Mode() Mode { return ModeFixed }

func (f Fixed) Weights(scoring.Threshold) (scoring.Weights, error) {
	return f.schema.BaseWeights(), nil
}

// ThresholdAdjusted shifts weight toward precision metrics as the threshold
// tightens and toward recall metrics as it loosens.
type ThresholdAdjusted struct {
	schema *schema.Schema
}

func (a ThresholdAdjusted) Mode() Mode { return ModeThreshold }

func (a ThresholdAdjusted) Weights(threshold scoring.Threshold) (scoring.Weights, error) {
	categories := make(map[string]scoring.Category, a.schema.Len())
	for _, e := range a.schema.Entries() {
		categories[e.Name] = e.Category
	}
	return Adjust(a.schema.BaseWeights(), categories, threshold.Float())
}

// Modifier returns the multiplier applied to a base weight of category at
// threshold t.
func Modifier(category scoring.Category, t float64) float64 {
	switch category {
	case scoring.CategoryPrecision:
		return 0.5 + 0.5*t
	case scoring.CategoryRecall:
		return 1.5 - 0.5*t
	}
	return 1.0
}

// Adjust applies the category modifiers to base and renormalizes the result
// to sum to 1. A zero total is a configuration error.
func Adjust(base scoring.Weights, categories map[string]scoring.Category, t float64) (scoring.Weights, error) {
	if math.IsNaN(t) || t < 0 || t > 1 {
		return nil, errors.ConfigInvalidf("threshold %v outside [0,1]", t)
	}

	adjusted := make(scoring.Weights, len(base))
	total := 0.0
	for _, name := range base.Names() {
		w := base[name] * Modifier(categories[name], t)
		adjusted[name] = w
		total += w
	}
	if total <= 0 {
		return nil, errors.ConfigInvalid(fmt.Sprintf("adjusted weights sum to %v at threshold %v", total, t))
	}

	for name := range adjusted {
		adjusted[name] /= total
	}
	return adjusted, nil
}
