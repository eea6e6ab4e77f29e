package weights

import (
	"math"
	"testing"

	"cpseval/domain/scoring"
	"cpseval/internal/schema"
)

func TestModifier(t *testing.T) {
	tests := []struct {
		category scoring.Category
		t        float64
		expected float64
	}{
		{scoring.CategoryPrecision, 1.0, 1.0},
		{scoring.CategoryPrecision, 0.5, 0.75},
		{scoring.CategoryRecall, 1.0, 1.0},
		{scoring.CategoryRecall, 0.5, 1.25},
		{scoring.CategorySemantic, 0.5, 1.0},
		{scoring.CategoryNone, 0.1, 1.0},
	}
	for _, tt := range tests {
		if got := Modifier(tt.category, tt.t); math.Abs(got-tt.expected) > 1e-12 {
			t.Errorf("Modifier(%s, %v) = %v, want %v", tt.category, tt.t, got, tt.expected)
		}
	}
}

func TestThresholdAdjusted_SumsToOne(t *testing.T) {
	s := schema.Default()
	strategy, err := NewStrategy(ModeThreshold, s)
	if err != nil {
		t.Fatal(err)
	}

	for _, th := range []float64{0.01, 0.1, 0.25, 0.5, 0.55, 0.7, 0.85, 0.95, 1.0} {
		w, err := strategy.Weights(scoring.Threshold(th))
		if err != nil {
			t.Fatalf("threshold %v: %v", th, err)
		}
		if math.Abs(w.Sum()-1.0) > 1e-9 {
			t.Errorf("threshold %v: weights sum to %.12f", th, w.Sum())
		}
	}
}

func TestThresholdAdjusted_ShiftsTowardPrecision(t *testing.T) {
	s := schema.Default()
	strategy, _ := NewStrategy(ModeThreshold, s)

	loose, _ := strategy.Weights(0.5)
	tight, _ := strategy.Weights(0.95)

	if tight["METEOR"] <= loose["METEOR"] {
		t.Errorf("precision weight should grow with threshold: %v -> %v", loose["METEOR"], tight["METEOR"])
	}
	if tight["Rouge-2.f"] >= loose["Rouge-2.f"] {
		t.Errorf("recall weight should shrink with threshold: %v -> %v", loose["Rouge-2.f"], tight["Rouge-2.f"])
	}
}

func TestFixed_ReturnsBaseWeights(t *testing.T) {
	s := schema.Default()
	strategy, _ := NewStrategy(ModeFixed, s)

	a, _ := strategy.Weights(0.5)
	b, _ := strategy.Weights(0.95)
	for name, w := range s.BaseWeights() {
		if a[name] != w || b[name] != w {
			t.Errorf("%s: fixed weights changed with threshold", name)
		}
	}

	// Callers get a copy, not the schema's table.
	a["METEOR"] = 0
	if again, _ := strategy.Weights(0.5); again["METEOR"] == 0 {
		t.Error("mutating returned weights leaked into the schema")
	}
}

func TestAdjust_RejectsOutOfRangeThreshold(t *testing.T) {
	base := scoring.Weights{"A": 1}
	if _, err := Adjust(base, nil, 1.5); err == nil {
		t.Error("expected error for threshold > 1")
	}
	if _, err := Adjust(scoring.Weights{"A": 0}, nil, 0.5); err == nil {
		t.Error("expected error for zero total weight")
	}
}

func TestParseMode(t *testing.T) {
	if m, err := ParseMode(""); err != nil || m != ModeFixed {
		t.Errorf("empty mode should default to fixed, got %v (%v)", m, err)
	}
	if _, err := ParseMode("adaptive"); err == nil {
		t.Error("expected error for unknown mode")
	}
}
