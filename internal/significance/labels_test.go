package significance

import "testing"

func TestLabels(t *testing.T) {
	tests := []struct {
		p      float64
		stars  string
		interp string
	}{
		{0.0001, "***", "p < 0.001"},
		{0.001, "**", "p < 0.01"},
		{0.009, "**", "p < 0.01"},
		{0.01, "*", "p < 0.05"},
		{0.049, "*", "p < 0.05"},
		{0.05, "ns", "p > 0.05"},
		{0.8, "ns", "p > 0.05"},
	}

	for _, tt := range tests {
		if got := SignificanceLevel(tt.p); got != tt.stars {
			t.Errorf("SignificanceLevel(%v) = %q, want %q", tt.p, got, tt.stars)
		}
		if got := PInterpretation(tt.p); got != tt.interp {
			t.Errorf("PInterpretation(%v) = %q, want %q", tt.p, got, tt.interp)
		}
	}
}

func TestEffectSize(t *testing.T) {
	tests := []struct {
		d        float64
		expected string
	}{
		{0.8, "large"},
		{-1.2, "large"},
		{0.79, "medium"},
		{0.5, "medium"},
		{-0.3, "small"},
		{0.2, "small"},
		{0.19, "negligible"},
		{0, "negligible"},
	}

	for _, tt := range tests {
		if got := EffectSize(tt.d); got != tt.expected {
			t.Errorf("EffectSize(%v) = %q, want %q", tt.d, got, tt.expected)
		}
	}
}
