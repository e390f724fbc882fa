package models

import (
	"testing"
)

func TestProteinGoal(t *testing.T) {
	tests := []struct {
		name     string
		weightKg float64
		activity string
		want     float64
	}{
		{"sedentary", 70, "sedentary", 123},
		{"light", 70, "light", 154},
		{"moderate", 70, "moderate", 185},
		{"very", 70, "very", 216},
		{"unknown label uses neutral multiplier", 70, "extreme", 154},
		{"empty label uses neutral multiplier", 70, "", 154},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ProteinGoal(tt.weightKg, tt.activity)
			if got != tt.want {
				t.Errorf("ProteinGoal(%v, %q) = %v, want %v", tt.weightKg, tt.activity, got, tt.want)
			}
		})
	}
}

func TestProteinGoalDeterministicAndNonNegative(t *testing.T) {
	for _, activity := range append(ActivityLevels(), "unknown") {
		for _, weight := range []float64{30, 55.5, 70, 120, 300} {
			first := ProteinGoal(weight, activity)
			second := ProteinGoal(weight, activity)
			if first != second {
				t.Errorf("ProteinGoal(%v, %q) not deterministic: %v != %v", weight, activity, first, second)
			}
			if first < 0 {
				t.Errorf("ProteinGoal(%v, %q) = %v, want >= 0", weight, activity, first)
			}
		}
	}
}

func TestProteinGoalRoundsToInteger(t *testing.T) {
	got := ProteinGoal(72.3, "moderate")
	if got != float64(int64(got)) {
		t.Errorf("ProteinGoal(72.3, moderate) = %v, want an integer value", got)
	}
}
