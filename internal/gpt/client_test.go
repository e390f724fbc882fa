package gpt

import (
	"testing"
)

func TestParseAnalysis(t *testing.T) {
	raw := `{
        "is_food": true,
        "food_items": ["grilled chicken", "rice"],
        "nutrition": {"calories": 520, "protein": 42, "carbs": 55, "fat": 12, "fiber": 3},
        "confidence": "high",
        "comment": "Great protein choice!"
    }`

	analysis := parseAnalysis(raw)
	if !analysis.IsFood {
		t.Fatal("IsFood = false, want true")
	}
	if len(analysis.FoodItems) != 2 {
		t.Errorf("FoodItems = %v", analysis.FoodItems)
	}
	if analysis.Nutrition.Calories != 520 || analysis.Nutrition.Protein != 42 {
		t.Errorf("Nutrition = %+v", analysis.Nutrition)
	}
	if analysis.Err != "" {
		t.Errorf("Err = %q, want empty", analysis.Err)
	}
}

func TestParseAnalysisStripsFences(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"json fence", "```json\n{\"is_food\": true, \"food_items\": [\"apple\"]}\n```"},
		{"bare fence", "```\n{\"is_food\": true, \"food_items\": [\"apple\"]}\n```"},
		{"surrounding whitespace", "  \n{\"is_food\": true, \"food_items\": [\"apple\"]}\n  "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analysis := parseAnalysis(tt.raw)
			if !analysis.IsFood {
				t.Errorf("IsFood = false for %q", tt.raw)
			}
		})
	}
}

func TestParseAnalysisMalformedIsNormalizedFailure(t *testing.T) {
	for _, raw := range []string{
		"I think this is a chicken sandwich with about 500 calories.",
		"```json\n{broken\n```",
		"",
	} {
		analysis := parseAnalysis(raw)
		if analysis.IsFood {
			t.Errorf("IsFood = true for malformed input %q", raw)
		}
		if analysis.Err == "" {
			t.Errorf("Err empty for malformed input %q", raw)
		}
	}
}

func TestParseAnalysisMissingNumbersDefaultToZero(t *testing.T) {
	raw := `{"is_food": true, "food_items": ["mystery soup"], "nutrition": {"calories": 200}}`

	analysis := parseAnalysis(raw)
	if !analysis.IsFood {
		t.Fatal("IsFood = false, want true")
	}
	n := analysis.Nutrition
	if n.Calories != 200 {
		t.Errorf("Calories = %v, want 200", n.Calories)
	}
	if n.Protein != 0 || n.Carbs != 0 || n.Fat != 0 || n.Fiber != 0 {
		t.Errorf("missing fields not zero: %+v", n)
	}
}
