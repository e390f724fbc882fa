// internal/models/user.go
package models

import (
	"math"
	"time"
)

type UserProfile struct {
	UserID        int64     `json:"user_id"`
	Age           int       `json:"age"`
	WeightKg      float64   `json:"weight"`
	HeightCm      float64   `json:"height"`
	Sex           string    `json:"sex"`
	ActivityLevel string    `json:"activity_level"`
	ProteinGoal   float64   `json:"protein_goal"`
	CreatedAt     time.Time `json:"created_at"`
}

// Conversation states. Exactly one is active per user at a time.
const (
	StateIdle               = "idle"
	StateAwaitingAge        = "awaiting_age"
	StateAwaitingWeight     = "awaiting_weight"
	StateAwaitingHeight     = "awaiting_height"
	StateAwaitingSex        = "awaiting_sex"
	StateAwaitingActivity   = "awaiting_activity"
	StateAwaitingRefinement = "awaiting_refinement"
)

// UserState holds the conversation state plus the partially-built profile
// collected by the setup wizard. RefinementID is set only while the state
// is StateAwaitingRefinement.
type UserState struct {
	UserID       int64   `json:"user_id"`
	CurrentState string  `json:"current_state"`
	Age          int     `json:"age"`
	WeightKg     float64 `json:"weight"`
	HeightCm     float64 `json:"height"`
	Sex          string  `json:"sex"`
	RefinementID string  `json:"refinement_id"`
}

const kgToLbs = 2.20462

// Grams of protein per pound of body weight, by activity level.
var proteinMultipliers = map[string]float64{
	"sedentary": 0.8,
	"light":     1.0,
	"moderate":  1.2,
	"very":      1.4,
}

// ProteinGoal computes the daily protein target in grams from body weight
// and activity level. Unrecognized activity labels use a neutral 1.0
// multiplier rather than failing.
func ProteinGoal(weightKg float64, activityLevel string) float64 {
	multiplier, ok := proteinMultipliers[activityLevel]
	if !ok {
		multiplier = 1.0
	}
	return math.Round(weightKg * kgToLbs * multiplier)
}

// ActivityLevels lists the selectable activity labels in presentation order.
func ActivityLevels() []string {
	return []string{"sedentary", "light", "moderate", "very"}
}
