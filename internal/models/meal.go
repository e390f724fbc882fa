// internal/models/meal.go
package models

import (
	"time"
)

type MealRecord struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	Date        time.Time `json:"date"`
	Timestamp   time.Time `json:"timestamp"`
	Description string    `json:"food_description"`
	Calories    float64   `json:"calories"`
	Protein     float64   `json:"protein"`
	Carbs       float64   `json:"carbs"`
	Fat         float64   `json:"fat"`
	Fiber       float64   `json:"fiber"`
	RawAnalysis string    `json:"raw_analysis"`
}

// DailyTotals is the sum of all confirmed meals' macros for one calendar
// date. A day with no meals is all zeros, never absent.
type DailyTotals struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Fiber    float64 `json:"fiber"`
}

type Nutrition struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Fiber    float64 `json:"fiber"`
}

type ConfidenceLevel string

const (
	HighConfidence   ConfidenceLevel = "high"
	MediumConfidence ConfidenceLevel = "medium"
	LowConfidence    ConfidenceLevel = "low"
)

// FoodAnalysis is the normalized result of one extraction call. Failed
// calls are represented as IsFood=false with Err set, never as a Go error.
type FoodAnalysis struct {
	IsFood     bool            `json:"is_food"`
	FoodItems  []string        `json:"food_items"`
	Nutrition  Nutrition       `json:"nutrition"`
	Confidence ConfidenceLevel `json:"confidence"`
	Comment    string          `json:"comment,omitempty"`
	Err        string          `json:"error,omitempty"`
}

// PendingAnalysis is an extraction result staged for user confirmation.
// It lives only in memory and is lost on restart.
type PendingAnalysis struct {
	ID          string       `json:"id"`
	UserID      int64        `json:"user_id"`
	Description string       `json:"description"`
	Analysis    FoodAnalysis `json:"analysis"`
	CreatedAt   time.Time    `json:"created_at"`
}
