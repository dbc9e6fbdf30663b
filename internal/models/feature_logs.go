package models

import (
	"encoding/json"
	"time"
)

const DateLayout = "2006-01-02"

type NutritionLog struct {
	ID        string     `json:"id,omitempty"`
	UserID    string     `json:"user_id"`
	Date      string     `json:"date"`
	MealType  string     `json:"meal_type"`
	FoodName  string     `json:"food_name"`
	Calories  int        `json:"calories"`
	Protein   *float64   `json:"protein,omitempty"`
	Carbs     *float64   `json:"carbs,omitempty"`
	Fats      *float64   `json:"fats,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

type WorkoutLog struct {
	ID             string          `json:"id,omitempty"`
	UserID         string          `json:"user_id"`
	Date           string          `json:"date"`
	WorkoutType    string          `json:"workout_type"`
	Duration       int             `json:"duration"`
	CaloriesBurned *int            `json:"calories_burned,omitempty"`
	Exercises      json.RawMessage `json:"exercises,omitempty"`
	Notes          *string         `json:"notes,omitempty"`
	CreatedAt      *time.Time      `json:"created_at,omitempty"`
}

type SleepLog struct {
	ID              string     `json:"id,omitempty"`
	UserID          string     `json:"user_id"`
	Date            string     `json:"date"`
	SleepTime       *string    `json:"sleep_time,omitempty"`
	WakeTime        *string    `json:"wake_time,omitempty"`
	DurationHours   *float64   `json:"duration_hours,omitempty"`
	QualityScore    *int       `json:"quality_score,omitempty"`
	LightSleepHours *float64   `json:"light_sleep_hours,omitempty"`
	DeepSleepHours  *float64   `json:"deep_sleep_hours,omitempty"`
	RemSleepHours   *float64   `json:"rem_sleep_hours,omitempty"`
	TimesAwake      *int       `json:"times_awake,omitempty"`
	CreatedAt       *time.Time `json:"created_at,omitempty"`
}

type NutritionSummary struct {
	Date              string         `json:"date"`
	Entries           []NutritionLog `json:"entries"`
	TotalCalories     int            `json:"total_calories"`
	TotalProtein      float64        `json:"total_protein"`
	TotalCarbs        float64        `json:"total_carbs"`
	TotalFats         float64        `json:"total_fats"`
	CalorieGoal       int            `json:"calorie_goal"`
	ProteinGoal       float64        `json:"protein_goal"`
	CarbsGoal         float64        `json:"carbs_goal"`
	FatsGoal          float64        `json:"fats_goal"`
	RemainingCalories int            `json:"remaining_calories"`
	CalorieProgress   float64        `json:"calorie_progress"`
}

type WorkoutSummary struct {
	Date                string       `json:"date"`
	Entries             []WorkoutLog `json:"entries"`
	TotalMinutes        int          `json:"total_minutes"`
	TotalCaloriesBurned int          `json:"total_calories_burned"`
}

type SleepSummary struct {
	Date           string     `json:"date"`
	Entries        []SleepLog `json:"entries"`
	TotalHours     float64    `json:"total_hours"`
	AverageQuality *float64   `json:"average_quality,omitempty"`
}
