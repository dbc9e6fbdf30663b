package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/vitaup/VitaUpBack/internal/models"
	"github.com/vitaup/VitaUpBack/internal/store"
)

// Daily nutrition goals shown on the nutrition screen.
const (
	CalorieGoal = 2000
	ProteinGoal = 120.0
	CarbsGoal   = 250.0
	FatsGoal    = 65.0
)

type NutritionInput struct {
	Date     string   `json:"date" validate:"omitempty,datetime=2006-01-02"`
	MealType string   `json:"meal_type" validate:"required,oneof=breakfast lunch dinner snack"`
	FoodName string   `json:"food_name" validate:"required,max=120"`
	Calories int      `json:"calories" validate:"min=0,max=10000"`
	Protein  *float64 `json:"protein" validate:"omitempty,min=0,max=1000"`
	Carbs    *float64 `json:"carbs" validate:"omitempty,min=0,max=1000"`
	Fats     *float64 `json:"fats" validate:"omitempty,min=0,max=1000"`
}

type WorkoutInput struct {
	Date           string          `json:"date" validate:"omitempty,datetime=2006-01-02"`
	WorkoutType    string          `json:"workout_type" validate:"required,max=80"`
	Duration       int             `json:"duration" validate:"gt=0,max=1440"`
	CaloriesBurned *int            `json:"calories_burned" validate:"omitempty,min=0,max=10000"`
	Exercises      json.RawMessage `json:"exercises"`
	Notes          *string         `json:"notes" validate:"omitempty,max=1000"`
}

type SleepInput struct {
	Date            string   `json:"date" validate:"omitempty,datetime=2006-01-02"`
	SleepTime       *string  `json:"sleep_time" validate:"omitempty,clock"`
	WakeTime        *string  `json:"wake_time" validate:"omitempty,clock"`
	DurationHours   *float64 `json:"duration_hours" validate:"omitempty,min=0,max=24"`
	QualityScore    *int     `json:"quality_score" validate:"omitempty,min=0,max=100"`
	LightSleepHours *float64 `json:"light_sleep_hours" validate:"omitempty,min=0,max=24"`
	DeepSleepHours  *float64 `json:"deep_sleep_hours" validate:"omitempty,min=0,max=24"`
	RemSleepHours   *float64 `json:"rem_sleep_hours" validate:"omitempty,min=0,max=24"`
	TimesAwake      *int     `json:"times_awake" validate:"omitempty,min=0,max=100"`
}

// LogService serves the tracking screens. It talks to the log tables
// directly; only the user id comes from the session.
type LogService struct {
	now func() time.Time
}

func NewLogService(now func() time.Time) *LogService {
	if now == nil {
		now = time.Now
	}
	return &LogService{now: now}
}

// ResolveDate defaults an empty date to today and checks the format.
func (s *LogService) ResolveDate(date string) (string, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		return s.now().Format(models.DateLayout), nil
	}
	if _, err := time.Parse(models.DateLayout, date); err != nil {
		return "", &ValidationError{Field: "date", Message: "date must use YYYY-MM-DD"}
	}
	return date, nil
}

func (s *LogService) NutritionDay(ctx context.Context, logs store.LogTable, userID, date string) (*models.NutritionSummary, error) {
	day, err := s.ResolveDate(date)
	if err != nil {
		return nil, err
	}
	entries, err := logs.ListNutritionLogs(ctx, userID, day)
	if err != nil {
		return nil, fmt.Errorf("list nutrition logs: %w", err)
	}
	return SummarizeNutrition(day, entries), nil
}

func (s *LogService) AddNutrition(ctx context.Context, logs store.LogTable, userID string, input NutritionInput) (*models.NutritionLog, error) {
	input.FoodName = strings.TrimSpace(input.FoodName)
	if err := validateStruct(input); err != nil {
		return nil, err
	}
	day, err := s.ResolveDate(input.Date)
	if err != nil {
		return nil, err
	}
	entry := &models.NutritionLog{
		UserID:   userID,
		Date:     day,
		MealType: input.MealType,
		FoodName: input.FoodName,
		Calories: input.Calories,
		Protein:  input.Protein,
		Carbs:    input.Carbs,
		Fats:     input.Fats,
	}
	if err := logs.InsertNutritionLog(ctx, entry); err != nil {
		return nil, fmt.Errorf("insert nutrition log: %w", err)
	}
	return entry, nil
}

func (s *LogService) WorkoutDay(ctx context.Context, logs store.LogTable, userID, date string) (*models.WorkoutSummary, error) {
	day, err := s.ResolveDate(date)
	if err != nil {
		return nil, err
	}
	entries, err := logs.ListWorkoutLogs(ctx, userID, day)
	if err != nil {
		return nil, fmt.Errorf("list workout logs: %w", err)
	}
	return SummarizeWorkouts(day, entries), nil
}

func (s *LogService) AddWorkout(ctx context.Context, logs store.LogTable, userID string, input WorkoutInput) (*models.WorkoutLog, error) {
	input.WorkoutType = strings.TrimSpace(input.WorkoutType)
	if err := validateStruct(input); err != nil {
		return nil, err
	}
	if len(input.Exercises) > 0 && !json.Valid(input.Exercises) {
		return nil, &ValidationError{Field: "exercises", Message: "exercises must be valid JSON"}
	}
	day, err := s.ResolveDate(input.Date)
	if err != nil {
		return nil, err
	}
	entry := &models.WorkoutLog{
		UserID:         userID,
		Date:           day,
		WorkoutType:    input.WorkoutType,
		Duration:       input.Duration,
		CaloriesBurned: input.CaloriesBurned,
		Exercises:      input.Exercises,
		Notes:          input.Notes,
	}
	if err := logs.InsertWorkoutLog(ctx, entry); err != nil {
		return nil, fmt.Errorf("insert workout log: %w", err)
	}
	return entry, nil
}

func (s *LogService) SleepDay(ctx context.Context, logs store.LogTable, userID, date string) (*models.SleepSummary, error) {
	day, err := s.ResolveDate(date)
	if err != nil {
		return nil, err
	}
	entries, err := logs.ListSleepLogs(ctx, userID, day)
	if err != nil {
		return nil, fmt.Errorf("list sleep logs: %w", err)
	}
	return SummarizeSleep(day, entries), nil
}

func (s *LogService) AddSleep(ctx context.Context, logs store.LogTable, userID string, input SleepInput) (*models.SleepLog, error) {
	if err := validateStruct(input); err != nil {
		return nil, err
	}
	day, err := s.ResolveDate(input.Date)
	if err != nil {
		return nil, err
	}
	entry := &models.SleepLog{
		UserID:          userID,
		Date:            day,
		SleepTime:       input.SleepTime,
		WakeTime:        input.WakeTime,
		DurationHours:   input.DurationHours,
		QualityScore:    input.QualityScore,
		LightSleepHours: input.LightSleepHours,
		DeepSleepHours:  input.DeepSleepHours,
		RemSleepHours:   input.RemSleepHours,
		TimesAwake:      input.TimesAwake,
	}
	if err := logs.InsertSleepLog(ctx, entry); err != nil {
		return nil, fmt.Errorf("insert sleep log: %w", err)
	}
	return entry, nil
}

func SummarizeNutrition(date string, entries []models.NutritionLog) *models.NutritionSummary {
	summary := &models.NutritionSummary{
		Date:        date,
		Entries:     nonNil(entries),
		CalorieGoal: CalorieGoal,
		ProteinGoal: ProteinGoal,
		CarbsGoal:   CarbsGoal,
		FatsGoal:    FatsGoal,
	}
	for _, entry := range entries {
		summary.TotalCalories += entry.Calories
		summary.TotalProtein += deref(entry.Protein)
		summary.TotalCarbs += deref(entry.Carbs)
		summary.TotalFats += deref(entry.Fats)
	}
	summary.RemainingCalories = max(0, CalorieGoal-summary.TotalCalories)
	summary.CalorieProgress = math.Min(100, float64(summary.TotalCalories)*100/CalorieGoal)
	return summary
}

func SummarizeWorkouts(date string, entries []models.WorkoutLog) *models.WorkoutSummary {
	summary := &models.WorkoutSummary{Date: date, Entries: nonNil(entries)}
	for _, entry := range entries {
		summary.TotalMinutes += entry.Duration
		if entry.CaloriesBurned != nil {
			summary.TotalCaloriesBurned += *entry.CaloriesBurned
		}
	}
	return summary
}

func SummarizeSleep(date string, entries []models.SleepLog) *models.SleepSummary {
	summary := &models.SleepSummary{Date: date, Entries: nonNil(entries)}
	scored, qualityTotal := 0, 0
	for _, entry := range entries {
		summary.TotalHours += deref(entry.DurationHours)
		if entry.QualityScore != nil {
			scored++
			qualityTotal += *entry.QualityScore
		}
	}
	if scored > 0 {
		avg := float64(qualityTotal) / float64(scored)
		summary.AverageQuality = &avg
	}
	return summary
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func nonNil[T any](entries []T) []T {
	if entries == nil {
		return []T{}
	}
	return entries
}
