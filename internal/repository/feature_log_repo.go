package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/vitaup/VitaUpBack/internal/models"
)

// FeatureLogRepository reads and writes the per-day nutrition, workout
// and sleep logs.
type FeatureLogRepository struct {
	db DBTX
}

func NewFeatureLogRepository(db DBTX) *FeatureLogRepository {
	return &FeatureLogRepository{db: db}
}

func parseDate(date string) (time.Time, error) {
	day, err := time.Parse(models.DateLayout, date)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", date, err)
	}
	return day, nil
}

func (r *FeatureLogRepository) ListNutrition(ctx context.Context, userID, date string) ([]models.NutritionLog, error) {
	day, err := parseDate(date)
	if err != nil {
		return nil, err
	}
	query := `
		SELECT id::text, user_id::text, to_char(date, 'YYYY-MM-DD'), meal_type, food_name,
			   calories, protein, carbs, fats, created_at
		FROM nutrition_logs
		WHERE user_id = $1 AND date = $2
		ORDER BY created_at ASC, id ASC
	`
	rows, err := r.db.Query(ctx, query, userID, day)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	logs := make([]models.NutritionLog, 0)
	for rows.Next() {
		var entry models.NutritionLog
		if err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.Date,
			&entry.MealType,
			&entry.FoodName,
			&entry.Calories,
			&entry.Protein,
			&entry.Carbs,
			&entry.Fats,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		logs = append(logs, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, translate(err)
	}
	return logs, nil
}

func (r *FeatureLogRepository) InsertNutrition(ctx context.Context, entry *models.NutritionLog) error {
	day, err := parseDate(entry.Date)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO nutrition_logs (user_id, date, meal_type, food_name, calories, protein, carbs, fats)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id::text, created_at
	`
	err = r.db.QueryRow(ctx, query,
		entry.UserID,
		day,
		entry.MealType,
		entry.FoodName,
		entry.Calories,
		entry.Protein,
		entry.Carbs,
		entry.Fats,
	).Scan(&entry.ID, &entry.CreatedAt)
	return translate(err)
}

func (r *FeatureLogRepository) ListWorkouts(ctx context.Context, userID, date string) ([]models.WorkoutLog, error) {
	day, err := parseDate(date)
	if err != nil {
		return nil, err
	}
	query := `
		SELECT id::text, user_id::text, to_char(date, 'YYYY-MM-DD'), workout_type, duration,
			   calories_burned, exercises::text, notes, created_at
		FROM workout_logs
		WHERE user_id = $1 AND date = $2
		ORDER BY created_at ASC, id ASC
	`
	rows, err := r.db.Query(ctx, query, userID, day)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	logs := make([]models.WorkoutLog, 0)
	for rows.Next() {
		var entry models.WorkoutLog
		var exercises *string
		if err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.Date,
			&entry.WorkoutType,
			&entry.Duration,
			&entry.CaloriesBurned,
			&exercises,
			&entry.Notes,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		if exercises != nil {
			entry.Exercises = json.RawMessage(*exercises)
		}
		logs = append(logs, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, translate(err)
	}
	return logs, nil
}

func (r *FeatureLogRepository) InsertWorkout(ctx context.Context, entry *models.WorkoutLog) error {
	day, err := parseDate(entry.Date)
	if err != nil {
		return err
	}
	var exercises any
	if len(entry.Exercises) > 0 {
		exercises = string(entry.Exercises)
	}
	query := `
		INSERT INTO workout_logs (user_id, date, workout_type, duration, calories_burned, exercises, notes)
		VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7)
		RETURNING id::text, created_at
	`
	err = r.db.QueryRow(ctx, query,
		entry.UserID,
		day,
		entry.WorkoutType,
		entry.Duration,
		entry.CaloriesBurned,
		exercises,
		entry.Notes,
	).Scan(&entry.ID, &entry.CreatedAt)
	return translate(err)
}

func (r *FeatureLogRepository) ListSleep(ctx context.Context, userID, date string) ([]models.SleepLog, error) {
	day, err := parseDate(date)
	if err != nil {
		return nil, err
	}
	query := `
		SELECT id::text, user_id::text, to_char(date, 'YYYY-MM-DD'), sleep_time, wake_time,
			   duration_hours, quality_score, light_sleep_hours, deep_sleep_hours, rem_sleep_hours,
			   times_awake, created_at
		FROM sleep_logs
		WHERE user_id = $1 AND date = $2
		ORDER BY created_at ASC, id ASC
	`
	rows, err := r.db.Query(ctx, query, userID, day)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	logs := make([]models.SleepLog, 0)
	for rows.Next() {
		var entry models.SleepLog
		if err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.Date,
			&entry.SleepTime,
			&entry.WakeTime,
			&entry.DurationHours,
			&entry.QualityScore,
			&entry.LightSleepHours,
			&entry.DeepSleepHours,
			&entry.RemSleepHours,
			&entry.TimesAwake,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		logs = append(logs, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, translate(err)
	}
	return logs, nil
}

func (r *FeatureLogRepository) InsertSleep(ctx context.Context, entry *models.SleepLog) error {
	day, err := parseDate(entry.Date)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO sleep_logs (user_id, date, sleep_time, wake_time, duration_hours, quality_score,
			light_sleep_hours, deep_sleep_hours, rem_sleep_hours, times_awake)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id::text, created_at
	`
	err = r.db.QueryRow(ctx, query,
		entry.UserID,
		day,
		entry.SleepTime,
		entry.WakeTime,
		entry.DurationHours,
		entry.QualityScore,
		entry.LightSleepHours,
		entry.DeepSleepHours,
		entry.RemSleepHours,
		entry.TimesAwake,
	).Scan(&entry.ID, &entry.CreatedAt)
	return translate(err)
}
