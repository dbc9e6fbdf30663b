package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/vitaup/VitaUpBack/internal/models"
)

const profileColumns = `id::text, name, age, gender, weight, height, goal, sleep_time, wake_time,
		workout_level, daily_routine, restrictions, preferences, available_time, gym_experience,
		diet_history, plan_type, created_at, updated_at`

type UserProfileRepository struct {
	db DBTX
}

func NewUserProfileRepository(db DBTX) *UserProfileRepository {
	return &UserProfileRepository{db: db}
}

func scanProfile(row pgx.Row) (*models.UserProfile, error) {
	var profile models.UserProfile
	err := row.Scan(
		&profile.ID,
		&profile.Name,
		&profile.Age,
		&profile.Gender,
		&profile.Weight,
		&profile.Height,
		&profile.Goal,
		&profile.SleepTime,
		&profile.WakeTime,
		&profile.WorkoutLevel,
		&profile.DailyRoutine,
		&profile.Restrictions,
		&profile.Preferences,
		&profile.AvailableTime,
		&profile.GymExperience,
		&profile.DietHistory,
		&profile.PlanType,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		return nil, translate(err)
	}
	return &profile, nil
}

func (r *UserProfileRepository) GetByUserID(ctx context.Context, userID string) (*models.UserProfile, error) {
	query := `SELECT ` + profileColumns + ` FROM user_profiles WHERE id = $1`
	return scanProfile(r.db.QueryRow(ctx, query, userID))
}

func (r *UserProfileRepository) Insert(ctx context.Context, profile *models.UserProfile) error {
	query := `
		INSERT INTO user_profiles (id, name, age, gender, weight, height, goal, sleep_time, wake_time,
			workout_level, daily_routine, restrictions, preferences, available_time, gym_experience,
			diet_history, plan_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, COALESCE($12, '{}'::text[]),
			COALESCE($13, '{}'::text[]), $14, $15, $16, COALESCE(NULLIF($17, ''), 'free'))
	`
	_, err := r.db.Exec(ctx, query,
		profile.ID,
		profile.Name,
		profile.Age,
		profile.Gender,
		profile.Weight,
		profile.Height,
		profile.Goal,
		profile.SleepTime,
		profile.WakeTime,
		profile.WorkoutLevel,
		profile.DailyRoutine,
		profile.Restrictions,
		profile.Preferences,
		profile.AvailableTime,
		profile.GymExperience,
		profile.DietHistory,
		profile.PlanType,
	)
	return translate(err)
}

// UpdatePartial sets the non-nil fields of patch. Like a filtered update
// through the REST API, a row the caller cannot see is not an error.
func (r *UserProfileRepository) UpdatePartial(ctx context.Context, userID string, patch models.ProfilePatch) error {
	query := `
		UPDATE user_profiles
		SET name = COALESCE($1, name),
			age = COALESCE($2, age),
			gender = COALESCE($3, gender),
			weight = COALESCE($4, weight),
			height = COALESCE($5, height),
			goal = COALESCE($6, goal),
			sleep_time = COALESCE($7, sleep_time),
			wake_time = COALESCE($8, wake_time),
			workout_level = COALESCE($9, workout_level),
			daily_routine = COALESCE($10, daily_routine),
			restrictions = COALESCE($11, restrictions),
			preferences = COALESCE($12, preferences),
			available_time = COALESCE($13, available_time),
			gym_experience = COALESCE($14, gym_experience),
			diet_history = COALESCE($15, diet_history),
			plan_type = COALESCE($16, plan_type),
			updated_at = COALESCE($17, NOW())
		WHERE id = $18
	`
	_, err := r.db.Exec(ctx, query,
		patch.Name,
		patch.Age,
		patch.Gender,
		patch.Weight,
		patch.Height,
		patch.Goal,
		patch.SleepTime,
		patch.WakeTime,
		patch.WorkoutLevel,
		patch.DailyRoutine,
		patch.Restrictions,
		patch.Preferences,
		patch.AvailableTime,
		patch.GymExperience,
		patch.DietHistory,
		patch.PlanType,
		patch.UpdatedAt,
		userID,
	)
	return translate(err)
}
