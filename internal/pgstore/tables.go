package pgstore

import (
	"context"

	"github.com/vitaup/VitaUpBack/internal/models"
	"github.com/vitaup/VitaUpBack/internal/repository"
)

func (c *Client) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	var profile *models.UserProfile
	err := c.withUser(ctx, func(q repository.DBTX) error {
		var err error
		profile, err = repository.NewUserProfileRepository(q).GetByUserID(ctx, userID)
		return err
	})
	return profile, err
}

func (c *Client) InsertProfile(ctx context.Context, profile *models.UserProfile) error {
	return c.withUser(ctx, func(q repository.DBTX) error {
		return repository.NewUserProfileRepository(q).Insert(ctx, profile)
	})
}

func (c *Client) UpdateProfile(ctx context.Context, userID string, patch models.ProfilePatch) error {
	return c.withUser(ctx, func(q repository.DBTX) error {
		return repository.NewUserProfileRepository(q).UpdatePartial(ctx, userID, patch)
	})
}

func (c *Client) GetGamification(ctx context.Context, userID string) (*models.Gamification, error) {
	var record *models.Gamification
	err := c.withUser(ctx, func(q repository.DBTX) error {
		var err error
		record, err = repository.NewGamificationRepository(q).GetByUserID(ctx, userID)
		return err
	})
	return record, err
}

func (c *Client) InsertGamification(ctx context.Context, record *models.Gamification) error {
	return c.withUser(ctx, func(q repository.DBTX) error {
		return repository.NewGamificationRepository(q).Insert(ctx, record)
	})
}

func (c *Client) ListNutritionLogs(ctx context.Context, userID, date string) ([]models.NutritionLog, error) {
	var logs []models.NutritionLog
	err := c.withUser(ctx, func(q repository.DBTX) error {
		var err error
		logs, err = repository.NewFeatureLogRepository(q).ListNutrition(ctx, userID, date)
		return err
	})
	return logs, err
}

func (c *Client) InsertNutritionLog(ctx context.Context, entry *models.NutritionLog) error {
	return c.withUser(ctx, func(q repository.DBTX) error {
		return repository.NewFeatureLogRepository(q).InsertNutrition(ctx, entry)
	})
}

func (c *Client) ListWorkoutLogs(ctx context.Context, userID, date string) ([]models.WorkoutLog, error) {
	var logs []models.WorkoutLog
	err := c.withUser(ctx, func(q repository.DBTX) error {
		var err error
		logs, err = repository.NewFeatureLogRepository(q).ListWorkouts(ctx, userID, date)
		return err
	})
	return logs, err
}

func (c *Client) InsertWorkoutLog(ctx context.Context, entry *models.WorkoutLog) error {
	return c.withUser(ctx, func(q repository.DBTX) error {
		return repository.NewFeatureLogRepository(q).InsertWorkout(ctx, entry)
	})
}

func (c *Client) ListSleepLogs(ctx context.Context, userID, date string) ([]models.SleepLog, error) {
	var logs []models.SleepLog
	err := c.withUser(ctx, func(q repository.DBTX) error {
		var err error
		logs, err = repository.NewFeatureLogRepository(q).ListSleep(ctx, userID, date)
		return err
	})
	return logs, err
}

func (c *Client) InsertSleepLog(ctx context.Context, entry *models.SleepLog) error {
	return c.withUser(ctx, func(q repository.DBTX) error {
		return repository.NewFeatureLogRepository(q).InsertSleep(ctx, entry)
	})
}
