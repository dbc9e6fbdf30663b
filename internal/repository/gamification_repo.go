package repository

import (
	"context"

	"github.com/vitaup/VitaUpBack/internal/models"
)

type GamificationRepository struct {
	db DBTX
}

func NewGamificationRepository(db DBTX) *GamificationRepository {
	return &GamificationRepository{db: db}
}

func (r *GamificationRepository) GetByUserID(ctx context.Context, userID string) (*models.Gamification, error) {
	query := `
		SELECT id::text, user_id::text, level, xp, vita_points, streak_days,
			   to_char(last_activity_date, 'YYYY-MM-DD'), achievements, created_at, updated_at
		FROM gamification
		WHERE user_id = $1
	`
	var record models.Gamification
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&record.ID,
		&record.UserID,
		&record.Level,
		&record.XP,
		&record.VitaPoints,
		&record.StreakDays,
		&record.LastActivityDate,
		&record.Achievements,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		return nil, translate(err)
	}
	if record.Achievements == nil {
		record.Achievements = []string{}
	}
	return &record, nil
}

func (r *GamificationRepository) Insert(ctx context.Context, record *models.Gamification) error {
	query := `
		INSERT INTO gamification (user_id, level, xp, vita_points, streak_days, achievements)
		VALUES ($1, $2, $3, $4, $5, COALESCE($6, '{}'::text[]))
	`
	_, err := r.db.Exec(ctx, query,
		record.UserID,
		record.Level,
		record.XP,
		record.VitaPoints,
		record.StreakDays,
		record.Achievements,
	)
	return translate(err)
}
