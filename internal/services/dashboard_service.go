package services

import (
	"context"

	"github.com/vitaup/VitaUpBack/internal/models"
	"github.com/vitaup/VitaUpBack/internal/store"
	"golang.org/x/sync/errgroup"
)

type GamificationCard struct {
	Level          int     `json:"level"`
	Title          string  `json:"title"`
	XP             int     `json:"xp"`
	XPForNextLevel int     `json:"xp_for_next_level"`
	XPToNextLevel  int     `json:"xp_to_next_level"`
	XPProgress     float64 `json:"xp_progress"`
	VitaPoints     int     `json:"vita_points"`
	StreakDays     int     `json:"streak_days"`
}

type Dashboard struct {
	Greeting     string                   `json:"greeting"`
	DisplayName  string                   `json:"display_name"`
	PlanType     string                   `json:"plan_type"`
	Mission      string                   `json:"mission"`
	Gamification GamificationCard         `json:"gamification"`
	Nutrition    *models.NutritionSummary `json:"nutrition"`
	Workout      *models.WorkoutSummary   `json:"workout"`
	Sleep        *models.SleepSummary     `json:"sleep"`
}

type DashboardService struct {
	logs  *LogService
	coach *CoachService
}

func NewDashboardService(logs *LogService, coach *CoachService) *DashboardService {
	return &DashboardService{logs: logs, coach: coach}
}

// Card derives the home-screen gamification card. A missing record shows
// the starting values.
func Card(record *models.Gamification) GamificationCard {
	card := GamificationCard{Level: 1, Title: "Guerreiro(a) da Saúde"}
	if record != nil {
		card.Level = max(record.Level, 1)
		card.XP = record.XP
		card.VitaPoints = record.VitaPoints
		card.StreakDays = record.StreakDays
	}
	card.XPForNextLevel = models.XPThreshold(card.Level)
	card.XPToNextLevel = max(0, card.XPForNextLevel-card.XP)
	card.XPProgress = record.XPProgress()
	return card
}

// Build assembles the home screen for the user of profile/gamification,
// reading today's logs concurrently.
func (s *DashboardService) Build(ctx context.Context, logs store.LogTable, userID string, profile *models.UserProfile, record *models.Gamification) (*Dashboard, error) {
	name := DisplayName(profile)
	dashboard := &Dashboard{
		Greeting:     "Olá, " + name + "! 👋",
		DisplayName:  name,
		PlanType:     models.PlanFree,
		Mission:      s.coach.DailyMission(),
		Gamification: Card(record),
	}
	if profile != nil && profile.PlanType != "" {
		dashboard.PlanType = profile.PlanType
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		summary, err := s.logs.NutritionDay(gctx, logs, userID, "")
		dashboard.Nutrition = summary
		return err
	})
	g.Go(func() error {
		summary, err := s.logs.WorkoutDay(gctx, logs, userID, "")
		dashboard.Workout = summary
		return err
	})
	g.Go(func() error {
		summary, err := s.logs.SleepDay(gctx, logs, userID, "")
		dashboard.Sleep = summary
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return dashboard, nil
}
