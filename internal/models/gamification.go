package models

import "time"

const XPPerLevel = 500

type Gamification struct {
	ID               string     `json:"id,omitempty"`
	UserID           string     `json:"user_id"`
	Level            int        `json:"level"`
	XP               int        `json:"xp"`
	VitaPoints       int        `json:"vita_points"`
	StreakDays       int        `json:"streak_days"`
	LastActivityDate *string    `json:"last_activity_date,omitempty"`
	Achievements     []string   `json:"achievements"`
	CreatedAt        *time.Time `json:"created_at,omitempty"`
	UpdatedAt        *time.Time `json:"updated_at,omitempty"`
}

// NewGamification returns the starting record created at sign-up.
func NewGamification(userID string) *Gamification {
	return &Gamification{
		UserID:       userID,
		Level:        1,
		Achievements: []string{},
	}
}

// XPThreshold is the experience needed to leave the given level.
func XPThreshold(level int) int {
	if level < 1 {
		level = 1
	}
	return level * XPPerLevel
}

func (g *Gamification) XPForNextLevel() int {
	if g == nil {
		return XPThreshold(1)
	}
	return XPThreshold(g.Level)
}

// XPProgress is the percentage of the current level completed, capped at 100.
func (g *Gamification) XPProgress() float64 {
	if g == nil || g.XP <= 0 {
		return 0
	}
	progress := float64(g.XP) / float64(g.XPForNextLevel()) * 100
	if progress > 100 {
		return 100
	}
	return progress
}

func (g *Gamification) Clone() *Gamification {
	if g == nil {
		return nil
	}
	out := *g
	if g.Achievements != nil {
		out.Achievements = append([]string(nil), g.Achievements...)
	}
	return &out
}
