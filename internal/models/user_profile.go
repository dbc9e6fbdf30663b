package models

import "time"

const (
	GoalLose     = "lose"
	GoalGain     = "gain"
	GoalMaintain = "maintain"
	GoalFitness  = "fitness"

	PlanFree    = "free"
	PlanPremium = "premium"
)

type UserProfile struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Age           *int       `json:"age,omitempty"`
	Gender        *string    `json:"gender,omitempty"`
	Weight        *float64   `json:"weight,omitempty"`
	Height        *float64   `json:"height,omitempty"`
	Goal          *string    `json:"goal,omitempty"`
	SleepTime     *string    `json:"sleep_time,omitempty"`
	WakeTime      *string    `json:"wake_time,omitempty"`
	WorkoutLevel  *string    `json:"workout_level,omitempty"`
	DailyRoutine  *string    `json:"daily_routine,omitempty"`
	Restrictions  []string   `json:"restrictions,omitempty"`
	Preferences   []string   `json:"preferences,omitempty"`
	AvailableTime *int       `json:"available_time,omitempty"`
	GymExperience *string    `json:"gym_experience,omitempty"`
	DietHistory   *string    `json:"diet_history,omitempty"`
	PlanType      string     `json:"plan_type,omitempty"`
	CreatedAt     *time.Time `json:"created_at,omitempty"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`
}

// Clone returns a deep copy so callers can hold a snapshot while the
// owner keeps mutating its own value.
func (p *UserProfile) Clone() *UserProfile {
	if p == nil {
		return nil
	}
	out := *p
	if p.Restrictions != nil {
		out.Restrictions = append([]string(nil), p.Restrictions...)
	}
	if p.Preferences != nil {
		out.Preferences = append([]string(nil), p.Preferences...)
	}
	return &out
}

// ProfilePatch is a partial user_profiles update. Nil fields are left
// untouched by the store.
type ProfilePatch struct {
	Name          *string    `json:"name,omitempty" validate:"omitempty,min=1,max=80"`
	Age           *int       `json:"age,omitempty" validate:"omitempty,min=10,max=120"`
	Gender        *string    `json:"gender,omitempty" validate:"omitempty,oneof=male female other"`
	Weight        *float64   `json:"weight,omitempty" validate:"omitempty,gt=0,max=500"`
	Height        *float64   `json:"height,omitempty" validate:"omitempty,gt=0,max=300"`
	Goal          *string    `json:"goal,omitempty" validate:"omitempty,oneof=lose gain maintain fitness"`
	SleepTime     *string    `json:"sleep_time,omitempty" validate:"omitempty,clock"`
	WakeTime      *string    `json:"wake_time,omitempty" validate:"omitempty,clock"`
	WorkoutLevel  *string    `json:"workout_level,omitempty" validate:"omitempty,oneof=beginner intermediate advanced"`
	DailyRoutine  *string    `json:"daily_routine,omitempty" validate:"omitempty,max=500"`
	Restrictions  *[]string  `json:"restrictions,omitempty" validate:"omitempty,max=10,dive,oneof=vegetarian vegan lactose-free gluten-free"`
	Preferences   *[]string  `json:"preferences,omitempty" validate:"omitempty,max=20,dive,required,max=40"`
	AvailableTime *int       `json:"available_time,omitempty" validate:"omitempty,oneof=15 30 45 60"`
	GymExperience *string    `json:"gym_experience,omitempty" validate:"omitempty,max=500"`
	DietHistory   *string    `json:"diet_history,omitempty" validate:"omitempty,max=1000"`
	PlanType      *string    `json:"plan_type,omitempty" validate:"omitempty,oneof=free premium"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`
}

func (p ProfilePatch) IsEmpty() bool {
	return p.Name == nil && p.Age == nil && p.Gender == nil && p.Weight == nil &&
		p.Height == nil && p.Goal == nil && p.SleepTime == nil && p.WakeTime == nil &&
		p.WorkoutLevel == nil && p.DailyRoutine == nil && p.Restrictions == nil &&
		p.Preferences == nil && p.AvailableTime == nil && p.GymExperience == nil &&
		p.DietHistory == nil && p.PlanType == nil
}

// Apply copies every set field of the patch onto the profile.
func (p ProfilePatch) Apply(profile *UserProfile) {
	if profile == nil {
		return
	}
	if p.Name != nil {
		profile.Name = *p.Name
	}
	if p.Age != nil {
		profile.Age = p.Age
	}
	if p.Gender != nil {
		profile.Gender = p.Gender
	}
	if p.Weight != nil {
		profile.Weight = p.Weight
	}
	if p.Height != nil {
		profile.Height = p.Height
	}
	if p.Goal != nil {
		profile.Goal = p.Goal
	}
	if p.SleepTime != nil {
		profile.SleepTime = p.SleepTime
	}
	if p.WakeTime != nil {
		profile.WakeTime = p.WakeTime
	}
	if p.WorkoutLevel != nil {
		profile.WorkoutLevel = p.WorkoutLevel
	}
	if p.DailyRoutine != nil {
		profile.DailyRoutine = p.DailyRoutine
	}
	if p.Restrictions != nil {
		profile.Restrictions = append([]string(nil), (*p.Restrictions)...)
	}
	if p.Preferences != nil {
		profile.Preferences = append([]string(nil), (*p.Preferences)...)
	}
	if p.AvailableTime != nil {
		profile.AvailableTime = p.AvailableTime
	}
	if p.GymExperience != nil {
		profile.GymExperience = p.GymExperience
	}
	if p.DietHistory != nil {
		profile.DietHistory = p.DietHistory
	}
	if p.PlanType != nil {
		profile.PlanType = *p.PlanType
	}
	if p.UpdatedAt != nil {
		updated := *p.UpdatedAt
		profile.UpdatedAt = &updated
	}
}
