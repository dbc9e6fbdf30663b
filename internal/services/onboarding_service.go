package services

import (
	"context"
	"strings"

	"github.com/vitaup/VitaUpBack/internal/models"
)

type ProfileUpdater interface {
	UpdateProfile(ctx context.Context, patch models.ProfilePatch) error
}

// OnboardingInput is the wizard's final submission: basic info, body,
// goal, sleep, workout and diet steps.
type OnboardingInput struct {
	Name          string   `json:"name" validate:"required,max=80"`
	Age           *int     `json:"age" validate:"omitempty,min=10,max=120"`
	Gender        *string  `json:"gender" validate:"omitempty,oneof=male female other"`
	Weight        *float64 `json:"weight" validate:"omitempty,gt=0,max=500"`
	Height        *float64 `json:"height" validate:"omitempty,gt=0,max=300"`
	Goal          string   `json:"goal" validate:"required,oneof=lose gain maintain fitness"`
	SleepTime     *string  `json:"sleep_time" validate:"omitempty,clock"`
	WakeTime      *string  `json:"wake_time" validate:"omitempty,clock"`
	WorkoutLevel  *string  `json:"workout_level" validate:"omitempty,oneof=beginner intermediate advanced"`
	DailyRoutine  *string  `json:"daily_routine" validate:"omitempty,max=500"`
	Restrictions  []string `json:"restrictions" validate:"omitempty,max=10,dive,oneof=vegetarian vegan lactose-free gluten-free"`
	Preferences   []string `json:"preferences" validate:"omitempty,max=20,dive,required,max=40"`
	AvailableTime *int     `json:"available_time" validate:"omitempty,oneof=15 30 45 60"`
	GymExperience *string  `json:"gym_experience" validate:"omitempty,max=500"`
	DietHistory   *string  `json:"diet_history" validate:"omitempty,max=1000"`
}

type OnboardingService struct{}

func NewOnboardingService() *OnboardingService {
	return &OnboardingService{}
}

// Patch validates input and turns it into the profile update the wizard
// submits.
func (s *OnboardingService) Patch(input OnboardingInput) (models.ProfilePatch, error) {
	input.Name = strings.TrimSpace(input.Name)
	// Skipped wizard steps arrive as empty strings.
	for _, field := range []**string{
		&input.Gender, &input.SleepTime, &input.WakeTime, &input.WorkoutLevel,
		&input.DailyRoutine, &input.GymExperience, &input.DietHistory,
	} {
		blankToNil(field)
	}
	if err := validateStruct(input); err != nil {
		return models.ProfilePatch{}, err
	}

	goal := input.Goal
	name := input.Name
	restrictions := append([]string{}, input.Restrictions...)
	preferences := append([]string{}, input.Preferences...)
	return models.ProfilePatch{
		Name:          &name,
		Age:           input.Age,
		Gender:        input.Gender,
		Weight:        input.Weight,
		Height:        input.Height,
		Goal:          &goal,
		SleepTime:     input.SleepTime,
		WakeTime:      input.WakeTime,
		WorkoutLevel:  input.WorkoutLevel,
		DailyRoutine:  input.DailyRoutine,
		Restrictions:  &restrictions,
		Preferences:   &preferences,
		AvailableTime: input.AvailableTime,
		GymExperience: input.GymExperience,
		DietHistory:   input.DietHistory,
	}, nil
}

// Submit validates input and writes it once through updater.
func (s *OnboardingService) Submit(ctx context.Context, updater ProfileUpdater, input OnboardingInput) error {
	patch, err := s.Patch(input)
	if err != nil {
		return err
	}
	return updater.UpdateProfile(ctx, patch)
}

func blankToNil(field **string) {
	if *field != nil && strings.TrimSpace(**field) == "" {
		*field = nil
	}
}
