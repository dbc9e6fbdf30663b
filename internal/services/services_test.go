package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/vitaup/VitaUpBack/internal/models"
	"github.com/vitaup/VitaUpBack/internal/session"
)

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }
func stringPtr(v string) *string  { return &v }

type stubProfileUpdater struct {
	calls int
	patch models.ProfilePatch
	err   error
}

func (s *stubProfileUpdater) UpdateProfile(_ context.Context, patch models.ProfilePatch) error {
	s.calls++
	s.patch = patch
	return s.err
}

type stubLogTable struct {
	nutrition []models.NutritionLog
	workouts  []models.WorkoutLog
	sleep     []models.SleepLog

	listedDate string
	inserted   any
	err        error
}

func (s *stubLogTable) ListNutritionLogs(_ context.Context, _ string, date string) ([]models.NutritionLog, error) {
	s.listedDate = date
	return s.nutrition, s.err
}

func (s *stubLogTable) InsertNutritionLog(_ context.Context, entry *models.NutritionLog) error {
	s.inserted = entry
	return s.err
}

func (s *stubLogTable) ListWorkoutLogs(_ context.Context, _ string, _ string) ([]models.WorkoutLog, error) {
	return s.workouts, s.err
}

func (s *stubLogTable) InsertWorkoutLog(_ context.Context, entry *models.WorkoutLog) error {
	s.inserted = entry
	return s.err
}

func (s *stubLogTable) ListSleepLogs(_ context.Context, _ string, _ string) ([]models.SleepLog, error) {
	return s.sleep, s.err
}

func (s *stubLogTable) InsertSleepLog(_ context.Context, entry *models.SleepLog) error {
	s.inserted = entry
	return s.err
}

func fixedClock() time.Time {
	return time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
}

func validOnboarding() OnboardingInput {
	return OnboardingInput{
		Name:          " Ana ",
		Age:           intPtr(29),
		Gender:        stringPtr("female"),
		Weight:        floatPtr(62.5),
		Height:        floatPtr(168),
		Goal:          models.GoalLose,
		SleepTime:     stringPtr("23:00"),
		WakeTime:      stringPtr("07:00"),
		WorkoutLevel:  stringPtr("beginner"),
		Restrictions:  []string{"vegan"},
		Preferences:   []string{"yoga"},
		AvailableTime: intPtr(30),
	}
}

func TestOnboardingSubmitWritesOnePatch(t *testing.T) {
	updater := &stubProfileUpdater{}
	err := NewOnboardingService().Submit(context.Background(), updater, validOnboarding())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if updater.calls != 1 {
		t.Fatalf("expected one update, got %d", updater.calls)
	}
	patch := updater.patch
	if patch.Name == nil || *patch.Name != "Ana" {
		t.Fatalf("expected trimmed name, got %v", patch.Name)
	}
	if patch.Goal == nil || *patch.Goal != models.GoalLose {
		t.Fatalf("expected goal lose, got %v", patch.Goal)
	}
	if patch.Restrictions == nil || len(*patch.Restrictions) != 1 || patch.PlanType != nil {
		t.Fatalf("unexpected patch %+v", patch)
	}
}

func TestOnboardingAcceptsSkippedSteps(t *testing.T) {
	raw := `{
		"name": "Ana", "goal": "lose",
		"gender": "", "sleep_time": "", "wake_time": "", "workout_level": "",
		"daily_routine": "", "restrictions": [], "preferences": [],
		"gym_experience": "", "diet_history": ""
	}`
	var input OnboardingInput
	if err := json.Unmarshal([]byte(raw), &input); err != nil {
		t.Fatalf("decode: %v", err)
	}

	patch, err := NewOnboardingService().Patch(input)
	if err != nil {
		t.Fatalf("expected skipped steps to be accepted, got %v", err)
	}
	if patch.Gender != nil || patch.SleepTime != nil || patch.WorkoutLevel != nil || patch.DietHistory != nil {
		t.Fatalf("expected skipped fields to stay unset, got %+v", patch)
	}
	if patch.Name == nil || *patch.Name != "Ana" || patch.Goal == nil || *patch.Goal != "lose" {
		t.Fatalf("unexpected patch %+v", patch)
	}
}

func TestOnboardingRejectsInvalidInput(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*OnboardingInput)
		field  string
	}{
		{"missing name", func(in *OnboardingInput) { in.Name = "  " }, "name"},
		{"unknown goal", func(in *OnboardingInput) { in.Goal = "bulk" }, "goal"},
		{"bad clock", func(in *OnboardingInput) { in.SleepTime = stringPtr("25:00") }, "sleep_time"},
		{"odd available time", func(in *OnboardingInput) { in.AvailableTime = intPtr(20) }, "available_time"},
		{"unknown restriction", func(in *OnboardingInput) { in.Restrictions = []string{"keto"} }, "restrictions[0]"},
		{"negative weight", func(in *OnboardingInput) { in.Weight = floatPtr(-1) }, "weight"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := validOnboarding()
			tc.mutate(&input)
			updater := &stubProfileUpdater{}
			err := NewOnboardingService().Submit(context.Background(), updater, input)

			var vErr *ValidationError
			if !errors.As(err, &vErr) || vErr.Field != tc.field {
				t.Fatalf("expected validation error on %s, got %v", tc.field, err)
			}
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
			if updater.calls != 0 {
				t.Fatal("expected no update for invalid input")
			}
		})
	}
}

func TestValidationMessages(t *testing.T) {
	input := validOnboarding()
	input.Goal = "bulk"
	_, err := NewOnboardingService().Patch(input)
	if err == nil || err.Error() != "goal must be one of: lose, gain, maintain, fitness" {
		t.Fatalf("unexpected message %v", err)
	}
}

func TestProfileServiceValidatePatch(t *testing.T) {
	service := NewProfileService()

	if err := service.ValidatePatch(&models.ProfilePatch{PlanType: stringPtr(models.PlanPremium)}); err == nil {
		t.Fatal("expected plan change to be rejected")
	}
	if err := service.ValidatePatch(&models.ProfilePatch{}); err == nil {
		t.Fatal("expected empty patch to be rejected")
	}
	if err := service.ValidatePatch(&models.ProfilePatch{Name: stringPtr("   ")}); err == nil {
		t.Fatal("expected blank name to be rejected")
	}
	if err := service.ValidatePatch(&models.ProfilePatch{Goal: stringPtr("sprint")}); err == nil {
		t.Fatal("expected unknown goal to be rejected")
	}

	updater := &stubProfileUpdater{}
	err := service.UpdateProfile(context.Background(), updater, models.ProfilePatch{Goal: stringPtr(models.GoalGain)})
	if err != nil || updater.calls != 1 {
		t.Fatalf("expected valid patch to be written, got %v after %d calls", err, updater.calls)
	}
}

func TestSummarizeNutrition(t *testing.T) {
	summary := SummarizeNutrition("2026-03-01", []models.NutritionLog{
		{Calories: 600, Protein: floatPtr(30), Carbs: floatPtr(70), Fats: floatPtr(20)},
		{Calories: 700, Protein: floatPtr(40.5)},
	})
	if summary.TotalCalories != 1300 || summary.TotalProtein != 70.5 || summary.TotalCarbs != 70 || summary.TotalFats != 20 {
		t.Fatalf("unexpected totals %+v", summary)
	}
	if summary.RemainingCalories != 700 || summary.CalorieProgress != 65 {
		t.Fatalf("expected 700 remaining at 65%%, got %d at %v", summary.RemainingCalories, summary.CalorieProgress)
	}
	if summary.CalorieGoal != 2000 || summary.ProteinGoal != 120 || summary.CarbsGoal != 250 || summary.FatsGoal != 65 {
		t.Fatalf("unexpected goals %+v", summary)
	}

	over := SummarizeNutrition("2026-03-01", []models.NutritionLog{{Calories: 2600}})
	if over.RemainingCalories != 0 || over.CalorieProgress != 100 {
		t.Fatalf("expected remaining floored at 0, got %d at %v", over.RemainingCalories, over.CalorieProgress)
	}

	empty := SummarizeNutrition("2026-03-01", nil)
	if empty.Entries == nil || len(empty.Entries) != 0 {
		t.Fatal("expected empty entries slice")
	}
}

func TestSummarizeWorkoutsAndSleep(t *testing.T) {
	workouts := SummarizeWorkouts("2026-03-01", []models.WorkoutLog{
		{Duration: 45, CaloriesBurned: intPtr(350)},
		{Duration: 20},
	})
	if workouts.TotalMinutes != 65 || workouts.TotalCaloriesBurned != 350 {
		t.Fatalf("unexpected workout totals %+v", workouts)
	}

	sleep := SummarizeSleep("2026-03-01", []models.SleepLog{
		{DurationHours: floatPtr(6.5), QualityScore: intPtr(80)},
		{DurationHours: floatPtr(1), QualityScore: intPtr(60)},
		{DurationHours: floatPtr(0.5)},
	})
	if sleep.TotalHours != 8 {
		t.Fatalf("expected 8 hours, got %v", sleep.TotalHours)
	}
	if sleep.AverageQuality == nil || *sleep.AverageQuality != 70 {
		t.Fatalf("expected average quality 70, got %v", sleep.AverageQuality)
	}
	if SummarizeSleep("2026-03-01", nil).AverageQuality != nil {
		t.Fatal("expected no average without scores")
	}
}

func TestLogServiceDefaultsToToday(t *testing.T) {
	service := NewLogService(fixedClock)
	table := &stubLogTable{}

	summary, err := service.NutritionDay(context.Background(), table, "user-1", "")
	if err != nil {
		t.Fatalf("NutritionDay: %v", err)
	}
	if table.listedDate != "2026-03-01" || summary.Date != "2026-03-01" {
		t.Fatalf("expected today, got %q / %q", table.listedDate, summary.Date)
	}

	if _, err := service.NutritionDay(context.Background(), table, "user-1", "03/01/2026"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid date, got %v", err)
	}
}

func TestLogServiceAddNutrition(t *testing.T) {
	service := NewLogService(fixedClock)
	table := &stubLogTable{}

	entry, err := service.AddNutrition(context.Background(), table, "user-1", NutritionInput{
		MealType: "breakfast",
		FoodName: " Oats ",
		Calories: 300,
	})
	if err != nil {
		t.Fatalf("AddNutrition: %v", err)
	}
	if entry.UserID != "user-1" || entry.Date != "2026-03-01" || entry.FoodName != "Oats" {
		t.Fatalf("unexpected entry %+v", entry)
	}
	if table.inserted != entry {
		t.Fatal("expected entry to be inserted")
	}

	_, err = service.AddNutrition(context.Background(), table, "user-1", NutritionInput{MealType: "brunch", FoodName: "Eggs"})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid meal type, got %v", err)
	}
}

func TestLogServiceAddWorkoutRejectsBadExercises(t *testing.T) {
	service := NewLogService(fixedClock)
	_, err := service.AddWorkout(context.Background(), &stubLogTable{}, "user-1", WorkoutInput{
		WorkoutType: "strength",
		Duration:    30,
		Exercises:   []byte(`[{"name":`),
	})
	var vErr *ValidationError
	if !errors.As(err, &vErr) || vErr.Field != "exercises" {
		t.Fatalf("expected exercises validation error, got %v", err)
	}
}

func TestLogServiceWrapsStoreErrors(t *testing.T) {
	service := NewLogService(fixedClock)
	storeErr := errors.New("boom")
	_, err := service.SleepDay(context.Background(), &stubLogTable{err: storeErr}, "user-1", "2026-03-01")
	if !errors.Is(err, storeErr) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}

func TestCoachMessagesUseDisplayName(t *testing.T) {
	service := NewCoachService()

	messages := service.Messages(&models.UserProfile{Name: "Ana"})
	if len(messages) != 4 || !strings.Contains(messages[0].Content, "Bom dia, Ana!") {
		t.Fatalf("unexpected messages %+v", messages)
	}
	if messages[1].Role != "user" {
		t.Fatalf("expected second message from the user, got %q", messages[1].Role)
	}

	anonymous := service.Messages(nil)
	if !strings.Contains(anonymous[0].Content, DefaultDisplayName) {
		t.Fatalf("expected default name, got %q", anonymous[0].Content)
	}
}

func TestPlanCatalog(t *testing.T) {
	catalog := NewPlanCatalog()
	plans := catalog.List()
	if len(plans) != 2 || plans[0].Type != models.PlanFree || plans[1].Type != models.PlanPremium {
		t.Fatalf("unexpected plans %+v", plans)
	}
	premium, ok := catalog.Get(models.PlanPremium)
	if !ok || premium.PriceCents != 2990 || !premium.Highlighted {
		t.Fatalf("unexpected premium plan %+v", premium)
	}
	if _, ok := catalog.Get("gold"); ok {
		t.Fatal("expected unknown plan to be missing")
	}
}

func TestGamificationCard(t *testing.T) {
	card := Card(&models.Gamification{Level: 2, XP: 250, VitaPoints: 1200, StreakDays: 4})
	if card.XPForNextLevel != 1000 || card.XPToNextLevel != 750 || card.XPProgress != 25 {
		t.Fatalf("unexpected card %+v", card)
	}

	fresh := Card(nil)
	if fresh.Level != 1 || fresh.XPForNextLevel != 500 || fresh.XPToNextLevel != 500 || fresh.XPProgress != 0 {
		t.Fatalf("unexpected starting card %+v", fresh)
	}
}

func TestDashboardBuild(t *testing.T) {
	service := NewDashboardService(NewLogService(fixedClock), NewCoachService())
	table := &stubLogTable{
		nutrition: []models.NutritionLog{{Calories: 1300}},
		workouts:  []models.WorkoutLog{{Duration: 45, CaloriesBurned: intPtr(350)}},
	}

	dashboard, err := service.Build(context.Background(), table, "user-1",
		&models.UserProfile{Name: "Ana", PlanType: models.PlanPremium}, models.NewGamification("user-1"))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if dashboard.Greeting != "Olá, Ana! 👋" || dashboard.PlanType != models.PlanPremium {
		t.Fatalf("unexpected header %+v", dashboard)
	}
	if dashboard.Nutrition.RemainingCalories != 700 || dashboard.Workout.TotalMinutes != 45 {
		t.Fatalf("unexpected summaries %+v %+v", dashboard.Nutrition, dashboard.Workout)
	}
	if dashboard.Sleep == nil || dashboard.Mission == "" {
		t.Fatal("expected sleep summary and mission")
	}
}

type stubAuthenticator struct {
	signUpEmail string
	signUpName  string
	signInEmail string
	report      session.ProvisionReport
}

func (s *stubAuthenticator) SignUp(_ context.Context, email, _ string, name string) (session.ProvisionReport, error) {
	s.signUpEmail = email
	s.signUpName = name
	return s.report, nil
}

func (s *stubAuthenticator) SignIn(_ context.Context, email, _ string) error {
	s.signInEmail = email
	return nil
}

func TestAuthServiceNormalizesAndValidates(t *testing.T) {
	service := NewAuthService()
	auth := &stubAuthenticator{report: session.ProvisionReport{RowsReady: true}}

	report, err := service.SignUp(context.Background(), auth, SignUpInput{Email: "  Ana@Example.COM ", Password: "secret1", Name: " Ana "})
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}
	if !report.RowsReady || auth.signUpEmail != "ana@example.com" || auth.signUpName != "Ana" {
		t.Fatalf("unexpected forwarding: %+v %+v", report, auth)
	}

	cases := map[string]SignUpInput{
		"email must be a valid email address":    {Email: "not-an-email", Password: "secret1"},
		"password must be at least 6 characters": {Email: "ana@example.com", Password: "123"},
		"email is required":                      {Password: "secret1"},
	}
	for want, input := range cases {
		_, err := service.SignUp(context.Background(), auth, input)
		if !errors.Is(err, ErrInvalidInput) || err.Error() != want {
			t.Errorf("expected %q, got %v", want, err)
		}
	}

	if err := service.SignIn(context.Background(), auth, SignInInput{Email: "ANA@example.com", Password: "x"}); err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if auth.signInEmail != "ana@example.com" {
		t.Fatalf("expected normalized email, got %q", auth.signInEmail)
	}
	if err := service.SignIn(context.Background(), auth, SignInInput{Email: "ana@example.com"}); err == nil {
		t.Fatal("expected a missing password to be rejected")
	}
}
