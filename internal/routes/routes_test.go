package routes

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/vitaup/VitaUpBack/internal/config"
	"github.com/vitaup/VitaUpBack/internal/handlers"
	"github.com/vitaup/VitaUpBack/internal/middleware"
	"github.com/vitaup/VitaUpBack/internal/models"
	"github.com/vitaup/VitaUpBack/internal/session"
	"github.com/vitaup/VitaUpBack/internal/store/storetest"
	statews "github.com/vitaup/VitaUpBack/internal/websocket"
	"go.uber.org/zap"
)

var testToday = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

type testServer struct {
	app     *fiber.App
	backend *storetest.Backend
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	backend := storetest.NewBackend()
	registry := session.NewRegistry(backend.Factory(), session.Options{ProvisionMaxWait: time.Second}, time.Minute)
	t.Cleanup(registry.Close)

	ctx, cancel := context.WithCancel(context.Background())
	hub := statews.NewHub(nil)
	go hub.Run(ctx)
	t.Cleanup(cancel)

	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler(zap.NewNop())})
	err := RegisterRoutes(app, Dependencies{
		Config:  &config.Config{AppEnv: "test", ClientCookieSecret: "cookie-secret"},
		Clients: registry,
		Hub:     hub,
		Logger:  zap.NewNop(),
		Now:     func() time.Time { return testToday },
	})
	if err != nil {
		t.Fatalf("RegisterRoutes: %v", err)
	}
	return &testServer{app: app, backend: backend}
}

// browser keeps the client cookie between requests like a real browser.
type browser struct {
	t      *testing.T
	server *testServer
	cookie *http.Cookie
}

func (s *testServer) browser(t *testing.T) *browser {
	return &browser{t: t, server: s}
}

func (b *browser) do(method, path, body string) (int, map[string]any) {
	b.t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if b.cookie != nil {
		req.AddCookie(b.cookie)
	}

	resp, err := b.server.app.Test(req, 5000)
	if err != nil {
		b.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	for _, cookie := range resp.Cookies() {
		if cookie.Name == middleware.ClientCookieName {
			b.cookie = cookie
		}
	}

	raw, _ := io.ReadAll(resp.Body)
	decoded := map[string]any{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &decoded); err != nil {
			b.t.Fatalf("%s %s: decode %s: %v", method, path, raw, err)
		}
	}
	return resp.StatusCode, decoded
}

func stateOf(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	state, ok := body["state"].(map[string]any)
	if !ok {
		t.Fatalf("expected a state in %v", body)
	}
	return state
}

func profileOf(t *testing.T, state map[string]any) map[string]any {
	t.Helper()
	profile, ok := state["profile"].(map[string]any)
	if !ok {
		t.Fatalf("expected a profile in %v", state)
	}
	return profile
}

func TestHealth(t *testing.T) {
	server := newTestServer(t)
	status, body := server.browser(t).do(http.MethodGet, "/health", "")
	if status != http.StatusOK || body["status"] != "ok" {
		t.Fatalf("unexpected health answer: %d %v", status, body)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	server := newTestServer(t)
	resp, err := server.app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestSignUpLoadsProvisionedState(t *testing.T) {
	server := newTestServer(t)
	b := server.browser(t)

	status, body := b.do(http.MethodPost, "/api/auth/signup", `{"email":"Ana@Example.com","password":"secret1","name":"Ana"}`)
	if status != http.StatusCreated {
		t.Fatalf("expected 201, got %d %v", status, body)
	}
	state := stateOf(t, body)
	if state["status"] != "ready" || state["authenticated"] != true {
		t.Fatalf("expected a ready session, got %v", state)
	}
	if profileOf(t, state)["name"] != "Ana" {
		t.Fatalf("expected the signup name on the profile, got %v", state)
	}
	provisioning, _ := body["provisioning"].(map[string]any)
	if provisioning["profile"] != "created" || provisioning["gamification"] != "permission_denied" || provisioning["rows_ready"] != true {
		t.Fatalf("unexpected provisioning report: %v", provisioning)
	}

	status, body = b.do(http.MethodGet, "/api/auth/state", "")
	if status != http.StatusOK || stateOf(t, body)["authenticated"] != true {
		t.Fatalf("expected the cookie to keep the session, got %d %v", status, body)
	}
}

func TestSignUpErrors(t *testing.T) {
	server := newTestServer(t)
	server.backend.AddUser("ana@example.com", "secret1", "Ana")

	cases := []struct {
		body   string
		status int
	}{
		{`{"email":"ana@example.com","password":"secret1"}`, http.StatusConflict},
		{`{"email":"bia@example.com","password":"123"}`, http.StatusBadRequest},
		{`{"email":"not-an-email","password":"secret1"}`, http.StatusBadRequest},
		{`{"email":`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		status, body := server.browser(t).do(http.MethodPost, "/api/auth/signup", tc.body)
		if status != tc.status || body["error"] == nil {
			t.Errorf("%s: expected %d with an error, got %d %v", tc.body, tc.status, status, body)
		}
	}
}

func TestLoginAndLogout(t *testing.T) {
	server := newTestServer(t)
	server.backend.AddUser("ana@example.com", "secret1", "Ana")
	b := server.browser(t)

	status, body := b.do(http.MethodPost, "/api/auth/login", `{"email":"ana@example.com","password":"wrong"}`)
	if status != http.StatusUnauthorized || body["error"] != "Invalid email or password" {
		t.Fatalf("expected 401 for a bad password, got %d %v", status, body)
	}

	status, body = b.do(http.MethodPost, "/api/auth/login", `{"email":"ana@example.com","password":"secret1"}`)
	if status != http.StatusOK || stateOf(t, body)["status"] != "ready" {
		t.Fatalf("expected a ready session, got %d %v", status, body)
	}

	status, body = b.do(http.MethodPost, "/api/auth/logout", "")
	if status != http.StatusOK || stateOf(t, body)["authenticated"] != false {
		t.Fatalf("expected a cleared session, got %d %v", status, body)
	}
	if status, _ := b.do(http.MethodGet, "/api/profile", ""); status != http.StatusUnauthorized {
		t.Fatalf("expected protected routes to reject a signed-out client, got %d", status)
	}
}

func TestLogoutReportsRemoteFailure(t *testing.T) {
	server := newTestServer(t)
	server.backend.AddUser("ana@example.com", "secret1", "Ana")
	server.backend.FailSignOut(errors.New("network down"))
	b := server.browser(t)

	b.do(http.MethodPost, "/api/auth/login", `{"email":"ana@example.com","password":"secret1"}`)
	status, body := b.do(http.MethodPost, "/api/auth/logout", "")
	if status != http.StatusOK || body["warning"] == nil || stateOf(t, body)["authenticated"] != false {
		t.Fatalf("expected a local sign-out with a warning, got %d %v", status, body)
	}
}

func TestProtectedRoutesNeedSession(t *testing.T) {
	server := newTestServer(t)
	b := server.browser(t)
	for _, path := range []string{"/api/profile", "/api/dashboard", "/api/coach/messages", "/api/logs/nutrition"} {
		if status, _ := b.do(http.MethodGet, path, ""); status != http.StatusUnauthorized {
			t.Errorf("%s: expected 401, got %d", path, status)
		}
	}
}

func TestClientsAreIsolated(t *testing.T) {
	server := newTestServer(t)
	server.backend.AddUser("ana@example.com", "secret1", "Ana")

	first := server.browser(t)
	second := server.browser(t)
	first.do(http.MethodPost, "/api/auth/login", `{"email":"ana@example.com","password":"secret1"}`)

	_, body := second.do(http.MethodGet, "/api/auth/state", "")
	if stateOf(t, body)["authenticated"] != false {
		t.Fatalf("expected another browser to stay signed out, got %v", body)
	}
	if first.cookie == nil || second.cookie == nil || first.cookie.Value == second.cookie.Value {
		t.Fatal("expected each browser to get its own client cookie")
	}
}

func TestProfileUpdate(t *testing.T) {
	server := newTestServer(t)
	server.backend.AddUser("ana@example.com", "secret1", "Ana")
	b := server.browser(t)
	b.do(http.MethodPost, "/api/auth/login", `{"email":"ana@example.com","password":"secret1"}`)

	status, body := b.do(http.MethodPatch, "/api/profile", `{"goal":"gain","weight":70.5}`)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d %v", status, body)
	}
	profile := profileOf(t, stateOf(t, body))
	if profile["goal"] != "gain" || profile["weight"] != 70.5 || profile["name"] != "Ana" {
		t.Fatalf("expected the patch merged into the profile, got %v", profile)
	}

	status, body = b.do(http.MethodPatch, "/api/profile", `{"plan_type":"premium"}`)
	if status != http.StatusBadRequest || body["error"] != "plan_type cannot be changed" {
		t.Fatalf("expected plan changes to be rejected, got %d %v", status, body)
	}
	status, _ = b.do(http.MethodPatch, "/api/profile", `{"goal":"sprint"}`)
	if status != http.StatusBadRequest {
		t.Fatalf("expected an invalid goal to be rejected, got %d", status)
	}

	server.backend.FailUpdates(errors.New("upstream unavailable"))
	status, body = b.do(http.MethodPatch, "/api/profile", `{"goal":"lose"}`)
	if status != http.StatusBadGateway {
		t.Fatalf("expected 502 when the store rejects the update, got %d %v", status, body)
	}
}

func TestProfileCardAndRefresh(t *testing.T) {
	server := newTestServer(t)
	userID := server.backend.AddUser("ana@example.com", "secret1", "Ana")
	b := server.browser(t)
	b.do(http.MethodPost, "/api/auth/login", `{"email":"ana@example.com","password":"secret1"}`)

	server.backend.SetGamification(&models.Gamification{UserID: userID, Level: 2, XP: 250, Achievements: []string{}})

	_, body := b.do(http.MethodGet, "/api/profile", "")
	card, _ := body["gamification"].(map[string]any)
	if card["level"] != float64(1) {
		t.Fatalf("expected the cached record before refresh, got %v", card)
	}

	status, body := b.do(http.MethodPost, "/api/profile/refresh", "")
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	game, _ := stateOf(t, body)["gamification"].(map[string]any)
	if game["level"] != float64(2) || game["xp"] != float64(250) {
		t.Fatalf("expected the refreshed record, got %v", game)
	}

	_, body = b.do(http.MethodGet, "/api/profile", "")
	card, _ = body["gamification"].(map[string]any)
	if card["xp_progress"] != float64(25) || card["xp_to_next_level"] != float64(750) {
		t.Fatalf("unexpected card: %v", card)
	}
}

func TestOnboarding(t *testing.T) {
	server := newTestServer(t)
	userID := server.backend.AddUser("ana@example.com", "secret1", "")
	b := server.browser(t)
	b.do(http.MethodPost, "/api/auth/login", `{"email":"ana@example.com","password":"secret1"}`)

	status, body := b.do(http.MethodPost, "/api/onboarding", `{"name":"Ana","goal":"fitness","available_time":45,"restrictions":["vegan"]}`)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d %v", status, body)
	}
	stored := server.backend.Profile(userID)
	if stored.Name != "Ana" || stored.Goal == nil || *stored.Goal != "fitness" || len(stored.Restrictions) != 1 {
		t.Fatalf("expected the wizard to be saved, got %+v", stored)
	}

	status, body = b.do(http.MethodPost, "/api/onboarding", `{"name":"Ana","goal":"fitness","available_time":20}`)
	if status != http.StatusBadRequest || body["error"] != "available_time must be one of: 15, 30, 45, 60" {
		t.Fatalf("expected an available_time error, got %d %v", status, body)
	}
}

func TestNutritionLogFlow(t *testing.T) {
	server := newTestServer(t)
	server.backend.AddUser("ana@example.com", "secret1", "Ana")
	b := server.browser(t)
	b.do(http.MethodPost, "/api/auth/login", `{"email":"ana@example.com","password":"secret1"}`)

	status, body := b.do(http.MethodPost, "/api/logs/nutrition", `{"meal_type":"lunch","food_name":"Arroz e feijão","calories":650,"protein":30}`)
	if status != http.StatusCreated {
		t.Fatalf("expected 201, got %d %v", status, body)
	}
	entry, _ := body["entry"].(map[string]any)
	if entry["date"] != "2026-03-01" {
		t.Fatalf("expected the entry to default to today, got %v", entry)
	}

	status, body = b.do(http.MethodGet, "/api/logs/nutrition", "")
	if status != http.StatusOK || body["total_calories"] != float64(650) || body["remaining_calories"] != float64(1350) {
		t.Fatalf("unexpected summary: %d %v", status, body)
	}
	_, body = b.do(http.MethodGet, "/api/logs/nutrition?date=2026-02-28", "")
	if body["total_calories"] != float64(0) {
		t.Fatalf("expected an empty day, got %v", body)
	}
	status, _ = b.do(http.MethodGet, "/api/logs/nutrition?date=01/03/2026", "")
	if status != http.StatusBadRequest {
		t.Fatalf("expected a malformed date to be rejected, got %d", status)
	}
	status, _ = b.do(http.MethodPost, "/api/logs/nutrition", `{"meal_type":"brunch","food_name":"x","calories":1}`)
	if status != http.StatusBadRequest {
		t.Fatalf("expected an unknown meal type to be rejected, got %d", status)
	}
}

func TestWorkoutAndSleepLogs(t *testing.T) {
	server := newTestServer(t)
	server.backend.AddUser("ana@example.com", "secret1", "Ana")
	b := server.browser(t)
	b.do(http.MethodPost, "/api/auth/login", `{"email":"ana@example.com","password":"secret1"}`)

	status, body := b.do(http.MethodPost, "/api/logs/workout", `{"workout_type":"corrida","duration":30,"calories_burned":280,"exercises":[{"name":"sprint"}]}`)
	if status != http.StatusCreated {
		t.Fatalf("expected 201, got %d %v", status, body)
	}
	_, body = b.do(http.MethodGet, "/api/logs/workout", "")
	if body["total_minutes"] != float64(30) || body["total_calories_burned"] != float64(280) {
		t.Fatalf("unexpected workout summary: %v", body)
	}

	status, body = b.do(http.MethodPost, "/api/logs/sleep", `{"sleep_time":"23:00","wake_time":"07:00","duration_hours":8,"quality_score":80}`)
	if status != http.StatusCreated {
		t.Fatalf("expected 201, got %d %v", status, body)
	}
	_, body = b.do(http.MethodGet, "/api/logs/sleep", "")
	if body["total_hours"] != float64(8) || body["average_quality"] != float64(80) {
		t.Fatalf("unexpected sleep summary: %v", body)
	}
}

func TestDashboardCoachAndPlans(t *testing.T) {
	server := newTestServer(t)
	server.backend.AddUser("ana@example.com", "secret1", "Ana")
	b := server.browser(t)

	status, body := b.do(http.MethodGet, "/api/plans", "")
	if status != http.StatusOK || body["current_plan"] != nil {
		t.Fatalf("expected public plans without a current plan, got %d %v", status, body)
	}
	if plans, _ := body["plans"].([]any); len(plans) != 2 {
		t.Fatalf("expected two plans, got %v", body["plans"])
	}

	b.do(http.MethodPost, "/api/auth/login", `{"email":"ana@example.com","password":"secret1"}`)
	_, body = b.do(http.MethodGet, "/api/plans", "")
	if body["current_plan"] != "free" {
		t.Fatalf("expected the free plan for a signed-in user, got %v", body)
	}

	status, body = b.do(http.MethodGet, "/api/dashboard", "")
	if status != http.StatusOK || body["display_name"] != "Ana" {
		t.Fatalf("unexpected dashboard: %d %v", status, body)
	}
	if nutrition, _ := body["nutrition"].(map[string]any); nutrition["date"] != "2026-03-01" {
		t.Fatalf("expected today's nutrition on the dashboard, got %v", body["nutrition"])
	}

	status, body = b.do(http.MethodGet, "/api/coach/messages", "")
	messages, _ := body["messages"].([]any)
	if status != http.StatusOK || len(messages) == 0 || body["mission"] == nil {
		t.Fatalf("unexpected coach answer: %d %v", status, body)
	}
}

func TestStateStreamNeedsUpgrade(t *testing.T) {
	server := newTestServer(t)
	status, body := server.browser(t).do(http.MethodGet, "/api/ws/state", "")
	if status != http.StatusUpgradeRequired || body["error"] == nil {
		t.Fatalf("expected 426 for a plain request, got %d %v", status, body)
	}
}

func TestRegisterRoutesNeedsDependencies(t *testing.T) {
	if err := RegisterRoutes(fiber.New(), Dependencies{}); err == nil {
		t.Fatal("expected missing dependencies to be rejected")
	}
}
