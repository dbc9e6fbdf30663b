// Package storetest provides an in-memory store.Client for tests of code
// built on top of the data store.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vitaup/VitaUpBack/internal/models"
	"github.com/vitaup/VitaUpBack/internal/store"
)

// Backend is the shared server side: accounts and rows. Every Memory
// client created from it sees the same data.
type Backend struct {
	mu          sync.Mutex
	users       map[string]account
	profiles    map[string]*models.UserProfile
	games       map[string]*models.Gamification
	nutrition   []models.NutritionLog
	workouts    []models.WorkoutLog
	sleep       []models.SleepLog
	nextUser    int
	nextToken   int
	nextRow     int
	updateErr   error
	signOutErr  error
	clientsMade int
}

type account struct {
	id       string
	password string
}

func NewBackend() *Backend {
	return &Backend{
		users:    make(map[string]account),
		profiles: make(map[string]*models.UserProfile),
		games:    make(map[string]*models.Gamification),
	}
}

// Factory returns a store.Factory handing out clients of b.
func (b *Backend) Factory() store.Factory {
	return func() (store.Client, error) {
		b.mu.Lock()
		b.clientsMade++
		b.mu.Unlock()
		return &Memory{backend: b}, nil
	}
}

// AddUser registers an account with a provisioned profile and
// gamification record.
func (b *Backend) AddUser(email, password, name string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.createLocked(email, password)
	b.profiles[id] = &models.UserProfile{ID: id, Name: name, PlanType: models.PlanFree}
	return id
}

func (b *Backend) createLocked(email, password string) string {
	b.nextUser++
	id := fmt.Sprintf("user-%d", b.nextUser)
	b.users[email] = account{id: id, password: password}
	b.games[id] = models.NewGamification(id)
	return id
}

func (b *Backend) Profile(userID string) *models.UserProfile {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.profiles[userID].Clone()
}

func (b *Backend) SetGamification(record *models.Gamification) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.games[record.UserID] = record.Clone()
}

func (b *Backend) FailUpdates(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.updateErr = err
}

func (b *Backend) FailSignOut(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.signOutErr = err
}

func (b *Backend) ClientsMade() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.clientsMade
}

func (b *Backend) NutritionLogs() []models.NutritionLog {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]models.NutritionLog(nil), b.nutrition...)
}

// Memory is one client of a Backend holding at most one session.
type Memory struct {
	backend *Backend
	holder  store.SessionHolder
}

var _ store.Client = (*Memory)(nil)

func (m *Memory) newSession(userID, email string) *models.AuthSession {
	m.backend.nextToken++
	return &models.AuthSession{
		AccessToken:  fmt.Sprintf("access-%d", m.backend.nextToken),
		RefreshToken: fmt.Sprintf("refresh-%d", m.backend.nextToken),
		TokenType:    "bearer",
		ExpiresAt:    time.Now().Add(time.Hour).UTC(),
		User:         models.AuthUser{ID: userID, Email: email},
	}
}

func (m *Memory) SignUp(_ context.Context, email, password string) (*models.AuthSession, error) {
	b := m.backend
	b.mu.Lock()
	if _, ok := b.users[email]; ok {
		b.mu.Unlock()
		return nil, &store.APIError{Status: 422, Code: "user_already_exists", Message: "User already registered", Err: store.ErrUserExists}
	}
	if len(password) < 6 {
		b.mu.Unlock()
		return nil, &store.APIError{Status: 422, Code: "weak_password", Message: "Password should be at least 6 characters", Err: store.ErrWeakPassword}
	}
	id := b.createLocked(email, password)
	session := m.newSession(id, email)
	b.mu.Unlock()

	m.holder.Set(models.EventSignedIn, session)
	return session.Clone(), nil
}

func (m *Memory) SignInWithPassword(_ context.Context, email, password string) (*models.AuthSession, error) {
	b := m.backend
	b.mu.Lock()
	user, ok := b.users[email]
	if !ok || user.password != password {
		b.mu.Unlock()
		return nil, &store.APIError{Status: 400, Code: "invalid_credentials", Message: "Invalid login credentials", Err: store.ErrInvalidCredentials}
	}
	session := m.newSession(user.id, email)
	b.mu.Unlock()

	m.holder.Set(models.EventSignedIn, session)
	return session.Clone(), nil
}

func (m *Memory) SignOut(_ context.Context) error {
	if m.holder.Current() == nil {
		return nil
	}
	m.holder.Set(models.EventSignedOut, nil)
	m.backend.mu.Lock()
	defer m.backend.mu.Unlock()
	return m.backend.signOutErr
}

func (m *Memory) GetSession(_ context.Context) (*models.AuthSession, error) {
	return m.holder.Current(), nil
}

func (m *Memory) OnAuthStateChange(listener store.AuthListener) func() {
	return m.holder.Subscribe(listener)
}

// owner enforces the row-level rule that a user only touches own rows.
func (m *Memory) owner(userID string) error {
	if current := m.holder.Current(); current == nil || current.UserID() != userID {
		return &store.APIError{Status: 403, Code: store.CodePermissionDenied, Err: store.ErrPermissionDenied}
	}
	return nil
}

func (m *Memory) GetProfile(_ context.Context, userID string) (*models.UserProfile, error) {
	b := m.backend
	b.mu.Lock()
	defer b.mu.Unlock()
	profile, ok := b.profiles[userID]
	if !ok || m.owner(userID) != nil {
		return nil, store.ErrNoRows
	}
	return profile.Clone(), nil
}

func (m *Memory) InsertProfile(_ context.Context, profile *models.UserProfile) error {
	if err := m.owner(profile.ID); err != nil {
		return err
	}
	b := m.backend
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.profiles[profile.ID]; ok {
		return &store.APIError{Status: 409, Code: store.CodeUniqueViolation, Message: "duplicate key"}
	}
	b.profiles[profile.ID] = profile.Clone()
	return nil
}

func (m *Memory) UpdateProfile(_ context.Context, userID string, patch models.ProfilePatch) error {
	b := m.backend
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.updateErr != nil {
		return b.updateErr
	}
	if profile, ok := b.profiles[userID]; ok && m.owner(userID) == nil {
		patch.Apply(profile)
	}
	return nil
}

func (m *Memory) GetGamification(_ context.Context, userID string) (*models.Gamification, error) {
	b := m.backend
	b.mu.Lock()
	defer b.mu.Unlock()
	record, ok := b.games[userID]
	if !ok || m.owner(userID) != nil {
		return nil, store.ErrNoRows
	}
	return record.Clone(), nil
}

// InsertGamification is denied: the record is created server-side.
func (m *Memory) InsertGamification(context.Context, *models.Gamification) error {
	return &store.APIError{Status: 403, Code: store.CodePermissionDenied, Message: "new row violates row-level security policy", Err: store.ErrPermissionDenied}
}

func (m *Memory) rowID() string {
	m.backend.nextRow++
	return fmt.Sprintf("row-%d", m.backend.nextRow)
}

func (m *Memory) ListNutritionLogs(_ context.Context, userID, date string) ([]models.NutritionLog, error) {
	b := m.backend
	b.mu.Lock()
	defer b.mu.Unlock()
	out := []models.NutritionLog{}
	for _, entry := range b.nutrition {
		if entry.UserID == userID && entry.Date == date && m.owner(userID) == nil {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (m *Memory) InsertNutritionLog(_ context.Context, entry *models.NutritionLog) error {
	if err := m.owner(entry.UserID); err != nil {
		return err
	}
	b := m.backend
	b.mu.Lock()
	defer b.mu.Unlock()
	row := *entry
	row.ID = m.rowID()
	b.nutrition = append(b.nutrition, row)
	return nil
}

func (m *Memory) ListWorkoutLogs(_ context.Context, userID, date string) ([]models.WorkoutLog, error) {
	b := m.backend
	b.mu.Lock()
	defer b.mu.Unlock()
	out := []models.WorkoutLog{}
	for _, entry := range b.workouts {
		if entry.UserID == userID && entry.Date == date && m.owner(userID) == nil {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (m *Memory) InsertWorkoutLog(_ context.Context, entry *models.WorkoutLog) error {
	if err := m.owner(entry.UserID); err != nil {
		return err
	}
	b := m.backend
	b.mu.Lock()
	defer b.mu.Unlock()
	row := *entry
	row.ID = m.rowID()
	b.workouts = append(b.workouts, row)
	return nil
}

func (m *Memory) ListSleepLogs(_ context.Context, userID, date string) ([]models.SleepLog, error) {
	b := m.backend
	b.mu.Lock()
	defer b.mu.Unlock()
	out := []models.SleepLog{}
	for _, entry := range b.sleep {
		if entry.UserID == userID && entry.Date == date && m.owner(userID) == nil {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (m *Memory) InsertSleepLog(_ context.Context, entry *models.SleepLog) error {
	if err := m.owner(entry.UserID); err != nil {
		return err
	}
	b := m.backend
	b.mu.Lock()
	defer b.mu.Unlock()
	row := *entry
	row.ID = m.rowID()
	b.sleep = append(b.sleep, row)
	return nil
}

func (m *Memory) Close() error {
	return nil
}
