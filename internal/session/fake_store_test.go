package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/vitaup/VitaUpBack/internal/models"
	"github.com/vitaup/VitaUpBack/internal/store"
)

type fakeUser struct {
	id       string
	password string
}

// fakeStore is an in-memory data store with row-level-security and
// server-side-trigger knobs.
type fakeStore struct {
	holder store.SessionHolder

	mu       sync.Mutex
	users    map[string]fakeUser
	profiles map[string]*models.UserProfile
	games    map[string]*models.Gamification
	nextID   int
	tokenSeq int

	denyInserts bool
	// triggerAfterReads provisions default rows server-side once the
	// profile has been read this many times. Zero disables it.
	triggerAfterReads int
	signOutErr        error
	profileErr        error
	gamificationErr   error
	updateErr         error

	profileReads int
	updateCalls  int
	lastPatch    models.ProfilePatch
	closed       bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:    make(map[string]fakeUser),
		profiles: make(map[string]*models.UserProfile),
		games:    make(map[string]*models.Gamification),
	}
}

func (s *fakeStore) addUser(email, password string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := fmt.Sprintf("user-%d", s.nextID)
	s.users[email] = fakeUser{id: id, password: password}
	return id
}

func (s *fakeStore) newSession(userID, email string) *models.AuthSession {
	s.tokenSeq++
	return &models.AuthSession{
		AccessToken:  fmt.Sprintf("access-%d", s.tokenSeq),
		RefreshToken: fmt.Sprintf("refresh-%d", s.tokenSeq),
		TokenType:    "bearer",
		User:         models.AuthUser{ID: userID, Email: email},
	}
}

func (s *fakeStore) SignUp(_ context.Context, email, password string) (*models.AuthSession, error) {
	s.mu.Lock()
	if _, ok := s.users[email]; ok {
		s.mu.Unlock()
		return nil, store.ErrUserExists
	}
	s.nextID++
	id := fmt.Sprintf("user-%d", s.nextID)
	s.users[email] = fakeUser{id: id, password: password}
	session := s.newSession(id, email)
	s.mu.Unlock()

	s.holder.Set(models.EventSignedIn, session)
	return session, nil
}

func (s *fakeStore) SignInWithPassword(_ context.Context, email, password string) (*models.AuthSession, error) {
	s.mu.Lock()
	user, ok := s.users[email]
	if !ok || user.password != password {
		s.mu.Unlock()
		return nil, store.ErrInvalidCredentials
	}
	session := s.newSession(user.id, email)
	s.mu.Unlock()

	s.holder.Set(models.EventSignedIn, session)
	return session, nil
}

func (s *fakeStore) SignOut(_ context.Context) error {
	s.holder.Set(models.EventSignedOut, nil)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.signOutErr
}

func (s *fakeStore) GetSession(_ context.Context) (*models.AuthSession, error) {
	return s.holder.Current(), nil
}

func (s *fakeStore) OnAuthStateChange(listener store.AuthListener) func() {
	return s.holder.Subscribe(listener)
}

func (s *fakeStore) GetProfile(_ context.Context, userID string) (*models.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profileReads++
	if s.profileErr != nil {
		return nil, s.profileErr
	}
	if s.triggerAfterReads > 0 && s.profileReads >= s.triggerAfterReads {
		if _, ok := s.profiles[userID]; !ok {
			s.profiles[userID] = &models.UserProfile{ID: userID, PlanType: models.PlanFree}
			s.games[userID] = models.NewGamification(userID)
		}
	}
	profile, ok := s.profiles[userID]
	if !ok {
		return nil, store.ErrNoRows
	}
	return profile.Clone(), nil
}

func (s *fakeStore) InsertProfile(_ context.Context, profile *models.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.denyInserts {
		return &store.APIError{Status: 403, Code: store.CodePermissionDenied, Message: "new row violates row-level security policy", Err: store.ErrPermissionDenied}
	}
	s.profiles[profile.ID] = profile.Clone()
	return nil
}

func (s *fakeStore) UpdateProfile(_ context.Context, userID string, patch models.ProfilePatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updateCalls++
	s.lastPatch = patch
	if s.updateErr != nil {
		return s.updateErr
	}
	profile, ok := s.profiles[userID]
	if !ok {
		return nil
	}
	patch.Apply(profile)
	return nil
}

func (s *fakeStore) GetGamification(_ context.Context, userID string) (*models.Gamification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gamificationErr != nil {
		return nil, s.gamificationErr
	}
	record, ok := s.games[userID]
	if !ok {
		return nil, store.ErrNoRows
	}
	return record.Clone(), nil
}

func (s *fakeStore) InsertGamification(_ context.Context, record *models.Gamification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.denyInserts {
		return &store.APIError{Status: 403, Code: store.CodePermissionDenied, Err: store.ErrPermissionDenied}
	}
	s.games[record.UserID] = record.Clone()
	return nil
}

func (s *fakeStore) ListNutritionLogs(context.Context, string, string) ([]models.NutritionLog, error) {
	return nil, nil
}

func (s *fakeStore) InsertNutritionLog(context.Context, *models.NutritionLog) error { return nil }

func (s *fakeStore) ListWorkoutLogs(context.Context, string, string) ([]models.WorkoutLog, error) {
	return nil, nil
}

func (s *fakeStore) InsertWorkoutLog(context.Context, *models.WorkoutLog) error { return nil }

func (s *fakeStore) ListSleepLogs(context.Context, string, string) ([]models.SleepLog, error) {
	return nil, nil
}

func (s *fakeStore) InsertSleepLog(context.Context, *models.SleepLog) error { return nil }

func (s *fakeStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeStore) set(fn func(s *fakeStore)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s)
}

func (s *fakeStore) reads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profileReads
}
