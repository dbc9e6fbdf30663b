package session

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/vitaup/VitaUpBack/internal/models"
)

type Status string

const (
	StatusInitializing    Status = "initializing"
	StatusUnauthenticated Status = "unauthenticated"
	StatusLoading         Status = "loading"
	StatusReady           Status = "ready"
)

// State is a snapshot of what the manager knows about the current client.
// Snapshots are deep copies and safe to keep.
type State struct {
	Status       Status
	Session      *models.AuthSession
	Profile      *models.UserProfile
	Gamification *models.Gamification
}

func (s State) Authenticated() bool {
	return s.Session != nil
}

func (s State) UserID() string {
	return s.Session.UserID()
}

func (s State) clone() State {
	return State{
		Status:       s.Status,
		Session:      s.Session.Clone(),
		Profile:      s.Profile.Clone(),
		Gamification: s.Gamification.Clone(),
	}
}

// Subscription delivers state snapshots. C holds at most one pending
// snapshot; a slow reader only ever sees the latest state.
type Subscription struct {
	C <-chan State

	ch      chan State
	manager *Manager
	once    sync.Once
}

// Close detaches the subscription and closes C.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.manager.removeSubscription(s)
	})
}

func (s *Subscription) offer(state State) {
	select {
	case s.ch <- state:
		return
	default:
	}
	select {
	case <-s.ch:
	default:
	}
	select {
	case s.ch <- state:
	default:
	}
}

// stateView is the wire shape of a State. Tokens never leave the server.
type stateView struct {
	Status        Status               `json:"status"`
	Authenticated bool                 `json:"authenticated"`
	User          *models.AuthUser     `json:"user,omitempty"`
	ExpiresAt     *time.Time           `json:"expires_at,omitempty"`
	Profile       *models.UserProfile  `json:"profile"`
	Gamification  *models.Gamification `json:"gamification"`
}

func (s State) MarshalJSON() ([]byte, error) {
	view := stateView{
		Status:        s.Status,
		Authenticated: s.Authenticated(),
		Profile:       s.Profile,
		Gamification:  s.Gamification,
	}
	if s.Session != nil {
		user := s.Session.User
		view.User = &user
		if !s.Session.ExpiresAt.IsZero() {
			expiresAt := s.Session.ExpiresAt
			view.ExpiresAt = &expiresAt
		}
	}
	return json.Marshal(view)
}
