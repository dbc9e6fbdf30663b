// Package store defines the Remote Data Store port: the hosted auth and
// table API the session manager and feature screens talk to.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/vitaup/VitaUpBack/internal/models"
)

const (
	TableUserProfiles  = "user_profiles"
	TableGamification  = "gamification"
	TableNutritionLogs = "nutrition_logs"
	TableWorkoutLogs   = "workout_logs"
	TableSleepLogs     = "sleep_logs"
)

// Postgres / PostgREST codes the stores translate into sentinels.
const (
	CodePermissionDenied = "42501"
	CodeUniqueViolation  = "23505"
	CodeNoRows           = "PGRST116"
)

var (
	ErrNoRows             = errors.New("no rows in result set")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrInvalidCredentials = errors.New("invalid login credentials")
	ErrUserExists         = errors.New("user already registered")
	ErrWeakPassword       = errors.New("password is too weak")
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrSessionExpired     = errors.New("session expired")
)

// APIError is a failure reported by the remote service.
type APIError struct {
	Status  int
	Code    string
	Message string
	Err     error
}

func (e *APIError) Error() string {
	switch {
	case e.Code != "" && e.Message != "":
		return fmt.Sprintf("%s (code %s, status %d)", e.Message, e.Code, e.Status)
	case e.Message != "":
		return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
	default:
		return fmt.Sprintf("remote store error (status %d)", e.Status)
	}
}

func (e *APIError) Unwrap() error {
	return e.Err
}

type AuthListener func(event models.AuthEvent, session *models.AuthSession)

type AuthAPI interface {
	SignUp(ctx context.Context, email, password string) (*models.AuthSession, error)
	SignInWithPassword(ctx context.Context, email, password string) (*models.AuthSession, error)
	SignOut(ctx context.Context) error
	GetSession(ctx context.Context) (*models.AuthSession, error)
	OnAuthStateChange(listener AuthListener) (unsubscribe func())
}

type ProfileTable interface {
	GetProfile(ctx context.Context, userID string) (*models.UserProfile, error)
	InsertProfile(ctx context.Context, profile *models.UserProfile) error
	UpdateProfile(ctx context.Context, userID string, patch models.ProfilePatch) error
	GetGamification(ctx context.Context, userID string) (*models.Gamification, error)
	InsertGamification(ctx context.Context, record *models.Gamification) error
}

type LogTable interface {
	ListNutritionLogs(ctx context.Context, userID, date string) ([]models.NutritionLog, error)
	InsertNutritionLog(ctx context.Context, entry *models.NutritionLog) error
	ListWorkoutLogs(ctx context.Context, userID, date string) ([]models.WorkoutLog, error)
	InsertWorkoutLog(ctx context.Context, entry *models.WorkoutLog) error
	ListSleepLogs(ctx context.Context, userID, date string) ([]models.SleepLog, error)
	InsertSleepLog(ctx context.Context, entry *models.SleepLog) error
}

// Client is one client instance of the data store. It holds at most one
// session at a time.
type Client interface {
	AuthAPI
	ProfileTable
	LogTable
	Close() error
}

// Factory creates an unauthenticated client instance.
type Factory func() (Client, error)

func IsNoRows(err error) bool {
	return errors.Is(err, ErrNoRows)
}

func IsPermissionDenied(err error) bool {
	return errors.Is(err, ErrPermissionDenied)
}
