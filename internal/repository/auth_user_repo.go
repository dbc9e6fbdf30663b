package repository

import (
	"context"
	"errors"
	"time"

	"github.com/vitaup/VitaUpBack/internal/store"
)

// AuthUser is a row of auth_users. Only the store layer sees password
// hashes.
type AuthUser struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

type AuthUserRepository struct {
	db DBTX
}

func NewAuthUserRepository(db DBTX) *AuthUserRepository {
	return &AuthUserRepository{db: db}
}

// Create inserts the user and fills ID and CreatedAt. An email already in
// use yields store.ErrUserExists.
func (r *AuthUserRepository) Create(ctx context.Context, user *AuthUser) error {
	query := `
		INSERT INTO auth_users (email, password_hash)
		VALUES (lower($1), $2)
		RETURNING id::text, email, created_at
	`
	err := r.db.QueryRow(ctx, query, user.Email, user.PasswordHash).
		Scan(&user.ID, &user.Email, &user.CreatedAt)
	if err != nil {
		err = translate(err)
		if errors.Is(err, ErrDuplicate) {
			return store.ErrUserExists
		}
		return err
	}
	return nil
}

func (r *AuthUserRepository) GetByEmail(ctx context.Context, email string) (*AuthUser, error) {
	query := `
		SELECT id::text, email, password_hash, created_at
		FROM auth_users
		WHERE email = lower($1)
	`
	var user AuthUser
	err := r.db.QueryRow(ctx, query, email).
		Scan(&user.ID, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *AuthUserRepository) GetByID(ctx context.Context, id string) (*AuthUser, error) {
	query := `
		SELECT id::text, email, password_hash, created_at
		FROM auth_users
		WHERE id = $1
	`
	var user AuthUser
	err := r.db.QueryRow(ctx, query, id).
		Scan(&user.ID, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}
