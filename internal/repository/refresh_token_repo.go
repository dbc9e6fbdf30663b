package repository

import (
	"context"
	"time"
)

// RefreshToken is a row of auth_refresh_tokens. Rotation keeps the
// family, so revoking a family ends one login everywhere it was copied.
type RefreshToken struct {
	Token     string
	UserID    string
	Family    string
	ExpiresAt time.Time
	RevokedAt *time.Time
}

type RefreshTokenRepository struct {
	db DBTX
}

func NewRefreshTokenRepository(db DBTX) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

func (r *RefreshTokenRepository) Create(ctx context.Context, token RefreshToken) error {
	query := `
		INSERT INTO auth_refresh_tokens (token, user_id, family, expires_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.db.Exec(ctx, query, token.Token, token.UserID, token.Family, token.ExpiresAt)
	return translate(err)
}

// Consume revokes a live token and returns it. Unknown, revoked and
// expired tokens yield store.ErrNoRows.
func (r *RefreshTokenRepository) Consume(ctx context.Context, token string) (*RefreshToken, error) {
	query := `
		UPDATE auth_refresh_tokens
		SET revoked_at = NOW()
		WHERE token = $1 AND revoked_at IS NULL AND expires_at > NOW()
		RETURNING token, user_id::text, family, expires_at, revoked_at
	`
	var out RefreshToken
	err := r.db.QueryRow(ctx, query, token).
		Scan(&out.Token, &out.UserID, &out.Family, &out.ExpiresAt, &out.RevokedAt)
	if err != nil {
		return nil, translate(err)
	}
	return &out, nil
}

// RevokeFamily revokes every live token of the family and reports how
// many were still live.
func (r *RefreshTokenRepository) RevokeFamily(ctx context.Context, family string) (int64, error) {
	query := `
		UPDATE auth_refresh_tokens
		SET revoked_at = NOW()
		WHERE family = $1 AND revoked_at IS NULL
	`
	tag, err := r.db.Exec(ctx, query, family)
	if err != nil {
		return 0, translate(err)
	}
	return tag.RowsAffected(), nil
}

func (r *RefreshTokenRepository) FamilyActive(ctx context.Context, family string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM auth_refresh_tokens
			WHERE family = $1 AND revoked_at IS NULL AND expires_at > NOW()
		)
	`
	var active bool
	if err := r.db.QueryRow(ctx, query, family).Scan(&active); err != nil {
		return false, translate(err)
	}
	return active, nil
}

func (r *RefreshTokenRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM auth_refresh_tokens WHERE expires_at < $1`, before)
	if err != nil {
		return 0, translate(err)
	}
	return tag.RowsAffected(), nil
}
