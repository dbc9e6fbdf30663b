package pgstore

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/vitaup/VitaUpBack/internal/events"
	"github.com/vitaup/VitaUpBack/internal/models"
	"github.com/vitaup/VitaUpBack/internal/repository"
	"github.com/vitaup/VitaUpBack/internal/store"
	"github.com/vitaup/VitaUpBack/pkg/utils"
	"go.uber.org/zap"
)

const MinPasswordLength = 6

var validate = validator.New()

func invalidCredentials() error {
	return &store.APIError{Status: http.StatusBadRequest, Code: "invalid_credentials", Message: "Invalid login credentials", Err: store.ErrInvalidCredentials}
}

func checkCredentials(email, password string) error {
	if err := validate.Var(email, "required,email"); err != nil {
		return &store.APIError{Status: http.StatusBadRequest, Code: "validation_failed", Message: "Unable to validate email address: invalid format"}
	}
	if len(password) < MinPasswordLength {
		return &store.APIError{
			Status:  http.StatusUnprocessableEntity,
			Code:    "weak_password",
			Message: fmt.Sprintf("Password should be at least %d characters", MinPasswordLength),
			Err:     store.ErrWeakPassword,
		}
	}
	return nil
}

func (c *Client) SignUp(ctx context.Context, email, password string) (*models.AuthSession, error) {
	email = strings.TrimSpace(email)
	if err := checkCredentials(email, password); err != nil {
		return nil, err
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &repository.AuthUser{Email: email, PasswordHash: hash}
	if err := repository.NewAuthUserRepository(c.db).Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrUserExists) {
			return nil, &store.APIError{Status: http.StatusUnprocessableEntity, Code: "user_already_exists", Message: "User already registered", Err: store.ErrUserExists}
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	session, err := c.issueSession(ctx, user, uuid.NewString())
	if err != nil {
		return nil, err
	}
	c.session.Set(models.EventSignedIn, session)
	return session.Clone(), nil
}

func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*models.AuthSession, error) {
	user, err := repository.NewAuthUserRepository(c.db).GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if store.IsNoRows(err) {
			return nil, invalidCredentials()
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if !utils.CheckPassword(password, user.PasswordHash) {
		return nil, invalidCredentials()
	}

	session, err := c.issueSession(ctx, user, uuid.NewString())
	if err != nil {
		return nil, err
	}
	c.session.Set(models.EventSignedIn, session)
	return session.Clone(), nil
}

// SignOut revokes the refresh-token family, drops the local session and
// tells other clients holding the same family.
func (c *Client) SignOut(ctx context.Context) error {
	current := c.session.Current()
	if current == nil {
		return nil
	}
	family := c.familyOf(current.AccessToken)

	var err error
	if family != "" {
		_, err = repository.NewRefreshTokenRepository(c.db).RevokeFamily(ctx, family)
	}
	c.session.Set(models.EventSignedOut, nil)
	if err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}

	if family != "" {
		event := events.SessionRevoked{UserID: current.UserID(), Family: family, Reason: "sign_out"}
		if perr := c.bus.Publish(ctx, event); perr != nil {
			c.logger.Warn("revocation_publish_failed", zap.String("user_id", current.UserID()), zap.Error(perr))
		}
	}
	return nil
}

// GetSession returns the current session, refreshing it when it is close
// to expiry. A session whose family was revoked elsewhere reads as none
// and emits SIGNED_OUT.
func (c *Client) GetSession(ctx context.Context) (*models.AuthSession, error) {
	current := c.session.Current()
	if current == nil {
		return nil, nil
	}
	if family := c.familyOf(current.AccessToken); family != "" {
		active, err := repository.NewRefreshTokenRepository(c.db).FamilyActive(ctx, family)
		if err != nil {
			return nil, fmt.Errorf("check session: %w", err)
		}
		if !active {
			c.dropSession(current, "revoked")
			return nil, nil
		}
	}
	if !c.needsRefresh(current) {
		return current, nil
	}
	if err := c.refresh(ctx, current); err != nil {
		if errors.Is(err, store.ErrSessionExpired) {
			return nil, nil
		}
		return nil, err
	}
	return c.session.Current(), nil
}

func (c *Client) OnAuthStateChange(listener store.AuthListener) func() {
	return c.session.Subscribe(listener)
}

func (c *Client) needsRefresh(session *models.AuthSession) bool {
	return !c.opts.Now().Add(c.opts.RefreshMargin).Before(session.ExpiresAt)
}

func (c *Client) dropSession(session *models.AuthSession, reason string) {
	if c.session.ClearIf(session.AccessToken) {
		c.logger.Info("session_lost", zap.String("user_id", session.UserID()), zap.String("reason", reason))
	}
}

// refresh rotates the refresh token of seen within its family.
func (c *Client) refresh(ctx context.Context, seen *models.AuthSession) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	current := c.session.Current()
	if current == nil || current.AccessToken != seen.AccessToken {
		return nil
	}

	token, err := repository.NewRefreshTokenRepository(c.db).Consume(ctx, current.RefreshToken)
	if err != nil {
		if store.IsNoRows(err) {
			c.dropSession(current, "refresh_token_not_found")
			return &store.APIError{Status: http.StatusBadRequest, Code: "refresh_token_not_found", Message: "Invalid Refresh Token", Err: store.ErrSessionExpired}
		}
		return fmt.Errorf("consume refresh token: %w", err)
	}

	user := &repository.AuthUser{ID: token.UserID, Email: current.User.Email}
	next, err := c.issueSession(ctx, user, token.Family)
	if err != nil {
		return err
	}
	c.session.Set(models.EventTokenRefreshed, next)
	return nil
}

// issueSession stores a fresh refresh token in family and signs an access
// token for user.
func (c *Client) issueSession(ctx context.Context, user *repository.AuthUser, family string) (*models.AuthSession, error) {
	now := c.opts.Now()
	refresh := repository.RefreshToken{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		Family:    family,
		ExpiresAt: now.Add(c.opts.RefreshTTL),
	}
	if err := repository.NewRefreshTokenRepository(c.db).Create(ctx, refresh); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	access, err := c.signAccess(user, family, now)
	if err != nil {
		return nil, err
	}
	session := &models.AuthSession{
		AccessToken:  access,
		RefreshToken: refresh.Token,
		TokenType:    "bearer",
		ExpiresAt:    now.Add(c.opts.AccessTTL).Truncate(jwt.TimePrecision).UTC(),
		User:         models.AuthUser{ID: user.ID, Email: user.Email},
	}
	if !user.CreatedAt.IsZero() {
		createdAt := user.CreatedAt
		session.User.CreatedAt = &createdAt
	}
	c.setFamily(access, family)
	return session, nil
}

func (c *Client) signAccess(user *repository.AuthUser, family string, now time.Time) (string, error) {
	token, err := utils.GenerateToken(utils.Claims{
		Kind:   utils.TokenKindAccess,
		Email:  user.Email,
		Family: family,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: user.ID,
			ID:      uuid.NewString(),
		},
	}, c.opts.Secret, now, c.opts.AccessTTL)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return token, nil
}

func (c *Client) validateAccess(token string) (*utils.Claims, error) {
	return utils.ValidateToken(token, c.opts.Secret, utils.TokenKindAccess)
}
