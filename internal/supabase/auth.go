package supabase

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/vitaup/VitaUpBack/internal/models"
	"github.com/vitaup/VitaUpBack/internal/store"
	"go.uber.org/zap"
)

var ErrEmailConfirmationRequired = errors.New("email confirmation required")

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken  string          `json:"access_token"`
	TokenType    string          `json:"token_type"`
	ExpiresIn    int64           `json:"expires_in"`
	ExpiresAt    int64           `json:"expires_at"`
	RefreshToken string          `json:"refresh_token"`
	User         models.AuthUser `json:"user"`

	// Sign-up without a session answers with the bare user object.
	ID    string `json:"id"`
	Email string `json:"email"`
}

func (c *Client) toSession(resp tokenResponse) *models.AuthSession {
	session := &models.AuthSession{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		TokenType:    resp.TokenType,
		User:         resp.User,
	}
	switch {
	case resp.ExpiresAt > 0:
		session.ExpiresAt = time.Unix(resp.ExpiresAt, 0).UTC()
	case resp.ExpiresIn > 0:
		session.ExpiresAt = c.opts.Now().Add(time.Duration(resp.ExpiresIn) * time.Second).UTC()
	}
	return session
}

func (c *Client) SignUp(ctx context.Context, email, password string) (*models.AuthSession, error) {
	var resp tokenResponse
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/signup",
		body:   credentials{Email: email, Password: password},
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.AccessToken == "" {
		c.logger.Info("signup_pending_confirmation", zap.String("user_id", firstNonEmpty(resp.User.ID, resp.ID)))
		return nil, ErrEmailConfirmationRequired
	}

	session := c.toSession(resp)
	c.session.Set(models.EventSignedIn, session)
	return session.Clone(), nil
}

func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*models.AuthSession, error) {
	var resp tokenResponse
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/token",
		query:  url.Values{"grant_type": {"password"}},
		body:   credentials{Email: email, Password: password},
	}, &resp)
	if err != nil {
		return nil, err
	}

	session := c.toSession(resp)
	c.session.Set(models.EventSignedIn, session)
	return session.Clone(), nil
}

// SignOut revokes the session remotely and always drops it locally. A
// session the server no longer knows is not an error.
func (c *Client) SignOut(ctx context.Context) error {
	current := c.session.Current()
	if current == nil {
		return nil
	}

	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/logout",
		bearer: current.AccessToken,
	}, nil)
	c.session.Set(models.EventSignedOut, nil)

	if err != nil && !errors.Is(err, store.ErrSessionExpired) && !errors.Is(err, store.ErrNotAuthenticated) {
		return err
	}
	return nil
}

// GetSession returns the current session, refreshing it first when it is
// about to expire. No session is (nil, nil).
func (c *Client) GetSession(ctx context.Context) (*models.AuthSession, error) {
	current := c.session.Current()
	if current == nil {
		return nil, nil
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
	if session.ExpiresAt.IsZero() {
		return false
	}
	return !c.opts.Now().Add(c.opts.RefreshMargin).Before(session.ExpiresAt)
}

// RefreshIfNeeded refreshes the current session when it is within the
// refresh margin of its expiry.
func (c *Client) RefreshIfNeeded(ctx context.Context) error {
	current := c.session.Current()
	if current == nil || !c.needsRefresh(current) {
		return nil
	}
	return c.refresh(ctx, current)
}

// refresh exchanges the refresh token of seen. A rejected refresh token
// ends the session with SIGNED_OUT.
func (c *Client) refresh(ctx context.Context, seen *models.AuthSession) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	current := c.session.Current()
	if current == nil || current.AccessToken != seen.AccessToken {
		return nil
	}

	var resp tokenResponse
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/token",
		query:  url.Values{"grant_type": {"refresh_token"}},
		body:   map[string]string{"refresh_token": current.RefreshToken},
	}, &resp)
	if err != nil {
		if errors.Is(err, store.ErrSessionExpired) {
			c.logger.Info("session_lost", zap.String("user_id", current.UserID()), zap.Error(err))
			c.session.ClearIf(current.AccessToken)
		}
		return err
	}

	c.session.Set(models.EventTokenRefreshed, c.toSession(resp))
	return nil
}

func (c *Client) autoRefresh(interval time.Duration) {
	defer close(c.stopped)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-c.stop
		cancel()
	}()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			if err := c.RefreshIfNeeded(ctx); err != nil && !errors.Is(err, store.ErrSessionExpired) {
				c.logger.Warn("token_refresh_failed", zap.Error(err))
			}
		}
	}
}
