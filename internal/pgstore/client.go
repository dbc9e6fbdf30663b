// Package pgstore is a store.Client backed directly by PostgreSQL. It
// issues its own sessions and relies on the row-level security policies
// from migrations/ to scope table access to the signed-in user.
package pgstore

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/vitaup/VitaUpBack/internal/events"
	"github.com/vitaup/VitaUpBack/internal/repository"
	"github.com/vitaup/VitaUpBack/internal/store"
	"go.uber.org/zap"
)

type DB interface {
	repository.DBTX
	repository.TxBeginner
}

type Options struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	// RefreshMargin is how long before expiry GetSession refreshes.
	RefreshMargin time.Duration
	// AutoRefreshInterval enables the background refresher when positive.
	AutoRefreshInterval time.Duration
	Logger              *zap.Logger
	Now                 func() time.Time
}

type Client struct {
	db     DB
	bus    events.Bus
	opts   Options
	logger *zap.Logger

	session store.SessionHolder

	mu     sync.Mutex
	family familyRef

	refreshMu   sync.Mutex
	unsubscribe func()

	stop      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
}

// familyRef ties a refresh-token family to the access token it was
// issued with.
type familyRef struct {
	accessToken string
	family      string
}

var _ store.Client = (*Client)(nil)

func NewClient(db DB, bus events.Bus, opts Options) (*Client, error) {
	if db == nil {
		return nil, errors.New("pgstore database is required")
	}
	if strings.TrimSpace(opts.Secret) == "" {
		return nil, errors.New("pgstore jwt secret is required")
	}
	if bus == nil {
		bus = events.NewLocalBus()
	}
	if opts.AccessTTL <= 0 {
		opts.AccessTTL = time.Hour
	}
	if opts.RefreshTTL <= 0 {
		opts.RefreshTTL = 30 * 24 * time.Hour
	}
	if opts.RefreshMargin <= 0 {
		opts.RefreshMargin = time.Minute
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	c := &Client{
		db:      db,
		bus:     bus,
		opts:    opts,
		logger:  opts.Logger.Named("pgstore"),
		stop:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	c.unsubscribe = bus.Subscribe(c.onRevoked)
	if opts.AutoRefreshInterval > 0 {
		go c.autoRefresh(opts.AutoRefreshInterval)
	} else {
		close(c.stopped)
	}
	return c, nil
}

func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.unsubscribe()
		close(c.stop)
		<-c.stopped
	})
	return nil
}

func (c *Client) setFamily(accessToken, family string) {
	c.mu.Lock()
	c.family = familyRef{accessToken: accessToken, family: family}
	c.mu.Unlock()
}

func (c *Client) familyOf(accessToken string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.family.accessToken != accessToken {
		return ""
	}
	return c.family.family
}

// onRevoked ends the local session when another client revoked its
// refresh-token family.
func (c *Client) onRevoked(event events.SessionRevoked) {
	current := c.session.Current()
	if current == nil {
		return
	}
	if !event.Matches(current.UserID(), c.familyOf(current.AccessToken)) {
		return
	}
	if c.session.ClearIf(current.AccessToken) {
		c.logger.Info("session_revoked",
			zap.String("user_id", current.UserID()),
			zap.String("reason", event.Reason),
		)
	}
}

// userScope returns the user id table calls act as. Missing or expired
// access tokens are rejected the way the REST API rejects them.
func (c *Client) userScope() (string, error) {
	current := c.session.Current()
	if current == nil {
		return "", &store.APIError{Status: http.StatusUnauthorized, Code: "no_authorization", Message: "no active session", Err: store.ErrNotAuthenticated}
	}
	claims, err := c.validateAccess(current.AccessToken)
	if err != nil {
		return "", &store.APIError{Status: http.StatusUnauthorized, Code: "bad_jwt", Message: err.Error(), Err: store.ErrNotAuthenticated}
	}
	return claims.Subject, nil
}

func (c *Client) withUser(ctx context.Context, fn func(q repository.DBTX) error) error {
	userID, err := c.userScope()
	if err != nil {
		return err
	}
	return repository.WithUser(ctx, c.db, userID, fn)
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
			if _, err := c.GetSession(ctx); err != nil {
				c.logger.Warn("token_refresh_failed", zap.Error(fmt.Errorf("auto refresh: %w", err)))
			}
		}
	}
}
