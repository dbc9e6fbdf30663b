// Package session keeps the client-side view of {session, profile,
// gamification} consistent with the remote data store. Every state change
// goes through a single-consumer command queue, so explicit operations and
// session-change notifications are applied one at a time, in order.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/vitaup/VitaUpBack/internal/metrics"
	"github.com/vitaup/VitaUpBack/internal/models"
	"github.com/vitaup/VitaUpBack/internal/store"
	"go.uber.org/zap"
)

const (
	opInitialSession = "initial_session"
	opAuthChange     = "auth_change"
	opSignUp         = "sign_up"
	opSignIn         = "sign_in"
	opSignOut        = "sign_out"
	opUpdateProfile  = "update_profile"
	opRefreshProfile = "refresh_profile"
)

// Store is the slice of the data store the manager needs.
type Store interface {
	store.AuthAPI
	store.ProfileTable
}

type Options struct {
	Logger *zap.Logger
	// ProvisionMaxWait bounds how long sign-up polls for the default
	// profile and gamification rows.
	ProvisionMaxWait         time.Duration
	ProvisionInitialInterval time.Duration
	ProvisionMaxInterval     time.Duration
	Now                      func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.ProvisionMaxWait <= 0 {
		o.ProvisionMaxWait = 5 * time.Second
	}
	if o.ProvisionInitialInterval <= 0 {
		o.ProvisionInitialInterval = 100 * time.Millisecond
	}
	if o.ProvisionMaxInterval <= 0 {
		o.ProvisionMaxInterval = time.Second
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

type command struct {
	name string
	// ctx is the caller's context for explicit operations, nil for
	// notifications, which run under the manager's own context.
	ctx context.Context
	run func(ctx context.Context)
}

type Manager struct {
	client Store
	opts   Options
	logger *zap.Logger

	mu    sync.RWMutex
	state State
	subs  map[*Subscription]struct{}

	queueMu sync.Mutex
	queue   []*command
	closed  bool
	wake    chan struct{}

	baseCtx     context.Context
	cancel      context.CancelFunc
	done        chan struct{}
	stopped     chan struct{}
	unsubscribe func()

	startOnce sync.Once
	closeOnce sync.Once
	started   bool
}

func NewManager(client Store, opts Options) *Manager {
	opts = opts.withDefaults()
	return &Manager{
		client:  client,
		opts:    opts,
		logger:  opts.Logger.Named("session"),
		state:   State{Status: StatusInitializing},
		subs:    make(map[*Subscription]struct{}),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// Start subscribes to session-change notifications, starts the command
// loop and resolves the initial session. It returns once the manager has
// left the Initializing state or ctx is done.
func (m *Manager) Start(ctx context.Context) error {
	var err error
	m.startOnce.Do(func() {
		m.queueMu.Lock()
		if m.closed {
			m.queueMu.Unlock()
			err = ErrClosed
			return
		}
		m.started = true
		m.baseCtx, m.cancel = context.WithCancel(context.WithoutCancel(ctx))
		m.unsubscribe = m.client.OnAuthStateChange(m.onAuthStateChange)
		go m.loop()
		m.queueMu.Unlock()

		_, err = call(m, ctx, opInitialSession, func(ctx context.Context) (struct{}, error) {
			session, err := m.client.GetSession(ctx)
			if err != nil {
				m.logger.Warn("initial_session_failed", zap.Error(err))
				session = nil
			}
			m.applySession(ctx, session)
			return struct{}{}, nil
		})
	})
	return err
}

// Close stops the command loop, drops the store subscription and closes
// every state subscription. Pending operations fail with ErrClosed.
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		m.queueMu.Lock()
		m.closed = true
		started := m.started
		m.queue = nil
		m.queueMu.Unlock()

		if m.unsubscribe != nil {
			m.unsubscribe()
		}
		if m.cancel != nil {
			m.cancel()
		}
		close(m.done)
		if started {
			<-m.stopped
		} else {
			close(m.stopped)
		}

		m.mu.Lock()
		for sub := range m.subs {
			delete(m.subs, sub)
			close(sub.ch)
		}
		m.mu.Unlock()
	})
}

func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.clone()
}

// Subscribe returns a subscription primed with the current state.
func (m *Manager) Subscribe() *Subscription {
	ch := make(chan State, 1)
	sub := &Subscription{C: ch, ch: ch, manager: m}

	m.mu.Lock()
	defer m.mu.Unlock()
	select {
	case <-m.done:
		close(ch)
		return sub
	default:
	}
	m.subs[sub] = struct{}{}
	sub.offer(m.state.clone())
	return sub
}

// Subscribers reports how many subscriptions are open.
func (m *Manager) Subscribers() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subs)
}

func (m *Manager) removeSubscription(sub *Subscription) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.subs[sub]; ok {
		delete(m.subs, sub)
		close(sub.ch)
	}
}

// SignUp creates the account, provisions the default profile and
// gamification rows on a best-effort basis and loads them.
func (m *Manager) SignUp(ctx context.Context, email, password, name string) (ProvisionReport, error) {
	return call(m, ctx, opSignUp, func(ctx context.Context) (ProvisionReport, error) {
		session, err := m.client.SignUp(ctx, email, password)
		if err != nil {
			return ProvisionReport{}, &AuthError{Op: opSignUp, Err: err}
		}
		if session == nil {
			return ProvisionReport{}, &AuthError{Op: opSignUp, Err: store.ErrNotAuthenticated}
		}

		m.setSession(session)
		userID := session.UserID()
		report := m.provision(ctx, userID, name)
		rows, ready := m.awaitRows(ctx, userID)
		report.RowsReady = ready
		m.applyRows(rows)
		m.setStatus(StatusReady)
		return report, nil
	})
}

// SignIn establishes a session and loads the profile and gamification
// rows before returning.
func (m *Manager) SignIn(ctx context.Context, email, password string) error {
	_, err := call(m, ctx, opSignIn, func(ctx context.Context) (struct{}, error) {
		session, err := m.client.SignInWithPassword(ctx, email, password)
		if err != nil {
			return struct{}{}, &AuthError{Op: opSignIn, Err: err}
		}
		if session == nil {
			return struct{}{}, &AuthError{Op: opSignIn, Err: store.ErrNotAuthenticated}
		}
		m.applySession(ctx, session)
		return struct{}{}, nil
	})
	return err
}

// SignOut ends the remote session. Local state is cleared even when the
// remote call fails.
func (m *Manager) SignOut(ctx context.Context) error {
	_, err := call(m, ctx, opSignOut, func(ctx context.Context) (struct{}, error) {
		remoteErr := m.client.SignOut(ctx)
		m.clear()
		if remoteErr != nil {
			return struct{}{}, &AuthError{Op: opSignOut, Err: remoteErr}
		}
		return struct{}{}, nil
	})
	return err
}

// UpdateProfile writes a partial profile update for the current user and
// reloads. Without an active session it does nothing.
func (m *Manager) UpdateProfile(ctx context.Context, patch models.ProfilePatch) error {
	_, err := call(m, ctx, opUpdateProfile, func(ctx context.Context) (struct{}, error) {
		userID := m.currentUserID()
		if userID == "" {
			return struct{}{}, nil
		}
		now := m.opts.Now().UTC()
		patch.UpdatedAt = &now
		if err := m.client.UpdateProfile(ctx, userID, patch); err != nil {
			return struct{}{}, &ProfileUpdateError{Err: err}
		}
		m.reload(ctx, userID)
		return struct{}{}, nil
	})
	return err
}

// RefreshProfile reloads the profile and gamification rows. Remote
// failures are logged, never returned.
func (m *Manager) RefreshProfile(ctx context.Context) error {
	_, err := call(m, ctx, opRefreshProfile, func(ctx context.Context) (struct{}, error) {
		userID := m.currentUserID()
		if userID == "" {
			return struct{}{}, nil
		}
		m.reload(ctx, userID)
		return struct{}{}, nil
	})
	return err
}

func (m *Manager) onAuthStateChange(event models.AuthEvent, session *models.AuthSession) {
	m.enqueue(&command{
		name: opAuthChange,
		run: func(ctx context.Context) {
			if m.isEcho(session) {
				m.logger.Debug("auth_change_already_applied", zap.String("event", string(event)))
				return
			}
			m.logger.Info("auth_change",
				zap.String("event", string(event)),
				zap.String("user_id", session.UserID()),
			)
			m.applySession(ctx, session)
			metrics.SessionOperations.WithLabelValues(opAuthChange, string(event)).Inc()
		},
	})
}

// isEcho reports whether a notification carries exactly the state an
// explicit operation already applied.
func (m *Manager) isEcho(session *models.AuthSession) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if session == nil {
		return m.state.Session == nil && m.state.Status == StatusUnauthenticated
	}
	return m.state.Status == StatusReady &&
		m.state.Session != nil &&
		m.state.Session.AccessToken == session.AccessToken
}

func (m *Manager) applySession(ctx context.Context, session *models.AuthSession) {
	if session == nil {
		m.clear()
		return
	}
	m.setSession(session)
	m.reload(ctx, session.UserID())
}

func (m *Manager) reload(ctx context.Context, userID string) {
	m.applyRows(m.fetchRows(ctx, userID))
	m.setStatus(StatusReady)
}

func (m *Manager) currentUserID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.Session.UserID()
}

// setSession installs a session and marks the state as loading. Rows
// cached for a different user are discarded.
func (m *Manager) setSession(session *models.AuthSession) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.Session.UserID() != session.UserID() {
		m.state.Profile = nil
		m.state.Gamification = nil
	}
	m.state.Session = session.Clone()
	m.state.Status = StatusLoading
	m.publishLocked()
}

func (m *Manager) setStatus(status Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Status = status
	m.publishLocked()
}

func (m *Manager) clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = State{Status: StatusUnauthenticated}
	m.publishLocked()
}

func (m *Manager) publishLocked() {
	for sub := range m.subs {
		sub.offer(m.state.clone())
	}
}

type rowsResult struct {
	profile         *models.UserProfile
	profileErr      error
	gamification    *models.Gamification
	gamificationErr error
}

func (r rowsResult) complete() bool {
	return r.profile != nil && r.gamification != nil
}

// failed returns the first error that is neither nil nor a missing row.
func (r rowsResult) failed() error {
	if r.profileErr != nil && !store.IsNoRows(r.profileErr) {
		return r.profileErr
	}
	if r.gamificationErr != nil && !store.IsNoRows(r.gamificationErr) {
		return r.gamificationErr
	}
	return nil
}

func (m *Manager) fetchRows(ctx context.Context, userID string) rowsResult {
	var res rowsResult
	res.profile, res.profileErr = m.client.GetProfile(ctx, userID)
	res.gamification, res.gamificationErr = m.client.GetGamification(ctx, userID)
	return res
}

// applyRows stores fetched rows. A missing row clears the cached value,
// any other failure keeps it.
func (m *Manager) applyRows(res rowsResult) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch {
	case res.profileErr == nil:
		m.state.Profile = res.profile.Clone()
	case store.IsNoRows(res.profileErr):
		m.state.Profile = nil
	case errors.Is(res.profileErr, context.Canceled):
	default:
		m.logger.Error("profile_load_failed",
			zap.String("user_id", m.state.Session.UserID()),
			zap.Error(res.profileErr),
		)
	}

	switch {
	case res.gamificationErr == nil:
		m.state.Gamification = res.gamification.Clone()
	case store.IsNoRows(res.gamificationErr):
		m.state.Gamification = nil
	case errors.Is(res.gamificationErr, context.Canceled):
	default:
		m.logger.Error("gamification_load_failed",
			zap.String("user_id", m.state.Session.UserID()),
			zap.Error(res.gamificationErr),
		)
	}
	m.publishLocked()
}

func (m *Manager) enqueue(cmd *command) bool {
	m.queueMu.Lock()
	if m.closed {
		m.queueMu.Unlock()
		return false
	}
	m.queue = append(m.queue, cmd)
	m.queueMu.Unlock()

	select {
	case m.wake <- struct{}{}:
	default:
	}
	return true
}

func (m *Manager) next() *command {
	m.queueMu.Lock()
	defer m.queueMu.Unlock()
	if m.closed || len(m.queue) == 0 {
		return nil
	}
	cmd := m.queue[0]
	m.queue[0] = nil
	m.queue = m.queue[1:]
	return cmd
}

func (m *Manager) loop() {
	defer close(m.stopped)
	for {
		select {
		case <-m.done:
			return
		case <-m.wake:
		}
		for cmd := m.next(); cmd != nil; cmd = m.next() {
			ctx := m.baseCtx
			if cmd.ctx != nil {
				if cmd.ctx.Err() != nil {
					m.logger.Debug("command_abandoned", zap.String("op", cmd.name))
					continue
				}
				ctx = cmd.ctx
			}
			cmd.run(ctx)
		}
	}
}

type result[T any] struct {
	value T
	err   error
}

// call runs fn on the command loop and waits for its result. If ctx ends
// first the caller gets ctx.Err(); a command that already started keeps
// running to completion.
func call[T any](m *Manager, ctx context.Context, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	out := make(chan result[T], 1)
	ok := m.enqueue(&command{
		name: op,
		ctx:  ctx,
		run: func(ctx context.Context) {
			value, err := fn(ctx)
			out <- result[T]{value: value, err: err}
		},
	})
	if !ok {
		return zero, ErrClosed
	}

	select {
	case res := <-out:
		recordOutcome(op, res.err)
		return res.value, res.err
	case <-ctx.Done():
		return zero, ctx.Err()
	case <-m.stopped:
		return zero, ErrClosed
	}
}

func recordOutcome(op string, err error) {
	outcome := "ok"
	var authErr *AuthError
	var updateErr *ProfileUpdateError
	switch {
	case err == nil:
	case errors.As(err, &authErr):
		outcome = "auth_error"
	case errors.As(err, &updateErr):
		outcome = "update_error"
	default:
		outcome = "error"
	}
	metrics.SessionOperations.WithLabelValues(op, outcome).Inc()
}
