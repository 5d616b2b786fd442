// Package auth owns the authenticated-session lifecycle: login and
// registration, proactive and reactive token refresh, logout, and the
// status mirror the UI layer renders from. The Manager is the only writer
// of the session store; every other component reads through it.
package auth

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/bizfinhq/bizfin-go/api"
	"github.com/bizfinhq/bizfin-go/internal/utils"
	"github.com/bizfinhq/bizfin-go/session"
)

// DefaultLeadTime is how far ahead of expiry the proactive refresh fires.
const DefaultLeadTime = 5 * time.Minute

// refreshKey collapses proactive and reactive refresh triggers into the
// same in-flight operation.
const refreshKey = "refresh"

// Manager is the token lifecycle manager. One instance is created at
// application start and disposed on teardown; any re-initialization path
// must call Dispose on the old instance first.
type Manager struct {
	api      *api.Client
	store    session.Store
	leadTime time.Duration

	nowFunc   func() time.Time
	afterFunc func(d time.Duration, f func()) *time.Timer

	flight singleflight.Group

	mu         sync.Mutex
	state      State
	status     Status
	timer      *time.Timer
	disposed   bool
	generation int
	listenerID int
	listeners  map[int]func(Status)
}

// Option configures a Manager.
type Option func(*Manager)

// WithLeadTime sets how far ahead of expiry the proactive refresh fires.
func WithLeadTime(lead time.Duration) Option {
	return func(m *Manager) {
		m.leadTime = lead
	}
}

// WithNowFunc sets the clock (primarily for testing).
func WithNowFunc(now func() time.Time) Option {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

// WithAfterFunc sets the timer constructor (primarily for testing).
func WithAfterFunc(after func(d time.Duration, f func()) *time.Timer) Option {
	return func(m *Manager) {
		m.afterFunc = after
	}
}

// NewManager creates a session manager backed by the given auth API client
// and store.
func NewManager(apiClient *api.Client, store session.Store, options ...Option) (*Manager, error) {
	if apiClient == nil {
		return nil, errors.New("[NewManager] api client is required")
	}
	if store == nil {
		return nil, errors.New("[NewManager] session store is required")
	}

	m := &Manager{
		api:       apiClient,
		store:     store,
		leadTime:  DefaultLeadTime,
		nowFunc:   time.Now,
		afterFunc: time.AfterFunc,
		state:     StateNoSession,
		status:    StatusIdle,
		listeners: map[int]func(Status){},
	}
	for _, opt := range options {
		opt(m)
	}
	return m, nil
}

// Session returns the current stored session (zero when none exists).
func (m *Manager) Session() session.Session {
	return m.store.Get()
}

// AccessToken returns the current access token, or "" when no session
// exists. Satisfies transport.TokenReader.
func (m *Manager) AccessToken() string {
	return m.store.Get().AccessToken
}

// State returns the manager's lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Status returns the render-facing status.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// OnStatusChange registers a callback invoked on every status transition.
// The returned function cancels the registration.
func (m *Manager) OnStatusChange(fn func(Status)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listenerID++
	id := m.listenerID
	m.listeners[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.listeners, id)
	}
}

// Login authenticates with the backend and stores the resulting session.
// A rejected login leaves the manager exactly where it was: no session.
func (m *Manager) Login(ctx context.Context, email, password string) (session.Session, error) {
	if m.isDisposed() {
		return session.Session{}, ErrDisposed
	}
	gen := m.currentGeneration()
	m.transition(StateAuthenticating, StatusPending)

	resp, err := m.api.Login(ctx, email, password)
	if err != nil {
		m.revert()
		return session.Session{}, errors.Wrap(err, "[Manager.Login] login request")
	}
	return m.adopt(resp, session.User{}, gen)
}

// Register creates an account and logs it in immediately.
func (m *Manager) Register(ctx context.Context, req api.RegisterRequest) (session.Session, error) {
	if m.isDisposed() {
		return session.Session{}, ErrDisposed
	}
	gen := m.currentGeneration()
	m.transition(StateAuthenticating, StatusPending)

	resp, err := m.api.Register(ctx, req)
	if err != nil {
		m.revert()
		return session.Session{}, errors.Wrap(err, "[Manager.Register] register request")
	}
	return m.adopt(resp, session.User{}, gen)
}

// LoginDemo provisions and signs into the shared demo account.
func (m *Manager) LoginDemo(ctx context.Context) (session.Session, error) {
	if m.isDisposed() {
		return session.Session{}, ErrDisposed
	}
	gen := m.currentGeneration()
	m.transition(StateAuthenticating, StatusPending)

	resp, err := m.api.CreateDemoUser(ctx)
	if err != nil {
		m.revert()
		return session.Session{}, errors.Wrap(err, "[Manager.LoginDemo] demo user request")
	}
	return m.adopt(resp, session.User{}, gen)
}

// Refresh exchanges the stored refresh token for a new token pair. It is
// single-flight: concurrent callers, whether triggered by the proactive
// timer or by an observed 401, share one in-flight operation and receive
// its result. The guard is released on every path.
func (m *Manager) Refresh(ctx context.Context) (session.Session, error) {
	v, err, _ := m.flight.Do(refreshKey, func() (any, error) {
		return m.doRefresh(ctx)
	})
	if err != nil {
		return session.Session{}, err
	}
	return v.(session.Session), nil
}

// RefreshAccessToken satisfies transport.Refresher.
func (m *Manager) RefreshAccessToken(ctx context.Context) (string, error) {
	sess, err := m.Refresh(ctx)
	if err != nil {
		return "", err
	}
	return sess.AccessToken, nil
}

func (m *Manager) doRefresh(ctx context.Context) (session.Session, error) {
	if m.isDisposed() {
		return session.Session{}, ErrDisposed
	}
	gen := m.currentGeneration()
	current := m.store.Get()
	if current.Empty() || current.RefreshToken == "" {
		return session.Session{}, ErrNoSession
	}

	m.transition(StateRefreshing, StatusAuthenticated)

	resp, err := m.api.Refresh(ctx, current.RefreshToken)
	if err != nil {
		// A failed refresh is never swallowed: the session is torn down and
		// the status mirror reflects it. Unless a logout already won while
		// the request was in flight; then there is nothing left to tear down.
		if m.currentGeneration() == gen {
			if terr := m.teardown(StatusFailed); terr != nil {
				log.Err(terr).Msg("Failed to clear session after refresh failure")
			}
		}
		if api.IsUnauthorized(err) {
			log.Err(err).Msg("Refresh token rejected, session expired")
			return session.Session{}, errors.Wrap(ErrSessionExpired, "[Manager.Refresh] refresh token rejected")
		}
		return session.Session{}, errors.Wrap(err, "[Manager.Refresh] refresh request")
	}

	// The server rotates both tokens; it may omit the profile, in which
	// case the cached one is kept.
	return m.adopt(resp, current.User, gen)
}

// Hydrate reconciles the manager with the store on application start. A
// stored token without a cached profile triggers a "who am I" call; no
// token means no network call at all.
func (m *Manager) Hydrate(ctx context.Context) error {
	if m.isDisposed() {
		return ErrDisposed
	}

	current := m.store.Get()
	if current.Empty() {
		m.transition(StateNoSession, StatusIdle)
		return nil
	}
	if current.HasUser() {
		m.activate(current)
		return nil
	}

	m.transition(StateAuthenticating, StatusPending)

	user, err := m.api.Me(ctx, current.AccessToken)
	if err != nil {
		if api.IsUnauthorized(err) || api.IsTransient(err) {
			if terr := m.teardown(StatusFailed); terr != nil {
				log.Err(terr).Msg("Failed to clear session after hydration failure")
			}
		} else {
			// A server error says nothing about the tokens; keep them and
			// mark the session stale rather than pretending it is gone.
			m.transition(StateStale, StatusFailed)
		}
		return errors.Wrap(err, "[Manager.Hydrate] profile fetch")
	}

	current.User = utils.Value(user)
	if err := m.store.Set(current); err != nil {
		return errors.Wrap(err, "[Manager.Hydrate] persist profile")
	}
	m.activate(current)
	return nil
}

// Logout invalidates the session server-side on a best-effort basis and
// always clears the local store and pending timers. Safe to call twice or
// with no session at all.
func (m *Manager) Logout(ctx context.Context) error {
	current := m.store.Get()
	if !current.Empty() && current.RefreshToken != "" {
		if err := m.api.Logout(ctx, current.RefreshToken); err != nil {
			log.Err(err).Msg("Server logout failed, clearing local session anyway")
		}
	}
	return m.teardown(StatusIdle)
}

// Dispose cancels the proactive refresh timer and drops all status
// listeners. The stored session is left intact; Dispose is teardown of the
// manager, not of the user's login.
func (m *Manager) Dispose() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disposed = true
	m.stopTimerLocked()
	m.listeners = map[int]func(Status){}
}

// adopt stores a freshly issued token pair, arms the next proactive
// refresh, and flips the manager to authenticated. gen is the teardown
// generation captured when the token request started: if a logout (or any
// teardown) ran while the request was in flight, the pair is discarded so
// a cleared session can never be resurrected. The generation check and the
// store write share the same critical section as teardown's clear, so the
// two are totally ordered.
func (m *Manager) adopt(resp *api.TokenResponse, fallbackUser session.User, gen int) (session.Session, error) {
	user := resp.User
	if user.ID == "" {
		user = fallbackUser
	}

	sess, err := session.New(resp.AccessToken, resp.RefreshToken, user)
	if err != nil {
		m.transition(StateNoSession, StatusIdle)
		return session.Session{}, errors.Wrap(err, "[Manager.adopt] build session")
	}

	m.mu.Lock()
	if m.generation != gen {
		m.mu.Unlock()
		return session.Session{}, ErrNoSession
	}
	if err := m.store.Set(sess); err != nil {
		m.mu.Unlock()
		m.transition(StateNoSession, StatusIdle)
		return session.Session{}, errors.Wrap(err, "[Manager.adopt] persist session")
	}
	m.state = StateAuthenticated
	changed := m.status != StatusAuthenticated
	m.status = StatusAuthenticated
	m.scheduleLocked(sess)
	listeners := m.snapshotListenersLocked()
	m.mu.Unlock()

	if changed {
		notify(listeners, StatusAuthenticated)
	}
	return sess, nil
}

// revert returns the manager to where it was before a failed login or
// registration attempt. A surviving session stays active with its timer
// re-armed; otherwise the manager settles back to idle.
func (m *Manager) revert() {
	if current := m.store.Get(); !current.Empty() {
		m.activate(current)
		return
	}
	m.transition(StateNoSession, StatusIdle)
}

// activate marks the session authenticated and arms the proactive refresh
// timer for it.
func (m *Manager) activate(sess session.Session) {
	m.mu.Lock()
	m.state = StateAuthenticated
	changed := m.status != StatusAuthenticated
	m.status = StatusAuthenticated
	m.scheduleLocked(sess)
	listeners := m.snapshotListenersLocked()
	m.mu.Unlock()

	if changed {
		notify(listeners, StatusAuthenticated)
	}
}

// teardown clears the store, cancels the timer, advances the teardown
// generation so in-flight token requests are discarded on arrival, and
// publishes the given terminal status.
func (m *Manager) teardown(status Status) error {
	m.mu.Lock()
	m.stopTimerLocked()
	m.generation++
	m.state = StateNoSession
	changed := m.status != status
	m.status = status
	clearErr := m.store.Clear()
	listeners := m.snapshotListenersLocked()
	m.mu.Unlock()

	if changed {
		notify(listeners, status)
	}
	if clearErr != nil {
		return errors.Wrap(clearErr, "[Manager.teardown] clear store")
	}
	return nil
}

// scheduleLocked arms the one-shot proactive refresh timer. The previous
// timer handle is always disposed first, so re-arming can never leave two
// timers running. Requires m.mu.
func (m *Manager) scheduleLocked(sess session.Session) {
	m.stopTimerLocked()
	if m.disposed {
		return
	}
	delay := sess.ExpiresAt.Sub(m.nowFunc()) - m.leadTime
	if delay < 0 {
		delay = 0
	}
	m.timer = m.afterFunc(delay, m.proactiveRefresh)
}

func (m *Manager) stopTimerLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

func (m *Manager) proactiveRefresh() {
	ctx, cancel := context.WithTimeout(context.Background(), api.DefaultTimeout)
	defer cancel()

	if _, err := m.Refresh(ctx); err != nil {
		// The failed refresh already tore the session down; it is not
		// re-armed.
		log.Err(err).Msg("Proactive session refresh failed")
	}
}

func (m *Manager) isDisposed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.disposed
}

func (m *Manager) currentGeneration() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.generation
}

func (m *Manager) transition(state State, status Status) {
	m.mu.Lock()
	m.state = state
	changed := m.status != status
	m.status = status
	listeners := m.snapshotListenersLocked()
	m.mu.Unlock()

	if changed {
		notify(listeners, status)
	}
}

func (m *Manager) snapshotListenersLocked() []func(Status) {
	listeners := make([]func(Status), 0, len(m.listeners))
	for _, fn := range m.listeners {
		listeners = append(listeners, fn)
	}
	return listeners
}

func notify(listeners []func(Status), status Status) {
	for _, fn := range listeners {
		fn(status)
	}
}
