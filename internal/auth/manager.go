// Package auth owns the client session lifecycle: login, registration,
// token refresh, logout and teardown after the backend rejects a token.
//
// Manager is the only writer of the session store apart from the API
// client's 401 policy, which reports back through Invalidate.
package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/and161185/homeservices/internal/errs"
	"github.com/and161185/homeservices/internal/metrics"
	"github.com/and161185/homeservices/internal/model"
	"github.com/and161185/homeservices/internal/router"
	"github.com/and161185/homeservices/internal/session"
	"github.com/and161185/homeservices/internal/validate"
)

// Backend is the subset of the API the manager talks to.
type Backend interface {
	Login(ctx context.Context, cr model.Credentials) (model.AuthResponse, error)
	Register(ctx context.Context, r model.Registration) (model.AuthResponse, error)
	Refresh(ctx context.Context, refreshToken string) (model.RefreshResponse, error)
	Logout(ctx context.Context) error
}

// Navigator moves the client to a named view.
type Navigator interface {
	Navigate(ctx context.Context, name string) (router.Route, error)
}

// Identity is what the client knows about the signed-in user without asking the backend.
type Identity struct {
	ID             int64      `json:"id"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	Role           model.Role `json:"role"`
	CustomerID     *int64     `json:"customer_id,omitempty"`
	ProfessionalID *int64     `json:"professional_id,omitempty"`
	ExpiresAt      time.Time  `json:"expires_at,omitzero"` // zero when the token carries no exp claim
}

// Options configures a Manager.
type Options struct {
	Navigator Navigator
	Logger    *zap.Logger
	Metrics   *metrics.Metrics
}

// Manager is safe for concurrent use.
type Manager struct {
	api     Backend
	store   session.Store
	nav     Navigator
	log     *zap.Logger
	metrics *metrics.Metrics

	refresh singleflight.Group
	// serializes read-modify-write sequences on the store
	storeMu sync.Mutex

	mu      sync.RWMutex
	state   State
	user    *model.User
	token   string
	lastErr string
	subs    map[int]func(State)
	nextSub int
}

// NewManager builds a Manager in the anonymous state. Call CheckSession to pick up a stored session.
func NewManager(api Backend, store session.Store, opts Options) *Manager {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		api:     api,
		store:   store,
		nav:     opts.Navigator,
		log:     log,
		metrics: opts.Metrics,
		subs:    map[int]func(State){},
	}
}

// Login authenticates and redirects to the role's home.
func (m *Manager) Login(ctx context.Context, cr model.Credentials) error {
	if err := validate.Struct(cr); err != nil {
		m.fail(err, "Login failed")
		return err
	}
	res, err := m.api.Login(ctx, cr)
	if err != nil {
		m.fail(err, "Login failed")
		return err
	}
	if err := m.establish(ctx, res); err != nil {
		m.fail(err, "Login failed")
		return err
	}
	return nil
}

// Register creates an account, then behaves like Login.
func (m *Manager) Register(ctx context.Context, r model.Registration) error {
	if err := validate.Struct(r); err != nil {
		m.fail(err, "Registration failed")
		return err
	}
	res, err := m.api.Register(ctx, r)
	if err != nil {
		m.fail(err, "Registration failed")
		return err
	}
	if err := m.establish(ctx, res); err != nil {
		m.fail(err, "Registration failed")
		return err
	}
	return nil
}

func (m *Manager) establish(ctx context.Context, res model.AuthResponse) error {
	if res.AccessToken == "" || res.User.Role == "" {
		return errors.New("incomplete auth response")
	}
	user := res.User
	s := model.Session{AccessToken: res.AccessToken, RefreshToken: res.RefreshToken, User: &user}

	m.storeMu.Lock()
	err := m.store.Set(ctx, s)
	m.storeMu.Unlock()
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	m.mu.Lock()
	m.user = &user
	m.token = s.AccessToken
	m.lastErr = ""
	m.mu.Unlock()
	m.transition(StateAuthenticated)

	m.log.Info("signed in", zap.Int64("user_id", user.ID), zap.String("role", string(user.Role)))
	m.navigate(ctx, router.HomeFor(user.Role))
	return nil
}

// Refresh replaces the access token using the stored refresh token.
// Concurrent callers share one backend call and its outcome. Any failure logs the user out.
func (m *Manager) Refresh(ctx context.Context) (string, error) {
	// the shared call outlives any single caller
	ch := m.refresh.DoChan("refresh", func() (any, error) {
		return m.doRefresh(context.WithoutCancel(ctx))
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (m *Manager) doRefresh(ctx context.Context) (string, error) {
	s, err := m.store.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("read session: %w", err)
	}
	if s.RefreshToken == "" {
		m.teardown(ctx, "refresh_failed", true)
		return "", errs.ErrNoRefreshToken
	}

	m.transition(StateRefreshing)
	m.metrics.Refresh()
	res, err := m.api.Refresh(ctx, s.RefreshToken)
	if err == nil && res.AccessToken == "" {
		err = errors.New("empty access token")
	}
	if err != nil {
		m.log.Warn("token refresh failed", zap.Error(err))
		m.teardown(ctx, "refresh_failed", true)
		return "", fmt.Errorf("refresh: %w", err)
	}

	m.storeMu.Lock()
	cur, err := m.store.Get(ctx)
	if err == nil && (cur.RefreshToken != s.RefreshToken || cur.User == nil) {
		// logged out or replaced while the call was in flight
		err = errs.ErrNoSession
	}
	if err == nil {
		cur.AccessToken = res.AccessToken
		err = m.store.Set(ctx, cur)
	}
	m.storeMu.Unlock()
	if err != nil {
		m.transition(m.settled())
		return "", fmt.Errorf("refresh: %w", err)
	}

	m.mu.Lock()
	m.user = cur.User
	m.token = cur.AccessToken
	m.mu.Unlock()
	m.transition(StateAuthenticated)
	return res.AccessToken, nil
}

// Logout notifies the backend best-effort, then always clears the session and goes to login.
func (m *Manager) Logout(ctx context.Context) error {
	return m.teardown(ctx, "logout", true)
}

// Invalidate tears the session down after the backend rejected the token.
func (m *Manager) Invalidate(ctx context.Context) {
	_ = m.teardown(ctx, "", false)
}

func (m *Manager) teardown(ctx context.Context, reason string, notify bool) error {
	if notify {
		s, err := m.store.Get(ctx)
		if err == nil && s.AccessToken != "" {
			if err := m.api.Logout(ctx); err != nil {
				m.log.Warn("logout request failed", zap.Error(err))
			}
		}
	}

	m.storeMu.Lock()
	err := m.store.Clear(ctx)
	m.storeMu.Unlock()
	if err != nil {
		m.log.Error("clear session", zap.Error(err))
	}
	if reason != "" {
		m.metrics.Teardown(reason)
	}

	m.mu.Lock()
	m.user = nil
	m.token = ""
	m.mu.Unlock()
	m.transition(StateAnonymous)
	m.navigate(ctx, router.Login)

	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// CheckSession syncs the manager with the store. An inconsistent store is cleared.
func (m *Manager) CheckSession(ctx context.Context) bool {
	m.storeMu.Lock()
	s, err := m.store.Get(ctx)
	if err == nil && !s.Consistent() {
		m.log.Warn("inconsistent session cleared")
		err = m.store.Clear(ctx)
		s = model.Session{}
	}
	m.storeMu.Unlock()
	if err != nil {
		m.log.Error("check session", zap.Error(err))
		s = model.Session{}
	}

	m.mu.Lock()
	m.user = s.User
	m.token = s.AccessToken
	m.mu.Unlock()
	if s.Authenticated() {
		m.transition(StateAuthenticated)
		return true
	}
	m.transition(StateAnonymous)
	return false
}

// WhoAmI returns the cached identity. No network or store access.
func (m *Manager) WhoAmI() (Identity, bool) {
	m.mu.RLock()
	u, tok := m.user, m.token
	m.mu.RUnlock()
	if u == nil {
		return Identity{}, false
	}
	return Identity{
		ID:             u.ID,
		Name:           u.Name,
		Email:          u.Email,
		Role:           u.Role,
		CustomerID:     u.CustomerID,
		ProfessionalID: u.ProfessionalID,
		ExpiresAt:      tokenExpiry(tok),
	}, true
}

// tokenExpiry reads exp without verifying the signature; the client has no key.
func tokenExpiry(tok string) time.Time {
	if tok == "" {
		return time.Time{}
	}
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(tok, &claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Role returns the signed-in role or "".
func (m *Manager) Role() model.Role {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return ""
	}
	return m.user.Role
}

func (m *Manager) IsAdmin() bool        { return m.Role() == model.RoleAdmin }
func (m *Manager) IsCustomer() bool     { return m.Role() == model.RoleCustomer }
func (m *Manager) IsProfessional() bool { return m.Role() == model.RoleProfessional }

// LastError is the message recorded by the last failed login or registration.
func (m *Manager) LastError() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastErr
}

func (m *Manager) ClearError() {
	m.mu.Lock()
	m.lastErr = ""
	m.mu.Unlock()
}

// Subscribe registers fn for state changes. fn runs on the goroutine that caused the change.
func (m *Manager) Subscribe(fn func(State)) (cancel func()) {
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	m.mu.Unlock()
	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

func (m *Manager) fail(err error, fallback string) {
	msg := errs.Message(err, fallback)
	m.mu.Lock()
	m.lastErr = msg
	m.mu.Unlock()
	m.log.Debug("auth failed", zap.String("message", msg), zap.Error(err))
}

// settled is the state implied by the cached identity.
func (m *Manager) settled() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user != nil && m.token != "" {
		return StateAuthenticated
	}
	return StateAnonymous
}

func (m *Manager) transition(to State) {
	m.mu.Lock()
	from := m.state
	m.state = to
	subs := make([]func(State), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	m.mu.Unlock()

	if from == to {
		return
	}
	m.log.Debug("auth state", zap.Stringer("from", from), zap.Stringer("to", to))
	for _, fn := range subs {
		fn(to)
	}
}

func (m *Manager) navigate(ctx context.Context, name string) {
	if m.nav == nil {
		return
	}
	if _, err := m.nav.Navigate(ctx, name); err != nil {
		m.log.Warn("navigate", zap.String("route", name), zap.Error(err))
	}
}
