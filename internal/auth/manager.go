// ColdWatch - Cold-Room Monitoring Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coldwatch

package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/coldwatch/internal/clock"
	"github.com/tomtom215/coldwatch/internal/logging"
	"github.com/tomtom215/coldwatch/internal/metrics"
	"github.com/tomtom215/coldwatch/internal/models"
	"github.com/tomtom215/coldwatch/internal/transport"
)

// DefaultRefreshTimeout bounds one POST /auth/refresh.
const DefaultRefreshTimeout = 10 * time.Second

// RefreshPath is the backend's token refresh endpoint.
const RefreshPath = "/auth/refresh"

// Doer sends one request. *transport.Transport satisfies it.
type Doer interface {
	Do(ctx context.Context, req *transport.Request) (*transport.Response, error)
}

// ManagerConfig configures a Manager.
type ManagerConfig struct {
	RefreshTimeout time.Duration
}

// refreshCall is a single-resolution future shared by every caller waiting on
// the same refresh.
type refreshCall struct {
	done  chan struct{}
	token string
	err   error
}

// Manager holds the session and serializes token refreshes.
type Manager struct {
	store TokenStore
	doer  Doer
	cfg   ManagerConfig
	clk   clock.Clock

	mu       sync.Mutex
	session  Session
	gen      uint64
	inflight *refreshCall

	hookMu        sync.Mutex
	expiredHooks  []func()
	userHooks     []func(userID int)
	lastNotifyUID int
}

// NewManager creates a Manager with an empty session. Call Load to restore a
// persisted one.
func NewManager(store TokenStore, doer Doer, cfg ManagerConfig, clk clock.Clock) *Manager {
	if cfg.RefreshTimeout <= 0 {
		cfg.RefreshTimeout = DefaultRefreshTimeout
	}
	if clk == nil {
		clk = clock.Real()
	}
	if store == nil {
		store = NewMemoryTokenStore()
	}
	return &Manager{store: store, doer: doer, cfg: cfg, clk: clk}
}

// Load restores the persisted session, if any.
func (m *Manager) Load(ctx context.Context) error {
	s, err := m.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	m.mu.Lock()
	m.session = s
	m.gen++
	m.mu.Unlock()

	if !s.IsZero() {
		logging.Info().Int("user_id", s.UserID()).Msg("Restored persisted session")
	}
	m.notifyUser(s.UserID())
	return nil
}

// AccessToken returns the current access token, or "" when signed out.
func (m *Manager) AccessToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.AccessToken
}

// RefreshToken returns the current refresh token, or "".
func (m *Manager) RefreshToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.RefreshToken
}

// CurrentUser returns a copy of the signed-in user, or nil.
func (m *Manager) CurrentUser() *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneSession(m.session).User
}

// Session returns a copy of the whole session.
func (m *Manager) Session() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneSession(m.session)
}

// SetSession replaces the session, e.g. after a login.
func (m *Manager) SetSession(ctx context.Context, s Session) error {
	m.mu.Lock()
	m.session = cloneSession(s)
	m.gen++
	m.mu.Unlock()

	err := m.store.Save(ctx, s)
	m.notifyUser(s.UserID())
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// SetTokens replaces both tokens and keeps the user.
func (m *Manager) SetTokens(ctx context.Context, access, refresh string) error {
	m.mu.Lock()
	m.session.AccessToken = access
	m.session.RefreshToken = refresh
	m.gen++
	s := cloneSession(m.session)
	m.mu.Unlock()

	if err := m.store.Save(ctx, s); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// SetUser replaces the signed-in user and keeps the tokens.
func (m *Manager) SetUser(ctx context.Context, u *models.User) error {
	m.mu.Lock()
	if u != nil {
		cp := *u
		u = &cp
	}
	m.session.User = u
	s := cloneSession(m.session)
	m.mu.Unlock()

	err := m.store.Save(ctx, s)
	m.notifyUser(s.UserID())
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// ClearTokens ends the session locally and in the store.
func (m *Manager) ClearTokens(ctx context.Context) error {
	m.mu.Lock()
	m.session = Session{}
	m.gen++
	m.mu.Unlock()

	err := m.store.Clear(ctx)
	m.notifyUser(0)
	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// ExpiresAt returns the access token's exp claim.
func (m *Manager) ExpiresAt() (time.Time, bool) {
	return TokenExpiry(m.AccessToken())
}

// NeedsRefresh reports whether a refresh token is held and the access token
// expires within skew. Opaque tokens never need a proactive refresh.
func (m *Manager) NeedsRefresh(skew time.Duration) bool {
	m.mu.Lock()
	access, refresh := m.session.AccessToken, m.session.RefreshToken
	m.mu.Unlock()
	if access == "" || refresh == "" {
		return false
	}
	exp, ok := TokenExpiry(access)
	if !ok {
		return false
	}
	return !m.clk.Now().Add(skew).Before(exp)
}

// OnSessionExpired registers fn to run after the session is ended by a failed refresh.
func (m *Manager) OnSessionExpired(fn func()) {
	m.hookMu.Lock()
	defer m.hookMu.Unlock()
	m.expiredHooks = append(m.expiredHooks, fn)
}

// OnUserChange registers fn to run when the signed-in user id changes.
// userID is 0 after logout or expiry.
func (m *Manager) OnUserChange(fn func(userID int)) {
	m.hookMu.Lock()
	defer m.hookMu.Unlock()
	m.userHooks = append(m.userHooks, fn)
}

func (m *Manager) notifyUser(userID int) {
	m.hookMu.Lock()
	if userID == m.lastNotifyUID {
		m.hookMu.Unlock()
		return
	}
	m.lastNotifyUID = userID
	hooks := append([]func(int){}, m.userHooks...)
	m.hookMu.Unlock()

	for _, fn := range hooks {
		fn(userID)
	}
}

// Refresh obtains a new access token. stale is the token the caller used when
// it got a 401; if the session already holds a different token, that token is
// returned without a network call. Concurrent callers share one refresh.
func (m *Manager) Refresh(ctx context.Context, stale string) (string, error) {
	m.mu.Lock()
	if current := m.session.AccessToken; current != "" && stale != "" && current != stale {
		m.mu.Unlock()
		metrics.TokenRefreshes.WithLabelValues("shared").Inc()
		return current, nil
	}
	call := m.inflight
	if call == nil {
		call = &refreshCall{done: make(chan struct{})}
		m.inflight = call
		refreshToken, gen := m.session.RefreshToken, m.gen
		go m.runRefresh(ctx, call, refreshToken, gen)
	} else {
		metrics.TokenRefreshes.WithLabelValues("shared").Inc()
	}
	m.mu.Unlock()

	select {
	case <-call.done:
		return call.token, call.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (m *Manager) runRefresh(ctx context.Context, call *refreshCall, refreshToken string, gen uint64) {
	token, err := m.exchange(context.WithoutCancel(ctx), refreshToken, gen)

	m.mu.Lock()
	call.token, call.err = token, err
	m.inflight = nil
	m.mu.Unlock()
	close(call.done)
}

// refreshResponse is the body of a successful POST /auth/refresh.
type refreshResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

func (m *Manager) exchange(ctx context.Context, refreshToken string, gen uint64) (string, error) {
	log := logging.Ctx(ctx)
	if refreshToken == "" {
		m.expire(ctx, gen, "no refresh token")
		return "", transport.ErrSessionExpired
	}

	body, err := json.Marshal(map[string]string{"refreshToken": refreshToken})
	if err != nil {
		return "", fmt.Errorf("marshal refresh request: %w", err)
	}

	resp, err := m.doer.Do(ctx, &transport.Request{
		Method:  http.MethodPost,
		Path:    RefreshPath,
		Body:    body,
		Timeout: m.cfg.RefreshTimeout,
	})
	if err != nil {
		metrics.TokenRefreshes.WithLabelValues("error").Inc()
		log.Warn().Err(err).Str("kind", transport.Kind(err)).Msg("Token refresh failed, session kept")
		return "", err
	}
	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		m.expire(ctx, gen, fmt.Sprintf("refresh rejected with HTTP %d", resp.StatusCode))
		return "", transport.ErrSessionExpired
	}
	if !resp.OK() {
		metrics.TokenRefreshes.WithLabelValues("error").Inc()
		return "", &transport.HTTPError{StatusCode: resp.StatusCode, Message: "Token refresh failed"}
	}

	var out refreshResponse
	if err := json.Unmarshal(resp.Body, &out); err != nil || out.AccessToken == "" {
		metrics.TokenRefreshes.WithLabelValues("error").Inc()
		if err == nil {
			err = errors.New("missing accessToken")
		}
		return "", fmt.Errorf("decode refresh response: %w", err)
	}
	if out.RefreshToken == "" {
		out.RefreshToken = refreshToken
	}

	m.mu.Lock()
	if m.gen != gen {
		// The session was replaced or cleared while the refresh was in flight.
		current := m.session.AccessToken
		m.mu.Unlock()
		if current == "" {
			return "", transport.ErrSessionExpired
		}
		return current, nil
	}
	m.session.AccessToken = out.AccessToken
	m.session.RefreshToken = out.RefreshToken
	m.gen++
	s := cloneSession(m.session)
	m.mu.Unlock()

	if err := m.store.Save(ctx, s); err != nil {
		log.Warn().Err(err).Msg("Failed to persist refreshed tokens")
	}
	metrics.TokenRefreshes.WithLabelValues("success").Inc()
	log.Debug().Msg("Access token refreshed")
	return out.AccessToken, nil
}

// Expire ends the current session and runs the OnSessionExpired hooks. The
// client calls it when a request is still unauthorized after a refresh.
func (m *Manager) Expire(ctx context.Context, reason string) {
	m.mu.Lock()
	gen := m.gen
	m.mu.Unlock()
	m.expire(ctx, gen, reason)
}

// expire ends the session that was current at generation gen. A session
// installed since then is left alone.
func (m *Manager) expire(ctx context.Context, gen uint64, reason string) {
	metrics.TokenRefreshes.WithLabelValues("rejected").Inc()

	m.mu.Lock()
	stale := m.gen != gen
	m.mu.Unlock()
	if stale {
		return
	}
	logging.Ctx(ctx).Warn().Str("reason", reason).Msg("Session expired")

	if err := m.ClearTokens(ctx); err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("Failed to clear expired session")
	}

	m.hookMu.Lock()
	hooks := append([]func(){}, m.expiredHooks...)
	m.hookMu.Unlock()
	for _, fn := range hooks {
		fn()
	}
}
