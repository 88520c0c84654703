// ColdWatch - Cold-Room Monitoring Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coldwatch

package auth

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"

	"github.com/tomtom215/coldwatch/internal/clock"
	"github.com/tomtom215/coldwatch/internal/models"
	"github.com/tomtom215/coldwatch/internal/transport"
)

// doerFunc adapts a function to the Doer interface.
type doerFunc func(ctx context.Context, req *transport.Request) (*transport.Response, error)

func (f doerFunc) Do(ctx context.Context, req *transport.Request) (*transport.Response, error) {
	return f(ctx, req)
}

func jsonResponse(status int, v any) *transport.Response {
	body, _ := json.Marshal(v)
	return &transport.Response{StatusCode: status, Body: body}
}

func newTestManager(t *testing.T, doer Doer) *Manager {
	t.Helper()
	m := NewManager(NewMemoryTokenStore(), doer, ManagerConfig{}, clock.NewFake(time.Unix(1_700_000_000, 0)))
	if err := m.SetSession(context.Background(), Session{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		User:         &models.User{ID: 7, Username: "ana"},
	}); err != nil {
		t.Fatalf("SetSession() error = %v", err)
	}
	return m
}

func TestManager_RefreshSingleFlight(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	release := make(chan struct{})
	doer := doerFunc(func(ctx context.Context, req *transport.Request) (*transport.Response, error) {
		calls.Add(1)
		if req.Path != RefreshPath || req.Method != http.MethodPost {
			t.Errorf("request = %s %s, want POST %s", req.Method, req.Path, RefreshPath)
		}
		var body map[string]string
		_ = json.Unmarshal(req.Body, &body)
		if body["refreshToken"] != "refresh-1" {
			t.Errorf("refreshToken = %q, want refresh-1", body["refreshToken"])
		}
		<-release
		return jsonResponse(http.StatusOK, map[string]string{"accessToken": "access-2"}), nil
	})
	m := newTestManager(t, doer)

	const callers = 8
	var wg sync.WaitGroup
	tokens := make([]string, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tokens[i], errs[i] = m.Refresh(context.Background(), "access-1")
		}(i)
	}

	// Give every caller a chance to join the in-flight refresh.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Errorf("refresh requests = %d, want 1", got)
	}
	for i := range tokens {
		if errs[i] != nil || tokens[i] != "access-2" {
			t.Errorf("caller %d = (%q, %v), want (access-2, nil)", i, tokens[i], errs[i])
		}
	}
	if got := m.RefreshToken(); got != "refresh-1" {
		t.Errorf("RefreshToken() = %q, want refresh-1 kept when the response omits it", got)
	}
}

func TestManager_RefreshStaleTokenAlreadyReplaced(t *testing.T) {
	t.Parallel()

	doer := doerFunc(func(context.Context, *transport.Request) (*transport.Response, error) {
		t.Error("unexpected refresh request")
		return nil, errors.New("unexpected")
	})
	m := newTestManager(t, doer)

	got, err := m.Refresh(context.Background(), "access-0")
	if err != nil || got != "access-1" {
		t.Errorf("Refresh() = (%q, %v), want (access-1, nil)", got, err)
	}
}

func TestManager_RefreshRotatesRefreshToken(t *testing.T) {
	t.Parallel()

	doer := doerFunc(func(context.Context, *transport.Request) (*transport.Response, error) {
		return jsonResponse(http.StatusOK, map[string]string{"accessToken": "access-2", "refreshToken": "refresh-2"}), nil
	})
	store := NewMemoryTokenStore()
	m := NewManager(store, doer, ManagerConfig{}, nil)
	_ = m.SetTokens(context.Background(), "access-1", "refresh-1")

	if _, err := m.Refresh(context.Background(), "access-1"); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	saved, _ := store.Load(context.Background())
	if saved.AccessToken != "access-2" || saved.RefreshToken != "refresh-2" {
		t.Errorf("stored session = %+v, want rotated tokens", saved)
	}
}

func TestManager_RefreshEndsSession(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		refresh string
		status  int
	}{
		{"no refresh token", "", 0},
		{"rejected 401", "refresh-1", http.StatusUnauthorized},
		{"rejected 403", "refresh-1", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			doer := doerFunc(func(context.Context, *transport.Request) (*transport.Response, error) {
				return jsonResponse(tt.status, map[string]string{"message": "invalid refresh token"}), nil
			})
			m := newTestManager(t, doer)
			if tt.refresh == "" {
				_ = m.SetTokens(context.Background(), "access-1", "")
			}

			var expired, changedTo atomic.Int32
			changedTo.Store(-1)
			m.OnSessionExpired(func() { expired.Add(1) })
			m.OnUserChange(func(id int) { changedTo.Store(int32(id)) })

			_, err := m.Refresh(context.Background(), "access-1")
			if !errors.Is(err, transport.ErrSessionExpired) {
				t.Fatalf("Refresh() error = %v, want ErrSessionExpired", err)
			}
			if expired.Load() != 1 {
				t.Errorf("expired hooks ran %d times, want 1", expired.Load())
			}
			if changedTo.Load() != 0 {
				t.Errorf("user change hook got %d, want 0", changedTo.Load())
			}
			if !m.Session().IsZero() {
				t.Errorf("Session() = %+v, want cleared", m.Session())
			}
		})
	}
}

func TestManager_RefreshTransportFailureKeepsSession(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		resp *transport.Response
		err  error
		kind error
	}{
		{"timeout", nil, &transport.TimeoutError{Method: "POST", URL: RefreshPath, Timeout: time.Second}, transport.ErrTimeout},
		{"network", nil, &transport.NetworkError{Method: "POST", URL: RefreshPath, Err: errors.New("refused")}, transport.ErrNetwork},
		{"rate limited", nil, &transport.RateLimitedError{}, transport.ErrRateLimited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			doer := doerFunc(func(context.Context, *transport.Request) (*transport.Response, error) {
				return tt.resp, tt.err
			})
			m := newTestManager(t, doer)
			m.OnSessionExpired(func() { t.Error("session expired on a transport failure") })

			_, err := m.Refresh(context.Background(), "access-1")
			if !errors.Is(err, tt.kind) {
				t.Errorf("Refresh() error = %v, want %v", err, tt.kind)
			}
			if m.AccessToken() != "access-1" || m.RefreshToken() != "refresh-1" {
				t.Error("session was modified by a transport failure")
			}
		})
	}

	t.Run("server error", func(t *testing.T) {
		t.Parallel()
		doer := doerFunc(func(context.Context, *transport.Request) (*transport.Response, error) {
			return &transport.Response{StatusCode: http.StatusBadGateway}, nil
		})
		m := newTestManager(t, doer)
		_, err := m.Refresh(context.Background(), "access-1")
		if transport.StatusCode(err) != http.StatusBadGateway {
			t.Errorf("Refresh() error = %v, want HTTP 502", err)
		}
		if m.RefreshToken() != "refresh-1" {
			t.Error("session cleared on 5xx")
		}
	})
}

func TestManager_RefreshDiscardedAfterLogin(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	doer := doerFunc(func(context.Context, *transport.Request) (*transport.Response, error) {
		<-release
		return jsonResponse(http.StatusOK, map[string]string{"accessToken": "old-user-token"}), nil
	})
	m := newTestManager(t, doer)

	done := make(chan string)
	go func() {
		tok, _ := m.Refresh(context.Background(), "access-1")
		done <- tok
	}()
	time.Sleep(20 * time.Millisecond)

	_ = m.SetSession(context.Background(), Session{AccessToken: "new-user-token", RefreshToken: "r", User: &models.User{ID: 9}})
	close(release)

	if got := <-done; got != "new-user-token" {
		t.Errorf("Refresh() = %q, want the newly installed token", got)
	}
	if m.AccessToken() != "new-user-token" {
		t.Errorf("AccessToken() = %q, want new-user-token", m.AccessToken())
	}
}

func TestManager_RefreshCallerCancellation(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	doer := doerFunc(func(ctx context.Context, _ *transport.Request) (*transport.Response, error) {
		<-release
		if ctx.Err() != nil {
			t.Errorf("refresh context cancelled with its first caller: %v", ctx.Err())
		}
		return jsonResponse(http.StatusOK, map[string]string{"accessToken": "access-2"}), nil
	})
	m := newTestManager(t, doer)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error)
	go func() {
		_, err := m.Refresh(ctx, "access-1")
		errc <- err
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()
	if err := <-errc; !errors.Is(err, context.Canceled) {
		t.Errorf("Refresh() error = %v, want context.Canceled", err)
	}

	// A second caller joins the refresh the cancelled caller started.
	tokc := make(chan string)
	go func() {
		tok, _ := m.Refresh(context.Background(), "access-1")
		tokc <- tok
	}()
	time.Sleep(20 * time.Millisecond)
	close(release)
	if got := <-tokc; got != "access-2" {
		t.Errorf("Refresh() = %q, want access-2", got)
	}
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "7",
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("backend-secret"))
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}
	return tok
}

func TestManager_NeedsRefresh(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_700_000_000, 0)
	clk := clock.NewFake(now)

	tests := []struct {
		name    string
		access  string
		refresh string
		want    bool
	}{
		{"far from expiry", signedToken(t, now.Add(time.Hour)), "r", false},
		{"inside skew", signedToken(t, now.Add(10*time.Second)), "r", true},
		{"already expired", signedToken(t, now.Add(-time.Minute)), "r", true},
		{"no refresh token", signedToken(t, now.Add(10*time.Second)), "", false},
		{"opaque token", "opaque", "r", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m := NewManager(nil, nil, ManagerConfig{}, clk)
			_ = m.SetTokens(context.Background(), tt.access, tt.refresh)
			if got := m.NeedsRefresh(30 * time.Second); got != tt.want {
				t.Errorf("NeedsRefresh() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTokenExpiry(t *testing.T) {
	t.Parallel()

	exp := time.Unix(1_800_000_000, 0)
	got, ok := TokenExpiry(signedToken(t, exp))
	if !ok || !got.Equal(exp) {
		t.Errorf("TokenExpiry() = (%v, %v), want (%v, true)", got, ok, exp)
	}
	if _, ok := TokenExpiry("not-a-jwt"); ok {
		t.Error("TokenExpiry(opaque) ok = true, want false")
	}
	if _, ok := TokenExpiry(""); ok {
		t.Error("TokenExpiry(\"\") ok = true, want false")
	}
}

func TestManager_LoadRestoresSession(t *testing.T) {
	t.Parallel()

	store := NewMemoryTokenStore()
	_ = store.Save(context.Background(), Session{AccessToken: "a", RefreshToken: "r", User: &models.User{ID: 3}})

	m := NewManager(store, nil, ManagerConfig{}, nil)
	var notified atomic.Int32
	m.OnUserChange(func(id int) { notified.Store(int32(id)) })
	if err := m.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if m.AccessToken() != "a" || m.CurrentUser().ID != 3 {
		t.Errorf("session = %+v, want restored", m.Session())
	}
	if notified.Load() != 3 {
		t.Errorf("user change hook got %d, want 3", notified.Load())
	}

	u := m.CurrentUser()
	u.ID = 99
	if m.CurrentUser().ID != 3 {
		t.Error("CurrentUser() exposes internal state")
	}
}
