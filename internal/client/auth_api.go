// ColdWatch - Cold-Room Monitoring Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coldwatch

package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tomtom215/coldwatch/internal/auth"
	"github.com/tomtom215/coldwatch/internal/logging"
	"github.com/tomtom215/coldwatch/internal/models"
	"github.com/tomtom215/coldwatch/internal/transport"
)

// ErrLoginTimeout is returned when the backend does not answer a login in time.
var ErrLoginTimeout = errors.New("login timeout - backend may be unavailable")

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login exchanges credentials for a session. The new session replaces any
// previous one and the response cache is emptied.
func (c *Client) Login(ctx context.Context, username, password string) (*models.LoginResponse, error) {
	body, err := json.Marshal(loginRequest{Username: username, Password: password})
	if err != nil {
		return nil, fmt.Errorf("marshal login request: %w", err)
	}

	resp, err := c.doer.Do(ctx, &transport.Request{
		Method:  http.MethodPost,
		Path:    "/auth/login",
		Body:    body,
		Timeout: c.cfg.LoginTimeout,
	})
	if err != nil {
		if errors.Is(err, transport.ErrTimeout) {
			return nil, fmt.Errorf("%w: %w", ErrLoginTimeout, err)
		}
		return nil, err
	}
	if !resp.OK() {
		return nil, errorFromResponse(resp, "Login failed")
	}

	var out models.LoginResponse
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return nil, &DecodeError{Path: "/auth/login", Err: err}
	}
	if out.AccessToken == "" {
		return nil, &DecodeError{Path: "/auth/login", Err: errors.New("missing accessToken")}
	}

	user := out.User
	if err := c.auth.SetSession(ctx, auth.Session{
		AccessToken:  out.AccessToken,
		RefreshToken: out.RefreshToken,
		User:         &user,
	}); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Failed to persist session")
	}
	c.cache.Clear()

	logging.Ctx(ctx).Info().
		Int("user_id", out.User.ID).
		Str("role", string(out.User.Role)).
		Msg("Signed in")
	return &out, nil
}

// Logout notifies the backend and ends the local session. The local session
// is cleared even when the backend call fails; that error is returned.
func (c *Client) Logout(ctx context.Context) error {
	err := c.call(ctx, requestConfig{method: http.MethodPost, path: "/auth/logout"}, nil)

	if clearErr := c.auth.ClearTokens(ctx); clearErr != nil {
		logging.Ctx(ctx).Warn().Err(clearErr).Msg("Failed to clear persisted session")
	}
	c.cache.Clear()

	if err != nil {
		logging.Ctx(ctx).Debug().Err(err).Msg("Backend logout failed, local session cleared")
	}
	return err
}

// CurrentUser returns the signed-in user, or nil.
func (c *Client) CurrentUser() *models.User {
	return c.auth.CurrentUser()
}

// ErrHealthCheckFailed wraps any failed health probe other than rate limiting.
var ErrHealthCheckFailed = errors.New("health check failed")

// CheckHealth probes the backend health endpoint outside the /api prefix. It
// fails fast during a rate-limit window. Any non-2xx is a failure.
func (c *Client) CheckHealth(ctx context.Context) (*models.HealthStatus, error) {
	resp, err := c.doer.Do(ctx, &transport.Request{
		Method:   http.MethodGet,
		Path:     c.cfg.HealthURL,
		Timeout:  c.cfg.HealthTimeout,
		FailFast: true,
	})
	if err != nil {
		if errors.Is(err, transport.ErrRateLimited) || errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrHealthCheckFailed, err)
	}
	if !resp.OK() {
		return nil, fmt.Errorf("%w: %w", ErrHealthCheckFailed,
			&transport.HTTPError{StatusCode: resp.StatusCode, Message: "Health check failed"})
	}

	var out models.HealthStatus
	if len(resp.Body) > 0 {
		// A non-JSON body from a healthy backend is still healthy.
		_ = json.Unmarshal(resp.Body, &out)
	}
	return &out, nil
}
