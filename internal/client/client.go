// ColdWatch - Cold-Room Monitoring Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coldwatch

package client

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/coldwatch/internal/auth"
	"github.com/tomtom215/coldwatch/internal/cache"
	"github.com/tomtom215/coldwatch/internal/clock"
	"github.com/tomtom215/coldwatch/internal/logging"
	"github.com/tomtom215/coldwatch/internal/models"
	"github.com/tomtom215/coldwatch/internal/transport"
	"github.com/tomtom215/coldwatch/internal/validation"
)

// Defaults for the unauthenticated endpoints.
const (
	DefaultLoginTimeout  = 15 * time.Second
	DefaultHealthTimeout = 5 * time.Second
)

// fallbackMessage is used when an error response carries no message.
const fallbackMessage = "Request failed"

// Authorizer decides whether a role may perform a mutating operation.
// *authz.Gate satisfies it.
type Authorizer interface {
	Check(role models.Role, resource, action string) error
}

// Config configures a Client.
type Config struct {
	// HealthURL is the absolute URL of the backend health endpoint.
	HealthURL     string
	HealthTimeout time.Duration
	LoginTimeout  time.Duration

	// RefreshSkew refreshes the access token ahead of its exp claim.
	// Zero disables proactive refresh.
	RefreshSkew time.Duration
}

// Client is the typed facade over the backend REST API. It adds bearer
// authentication, token refresh, read caching and call-site invalidation on top
// of the transport.
type Client struct {
	doer  auth.Doer
	auth  *auth.Manager
	cache *cache.Cache
	gate  Authorizer
	cfg   Config
	clk   clock.Clock
}

// Option customizes a Client.
type Option func(*Client)

// WithAuthorizer enables the role gate on mutating operations.
func WithAuthorizer(a Authorizer) Option {
	return func(c *Client) { c.gate = a }
}

// WithClock injects the time source used for export file names.
func WithClock(clk clock.Clock) Option {
	return func(c *Client) { c.clk = clk }
}

// New creates a Client. doer is normally a *transport.Transport shared with mgr.
func New(doer auth.Doer, mgr *auth.Manager, respCache *cache.Cache, cfg Config, opts ...Option) *Client {
	if cfg.HealthTimeout <= 0 {
		cfg.HealthTimeout = DefaultHealthTimeout
	}
	if cfg.LoginTimeout <= 0 {
		cfg.LoginTimeout = DefaultLoginTimeout
	}
	if respCache == nil {
		respCache = cache.New(0, nil)
	}
	c := &Client{
		doer:  doer,
		auth:  mgr,
		cache: respCache,
		cfg:   cfg,
		clk:   clock.Real(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Auth returns the session manager.
func (c *Client) Auth() *auth.Manager {
	return c.auth
}

// Cache returns the response cache.
func (c *Client) Cache() *cache.Cache {
	return c.cache
}

// requestConfig describes one authenticated call.
type requestConfig struct {
	method   string
	path     string
	query    url.Values
	body     any
	fallback string
}

// send performs an authenticated request: bearer header, proactive refresh,
// and a single refresh-and-retry on 401.
func (c *Client) send(ctx context.Context, req *transport.Request) (*transport.Response, error) {
	if c.cfg.RefreshSkew > 0 && c.auth.NeedsRefresh(c.cfg.RefreshSkew) {
		if _, err := c.auth.Refresh(ctx, c.auth.AccessToken()); err != nil {
			if errors.Is(err, transport.ErrSessionExpired) {
				return nil, err
			}
			logging.Ctx(ctx).Debug().Err(err).Msg("Proactive token refresh failed")
		}
	}

	token := c.auth.AccessToken()
	resp, err := c.doer.Do(ctx, withBearer(req, token))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized || c.auth.RefreshToken() == "" {
		return resp, nil
	}

	fresh, err := c.auth.Refresh(ctx, token)
	if err != nil {
		return nil, err
	}
	resp, err = c.doer.Do(ctx, withBearer(req, fresh))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		c.auth.Expire(ctx, "request unauthorized after token refresh")
		return nil, transport.ErrSessionExpired
	}
	return resp, nil
}

func withBearer(req *transport.Request, token string) *transport.Request {
	out := *req
	out.Header = req.Header.Clone()
	if out.Header == nil {
		out.Header = http.Header{}
	}
	if token != "" {
		out.Header.Set("Authorization", "Bearer "+token)
	}
	return &out
}

// call sends cfg and decodes a 2xx body into out. A 204 leaves out untouched.
func (c *Client) call(ctx context.Context, cfg requestConfig, out any) error {
	req := &transport.Request{Method: cfg.method, Path: cfg.path, Query: cfg.query}
	if cfg.body != nil {
		data, err := json.Marshal(cfg.body)
		if err != nil {
			return errors.New("marshal request body: " + err.Error())
		}
		req.Body = data
	}

	resp, err := c.send(ctx, req)
	if err != nil {
		return err
	}
	if !resp.OK() {
		return errorFromResponse(resp, cfg.fallback)
	}
	if resp.StatusCode == http.StatusNoContent || out == nil || len(resp.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return &DecodeError{Path: cfg.path, Err: err}
	}
	return nil
}

// getCached serves a GET from the response cache, fetching and storing it on a
// miss. A hit returns the identical stored value.
func getCached[T any](ctx context.Context, c *Client, path string, query url.Values) (T, error) {
	key := cache.GenerateKey(path, query)
	if v, ok := c.cache.Get(key); ok {
		if hit, ok := v.(T); ok {
			return hit, nil
		}
	}

	var out T
	if err := c.call(ctx, requestConfig{method: http.MethodGet, path: path, query: query}, &out); err != nil {
		var zero T
		return zero, err
	}
	c.cache.Set(key, out)
	return out, nil
}

// mutate sends a write and invalidates the given resource families afterwards,
// whether or not the write succeeded, since a failed write may still have
// been applied server-side.
func mutate[T any](ctx context.Context, c *Client, cfg requestConfig, families ...string) (T, error) {
	var out T
	err := c.call(ctx, cfg, &out)
	c.invalidate(ctx, families...)
	return out, err
}

// invalidate drops every cache entry under the given path prefixes.
func (c *Client) invalidate(ctx context.Context, families ...string) {
	if len(families) == 0 {
		return
	}
	n := c.cache.DeletePrefix(families...)
	logging.Ctx(ctx).Debug().Strs("families", families).Int("entries", n).Msg("Response cache invalidated")
}

// authorize consults the role gate for the signed-in user. An unknown user
// is let through; the backend decides.
func (c *Client) authorize(resource, action string) error {
	if c.gate == nil {
		return nil
	}
	user := c.auth.CurrentUser()
	if user == nil {
		return nil
	}
	return c.gate.Check(user.Role, resource, action)
}

// precheck runs the role gate and payload validation before a write.
func (c *Client) precheck(resource, action string, payload any) error {
	if err := c.authorize(resource, action); err != nil {
		return err
	}
	if payload != nil {
		if err := validation.Validate(payload); err != nil {
			return err
		}
	}
	return nil
}

// errorEnvelope is the backend's error body.
type errorEnvelope struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// errorFromResponse builds an HTTPError from a non-2xx response, preferring the
// envelope's message, then its error, then fallback.
func errorFromResponse(resp *transport.Response, fallback string) error {
	if fallback == "" {
		fallback = fallbackMessage
	}
	var env errorEnvelope
	msg := fallback
	if len(resp.Body) > 0 && json.Unmarshal(resp.Body, &env) == nil {
		switch {
		case env.Message != "":
			msg = env.Message
		case env.Error != "":
			msg = env.Error
		}
	}
	return &transport.HTTPError{StatusCode: resp.StatusCode, Message: msg}
}

// DecodeError reports a 2xx response whose body did not match the expected shape.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return "decode " + e.Path + ": " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error { return e.Err }
