// ColdWatch - Cold-Room Monitoring Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coldwatch

/*
transport.go - Paced HTTP Transport

Every request to the backend goes through Transport.Do, which:
  - waits on the shared State (rate-limit window, then minimum spacing)
  - applies a per-request timeout covering headers and body
  - tags the request with X-Request-ID and User-Agent
  - runs the send through a circuit breaker that trips on network failures
  - maps failures onto TimeoutError, NetworkError and RateLimitedError

HTTP status handling beyond 429 belongs to the caller: Do returns any other
status as a Response so the API client can run the 401 refresh protocol and
read the error envelope.
*/

//nolint:staticcheck // File documentation, not package doc
package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/coldwatch/internal/clock"
	"github.com/tomtom215/coldwatch/internal/logging"
	"github.com/tomtom215/coldwatch/internal/metrics"
)

// DefaultTimeout is applied when a Request carries no Timeout.
const DefaultTimeout = 15 * time.Second

// maxResponseBytes bounds how much of a response body is buffered.
const maxResponseBytes = 32 << 20

// Config configures a Transport.
type Config struct {
	BaseURL        string
	Timeout        time.Duration
	UserAgent      string
	BreakerEnabled bool
	// BreakerMaxFailures consecutive network failures open the breaker.
	BreakerMaxFailures uint32
	BreakerTimeout     time.Duration
}

// Request describes one outbound call.
type Request struct {
	Method string
	// Path is appended to the base URL unless it is already absolute.
	Path    string
	Query   url.Values
	Header  http.Header
	Body    []byte
	Timeout time.Duration
	// FailFast returns a RateLimitedError instead of waiting out an active window.
	FailFast bool
}

// Response is a fully buffered HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Transport sends paced requests to one backend origin.
type Transport struct {
	cfg     Config
	state   *State
	client  *http.Client
	clk     clock.Clock
	breaker *gobreaker.CircuitBreaker[*Response]
}

// New creates a Transport sharing state with every other Transport built on it.
// A nil httpClient selects a default client; timeouts come from the request.
func New(cfg Config, state *State, httpClient *http.Client, clk clock.Clock) *Transport {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if clk == nil {
		clk = clock.Real()
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")

	t := &Transport{
		cfg:    cfg,
		state:  state,
		client: httpClient,
		clk:    clk,
	}
	if cfg.BreakerEnabled {
		t.breaker = newBreaker("backend-api", cfg)
	}
	return t
}

// State returns the shared pacing state.
func (t *Transport) State() *State {
	return t.state
}

// BaseURL returns the configured base URL without a trailing slash.
func (t *Transport) BaseURL() string {
	return t.cfg.BaseURL
}

// Do waits for a send slot and performs req.
func (t *Transport) Do(ctx context.Context, req *Request) (*Response, error) {
	if req.FailFast {
		if err := t.state.FailIfRateLimited(); err != nil {
			metrics.RecordTransportRequest(req.Method, "rate_limited", 0)
			return nil, err
		}
	}
	if err := t.state.Wait(ctx); err != nil {
		return nil, err
	}

	if t.breaker == nil {
		return t.send(ctx, req)
	}
	resp, err := t.breaker.Execute(func() (*Response, error) {
		return t.send(ctx, req)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		metrics.RecordTransportRequest(req.Method, "breaker_open", 0)
		return nil, &NetworkError{Method: req.Method, URL: t.resolve(req), Err: err}
	}
	return resp, err
}

func (t *Transport) resolve(req *Request) string {
	target := req.Path
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		target = t.cfg.BaseURL + target
	}
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}
	return target
}

func (t *Transport) send(ctx context.Context, req *Request) (*Response, error) {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = t.cfg.Timeout
	}
	target := t.resolve(req)

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var body io.Reader = http.NoBody
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(reqCtx, req.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, vals := range req.Header {
		for _, v := range vals {
			httpReq.Header.Add(k, v)
		}
	}
	if req.Body != nil && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if t.cfg.UserAgent != "" {
		httpReq.Header.Set("User-Agent", t.cfg.UserAgent)
	}
	requestID := uuid.New().String()
	httpReq.Header.Set("X-Request-ID", requestID)

	started := time.Now()
	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, t.classify(ctx, reqCtx, req.Method, target, timeout, started, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, t.classify(ctx, reqCtx, req.Method, target, timeout, started, err)
	}
	metrics.RecordHTTPStatus(req.Method, resp.StatusCode, time.Since(started))

	if resp.StatusCode == http.StatusTooManyRequests {
		resetAt := t.state.MarkRateLimited()
		return nil, &RateLimitedError{ResetAt: resetAt}
	}

	logging.Debug().
		Str("method", req.Method).
		Str("url", target).
		Int("status", resp.StatusCode).
		Str("request_id", requestID).
		Dur("duration", time.Since(started)).
		Msg("API request completed")

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
	}, nil
}

// classify maps a transport failure onto the error taxonomy. Cancellation by
// the caller is returned unchanged.
func (t *Transport) classify(parent, reqCtx context.Context, method, target string, timeout time.Duration, started time.Time, err error) error {
	elapsed := time.Since(started)
	if parent.Err() != nil {
		return parent.Err()
	}
	if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
		metrics.RecordTransportRequest(method, "timeout", elapsed)
		logging.Warn().Str("method", method).Str("url", target).Dur("timeout", timeout).Msg("API request timed out")
		return &TimeoutError{Method: method, URL: target, Timeout: timeout}
	}
	metrics.RecordTransportRequest(method, "network", elapsed)
	logging.Warn().Err(err).Str("method", method).Str("url", target).Msg("API request failed")
	return &NetworkError{Method: method, URL: target, Err: err}
}
