// ColdWatch - Cold-Room Monitoring Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coldwatch

package transport

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Error kinds. Every typed error below matches exactly one of these with errors.Is.
var (
	ErrTimeout        = errors.New("request timeout")
	ErrNetwork        = errors.New("network error - unable to connect")
	ErrRateLimited    = errors.New("rate limited - please wait")
	ErrSessionExpired = errors.New("session expired")
)

// TimeoutError reports a request that exceeded its deadline.
type TimeoutError struct {
	Method  string
	URL     string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s %s: %v after %v", e.Method, e.URL, ErrTimeout, e.Timeout)
}

func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }

// NetworkError reports a request that never produced an HTTP response
// (DNS, refused connection, open circuit breaker).
type NetworkError struct {
	Method string
	URL    string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %v: %v", e.Method, e.URL, ErrNetwork, e.Err)
}

func (e *NetworkError) Is(target error) bool { return target == ErrNetwork }

func (e *NetworkError) Unwrap() error { return e.Err }

// RateLimitedError reports an HTTP 429 or an active rate-limit window.
type RateLimitedError struct {
	ResetAt time.Time
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("%v (until %s)", ErrRateLimited, e.ResetAt.Format(time.RFC3339))
}

func (e *RateLimitedError) Is(target error) bool { return target == ErrRateLimited }

// HTTPError is a non-success HTTP response carrying the server's message.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is an HTTP 404.
func IsNotFound(err error) bool {
	return statusOf(err) == http.StatusNotFound
}

// IsUnauthorized reports whether err is an HTTP 401.
func IsUnauthorized(err error) bool {
	return statusOf(err) == http.StatusUnauthorized
}

// StatusCode returns the HTTP status carried by err, 429 for rate-limit
// errors, or 0 when err carries none.
func StatusCode(err error) int {
	if errors.Is(err, ErrRateLimited) {
		return http.StatusTooManyRequests
	}
	return statusOf(err)
}

func statusOf(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}
	return 0
}

// Kind names the error category for logs and metrics.
func Kind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrNetwork):
		return "network"
	case errors.Is(err, ErrSessionExpired):
		return "session_expired"
	case statusOf(err) != 0:
		return "http"
	default:
		return "other"
	}
}
