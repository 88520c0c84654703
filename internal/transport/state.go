// ColdWatch - Cold-Room Monitoring Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coldwatch

package transport

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/tomtom215/coldwatch/internal/clock"
	"github.com/tomtom215/coldwatch/internal/logging"
	"github.com/tomtom215/coldwatch/internal/metrics"
)

// StateConfig configures request pacing.
type StateConfig struct {
	MinInterval     time.Duration
	RateLimitWindow time.Duration
}

// State is the pacing state shared by every request to one backend origin:
// the minimum spacing between sends and the rate-limit window opened by a 429.
// Construct one per process and hand the same pointer to every Transport.
type State struct {
	clk    clock.Clock
	window time.Duration

	mu          sync.Mutex
	limiter     *rate.Limiter
	rateLimited bool
	resetAt     time.Time
}

// NewState creates a State. A nil clock selects the system clock.
func NewState(cfg StateConfig, clk clock.Clock) *State {
	if clk == nil {
		clk = clock.Real()
	}
	limit := rate.Inf
	if cfg.MinInterval > 0 {
		limit = rate.Every(cfg.MinInterval)
	}
	return &State{
		clk:     clk,
		window:  cfg.RateLimitWindow,
		limiter: rate.NewLimiter(limit, 1),
	}
}

// IsRateLimited reports whether a rate-limit window is currently active.
func (s *State) IsRateLimited() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rateLimited && s.clk.Now().Before(s.resetAt)
}

// ResetAt returns the end of the current (or last) rate-limit window.
func (s *State) ResetAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resetAt
}

// MarkRateLimited opens a rate-limit window starting now and returns its end.
func (s *State) MarkRateLimited() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rateLimited = true
	s.resetAt = s.clk.Now().Add(s.window)
	metrics.TransportRateLimitHits.Inc()
	metrics.SetRateLimited(true)
	logging.Warn().Time("reset_at", s.resetAt).Msg("Backend rate limit hit, holding requests")
	return s.resetAt
}

// Wait blocks until a request may be sent: first until any rate-limit window
// has elapsed (clearing the flag), then until the minimum spacing since the
// previous send is satisfied. A window opened during the spacing wait starts
// the wait over. Returning nil consumes the send slot.
func (s *State) Wait(ctx context.Context) error {
	start := s.clk.Now()
	defer func() {
		metrics.TransportSpacingWait.Observe(s.clk.Now().Sub(start).Seconds())
	}()

	for {
		s.mu.Lock()
		now := s.clk.Now()
		if s.rateLimited {
			if wait := s.resetAt.Sub(now); wait > 0 {
				s.mu.Unlock()
				if err := clock.Sleep(ctx, s.clk, wait); err != nil {
					return err
				}
				continue
			}
			s.rateLimited = false
			metrics.SetRateLimited(false)
		}

		r := s.limiter.ReserveN(now, 1)
		delay := r.DelayFrom(now)
		s.mu.Unlock()

		if delay <= 0 {
			return nil
		}
		if err := clock.Sleep(ctx, s.clk, delay); err != nil {
			r.CancelAt(s.clk.Now())
			return err
		}

		// A 429 seen while this caller slept holds it too.
		s.mu.Lock()
		now = s.clk.Now()
		opened := s.rateLimited && now.Before(s.resetAt)
		if opened {
			r.CancelAt(now)
		}
		s.mu.Unlock()
		if !opened {
			return nil
		}
	}
}

// FailIfRateLimited returns a *RateLimitedError when a window is active.
func (s *State) FailIfRateLimited() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rateLimited && s.clk.Now().Before(s.resetAt) {
		return &RateLimitedError{ResetAt: s.resetAt}
	}
	return nil
}
