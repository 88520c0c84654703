// ColdWatch - Cold-Room Monitoring Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coldwatch

package connection

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/tomtom215/coldwatch/internal/clock"
	"github.com/tomtom215/coldwatch/internal/logging"
	"github.com/tomtom215/coldwatch/internal/metrics"
)

// Default timings.
const (
	DefaultInitialCheckDelay     = 2 * time.Second
	DefaultHealthInterval        = 120 * time.Second
	DefaultMinCheckInterval      = 30 * time.Second
	DefaultReconnectInitialDelay = 15 * time.Second
	DefaultReconnectBaseDelay    = 30 * time.Second
	DefaultReconnectMaxDelay     = 300 * time.Second

	// maxBackoffExponent caps the doubling so the schedule reaches the max delay.
	maxBackoffExponent = 4
)

// Prober performs one health probe. A nil error means the backend is reachable.
type Prober interface {
	Probe(ctx context.Context) error
}

// ProberFunc adapts a function to the Prober interface.
type ProberFunc func(ctx context.Context) error

// Probe calls f(ctx).
func (f ProberFunc) Probe(ctx context.Context) error { return f(ctx) }

// RateLimitState reports the shared rate-limit window. *transport.State satisfies it.
type RateLimitState interface {
	IsRateLimited() bool
}

// Config holds the monitor timings. Zero values select the defaults.
type Config struct {
	InitialCheckDelay     time.Duration
	HealthInterval        time.Duration
	MinCheckInterval      time.Duration
	ReconnectInitialDelay time.Duration
	ReconnectBaseDelay    time.Duration
	ReconnectMaxDelay     time.Duration
}

func (c *Config) applyDefaults() {
	if c.InitialCheckDelay <= 0 {
		c.InitialCheckDelay = DefaultInitialCheckDelay
	}
	if c.HealthInterval <= 0 {
		c.HealthInterval = DefaultHealthInterval
	}
	if c.MinCheckInterval <= 0 {
		c.MinCheckInterval = DefaultMinCheckInterval
	}
	if c.ReconnectInitialDelay <= 0 {
		c.ReconnectInitialDelay = DefaultReconnectInitialDelay
	}
	if c.ReconnectBaseDelay <= 0 {
		c.ReconnectBaseDelay = DefaultReconnectBaseDelay
	}
	if c.ReconnectMaxDelay <= 0 {
		c.ReconnectMaxDelay = DefaultReconnectMaxDelay
	}
}

// ReconnectDelay returns the wait after the n-th failed reconnect attempt
// (n from 0): base * 2^min(n, 4), capped at maxDelay.
func ReconnectDelay(n int, base, maxDelay time.Duration) time.Duration {
	if n < 0 {
		n = 0
	}
	if n > maxBackoffExponent {
		n = maxBackoffExponent
	}
	d := time.Duration(float64(base) * math.Pow(2, float64(n)))
	if d <= 0 || d > maxDelay {
		d = maxDelay
	}
	return d
}

// State is the connection state exposed to callers. It is never persisted.
type State struct {
	IsConnected   bool      `json:"isConnected"`
	IsChecking    bool      `json:"isChecking"`
	LastConnected time.Time `json:"lastConnected,omitempty"`
	RetryCount    int       `json:"retryCount"`
}

// Monitor tracks backend reachability with periodic health probes and a
// backoff reconnect loop.
type Monitor struct {
	prober  Prober
	limiter RateLimitState
	cfg     Config
	clk     clock.Clock

	mu        sync.Mutex
	state     State
	lastCheck time.Time
	// attempt counts failed reconnect attempts in the current outage.
	attempt int
	next    time.Duration
	subs    map[int]chan State
	nextSub int

	kick chan struct{}
}

// NewMonitor creates a Monitor in the Connected state. limiter may be nil.
func NewMonitor(prober Prober, limiter RateLimitState, cfg Config, clk clock.Clock) *Monitor {
	cfg.applyDefaults()
	if clk == nil {
		clk = clock.Real()
	}
	metrics.SetConnectionState(true, 0)
	return &Monitor{
		prober:  prober,
		limiter: limiter,
		cfg:     cfg,
		clk:     clk,
		state:   State{IsConnected: true},
		subs:    make(map[int]chan State),
		kick:    make(chan struct{}, 1),
	}
}

// State returns the current state.
func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// IsConnected reports whether the backend is considered reachable.
func (m *Monitor) IsConnected() bool {
	return m.State().IsConnected
}

// Subscribe returns a channel that receives the latest state after every
// change, and a function that cancels the subscription. Slow readers only
// see the most recent state.
func (m *Monitor) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 1)
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = ch
	m.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subs, id)
			m.mu.Unlock()
		})
	}
}

// publishLocked delivers the current state to every subscriber. Caller holds mu.
func (m *Monitor) publishLocked() {
	s := m.state
	for _, ch := range m.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- s:
		default:
		}
	}
	metrics.SetConnectionState(s.IsConnected, s.RetryCount)
}

// Check runs a caller-triggered health probe. It returns the last known
// state without a network call when the rate-limit window is active, when the
// previous check started less than the minimum interval ago, or when a check
// is already in flight, in that order. A concluded check reschedules the
// background loop from the new state.
func (m *Monitor) Check(ctx context.Context) bool {
	ok, ran := m.run(ctx, true)
	if ran {
		select {
		case m.kick <- struct{}{}:
		default:
		}
	}
	return ok
}

// run performs one guarded probe and reports the resulting connectivity and
// whether a probe actually ran. Background reconnect attempts skip the
// minimum-interval guard.
func (m *Monitor) run(ctx context.Context, minIntervalGuard bool) (connected, ran bool) {
	m.mu.Lock()
	if m.limiter != nil && m.limiter.IsRateLimited() {
		connected = m.state.IsConnected
		m.mu.Unlock()
		metrics.HealthChecks.WithLabelValues("skipped").Inc()
		return connected, false
	}
	now := m.clk.Now()
	if minIntervalGuard && !m.lastCheck.IsZero() && now.Sub(m.lastCheck) < m.cfg.MinCheckInterval {
		connected = m.state.IsConnected
		m.mu.Unlock()
		metrics.HealthChecks.WithLabelValues("skipped").Inc()
		return connected, false
	}
	if m.state.IsChecking {
		connected = m.state.IsConnected
		m.mu.Unlock()
		metrics.HealthChecks.WithLabelValues("skipped").Inc()
		return connected, false
	}
	m.lastCheck = now
	m.state.IsChecking = true
	wasConnected := m.state.IsConnected
	m.publishLocked()
	m.mu.Unlock()

	ctx = logging.ContextWithNewCorrelationID(ctx)
	err := m.prober.Probe(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.IsChecking = false
	if err != nil && ctx.Err() != nil {
		// Torn down mid-probe; the outcome says nothing about the backend.
		m.publishLocked()
		return m.state.IsConnected, false
	}
	if err == nil {
		m.state.IsConnected = true
		m.state.RetryCount = 0
		m.state.LastConnected = m.clk.Now()
		m.attempt = 0
		m.next = m.cfg.HealthInterval
		metrics.HealthChecks.WithLabelValues("ok").Inc()
		if !wasConnected {
			logging.Ctx(ctx).Info().Msg("Backend connection restored")
		}
	} else {
		m.state.IsConnected = false
		m.state.RetryCount++
		if wasConnected {
			m.attempt = 0
			m.next = m.cfg.ReconnectInitialDelay
			logging.Ctx(ctx).Warn().Err(err).Msg("Backend unreachable, starting reconnect loop")
		} else {
			m.next = ReconnectDelay(m.attempt, m.cfg.ReconnectBaseDelay, m.cfg.ReconnectMaxDelay)
			m.attempt++
			logging.Ctx(ctx).Debug().
				Err(err).
				Int("retry_count", m.state.RetryCount).
				Dur("next_attempt", m.next).
				Msg("Reconnect attempt failed")
		}
		metrics.HealthChecks.WithLabelValues("failed").Inc()
	}
	m.publishLocked()
	return m.state.IsConnected, true
}

// Serve runs the probe schedule until ctx is cancelled. It implements
// suture.Service.
func (m *Monitor) Serve(ctx context.Context) error {
	logging.Info().
		Dur("initial_delay", m.cfg.InitialCheckDelay).
		Dur("health_interval", m.cfg.HealthInterval).
		Msg("Connection monitor started")

	delay := m.cfg.InitialCheckDelay
	for {
		timer := m.clk.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			logging.Info().Msg("Connection monitor stopped")
			return ctx.Err()
		case <-m.kick:
			timer.Stop()
			delay = m.pendingDelay()
		case <-timer.C():
			delay = m.tick(ctx)
		}
	}
}

// tick runs the scheduled probe for the current state and returns the delay
// until the next one.
func (m *Monitor) tick(ctx context.Context) time.Duration {
	if m.IsConnected() {
		if _, ran := m.run(ctx, true); !ran {
			return m.cfg.HealthInterval
		}
		return m.pendingDelay()
	}
	if _, ran := m.run(ctx, false); !ran {
		// Rate-limited or already checking: try again later without counting.
		m.mu.Lock()
		defer m.mu.Unlock()
		return ReconnectDelay(m.attempt, m.cfg.ReconnectBaseDelay, m.cfg.ReconnectMaxDelay)
	}
	return m.pendingDelay()
}

// pendingDelay is the delay chosen by the last concluded probe.
func (m *Monitor) pendingDelay() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.next <= 0 {
		return m.cfg.HealthInterval
	}
	return m.next
}
