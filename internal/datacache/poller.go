// ColdWatch - Cold-Room Monitoring Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coldwatch

package datacache

import (
	"context"
	"time"

	"github.com/tomtom215/coldwatch/internal/clock"
	"github.com/tomtom215/coldwatch/internal/connection"
	"github.com/tomtom215/coldwatch/internal/logging"
)

// ConnectionSource reports backend reachability. *connection.Monitor
// satisfies it.
type ConnectionSource interface {
	IsConnected() bool
	Subscribe() (<-chan connection.State, func())
}

// Option configures a Store.
type Option func(*Store)

// WithConnection gates background polling on conn. Without it the poller
// assumes the backend is always reachable.
func WithConnection(conn ConnectionSource) Option {
	return func(s *Store) {
		s.conn = conn
	}
}

func (s *Store) connected() bool {
	return s.conn == nil || s.conn.IsConnected()
}

// Serve polls the server while the backend is reachable until ctx is
// cancelled. A missing or stale snapshot is refreshed right away, polling
// pauses while disconnected and a reconnect triggers an immediate refresh.
// It implements suture.Service.
func (s *Store) Serve(ctx context.Context) error {
	var states <-chan connection.State
	if s.conn != nil {
		ch, unsubscribe := s.conn.Subscribe()
		defer unsubscribe()
		states = ch
	}

	logging.Info().
		Dur("refresh_interval", s.cfg.RefreshInterval).
		Msg("Snapshot poller started")

	online := s.connected()
	if online {
		snap := s.Snapshot()
		if snap.IsEmpty() || snap.Age(s.clk.Now()) > s.cfg.StaleAfter {
			_ = s.RefreshAll(ctx)
		}
	}

	var timer clock.Timer
	arm := func() {
		if timer != nil {
			timer.Stop()
			timer = nil
		}
		if online {
			timer = s.clk.NewTimer(s.cfg.RefreshInterval)
		}
	}
	arm()
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		var tick <-chan time.Time
		if timer != nil {
			tick = timer.C()
		}
		select {
		case <-ctx.Done():
			logging.Info().Msg("Snapshot poller stopped")
			return ctx.Err()
		case st := <-states:
			switch {
			case st.IsConnected && !online:
				online = true
				logging.Info().Msg("Backend reachable again, refreshing snapshot")
				_ = s.RefreshAll(ctx)
				arm()
			case !st.IsConnected && online:
				online = false
				logging.Debug().Msg("Backend unreachable, polling suspended")
				arm()
			}
		case <-tick:
			timer = nil
			_ = s.RefreshAll(ctx)
			arm()
		}
	}
}
