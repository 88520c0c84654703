// ColdWatch - Cold-Room Monitoring Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coldwatch

package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/coldwatch/internal/logging"
)

// Runner is a component with a context-bound run loop. It is satisfied by
// *connection.Monitor, *datacache.Store, *websocket.Hub and *websocket.Relay.
type Runner interface {
	Serve(ctx context.Context) error
}

// RunnerService gives a Runner a name for suture's logs and wraps the errors
// it returns.
type RunnerService struct {
	runner Runner
	name   string
}

// NewRunnerService wraps runner under name.
func NewRunnerService(name string, runner Runner) *RunnerService {
	return &RunnerService{runner: runner, name: name}
}

// NewConnectionMonitorService supervises the backend health monitor.
func NewConnectionMonitorService(monitor Runner) *RunnerService {
	return NewRunnerService("connection-monitor", monitor)
}

// NewSnapshotPollerService supervises the snapshot store's refresh loop.
func NewSnapshotPollerService(store Runner) *RunnerService {
	return NewRunnerService("snapshot-poller", store)
}

// NewWebSocketHubService supervises the WebSocket hub.
func NewWebSocketHubService(hub Runner) *RunnerService {
	return NewRunnerService("websocket-hub", hub)
}

// NewRelayService supervises the snapshot and connection relay.
func NewRelayService(relay Runner) *RunnerService {
	return NewRunnerService("websocket-relay", relay)
}

// Serve implements suture.Service. Returning while ctx is still live counts
// as a failure, so suture restarts the runner.
func (s *RunnerService) Serve(ctx context.Context) error {
	err := s.runner.Serve(ctx)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err == nil {
		err = errors.New("stopped unexpectedly")
	}
	logging.Warn().Err(err).Str("service", s.name).Msg("Supervised service exited")
	return fmt.Errorf("%s: %w", s.name, err)
}

// String implements fmt.Stringer; suture uses it in log messages.
func (s *RunnerService) String() string {
	return s.name
}
