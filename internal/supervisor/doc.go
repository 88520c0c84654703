// ColdWatch - Cold-Room Monitoring Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coldwatch

/*
Package supervisor runs the long-lived parts of the ColdWatch daemon under a
suture v4 supervisor tree.

# Overview

	RootSupervisor ("coldwatch")
	├── SyncSupervisor ("sync-layer")
	│   ├── connection-monitor
	│   └── snapshot-poller
	└── APISupervisor ("api-layer")
	    ├── websocket-hub
	    ├── websocket-relay
	    └── http-server (if server.enabled)

A failure in one layer restarts only that layer's services, so the snapshot
keeps refreshing while the status API restarts, and WebSocket clients stay
connected while the poller restarts.

# Usage

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger("supervisor"), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddSyncService(services.NewConnectionMonitorService(monitor))
	tree.AddSyncService(services.NewSnapshotPollerService(store))
	tree.AddAPIService(services.NewWebSocketHubService(hub))

	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
	    return err
	}

# Configuration

TreeConfig zero values take suture's defaults:
  - FailureThreshold: 5 failures
  - FailureDecay: 30 seconds
  - FailureBackoff: 15 seconds
  - ShutdownTimeout: 10 seconds

Supervisor events (service start, failure, backoff) are logged through
sutureslog, which writes to the zerolog logger via logging.NewSlogLogger.

# Debugging Shutdown Issues

	report, _ := tree.UnstoppedServiceReport()
	for _, svc := range report {
	    logging.Warn().Str("service", svc.Name).Msg("service did not stop")
	}
*/
package supervisor
