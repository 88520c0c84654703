// ColdWatch - Cold-Room Monitoring Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coldwatch

/*
Package main is the entry point for the ColdWatch client.

ColdWatch keeps a local, per-user snapshot of a cold-room monitoring backend
(rooms, alerts, dashboard statistics) fresh, survives restarts by persisting
that snapshot, and serves it to local consumers over a small status API.

# Commands

	coldwatch [run]      keep the snapshot fresh and serve it (default)
	coldwatch check      probe the backend health endpoint once; exit 1 when down
	coldwatch export readings|alerts|alerts-history [-from] [-to] [-room] [-status] [-o file]

Export writes to the suggested file name (for example
readings-export-2026-03-01.csv) unless -o is given; "-o -" writes to stdout.
Usage errors exit with status 2.

# Application Architecture

The daemon runs under a Suture v4 supervisor tree:

	RootSupervisor ("coldwatch")
	├── SyncSupervisor ("sync-layer")
	│   ├── connection-monitor (health checks and reconnect backoff)
	│   └── snapshot-poller (periodic refresh while connected)
	└── APISupervisor ("api-layer")
	    ├── websocket-hub
	    ├── websocket-relay (snapshot and connection changes to the hub)
	    └── http-server (optional status API)

Component initialization order:

 1. Configuration: Koanf v2 with defaults, an optional YAML file and environment variables
 2. Logging: zerolog with JSON/console output modes
 3. Storage: BadgerDB for the session and the snapshot when configured
 4. Transport: request pacing, rate-limit window and circuit breaker
 5. Session: persisted tokens, refresh and user change notifications
 6. Client: typed REST facade with response cache and optional Casbin role gate
 7. Connection monitor and snapshot store
 8. Supervisor tree and the status server

# Configuration

	COLDWATCH_CONFIG=/etc/coldwatch/config.yaml
	COLDWATCH_API_URL=https://coldroom.example.com/api
	COLDWATCH_USERNAME=ana
	COLDWATCH_PASSWORD=<password>
	LOG_LEVEL=info
	LOG_FORMAT=json

See internal/config for the full list.

# Signal Handling

SIGINT and SIGTERM cancel the root context. The HTTP server drains within the
configured shutdown timeout, WebSocket clients are closed, and services that
failed to stop are reported before exit.
*/
package main
