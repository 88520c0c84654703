// ColdWatch - Cold-Room Monitoring Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coldwatch

/*
Package api serves the local status API of the ColdWatch client.

The API exposes the cached dashboard snapshot and the backend connection state
to local tools, and forwards a small set of operator actions to the backend
through the snapshot store.

Routes:

	GET  /healthz                          liveness
	GET  /api/v1/snapshot                  current snapshot
	GET  /api/v1/connection                connection state
	POST /api/v1/refresh                   refresh every slice now
	POST /api/v1/connection/check          run a health check now
	POST /api/v1/alerts/{id}/acknowledge   acknowledge an alert
	POST /api/v1/alerts/{id}/resolve       resolve an alert
	GET  /metrics                          Prometheus metrics
	GET  /ws                               WebSocket push of snapshot and connection

Every JSON response uses the models.APIResponse envelope:

	{
	  "status": "success",
	  "data": {...},
	  "metadata": {"timestamp": "2026-03-01T12:00:00Z"}
	}

Middleware:

The router uses the chi ecosystem: chi's RequestID, RealIP and Recoverer,
go-chi/cors for cross-origin access and go-chi/httprate for per-IP limits.
Request IDs are copied into the logging context together with a fresh
correlation ID so a refresh triggered from the API can be traced through the
store's logs.

Usage:

	router := api.NewRouter(api.Deps{
		Store:      store,
		Connection: monitor,
		Limiter:    transportState,
		Hub:        hub,
	}, api.NewChiMiddlewareFromConfig(cfg.Server))
	server := &http.Server{Addr: cfg.Server.Addr(), Handler: router.SetupChi()}
*/
package api
