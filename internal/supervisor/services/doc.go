// ColdWatch - Cold-Room Monitoring Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coldwatch

/*
Package services adapts ColdWatch components to suture.Service.

HTTPServerService turns http.Server's ListenAndServe/Shutdown pair into a
context-bound Serve with a drain timeout.

RunnerService names a component that already has a Serve(ctx) loop and turns
an early return into a restartable failure:

	tree.AddSyncService(services.NewConnectionMonitorService(monitor))
	tree.AddSyncService(services.NewSnapshotPollerService(store))
	tree.AddAPIService(services.NewWebSocketHubService(hub))
	tree.AddAPIService(services.NewRelayService(relay))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

Return behavior follows suture: a canceled context returns ctx.Err(); any
other return is a failure and the service is restarted with backoff.
*/
package services
