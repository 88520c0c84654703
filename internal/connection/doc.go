// ColdWatch - Cold-Room Monitoring Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coldwatch

/*
Package connection tracks whether the backend is reachable.

The Monitor starts optimistically Connected and probes the health endpoint
2s after Serve starts, then every 120s while connected. A failed probe moves
it to Disconnected and starts the reconnect loop: the first attempt 15s
later, then 30s, 60s, 120s, 240s and 300s between attempts until one
succeeds. Reconnecting resets the schedule.

Probes are skipped, returning the last known state, while the shared
rate-limit window is active or while another probe is in flight. Manual
checks are additionally limited to one per 30s.

	mon := connection.NewMonitor(connection.ProberFunc(probe), state, connection.Config{}, nil)
	updates, cancel := mon.Subscribe()
	defer cancel()
*/
package connection
