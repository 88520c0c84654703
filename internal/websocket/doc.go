// ColdWatch - Cold-Room Monitoring Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coldwatch

/*
Package websocket pushes snapshot and connection changes to local dashboards.

The package uses gorilla/websocket with a hub-and-client layout:

  - Hub: registers clients and broadcasts messages in client ID order
  - Client: one connection with a read pump and a write pump
  - Relay: subscribes to the data cache store and the connection monitor
    and publishes every change through the hub

Message types sent by the server:

  - snapshot: the full datacache.Snapshot
  - connection: the connection.State
  - pong: reply to a client ping

Clients may send ping, and refresh to request an immediate store refresh.

The latest snapshot and connection messages are retained and replayed to
every client as it registers.

Usage:

	hub := websocket.NewHub()
	hub.OnRefresh(func() { _ = store.RefreshAll(context.Background()) })
	relay := websocket.NewRelay(hub, store, monitor)

	supervisor.Add(hub)
	supervisor.Add(relay)

The HTTP handler that upgrades connections lives in internal/api.
*/
package websocket
