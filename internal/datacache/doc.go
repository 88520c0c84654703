// ColdWatch - Cold-Room Monitoring Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coldwatch

/*
Package datacache holds the signed-in user's snapshot of server state and
keeps it in sync.

A Snapshot aggregates dashboard stats, rooms, the rooms overview and alerts.
The Store refreshes all four slices concurrently and applies them as a single
update; a slice whose fetch failed keeps its previous value. Every snapshot
is tagged with the user it was fetched for and is discarded when the
identity changes, including results of refreshes still in flight.

Local edits are applied optimistically through UpdateAlert, UpdateRoom,
AddRoom and RemoveRoom. The write-through methods (AcknowledgeAlert,
ResolveAlert, SaveRoom, CreateRoom, DeleteRoom) apply the edit, send it to
the server and, when the server rejects it, refetch the affected slice.

Serve runs the background poller as a suture.Service:

	store := datacache.NewStore(apiClient, transportState, snapshots, cfg, nil,
		datacache.WithConnection(monitor))
	_ = store.Rehydrate(ctx, userID)
	supervisor.Add(store)

Snapshots are persisted through a SnapshotStore, in memory or in BadgerDB,
so a restart within SnapshotMaxAge starts from the last known state.
*/
package datacache
