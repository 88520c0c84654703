// ColdWatch - Cold-Room Monitoring Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coldwatch

package websocket

import (
	"context"

	"github.com/tomtom215/coldwatch/internal/connection"
	"github.com/tomtom215/coldwatch/internal/datacache"
	"github.com/tomtom215/coldwatch/internal/logging"
)

// SnapshotSource publishes snapshot changes. *datacache.Store satisfies it.
type SnapshotSource interface {
	Snapshot() datacache.Snapshot
	Subscribe() (<-chan datacache.Snapshot, func())
}

// StateSource publishes connection state changes. *connection.Monitor satisfies it.
type StateSource interface {
	State() connection.State
	Subscribe() (<-chan connection.State, func())
}

// Relay forwards snapshot and connection changes to the hub.
type Relay struct {
	hub       *Hub
	snapshots SnapshotSource
	states    StateSource
}

// NewRelay creates a Relay. Either source may be nil.
func NewRelay(hub *Hub, snapshots SnapshotSource, states StateSource) *Relay {
	return &Relay{hub: hub, snapshots: snapshots, states: states}
}

// Serve publishes the current values, then every change until ctx is
// cancelled. It implements suture.Service.
func (r *Relay) Serve(ctx context.Context) error {
	var (
		snapCh  <-chan datacache.Snapshot
		stateCh <-chan connection.State
	)
	if r.snapshots != nil {
		ch, unsubscribe := r.snapshots.Subscribe()
		defer unsubscribe()
		snapCh = ch
		r.hub.Publish(MessageTypeSnapshot, r.snapshots.Snapshot())
	}
	if r.states != nil {
		ch, unsubscribe := r.states.Subscribe()
		defer unsubscribe()
		stateCh = ch
		r.hub.Publish(MessageTypeConnection, r.states.State())
	}
	logging.Debug().Msg("websocket relay started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case snap := <-snapCh:
			r.hub.Publish(MessageTypeSnapshot, snap)
		case st := <-stateCh:
			r.hub.Publish(MessageTypeConnection, st)
		}
	}
}
