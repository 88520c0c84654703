// ColdWatch - Cold-Room Monitoring Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coldwatch

package datacache

import (
	"context"

	"github.com/tomtom215/coldwatch/internal/logging"
	"github.com/tomtom215/coldwatch/internal/metrics"
	"github.com/tomtom215/coldwatch/internal/models"
)

// mutate runs fn on the snapshot under the lock and, if it reports a change,
// persists and broadcasts the result. LastUpdated is left alone; it only
// tracks server refreshes.
func (s *Store) mutate(ctx context.Context, kind string, fn func(snap *Snapshot) bool) bool {
	s.mu.Lock()
	if !fn(&s.snap) {
		s.mu.Unlock()
		return false
	}
	pub := s.stageLocked(persistSave)
	s.mu.Unlock()

	metrics.OptimisticUpdates.WithLabelValues(kind).Inc()
	s.publish(ctx, pub)
	return true
}

// mutateIfGen is mutate restricted to the identity generation gen.
func (s *Store) mutateIfGen(ctx context.Context, gen uint64, kind string, fn func(snap *Snapshot) bool) bool {
	return s.mutate(ctx, kind, func(snap *Snapshot) bool {
		return s.gen == gen && fn(snap)
	})
}

func (s *Store) generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gen
}

// UpdateAlert applies patch to the alert with id. Unknown ids are ignored.
func (s *Store) UpdateAlert(ctx context.Context, id int, patch models.AlertPatch) bool {
	return s.mutate(ctx, "alert", func(snap *Snapshot) bool {
		return patchAlert(snap, id, patch)
	})
}

func patchAlert(snap *Snapshot, id int, patch models.AlertPatch) bool {
	for i := range snap.Alerts {
		if snap.Alerts[i].ID == id {
			patch.Apply(&snap.Alerts[i])
			return true
		}
	}
	return false
}

// UpdateRoom applies u to the room with id and mirrors the shared fields into
// its overview entry.
func (s *Store) UpdateRoom(ctx context.Context, id int, u models.RoomUpdate) bool {
	return s.mutate(ctx, "room", func(snap *Snapshot) bool {
		return patchRoom(snap, id, u)
	})
}

func patchRoom(snap *Snapshot, id int, u models.RoomUpdate) bool {
	changed := false
	for i := range snap.Rooms {
		if snap.Rooms[i].ID == id {
			u.Apply(&snap.Rooms[i])
			changed = true
			break
		}
	}
	for i := range snap.RoomsOverview {
		if snap.RoomsOverview[i].ID == id {
			u.ApplyToOverview(&snap.RoomsOverview[i])
			changed = true
			break
		}
	}
	return changed
}

// AddRoom prepends room to the room list, replacing any entry with the same id.
func (s *Store) AddRoom(ctx context.Context, room models.Room) bool {
	return s.mutate(ctx, "room_add", func(snap *Snapshot) bool {
		insertRoom(snap, room)
		return true
	})
}

func insertRoom(snap *Snapshot, room models.Room) {
	rooms := make([]models.Room, 0, len(snap.Rooms)+1)
	rooms = append(rooms, room)
	for _, r := range snap.Rooms {
		if r.ID != room.ID {
			rooms = append(rooms, r)
		}
	}
	snap.Rooms = rooms
}

// RemoveRoom drops the room with id from both the room list and the overview.
func (s *Store) RemoveRoom(ctx context.Context, id int) bool {
	return s.mutate(ctx, "room_remove", func(snap *Snapshot) bool {
		return dropRoom(snap, id)
	})
}

func dropRoom(snap *Snapshot, id int) bool {
	rooms := snap.Rooms[:0:0]
	for _, r := range snap.Rooms {
		if r.ID != id {
			rooms = append(rooms, r)
		}
	}
	overview := snap.RoomsOverview[:0:0]
	for _, o := range snap.RoomsOverview {
		if o.ID != id {
			overview = append(overview, o)
		}
	}
	changed := len(rooms) != len(snap.Rooms) || len(overview) != len(snap.RoomsOverview)
	snap.Rooms = nonNil(rooms)
	snap.RoomsOverview = nonNil(overview)
	return changed
}

// replaceAlert swaps in the server's version of an alert.
func replaceAlert(snap *Snapshot, a models.Alert) bool {
	for i := range snap.Alerts {
		if snap.Alerts[i].ID == a.ID {
			snap.Alerts[i] = a
			return true
		}
	}
	return false
}

// replaceRoom swaps in the server's version of a room.
func replaceRoom(snap *Snapshot, r models.Room) bool {
	for i := range snap.Rooms {
		if snap.Rooms[i].ID == r.ID {
			snap.Rooms[i] = r
			return true
		}
	}
	return false
}

// AcknowledgeAlert marks the alert acknowledged locally, then sends the
// change to the server. A failure is returned to the caller and the alerts
// slice is refetched so the local edit does not outlive it.
func (s *Store) AcknowledgeAlert(ctx context.Context, id int) (*models.Alert, error) {
	patch := models.AcknowledgePatch(s.clk.Now(), s.api.CurrentUser())
	return s.alertIntent(ctx, "acknowledge", id, patch, s.api.AcknowledgeAlert)
}

// ResolveAlert marks the alert resolved locally, then sends the change to the
// server.
func (s *Store) ResolveAlert(ctx context.Context, id int) (*models.Alert, error) {
	patch := models.ResolvePatch(s.clk.Now(), s.api.CurrentUser())
	return s.alertIntent(ctx, "resolve", id, patch, s.api.ResolveAlert)
}

func (s *Store) alertIntent(
	ctx context.Context,
	action string,
	id int,
	patch models.AlertPatch,
	send func(context.Context, int) (*models.Alert, error),
) (*models.Alert, error) {
	gen := s.generation()
	s.UpdateAlert(ctx, id, patch)

	a, err := send(ctx, id)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Int("alert_id", id).Str("action", action).Msg("Alert update rejected, reverting local change")
		s.correct(ctx, s.RefreshAlerts)
		return nil, err
	}
	if a != nil {
		s.mutateIfGen(ctx, gen, "alert", func(snap *Snapshot) bool {
			return replaceAlert(snap, *a)
		})
	}
	return a, nil
}

// SaveRoom applies u locally, then sends it to the server.
func (s *Store) SaveRoom(ctx context.Context, id int, u models.RoomUpdate) (*models.Room, error) {
	gen := s.generation()
	s.UpdateRoom(ctx, id, u)

	r, err := s.api.UpdateRoom(ctx, id, u)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Int("room_id", id).Msg("Room update rejected, reverting local change")
		s.correct(ctx, s.RefreshRooms)
		return nil, err
	}
	if r != nil {
		s.mutateIfGen(ctx, gen, "room", func(snap *Snapshot) bool {
			return replaceRoom(snap, *r)
		})
	}
	return r, nil
}

// CreateRoom creates the room on the server and adds the stored record locally.
// Nothing is added before the server assigns an id.
func (s *Store) CreateRoom(ctx context.Context, in models.RoomUpdate) (*models.Room, error) {
	gen := s.generation()
	r, err := s.api.CreateRoom(ctx, in)
	if err != nil {
		return nil, err
	}
	if r != nil {
		s.mutateIfGen(ctx, gen, "room_add", func(snap *Snapshot) bool {
			insertRoom(snap, *r)
			return true
		})
	}
	return r, nil
}

// DeleteRoom removes the room locally, then deletes it on the server.
func (s *Store) DeleteRoom(ctx context.Context, id int) error {
	s.RemoveRoom(ctx, id)
	if err := s.api.DeleteRoom(ctx, id); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Int("room_id", id).Msg("Room delete rejected, reverting local change")
		s.correct(ctx, s.RefreshRooms)
		return err
	}
	return nil
}

// correct runs the refetch that overwrites a rejected optimistic edit.
func (s *Store) correct(ctx context.Context, refetch func(context.Context) error) {
	if !s.cfg.CorrectiveRefetch {
		return
	}
	_ = refetch(context.WithoutCancel(ctx))
}
