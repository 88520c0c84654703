// ColdWatch - Cold-Room Monitoring Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coldwatch

package datacache

import (
	"time"

	"github.com/tomtom215/coldwatch/internal/models"
)

// Snapshot is the aggregate mirror of server state for one user identity.
// OwnerUserID 0 means no identity.
type Snapshot struct {
	Stats         *models.DashboardStats `json:"stats"`
	Rooms         []models.Room          `json:"rooms"`
	RoomsOverview []models.RoomOverview  `json:"roomsOverview"`
	Alerts        []models.Alert         `json:"alerts"`
	LastUpdated   time.Time              `json:"lastUpdated"`
	OwnerUserID   int                    `json:"userId"`
}

// emptySnapshot returns a snapshot with no data tagged for owner.
func emptySnapshot(owner int) Snapshot {
	return Snapshot{
		Rooms:         []models.Room{},
		RoomsOverview: []models.RoomOverview{},
		Alerts:        []models.Alert{},
		OwnerUserID:   owner,
	}
}

// IsEmpty reports whether the snapshot has never been filled.
func (s Snapshot) IsEmpty() bool {
	return s.LastUpdated.IsZero()
}

// Age returns how long ago the snapshot was last refreshed.
func (s Snapshot) Age(now time.Time) time.Duration {
	if s.LastUpdated.IsZero() {
		return 0
	}
	return now.Sub(s.LastUpdated)
}

// Clone returns a copy whose slices can be modified independently. Records
// are copied by value; pointer fields are shared because every mutator
// replaces them rather than writing through them.
func (s Snapshot) Clone() Snapshot {
	out := s
	if s.Stats != nil {
		st := *s.Stats
		out.Stats = &st
	}
	out.Rooms = append([]models.Room{}, s.Rooms...)
	out.RoomsOverview = append([]models.RoomOverview{}, s.RoomsOverview...)
	out.Alerts = append([]models.Alert{}, s.Alerts...)
	return out
}

// FindAlert returns the alert with id.
func (s Snapshot) FindAlert(id int) (models.Alert, bool) {
	for _, a := range s.Alerts {
		if a.ID == id {
			return a, true
		}
	}
	return models.Alert{}, false
}

// FindRoom returns the room with id.
func (s Snapshot) FindRoom(id int) (models.Room, bool) {
	for _, r := range s.Rooms {
		if r.ID == id {
			return r, true
		}
	}
	return models.Room{}, false
}

// FindOverview returns the overview entry of room id.
func (s Snapshot) FindOverview(id int) (models.RoomOverview, bool) {
	for _, o := range s.RoomsOverview {
		if o.ID == id {
			return o, true
		}
	}
	return models.RoomOverview{}, false
}
