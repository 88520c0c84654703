// ColdWatch - Cold-Room Monitoring Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coldwatch

package models

import (
	"time"

	"github.com/goccy/go-json"
)

// Room is a monitored cold room with its configured alarm thresholds.
//
// ACInput1/ACInput2 are raw hardware values (0 or 1). The matching *Alert fields
// enable alerting on that input (1) or disable it (0).
type Room struct {
	ID            int        `json:"id"`
	Name          string     `json:"name"`
	HardwareID    *string    `json:"hardwareId,omitempty"`
	Status        RoomStatus `json:"status"`
	Temperature   *float64   `json:"temperature,omitempty"`
	Humidity      *float64   `json:"humidity,omitempty"`
	TempMin       float64    `json:"tempMin"`
	TempMax       float64    `json:"tempMax"`
	HumidityMin   float64    `json:"humidityMin"`
	HumidityMax   float64    `json:"humidityMax"`
	LastReading   *time.Time `json:"lastReading,omitempty"`
	IsOnline      *bool      `json:"isOnline,omitempty"`
	Location      *string    `json:"location,omitempty"`
	ActiveAlerts  *int       `json:"activeAlerts,omitempty"`
	ACInput1      *int       `json:"acInput1,omitempty"`
	ACInput2      *int       `json:"acInput2,omitempty"`
	ACInput1Alert *int       `json:"acInput1Alert,omitempty"`
	ACInput2Alert *int       `json:"acInput2Alert,omitempty"`
	ACInput1Name  *string    `json:"acInput1Name,omitempty"`
	ACInput2Name  *string    `json:"acInput2Name,omitempty"`
	GPSLatitude   *float64   `json:"gpsLatitude,omitempty"`
	GPSLongitude  *float64   `json:"gpsLongitude,omitempty"`
	CreatedAt     *time.Time `json:"createdAt,omitempty"`
	UpdatedAt     *time.Time `json:"updatedAt,omitempty"`
}

// UnmarshalJSON accepts is_online as an alias for isOnline.
func (r *Room) UnmarshalJSON(data []byte) error {
	type plain Room
	var w struct {
		plain
		IsOnlineSnake *bool `json:"is_online"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*r = Room(w.plain)
	if w.IsOnlineSnake != nil {
		r.IsOnline = w.IsOnlineSnake
	}
	return nil
}

// InRange reports whether the latest temperature and humidity are both inside
// the configured thresholds. Missing readings count as in range.
func (r *Room) InRange() bool {
	if r.Temperature != nil && (*r.Temperature < r.TempMin || *r.Temperature > r.TempMax) {
		return false
	}
	if r.Humidity != nil && (*r.Humidity < r.HumidityMin || *r.Humidity > r.HumidityMax) {
		return false
	}
	return true
}

// RoomOverview is the dashboard projection of a room.
type RoomOverview struct {
	ID           int        `json:"id"`
	Name         string     `json:"name"`
	Status       RoomStatus `json:"status"`
	Temperature  *float64   `json:"temperature,omitempty"`
	Humidity     *float64   `json:"humidity,omitempty"`
	ActiveAlerts int        `json:"activeAlerts"`
	IsOnline     *bool      `json:"isOnline,omitempty"`
	LastReading  *time.Time `json:"lastReading,omitempty"`
	TempMin      *float64   `json:"tempMin,omitempty"`
	TempMax      *float64   `json:"tempMax,omitempty"`
	HumidityMin  *float64   `json:"humidityMin,omitempty"`
	HumidityMax  *float64   `json:"humidityMax,omitempty"`
	ACInput1     *int       `json:"acInput1,omitempty"`
	ACInput2     *int       `json:"acInput2,omitempty"`
	GPSLatitude  *float64   `json:"gpsLatitude,omitempty"`
	GPSLongitude *float64   `json:"gpsLongitude,omitempty"`
}

// UnmarshalJSON accepts is_online as an alias for isOnline.
func (o *RoomOverview) UnmarshalJSON(data []byte) error {
	type plain RoomOverview
	var w struct {
		plain
		IsOnlineSnake *bool `json:"is_online"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*o = RoomOverview(w.plain)
	if w.IsOnlineSnake != nil {
		o.IsOnline = w.IsOnlineSnake
	}
	return nil
}

// RoomsOverview is the envelope of GET /dashboard/rooms-overview.
type RoomsOverview struct {
	Rooms []RoomOverview `json:"rooms"`
}

// Reading is one sensor sample for a room.
type Reading struct {
	ID          int       `json:"id"`
	RoomID      int       `json:"roomId"`
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
	RecordedAt  time.Time `json:"recordedAt"`
}

// RoomUpdate is a partial room change. Nil fields are left untouched, both on
// the wire and when applied locally.
type RoomUpdate struct {
	Name          *string     `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	HardwareID    *string     `json:"hardwareId,omitempty" validate:"omitempty,max=100"`
	Status        *RoomStatus `json:"status,omitempty" validate:"omitempty,oneof=ACTIVE INACTIVE MAINTENANCE"`
	TempMin       *float64    `json:"tempMin,omitempty" validate:"omitempty,gte=-100,lte=100"`
	TempMax       *float64    `json:"tempMax,omitempty" validate:"omitempty,gte=-100,lte=100"`
	HumidityMin   *float64    `json:"humidityMin,omitempty" validate:"omitempty,gte=0,lte=100"`
	HumidityMax   *float64    `json:"humidityMax,omitempty" validate:"omitempty,gte=0,lte=100"`
	Location      *string     `json:"location,omitempty" validate:"omitempty,max=200"`
	ACInput1Alert *int        `json:"acInput1Alert,omitempty" validate:"omitempty,oneof=0 1"`
	ACInput2Alert *int        `json:"acInput2Alert,omitempty" validate:"omitempty,oneof=0 1"`
	ACInput1Name  *string     `json:"acInput1Name,omitempty" validate:"omitempty,max=50"`
	ACInput2Name  *string     `json:"acInput2Name,omitempty" validate:"omitempty,max=50"`
	GPSLatitude   *float64    `json:"gpsLatitude,omitempty" validate:"omitempty,latitude"`
	GPSLongitude  *float64    `json:"gpsLongitude,omitempty" validate:"omitempty,longitude"`
}

// Apply copies every set field onto r.
func (u *RoomUpdate) Apply(r *Room) {
	if u.Name != nil {
		r.Name = *u.Name
	}
	if u.HardwareID != nil {
		r.HardwareID = copyPtr(u.HardwareID)
	}
	if u.Status != nil {
		r.Status = *u.Status
	}
	if u.TempMin != nil {
		r.TempMin = *u.TempMin
	}
	if u.TempMax != nil {
		r.TempMax = *u.TempMax
	}
	if u.HumidityMin != nil {
		r.HumidityMin = *u.HumidityMin
	}
	if u.HumidityMax != nil {
		r.HumidityMax = *u.HumidityMax
	}
	if u.Location != nil {
		r.Location = copyPtr(u.Location)
	}
	if u.ACInput1Alert != nil {
		r.ACInput1Alert = copyPtr(u.ACInput1Alert)
	}
	if u.ACInput2Alert != nil {
		r.ACInput2Alert = copyPtr(u.ACInput2Alert)
	}
	if u.ACInput1Name != nil {
		r.ACInput1Name = copyPtr(u.ACInput1Name)
	}
	if u.ACInput2Name != nil {
		r.ACInput2Name = copyPtr(u.ACInput2Name)
	}
	if u.GPSLatitude != nil {
		r.GPSLatitude = copyPtr(u.GPSLatitude)
	}
	if u.GPSLongitude != nil {
		r.GPSLongitude = copyPtr(u.GPSLongitude)
	}
}

// ApplyToOverview mirrors the fields the overview projection shares with Room:
// name, status, thresholds and coordinates.
func (u *RoomUpdate) ApplyToOverview(o *RoomOverview) {
	if u.Name != nil {
		o.Name = *u.Name
	}
	if u.Status != nil {
		o.Status = *u.Status
	}
	if u.TempMin != nil {
		o.TempMin = copyPtr(u.TempMin)
	}
	if u.TempMax != nil {
		o.TempMax = copyPtr(u.TempMax)
	}
	if u.HumidityMin != nil {
		o.HumidityMin = copyPtr(u.HumidityMin)
	}
	if u.HumidityMax != nil {
		o.HumidityMax = copyPtr(u.HumidityMax)
	}
	if u.GPSLatitude != nil {
		o.GPSLatitude = copyPtr(u.GPSLatitude)
	}
	if u.GPSLongitude != nil {
		o.GPSLongitude = copyPtr(u.GPSLongitude)
	}
}

// IsEmpty reports whether the update changes nothing.
func (u *RoomUpdate) IsEmpty() bool {
	return *u == RoomUpdate{}
}

// RoomUpdateFrom builds the update that turns any room into r. It is used to send
// a complete room on create.
func RoomUpdateFrom(r *Room) RoomUpdate {
	status := r.Status
	return RoomUpdate{
		Name:          &r.Name,
		HardwareID:    r.HardwareID,
		Status:        &status,
		TempMin:       &r.TempMin,
		TempMax:       &r.TempMax,
		HumidityMin:   &r.HumidityMin,
		HumidityMax:   &r.HumidityMax,
		Location:      r.Location,
		ACInput1Alert: r.ACInput1Alert,
		ACInput2Alert: r.ACInput2Alert,
		ACInput1Name:  r.ACInput1Name,
		ACInput2Name:  r.ACInput2Name,
		GPSLatitude:   r.GPSLatitude,
		GPSLongitude:  r.GPSLongitude,
	}
}

// OverviewFromRoom projects a room onto the dashboard overview shape.
func OverviewFromRoom(r *Room) RoomOverview {
	active := 0
	if r.ActiveAlerts != nil {
		active = *r.ActiveAlerts
	}
	return RoomOverview{
		ID:           r.ID,
		Name:         r.Name,
		Status:       r.Status,
		Temperature:  copyPtr(r.Temperature),
		Humidity:     copyPtr(r.Humidity),
		ActiveAlerts: active,
		IsOnline:     copyPtr(r.IsOnline),
		LastReading:  copyPtr(r.LastReading),
		TempMin:      copyPtr(&r.TempMin),
		TempMax:      copyPtr(&r.TempMax),
		HumidityMin:  copyPtr(&r.HumidityMin),
		HumidityMax:  copyPtr(&r.HumidityMax),
		ACInput1:     copyPtr(r.ACInput1),
		ACInput2:     copyPtr(r.ACInput2),
		GPSLatitude:  copyPtr(r.GPSLatitude),
		GPSLongitude: copyPtr(r.GPSLongitude),
	}
}

func copyPtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
