// ColdWatch - Cold-Room Monitoring Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coldwatch

package models

import "time"

// RoomRef is the abbreviated room embedded in alerts and SMS logs.
type RoomRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Alert is a threshold or hardware alarm raised by the backend for one room.
type Alert struct {
	ID                 int         `json:"id"`
	RoomID             int         `json:"roomId"`
	Type               AlertType   `json:"type"`
	Status             AlertStatus `json:"status"`
	Message            string      `json:"message"`
	Value              *float64    `json:"value,omitempty"`
	Threshold          *float64    `json:"threshold,omitempty"`
	CreatedAt          time.Time   `json:"createdAt"`
	AcknowledgedAt     *time.Time  `json:"acknowledgedAt,omitempty"`
	ResolvedAt         *time.Time  `json:"resolvedAt,omitempty"`
	AcknowledgedBy     *int        `json:"acknowledgedBy,omitempty"`
	ResolvedBy         *int        `json:"resolvedBy,omitempty"`
	AcknowledgedByName *string     `json:"acknowledgedByName,omitempty"`
	ResolvedByName     *string     `json:"resolvedByName,omitempty"`
	Room               *RoomRef    `json:"room,omitempty"`
}

// IsOpen reports whether the alert still needs attention.
func (a *Alert) IsOpen() bool {
	return a.Status != AlertStatusResolved
}

// AlertPatch is a partial local change to an alert, applied optimistically.
type AlertPatch struct {
	Status             *AlertStatus
	AcknowledgedAt     *time.Time
	ResolvedAt         *time.Time
	AcknowledgedBy     *int
	ResolvedBy         *int
	AcknowledgedByName *string
	ResolvedByName     *string
}

// Apply copies every set field onto a.
func (p *AlertPatch) Apply(a *Alert) {
	if p.Status != nil {
		a.Status = *p.Status
	}
	if p.AcknowledgedAt != nil {
		a.AcknowledgedAt = copyPtr(p.AcknowledgedAt)
	}
	if p.ResolvedAt != nil {
		a.ResolvedAt = copyPtr(p.ResolvedAt)
	}
	if p.AcknowledgedBy != nil {
		a.AcknowledgedBy = copyPtr(p.AcknowledgedBy)
	}
	if p.ResolvedBy != nil {
		a.ResolvedBy = copyPtr(p.ResolvedBy)
	}
	if p.AcknowledgedByName != nil {
		a.AcknowledgedByName = copyPtr(p.AcknowledgedByName)
	}
	if p.ResolvedByName != nil {
		a.ResolvedByName = copyPtr(p.ResolvedByName)
	}
}

// AcknowledgePatch is the optimistic change for acknowledging an alert.
// by may be nil when the acting user is unknown.
func AcknowledgePatch(at time.Time, by *User) AlertPatch {
	status := AlertStatusAcknowledged
	p := AlertPatch{Status: &status, AcknowledgedAt: &at}
	if by != nil {
		p.AcknowledgedBy = &by.ID
		p.AcknowledgedByName = &by.Name
	}
	return p
}

// ResolvePatch is the optimistic change for resolving an alert.
func ResolvePatch(at time.Time, by *User) AlertPatch {
	status := AlertStatusResolved
	p := AlertPatch{Status: &status, ResolvedAt: &at}
	if by != nil {
		p.ResolvedBy = &by.ID
		p.ResolvedByName = &by.Name
	}
	return p
}

// AlertHistory is an audit entry for one alert status transition.
type AlertHistory struct {
	ID             int       `json:"id"`
	AlertID        int       `json:"alertId"`
	PreviousStatus string    `json:"previousStatus"`
	NewStatus      string    `json:"newStatus"`
	ChangedBy      int       `json:"changedBy"`
	ChangedByName  string    `json:"changedByName"`
	ChangeReason   string    `json:"changeReason"`
	CreatedAt      time.Time `json:"createdAt"`
	RoomID         *int      `json:"roomId,omitempty"`
	RoomName       *string   `json:"roomName,omitempty"`
	AlertType      *string   `json:"alertType,omitempty"`
	AlertMessage   *string   `json:"alertMessage,omitempty"`
}

// SMSUserRef is the abbreviated user embedded in SMS logs.
type SMSUserRef struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
}

// SMSLog is one outbound SMS notification attempt.
type SMSLog struct {
	ID           int         `json:"id"`
	AlertID      *int        `json:"alertId,omitempty"`
	UserID       int         `json:"userId"`
	PhoneNumber  string      `json:"phoneNumber"`
	Message      string      `json:"message"`
	Status       SMSStatus   `json:"status"`
	SentAt       time.Time   `json:"sentAt"`
	DeliveredAt  *time.Time  `json:"deliveredAt,omitempty"`
	ErrorMessage *string     `json:"errorMessage,omitempty"`
	Room         *RoomRef    `json:"room,omitempty"`
	User         *SMSUserRef `json:"user,omitempty"`
}

// TestSMS is the payload for POST /sms.
type TestSMS struct {
	PhoneNumber string `json:"phoneNumber" validate:"required,phone"`
	Message     string `json:"message" validate:"required,max=480"`
}
