// ColdWatch - Cold-Room Monitoring Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coldwatch

package models

// Role is a backend user role. Roles are hierarchical:
// SUPER_ADMIN inherits ADMIN, which inherits USER.
type Role string

const (
	RoleSuperAdmin Role = "SUPER_ADMIN"
	RoleAdmin      Role = "ADMIN"
	RoleUser       Role = "USER"
)

// ValidRoles lists every role the backend issues.
var ValidRoles = []Role{RoleSuperAdmin, RoleAdmin, RoleUser}

// IsValid reports whether r is a known role.
func (r Role) IsValid() bool {
	for _, v := range ValidRoles {
		if v == r {
			return true
		}
	}
	return false
}

// AlertType classifies what tripped an alert.
type AlertType string

const (
	AlertTypeTemperature AlertType = "TEMPERATURE"
	AlertTypeHumidity    AlertType = "HUMIDITY"
	AlertTypeDoor        AlertType = "DOOR"
	AlertTypePower       AlertType = "POWER"
	AlertTypeSensor      AlertType = "SENSOR"
)

// AlertStatus is the lifecycle state of an alert.
// Transitions only move forward: ACTIVE -> ACKNOWLEDGED -> RESOLVED,
// or ACTIVE -> RESOLVED directly.
type AlertStatus string

const (
	AlertStatusActive       AlertStatus = "ACTIVE"
	AlertStatusAcknowledged AlertStatus = "ACKNOWLEDGED"
	AlertStatusResolved     AlertStatus = "RESOLVED"
)

// IsValid reports whether s is a known alert status.
func (s AlertStatus) IsValid() bool {
	switch s {
	case AlertStatusActive, AlertStatusAcknowledged, AlertStatusResolved:
		return true
	}
	return false
}

// RoomStatus is the administrative state of a cold room.
type RoomStatus string

const (
	RoomStatusActive      RoomStatus = "ACTIVE"
	RoomStatusInactive    RoomStatus = "INACTIVE"
	RoomStatusMaintenance RoomStatus = "MAINTENANCE"
)

// SMSStatus is the delivery state of an outbound SMS notification.
type SMSStatus string

const (
	SMSStatusSent      SMSStatus = "SENT"
	SMSStatusDelivered SMSStatus = "DELIVERED"
	SMSStatusFailed    SMSStatus = "FAILED"
	SMSStatusPending   SMSStatus = "PENDING"
)

// SystemStatus is the backend's own health summary on the dashboard.
type SystemStatus string

const (
	SystemOperational SystemStatus = "operational"
	SystemDegraded    SystemStatus = "degraded"
	SystemDown        SystemStatus = "down"
)
