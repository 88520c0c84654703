// ColdWatch - Cold-Room Monitoring Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coldwatch

package models

// DashboardStats is the fleet summary from GET /dashboard/stats.
type DashboardStats struct {
	TotalRooms         int          `json:"totalRooms"`
	ActiveRooms        int          `json:"activeRooms"`
	CriticalRooms      int          `json:"criticalRooms"`
	ActiveAlerts       int          `json:"activeAlerts"`
	RoomsInAlert       int          `json:"roomsInAlert"`
	TotalUsers         int          `json:"totalUsers"`
	SMSSentToday       int          `json:"smsSentToday"`
	AverageTemperature *float64     `json:"averageTemperature,omitempty"`
	SystemStatus       SystemStatus `json:"systemStatus"`
}

// Page is the envelope every paginated list endpoint returns.
type Page[T any] struct {
	Data  []T `json:"data"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// HealthStatus is the body of the backend's /health endpoint. Only status is
// relied upon; an empty body still counts as healthy.
type HealthStatus struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp,omitempty"`
}
