// ColdWatch - Cold-Room Monitoring Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coldwatch

package client

import (
	"context"

	"github.com/tomtom215/coldwatch/internal/models"
)

// Resource family prefixes used for invalidation.
const (
	familyDashboard   = "/dashboard"
	familyRooms       = "/rooms"
	familyAlerts      = "/alerts"
	familyUsers       = "/users"
	familySMS         = "/sms"
	familySettings    = "/settings"
	familyPreferences = "/user/preferences"
)

// GetDashboardStats returns the fleet summary.
func (c *Client) GetDashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	return getCached[*models.DashboardStats](ctx, c, "/dashboard/stats", nil)
}

// GetRoomsOverview returns the per-room live summary.
func (c *Client) GetRoomsOverview(ctx context.Context) (*models.RoomsOverview, error) {
	return getCached[*models.RoomsOverview](ctx, c, "/dashboard/rooms-overview", nil)
}
