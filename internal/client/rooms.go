// ColdWatch - Cold-Room Monitoring Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coldwatch

package client

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/tomtom215/coldwatch/internal/authz"
	"github.com/tomtom215/coldwatch/internal/models"
)

// DefaultReadingsLimit is sent when GetRoomReadings is called without a limit.
const DefaultReadingsLimit = 100

func roomPath(id int) string {
	return "/rooms/" + strconv.Itoa(id)
}

// ListRooms returns one page of rooms.
func (c *Client) ListRooms(ctx context.Context, page, limit int) (*models.Page[models.Room], error) {
	q := newParams().addIntParam("page", page).addIntParam("limit", limit)
	return getCached[*models.Page[models.Room]](ctx, c, "/rooms", q.values())
}

// GetRoom returns one room.
func (c *Client) GetRoom(ctx context.Context, id int) (*models.Room, error) {
	return getCached[*models.Room](ctx, c, roomPath(id), nil)
}

// CreateRoom creates a room from the set fields of in.
func (c *Client) CreateRoom(ctx context.Context, in models.RoomUpdate) (*models.Room, error) {
	if err := c.precheck(authz.ResourceRooms, authz.ActionCreate, &in); err != nil {
		return nil, err
	}
	return mutate[*models.Room](ctx, c, requestConfig{
		method: http.MethodPost,
		path:   "/rooms",
		body:   in,
	}, familyRooms, familyDashboard)
}

// UpdateRoom applies a partial update to a room.
func (c *Client) UpdateRoom(ctx context.Context, id int, in models.RoomUpdate) (*models.Room, error) {
	if err := c.precheck(authz.ResourceRooms, authz.ActionUpdate, &in); err != nil {
		return nil, err
	}
	return mutate[*models.Room](ctx, c, requestConfig{
		method: http.MethodPut,
		path:   roomPath(id),
		body:   in,
	}, familyRooms, familyDashboard)
}

// DeleteRoom deletes a room.
func (c *Client) DeleteRoom(ctx context.Context, id int) error {
	if err := c.precheck(authz.ResourceRooms, authz.ActionDelete, nil); err != nil {
		return err
	}
	_, err := mutate[struct{}](ctx, c, requestConfig{
		method: http.MethodDelete,
		path:   roomPath(id),
	}, familyRooms, familyDashboard)
	return err
}

// ReadingsQuery filters GetRoomReadings. A zero Limit sends DefaultReadingsLimit.
type ReadingsQuery struct {
	From  time.Time
	To    time.Time
	Limit int
}

// GetRoomReadings returns sensor readings for a room.
func (c *Client) GetRoomReadings(ctx context.Context, id int, q ReadingsQuery) ([]models.Reading, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultReadingsLimit
	}
	p := newParams().
		addTimeParam("from", q.From).
		addTimeParam("to", q.To).
		addIntParam("limit", limit)
	return getCached[[]models.Reading](ctx, c, roomPath(id)+"/readings", p.values())
}

// GetRoomAlerts returns the alerts raised for a room.
func (c *Client) GetRoomAlerts(ctx context.Context, id int) ([]models.Alert, error) {
	return getCached[[]models.Alert](ctx, c, roomPath(id)+"/alerts", nil)
}
