// ColdWatch - Cold-Room Monitoring Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coldwatch

package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/tomtom215/coldwatch/internal/authz"
	"github.com/tomtom215/coldwatch/internal/models"
	"github.com/tomtom215/coldwatch/internal/validation"
)

// AlertFilter narrows ListAlerts. Zero fields are omitted from the query.
type AlertFilter struct {
	Status models.AlertStatus
	Type   models.AlertType
	RoomID int
	Page   int
	Limit  int
	From   time.Time
	To     time.Time
}

// Values encodes the filter as query parameters.
func (f AlertFilter) Values() url.Values {
	return newParams().
		addParam("status", string(f.Status)).
		addParam("type", string(f.Type)).
		addIntParam("roomId", f.RoomID).
		addIntParam("page", f.Page).
		addIntParam("limit", f.Limit).
		addTimeParam("from", f.From).
		addTimeParam("to", f.To).
		values()
}

// HistoryFilter narrows GetAlertHistory.
type HistoryFilter struct {
	AlertID int
	From    time.Time
	To      time.Time
	Page    int
	Limit   int
}

// Values encodes the filter as query parameters.
func (f HistoryFilter) Values() url.Values {
	return newParams().
		addIntParam("alertId", f.AlertID).
		addTimeParam("from", f.From).
		addTimeParam("to", f.To).
		addIntParam("page", f.Page).
		addIntParam("limit", f.Limit).
		values()
}

func alertPath(id int) string {
	return "/alerts/" + strconv.Itoa(id)
}

// ListAlerts returns one page of alerts. Each distinct filter is cached separately.
func (c *Client) ListAlerts(ctx context.Context, f AlertFilter) (*models.Page[models.Alert], error) {
	return getCached[*models.Page[models.Alert]](ctx, c, "/alerts", f.Values())
}

// GetAlertHistory returns alert lifecycle events.
func (c *Client) GetAlertHistory(ctx context.Context, f HistoryFilter) (*models.Page[models.AlertHistory], error) {
	return getCached[*models.Page[models.AlertHistory]](ctx, c, "/alerts/history", f.Values())
}

// GetAlert returns one alert.
func (c *Client) GetAlert(ctx context.Context, id int) (*models.Alert, error) {
	return getCached[*models.Alert](ctx, c, alertPath(id), nil)
}

// AcknowledgeAlert marks an alert as seen by the signed-in user.
func (c *Client) AcknowledgeAlert(ctx context.Context, id int) (*models.Alert, error) {
	return c.alertAction(ctx, id, authz.ActionAcknowledge, "/acknowledge")
}

// ResolveAlert closes an alert.
func (c *Client) ResolveAlert(ctx context.Context, id int) (*models.Alert, error) {
	return c.alertAction(ctx, id, authz.ActionResolve, "/resolve")
}

func (c *Client) alertAction(ctx context.Context, id int, action, suffix string) (*models.Alert, error) {
	if err := c.precheck(authz.ResourceAlerts, action, nil); err != nil {
		return nil, err
	}
	return mutate[*models.Alert](ctx, c, requestConfig{
		method: http.MethodPost,
		path:   alertPath(id) + suffix,
	}, familyAlerts, familyDashboard, familyRooms)
}

type alertStatusBody struct {
	Status models.AlertStatus `json:"status"`
}

// UpdateAlertStatus sets an alert's status directly.
func (c *Client) UpdateAlertStatus(ctx context.Context, id int, status models.AlertStatus) (*models.Alert, error) {
	if err := validation.ValidateVar("status", string(status), "required,oneof=ACTIVE ACKNOWLEDGED RESOLVED"); err != nil {
		return nil, err
	}
	if err := c.precheck(authz.ResourceAlerts, authz.ActionUpdate, nil); err != nil {
		return nil, err
	}
	alert, err := mutate[*models.Alert](ctx, c, requestConfig{
		method: http.MethodPut,
		path:   alertPath(id),
		body:   alertStatusBody{Status: status},
	}, familyAlerts, familyDashboard, familyRooms)
	if err != nil {
		return nil, fmt.Errorf("update alert %d status: %w", id, err)
	}
	return alert, nil
}
