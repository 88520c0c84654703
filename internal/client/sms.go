// ColdWatch - Cold-Room Monitoring Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coldwatch

package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/tomtom215/coldwatch/internal/authz"
	"github.com/tomtom215/coldwatch/internal/models"
)

// SMSFilter narrows ListSMSLogs.
type SMSFilter struct {
	Status  models.SMSStatus
	UserID  int
	AlertID int
	Page    int
	Limit   int
	From    time.Time
	To      time.Time
}

// Values encodes the filter as query parameters.
func (f SMSFilter) Values() url.Values {
	return newParams().
		addParam("status", string(f.Status)).
		addIntParam("userId", f.UserID).
		addIntParam("alertId", f.AlertID).
		addIntParam("page", f.Page).
		addIntParam("limit", f.Limit).
		addTimeParam("from", f.From).
		addTimeParam("to", f.To).
		values()
}

// ListSMSLogs returns one page of SMS delivery records.
func (c *Client) ListSMSLogs(ctx context.Context, f SMSFilter) (*models.Page[models.SMSLog], error) {
	return getCached[*models.Page[models.SMSLog]](ctx, c, "/sms", f.Values())
}

// GetSMSLog returns one SMS delivery record.
func (c *Client) GetSMSLog(ctx context.Context, id int) (*models.SMSLog, error) {
	return getCached[*models.SMSLog](ctx, c, "/sms/"+strconv.Itoa(id), nil)
}

// SendTestSMS sends a test message through the backend's SMS gateway.
func (c *Client) SendTestSMS(ctx context.Context, phoneNumber, message string) (*models.SMSLog, error) {
	in := models.TestSMS{PhoneNumber: phoneNumber, Message: message}
	if err := c.precheck(authz.ResourceSMS, authz.ActionSend, &in); err != nil {
		return nil, err
	}
	return mutate[*models.SMSLog](ctx, c, requestConfig{
		method: http.MethodPost,
		path:   "/sms",
		body:   in,
	}, familySMS, familyDashboard)
}
