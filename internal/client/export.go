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
	"time"

	"github.com/tomtom215/coldwatch/internal/models"
	"github.com/tomtom215/coldwatch/internal/transport"
)

// ExportKind selects one of the backend's CSV exports.
type ExportKind string

const (
	ExportReadings     ExportKind = "readings"
	ExportAlerts       ExportKind = "alerts"
	ExportAlertHistory ExportKind = "alerts-history"
)

// exportSpec maps each kind to its endpoint, file prefix and failure message.
var exportSpec = map[ExportKind]struct {
	path     string
	prefix   string
	fallback string
}{
	ExportReadings:     {"/rooms/export/readings", "readings-export", "Failed to export readings"},
	ExportAlerts:       {"/rooms/export/alerts", "alerts-export", "Failed to export alerts"},
	ExportAlertHistory: {"/rooms/export/alerts-history", "alert-history-export", "Failed to export alert history"},
}

// ParseExportKind accepts the CLI spelling of an export kind.
func ParseExportKind(s string) (ExportKind, error) {
	k := ExportKind(s)
	if _, ok := exportSpec[k]; !ok {
		return "", fmt.Errorf("unknown export kind %q (want readings, alerts or alerts-history)", s)
	}
	return k, nil
}

// ExportFilter narrows an export. Status applies to alert exports only.
type ExportFilter struct {
	From   time.Time
	To     time.Time
	RoomID int
	Status models.AlertStatus
}

func (f ExportFilter) values(kind ExportKind) url.Values {
	p := newParams().
		addTimeParam("from", f.From).
		addTimeParam("to", f.To).
		addIntParam("roomId", f.RoomID)
	if kind == ExportAlerts {
		p.addParam("status", string(f.Status))
	}
	return p.values()
}

// ExportFileName is the suggested download name for kind on the given day.
func ExportFileName(kind ExportKind, now time.Time) string {
	prefix := string(kind) + "-export"
	if s, ok := exportSpec[kind]; ok {
		prefix = s.prefix
	}
	return prefix + "-" + now.UTC().Format("2006-01-02") + ".csv"
}

// ExportFileName names an export after the client's clock.
func (c *Client) ExportFileName(kind ExportKind) string {
	return ExportFileName(kind, c.clk.Now())
}

// Export downloads a CSV export. Exports are never cached.
func (c *Client) Export(ctx context.Context, kind ExportKind, f ExportFilter) ([]byte, error) {
	spec, ok := exportSpec[kind]
	if !ok {
		return nil, fmt.Errorf("unknown export kind %q", kind)
	}
	resp, err := c.send(ctx, &transport.Request{
		Method: http.MethodGet,
		Path:   spec.path,
		Query:  f.values(kind),
		Header: http.Header{"Accept": []string{"text/csv"}},
	})
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, &transport.HTTPError{StatusCode: resp.StatusCode, Message: spec.fallback}
	}
	return resp.Body, nil
}

// ExportReadingsCSV downloads sensor readings as CSV.
func (c *Client) ExportReadingsCSV(ctx context.Context, f ExportFilter) ([]byte, error) {
	return c.Export(ctx, ExportReadings, f)
}

// ExportAlertsCSV downloads alerts as CSV.
func (c *Client) ExportAlertsCSV(ctx context.Context, f ExportFilter) ([]byte, error) {
	return c.Export(ctx, ExportAlerts, f)
}

// ExportAlertHistoryCSV downloads the alert history as CSV.
func (c *Client) ExportAlertHistoryCSV(ctx context.Context, f ExportFilter) ([]byte, error) {
	return c.Export(ctx, ExportAlertHistory, f)
}
