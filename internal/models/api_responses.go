// ColdWatch - Cold-Room Monitoring Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coldwatch

package models

import (
	"time"
)

// APIResponse is the envelope of every route on the local status API.
//
// Status field values:
//   - "success": see Data
//   - "error": see Error
//
// Example:
//
//	{
//	  "status": "success",
//	  "data": {"isConnected": true, "retryCount": 0},
//	  "metadata": {"timestamp": "2026-03-01T12:00:00Z"}
//	}
type APIResponse struct {
	Status   string    `json:"status"`
	Data     any       `json:"data,omitempty"`
	Metadata Metadata  `json:"metadata"`
	Error    *APIError `json:"error,omitempty"`
}

// Metadata describes when a response was produced and how fresh its data is.
// SnapshotAgeMS is set only on snapshot responses.
type Metadata struct {
	Timestamp     time.Time `json:"timestamp"`
	SnapshotAgeMS *int64    `json:"snapshot_age_ms,omitempty"`
	RateLimited   bool      `json:"rate_limited,omitempty"`
}

// APIError carries a machine-readable code alongside the message.
//
// Common codes:
//   - VALIDATION_ERROR: bad path or query parameter
//   - NOT_FOUND: unknown alert or room
//   - UPSTREAM_ERROR: the backend rejected the write
//   - SESSION_EXPIRED: the backend session can no longer be refreshed
//   - RATE_LIMITED: the backend rate-limit window is active
type APIError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}
