// ColdWatch - Cold-Room Monitoring Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coldwatch

package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/coldwatch/internal/authz"
	"github.com/tomtom215/coldwatch/internal/logging"
	"github.com/tomtom215/coldwatch/internal/models"
	"github.com/tomtom215/coldwatch/internal/transport"
	"github.com/tomtom215/coldwatch/internal/validation"
)

// sanitizeLogValue replaces control characters so request data cannot forge
// log lines.
func sanitizeLogValue(s string) string {
	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			result.WriteString(fmt.Sprintf("\\x%02x", r))
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// respondJSON sends a JSON response. API data changes every few seconds, so
// responses are never cached.
func respondJSON(w http.ResponseWriter, status int, response *models.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")

	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

func success(data any, meta models.Metadata) *models.APIResponse {
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now().UTC()
	}
	return &models.APIResponse{Status: "success", Data: data, Metadata: meta}
}

// respondError sends an error response
func respondError(w http.ResponseWriter, status int, code, message string, err error) {
	if err != nil {
		logging.Error().Str("code", sanitizeLogValue(code)).Str("error", sanitizeLogValue(err.Error())).Msg("API Error")
	}

	respondJSON(w, status, &models.APIResponse{
		Status:   "error",
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
		Error: &models.APIError{
			Code:    code,
			Message: message,
		},
	})
}

// respondValidationError sends a 400 carrying the field details.
func respondValidationError(w http.ResponseWriter, verr *validation.RequestValidationError) {
	apiErr := verr.ToAPIError()
	respondJSON(w, http.StatusBadRequest, &models.APIResponse{
		Status:   "error",
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
		Error: &models.APIError{
			Code:    apiErr.Code,
			Message: apiErr.Message,
			Details: apiErr.Details,
		},
	})
}

// respondUpstreamError maps an error from a backend write to a status code.
func respondUpstreamError(w http.ResponseWriter, err error) {
	var verr *validation.RequestValidationError
	switch {
	case errors.As(err, &verr):
		respondValidationError(w, verr)
	case errors.Is(err, authz.ErrForbidden):
		respondError(w, http.StatusForbidden, "FORBIDDEN", err.Error(), nil)
	case errors.Is(err, transport.ErrSessionExpired):
		respondError(w, http.StatusUnauthorized, "SESSION_EXPIRED", "Session expired", nil)
	case errors.Is(err, transport.ErrRateLimited):
		respondError(w, http.StatusTooManyRequests, "RATE_LIMITED", err.Error(), nil)
	case transport.IsNotFound(err):
		respondError(w, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case errors.Is(err, transport.ErrTimeout):
		respondError(w, http.StatusGatewayTimeout, "UPSTREAM_TIMEOUT", err.Error(), err)
	default:
		respondError(w, http.StatusBadGateway, "UPSTREAM_ERROR", err.Error(), err)
	}
}
