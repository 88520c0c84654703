// ColdWatch - Cold-Room Monitoring Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coldwatch

package models

// Setting is one backend system setting. Values are always strings on the wire.
type Setting struct {
	Key         string `json:"key"`
	Value       string `json:"value"`
	Description string `json:"description"`
}

// SettingsResponse is the envelope of GET /settings.
type SettingsResponse struct {
	Success  bool              `json:"success"`
	Settings map[string]string `json:"settings"`
}

// SettingResponse is the envelope of GET and PUT /settings/{key}.
type SettingResponse struct {
	Success bool    `json:"success"`
	Setting Setting `json:"setting"`
}

// MessageResponse is the generic {success, message} acknowledgement.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Preferences are the signed-in admin's own notification switches.
// The backend uses snake_case for these keys.
type Preferences struct {
	AlertTempEnabled     bool `json:"alert_temp_enabled"`
	AlertHumidityEnabled bool `json:"alert_humidity_enabled"`
	AlertAC1Enabled      bool `json:"alert_ac1_enabled"`
	AlertAC2Enabled      bool `json:"alert_ac2_enabled"`
}

// PreferencesUpdate is a partial preferences change.
type PreferencesUpdate struct {
	AlertTempEnabled     *bool `json:"alert_temp_enabled,omitempty"`
	AlertHumidityEnabled *bool `json:"alert_humidity_enabled,omitempty"`
	AlertAC1Enabled      *bool `json:"alert_ac1_enabled,omitempty"`
	AlertAC2Enabled      *bool `json:"alert_ac2_enabled,omitempty"`
}

// PreferencesResponse is the envelope of GET and PUT /user/preferences.
type PreferencesResponse struct {
	Success     bool        `json:"success"`
	Message     string      `json:"message,omitempty"`
	Preferences Preferences `json:"preferences"`
}
