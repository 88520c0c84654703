// ColdWatch - Cold-Room Monitoring Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coldwatch

package client

import (
	"context"
	"net/http"

	"github.com/tomtom215/coldwatch/internal/authz"
	"github.com/tomtom215/coldwatch/internal/models"
	"github.com/tomtom215/coldwatch/internal/validation"
)

// ListSettings returns every system setting as key/value strings.
func (c *Client) ListSettings(ctx context.Context) (*models.SettingsResponse, error) {
	return getCached[*models.SettingsResponse](ctx, c, "/settings", nil)
}

// GetSetting returns one system setting.
func (c *Client) GetSetting(ctx context.Context, key string) (*models.SettingResponse, error) {
	if err := validation.ValidateVar("key", key, "required,setting_key"); err != nil {
		return nil, err
	}
	return getCached[*models.SettingResponse](ctx, c, "/settings/"+key, nil)
}

type settingsBody struct {
	Settings map[string]any `json:"settings"`
}

// UpdateSettings writes several settings at once. Values may be strings,
// booleans or numbers.
func (c *Client) UpdateSettings(ctx context.Context, settings map[string]any) (*models.MessageResponse, error) {
	if err := c.precheck(authz.ResourceSettings, authz.ActionUpdate, nil); err != nil {
		return nil, err
	}
	for key := range settings {
		if err := validation.ValidateVar("key", key, "required,setting_key"); err != nil {
			return nil, err
		}
	}
	return mutate[*models.MessageResponse](ctx, c, requestConfig{
		method: http.MethodPut,
		path:   "/settings",
		body:   settingsBody{Settings: settings},
	}, familySettings)
}

type settingValueBody struct {
	Value any `json:"value"`
}

// UpdateSetting writes one setting.
func (c *Client) UpdateSetting(ctx context.Context, key string, value any) (*models.SettingResponse, error) {
	if err := c.precheck(authz.ResourceSettings, authz.ActionUpdate, nil); err != nil {
		return nil, err
	}
	if err := validation.ValidateVar("key", key, "required,setting_key"); err != nil {
		return nil, err
	}
	return mutate[*models.SettingResponse](ctx, c, requestConfig{
		method: http.MethodPut,
		path:   "/settings/" + key,
		body:   settingValueBody{Value: value},
	}, familySettings)
}

// GetPreferences returns the signed-in user's notification switches.
func (c *Client) GetPreferences(ctx context.Context) (*models.PreferencesResponse, error) {
	return getCached[*models.PreferencesResponse](ctx, c, familyPreferences, nil)
}

// UpdatePreferences changes the set switches and leaves the others alone.
func (c *Client) UpdatePreferences(ctx context.Context, in models.PreferencesUpdate) (*models.PreferencesResponse, error) {
	if err := c.precheck(authz.ResourcePreferences, authz.ActionUpdate, nil); err != nil {
		return nil, err
	}
	return mutate[*models.PreferencesResponse](ctx, c, requestConfig{
		method: http.MethodPut,
		path:   familyPreferences,
		body:   in,
	}, familyPreferences)
}
