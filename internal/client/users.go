// ColdWatch - Cold-Room Monitoring Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coldwatch

package client

import (
	"context"
	"net/http"
	"strconv"

	"github.com/tomtom215/coldwatch/internal/authz"
	"github.com/tomtom215/coldwatch/internal/logging"
	"github.com/tomtom215/coldwatch/internal/models"
	"github.com/tomtom215/coldwatch/internal/validation"
)

const profilePath = "/users/profile"

func userPath(id int) string {
	return "/users/" + strconv.Itoa(id)
}

func phonesPath(userID int) string {
	return userPath(userID) + "/phones"
}

// ListUsers returns one page of users.
func (c *Client) ListUsers(ctx context.Context, page, limit int) (*models.Page[models.User], error) {
	q := newParams().addIntParam("page", page).addIntParam("limit", limit)
	return getCached[*models.Page[models.User]](ctx, c, "/users", q.values())
}

// GetUser returns one user.
func (c *Client) GetUser(ctx context.Context, id int) (*models.User, error) {
	return getCached[*models.User](ctx, c, userPath(id), nil)
}

// CreateUser creates a user. A password is required.
func (c *Client) CreateUser(ctx context.Context, in models.UserInput) (*models.User, error) {
	if err := c.precheck(authz.ResourceUsers, authz.ActionCreate, &in); err != nil {
		return nil, err
	}
	if err := validation.ValidateVar("Password", in.Password, "required"); err != nil {
		return nil, err
	}
	return mutate[*models.User](ctx, c, requestConfig{
		method: http.MethodPost,
		path:   "/users",
		body:   in.ToWire(),
	}, familyUsers, familyDashboard)
}

// UpdateUser replaces a user's account fields. An empty password is left unchanged.
func (c *Client) UpdateUser(ctx context.Context, id int, in models.UserInput) (*models.User, error) {
	if err := c.precheck(authz.ResourceUsers, authz.ActionUpdate, &in); err != nil {
		return nil, err
	}
	u, err := mutate[*models.User](ctx, c, requestConfig{
		method: http.MethodPut,
		path:   userPath(id),
		body:   in.ToWire(),
	}, familyUsers, familyDashboard)
	if err == nil && u != nil {
		c.syncCurrentUser(ctx, u)
	}
	return u, err
}

// DeleteUser deletes a user. Every cached response is dropped afterwards
// because the user may be referenced from alerts and SMS logs.
func (c *Client) DeleteUser(ctx context.Context, id int) error {
	if err := c.precheck(authz.ResourceUsers, authz.ActionDelete, nil); err != nil {
		return err
	}
	err := c.call(ctx, requestConfig{
		method:   http.MethodDelete,
		path:     userPath(id),
		fallback: "Cannot delete user - may have dependencies",
	}, nil)
	c.cache.Clear()
	return err
}

// ListUserPhones returns a user's phone entries.
func (c *Client) ListUserPhones(ctx context.Context, userID int) ([]models.UserPhone, error) {
	return getCached[[]models.UserPhone](ctx, c, phonesPath(userID), nil)
}

// AddUserPhone adds a phone entry to a user.
func (c *Client) AddUserPhone(ctx context.Context, userID int, in models.PhoneInput) (*models.UserPhone, error) {
	if err := c.precheck(authz.ResourcePhones, authz.ActionCreate, &in); err != nil {
		return nil, err
	}
	return mutate[*models.UserPhone](ctx, c, requestConfig{
		method: http.MethodPost,
		path:   phonesPath(userID),
		body:   in.ToWire(),
	}, familyUsers)
}

// UpdateUserPhone replaces a phone entry.
func (c *Client) UpdateUserPhone(ctx context.Context, userID, phoneID int, in models.PhoneInput) (*models.UserPhone, error) {
	if err := c.precheck(authz.ResourcePhones, authz.ActionUpdate, &in); err != nil {
		return nil, err
	}
	return mutate[*models.UserPhone](ctx, c, requestConfig{
		method: http.MethodPut,
		path:   phonesPath(userID) + "/" + strconv.Itoa(phoneID),
		body:   in.ToWire(),
	}, familyUsers)
}

// DeleteUserPhone removes a phone entry.
func (c *Client) DeleteUserPhone(ctx context.Context, userID, phoneID int) error {
	if err := c.precheck(authz.ResourcePhones, authz.ActionDelete, nil); err != nil {
		return err
	}
	_, err := mutate[struct{}](ctx, c, requestConfig{
		method: http.MethodDelete,
		path:   phonesPath(userID) + "/" + strconv.Itoa(phoneID),
	}, familyUsers)
	return err
}

// GetProfile returns the signed-in user's own account.
func (c *Client) GetProfile(ctx context.Context) (*models.User, error) {
	return getCached[*models.User](ctx, c, profilePath, nil)
}

// UpdateProfile changes the signed-in user's own account. The stored session
// user is refreshed from the response.
func (c *Client) UpdateProfile(ctx context.Context, in models.ProfileUpdate) (*models.User, error) {
	if err := c.precheck(authz.ResourceProfile, authz.ActionUpdate, &in); err != nil {
		return nil, err
	}
	u, err := mutate[*models.User](ctx, c, requestConfig{
		method: http.MethodPut,
		path:   profilePath,
		body:   in.ToWire(),
	}, familyUsers)
	if err == nil && u != nil {
		c.syncCurrentUser(ctx, u)
	}
	return u, err
}

// syncCurrentUser replaces the session user when u is the signed-in account.
func (c *Client) syncCurrentUser(ctx context.Context, u *models.User) {
	current := c.auth.CurrentUser()
	if current == nil || current.ID != u.ID {
		return
	}
	if err := c.auth.SetUser(ctx, u); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Failed to persist updated user")
	}
}
