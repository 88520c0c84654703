// ColdWatch - Cold-Room Monitoring Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coldwatch

package models

import (
	"time"

	"github.com/goccy/go-json"
)

// User is a backend account. Decoding accepts both snake_case and camelCase
// spellings; encoding always produces camelCase.
type User struct {
	ID              int         `json:"id"`
	Name            string      `json:"name"`
	Username        string      `json:"username"`
	Role            Role        `json:"role"`
	SMSEnabled      bool        `json:"smsEnabled"`
	AssignedRoomIDs []int       `json:"assignedRoomIds"`
	Phones          []UserPhone `json:"phones,omitempty"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       *time.Time  `json:"updatedAt,omitempty"`
}

// userWire is the permissive decoding shape for User.
type userWire struct {
	ID                  int         `json:"id"`
	Name                string      `json:"name"`
	Username            string      `json:"username"`
	Role                Role        `json:"role"`
	SMSEnabledSnake     *bool       `json:"sms_enabled"`
	SMSEnabledCamel     *bool       `json:"smsEnabled"`
	AssignedRoomsSnake  []int       `json:"assigned_rooms"`
	AssignedRoomIDCamel []int       `json:"assignedRoomIds"`
	Phones              []UserPhone `json:"phones"`
	CreatedAtSnake      *time.Time  `json:"created_at"`
	CreatedAtCamel      *time.Time  `json:"createdAt"`
	UpdatedAtSnake      *time.Time  `json:"updated_at"`
	UpdatedAtCamel      *time.Time  `json:"updatedAt"`
}

// UnmarshalJSON decodes a user in either naming convention.
// When both spellings are present the snake_case one wins, matching the backend's
// primary convention.
func (u *User) UnmarshalJSON(data []byte) error {
	var w userWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	*u = User{
		ID:              w.ID,
		Name:            w.Name,
		Username:        w.Username,
		Role:            w.Role,
		SMSEnabled:      firstBool(w.SMSEnabledSnake, w.SMSEnabledCamel),
		AssignedRoomIDs: firstInts(w.AssignedRoomsSnake, w.AssignedRoomIDCamel),
		Phones:          w.Phones,
		UpdatedAt:       firstTime(w.UpdatedAtSnake, w.UpdatedAtCamel),
	}
	if created := firstTime(w.CreatedAtSnake, w.CreatedAtCamel); created != nil {
		u.CreatedAt = *created
	}
	return nil
}

// HasRoom reports whether the user is assigned to the given room.
func (u *User) HasRoom(roomID int) bool {
	for _, id := range u.AssignedRoomIDs {
		if id == roomID {
			return true
		}
	}
	return false
}

// UserPhone is one notification number on a user account.
type UserPhone struct {
	ID            int    `json:"id,omitempty"`
	PhoneNumber   string `json:"phoneNumber"`
	IsPrimary     bool   `json:"isPrimary"`
	AssignedRooms []int  `json:"assignedRooms,omitempty"`
}

type userPhoneWire struct {
	ID                 int    `json:"id"`
	PhoneNumberSnake   string `json:"phone_number"`
	PhoneNumberCamel   string `json:"phoneNumber"`
	IsPrimarySnake     *bool  `json:"is_primary"`
	IsPrimaryCamel     *bool  `json:"isPrimary"`
	AssignedRoomsSnake []int  `json:"assigned_rooms"`
	AssignedRoomsCamel []int  `json:"assignedRooms"`
}

// UnmarshalJSON decodes a phone entry in either naming convention.
func (p *UserPhone) UnmarshalJSON(data []byte) error {
	var w userPhoneWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	number := w.PhoneNumberSnake
	if number == "" {
		number = w.PhoneNumberCamel
	}
	*p = UserPhone{
		ID:            w.ID,
		PhoneNumber:   number,
		IsPrimary:     firstBool(w.IsPrimarySnake, w.IsPrimaryCamel),
		AssignedRooms: firstInts(w.AssignedRoomsSnake, w.AssignedRoomsCamel),
	}
	return nil
}

// PhoneInput is the payload for adding or replacing a phone entry.
type PhoneInput struct {
	PhoneNumber   string `validate:"required,phone"`
	IsPrimary     bool
	AssignedRooms []int `validate:"omitempty,dive,gt=0"`
}

// PhoneWire is the snake_case shape the backend expects for phone writes.
type PhoneWire struct {
	PhoneNumber   string `json:"phone_number"`
	IsPrimary     bool   `json:"is_primary"`
	AssignedRooms []int  `json:"assigned_rooms,omitempty"`
}

// ToWire converts the input to the backend's write shape.
func (p PhoneInput) ToWire() PhoneWire {
	return PhoneWire{
		PhoneNumber:   p.PhoneNumber,
		IsPrimary:     p.IsPrimary,
		AssignedRooms: p.AssignedRooms,
	}
}

// UserInput is the payload for creating or updating a user.
// Password is required on create and ignored when empty on update.
type UserInput struct {
	Name            string `validate:"required,max=100"`
	Username        string `validate:"required,min=3,max=50"`
	Password        string `validate:"omitempty,min=6,max=128"`
	Role            Role   `validate:"required,oneof=SUPER_ADMIN ADMIN USER"`
	SMSEnabled      bool
	AssignedRoomIDs []int        `validate:"omitempty,dive,gt=0"`
	Phones          []PhoneInput `validate:"omitempty,dive"`
}

// UserWire is the camelCase shape the backend expects for user writes.
type UserWire struct {
	Name            string      `json:"name"`
	Username        string      `json:"username"`
	Password        string      `json:"password,omitempty"`
	Role            Role        `json:"role"`
	SMSEnabled      bool        `json:"smsEnabled"`
	AssignedRoomIDs []int       `json:"assignedRoomIds"`
	Phones          []PhoneWire `json:"phones,omitempty"`
}

// ToWire converts the input to the backend's write shape.
func (in UserInput) ToWire() UserWire {
	rooms := in.AssignedRoomIDs
	if rooms == nil {
		rooms = []int{}
	}
	return UserWire{
		Name:            in.Name,
		Username:        in.Username,
		Password:        in.Password,
		Role:            in.Role,
		SMSEnabled:      in.SMSEnabled,
		AssignedRoomIDs: rooms,
		Phones:          phonesToWire(in.Phones),
	}
}

// ProfileUpdate changes the signed-in user's own account.
// A new password requires the current one.
type ProfileUpdate struct {
	Username        *string      `validate:"omitempty,min=3,max=50"`
	Name            *string      `validate:"omitempty,max=100"`
	CurrentPassword string       `validate:"required_with=NewPassword"`
	NewPassword     string       `validate:"omitempty,min=6,max=128"`
	Phones          []PhoneInput `validate:"omitempty,dive"`
}

// ProfileWire is the backend's write shape for profile updates.
type ProfileWire struct {
	Username        *string     `json:"username,omitempty"`
	Name            *string     `json:"name,omitempty"`
	CurrentPassword string      `json:"currentPassword,omitempty"`
	NewPassword     string      `json:"newPassword,omitempty"`
	Phones          []PhoneWire `json:"phones,omitempty"`
}

// ToWire converts the update to the backend's write shape.
func (p ProfileUpdate) ToWire() ProfileWire {
	return ProfileWire{
		Username:        p.Username,
		Name:            p.Name,
		CurrentPassword: p.CurrentPassword,
		NewPassword:     p.NewPassword,
		Phones:          phonesToWire(p.Phones),
	}
}

// LoginResponse is returned by POST /auth/login.
type LoginResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	User         User   `json:"user"`
	ExpiresIn    int    `json:"expiresIn"`
}

func phonesToWire(in []PhoneInput) []PhoneWire {
	if in == nil {
		return nil
	}
	out := make([]PhoneWire, len(in))
	for i, p := range in {
		out[i] = p.ToWire()
	}
	return out
}

func firstBool(vals ...*bool) bool {
	for _, v := range vals {
		if v != nil {
			return *v
		}
	}
	return false
}

func firstInts(vals ...[]int) []int {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return []int{}
}

func firstTime(vals ...*time.Time) *time.Time {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}
