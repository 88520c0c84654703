// ColdWatch - Cold-Room Monitoring Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coldwatch

/*
Package models defines the records exchanged with the cold-room monitoring backend.

The backend is authoritative for every record in this package. The client only
mirrors them, with the exception of optimistic patches (RoomUpdate, AlertPatch)
that are applied locally ahead of server confirmation and reconciled by the next
refresh.

Record Categories:

 1. Monitoring: Room, RoomOverview, Reading, DashboardStats
 2. Alerting: Alert, AlertHistory, SMSLog
 3. Identity: User, UserPhone, LoginResponse
 4. Configuration: Setting, Preferences

Wire Conventions:

The canonical in-memory shape is camelCase. The backend is inconsistent about
field naming on user records, so User and UserPhone decode through explicit wire
adapters that accept both snake_case and camelCase spellings:

	sms_enabled    | smsEnabled
	assigned_rooms | assignedRoomIds
	phone_number   | phoneNumber
	is_primary     | isPrimary
	created_at     | createdAt
	updated_at     | updatedAt

Room and RoomOverview accept is_online as well as isOnline. Outbound payloads
(UserInput, PhoneInput, ProfileUpdate) are converted with ToWire, which produces
the spelling the backend expects on writes: camelCase for users, snake_case for
phone entries.

Pagination:

List endpoints return Page[T]:

	{"data": [...], "total": 120, "page": 1, "limit": 100}

Validation:

Input types carry go-playground/validator tags and are checked by
internal/validation before any request leaves the process.
*/
package models
