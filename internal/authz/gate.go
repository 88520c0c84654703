// ColdWatch - Cold-Room Monitoring Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coldwatch

package authz

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/coldwatch/internal/models"
)

// ErrForbidden is returned when the signed-in role may not perform an operation.
var ErrForbidden = errors.New("forbidden")

// Resources named in the policy.
const (
	ResourceRooms       = "rooms"
	ResourceAlerts      = "alerts"
	ResourceUsers       = "users"
	ResourcePhones      = "phones"
	ResourceProfile     = "profile"
	ResourceSMS         = "sms"
	ResourceSettings    = "settings"
	ResourcePreferences = "preferences"
)

// Actions named in the policy.
const (
	ActionCreate      = "create"
	ActionUpdate      = "update"
	ActionDelete      = "delete"
	ActionAcknowledge = "acknowledge"
	ActionResolve     = "resolve"
	ActionSend        = "send"
)

// ForbiddenError names the denied operation. It matches ErrForbidden.
type ForbiddenError struct {
	Role     models.Role
	Resource string
	Action   string
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("%v: role %s may not %s %s", ErrForbidden, e.Role, e.Action, e.Resource)
}

func (e *ForbiddenError) Is(target error) bool { return target == ErrForbidden }

// Gate answers role checks for mutating client operations.
type Gate struct {
	enforcer *Enforcer
}

// NewGate builds a Gate on a new Enforcer.
func NewGate(ctx context.Context, config *EnforcerConfig) (*Gate, error) {
	e, err := NewEnforcer(ctx, config)
	if err != nil {
		return nil, err
	}
	return &Gate{enforcer: e}, nil
}

// Check returns nil when role may perform action on resource, a
// *ForbiddenError when it may not, and an error if the policy cannot be evaluated.
func (g *Gate) Check(role models.Role, resource, action string) error {
	allowed, err := g.enforcer.Enforce(string(role), resource, action)
	if err != nil {
		return err
	}
	RecordDecision(role, resource, action, allowed)
	if !allowed {
		return &ForbiddenError{Role: role, Resource: resource, Action: action}
	}
	return nil
}

// Close releases the underlying enforcer.
func (g *Gate) Close() {
	g.enforcer.Close()
}
