// ColdWatch - Cold-Room Monitoring Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coldwatch

/*
Package authz gates mutating client operations by the signed-in user's role,
using Casbin.

The backend remains the authority on permissions. The gate only stops requests
that the backend would certainly refuse, so a USER never sends a room deletion
and never has it applied optimistically to the local snapshot.

Role Hierarchy:

	SUPER_ADMIN ⊃ ADMIN ⊃ USER

Policy Format (policy.csv):

	p, <role>, <resource>, <action>
	g, <child role>, <parent role>

Resources and actions are the constants in this package. "*" matches any
action; resource patterns use Casbin keyMatch.

Usage:

	gate, err := authz.NewGate(ctx, &authz.EnforcerConfig{})
	if err := gate.Check(user.Role, authz.ResourceRooms, authz.ActionDelete); err != nil {
	    return err // wraps authz.ErrForbidden
	}

An external policy file can replace the embedded one (authz.policy_path).
*/
package authz
