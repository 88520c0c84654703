// ColdWatch - Cold-Room Monitoring Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coldwatch

package authz

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tomtom215/coldwatch/internal/models"
)

var (
	// AuthzDecisionsTotal counts gate decisions by role, resource, action, and outcome.
	AuthzDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coldwatch_authz_decisions_total",
			Help: "Total number of role gate decisions",
		},
		[]string{"role", "resource", "action", "decision"},
	)

	// AuthzDeniedTotal counts denials only, for alerting on misconfigured roles.
	AuthzDeniedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coldwatch_authz_denied_total",
			Help: "Total number of operations refused by the role gate",
		},
		[]string{"role", "resource"},
	)
)

// RecordDecision records one gate decision.
func RecordDecision(role models.Role, resource, action string, allowed bool) {
	decision := "allow"
	if !allowed {
		decision = "deny"
		AuthzDeniedTotal.WithLabelValues(string(role), resource).Inc()
	}
	AuthzDecisionsTotal.WithLabelValues(string(role), resource, action, decision).Inc()
}
