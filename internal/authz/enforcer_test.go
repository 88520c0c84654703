// ColdWatch - Cold-Room Monitoring Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coldwatch

package authz

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/coldwatch/internal/models"
)

// =====================================================
// Test Helpers
// =====================================================

func setupGate(t *testing.T, config *EnforcerConfig) *Gate {
	t.Helper()
	gate, err := NewGate(context.Background(), config)
	if err != nil {
		t.Fatalf("NewGate() error = %v", err)
	}
	t.Cleanup(gate.Close)
	return gate
}

// =====================================================
// Embedded Policy Tests
// =====================================================

func TestGate_EmbeddedPolicy(t *testing.T) {
	t.Parallel()

	gate := setupGate(t, nil)

	tests := []struct {
		role     models.Role
		resource string
		action   string
		want     bool
	}{
		{models.RoleUser, ResourceAlerts, ActionAcknowledge, true},
		{models.RoleUser, ResourceAlerts, ActionResolve, true},
		{models.RoleUser, ResourceProfile, ActionUpdate, true},
		{models.RoleUser, ResourceRooms, ActionDelete, false},
		{models.RoleUser, ResourceSMS, ActionSend, false},
		{models.RoleUser, ResourceAlerts, ActionUpdate, false},
		{models.RoleAdmin, ResourceRooms, ActionDelete, true},
		{models.RoleAdmin, ResourceAlerts, ActionUpdate, true},
		{models.RoleAdmin, ResourceAlerts, ActionAcknowledge, true},
		{models.RoleAdmin, ResourceProfile, ActionUpdate, true},
		{models.RoleAdmin, ResourceUsers, ActionCreate, false},
		{models.RoleAdmin, ResourceSettings, ActionUpdate, false},
		{models.RoleSuperAdmin, ResourceUsers, ActionDelete, true},
		{models.RoleSuperAdmin, ResourceSettings, ActionUpdate, true},
		{models.RoleSuperAdmin, ResourceRooms, ActionCreate, true},
		{"GUEST", ResourceAlerts, ActionAcknowledge, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role)+"/"+tt.resource+"/"+tt.action, func(t *testing.T) {
			err := gate.Check(tt.role, tt.resource, tt.action)
			if tt.want && err != nil {
				t.Errorf("Check() error = %v, want allowed", err)
			}
			if !tt.want {
				if !errors.Is(err, ErrForbidden) {
					t.Errorf("Check() error = %v, want ErrForbidden", err)
				}
				var fe *ForbiddenError
				if errors.As(err, &fe) && fe.Resource != tt.resource {
					t.Errorf("ForbiddenError.Resource = %q, want %q", fe.Resource, tt.resource)
				}
			}
		})
	}
}

func TestGate_RecordsDenials(t *testing.T) {
	gate := setupGate(t, nil)

	before := testutil.ToFloat64(AuthzDeniedTotal.WithLabelValues("USER", ResourceUsers))
	_ = gate.Check(models.RoleUser, ResourceUsers, ActionDelete)
	after := testutil.ToFloat64(AuthzDeniedTotal.WithLabelValues("USER", ResourceUsers))
	if after-before != 1 {
		t.Errorf("denied counter delta = %v, want 1", after-before)
	}
}

func TestEnforcer_RoleHierarchy(t *testing.T) {
	t.Parallel()

	e, err := NewEnforcer(context.Background(), nil)
	if err != nil {
		t.Fatalf("NewEnforcer() error = %v", err)
	}
	defer e.Close()

	roles, err := e.InheritedRoles("SUPER_ADMIN")
	if err != nil {
		t.Fatalf("InheritedRoles() error = %v", err)
	}
	if len(roles) != 1 || roles[0] != "ADMIN" {
		t.Errorf("InheritedRoles(SUPER_ADMIN) = %v, want [ADMIN]", roles)
	}
}

// =====================================================
// Cache Tests
// =====================================================

func TestEnforcer_CacheClearedOnPolicyChange(t *testing.T) {
	t.Parallel()

	e, err := NewEnforcer(context.Background(), &EnforcerConfig{CacheEnabled: true})
	if err != nil {
		t.Fatalf("NewEnforcer() error = %v", err)
	}
	defer e.Close()

	if ok, _ := e.Enforce("USER", ResourceSMS, ActionSend); ok {
		t.Fatal("USER may send SMS before the policy change")
	}
	if e.cache.len() != 1 {
		t.Errorf("cache len = %d, want 1", e.cache.len())
	}

	if _, err := e.Grant("USER", ResourceSMS, ActionSend); err != nil {
		t.Fatalf("Grant() error = %v", err)
	}
	if e.cache.len() != 0 {
		t.Errorf("cache len after Grant = %d, want 0", e.cache.len())
	}
	if ok, _ := e.Enforce("USER", ResourceSMS, ActionSend); !ok {
		t.Error("USER may not send SMS after Grant")
	}

	if _, err := e.Revoke("USER", ResourceSMS, ActionSend); err != nil {
		t.Fatalf("Revoke() error = %v", err)
	}
	if ok, _ := e.Enforce("USER", ResourceSMS, ActionSend); ok {
		t.Error("USER may still send SMS after Revoke")
	}
}

// =====================================================
// External Policy Tests
// =====================================================

func TestEnforcer_ExternalPolicyFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	policyPath := filepath.Join(dir, "policy.csv")
	policy := "p, USER, rooms, update\ng, ADMIN, USER\n"
	if err := os.WriteFile(policyPath, []byte(policy), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	gate := setupGate(t, &EnforcerConfig{PolicyPath: policyPath})
	if err := gate.Check(models.RoleUser, ResourceRooms, ActionUpdate); err != nil {
		t.Errorf("Check(USER rooms update) = %v, want allowed", err)
	}
	if err := gate.Check(models.RoleUser, ResourceAlerts, ActionAcknowledge); !errors.Is(err, ErrForbidden) {
		t.Errorf("Check(USER alerts acknowledge) = %v, want ErrForbidden", err)
	}
	if err := gate.Check(models.RoleAdmin, ResourceRooms, ActionUpdate); err != nil {
		t.Errorf("Check(ADMIN rooms update) = %v, want inherited allow", err)
	}
}
