// ColdWatch - Cold-Room Monitoring Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coldwatch

package authz

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/casbin/casbin/v2/persist"
	fileadapter "github.com/casbin/casbin/v2/persist/file-adapter"
	stringadapter "github.com/casbin/casbin/v2/persist/string-adapter"

	"github.com/tomtom215/coldwatch/internal/logging"
)

//go:embed model.conf
var embeddedModel string

//go:embed policy.csv
var embeddedPolicy string

// EnforcerConfig holds configuration for the Casbin enforcer.
type EnforcerConfig struct {
	// ModelPath is the path to the Casbin model file.
	// If empty, uses embedded model.
	ModelPath string

	// PolicyPath is the path to the Casbin policy file.
	// If empty, uses embedded policy.
	PolicyPath string

	// AutoReload re-reads PolicyPath every ReloadInterval.
	AutoReload     bool
	ReloadInterval time.Duration

	// CacheEnabled memoizes decisions until the policy changes.
	CacheEnabled bool
}

// DefaultEnforcerConfig returns default configuration.
func DefaultEnforcerConfig() *EnforcerConfig {
	return &EnforcerConfig{
		ReloadInterval: 30 * time.Second,
		CacheEnabled:   true,
	}
}

// Enforcer evaluates role decisions against a Casbin policy. Decisions are
// memoized unless the policy reloads from disk on its own.
type Enforcer struct {
	config   *EnforcerConfig
	enforcer *casbin.SyncedEnforcer
	cache    *decisionCache
}

// NewEnforcer loads the model and policy named by config, falling back to the
// embedded copies for empty or missing paths.
func NewEnforcer(ctx context.Context, config *EnforcerConfig) (*Enforcer, error) {
	if config == nil {
		config = DefaultEnforcerConfig()
	}

	m, modelSource, err := loadModel(config.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load casbin model from %s: %w", modelSource, err)
	}
	adapter, policySource := policyAdapter(config.PolicyPath)
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, fmt.Errorf("failed to load casbin policy from %s: %w", policySource, err)
	}
	enforcer.EnableAutoSave(false)

	reloading := config.AutoReload && policySource == config.PolicyPath
	if reloading {
		enforcer.StartAutoLoadPolicy(config.ReloadInterval)
	}

	e := &Enforcer{config: config, enforcer: enforcer}
	if config.CacheEnabled && !reloading {
		e.cache = newDecisionCache()
	}

	logging.Ctx(ctx).Debug().
		Str("model", modelSource).
		Str("policy", policySource).
		Bool("auto_reload", reloading).
		Bool("cache", e.cache != nil).
		Msg("Role gate policy loaded")
	return e, nil
}

func loadModel(path string) (model.Model, string, error) {
	if path != "" && fileExists(path) {
		m, err := model.NewModelFromFile(path)
		return m, path, err
	}
	m, err := model.NewModelFromString(embeddedModel)
	return m, "embedded model", err
}

func policyAdapter(path string) (persist.Adapter, string) {
	if path != "" && fileExists(path) {
		return fileadapter.NewAdapter(path), path
	}
	return stringadapter.NewAdapter(embeddedPolicy), "embedded policy"
}

// Enforce reports whether subject may perform action on object.
func (e *Enforcer) Enforce(subject, object, action string) (bool, error) {
	if e.cache != nil {
		if allowed, ok := e.cache.get(subject, object, action); ok {
			return allowed, nil
		}
	}
	allowed, err := e.enforcer.Enforce(subject, object, action)
	if err != nil {
		return false, fmt.Errorf("enforcement failed: %w", err)
	}
	if e.cache != nil {
		e.cache.set(subject, object, action, allowed)
	}
	return allowed, nil
}

// InheritedRoles returns the roles that role inherits directly.
func (e *Enforcer) InheritedRoles(role string) ([]string, error) {
	return e.enforcer.GetRolesForUser(role)
}

// Grant adds a rule at runtime. The in-memory policy changes, the file does not.
func (e *Enforcer) Grant(subject, object, action string) (bool, error) {
	return e.mutate(e.enforcer.AddPolicy, subject, object, action)
}

// Revoke removes a rule at runtime.
func (e *Enforcer) Revoke(subject, object, action string) (bool, error) {
	return e.mutate(e.enforcer.RemovePolicy, subject, object, action)
}

func (e *Enforcer) mutate(op func(params ...interface{}) (bool, error), subject, object, action string) (bool, error) {
	changed, err := op(subject, object, action)
	if err != nil {
		return false, fmt.Errorf("update policy: %w", err)
	}
	if e.cache != nil {
		e.cache.clear()
	}
	return changed, nil
}

// Close stops policy auto-reload.
func (e *Enforcer) Close() {
	e.enforcer.StopAutoLoadPolicy()
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
