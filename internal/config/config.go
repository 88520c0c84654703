// ColdWatch - Cold-Room Monitoring Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coldwatch

// Package config loads and validates ColdWatch configuration.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: built-in values mirroring the dashboard's timing constants
//  2. Config File: optional YAML file (coldwatch.yaml)
//  3. Environment Variables: override any setting
//
// Config is immutable after Load() and safe for concurrent read access.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	API        APIConfig        `koanf:"api"`
	Transport  TransportConfig  `koanf:"transport"`
	Cache      CacheConfig      `koanf:"cache"`
	Auth       AuthConfig       `koanf:"auth"`
	Connection ConnectionConfig `koanf:"connection"`
	Sync       SyncConfig       `koanf:"sync"`
	Authz      AuthzConfig      `koanf:"authz"`
	Server     ServerConfig     `koanf:"server"`
	Logging    LoggingConfig    `koanf:"logging"`
}

// APIConfig describes the backend REST API.
//
// Environment Variables:
//   - COLDWATCH_API_URL: base URL including the /api prefix (default: http://localhost:3000/api)
//   - COLDWATCH_HEALTH_URL: health endpoint; derived from the base URL when empty
//   - COLDWATCH_REQUEST_TIMEOUT: per-request timeout (default: 15s)
type APIConfig struct {
	BaseURL        string        `koanf:"base_url"`
	HealthURL      string        `koanf:"health_url"`
	RequestTimeout time.Duration `koanf:"request_timeout"`
	HealthTimeout  time.Duration `koanf:"health_timeout"`
	RefreshTimeout time.Duration `koanf:"refresh_timeout"`
	UserAgent      string        `koanf:"user_agent"`
}

// ResolvedHealthURL returns HealthURL, or the base URL with a trailing /api
// removed and /health appended.
func (a APIConfig) ResolvedHealthURL() string {
	if a.HealthURL != "" {
		return a.HealthURL
	}
	base := strings.TrimSuffix(a.BaseURL, "/")
	base = strings.TrimSuffix(base, "/api")
	return base + "/health"
}

// TransportConfig controls request pacing and the circuit breaker.
type TransportConfig struct {
	// MinRequestInterval is the minimum spacing between any two outbound requests.
	MinRequestInterval time.Duration `koanf:"min_request_interval"`

	// RateLimitWindow is how long requests are held back after a 429.
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`

	BreakerEnabled     bool          `koanf:"breaker_enabled"`
	BreakerMaxFailures uint32        `koanf:"breaker_max_failures"`
	BreakerTimeout     time.Duration `koanf:"breaker_timeout"`
}

// CacheConfig controls the response cache.
type CacheConfig struct {
	TTL time.Duration `koanf:"ttl"`
}

// AuthConfig holds credentials and token storage settings.
type AuthConfig struct {
	Username string `koanf:"username"`
	Password string `koanf:"password"`

	// TokenStore is "memory" or "badger".
	TokenStore     string `koanf:"token_store"`
	TokenStorePath string `koanf:"token_store_path"`

	// EncryptionKey encrypts tokens at rest when set (badger store only).
	EncryptionKey string `koanf:"encryption_key"`

	// RefreshSkew triggers a proactive refresh when the access token expires within it.
	RefreshSkew time.Duration `koanf:"refresh_skew"`
}

// ConnectionConfig holds the connection monitor timings.
type ConnectionConfig struct {
	InitialCheckDelay     time.Duration `koanf:"initial_check_delay"`
	HealthInterval        time.Duration `koanf:"health_interval"`
	MinCheckInterval      time.Duration `koanf:"min_check_interval"`
	ReconnectInitialDelay time.Duration `koanf:"reconnect_initial_delay"`
	ReconnectBaseDelay    time.Duration `koanf:"reconnect_base_delay"`
	ReconnectMaxDelay     time.Duration `koanf:"reconnect_max_delay"`
}

// SyncConfig holds the data cache store settings.
type SyncConfig struct {
	RefreshInterval    time.Duration `koanf:"refresh_interval"`
	MinRefreshInterval time.Duration `koanf:"min_refresh_interval"`
	StaleAfter         time.Duration `koanf:"stale_after"`
	SnapshotMaxAge     time.Duration `koanf:"snapshot_max_age"`
	PageLimit          int           `koanf:"page_limit"`
	CorrectiveRefetch  bool          `koanf:"corrective_refetch"`

	// SnapshotStore is "memory" or "badger".
	SnapshotStore     string `koanf:"snapshot_store"`
	SnapshotStorePath string `koanf:"snapshot_store_path"`
}

// AuthzConfig controls the role gate on mutating operations.
// Empty paths select the embedded model and policy.
type AuthzConfig struct {
	Enabled    bool   `koanf:"enabled"`
	ModelPath  string `koanf:"model_path"`
	PolicyPath string `koanf:"policy_path"`
}

// ServerConfig holds the local status server settings.
type ServerConfig struct {
	Enabled         bool          `koanf:"enabled"`
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// Addr returns host:port for net/http.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	Level string `koanf:"level"`

	// Format is the output format: json or console.
	Format string `koanf:"format"`

	Caller bool `koanf:"caller"`
}
