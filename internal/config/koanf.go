// ColdWatch - Cold-Room Monitoring Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coldwatch

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths searched for a config file, in order.
var DefaultConfigPaths = []string{
	"coldwatch.yaml",
	"coldwatch.yml",
	"/etc/coldwatch/coldwatch.yaml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "COLDWATCH_CONFIG"

// Default returns a Config with every default applied.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:        "http://localhost:3000/api",
			RequestTimeout: 15 * time.Second,
			HealthTimeout:  5 * time.Second,
			RefreshTimeout: 10 * time.Second,
			UserAgent:      "coldwatch/1.0",
		},
		Transport: TransportConfig{
			MinRequestInterval: 500 * time.Millisecond,
			RateLimitWindow:    30 * time.Second,
			BreakerEnabled:     true,
			BreakerMaxFailures: 5,
			BreakerTimeout:     30 * time.Second,
		},
		Cache: CacheConfig{
			TTL: 5 * time.Second,
		},
		Auth: AuthConfig{
			TokenStore:     "memory",
			TokenStorePath: "/data/coldwatch/tokens",
			RefreshSkew:    30 * time.Second,
		},
		Connection: ConnectionConfig{
			InitialCheckDelay:     2 * time.Second,
			HealthInterval:        120 * time.Second,
			MinCheckInterval:      30 * time.Second,
			ReconnectInitialDelay: 15 * time.Second,
			ReconnectBaseDelay:    30 * time.Second,
			ReconnectMaxDelay:     300 * time.Second,
		},
		Sync: SyncConfig{
			RefreshInterval:    30 * time.Second,
			MinRefreshInterval: 5 * time.Second,
			StaleAfter:         60 * time.Second,
			SnapshotMaxAge:     5 * time.Minute,
			PageLimit:          100,
			CorrectiveRefetch:  true,
			SnapshotStore:      "memory",
			SnapshotStorePath:  "/data/coldwatch/snapshot",
		},
		Authz: AuthzConfig{
			Enabled: true,
		},
		Server: ServerConfig{
			Enabled:         true,
			Host:            "127.0.0.1",
			Port:            8787,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   120,
			RateLimitWindow: time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration from defaults, the optional YAML file and the
// environment, then validates it.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

var sliceConfigPaths = []string{
	"server.cors_origins",
}

// processSliceFields turns comma-separated env values into string slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps environment variable names (lowercased) to koanf paths.
var envMappings = map[string]string{
	"coldwatch_api_url":         "api.base_url",
	"coldwatch_health_url":      "api.health_url",
	"coldwatch_request_timeout": "api.request_timeout",
	"coldwatch_health_timeout":  "api.health_timeout",
	"coldwatch_refresh_timeout": "api.refresh_timeout",
	"coldwatch_user_agent":      "api.user_agent",

	"coldwatch_min_request_interval": "transport.min_request_interval",
	"coldwatch_rate_limit_window":    "transport.rate_limit_window",
	"coldwatch_breaker_enabled":      "transport.breaker_enabled",
	"coldwatch_breaker_max_failures": "transport.breaker_max_failures",
	"coldwatch_breaker_timeout":      "transport.breaker_timeout",

	"coldwatch_cache_ttl": "cache.ttl",

	"coldwatch_username":         "auth.username",
	"coldwatch_password":         "auth.password",
	"coldwatch_token_store":      "auth.token_store",
	"coldwatch_token_store_path": "auth.token_store_path",
	"coldwatch_encryption_key":   "auth.encryption_key",
	"coldwatch_refresh_skew":     "auth.refresh_skew",

	"coldwatch_initial_check_delay":     "connection.initial_check_delay",
	"coldwatch_health_interval":         "connection.health_interval",
	"coldwatch_min_check_interval":      "connection.min_check_interval",
	"coldwatch_reconnect_initial_delay": "connection.reconnect_initial_delay",
	"coldwatch_reconnect_base_delay":    "connection.reconnect_base_delay",
	"coldwatch_reconnect_max_delay":     "connection.reconnect_max_delay",

	"coldwatch_refresh_interval":     "sync.refresh_interval",
	"coldwatch_min_refresh_interval": "sync.min_refresh_interval",
	"coldwatch_stale_after":          "sync.stale_after",
	"coldwatch_snapshot_max_age":     "sync.snapshot_max_age",
	"coldwatch_page_limit":           "sync.page_limit",
	"coldwatch_corrective_refetch":   "sync.corrective_refetch",
	"coldwatch_snapshot_store":       "sync.snapshot_store",
	"coldwatch_snapshot_store_path":  "sync.snapshot_store_path",

	"coldwatch_authz_enabled":     "authz.enabled",
	"coldwatch_authz_model_path":  "authz.model_path",
	"coldwatch_authz_policy_path": "authz.policy_path",

	"coldwatch_http_enabled":     "server.enabled",
	"coldwatch_http_host":        "server.host",
	"coldwatch_http_port":        "server.port",
	"coldwatch_shutdown_timeout": "server.shutdown_timeout",
	"coldwatch_cors_origins":     "server.cors_origins",
	"coldwatch_rate_limit_reqs":  "server.rate_limit_reqs",
	"coldwatch_http_rate_window": "server.rate_limit_window",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps an environment variable to its koanf key. Unknown
// variables return "" and are ignored.
func envTransformFunc(key string) string {
	if path, ok := envMappings[strings.ToLower(key)]; ok {
		return path
	}
	return ""
}
