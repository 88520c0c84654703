// ColdWatch - Cold-Room Monitoring Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coldwatch

package config

import (
	"fmt"
	"strings"
)

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateAPI,
		c.validateTransport,
		c.validateCache,
		c.validateAuth,
		c.validateConnection,
		c.validateSync,
		c.validateServer,
		c.validateLogging,
	}
	for _, validate := range validators {
		if err := validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateAPI() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("COLDWATCH_API_URL is required")
	}
	if err := validateHTTPURL(c.API.BaseURL); err != nil {
		return fmt.Errorf("COLDWATCH_API_URL is invalid: %w", err)
	}
	if c.API.HealthURL != "" {
		if err := validateHTTPURL(c.API.HealthURL); err != nil {
			return fmt.Errorf("COLDWATCH_HEALTH_URL is invalid: %w", err)
		}
	}
	if c.API.RequestTimeout <= 0 {
		return fmt.Errorf("api.request_timeout must be positive, got %v", c.API.RequestTimeout)
	}
	if c.API.HealthTimeout <= 0 || c.API.RefreshTimeout <= 0 {
		return fmt.Errorf("api.health_timeout and api.refresh_timeout must be positive")
	}
	return nil
}

func (c *Config) validateTransport() error {
	if c.Transport.MinRequestInterval < 0 {
		return fmt.Errorf("transport.min_request_interval must not be negative, got %v", c.Transport.MinRequestInterval)
	}
	if c.Transport.RateLimitWindow <= 0 {
		return fmt.Errorf("transport.rate_limit_window must be positive, got %v", c.Transport.RateLimitWindow)
	}
	if c.Transport.BreakerEnabled && c.Transport.BreakerMaxFailures == 0 {
		return fmt.Errorf("transport.breaker_max_failures must be at least 1 when the breaker is enabled")
	}
	return nil
}

func (c *Config) validateCache() error {
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive, got %v", c.Cache.TTL)
	}
	return nil
}

func (c *Config) validateAuth() error {
	switch c.Auth.TokenStore {
	case "memory":
	case "badger":
		if c.Auth.TokenStorePath == "" {
			return fmt.Errorf("COLDWATCH_TOKEN_STORE_PATH is required when COLDWATCH_TOKEN_STORE=badger")
		}
	default:
		return fmt.Errorf("COLDWATCH_TOKEN_STORE must be memory or badger, got: %s", c.Auth.TokenStore)
	}
	if (c.Auth.Username == "") != (c.Auth.Password == "") {
		return fmt.Errorf("COLDWATCH_USERNAME and COLDWATCH_PASSWORD must be set together")
	}
	if c.Auth.RefreshSkew < 0 {
		return fmt.Errorf("auth.refresh_skew must not be negative")
	}
	return nil
}

func (c *Config) validateConnection() error {
	cc := c.Connection
	if cc.HealthInterval <= 0 || cc.MinCheckInterval < 0 || cc.InitialCheckDelay < 0 {
		return fmt.Errorf("connection intervals must be positive")
	}
	if cc.ReconnectBaseDelay <= 0 || cc.ReconnectMaxDelay < cc.ReconnectBaseDelay {
		return fmt.Errorf("connection.reconnect_max_delay (%v) must be >= reconnect_base_delay (%v) > 0",
			cc.ReconnectMaxDelay, cc.ReconnectBaseDelay)
	}
	return nil
}

func (c *Config) validateSync() error {
	if c.Sync.RefreshInterval <= 0 {
		return fmt.Errorf("sync.refresh_interval must be positive, got %v", c.Sync.RefreshInterval)
	}
	if c.Sync.PageLimit < 1 || c.Sync.PageLimit > 1000 {
		return fmt.Errorf("sync.page_limit must be between 1 and 1000, got %d", c.Sync.PageLimit)
	}
	switch c.Sync.SnapshotStore {
	case "memory":
	case "badger":
		if c.Sync.SnapshotStorePath == "" {
			return fmt.Errorf("COLDWATCH_SNAPSHOT_STORE_PATH is required when COLDWATCH_SNAPSHOT_STORE=badger")
		}
	default:
		return fmt.Errorf("COLDWATCH_SNAPSHOT_STORE must be memory or badger, got: %s", c.Sync.SnapshotStore)
	}
	return nil
}

func (c *Config) validateServer() error {
	if !c.Server.Enabled {
		return nil
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("COLDWATCH_HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.RateLimitReqs < 0 {
		return fmt.Errorf("server.rate_limit_reqs must not be negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "disabled":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error, disabled; got: %s", c.Logging.Level)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("LOG_FORMAT must be json or console, got: %s", c.Logging.Format)
	}
	return nil
}
