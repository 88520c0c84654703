// ColdWatch - Cold-Room Monitoring Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coldwatch

package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/coldwatch/internal/auth"
	"github.com/tomtom215/coldwatch/internal/authz"
	"github.com/tomtom215/coldwatch/internal/cache"
	"github.com/tomtom215/coldwatch/internal/client"
	"github.com/tomtom215/coldwatch/internal/clock"
	"github.com/tomtom215/coldwatch/internal/config"
	"github.com/tomtom215/coldwatch/internal/connection"
	"github.com/tomtom215/coldwatch/internal/datacache"
	"github.com/tomtom215/coldwatch/internal/logging"
	"github.com/tomtom215/coldwatch/internal/transport"
)

// badgerPool opens each BadgerDB directory once. The token store and the
// snapshot store may share a path.
type badgerPool struct {
	dbs map[string]*badger.DB
}

func newBadgerPool() *badgerPool {
	return &badgerPool{dbs: make(map[string]*badger.DB)}
}

func (p *badgerPool) open(path string) (*badger.DB, error) {
	if db, ok := p.dbs[path]; ok {
		return db, nil
	}
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // zerolog handles logging
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db %s: %w", path, err)
	}
	p.dbs[path] = db
	return db, nil
}

func (p *badgerPool) Close() {
	for path, db := range p.dbs {
		if err := db.Close(); err != nil {
			logging.Warn().Err(err).Str("path", path).Msg("Failed to close badger db")
		}
	}
	p.dbs = map[string]*badger.DB{}
}

// app holds the wired client components shared by every command.
type app struct {
	cfg       *config.Config
	clock     clock.Clock
	limiter   *transport.State
	transport *transport.Transport
	auth      *auth.Manager
	client    *client.Client
	gate      *authz.Gate
	monitor   *connection.Monitor
	store     *datacache.Store
	pool      *badgerPool
}

// newApp builds the transport, session, client and data cache layers from cfg.
// httpClient may be nil.
func newApp(ctx context.Context, cfg *config.Config, clk clock.Clock, httpClient *http.Client) (*app, error) {
	a := &app{cfg: cfg, clock: clk, pool: newBadgerPool()}

	a.limiter = transport.NewState(transport.StateConfig{
		MinInterval:     cfg.Transport.MinRequestInterval,
		RateLimitWindow: cfg.Transport.RateLimitWindow,
	}, clk)
	a.transport = transport.New(transport.Config{
		BaseURL:            cfg.API.BaseURL,
		Timeout:            cfg.API.RequestTimeout,
		UserAgent:          cfg.API.UserAgent,
		BreakerEnabled:     cfg.Transport.BreakerEnabled,
		BreakerMaxFailures: cfg.Transport.BreakerMaxFailures,
		BreakerTimeout:     cfg.Transport.BreakerTimeout,
	}, a.limiter, httpClient, clk)

	var tokenDB *badger.DB
	if auth.TokenStoreType(cfg.Auth.TokenStore) == auth.TokenStoreBadger {
		db, err := a.pool.open(cfg.Auth.TokenStorePath)
		if err != nil {
			a.Close()
			return nil, err
		}
		tokenDB = db
	}
	tokens, err := auth.NewTokenStore(auth.TokenStoreType(cfg.Auth.TokenStore), tokenDB, cfg.Auth.EncryptionKey)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create token store: %w", err)
	}
	a.auth = auth.NewManager(tokens, a.transport, auth.ManagerConfig{RefreshTimeout: cfg.API.RefreshTimeout}, clk)

	var opts []client.Option
	if cfg.Authz.Enabled {
		ecfg := authz.DefaultEnforcerConfig()
		ecfg.ModelPath = cfg.Authz.ModelPath
		ecfg.PolicyPath = cfg.Authz.PolicyPath
		ecfg.AutoReload = cfg.Authz.PolicyPath != ""
		a.gate, err = authz.NewGate(ctx, ecfg)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("create authorization gate: %w", err)
		}
		opts = append(opts, client.WithAuthorizer(a.gate))
	}
	opts = append(opts, client.WithClock(clk))

	a.client = client.New(a.transport, a.auth, cache.New(cfg.Cache.TTL, clk), client.Config{
		HealthURL:     cfg.API.ResolvedHealthURL(),
		HealthTimeout: cfg.API.HealthTimeout,
		LoginTimeout:  cfg.API.RequestTimeout,
		RefreshSkew:   cfg.Auth.RefreshSkew,
	}, opts...)

	a.monitor = connection.NewMonitor(connection.ProberFunc(func(ctx context.Context) error {
		_, err := a.client.CheckHealth(ctx)
		return err
	}), a.limiter, connection.Config{
		InitialCheckDelay:     cfg.Connection.InitialCheckDelay,
		HealthInterval:        cfg.Connection.HealthInterval,
		MinCheckInterval:      cfg.Connection.MinCheckInterval,
		ReconnectInitialDelay: cfg.Connection.ReconnectInitialDelay,
		ReconnectBaseDelay:    cfg.Connection.ReconnectBaseDelay,
		ReconnectMaxDelay:     cfg.Connection.ReconnectMaxDelay,
	}, clk)

	var snapDB *badger.DB
	if datacache.SnapshotStoreType(cfg.Sync.SnapshotStore) == datacache.SnapshotStoreBadger {
		db, err := a.pool.open(cfg.Sync.SnapshotStorePath)
		if err != nil {
			a.Close()
			return nil, err
		}
		snapDB = db
	}
	snapshots, err := datacache.NewSnapshotStore(datacache.SnapshotStoreType(cfg.Sync.SnapshotStore), snapDB)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create snapshot store: %w", err)
	}
	a.store = datacache.NewStore(a.client, a.limiter, snapshots, datacache.Config{
		RefreshInterval:    cfg.Sync.RefreshInterval,
		MinRefreshInterval: cfg.Sync.MinRefreshInterval,
		StaleAfter:         cfg.Sync.StaleAfter,
		SnapshotMaxAge:     cfg.Sync.SnapshotMaxAge,
		PageLimit:          cfg.Sync.PageLimit,
		CorrectiveRefetch:  cfg.Sync.CorrectiveRefetch,
	}, clk, datacache.WithConnection(a.monitor))

	return a, nil
}

// signIn restores the persisted session, or logs in with the configured
// credentials when there is none.
func (a *app) signIn(ctx context.Context) error {
	if err := a.auth.Load(ctx); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Failed to load persisted session")
	}
	if a.auth.Session().UserID() != 0 || a.cfg.Auth.Username == "" {
		return nil
	}
	if _, err := a.client.Login(ctx, a.cfg.Auth.Username, a.cfg.Auth.Password); err != nil {
		return fmt.Errorf("login as %s: %w", a.cfg.Auth.Username, err)
	}
	return nil
}

func (a *app) Close() {
	if a.gate != nil {
		a.gate.Close()
	}
	a.pool.Close()
}
