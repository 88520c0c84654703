// ColdWatch - Cold-Room Monitoring Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coldwatch

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/coldwatch/internal/api"
	"github.com/tomtom215/coldwatch/internal/clock"
	"github.com/tomtom215/coldwatch/internal/config"
	"github.com/tomtom215/coldwatch/internal/logging"
	"github.com/tomtom215/coldwatch/internal/supervisor"
	"github.com/tomtom215/coldwatch/internal/supervisor/services"
	"github.com/tomtom215/coldwatch/internal/websocket"
)

const usage = `usage: coldwatch [command]

commands:
  run       keep the cold-room snapshot fresh and serve it locally (default)
  check     probe the backend health endpoint once
  export    download a CSV export: coldwatch export readings|alerts|alerts-history [flags]
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run dispatches the command line and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	cmd := "run"
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}

	switch cmd {
	case "run", "check", "export":
	case "help", "-h", "-help", "--help":
		fmt.Fprint(stdout, usage)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", cmd, usage)
		return 2
	}

	var exportOpts *exportOptions
	if cmd == "export" {
		var err error
		if exportOpts, err = parseExportArgs(args, stderr); err != nil {
			fmt.Fprintln(stderr, err)
			return 2
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "failed to load configuration: %v\n", err)
		return 1
	}
	logging.Init(loggingConfig(cfg.Logging))

	ctx, cancel := context.WithCancel(logging.ContextWithNewCorrelationID(context.Background()))
	defer cancel()

	a, err := newApp(ctx, cfg, clock.Real(), nil)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to initialize")
		return 1
	}
	defer a.Close()

	switch cmd {
	case "check":
		err = runCheck(ctx, a, stdout)
	case "export":
		err = runExport(ctx, a, exportOpts, stdout)
	default:
		err = runDaemon(ctx, cancel, a)
	}
	if err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintln(stderr, err)
			return 2
		}
		logging.Error().Err(err).Str("command", cmd).Msg("Command failed")
		return 1
	}
	return 0
}

// runDaemon keeps the snapshot fresh under supervision until SIGINT or SIGTERM.
func runDaemon(ctx context.Context, cancel context.CancelFunc, a *app) error {
	cfg := a.cfg
	logging.Info().
		Str("api", cfg.API.BaseURL).
		Str("token_store", cfg.Auth.TokenStore).
		Str("snapshot_store", cfg.Sync.SnapshotStore).
		Bool("authz", cfg.Authz.Enabled).
		Bool("status_server", cfg.Server.Enabled).
		Msg("Starting ColdWatch")

	if err := a.auth.Load(ctx); err != nil {
		logging.Warn().Err(err).Msg("Failed to load persisted session")
	}
	if err := a.store.Rehydrate(ctx, a.auth.Session().UserID()); err != nil {
		logging.Warn().Err(err).Msg("Failed to rehydrate snapshot")
	}

	// Owner switches are applied in order on one goroutine.
	userCh := make(chan int, 8)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case userID := <-userCh:
				if err := a.store.SetUser(ctx, userID); err != nil && ctx.Err() == nil {
					logging.Warn().Err(err).Int("user_id", userID).Msg("Failed to switch snapshot owner")
				}
			}
		}
	}()
	a.auth.OnUserChange(func(userID int) {
		select {
		case userCh <- userID:
		case <-ctx.Done():
		}
	})
	a.auth.OnSessionExpired(func() {
		if cfg.Auth.Username == "" {
			logging.Warn().Msg("Session expired and no credentials are configured; serving without a user")
			return
		}
		logging.Info().Str("username", cfg.Auth.Username).Msg("Signing in again after session expiry")
		go func() {
			if _, err := a.client.Login(ctx, cfg.Auth.Username, cfg.Auth.Password); err != nil && ctx.Err() == nil {
				logging.Error().Err(err).Msg("Re-login after session expiry failed")
			}
		}()
	})

	if err := a.signIn(ctx); err != nil {
		// The poller keeps running; an operator can fix credentials and restart.
		logging.Error().Err(err).Msg("Sign-in failed")
	}

	hub := websocket.NewHub()
	hub.OnRefresh(func() {
		go func() {
			if err := a.store.RefreshAll(ctx); err != nil && ctx.Err() == nil {
				logging.Debug().Err(err).Msg("Client-requested refresh failed")
			}
		}()
	})
	relay := websocket.NewRelay(hub, a.store, a.monitor)

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger("supervisor"), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}
	tree.AddSyncService(services.NewConnectionMonitorService(a.monitor))
	tree.AddSyncService(services.NewSnapshotPollerService(a.store))
	tree.AddAPIService(services.NewWebSocketHubService(hub))
	tree.AddAPIService(services.NewRelayService(relay))

	if cfg.Server.Enabled {
		router := api.NewRouter(api.Deps{
			Store:      a.store,
			Connection: a.monitor,
			Limiter:    a.limiter,
			Hub:        hub,
			Clock:      a.clock,
		}, api.NewChiMiddlewareFromConfig(cfg.Server))
		server := &http.Server{
			Addr:              cfg.Server.Addr(),
			Handler:           router.SetupChi(),
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		}
		tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
		logging.Info().Str("addr", server.Addr).Msg("Status server enabled")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	errCh := tree.ServeBackground(ctx)
	logging.Info().Msg("Supervisor tree started")

	select {
	case sig := <-sigChan:
		logging.Info().Str("signal", sig.String()).Msg("Shutting down")
		cancel()
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("supervisor tree stopped: %w", err)
		}
		return nil
	}

	if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
		logging.Warn().Err(err).Msg("Supervisor tree stopped with error")
	}
	if report, err := tree.UnstoppedServiceReport(); err == nil && len(report) > 0 {
		for _, svc := range report {
			logging.Warn().Str("service", svc.Name).Msg("Service did not stop in time")
		}
	}
	logging.Info().Msg("ColdWatch stopped")
	return nil
}
