// ColdWatch - Cold-Room Monitoring Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coldwatch

package supervisor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"
)

// mockService counts starts and can fail a fixed number of times first.
type mockService struct {
	name     string
	starts   atomic.Int32
	maxFails int32
}

func newMockService(name string, fails int) *mockService {
	return &mockService{name: name, maxFails: int32(fails)}
}

func (m *mockService) Serve(ctx context.Context) error {
	if m.starts.Add(1) <= m.maxFails {
		return errors.New("simulated failure")
	}
	<-ctx.Done()
	return ctx.Err()
}

func (m *mockService) String() string { return m.name }

var _ suture.Service = (*mockService)(nil)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func waitForStarts(t *testing.T, svc *mockService, n int32) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for svc.starts.Load() < n {
		if time.Now().After(deadline) {
			t.Fatalf("%s started %d times, want at least %d", svc.name, svc.starts.Load(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestNewSupervisorTree_Defaults(t *testing.T) {
	t.Parallel()
	tree, err := NewSupervisorTree(testLogger(), TreeConfig{})
	if err != nil {
		t.Fatalf("NewSupervisorTree() error = %v", err)
	}
	if tree.Root() == nil {
		t.Fatal("Root() = nil")
	}
	if tree.config != DefaultTreeConfig() {
		t.Errorf("config = %+v, want %+v", tree.config, DefaultTreeConfig())
	}

	custom, _ := NewSupervisorTree(testLogger(), TreeConfig{FailureThreshold: 2, FailureBackoff: time.Second})
	if custom.config.FailureThreshold != 2 || custom.config.FailureBackoff != time.Second {
		t.Errorf("custom config overwritten: %+v", custom.config)
	}
	if custom.config.FailureDecay != 30 || custom.config.ShutdownTimeout != 10*time.Second {
		t.Errorf("zero fields not defaulted: %+v", custom.config)
	}
}

func TestSupervisorTree_StartsBothLayers(t *testing.T) {
	t.Parallel()
	tree, _ := NewSupervisorTree(testLogger(), TreeConfig{ShutdownTimeout: time.Second})

	monitor := newMockService("connection-monitor", 0)
	server := newMockService("http-server", 0)
	tree.AddSyncService(monitor)
	tree.AddAPIService(server)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	waitForStarts(t, monitor, 1)
	waitForStarts(t, server, 1)

	cancel()
	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("tree did not shut down")
	}

	report, err := tree.UnstoppedServiceReport()
	if err != nil || len(report) != 0 {
		t.Errorf("UnstoppedServiceReport() = %v, %v, want empty", report, err)
	}
}

func TestSupervisorTree_FailureIsolation(t *testing.T) {
	t.Parallel()
	tree, _ := NewSupervisorTree(testLogger(), TreeConfig{
		FailureThreshold: 10,
		FailureBackoff:   10 * time.Millisecond,
		ShutdownTimeout:  time.Second,
	})

	poller := newMockService("snapshot-poller", 2)
	hub := newMockService("websocket-hub", 0)
	tree.AddSyncService(poller)
	tree.AddAPIService(hub)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = tree.Serve(ctx) }()

	waitForStarts(t, poller, 3)
	waitForStarts(t, hub, 1)
	if got := hub.starts.Load(); got != 1 {
		t.Errorf("hub starts = %d, want 1 (sync failures must not restart the api layer)", got)
	}
}

func TestSupervisorTree_RemoveAPIService(t *testing.T) {
	t.Parallel()
	tree, _ := NewSupervisorTree(testLogger(), TreeConfig{ShutdownTimeout: time.Second})
	svc := newMockService("websocket-relay", 0)
	token := tree.AddAPIService(svc)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = tree.Serve(ctx) }()
	waitForStarts(t, svc, 1)

	if err := tree.RemoveAPIService(token); err != nil {
		t.Errorf("RemoveAPIService() error = %v", err)
	}
}
