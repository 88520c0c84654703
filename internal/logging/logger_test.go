// ColdWatch - Cold-Room Monitoring Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coldwatch

package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"disabled", zerolog.Disabled},
		{"bogus", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestValidLevel(t *testing.T) {
	if !ValidLevel("Warn") {
		t.Error("ValidLevel(Warn) = false, want true")
	}
	if ValidLevel("verbose") {
		t.Error("ValidLevel(verbose) = true, want false")
	}
}

func TestCtxAddsCorrelationID(t *testing.T) {
	var buf bytes.Buffer
	prev := Logger()
	SetLogger(NewTestLogger(&buf))
	defer SetLogger(prev)
	prevLevel := zerolog.GlobalLevel()
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	defer zerolog.SetGlobalLevel(prevLevel)

	ctx := ContextWithCorrelationID(context.Background(), "abc12345")
	Ctx(ctx).Info().Msg("refreshed")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal log line: %v", err)
	}
	if entry["correlation_id"] != "abc12345" {
		t.Errorf("correlation_id = %v, want abc12345", entry["correlation_id"])
	}
	if entry["message"] != "refreshed" {
		t.Errorf("message = %v, want refreshed", entry["message"])
	}
}

func TestGenerateCorrelationID(t *testing.T) {
	a, b := GenerateCorrelationID(), GenerateCorrelationID()
	if len(a) != 8 {
		t.Errorf("len = %d, want 8", len(a))
	}
	if a == b {
		t.Error("expected distinct correlation IDs")
	}
	if CorrelationIDFromContext(context.Background()) != "" {
		t.Error("expected empty correlation ID for bare context")
	}
}

func TestSlogHandlerGroupsAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	prevLevel := zerolog.GlobalLevel()
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	defer zerolog.SetGlobalLevel(prevLevel)

	logger := slog.New(NewSlogHandlerWithLogger(NewTestLogger(&buf)))
	logger.WithGroup("svc").With("name", "monitor").Warn("restarting", "attempt", 3)

	out := buf.String()
	for _, want := range []string{`"svc.name":"monitor"`, `"svc.attempt":3`, `"level":"warn"`, `"message":"restarting"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log output %s missing %s", out, want)
		}
	}
}

func TestSlogHandlerAttrsBeforeGroupStayUngrouped(t *testing.T) {
	var buf bytes.Buffer
	prevLevel := zerolog.GlobalLevel()
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	defer zerolog.SetGlobalLevel(prevLevel)

	logger := slog.New(NewSlogHandlerWithLogger(NewTestLogger(&buf)))
	logger.With("tree", "coldwatch").WithGroup("svc").Info("started",
		slog.Group("backoff", slog.Int("failures", 2)),
		slog.Any("err", errors.New("boom")))

	out := buf.String()
	for _, want := range []string{`"tree":"coldwatch"`, `"svc.backoff.failures":2`, `"svc.err":"boom"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log output %s missing %s", out, want)
		}
	}
	if strings.Contains(out, `"svc.tree"`) {
		t.Errorf("log output %s put a pre-group attribute inside the group", out)
	}
}
