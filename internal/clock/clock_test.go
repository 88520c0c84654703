// ColdWatch - Cold-Room Monitoring Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coldwatch

package clock

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestFakeAdvanceFiresDueTimers(t *testing.T) {
	t.Parallel()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	f := NewFake(start)
	short := f.NewTimer(time.Second)
	long := f.NewTimer(time.Minute)

	f.Advance(2 * time.Second)
	select {
	case got := <-short.C():
		if !got.Equal(start.Add(2 * time.Second)) {
			t.Errorf("fired at %v", got)
		}
	default:
		t.Fatal("short timer did not fire")
	}
	select {
	case <-long.C():
		t.Fatal("long timer fired early")
	default:
	}
	if f.Pending() != 1 {
		t.Errorf("Pending() = %d, want 1", f.Pending())
	}
	if !long.Stop() {
		t.Error("Stop() on pending timer = false, want true")
	}
	if short.Stop() {
		t.Error("Stop() on fired timer = true, want false")
	}
	if got := f.Durations(); len(got) != 2 || got[0] != time.Second || got[1] != time.Minute {
		t.Errorf("Durations() = %v", got)
	}
}

func TestSleepHonorsContext(t *testing.T) {
	t.Parallel()
	f := NewFake(time.Now())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Sleep(ctx, f, time.Hour) }()

	if !f.BlockUntil(1, time.Second) {
		t.Fatal("sleep never registered a timer")
	}
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Sleep() = %v, want context.Canceled", err)
	}
}

func TestSleepWakesOnAdvance(t *testing.T) {
	t.Parallel()
	f := NewFake(time.Now())
	done := make(chan error, 1)
	go func() { done <- Sleep(context.Background(), f, 30*time.Second) }()

	if !f.BlockUntil(1, time.Second) {
		t.Fatal("sleep never registered a timer")
	}
	f.Advance(30 * time.Second)
	if err := <-done; err != nil {
		t.Errorf("Sleep() = %v, want nil", err)
	}
}
