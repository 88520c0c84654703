// ColdWatch - Cold-Room Monitoring Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coldwatch

package transport

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/coldwatch/internal/clock"
)

var epoch = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

// drive advances fk in small steps whenever something is waiting on it,
// until done is closed.
func drive(fk *clock.Fake, step time.Duration, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		default:
		}
		if fk.Pending() > 0 {
			fk.Advance(step)
			continue
		}
		time.Sleep(200 * time.Microsecond)
	}
}

func TestStateMinimumSpacing(t *testing.T) {
	t.Parallel()
	fk := clock.NewFake(epoch)
	st := NewState(StateConfig{MinInterval: 500 * time.Millisecond, RateLimitWindow: 30 * time.Second}, fk)

	const n = 5
	sends := make([]time.Time, 0, n)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < n; i++ {
			if err := st.Wait(context.Background()); err != nil {
				t.Errorf("Wait() error = %v", err)
				return
			}
			sends = append(sends, fk.Now())
		}
	}()
	drive(fk, 100*time.Millisecond, done)

	if len(sends) != n {
		t.Fatalf("got %d sends, want %d", len(sends), n)
	}
	for i := 1; i < n; i++ {
		if gap := sends[i].Sub(sends[i-1]); gap < 500*time.Millisecond {
			t.Errorf("gap between send %d and %d = %v, want >= 500ms", i-1, i, gap)
		}
	}
	if !sends[0].Equal(epoch) {
		t.Errorf("first send at %v, want immediate", sends[0])
	}
}

func TestStateRateLimitWindowBlocks(t *testing.T) {
	t.Parallel()
	fk := clock.NewFake(epoch)
	st := NewState(StateConfig{MinInterval: 500 * time.Millisecond, RateLimitWindow: 30 * time.Second}, fk)

	resetAt := st.MarkRateLimited()
	if want := epoch.Add(30 * time.Second); !resetAt.Equal(want) {
		t.Fatalf("resetAt = %v, want %v", resetAt, want)
	}
	if !st.IsRateLimited() {
		t.Fatal("IsRateLimited() = false right after a 429")
	}

	released := make(chan time.Time, 1)
	go func() {
		if err := st.Wait(context.Background()); err != nil {
			t.Errorf("Wait() error = %v", err)
		}
		released <- fk.Now()
	}()

	if !fk.BlockUntil(1, time.Second) {
		t.Fatal("Wait did not block on the rate-limit window")
	}
	fk.Advance(29 * time.Second)
	select {
	case <-released:
		t.Fatal("Wait returned before the window elapsed")
	case <-time.After(20 * time.Millisecond):
	}

	fk.Advance(time.Second)
	select {
	case at := <-released:
		if at.Before(resetAt) {
			t.Errorf("released at %v, before reset %v", at, resetAt)
		}
	case <-time.After(time.Second):
		t.Fatal("Wait still blocked after the window elapsed")
	}
	if st.IsRateLimited() {
		t.Error("IsRateLimited() = true after the window elapsed")
	}

	// After the window, a request only waits for spacing from the released send.
	fk.Advance(time.Second)
	if err := st.Wait(context.Background()); err != nil {
		t.Fatalf("Wait() after window error = %v", err)
	}
}

func TestStateWindowOpenedDuringSpacingHoldsSend(t *testing.T) {
	t.Parallel()
	fk := clock.NewFake(epoch)
	st := NewState(StateConfig{MinInterval: 500 * time.Millisecond, RateLimitWindow: 30 * time.Second}, fk)

	if err := st.Wait(context.Background()); err != nil {
		t.Fatalf("first Wait() error = %v", err)
	}
	released := make(chan time.Time, 1)
	go func() {
		if err := st.Wait(context.Background()); err != nil {
			t.Errorf("Wait() error = %v", err)
		}
		released <- fk.Now()
	}()
	if !fk.BlockUntil(1, time.Second) {
		t.Fatal("second Wait did not wait for spacing")
	}

	fk.Advance(100 * time.Millisecond)
	resetAt := st.MarkRateLimited()
	fk.Advance(400 * time.Millisecond)

	select {
	case at := <-released:
		t.Fatalf("send released at %v inside the window ending %v", at, resetAt)
	case <-time.After(20 * time.Millisecond):
	}
	if !fk.BlockUntil(1, time.Second) {
		t.Fatal("Wait did not go back to waiting on the window")
	}
	fk.Advance(resetAt.Sub(fk.Now()))

	select {
	case at := <-released:
		if at.Before(resetAt) {
			t.Errorf("released at %v, before reset %v", at, resetAt)
		}
	case <-time.After(time.Second):
		t.Fatal("Wait still blocked after the window elapsed")
	}
}

func TestStateWaitCancelled(t *testing.T) {
	t.Parallel()
	fk := clock.NewFake(epoch)
	st := NewState(StateConfig{RateLimitWindow: time.Minute}, fk)
	st.MarkRateLimited()

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- st.Wait(ctx) }()
	fk.BlockUntil(1, time.Second)
	cancel()
	if err := <-errc; !errors.Is(err, context.Canceled) {
		t.Errorf("Wait() = %v, want context.Canceled", err)
	}
}

func TestFailIfRateLimited(t *testing.T) {
	t.Parallel()
	fk := clock.NewFake(epoch)
	st := NewState(StateConfig{RateLimitWindow: 30 * time.Second}, fk)
	if err := st.FailIfRateLimited(); err != nil {
		t.Fatalf("FailIfRateLimited() = %v before any 429", err)
	}
	st.MarkRateLimited()
	err := st.FailIfRateLimited()
	var rl *RateLimitedError
	if !errors.As(err, &rl) {
		t.Fatalf("FailIfRateLimited() = %v, want *RateLimitedError", err)
	}
	fk.Advance(31 * time.Second)
	if err := st.FailIfRateLimited(); err != nil {
		t.Errorf("FailIfRateLimited() after window = %v", err)
	}
}
