// ColdWatch - Cold-Room Monitoring Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coldwatch

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordHTTPStatus(t *testing.T) {
	before := testutil.ToFloat64(TransportRequests.WithLabelValues("GET", "200"))
	RecordHTTPStatus("GET", 200, 15*time.Millisecond)
	after := testutil.ToFloat64(TransportRequests.WithLabelValues("GET", "200"))
	if after != before+1 {
		t.Errorf("requests{GET,200} = %v, want %v", after, before+1)
	}
}

func TestSetConnectionState(t *testing.T) {
	SetConnectionState(false, 3)
	if got := testutil.ToFloat64(ConnectionUp); got != 0 {
		t.Errorf("ConnectionUp = %v, want 0", got)
	}
	if got := testutil.ToFloat64(ConnectionRetryCount); got != 3 {
		t.Errorf("ConnectionRetryCount = %v, want 3", got)
	}
	SetConnectionState(true, 0)
	if got := testutil.ToFloat64(ConnectionUp); got != 1 {
		t.Errorf("ConnectionUp = %v, want 1", got)
	}
}

func TestSetRateLimited(t *testing.T) {
	SetRateLimited(true)
	if got := testutil.ToFloat64(TransportRateLimited); got != 1 {
		t.Errorf("TransportRateLimited = %v, want 1", got)
	}
	SetRateLimited(false)
	if got := testutil.ToFloat64(TransportRateLimited); got != 0 {
		t.Errorf("TransportRateLimited = %v, want 0", got)
	}
}
