// ColdWatch - Cold-Room Monitoring Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coldwatch

// Package metrics holds the Prometheus collectors for ColdWatch.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Transport Metrics
	TransportRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coldwatch_transport_requests_total",
			Help: "Total number of outbound API requests by method and status",
		},
		[]string{"method", "status"}, // status: HTTP code, "timeout", "network", "rate_limited"
	)

	TransportDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "coldwatch_transport_request_duration_seconds",
			Help:    "Duration of outbound API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	TransportSpacingWait = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "coldwatch_transport_spacing_wait_seconds",
			Help:    "Time requests spent waiting on minimum spacing or a rate-limit window",
			Buckets: []float64{0, 0.05, 0.1, 0.25, 0.5, 1, 5, 15, 30},
		},
	)

	TransportRateLimitHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "coldwatch_transport_rate_limit_hits_total",
			Help: "Total number of HTTP 429 responses received",
		},
	)

	TransportRateLimited = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "coldwatch_transport_rate_limited",
			Help: "1 while the rate-limit window is active",
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "coldwatch_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coldwatch_circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Auth Metrics
	TokenRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coldwatch_token_refreshes_total",
			Help: "Total number of access token refresh attempts",
		},
		[]string{"result"}, // "success", "rejected", "error", "shared"
	)

	// Response Cache Metrics
	ResponseCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "coldwatch_response_cache_hits_total",
			Help: "Total number of response cache hits",
		},
	)

	ResponseCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "coldwatch_response_cache_misses_total",
			Help: "Total number of response cache misses (absent or expired)",
		},
	)

	ResponseCacheInvalidations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "coldwatch_response_cache_invalidations_total",
			Help: "Total number of entries removed by explicit invalidation",
		},
	)

	// Connection Monitor Metrics
	ConnectionUp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "coldwatch_connection_up",
			Help: "1 when the backend is considered reachable",
		},
	)

	ConnectionRetryCount = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "coldwatch_connection_retry_count",
			Help: "Consecutive failed health checks",
		},
	)

	HealthChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coldwatch_health_checks_total",
			Help: "Total number of health checks by result",
		},
		[]string{"result"}, // "ok", "failed", "skipped"
	)

	// Data Cache Store Metrics
	SnapshotRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coldwatch_snapshot_refreshes_total",
			Help: "Total number of snapshot refreshes by kind and result",
		},
		[]string{"kind", "result"}, // kind: all, alerts, rooms; result: applied, skipped, discarded, failed
	)

	SnapshotSliceFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coldwatch_snapshot_slice_failures_total",
			Help: "Total number of snapshot slices kept stale after a failed fetch",
		},
		[]string{"slice"},
	)

	OptimisticUpdates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coldwatch_optimistic_updates_total",
			Help: "Total number of optimistic local mutations",
		},
		[]string{"kind"},
	)

	SnapshotAge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "coldwatch_snapshot_last_updated_timestamp_seconds",
			Help: "Unix time of the last applied snapshot refresh",
		},
	)

	// WebSocket Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "coldwatch_websocket_connections",
			Help: "Current number of status WebSocket clients",
		},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "coldwatch_websocket_messages_sent_total",
			Help: "Total number of WebSocket messages sent",
		},
	)

	// Status API Metrics
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "coldwatch_status_api_request_duration_seconds",
			Help:    "Duration of local status API requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status_code"},
	)
)

// RecordTransportRequest records one outbound request outcome.
func RecordTransportRequest(method, status string, duration time.Duration) {
	TransportRequests.WithLabelValues(method, status).Inc()
	TransportDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordHTTPStatus records an outbound request that produced an HTTP status.
func RecordHTTPStatus(method string, statusCode int, duration time.Duration) {
	RecordTransportRequest(method, strconv.Itoa(statusCode), duration)
}

// SetConnectionState mirrors the connection monitor state.
func SetConnectionState(connected bool, retryCount int) {
	if connected {
		ConnectionUp.Set(1)
	} else {
		ConnectionUp.Set(0)
	}
	ConnectionRetryCount.Set(float64(retryCount))
}

// SetRateLimited mirrors the transport rate-limit flag.
func SetRateLimited(active bool) {
	if active {
		TransportRateLimited.Set(1)
		return
	}
	TransportRateLimited.Set(0)
}

// RecordAPIRequest records a local status API request.
func RecordAPIRequest(method, route string, statusCode int, duration time.Duration) {
	APIRequestDuration.WithLabelValues(method, route, strconv.Itoa(statusCode)).Observe(duration.Seconds())
}
