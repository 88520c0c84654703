// ColdWatch - Cold-Room Monitoring Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coldwatch

package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/coldwatch/internal/clock"
	"github.com/tomtom215/coldwatch/internal/connection"
	"github.com/tomtom215/coldwatch/internal/datacache"
	"github.com/tomtom215/coldwatch/internal/models"
	"github.com/tomtom215/coldwatch/internal/websocket"
)

// SnapshotStore is the part of *datacache.Store the API uses.
type SnapshotStore interface {
	Snapshot() datacache.Snapshot
	IsRefreshing() bool
	RefreshAll(ctx context.Context) error
	AcknowledgeAlert(ctx context.Context, id int) (*models.Alert, error)
	ResolveAlert(ctx context.Context, id int) (*models.Alert, error)
}

// ConnectionMonitor is the part of *connection.Monitor the API uses.
type ConnectionMonitor interface {
	State() connection.State
	Check(ctx context.Context) bool
}

// RateLimitState reports the backend rate-limit window. *transport.State satisfies it.
type RateLimitState interface {
	IsRateLimited() bool
}

// Deps are the components served by the API. Limiter, Hub and Clock may be nil.
type Deps struct {
	Store      SnapshotStore
	Connection ConnectionMonitor
	Limiter    RateLimitState
	Hub        *websocket.Hub
	Clock      clock.Clock
}

// Router builds the chi router for the local status API.
type Router struct {
	handler    *Handler
	middleware *ChiMiddleware
}

// NewRouter creates a router. A nil middleware uses the defaults.
func NewRouter(deps Deps, mw *ChiMiddleware) *Router {
	if mw == nil {
		mw = NewChiMiddleware(nil)
	}
	return &Router{
		handler:    NewHandler(deps, mw),
		middleware: mw,
	}
}

// SetupChi returns the complete handler tree.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(RequestMetrics())
	r.Use(router.middleware.CORS())

	h := router.handler

	r.Get("/healthz", h.Healthz)
	r.Handle("/metrics", promhttp.Handler())

	r.With(router.middleware.RateLimitCustom(RateLimitWebSocket)).Get("/ws", h.WebSocket)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(APISecurityHeaders())
		r.Use(router.middleware.RateLimit())

		r.With(chimiddleware.Compress(5, "application/json")).Get("/snapshot", h.Snapshot)
		r.Get("/connection", h.Connection)

		r.Group(func(r chi.Router) {
			r.Use(router.middleware.RateLimitCustom(RateLimitRefresh))
			r.Post("/refresh", h.Refresh)
			r.Post("/connection/check", h.CheckConnection)
		})

		r.Group(func(r chi.Router) {
			r.Use(router.middleware.RateLimitCustom(RateLimitWrite))
			r.Post("/alerts/{id}/acknowledge", h.AcknowledgeAlert)
			r.Post("/alerts/{id}/resolve", h.ResolveAlert)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
	})

	return r
}
