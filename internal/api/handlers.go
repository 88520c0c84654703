// ColdWatch - Cold-Room Monitoring Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coldwatch

package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	gorilla "github.com/gorilla/websocket"

	"github.com/tomtom215/coldwatch/internal/clock"
	"github.com/tomtom215/coldwatch/internal/logging"
	"github.com/tomtom215/coldwatch/internal/models"
	"github.com/tomtom215/coldwatch/internal/validation"
	ws "github.com/tomtom215/coldwatch/internal/websocket"
)

// Handler serves the status API routes.
type Handler struct {
	store   SnapshotStore
	conn    ConnectionMonitor
	limiter RateLimitState
	wsHub   *ws.Hub
	clk     clock.Clock
	mw      *ChiMiddleware
}

// NewHandler creates a Handler.
func NewHandler(deps Deps, mw *ChiMiddleware) *Handler {
	clk := deps.Clock
	if clk == nil {
		clk = clock.Real()
	}
	if mw == nil {
		mw = NewChiMiddleware(nil)
	}
	return &Handler{
		store:   deps.Store,
		conn:    deps.Connection,
		limiter: deps.Limiter,
		wsHub:   deps.Hub,
		clk:     clk,
		mw:      mw,
	}
}

func (h *Handler) metadata() models.Metadata {
	meta := models.Metadata{Timestamp: h.clk.Now().UTC()}
	if h.limiter != nil {
		meta.RateLimited = h.limiter.IsRateLimited()
	}
	return meta
}

// SnapshotView is the snapshot as served by the API.
type SnapshotView struct {
	OwnerUserID   int                    `json:"ownerUserId"`
	Stats         *models.DashboardStats `json:"stats"`
	RoomsOverview []models.RoomOverview  `json:"roomsOverview"`
	Rooms         []models.Room          `json:"rooms"`
	Alerts        []models.Alert         `json:"alerts"`
	LastUpdated   *time.Time             `json:"lastUpdated"`
	IsRefreshing  bool                   `json:"isRefreshing"`
}

// Healthz reports that the process is serving.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, success(map[string]string{"status": "ok"}, h.metadata()))
}

// Snapshot returns the current snapshot with its age.
func (h *Handler) Snapshot(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.snapshotResponse())
}

func (h *Handler) snapshotResponse() *models.APIResponse {
	snap := h.store.Snapshot()
	meta := h.metadata()
	view := SnapshotView{
		OwnerUserID:   snap.OwnerUserID,
		Stats:         snap.Stats,
		RoomsOverview: snap.RoomsOverview,
		Rooms:         snap.Rooms,
		Alerts:        snap.Alerts,
		IsRefreshing:  h.store.IsRefreshing(),
	}
	if !snap.IsEmpty() {
		lastUpdated := snap.LastUpdated
		view.LastUpdated = &lastUpdated
		age := snap.Age(h.clk.Now()).Milliseconds()
		meta.SnapshotAgeMS = &age
	}
	return success(view, meta)
}

// Connection returns the backend connection state.
func (h *Handler) Connection(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, success(h.conn.State(), h.metadata()))
}

// CheckConnection runs a health check and returns the resulting state.
// A skipped check returns the unchanged state.
func (h *Handler) CheckConnection(w http.ResponseWriter, r *http.Request) {
	h.conn.Check(r.Context())
	respondJSON(w, http.StatusOK, success(h.conn.State(), h.metadata()))
}

// Refresh refreshes every slice and returns the resulting snapshot. Failed
// slices keep their previous data; check metadata.snapshot_age_ms to see
// whether anything changed.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.store.RefreshAll(r.Context()); err != nil {
		respondUpstreamError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.snapshotResponse())
}

// AcknowledgeAlert acknowledges an alert on the backend.
func (h *Handler) AcknowledgeAlert(w http.ResponseWriter, r *http.Request) {
	h.alertAction(w, r, "acknowledge", h.store.AcknowledgeAlert)
}

// ResolveAlert resolves an alert on the backend.
func (h *Handler) ResolveAlert(w http.ResponseWriter, r *http.Request) {
	h.alertAction(w, r, "resolve", h.store.ResolveAlert)
}

func (h *Handler) alertAction(
	w http.ResponseWriter,
	r *http.Request,
	action string,
	send func(ctx context.Context, id int) (*models.Alert, error),
) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	alert, err := send(r.Context(), id)
	if err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).
			Int("alert_id", id).
			Str("action", action).
			Msg("Alert action rejected")
		respondUpstreamError(w, err)
		return
	}
	if alert == nil {
		snap := h.store.Snapshot()
		if cached, found := snap.FindAlert(id); found {
			alert = &cached
		}
	}
	respondJSON(w, http.StatusOK, success(alert, h.metadata()))
}

// pathID parses the {id} URL parameter. On failure it writes the 400.
func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.Atoi(raw)
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "id must be an integer", nil)
		return 0, false
	}
	if err := validation.ValidateVar("id", id, "gt=0"); err != nil {
		respondUpstreamError(w, err)
		return 0, false
	}
	return id, true
}

func (h *Handler) getUpgrader() gorilla.Upgrader {
	return gorilla.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin accepts only origins from the CORS list. Browsers
// always send Origin, so a missing header is rejected.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		logging.Warn().Msg("WebSocket connection rejected: missing Origin header")
		return false
	}
	if h.mw.AllowsOrigin(origin) {
		return true
	}
	logging.Warn().Str("origin", sanitizeLogValue(origin)).Msg("WebSocket connection rejected from unauthorized origin")
	return false
}

// WebSocket upgrades the connection and registers the client with the hub.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.wsHub == nil {
		logging.Warn().Msg("WebSocket connection rejected: hub not initialized")
		respondError(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "WebSocket service unavailable", nil)
		return
	}

	upgrader := h.getUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Error().Err(err).Msg("WebSocket upgrade error")
		return
	}

	client := ws.NewClient(h.wsHub, conn)
	h.wsHub.Register <- client
	client.Start()
}
