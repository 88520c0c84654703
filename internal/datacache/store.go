// ColdWatch - Cold-Room Monitoring Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coldwatch

package datacache

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/coldwatch/internal/client"
	"github.com/tomtom215/coldwatch/internal/clock"
	"github.com/tomtom215/coldwatch/internal/logging"
	"github.com/tomtom215/coldwatch/internal/metrics"
	"github.com/tomtom215/coldwatch/internal/models"
)

// Default store timings.
const (
	DefaultRefreshInterval    = 30 * time.Second
	DefaultMinRefreshInterval = 5 * time.Second
	DefaultStaleAfter         = 60 * time.Second
	DefaultSnapshotMaxAge     = 5 * time.Minute
	DefaultPageLimit          = 100
)

// API is the subset of the domain client the store reads and writes through.
// *client.Client satisfies it.
type API interface {
	GetDashboardStats(ctx context.Context) (*models.DashboardStats, error)
	GetRoomsOverview(ctx context.Context) (*models.RoomsOverview, error)
	ListRooms(ctx context.Context, page, limit int) (*models.Page[models.Room], error)
	ListAlerts(ctx context.Context, f client.AlertFilter) (*models.Page[models.Alert], error)

	AcknowledgeAlert(ctx context.Context, id int) (*models.Alert, error)
	ResolveAlert(ctx context.Context, id int) (*models.Alert, error)
	CreateRoom(ctx context.Context, in models.RoomUpdate) (*models.Room, error)
	UpdateRoom(ctx context.Context, id int, in models.RoomUpdate) (*models.Room, error)
	DeleteRoom(ctx context.Context, id int) error

	CurrentUser() *models.User
}

// RateLimitState reports the shared rate-limit window. *transport.State satisfies it.
type RateLimitState interface {
	IsRateLimited() bool
}

// Config configures a Store.
type Config struct {
	RefreshInterval    time.Duration
	MinRefreshInterval time.Duration
	// StaleAfter triggers a refresh when the poller starts with an older snapshot.
	StaleAfter time.Duration
	// SnapshotMaxAge bounds how old a persisted snapshot may be to be rehydrated.
	SnapshotMaxAge time.Duration
	PageLimit      int
	// CorrectiveRefetch refetches the affected slice right after a failed write.
	CorrectiveRefetch bool
}

// DefaultConfig returns the standard store settings.
func DefaultConfig() Config {
	return Config{
		RefreshInterval:    DefaultRefreshInterval,
		MinRefreshInterval: DefaultMinRefreshInterval,
		StaleAfter:         DefaultStaleAfter,
		SnapshotMaxAge:     DefaultSnapshotMaxAge,
		PageLimit:          DefaultPageLimit,
		CorrectiveRefetch:  true,
	}
}

func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.RefreshInterval <= 0 {
		c.RefreshInterval = d.RefreshInterval
	}
	if c.MinRefreshInterval <= 0 {
		c.MinRefreshInterval = d.MinRefreshInterval
	}
	if c.StaleAfter <= 0 {
		c.StaleAfter = d.StaleAfter
	}
	if c.SnapshotMaxAge <= 0 {
		c.SnapshotMaxAge = d.SnapshotMaxAge
	}
	if c.PageLimit <= 0 {
		c.PageLimit = d.PageLimit
	}
}

// Store owns the snapshot of server state for the signed-in user and keeps
// it fresh.
type Store struct {
	api       API
	limiter   RateLimitState
	snapshots SnapshotStore
	conn      ConnectionSource
	cfg       Config
	clk       clock.Clock

	mu   sync.RWMutex
	snap Snapshot
	// gen changes on every identity switch; results fetched under an older
	// generation are discarded.
	gen         uint64
	refreshing  bool
	refreshGen  uint64
	lastRefresh time.Time

	// seq orders snapshot copies taken under mu. Publications run under
	// pubMu and skip any copy older than the last one published, so the
	// persisted snapshot and subscribers never go back in time.
	seq       uint64
	pubMu     sync.Mutex
	published uint64

	subMu   sync.Mutex
	subs    map[int]chan Snapshot
	nextSub int
}

// NewStore creates a Store with an empty snapshot and no identity.
// limiter and snapshots may be nil.
func NewStore(api API, limiter RateLimitState, snapshots SnapshotStore, cfg Config, clk clock.Clock, opts ...Option) *Store {
	cfg.applyDefaults()
	if clk == nil {
		clk = clock.Real()
	}
	if snapshots == nil {
		snapshots = NewMemorySnapshotStore()
	}
	s := &Store{
		api:       api,
		limiter:   limiter,
		snapshots: snapshots,
		cfg:       cfg,
		clk:       clk,
		snap:      emptySnapshot(0),
		subs:      make(map[int]chan Snapshot),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Clone()
}

// IsRefreshing reports whether a full refresh is in flight.
func (s *Store) IsRefreshing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshing && s.refreshGen == s.gen
}

// OwnerUserID returns the identity the snapshot belongs to.
func (s *Store) OwnerUserID() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.OwnerUserID
}

// Subscribe returns a channel that receives the latest snapshot after every
// change, and a function that cancels the subscription.
func (s *Store) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
		})
	}
}

func (s *Store) broadcast(snap Snapshot) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap.Clone():
		default:
		}
	}
}

// persistMode says what a publication does to the persisted snapshot.
type persistMode int

const (
	persistNone persistMode = iota
	persistSave
	persistClear
)

// publication is a snapshot copy taken under mu, waiting to be persisted and
// broadcast.
type publication struct {
	seq     uint64
	snap    Snapshot
	persist persistMode
}

// stageLocked copies the current snapshot for publishing. s.mu must be held.
func (s *Store) stageLocked(persist persistMode) publication {
	s.seq++
	return publication{seq: s.seq, snap: s.snap.Clone(), persist: persist}
}

// publish persists and broadcasts pub unless a later copy went out first.
func (s *Store) publish(ctx context.Context, pub publication) {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()
	if pub.seq <= s.published {
		logging.Ctx(ctx).Debug().Uint64("seq", pub.seq).Msg("Skipping superseded snapshot")
		return
	}
	s.published = pub.seq

	switch pub.persist {
	case persistSave:
		if err := s.snapshots.Save(ctx, &pub.snap); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("Failed to persist snapshot")
		}
	case persistClear:
		if err := s.snapshots.Clear(ctx); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("Failed to clear persisted snapshot")
		}
	}
	if !pub.snap.LastUpdated.IsZero() {
		metrics.SnapshotAge.Set(float64(pub.snap.LastUpdated.Unix()))
	}
	s.broadcast(pub.snap)
}

// Rehydrate restores the persisted snapshot for userID if it exists and is
// younger than the configured maximum age. Anything else is cleared and the
// store starts empty for userID.
func (s *Store) Rehydrate(ctx context.Context, userID int) error {
	loaded, err := s.snapshots.Load(ctx, userID)
	if err != nil {
		return err
	}
	now := s.clk.Now()

	s.mu.Lock()
	s.gen++
	if loaded != nil && userID != 0 && !loaded.IsEmpty() && loaded.Age(now) < s.cfg.SnapshotMaxAge {
		s.snap = loaded.Clone()
		s.lastRefresh = time.Time{}
		pub := s.stageLocked(persistNone)
		s.mu.Unlock()
		logging.Info().
			Int("user_id", userID).
			Dur("age", loaded.Age(now)).
			Msg("Restored persisted snapshot")
		s.publish(ctx, pub)
		return nil
	}
	s.snap = emptySnapshot(userID)
	s.lastRefresh = time.Time{}
	pub := s.stageLocked(persistClear)
	s.mu.Unlock()

	s.publish(ctx, pub)
	return nil
}

// SetUser switches the store to userID. A different identity discards the
// snapshot and the persisted copy, then refreshes immediately. userID 0
// signs the store out.
func (s *Store) SetUser(ctx context.Context, userID int) error {
	s.mu.Lock()
	if userID == s.snap.OwnerUserID {
		s.mu.Unlock()
		return nil
	}
	prev := s.snap.OwnerUserID
	s.gen++
	s.snap = emptySnapshot(userID)
	s.lastRefresh = time.Time{}
	pub := s.stageLocked(persistClear)
	s.mu.Unlock()

	logging.Ctx(ctx).Info().Int("previous_user_id", prev).Int("user_id", userID).Msg("Snapshot identity switched")
	s.publish(ctx, pub)

	if userID == 0 {
		return nil
	}
	return s.RefreshAll(ctx)
}

// begin applies the refresh guards and marks a full refresh in flight.
func (s *Store) begin(kind string) (gen uint64, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.snap.OwnerUserID == 0:
	case s.limiter != nil && s.limiter.IsRateLimited():
	case kind == "all" && s.refreshing && s.refreshGen == s.gen:
	case kind == "all" && !s.lastRefresh.IsZero() && s.clk.Now().Sub(s.lastRefresh) < s.cfg.MinRefreshInterval:
	default:
		if kind == "all" {
			s.refreshing = true
			s.refreshGen = s.gen
			s.lastRefresh = s.clk.Now()
		}
		return s.gen, true
	}
	metrics.SnapshotRefreshes.WithLabelValues(kind, "skipped").Inc()
	return 0, false
}

func (s *Store) end(gen uint64) {
	s.mu.Lock()
	if s.refreshGen == gen {
		s.refreshing = false
	}
	s.mu.Unlock()
}

// slices holds one refresh's fetch results. A nil field was not fetched or failed.
type slices struct {
	stats    *models.DashboardStats
	overview []models.RoomOverview
	rooms    []models.Room
	alerts   []models.Alert
}

func (s *Store) fetchStats(ctx context.Context, out *slices) {
	stats, err := s.api.GetDashboardStats(ctx)
	if err != nil {
		s.sliceFailed(ctx, "stats", err)
		return
	}
	out.stats = stats
}

func (s *Store) fetchOverview(ctx context.Context, out *slices) {
	ov, err := s.api.GetRoomsOverview(ctx)
	if err != nil {
		s.sliceFailed(ctx, "rooms_overview", err)
		return
	}
	out.overview = nonNil(ov.Rooms)
}

func (s *Store) fetchRooms(ctx context.Context, out *slices) {
	page, err := s.api.ListRooms(ctx, 1, s.cfg.PageLimit)
	if err != nil {
		s.sliceFailed(ctx, "rooms", err)
		return
	}
	out.rooms = nonNil(page.Data)
}

func (s *Store) fetchAlerts(ctx context.Context, out *slices) {
	page, err := s.api.ListAlerts(ctx, client.AlertFilter{Limit: s.cfg.PageLimit})
	if err != nil {
		s.sliceFailed(ctx, "alerts", err)
		return
	}
	out.alerts = nonNil(page.Data)
}

func (s *Store) sliceFailed(ctx context.Context, slice string, err error) {
	metrics.SnapshotSliceFailures.WithLabelValues(slice).Inc()
	logging.Ctx(ctx).Debug().Err(err).Str("slice", slice).Msg("Snapshot slice fetch failed, keeping previous value")
}

// fanOut runs each fetch in its own goroutine and waits for all of them.
func fanOut(ctx context.Context, out *slices, fetches ...func(context.Context, *slices)) {
	var wg sync.WaitGroup
	partial := make([]slices, len(fetches))
	for i, fetch := range fetches {
		wg.Add(1)
		go func(i int, fetch func(context.Context, *slices)) {
			defer wg.Done()
			fetch(ctx, &partial[i])
		}(i, fetch)
	}
	wg.Wait()

	for _, p := range partial {
		if p.stats != nil {
			out.stats = p.stats
		}
		if p.overview != nil {
			out.overview = p.overview
		}
		if p.rooms != nil {
			out.rooms = p.rooms
		}
		if p.alerts != nil {
			out.alerts = p.alerts
		}
	}
}

// apply merges fetched slices into the snapshot if gen is still current and
// at least one slice arrived. It reports whether anything was applied.
func (s *Store) apply(ctx context.Context, kind string, gen uint64, got slices) bool {
	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		metrics.SnapshotRefreshes.WithLabelValues(kind, "discarded").Inc()
		logging.Ctx(ctx).Debug().Str("kind", kind).Msg("Refresh result discarded after identity switch")
		return false
	}
	if got.stats == nil && got.overview == nil && got.rooms == nil && got.alerts == nil {
		s.mu.Unlock()
		metrics.SnapshotRefreshes.WithLabelValues(kind, "failed").Inc()
		return false
	}
	if got.stats != nil {
		st := *got.stats
		s.snap.Stats = &st
	}
	if got.overview != nil {
		s.snap.RoomsOverview = got.overview
	}
	if got.rooms != nil {
		s.snap.Rooms = got.rooms
	}
	if got.alerts != nil {
		s.snap.Alerts = got.alerts
	}
	s.snap.LastUpdated = s.clk.Now()
	pub := s.stageLocked(persistSave)
	s.mu.Unlock()

	metrics.SnapshotRefreshes.WithLabelValues(kind, "applied").Inc()
	s.publish(ctx, pub)
	return true
}

// RefreshAll fetches stats, rooms overview, rooms and alerts concurrently and
// applies them as one update. A failed slice keeps its previous value. The
// call is skipped when rate limited, already refreshing, or refreshed less
// than the minimum interval ago. Read failures are never returned.
func (s *Store) RefreshAll(ctx context.Context) error {
	gen, ok := s.begin("all")
	if !ok {
		return nil
	}
	defer s.end(gen)

	if logging.CorrelationIDFromContext(ctx) == "" {
		ctx = logging.ContextWithNewCorrelationID(ctx)
	}
	var got slices
	fanOut(ctx, &got, s.fetchStats, s.fetchOverview, s.fetchRooms, s.fetchAlerts)
	if s.apply(ctx, "all", gen, got) {
		logging.Ctx(ctx).Debug().
			Int("rooms", len(got.rooms)).
			Int("alerts", len(got.alerts)).
			Msg("Snapshot refreshed")
	}
	return nil
}

// RefreshAlerts refetches only the alerts slice.
func (s *Store) RefreshAlerts(ctx context.Context) error {
	gen, ok := s.begin("alerts")
	if !ok {
		return nil
	}
	var got slices
	s.fetchAlerts(ctx, &got)
	s.apply(ctx, "alerts", gen, got)
	return nil
}

// RefreshRooms refetches the rooms and rooms overview slices.
func (s *Store) RefreshRooms(ctx context.Context) error {
	gen, ok := s.begin("rooms")
	if !ok {
		return nil
	}
	var got slices
	fanOut(ctx, &got, s.fetchOverview, s.fetchRooms)
	s.apply(ctx, "rooms", gen, got)
	return nil
}

func nonNil[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}
