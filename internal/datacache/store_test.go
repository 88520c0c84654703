// ColdWatch - Cold-Room Monitoring Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/coldwatch

package datacache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/coldwatch/internal/client"
	"github.com/tomtom215/coldwatch/internal/clock"
	"github.com/tomtom215/coldwatch/internal/logging"
	"github.com/tomtom215/coldwatch/internal/metrics"
	"github.com/tomtom215/coldwatch/internal/models"
)

var (
	errBackend = errors.New("backend unavailable")
	testStart  = time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
)

// =====================================================
// Test Helpers
// =====================================================

// fakeAPI serves canned slices. A fetch captures its data before blocking on
// hold, so a test can change the data for later fetches while one is parked.
type fakeAPI struct {
	mu       sync.Mutex
	stats    *models.DashboardStats
	overview []models.RoomOverview
	rooms    []models.Room
	alerts   []models.Alert
	fail     map[string]error
	hold     chan struct{}
	entered  chan string
	user     *models.User
	calls    map[string]int
	onAck    func()
	ackReply *models.Alert
	saved    *models.Room
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		stats:    &models.DashboardStats{TotalRooms: 2, ActiveAlerts: 1},
		overview: []models.RoomOverview{{ID: 1, Name: "Vaccines A"}, {ID: 2, Name: "Insulin B"}},
		rooms:    []models.Room{{ID: 1, Name: "Vaccines A", TempMin: 2, TempMax: 8}, {ID: 2, Name: "Insulin B", TempMin: 2, TempMax: 8}},
		alerts:   []models.Alert{{ID: 7, RoomID: 1, Status: models.AlertStatusActive}},
		fail:     make(map[string]error),
		calls:    make(map[string]int),
		user:     &models.User{ID: 1, Name: "Dana"},
	}
}

func (f *fakeAPI) enter(name string) (chan struct{}, error) {
	f.mu.Lock()
	f.calls[name]++
	err := f.fail[name]
	hold := f.hold
	entered := f.entered
	f.mu.Unlock()
	if entered != nil {
		entered <- name
	}
	return hold, err
}

func wait(hold chan struct{}) {
	if hold != nil {
		<-hold
	}
}

func (f *fakeAPI) setFail(name string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[name] = err
}

func (f *fakeAPI) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeAPI) GetDashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	f.mu.Lock()
	st := *f.stats
	f.mu.Unlock()
	hold, err := f.enter("stats")
	wait(hold)
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func (f *fakeAPI) GetRoomsOverview(ctx context.Context) (*models.RoomsOverview, error) {
	f.mu.Lock()
	ov := append([]models.RoomOverview(nil), f.overview...)
	f.mu.Unlock()
	hold, err := f.enter("overview")
	wait(hold)
	if err != nil {
		return nil, err
	}
	return &models.RoomsOverview{Rooms: ov}, nil
}

func (f *fakeAPI) ListRooms(ctx context.Context, page, limit int) (*models.Page[models.Room], error) {
	f.mu.Lock()
	rooms := append([]models.Room(nil), f.rooms...)
	f.mu.Unlock()
	hold, err := f.enter("rooms")
	wait(hold)
	if err != nil {
		return nil, err
	}
	return &models.Page[models.Room]{Data: rooms, Total: len(rooms), Page: page, Limit: limit}, nil
}

func (f *fakeAPI) ListAlerts(ctx context.Context, flt client.AlertFilter) (*models.Page[models.Alert], error) {
	f.mu.Lock()
	alerts := append([]models.Alert(nil), f.alerts...)
	f.mu.Unlock()
	hold, err := f.enter("alerts")
	wait(hold)
	if err != nil {
		return nil, err
	}
	return &models.Page[models.Alert]{Data: alerts, Total: len(alerts)}, nil
}

func (f *fakeAPI) AcknowledgeAlert(ctx context.Context, id int) (*models.Alert, error) {
	f.mu.Lock()
	f.calls["acknowledge"]++
	err, hook, reply := f.fail["acknowledge"], f.onAck, f.ackReply
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	if err != nil {
		return nil, err
	}
	return reply, nil
}

func (f *fakeAPI) ResolveAlert(ctx context.Context, id int) (*models.Alert, error) {
	_, err := f.enter("resolve")
	return nil, err
}

func (f *fakeAPI) CreateRoom(ctx context.Context, in models.RoomUpdate) (*models.Room, error) {
	_, err := f.enter("create_room")
	if err != nil {
		return nil, err
	}
	r := models.Room{ID: 99}
	in.Apply(&r)
	return &r, nil
}

func (f *fakeAPI) UpdateRoom(ctx context.Context, id int, in models.RoomUpdate) (*models.Room, error) {
	_, err := f.enter("update_room")
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saved, nil
}

func (f *fakeAPI) DeleteRoom(ctx context.Context, id int) error {
	_, err := f.enter("delete_room")
	return err
}

func (f *fakeAPI) CurrentUser() *models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.user
}

type stubLimiter struct{ limited atomic.Bool }

func (l *stubLimiter) IsRateLimited() bool { return l.limited.Load() }

// newTestStore returns a store signed in as user 1 with one refresh applied.
func newTestStore(t *testing.T, api *fakeAPI, cfg Config) (*Store, *clock.Fake) {
	t.Helper()
	clk := clock.NewFake(testStart)
	s := NewStore(api, nil, nil, cfg, clk)
	if err := s.SetUser(context.Background(), 1); err != nil {
		t.Fatalf("SetUser() error = %v", err)
	}
	return s, clk
}

func ptr[T any](v T) *T { return &v }

// gatedSnapshots parks the next Save until release is closed. It records the
// correlation ID each Save was called with.
type gatedSnapshots struct {
	*MemorySnapshotStore
	mu      sync.Mutex
	gate    chan struct{}
	saving  chan struct{}
	saveIDs []string
}

func newGatedSnapshots() *gatedSnapshots {
	return &gatedSnapshots{MemorySnapshotStore: NewMemorySnapshotStore(), saving: make(chan struct{}, 1)}
}

// hold makes the next Save block and returns the channel that releases it.
func (g *gatedSnapshots) hold() chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.gate = make(chan struct{})
	return g.gate
}

func (g *gatedSnapshots) Save(ctx context.Context, snap *Snapshot) error {
	g.mu.Lock()
	gate := g.gate
	g.gate = nil
	g.saveIDs = append(g.saveIDs, logging.CorrelationIDFromContext(ctx))
	g.mu.Unlock()
	if gate != nil {
		g.saving <- struct{}{}
		<-gate
	}
	return g.MemorySnapshotStore.Save(ctx, snap)
}

func (g *gatedSnapshots) lastSaveID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.saveIDs) == 0 {
		return ""
	}
	return g.saveIDs[len(g.saveIDs)-1]
}

// =====================================================
// Refresh
// =====================================================

func TestStore_SetUserRefreshes(t *testing.T) {
	t.Parallel()
	api := newFakeAPI()
	s, clk := newTestStore(t, api, DefaultConfig())

	snap := s.Snapshot()
	if snap.OwnerUserID != 1 {
		t.Errorf("OwnerUserID = %d, want 1", snap.OwnerUserID)
	}
	if !snap.LastUpdated.Equal(clk.Now()) {
		t.Errorf("LastUpdated = %v, want %v", snap.LastUpdated, clk.Now())
	}
	if snap.Stats == nil || snap.Stats.TotalRooms != 2 {
		t.Errorf("Stats = %+v", snap.Stats)
	}
	if len(snap.Rooms) != 2 || len(snap.RoomsOverview) != 2 || len(snap.Alerts) != 1 {
		t.Errorf("slices = %d rooms, %d overview, %d alerts", len(snap.Rooms), len(snap.RoomsOverview), len(snap.Alerts))
	}
	if s.IsRefreshing() {
		t.Error("IsRefreshing() = true after refresh returned")
	}
}

func TestStore_PartialRefreshKeepsFailedSlice(t *testing.T) {
	api := newFakeAPI()
	s, clk := newTestStore(t, api, DefaultConfig())
	before := testutil.ToFloat64(metrics.SnapshotSliceFailures.WithLabelValues("alerts"))

	api.mu.Lock()
	api.rooms = []models.Room{{ID: 3, Name: "Plasma C"}}
	api.alerts = nil
	api.mu.Unlock()
	api.setFail("alerts", errBackend)

	clk.Advance(DefaultMinRefreshInterval)
	if err := s.RefreshAll(context.Background()); err != nil {
		t.Fatalf("RefreshAll() error = %v", err)
	}

	snap := s.Snapshot()
	if len(snap.Alerts) != 1 || snap.Alerts[0].ID != 7 {
		t.Errorf("Alerts = %+v, want previous value kept", snap.Alerts)
	}
	if len(snap.Rooms) != 1 || snap.Rooms[0].ID != 3 {
		t.Errorf("Rooms = %+v, want fresh value", snap.Rooms)
	}
	if !snap.LastUpdated.Equal(clk.Now()) {
		t.Errorf("LastUpdated = %v, want %v", snap.LastUpdated, clk.Now())
	}
	if got := testutil.ToFloat64(metrics.SnapshotSliceFailures.WithLabelValues("alerts")) - before; got != 1 {
		t.Errorf("alerts slice failures = %v, want 1", got)
	}
}

func TestStore_EmptySliceReplacesPrevious(t *testing.T) {
	t.Parallel()
	api := newFakeAPI()
	s, clk := newTestStore(t, api, DefaultConfig())

	api.mu.Lock()
	api.alerts = nil
	api.mu.Unlock()
	clk.Advance(DefaultMinRefreshInterval)
	_ = s.RefreshAll(context.Background())

	snap := s.Snapshot()
	if snap.Alerts == nil || len(snap.Alerts) != 0 {
		t.Errorf("Alerts = %#v, want empty non-nil slice", snap.Alerts)
	}
}

func TestStore_AllSlicesFail(t *testing.T) {
	t.Parallel()
	api := newFakeAPI()
	for _, name := range []string{"stats", "overview", "rooms", "alerts"} {
		api.setFail(name, errBackend)
	}
	s, _ := newTestStore(t, api, DefaultConfig())

	snap := s.Snapshot()
	if !snap.IsEmpty() {
		t.Errorf("LastUpdated = %v, want zero when nothing arrived", snap.LastUpdated)
	}
	if snap.OwnerUserID != 1 || snap.Stats != nil {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestStore_RefreshGuards(t *testing.T) {
	t.Parallel()

	t.Run("no identity", func(t *testing.T) {
		t.Parallel()
		api := newFakeAPI()
		s := NewStore(api, nil, nil, DefaultConfig(), clock.NewFake(testStart))
		_ = s.RefreshAll(context.Background())
		_ = s.RefreshAlerts(context.Background())
		if n := api.count("stats") + api.count("alerts"); n != 0 {
			t.Errorf("fetches = %d, want 0", n)
		}
	})

	t.Run("rate limited", func(t *testing.T) {
		t.Parallel()
		api := newFakeAPI()
		l := &stubLimiter{}
		clk := clock.NewFake(testStart)
		s := NewStore(api, l, nil, DefaultConfig(), clk)
		l.limited.Store(true)
		_ = s.SetUser(context.Background(), 1)
		_ = s.RefreshRooms(context.Background())
		if n := api.count("stats") + api.count("rooms"); n != 0 {
			t.Errorf("fetches = %d, want 0", n)
		}
		if s.Snapshot().OwnerUserID != 1 {
			t.Error("identity not recorded while rate limited")
		}
	})

	t.Run("minimum interval", func(t *testing.T) {
		t.Parallel()
		api := newFakeAPI()
		s, clk := newTestStore(t, api, DefaultConfig())
		clk.Advance(DefaultMinRefreshInterval - time.Second)
		_ = s.RefreshAll(context.Background())
		if n := api.count("stats"); n != 1 {
			t.Errorf("stats fetches = %d, want 1", n)
		}
		// Slice refreshes are not throttled.
		_ = s.RefreshAlerts(context.Background())
		if n := api.count("alerts"); n != 2 {
			t.Errorf("alerts fetches = %d, want 2", n)
		}
		clk.Advance(time.Second)
		_ = s.RefreshAll(context.Background())
		if n := api.count("stats"); n != 2 {
			t.Errorf("stats fetches after interval = %d, want 2", n)
		}
	})

	t.Run("in flight", func(t *testing.T) {
		t.Parallel()
		api := newFakeAPI()
		s, clk := newTestStore(t, api, DefaultConfig())
		clk.Advance(time.Minute)

		api.mu.Lock()
		api.hold = make(chan struct{})
		api.entered = make(chan string, 8)
		api.mu.Unlock()

		done := make(chan struct{})
		go func() {
			defer close(done)
			_ = s.RefreshAll(context.Background())
		}()
		<-api.entered
		if !s.IsRefreshing() {
			t.Error("IsRefreshing() = false during refresh")
		}
		clk.Advance(time.Minute)
		_ = s.RefreshAll(context.Background())
		close(api.hold)
		<-done
		if n := api.count("stats"); n != 2 {
			t.Errorf("stats fetches = %d, want 2", n)
		}
	})
}

// =====================================================
// Identity
// =====================================================

func TestStore_IdentitySwitchDiscardsInFlightRefresh(t *testing.T) {
	api := newFakeAPI()
	s, clk := newTestStore(t, api, DefaultConfig())
	clk.Advance(time.Minute)
	before := testutil.ToFloat64(metrics.SnapshotRefreshes.WithLabelValues("all", "discarded"))

	api.mu.Lock()
	api.hold = make(chan struct{})
	api.entered = make(chan string, 16)
	api.mu.Unlock()

	first := make(chan struct{})
	go func() {
		defer close(first)
		_ = s.RefreshAll(context.Background())
	}()
	for range 4 {
		<-api.entered
	}

	// User 2 sees different data.
	api.mu.Lock()
	api.alerts = []models.Alert{{ID: 40, RoomID: 2, Status: models.AlertStatusActive}}
	api.mu.Unlock()

	second := make(chan struct{})
	go func() {
		defer close(second)
		_ = s.SetUser(context.Background(), 2)
	}()
	for range 4 {
		<-api.entered
	}
	close(api.hold)
	<-first
	<-second

	snap := s.Snapshot()
	if snap.OwnerUserID != 2 {
		t.Fatalf("OwnerUserID = %d, want 2", snap.OwnerUserID)
	}
	if len(snap.Alerts) != 1 || snap.Alerts[0].ID != 40 {
		t.Errorf("Alerts = %+v, want only user 2 data", snap.Alerts)
	}
	if got := testutil.ToFloat64(metrics.SnapshotRefreshes.WithLabelValues("all", "discarded")) - before; got != 1 {
		t.Errorf("discarded refreshes = %v, want 1", got)
	}
}

func TestStore_SetUser(t *testing.T) {
	t.Parallel()

	t.Run("same user is a no-op", func(t *testing.T) {
		t.Parallel()
		api := newFakeAPI()
		s, clk := newTestStore(t, api, DefaultConfig())
		clk.Advance(time.Minute)
		_ = s.SetUser(context.Background(), 1)
		if n := api.count("stats"); n != 1 {
			t.Errorf("stats fetches = %d, want 1", n)
		}
	})

	t.Run("sign out clears everything", func(t *testing.T) {
		t.Parallel()
		api := newFakeAPI()
		persist := NewMemorySnapshotStore()
		s := NewStore(api, nil, persist, DefaultConfig(), clock.NewFake(testStart))
		_ = s.SetUser(context.Background(), 1)

		_ = s.SetUser(context.Background(), 0)
		snap := s.Snapshot()
		if snap.OwnerUserID != 0 || !snap.IsEmpty() || len(snap.Alerts) != 0 || snap.Stats != nil {
			t.Errorf("snapshot after sign out = %+v", snap)
		}
		if got, _ := persist.Load(context.Background(), 1); got != nil {
			t.Error("persisted snapshot survived sign out")
		}
	})
}

func TestStore_Rehydrate(t *testing.T) {
	t.Parallel()

	stored := func(owner int, age time.Duration) *MemorySnapshotStore {
		m := NewMemorySnapshotStore()
		snap := emptySnapshot(owner)
		snap.Alerts = []models.Alert{{ID: 5}}
		snap.LastUpdated = testStart.Add(-age)
		_ = m.Save(context.Background(), &snap)
		return m
	}

	tests := []struct {
		name        string
		owner       int
		age         time.Duration
		wantRestore bool
	}{
		{"fresh snapshot of same user", 1, time.Minute, true},
		{"too old", 1, DefaultSnapshotMaxAge, false},
		{"other user", 2, time.Minute, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			persist := stored(tt.owner, tt.age)
			s := NewStore(newFakeAPI(), nil, persist, DefaultConfig(), clock.NewFake(testStart))
			if err := s.Rehydrate(context.Background(), 1); err != nil {
				t.Fatalf("Rehydrate() error = %v", err)
			}
			snap := s.Snapshot()
			if snap.OwnerUserID != 1 {
				t.Errorf("OwnerUserID = %d, want 1", snap.OwnerUserID)
			}
			if restored := len(snap.Alerts) == 1; restored != tt.wantRestore {
				t.Errorf("restored = %v, want %v", restored, tt.wantRestore)
			}
			if !tt.wantRestore && persist.snap != nil {
				t.Error("rejected snapshot was not cleared")
			}
		})
	}
}

// =====================================================
// Optimistic mutations
// =====================================================

func TestStore_UpdateRoomMirrorsOverview(t *testing.T) {
	t.Parallel()
	s, _ := newTestStore(t, newFakeAPI(), DefaultConfig())
	lastUpdated := s.Snapshot().LastUpdated

	if !s.UpdateRoom(context.Background(), 1, models.RoomUpdate{Name: ptr("Vaccines A2"), TempMax: ptr(6.0)}) {
		t.Fatal("UpdateRoom() = false for known room")
	}
	snap := s.Snapshot()
	room, _ := snap.FindRoom(1)
	ov, _ := snap.FindOverview(1)
	if room.Name != "Vaccines A2" || room.TempMax != 6 {
		t.Errorf("room = %+v", room)
	}
	if ov.Name != "Vaccines A2" || ov.TempMax == nil || *ov.TempMax != 6 {
		t.Errorf("overview = %+v", ov)
	}
	if !snap.LastUpdated.Equal(lastUpdated) {
		t.Error("local mutation changed LastUpdated")
	}
	if s.UpdateRoom(context.Background(), 404, models.RoomUpdate{Name: ptr("x")}) {
		t.Error("UpdateRoom() = true for unknown room")
	}
}

func TestStore_AddAndRemoveRoom(t *testing.T) {
	t.Parallel()
	s, _ := newTestStore(t, newFakeAPI(), DefaultConfig())

	s.AddRoom(context.Background(), models.Room{ID: 5, Name: "Blood D"})
	snap := s.Snapshot()
	if len(snap.Rooms) != 3 || snap.Rooms[0].ID != 5 {
		t.Errorf("Rooms after AddRoom = %+v, want new room first", snap.Rooms)
	}

	s.RemoveRoom(context.Background(), 1)
	snap = s.Snapshot()
	if _, ok := snap.FindRoom(1); ok {
		t.Error("room 1 still listed")
	}
	if _, ok := snap.FindOverview(1); ok {
		t.Error("room 1 still in overview")
	}
	if s.RemoveRoom(context.Background(), 1) {
		t.Error("RemoveRoom() = true for missing room")
	}
}

func TestStore_SlowRefreshSaveDoesNotOverwriteLaterEdit(t *testing.T) {
	t.Parallel()
	api := newFakeAPI()
	persist := newGatedSnapshots()
	clk := clock.NewFake(testStart)
	s := NewStore(api, nil, persist, DefaultConfig(), clk)
	if err := s.SetUser(context.Background(), 1); err != nil {
		t.Fatalf("SetUser() error = %v", err)
	}
	updates, unsubscribe := s.Subscribe()
	defer unsubscribe()

	// The refresh still reports alert 7 as active and parks in Save.
	release := persist.hold()
	clk.Advance(DefaultMinRefreshInterval)
	refreshed := make(chan struct{})
	go func() {
		defer close(refreshed)
		_ = s.RefreshAll(context.Background())
	}()
	<-persist.saving

	edited := make(chan struct{})
	go func() {
		defer close(edited)
		s.UpdateAlert(context.Background(), 7, models.AcknowledgePatch(testStart, nil))
	}()
	waitFor(t, "local acknowledge", func() bool {
		a, _ := s.Snapshot().FindAlert(7)
		return a.Status == models.AlertStatusAcknowledged
	})
	close(release)
	<-refreshed
	<-edited

	stored, _ := persist.Load(context.Background(), 1)
	if stored == nil {
		t.Fatal("no persisted snapshot")
	}
	if a, _ := stored.FindAlert(7); a.Status != models.AlertStatusAcknowledged {
		t.Errorf("persisted status = %s, want ACKNOWLEDGED", a.Status)
	}
	var last Snapshot
	select {
	case last = <-updates:
	default:
		t.Fatal("no snapshot delivered")
	}
	if a, _ := last.FindAlert(7); a.Status != models.AlertStatusAcknowledged {
		t.Errorf("last delivered status = %s, want ACKNOWLEDGED", a.Status)
	}
}

func TestStore_EditPersistsWithCallerContext(t *testing.T) {
	t.Parallel()
	api := newFakeAPI()
	persist := newGatedSnapshots()
	s := NewStore(api, nil, persist, DefaultConfig(), clock.NewFake(testStart))
	if err := s.SetUser(context.Background(), 1); err != nil {
		t.Fatalf("SetUser() error = %v", err)
	}

	ctx := logging.ContextWithCorrelationID(context.Background(), "req-ack-7")
	if _, err := s.AcknowledgeAlert(ctx, 7); err != nil {
		t.Fatalf("AcknowledgeAlert() error = %v", err)
	}
	if got := persist.lastSaveID(); got != "req-ack-7" {
		t.Errorf("Save correlation ID = %q, want req-ack-7", got)
	}
}

func TestStore_SnapshotIsCopy(t *testing.T) {
	t.Parallel()
	s, _ := newTestStore(t, newFakeAPI(), DefaultConfig())
	snap := s.Snapshot()
	snap.Alerts[0].Status = models.AlertStatusResolved
	snap.Stats.TotalRooms = 100
	again := s.Snapshot()
	if again.Alerts[0].Status != models.AlertStatusActive || again.Stats.TotalRooms != 2 {
		t.Error("modifying a returned snapshot changed the store")
	}
}

func TestStore_AcknowledgeAlert(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		fail       error
		corrective bool
		wantStatus models.AlertStatus
		wantErr    bool
	}{
		{"server accepts", nil, true, models.AlertStatusAcknowledged, false},
		{"server rejects", errBackend, true, models.AlertStatusActive, true},
		{"server rejects without refetch", errBackend, false, models.AlertStatusAcknowledged, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			api := newFakeAPI()
			cfg := DefaultConfig()
			cfg.CorrectiveRefetch = tt.corrective
			s, _ := newTestStore(t, api, cfg)

			var during models.AlertStatus
			api.onAck = func() {
				a, _ := s.Snapshot().FindAlert(7)
				during = a.Status
			}
			api.setFail("acknowledge", tt.fail)

			_, err := s.AcknowledgeAlert(context.Background(), 7)
			if (err != nil) != tt.wantErr {
				t.Fatalf("AcknowledgeAlert() error = %v, wantErr %v", err, tt.wantErr)
			}
			if during != models.AlertStatusAcknowledged {
				t.Errorf("status while request in flight = %s, want ACKNOWLEDGED", during)
			}
			a, _ := s.Snapshot().FindAlert(7)
			if a.Status != tt.wantStatus {
				t.Errorf("status after request = %s, want %s", a.Status, tt.wantStatus)
			}
		})
	}
}

func TestStore_AcknowledgeAppliesServerRecord(t *testing.T) {
	t.Parallel()
	api := newFakeAPI()
	api.ackReply = &models.Alert{ID: 7, RoomID: 1, Status: models.AlertStatusAcknowledged, AcknowledgedByName: ptr("Dana (server)")}
	s, _ := newTestStore(t, api, DefaultConfig())

	if _, err := s.AcknowledgeAlert(context.Background(), 7); err != nil {
		t.Fatalf("AcknowledgeAlert() error = %v", err)
	}
	a, _ := s.Snapshot().FindAlert(7)
	if a.AcknowledgedByName == nil || *a.AcknowledgedByName != "Dana (server)" {
		t.Errorf("AcknowledgedByName = %v, want server value", a.AcknowledgedByName)
	}
}

func TestStore_OptimisticAcknowledgeUsesCurrentUser(t *testing.T) {
	t.Parallel()
	api := newFakeAPI()
	s, clk := newTestStore(t, api, DefaultConfig())
	api.onAck = func() {
		a, _ := s.Snapshot().FindAlert(7)
		if a.AcknowledgedBy == nil || *a.AcknowledgedBy != 1 {
			t.Errorf("AcknowledgedBy = %v, want 1", a.AcknowledgedBy)
		}
		if a.AcknowledgedAt == nil || !a.AcknowledgedAt.Equal(clk.Now()) {
			t.Errorf("AcknowledgedAt = %v, want %v", a.AcknowledgedAt, clk.Now())
		}
	}
	_, _ = s.AcknowledgeAlert(context.Background(), 7)
}

func TestStore_RoomIntents(t *testing.T) {
	t.Parallel()

	t.Run("save rejected restores server state", func(t *testing.T) {
		t.Parallel()
		api := newFakeAPI()
		s, _ := newTestStore(t, api, DefaultConfig())
		api.setFail("update_room", errBackend)

		if _, err := s.SaveRoom(context.Background(), 1, models.RoomUpdate{Name: ptr("Renamed")}); !errors.Is(err, errBackend) {
			t.Fatalf("SaveRoom() error = %v, want %v", err, errBackend)
		}
		room, _ := s.Snapshot().FindRoom(1)
		if room.Name != "Vaccines A" {
			t.Errorf("room name = %q, want server value", room.Name)
		}
	})

	t.Run("save applies server record", func(t *testing.T) {
		t.Parallel()
		api := newFakeAPI()
		api.saved = &models.Room{ID: 1, Name: "Renamed", TempMax: 8, Location: ptr("Basement")}
		s, _ := newTestStore(t, api, DefaultConfig())
		if _, err := s.SaveRoom(context.Background(), 1, models.RoomUpdate{Name: ptr("Renamed")}); err != nil {
			t.Fatalf("SaveRoom() error = %v", err)
		}
		room, _ := s.Snapshot().FindRoom(1)
		if room.Location == nil || *room.Location != "Basement" {
			t.Errorf("room = %+v, want server record", room)
		}
	})

	t.Run("create adds stored record", func(t *testing.T) {
		t.Parallel()
		s, _ := newTestStore(t, newFakeAPI(), DefaultConfig())
		r, err := s.CreateRoom(context.Background(), models.RoomUpdate{Name: ptr("Blood D")})
		if err != nil {
			t.Fatalf("CreateRoom() error = %v", err)
		}
		snap := s.Snapshot()
		if snap.Rooms[0].ID != r.ID || snap.Rooms[0].Name != "Blood D" {
			t.Errorf("first room = %+v, want created room", snap.Rooms[0])
		}
	})

	t.Run("create rejected adds nothing", func(t *testing.T) {
		t.Parallel()
		api := newFakeAPI()
		s, _ := newTestStore(t, api, DefaultConfig())
		api.setFail("create_room", errBackend)
		if _, err := s.CreateRoom(context.Background(), models.RoomUpdate{Name: ptr("Blood D")}); err == nil {
			t.Fatal("CreateRoom() error = nil")
		}
		if n := len(s.Snapshot().Rooms); n != 2 {
			t.Errorf("rooms = %d, want 2", n)
		}
	})

	t.Run("delete rejected restores room", func(t *testing.T) {
		t.Parallel()
		api := newFakeAPI()
		s, _ := newTestStore(t, api, DefaultConfig())
		api.setFail("delete_room", errBackend)
		if err := s.DeleteRoom(context.Background(), 2); err == nil {
			t.Fatal("DeleteRoom() error = nil")
		}
		if _, ok := s.Snapshot().FindRoom(2); !ok {
			t.Error("room 2 missing after rejected delete")
		}
	})

	t.Run("delete accepted", func(t *testing.T) {
		t.Parallel()
		s, _ := newTestStore(t, newFakeAPI(), DefaultConfig())
		if err := s.DeleteRoom(context.Background(), 2); err != nil {
			t.Fatalf("DeleteRoom() error = %v", err)
		}
		if _, ok := s.Snapshot().FindOverview(2); ok {
			t.Error("room 2 still in overview")
		}
	})
}

// =====================================================
// Subscriptions
// =====================================================

func TestStore_Subscribe(t *testing.T) {
	t.Parallel()
	s, _ := newTestStore(t, newFakeAPI(), DefaultConfig())
	updates, unsubscribe := s.Subscribe()
	defer unsubscribe()

	s.UpdateAlert(context.Background(), 7, models.ResolvePatch(testStart, nil))

	select {
	case snap := <-updates:
		a, _ := snap.FindAlert(7)
		if a.Status != models.AlertStatusResolved {
			t.Errorf("delivered status = %s, want RESOLVED", a.Status)
		}
	case <-time.After(time.Second):
		t.Fatal("no snapshot delivered")
	}
}
