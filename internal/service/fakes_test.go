package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"inpatient-room-catalog/internal/metrics"
	"inpatient-room-catalog/internal/models"
	"inpatient-room-catalog/internal/reconcile"
	"inpatient-room-catalog/internal/snapshot"
)

var errFeedDown = errors.New("feed down")

type fakeCatalog struct {
	mu    sync.Mutex
	items []models.CatalogItem
	err   error
	calls atomic.Int32
}

func (f *fakeCatalog) set(items []models.CatalogItem, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items, f.err = items, err
}

func (f *fakeCatalog) FetchCatalog(ctx context.Context) ([]models.CatalogItem, error) {
	f.calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.items, f.err
}

// fakeLive serves both live feeds. When gate is set every fetch waits on it
// or on ctx, whichever comes first, and still returns its data.
type fakeLive struct {
	mu           sync.Mutex
	availability []models.AvailabilityRecord
	rooms        []models.RoomRecord
	availErr     error
	roomsErr     error
	gate         chan struct{}
	calls        atomic.Int32
}

func (f *fakeLive) wait(ctx context.Context) {
	f.mu.Lock()
	gate := f.gate
	f.mu.Unlock()
	if gate == nil {
		return
	}
	select {
	case <-gate:
	case <-ctx.Done():
	}
}

func (f *fakeLive) FetchAvailability(ctx context.Context) ([]models.AvailabilityRecord, error) {
	f.calls.Add(1)
	f.wait(ctx)
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.availability, f.availErr
}

func (f *fakeLive) FetchRooms(ctx context.Context) ([]models.RoomRecord, error) {
	f.wait(ctx)
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rooms, f.roomsErr
}

type fakeAmbiguityStore struct {
	mu      sync.Mutex
	created []models.MatchAmbiguity
}

func (f *fakeAmbiguityStore) CreateAmbiguity(ctx context.Context, a *models.MatchAmbiguity) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, *a)
	return nil
}

func (f *fakeAmbiguityStore) ListRecent(ctx context.Context, limit int) ([]models.MatchAmbiguity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.MatchAmbiguity, len(f.created))
	copy(out, f.created)
	return out, nil
}

func price(v float64) *float64 { return &v }

func sampleCatalog() []models.CatalogItem {
	return []models.CatalogItem{
		{Category: "Gedung Mina", Name: "Kelas 3", Price: price(250000), Features: "AC, TV", IsActive: true, Order: 1},
		{Category: "Gedung Mina", Name: "VIP", Price: price(900000), IsActive: true, Order: 2},
		{Category: "Gedung Arafah", Name: "Kelas 1", IsActive: true, Order: 3},
	}
}

func sampleAvailability() []models.AvailabilityRecord {
	return []models.AvailabilityRecord{
		{BuildingLabel: "Mina", ClassLabel: "Kelas 3", Total: 10, Available: 4},
		{BuildingLabel: "Unit Mina", ClassLabel: "VIP", Total: 2, Available: 0},
	}
}

func sampleRooms() []models.RoomRecord {
	return []models.RoomRecord{
		{RoomID: "M-301", BuildingLabel: "Mina", ClassLabel: "Kelas 3", Status: models.RoomStatusVacant, Price: 250000},
		{RoomID: "M-302", BuildingLabel: "Gedung Mina", ClassLabel: "Kelas 3", Status: models.RoomStatusOccupied, Price: 250000},
		{RoomID: "M-V1", BuildingLabel: "Mina", ClassLabel: "VIP", Status: models.RoomStatusBeingCleaned, Price: 900000},
	}
}

type fixture struct {
	catalog  *fakeCatalog
	fallback *fakeCatalog
	live     *fakeLive
	store    snapshot.Store
	amb      *fakeAmbiguityStore
	metrics  *metrics.Metrics
	svc      *CatalogService
}

func newFixture(opts ...func(*fixture)) *fixture {
	f := &fixture{
		catalog: &fakeCatalog{items: sampleCatalog()},
		live:    &fakeLive{availability: sampleAvailability(), rooms: sampleRooms()},
		amb:     &fakeAmbiguityStore{},
		metrics: metrics.NewUnregistered(),
	}
	for _, opt := range opts {
		opt(f)
	}

	sources := CatalogSources{
		Catalog:      f.catalog,
		Availability: f.live,
		Rooms:        f.live,
	}
	if f.fallback != nil {
		sources.Fallback = f.fallback
	}

	logger := zap.NewNop()
	look := reconcile.NewAppearanceTable(reconcile.Appearance{Color: "bg-gray-500", Image: "/img/default.jpg"}, nil)
	f.svc = NewCatalogService(sources, f.store, look, NewAmbiguityService(f.amb, logger), f.metrics, logger)
	return f
}
