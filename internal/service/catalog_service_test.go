package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inpatient-room-catalog/internal/feed"
	"inpatient-room-catalog/internal/models"
	"inpatient-room-catalog/internal/reconcile"
	"inpatient-room-catalog/internal/snapshot"
	apperrors "inpatient-room-catalog/pkg/errors"
)

func TestCatalogService_EmptyBeforeFirstFetch(t *testing.T) {
	f := newFixture()

	assert.NotNil(t, f.svc.GetBuildings())
	assert.Empty(t, f.svc.GetBuildings())
	assert.Empty(t, f.svc.GetRoomsFor("Gedung Mina", "Kelas 3"))
}

func TestCatalogService_RefreshPublishesReconciledGeneration(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	require.NoError(t, f.svc.RefreshCatalog(ctx))
	require.NoError(t, f.svc.RefreshLive(ctx))

	buildings := f.svc.GetBuildings()
	require.Len(t, buildings, 2)
	assert.Equal(t, "gedung-mina", buildings[0].ID)
	require.Len(t, buildings[0].Classes, 2)
	assert.Equal(t, "Tersedia 4 / 10 Bed", buildings[0].Classes[0].CapacityLabel)
	assert.Equal(t, "Rp 250.000 / malam", buildings[0].Classes[0].DisplayPrice)
	assert.Equal(t, "Tersedia 0 / 2 Bed", buildings[0].Classes[1].CapacityLabel)
	assert.Equal(t, reconcile.CapacityUnknownLabel, buildings[1].Classes[0].CapacityLabel)
	assert.Equal(t, "bg-gray-500", buildings[0].ColorToken)

	rooms := f.svc.GetRoomsFor("Gedung Mina", "Kelas 3")
	require.Len(t, rooms, 2)
	assert.Equal(t, "M-301", rooms[0].RoomID)
	assert.Equal(t, "M-302", rooms[1].RoomID)

	assert.False(t, f.svc.Current().Fallback)
	assert.Equal(t, float64(2), testutil.ToFloat64(f.metrics.Buildings))
}

func TestCatalogService_FailedFeedKeepsPreviousSnapshot(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	require.NoError(t, f.svc.RefreshCatalog(ctx))
	require.NoError(t, f.svc.RefreshLive(ctx))

	f.live.mu.Lock()
	f.live.availErr = errFeedDown
	f.live.rooms = sampleRooms()[:1]
	f.live.mu.Unlock()

	err := f.svc.RefreshLive(ctx)
	require.Error(t, err)

	// availability kept from the previous cycle, rooms replaced
	mina := f.svc.GetBuildings()[0]
	assert.Equal(t, "Tersedia 4 / 10 Bed", mina.Classes[0].CapacityLabel)
	assert.Len(t, f.svc.GetRoomsFor("Gedung Mina", "Kelas 3"), 1)

	statuses := f.svc.FeedStatuses()
	require.Len(t, statuses, 3)
	assert.Equal(t, feed.Availability, statuses[1].Feed)
	assert.Equal(t, 1, statuses[1].ConsecutiveFailures)
	assert.Contains(t, statuses[1].LastError, "feed down")
	assert.True(t, statuses[1].HasSnapshot)
	assert.Equal(t, 0, statuses[2].ConsecutiveFailures)
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.FeedFetches.WithLabelValues("availability", "failure")))
}

func TestCatalogService_BothLiveFeedsFailing(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	require.NoError(t, f.svc.RefreshCatalog(ctx))
	seq := f.svc.Current().Seq

	f.live.availErr = errFeedDown
	f.live.roomsErr = errFeedDown

	require.Error(t, f.svc.RefreshLive(ctx))
	assert.Equal(t, seq, f.svc.Current().Seq, "no generation published when nothing changed")
	assert.Equal(t, reconcile.CapacityUnknownLabel, f.svc.GetBuildings()[0].Classes[0].CapacityLabel)
}

func TestCatalogService_CatalogFailureBeforeAnySnapshot(t *testing.T) {
	f := newFixture(func(f *fixture) { f.catalog.err = errFeedDown })

	require.Error(t, f.svc.RefreshCatalog(context.Background()))
	assert.Empty(t, f.svc.GetBuildings())
	assert.False(t, f.svc.FeedStatuses()[0].HasSnapshot)
}

func TestCatalogService_DiscardsResultsAfterCancel(t *testing.T) {
	f := newFixture()
	f.live.gate = make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.svc.RefreshLive(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("RefreshLive did not return after cancel")
	}

	assert.Equal(t, uint64(0), f.svc.Current().Seq)
	assert.False(t, f.svc.FeedStatuses()[1].HasSnapshot)
}

// cancellingStore cancels the refresh context when the snapshot of feed on
// is written, simulating a shutdown that lands after a fetch has returned.
type cancellingStore struct {
	snapshot.NopStore
	on     feed.Name
	cancel context.CancelFunc
	saves  []feed.Name
}

func (s *cancellingStore) Save(ctx context.Context, name feed.Name, v any) error {
	s.saves = append(s.saves, name)
	if name == s.on {
		s.cancel()
	}
	return nil
}

func TestCatalogService_CancelAfterFetchPublishesNothing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	store := &cancellingStore{on: feed.Availability, cancel: cancel}
	f := newFixture(func(f *fixture) { f.store = store })

	require.NoError(t, f.svc.RefreshCatalog(context.Background()))
	seq := f.svc.Current().Seq

	err := f.svc.RefreshLive(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, seq, f.svc.Current().Seq)
	statuses := f.svc.FeedStatuses()
	assert.False(t, statuses[2].HasSnapshot, "rooms must not be committed after cancel")
	assert.Equal(t, []feed.Name{feed.Catalog, feed.Availability}, store.saves)
}

func TestCatalogService_RefreshCatalogCancelledBeforeRebuild(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	f := newFixture(func(f *fixture) { f.store = &cancellingStore{on: feed.Catalog, cancel: cancel} })

	err := f.svc.RefreshCatalog(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, uint64(0), f.svc.Current().Seq)
	assert.Empty(t, f.svc.GetBuildings())
}

func TestCatalogService_RebuildWithDoneContext(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.svc.RefreshCatalog(context.Background()))
	before := f.svc.Current()

	var notified int
	f.svc.Subscribe(func(*Generation) { notified++ })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Same(t, before, f.svc.Rebuild(ctx))
	assert.Same(t, before, f.svc.Current())
	assert.Zero(t, notified)
}

func TestCatalogService_FallbackCatalog(t *testing.T) {
	f := newFixture(func(f *fixture) {
		f.catalog.items = []models.CatalogItem{{Category: "Gedung Mina", Name: "VIP", IsActive: false}}
		f.fallback = &fakeCatalog{items: []models.CatalogItem{{Category: "Gedung Darurat", Name: "Kelas 3", IsActive: true}}}
	})
	ctx := context.Background()

	f.svc.Restore(ctx)
	require.NoError(t, f.svc.RefreshCatalog(ctx))

	gen := f.svc.Current()
	assert.True(t, gen.Fallback)
	require.Len(t, gen.Buildings, 1)
	assert.Equal(t, "gedung-darurat", gen.Buildings[0].ID)

	f.catalog.set(sampleCatalog(), nil)
	require.NoError(t, f.svc.RefreshCatalog(ctx))
	assert.False(t, f.svc.Current().Fallback)
	assert.Len(t, f.svc.GetBuildings(), 2)
}

func TestCatalogService_RestoresSnapshotsFromRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := snapshot.NewRedisStore(client, time.Hour)

	ctx := context.Background()
	first := newFixture(func(f *fixture) { f.store = store })
	require.NoError(t, first.svc.RefreshCatalog(ctx))
	require.NoError(t, first.svc.RefreshLive(ctx))

	// a fresh process whose upstreams are all down
	second := newFixture(func(f *fixture) {
		f.store = store
		f.catalog.err = errFeedDown
		f.live.availErr = errFeedDown
		f.live.roomsErr = errFeedDown
	})
	second.svc.Restore(ctx)

	buildings := second.svc.GetBuildings()
	require.Len(t, buildings, 2)
	assert.Equal(t, "Tersedia 4 / 10 Bed", buildings[0].Classes[0].CapacityLabel)
	assert.Len(t, second.svc.GetRoomsFor("Mina", "Kelas 3"), 2)
	assert.True(t, second.svc.FeedStatuses()[0].Restored)
}

func TestCatalogService_GetBuildingAndRoomListing(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	require.NoError(t, f.svc.RefreshCatalog(ctx))
	require.NoError(t, f.svc.RefreshLive(ctx))

	b, err := f.svc.GetBuilding("gedung-mina")
	require.NoError(t, err)
	assert.Equal(t, "Gedung Mina", b.Name)

	_, err = f.svc.GetBuilding("gedung-safa")
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeNotFound))

	listing, err := f.svc.GetRoomListing("gedung-mina", "Kelas 3")
	require.NoError(t, err)
	assert.Len(t, listing.Rooms, 2)
	assert.Equal(t, 1, listing.StatusCounts[models.RoomStatusVacant])
	assert.Equal(t, 1, listing.StatusCounts[models.RoomStatusOccupied])
	assert.Equal(t, 0, listing.StatusCounts[models.RoomStatusBeingCleaned])

	listing, err = f.svc.GetRoomListing("gedung-arafah", "Kelas 1")
	require.NoError(t, err)
	assert.NotNil(t, listing.Rooms)
	assert.Empty(t, listing.Rooms)

	_, err = f.svc.GetRoomListing("gedung-mina", "Suite")
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeNotFound))
}

func TestCatalogService_AmbiguityReportedOncePerCase(t *testing.T) {
	f := newFixture(func(f *fixture) {
		f.live.availability = []models.AvailabilityRecord{
			{BuildingLabel: "Mina", ClassLabel: "Kelas 3", Total: 10, Available: 4},
			{BuildingLabel: "Gedung Mina", ClassLabel: "3", Total: 6, Available: 1},
		}
	})
	ctx := context.Background()
	require.NoError(t, f.svc.RefreshCatalog(ctx))
	require.NoError(t, f.svc.RefreshLive(ctx))
	require.NoError(t, f.svc.RefreshLive(ctx))

	records, err := f.amb.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Gedung Mina", records[0].BuildingLabel)
	assert.Equal(t, 2, records[0].CandidateCount)
	assert.Equal(t, "Mina / Kelas 3", records[0].Chosen)
	// the counter follows new cases, not rebuilds
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.Ambiguities))

	// first candidate in feed order wins
	assert.Equal(t, "Tersedia 4 / 10 Bed", f.svc.GetBuildings()[0].Classes[0].CapacityLabel)
}

func TestCatalogService_SubscribersSeeGenerationsInOrder(t *testing.T) {
	f := newFixture()
	var seen []uint64
	f.svc.Subscribe(func(g *Generation) { seen = append(seen, g.Seq) })

	ctx := context.Background()
	require.NoError(t, f.svc.RefreshCatalog(ctx))
	require.NoError(t, f.svc.RefreshLive(ctx))

	assert.Equal(t, []uint64{1, 2}, seen)
}
