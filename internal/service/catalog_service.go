package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"inpatient-room-catalog/internal/feed"
	"inpatient-room-catalog/internal/metrics"
	"inpatient-room-catalog/internal/models"
	"inpatient-room-catalog/internal/reconcile"
	"inpatient-room-catalog/internal/snapshot"
	apperrors "inpatient-room-catalog/pkg/errors"
)

// Generation is one complete, immutable result of reconciling the latest
// snapshot of every feed. Readers never see a partially built generation.
type Generation struct {
	Seq          uint64
	Buildings    []models.Building
	Availability []models.AvailabilityRecord
	Rooms        []models.RoomRecord
	Fallback     bool
	BuiltAt      time.Time
}

// FindBuilding returns the building with the given id.
func (g *Generation) FindBuilding(id string) (*models.Building, bool) {
	for i := range g.Buildings {
		if g.Buildings[i].ID == id {
			return &g.Buildings[i], true
		}
	}
	return nil, false
}

// RoomsFor filters this generation's room feed for a building+class pair.
func (g *Generation) RoomsFor(building, class string) []models.RoomRecord {
	return reconcile.FilterRooms(building, class, g.Rooms)
}

// FeedStatus describes the health of one feed.
type FeedStatus struct {
	Feed                feed.Name  `json:"feed"`
	Records             int        `json:"records"`
	HasSnapshot         bool       `json:"has_snapshot"`
	Restored            bool       `json:"restored"`
	LastSuccess         *time.Time `json:"last_success,omitempty"`
	LastError           string     `json:"last_error,omitempty"`
	LastErrorAt         *time.Time `json:"last_error_at,omitempty"`
	ConsecutiveFailures int        `json:"consecutive_failures"`
}

// RoomListing is the room step view of one building+class pair.
type RoomListing struct {
	BuildingID   string                    `json:"building_id"`
	Building     string                    `json:"building"`
	Class        string                    `json:"class"`
	Rooms        []models.RoomRecord       `json:"rooms"`
	StatusCounts map[models.RoomStatus]int `json:"status_counts"`
}

// CatalogSources are the upstream feeds. Fallback is optional and only used
// when the primary catalog reconciles to nothing.
type CatalogSources struct {
	Catalog      feed.CatalogSource
	Fallback     feed.CatalogSource
	Availability feed.AvailabilitySource
	Rooms        feed.RoomSource
}

type CatalogService struct {
	sources    CatalogSources
	store      snapshot.Store
	appearance *reconcile.AppearanceTable
	reporter   *AmbiguityService
	metrics    *metrics.Metrics
	logger     *zap.Logger

	// mu guards the raw snapshots and feed statuses.
	mu           sync.Mutex
	catalog      []models.CatalogItem
	fallback     []models.CatalogItem
	availability []models.AvailabilityRecord
	rooms        []models.RoomRecord
	statuses     map[feed.Name]*FeedStatus

	// publishMu serialises Rebuild so generations go out in order.
	publishMu sync.Mutex
	current   atomic.Pointer[Generation]
	seq       uint64
	listeners []func(*Generation)
}

func NewCatalogService(
	sources CatalogSources,
	store snapshot.Store,
	appearance *reconcile.AppearanceTable,
	reporter *AmbiguityService,
	m *metrics.Metrics,
	logger *zap.Logger,
) *CatalogService {
	if store == nil {
		store = snapshot.NopStore{}
	}
	if m == nil {
		m = metrics.NewUnregistered()
	}
	s := &CatalogService{
		sources:    sources,
		store:      store,
		appearance: appearance,
		reporter:   reporter,
		metrics:    m,
		logger:     logger,
		statuses: map[feed.Name]*FeedStatus{
			feed.Catalog:      {Feed: feed.Catalog},
			feed.Availability: {Feed: feed.Availability},
			feed.Rooms:        {Feed: feed.Rooms},
		},
	}
	s.current.Store(&Generation{Buildings: []models.Building{}, Rooms: []models.RoomRecord{}})
	return s
}

// Subscribe registers fn to be called, in order, with every new generation.
// Must be called before the poller starts.
func (s *CatalogService) Subscribe(fn func(*Generation)) {
	s.publishMu.Lock()
	defer s.publishMu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Current returns the latest published generation.
func (s *CatalogService) Current() *Generation {
	return s.current.Load()
}

// GetBuildings returns the reconciled hierarchy.
func (s *CatalogService) GetBuildings() []models.Building {
	return s.Current().Buildings
}

// GetBuilding returns one building by id.
func (s *CatalogService) GetBuilding(id string) (*models.Building, error) {
	b, ok := s.Current().FindBuilding(id)
	if !ok {
		return nil, apperrors.NewNotFoundError("building not found")
	}
	return b, nil
}

// GetRoomsFor returns the rooms of a building+class pair by label.
func (s *CatalogService) GetRoomsFor(building, class string) []models.RoomRecord {
	return s.Current().RoomsFor(building, class)
}

// GetRoomListing resolves a building id and class name and lists its rooms.
func (s *CatalogService) GetRoomListing(buildingID, className string) (*RoomListing, error) {
	gen := s.Current()
	b, ok := gen.FindBuilding(buildingID)
	if !ok {
		return nil, apperrors.NewNotFoundError("building not found")
	}
	c, ok := b.FindClass(className)
	if !ok {
		return nil, apperrors.NewNotFoundError("class not found in building")
	}
	return newRoomListing(b, c, gen.RoomsFor(b.Name, c.Name)), nil
}

func newRoomListing(b *models.Building, c *models.RoomClass, rooms []models.RoomRecord) *RoomListing {
	return &RoomListing{
		BuildingID:   b.ID,
		Building:     b.Name,
		Class:        c.Name,
		Rooms:        rooms,
		StatusCounts: reconcile.StatusCounts(rooms),
	}
}

// FeedStatuses returns a copy of every feed's status.
func (s *CatalogService) FeedStatuses() []FeedStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]FeedStatus, 0, len(s.statuses))
	for _, name := range []feed.Name{feed.Catalog, feed.Availability, feed.Rooms} {
		out = append(out, *s.statuses[name])
	}
	return out
}

// Restore loads persisted snapshots and the fallback catalog, then publishes
// a first generation from them. Missing snapshots are not an error.
func (s *CatalogService) Restore(ctx context.Context) {
	var (
		catalog      []models.CatalogItem
		availability []models.AvailabilityRecord
		rooms        []models.RoomRecord
	)
	restore := func(name feed.Name, into any, apply func()) {
		found, err := s.store.Load(ctx, name, into)
		if err != nil {
			s.logger.Warn("Failed to restore feed snapshot", zap.String("feed", string(name)), zap.Error(err))
			return
		}
		if found {
			s.mu.Lock()
			apply()
			s.statuses[name].HasSnapshot = true
			s.statuses[name].Restored = true
			s.mu.Unlock()
			s.logger.Info("Restored feed snapshot", zap.String("feed", string(name)))
		}
	}
	restore(feed.Catalog, &catalog, func() { s.catalog = catalog; s.statuses[feed.Catalog].Records = len(catalog) })
	restore(feed.Availability, &availability, func() {
		s.availability = availability
		s.statuses[feed.Availability].Records = len(availability)
	})
	restore(feed.Rooms, &rooms, func() { s.rooms = rooms; s.statuses[feed.Rooms].Records = len(rooms) })

	if s.sources.Fallback != nil {
		items, err := s.sources.Fallback.FetchCatalog(ctx)
		if err != nil {
			s.logger.Warn("Failed to load fallback catalog", zap.Error(err))
		} else {
			s.mu.Lock()
			s.fallback = items
			s.mu.Unlock()
		}
	}

	s.Rebuild(ctx)
}

// RefreshCatalog fetches the service catalog and republishes on success.
func (s *CatalogService) RefreshCatalog(ctx context.Context) error {
	items, err := s.sources.Catalog.FetchCatalog(ctx)
	if ctx.Err() != nil {
		// torn down while in flight: discard
		return ctx.Err()
	}
	if err != nil {
		s.recordFailure(feed.Catalog, err)
		return err
	}

	if !s.commit(ctx, feed.Catalog, items, len(items), func() { s.catalog = items }) {
		return ctx.Err()
	}

	s.Rebuild(ctx)
	return ctx.Err()
}

// RefreshLive fetches availability and rooms concurrently. Each feed keeps its
// previous snapshot on failure. Once both have settled and at least one
// succeeded, a new generation is published.
func (s *CatalogService) RefreshLive(ctx context.Context) error {
	var (
		availability       []models.AvailabilityRecord
		rooms              []models.RoomRecord
		availErr, roomsErr error
	)

	var g errgroup.Group
	g.Go(func() error {
		availability, availErr = s.sources.Availability.FetchAvailability(ctx)
		return nil
	})
	g.Go(func() error {
		rooms, roomsErr = s.sources.Rooms.FetchRooms(ctx)
		return nil
	})
	_ = g.Wait()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	if availErr != nil {
		s.recordFailure(feed.Availability, availErr)
	} else if !s.commit(ctx, feed.Availability, availability, len(availability), func() { s.availability = availability }) {
		return ctx.Err()
	}

	if roomsErr != nil {
		s.recordFailure(feed.Rooms, roomsErr)
	} else if !s.commit(ctx, feed.Rooms, rooms, len(rooms), func() { s.rooms = rooms }) {
		return ctx.Err()
	}

	if availErr != nil && roomsErr != nil {
		return errors.Join(availErr, roomsErr)
	}

	s.Rebuild(ctx)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return errors.Join(availErr, roomsErr)
}

// commit stores a fetched snapshot and marks the feed healthy. It does
// nothing and reports false once ctx is done, so a cancel landing after the
// fetch returned still leaves the state untouched.
func (s *CatalogService) commit(ctx context.Context, name feed.Name, payload any, records int, apply func()) bool {
	now := time.Now().UTC()

	s.mu.Lock()
	if ctx.Err() != nil {
		s.mu.Unlock()
		return false
	}
	apply()
	st := s.statuses[name]
	st.Records = records
	st.HasSnapshot = true
	st.Restored = false
	st.LastSuccess = &now
	st.ConsecutiveFailures = 0
	s.mu.Unlock()

	s.metrics.FeedFetches.WithLabelValues(string(name), "success").Inc()
	s.metrics.FeedLastSuccess.WithLabelValues(string(name)).Set(float64(now.Unix()))
	s.metrics.FeedRecords.WithLabelValues(string(name)).Set(float64(records))

	if err := s.store.Save(ctx, name, payload); err != nil {
		s.logger.Warn("Failed to persist feed snapshot", zap.String("feed", string(name)), zap.Error(err))
	}
	return true
}

func (s *CatalogService) recordFailure(name feed.Name, err error) {
	now := time.Now().UTC()

	s.mu.Lock()
	st := s.statuses[name]
	st.LastError = err.Error()
	st.LastErrorAt = &now
	st.ConsecutiveFailures++
	failures := st.ConsecutiveFailures
	hasSnapshot := st.HasSnapshot
	s.mu.Unlock()

	s.metrics.FeedFetches.WithLabelValues(string(name), "failure").Inc()
	s.logger.Warn("Feed fetch failed, keeping previous snapshot",
		zap.String("feed", string(name)),
		zap.Int("consecutive_failures", failures),
		zap.Bool("has_snapshot", hasSnapshot),
		zap.Error(err),
	)
}

// Rebuild reconciles the latest snapshots into a new generation, publishes it
// and notifies subscribers. Once ctx is done it publishes nothing and returns
// the current generation.
func (s *CatalogService) Rebuild(ctx context.Context) *Generation {
	s.publishMu.Lock()
	defer s.publishMu.Unlock()

	if ctx.Err() != nil {
		return s.current.Load()
	}

	s.mu.Lock()
	catalog := s.catalog
	fallback := s.fallback
	availability := s.availability
	rooms := s.rooms
	s.mu.Unlock()

	var ambiguities []reconcile.Ambiguity
	opts := reconcile.Options{
		Appearance:  s.appearance,
		Logger:      s.logger,
		OnAmbiguity: func(a reconcile.Ambiguity) { ambiguities = append(ambiguities, a) },
	}

	buildings := reconcile.Reconcile(catalog, availability, opts)
	usedFallback := false
	if len(buildings) == 0 && len(fallback) > 0 {
		ambiguities = nil
		buildings = reconcile.Reconcile(fallback, availability, opts)
		usedFallback = len(buildings) > 0
	}
	if rooms == nil {
		rooms = []models.RoomRecord{}
	}

	s.seq++
	gen := &Generation{
		Seq:          s.seq,
		Buildings:    buildings,
		Availability: availability,
		Rooms:        rooms,
		Fallback:     usedFallback,
		BuiltAt:      time.Now().UTC(),
	}
	s.current.Store(gen)

	s.metrics.Generations.Inc()
	s.metrics.Buildings.Set(float64(len(buildings)))
	s.logger.Debug("Published catalog generation",
		zap.Uint64("seq", gen.Seq),
		zap.Int("buildings", len(buildings)),
		zap.Int("rooms", len(rooms)),
		zap.Bool("fallback", usedFallback),
	)

	if s.reporter != nil {
		// called with an empty list too, so a resolved case is forgotten
		s.metrics.Ambiguities.Add(float64(s.reporter.Report(ctx, ambiguities)))
	}

	for _, fn := range s.listeners {
		fn(gen)
	}
	return gen
}
