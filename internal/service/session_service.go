package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"inpatient-room-catalog/internal/metrics"
	"inpatient-room-catalog/internal/selection"
	apperrors "inpatient-room-catalog/pkg/errors"
)

// SessionView is a session's id plus its current selection.
type SessionView struct {
	ID         string          `json:"id"`
	Selection  selection.State `json:"selection"`
	Generation uint64          `json:"generation"`
	ExpiresAt  time.Time       `json:"expires_at"`
}

type session struct {
	machine  *selection.Machine
	lastSeen time.Time
	gen      uint64
}

// SessionService holds one selection state machine per visitor and keeps
// every machine bound to the current catalog generation.
type SessionService struct {
	catalog *CatalogService
	ttl     time.Duration
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

func NewSessionService(catalog *CatalogService, ttl time.Duration, m *metrics.Metrics, logger *zap.Logger) *SessionService {
	if m == nil {
		m = metrics.NewUnregistered()
	}
	return &SessionService{
		catalog:  catalog,
		ttl:      ttl,
		metrics:  m,
		logger:   logger,
		now:      time.Now,
		sessions: make(map[string]*session),
	}
}

// Create starts a new session at the building step.
func (s *SessionService) Create() SessionView {
	id := uuid.New().String()
	sess := &session{
		machine:  selection.New(),
		lastSeen: s.now(),
		gen:      s.catalog.Current().Seq,
	}

	s.mu.Lock()
	s.sessions[id] = sess
	count := len(s.sessions)
	s.mu.Unlock()

	s.metrics.ActiveSessions.Set(float64(count))
	return s.view(id, sess)
}

// Get returns the session's current selection.
func (s *SessionService) Get(id string) (SessionView, error) {
	return s.apply(id, "", func(*session) error { return nil })
}

// Delete ends a session.
func (s *SessionService) Delete(id string) error {
	s.mu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	count := len(s.sessions)
	s.mu.Unlock()

	if !ok {
		return apperrors.NewNotFoundError("session not found")
	}
	s.metrics.ActiveSessions.Set(float64(count))
	return nil
}

// SelectBuilding picks a building by id from the current generation.
func (s *SessionService) SelectBuilding(id, buildingID string) (SessionView, error) {
	return s.apply(id, selection.SelectBuilding, func(sess *session) error {
		b, ok := s.catalog.Current().FindBuilding(buildingID)
		if !ok {
			return apperrors.NewNotFoundError("building not found")
		}
		sess.machine.SelectBuilding(*b)
		return nil
	})
}

// SelectClass picks a class of the selected building by name.
func (s *SessionService) SelectClass(id, className string) (SessionView, error) {
	return s.apply(id, selection.SelectClass, func(sess *session) error {
		c, ok := sess.machine.State().Building.FindClass(className)
		if !ok {
			return apperrors.NewNotFoundError("class not found in selected building")
		}
		sess.machine.SelectClass(*c)
		return nil
	})
}

// SelectRoom picks a room of the selected building and class by room id.
func (s *SessionService) SelectRoom(id, roomID string) (SessionView, error) {
	return s.apply(id, selection.SelectRoom, func(sess *session) error {
		st := sess.machine.State()
		for _, r := range s.catalog.GetRoomsFor(st.Building.Name, st.Class.Name) {
			if r.RoomID == roomID {
				sess.machine.SelectRoom(r)
				return nil
			}
		}
		return apperrors.NewNotFoundError("room not found for selected class")
	})
}

// Back moves the session one step up.
func (s *SessionService) Back(id string) (SessionView, error) {
	return s.apply(id, selection.Back, func(sess *session) error {
		sess.machine.Back()
		return nil
	})
}

// Reset returns the session to the building step.
func (s *SessionService) Reset(id string) (SessionView, error) {
	return s.apply(id, selection.Reset, func(sess *session) error {
		sess.machine.Reset()
		return nil
	})
}

// Rooms lists the rooms of the session's selected class.
func (s *SessionService) Rooms(id string) (*RoomListing, error) {
	var listing *RoomListing
	_, err := s.apply(id, "", func(sess *session) error {
		st := sess.machine.State()
		if st.Class == nil {
			return apperrors.NewConflictError("no class selected")
		}
		listing = newRoomListing(st.Building, st.Class, s.catalog.GetRoomsFor(st.Building.Name, st.Class.Name))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return listing, nil
}

// apply runs fn against a live session under the lock. A non-empty t is
// checked with Can first so an illegal transition becomes a conflict error.
func (s *SessionService) apply(id string, t selection.Transition, fn func(*session) error) (SessionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok || s.expired(sess) {
		delete(s.sessions, id)
		return SessionView{}, apperrors.NewNotFoundError("session not found")
	}
	if t != "" && !sess.machine.Can(t) {
		return SessionView{}, apperrors.NewConflictError(
			"cannot " + string(t) + " from step " + string(sess.machine.State().Step))
	}
	if err := fn(sess); err != nil {
		return SessionView{}, err
	}

	sess.lastSeen = s.now()
	return s.view(id, sess), nil
}

func (s *SessionService) view(id string, sess *session) SessionView {
	return SessionView{
		ID:         id,
		Selection:  sess.machine.State(),
		Generation: sess.gen,
		ExpiresAt:  sess.lastSeen.Add(s.ttl),
	}
}

func (s *SessionService) expired(sess *session) bool {
	return s.ttl > 0 && s.now().Sub(sess.lastSeen) > s.ttl
}

// OnGeneration re-resolves every session against gen and drops expired
// ones. Subscribed to the catalog service.
func (s *SessionService) OnGeneration(gen *Generation) {
	s.mu.Lock()
	var resets, dropped int
	for id, sess := range s.sessions {
		if s.expired(sess) {
			delete(s.sessions, id)
			continue
		}
		switch sess.machine.Resolve(gen.Buildings, gen.RoomsFor) {
		case selection.OutcomeReset:
			resets++
		case selection.OutcomeRoomDropped:
			dropped++
		}
		sess.gen = gen.Seq
	}
	count := len(s.sessions)
	s.mu.Unlock()

	s.metrics.ActiveSessions.Set(float64(count))
	if resets > 0 {
		s.metrics.SessionsReset.Add(float64(resets))
	}
	if resets > 0 || dropped > 0 {
		s.logger.Info("Sessions re-resolved after refresh",
			zap.Uint64("generation", gen.Seq),
			zap.Int("reset", resets),
			zap.Int("room_dropped", dropped),
		)
	}
}

// Sweep drops expired sessions every interval until ctx is cancelled.
func (s *SessionService) Sweep(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepExpired()
		}
	}
}

func (s *SessionService) sweepExpired() int {
	s.mu.Lock()
	removed := 0
	for id, sess := range s.sessions {
		if s.expired(sess) {
			delete(s.sessions, id)
			removed++
		}
	}
	count := len(s.sessions)
	s.mu.Unlock()

	s.metrics.ActiveSessions.Set(float64(count))
	if removed > 0 {
		s.logger.Debug("Expired sessions removed", zap.Int("count", removed))
	}
	return removed
}
