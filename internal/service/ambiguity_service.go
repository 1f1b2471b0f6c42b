package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"inpatient-room-catalog/internal/models"
	"inpatient-room-catalog/internal/reconcile"
)

// AmbiguityStore persists ambiguity records. Implemented by
// repository.AmbiguityRepository.
type AmbiguityStore interface {
	CreateAmbiguity(ctx context.Context, a *models.MatchAmbiguity) error
	ListRecent(ctx context.Context, limit int) ([]models.MatchAmbiguity, error)
}

const defaultAmbiguityLimit = 50

// AmbiguityService records multi-match cases for review. A case that was
// already present in the previous generation is not written again.
type AmbiguityService struct {
	store  AmbiguityStore
	logger *zap.Logger

	mu   sync.Mutex
	last map[string]struct{}
}

// NewAmbiguityService creates the reporter. store may be nil when no
// database is configured, in which case cases are only logged.
func NewAmbiguityService(store AmbiguityStore, logger *zap.Logger) *AmbiguityService {
	return &AmbiguityService{
		store:  store,
		logger: logger,
		last:   make(map[string]struct{}),
	}
}

// Report logs and persists the ambiguities of one generation and returns how
// many of them were not present in the previous one.
func (s *AmbiguityService) Report(ctx context.Context, ambiguities []reconcile.Ambiguity) int {
	s.mu.Lock()
	current := make(map[string]struct{}, len(ambiguities))
	var fresh []reconcile.Ambiguity
	for _, a := range ambiguities {
		k := ambiguityKey(a)
		if _, dup := current[k]; dup {
			continue
		}
		current[k] = struct{}{}
		if _, seen := s.last[k]; !seen {
			fresh = append(fresh, a)
		}
	}
	s.last = current
	s.mu.Unlock()

	for _, a := range fresh {
		record := toAmbiguityRecord(a)
		s.logger.Warn("New availability match ambiguity",
			zap.String("building", record.BuildingLabel),
			zap.String("class", record.ClassLabel),
			zap.Int("candidates", record.CandidateCount),
			zap.String("chosen", record.Chosen),
		)
		if s.store == nil {
			continue
		}
		if err := s.store.CreateAmbiguity(ctx, record); err != nil {
			s.logger.Error("Failed to persist match ambiguity", zap.Error(err))
		}
	}
	return len(fresh)
}

// ListRecent returns stored ambiguity records, newest first.
func (s *AmbiguityService) ListRecent(ctx context.Context, limit int) ([]models.MatchAmbiguity, error) {
	if s.store == nil {
		return []models.MatchAmbiguity{}, nil
	}
	if limit <= 0 || limit > 500 {
		limit = defaultAmbiguityLimit
	}
	return s.store.ListRecent(ctx, limit)
}

func candidateLabel(r models.AvailabilityRecord) string {
	return fmt.Sprintf("%s / %s", r.BuildingLabel, r.ClassLabel)
}

func ambiguityKey(a reconcile.Ambiguity) string {
	parts := make([]string, 0, len(a.Candidates)+2)
	parts = append(parts, reconcile.Normalize(a.BuildingLabel), reconcile.Normalize(a.ClassLabel))
	for _, c := range a.Candidates {
		parts = append(parts, candidateLabel(c))
	}
	return strings.Join(parts, "|")
}

func toAmbiguityRecord(a reconcile.Ambiguity) *models.MatchAmbiguity {
	labels := make([]string, 0, len(a.Candidates))
	for _, c := range a.Candidates {
		labels = append(labels, candidateLabel(c))
	}
	record := &models.MatchAmbiguity{
		BuildingLabel:  a.BuildingLabel,
		ClassLabel:     a.ClassLabel,
		CandidateCount: len(a.Candidates),
		Candidates:     strings.Join(labels, "; "),
	}
	if len(labels) > 0 {
		record.Chosen = labels[0]
	}
	return record
}
