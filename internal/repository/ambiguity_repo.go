package repository

import (
	"context"

	"inpatient-room-catalog/internal/models"

	"gorm.io/gorm"
)

type AmbiguityRepository struct {
	db *gorm.DB
}

func NewAmbiguityRepo(db *gorm.DB) *AmbiguityRepository {
	return &AmbiguityRepository{db: db}
}

// CreateAmbiguity records a multi-match case for review
func (r *AmbiguityRepository) CreateAmbiguity(ctx context.Context, a *models.MatchAmbiguity) error {
	return r.db.WithContext(ctx).Create(a).Error
}

// ListRecent returns the newest ambiguity records first
func (r *AmbiguityRepository) ListRecent(ctx context.Context, limit int) ([]models.MatchAmbiguity, error) {
	var records []models.MatchAmbiguity
	err := r.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&records).Error
	return records, err
}
