package repository

import (
	"context"
	"fmt"

	"inpatient-room-catalog/internal/feed"
	"inpatient-room-catalog/internal/models"

	"gorm.io/gorm"
)

type CatalogRepository struct {
	db        *gorm.DB
	validator *feed.Validator
}

func NewCatalogRepo(db *gorm.DB, validator *feed.Validator) *CatalogRepository {
	return &CatalogRepository{db: db, validator: validator}
}

// FetchCatalog retrieves all active catalog items by display rank. Rows that
// fail validation are dropped like malformed feed records.
// Implements feed.CatalogSource.
func (r *CatalogRepository) FetchCatalog(ctx context.Context) ([]models.CatalogItem, error) {
	var items []models.CatalogItem
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("display_order ASC, id ASC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load service catalog: %w", err)
	}
	return feed.Filter(r.validator, feed.Catalog, items), nil
}
