package feed

import (
	"context"
	"fmt"
	"os"

	"inpatient-room-catalog/internal/models"
)

// FileCatalog reads catalog items from a JSON file. Used as a catalog source
// for static deployments and as the fallback catalog.
type FileCatalog struct {
	path      string
	validator *Validator
}

func NewFileCatalog(path string, validator *Validator) *FileCatalog {
	return &FileCatalog{path: path, validator: validator}
}

// FetchCatalog implements CatalogSource.
func (f *FileCatalog) FetchCatalog(ctx context.Context) ([]models.CatalogItem, error) {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var items []models.CatalogItem
	if err := decodeList(raw, &items); err != nil {
		return nil, fmt.Errorf("catalog file %s: %w", f.path, err)
	}
	items = Filter(f.validator, Catalog, items)
	SortCatalog(items)
	return items, nil
}
