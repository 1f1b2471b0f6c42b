// Package feed fetches the three upstream feeds: service catalog,
// bed availability and room inventory.
package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"inpatient-room-catalog/internal/models"
)

// Name identifies one upstream feed.
type Name string

const (
	Catalog      Name = "catalog"
	Availability Name = "availability"
	Rooms        Name = "rooms"
)

// CatalogSource yields the service catalog ordered by display rank.
type CatalogSource interface {
	FetchCatalog(ctx context.Context) ([]models.CatalogItem, error)
}

// AvailabilitySource yields the current bed-availability snapshot.
type AvailabilitySource interface {
	FetchAvailability(ctx context.Context) ([]models.AvailabilityRecord, error)
}

// RoomSource yields the current room inventory snapshot.
type RoomSource interface {
	FetchRooms(ctx context.Context) ([]models.RoomRecord, error)
}

// decodeList accepts either a bare JSON array or a {"data": [...]} envelope.
func decodeList(body []byte, out any) error {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return fmt.Errorf("empty response body")
	}

	if body[0] == '{' {
		var envelope struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(body, &envelope); err != nil {
			return fmt.Errorf("failed to parse envelope: %w", err)
		}
		if len(envelope.Data) == 0 {
			return fmt.Errorf("envelope has no data field")
		}
		body = envelope.Data
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse records: %w", err)
	}
	return nil
}

// SortCatalog orders items by display rank, keeping feed order for ties.
func SortCatalog(items []models.CatalogItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Order < items[j].Order
	})
}
