package reconcile

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"inpatient-room-catalog/internal/models"
)

// Ambiguity is a catalog class that matched several availability records.
// The first candidate in feed order is the one used.
type Ambiguity struct {
	BuildingLabel string
	ClassLabel    string
	Candidates    []models.AvailabilityRecord
}

// Options carries the collaborators Reconcile needs from its caller.
type Options struct {
	Appearance  *AppearanceTable
	Logger      *zap.Logger
	OnAmbiguity func(Ambiguity)
}

// Reconcile turns catalog items into Buildings, annotating every class with
// the availability record that matches it. Inactive items are skipped and
// categories keep the order in which they first appear. An empty or fully
// inactive catalog yields an empty, non-nil slice.
func Reconcile(items []models.CatalogItem, availability []models.AvailabilityRecord, opts Options) []models.Building {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	buildings := make([]models.Building, 0)
	index := make(map[string]int)
	ids := make(map[string]struct{})

	for _, item := range items {
		if !item.IsActive {
			continue
		}

		category := strings.TrimSpace(item.Category)
		pos, seen := index[category]
		if !seen {
			look := opts.Appearance.Resolve(category)
			buildings = append(buildings, models.Building{
				ID:          uniqueID(Slug(category), ids),
				Name:        category,
				Description: look.Description,
				ColorToken:  look.Color,
				ImageRef:    look.Image,
				Classes:     make([]models.RoomClass, 0),
			})
			pos = len(buildings) - 1
			index[category] = pos
		}

		matches := MatchAllAvailability(category, item.Name, availability)
		var matched *models.AvailabilityRecord
		if len(matches) > 0 {
			matched = &matches[0]
		}
		if len(matches) > 1 {
			logger.Warn("Catalog class matches several availability records",
				zap.String("building", category),
				zap.String("class", item.Name),
				zap.Int("candidates", len(matches)),
			)
			if opts.OnAmbiguity != nil {
				opts.OnAmbiguity(Ambiguity{
					BuildingLabel: category,
					ClassLabel:    item.Name,
					Candidates:    matches,
				})
			}
		}

		buildings[pos].Classes = append(buildings[pos].Classes, models.RoomClass{
			Name:          strings.TrimSpace(item.Name),
			Description:   item.Description,
			Price:         item.Price,
			DisplayPrice:  FormatPrice(item.Price),
			Facilities:    SplitFeatures(item.Features),
			CapacityLabel: FormatCapacity(matched),
			Availability:  matched,
		})
	}

	return buildings
}

// uniqueID returns slug, or slug with a numeric suffix when another
// category already took it, and records the result in taken.
func uniqueID(slug string, taken map[string]struct{}) string {
	if slug == "" {
		slug = "gedung"
	}
	id := slug
	for n := 2; ; n++ {
		if _, used := taken[id]; !used {
			break
		}
		id = fmt.Sprintf("%s-%d", slug, n)
	}
	taken[id] = struct{}{}
	return id
}
