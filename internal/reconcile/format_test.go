package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"inpatient-room-catalog/internal/models"
)

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, PriceOnRequestLabel, FormatPrice(nil))
	assert.Equal(t, "Rp 1.500.000 / malam", FormatPrice(price(1500000)))
	assert.Equal(t, "Rp 750 / malam", FormatPrice(price(749.6)))
}

func TestFormatCapacity(t *testing.T) {
	assert.Equal(t, CapacityUnknownLabel, FormatCapacity(nil))
	assert.Equal(t, "Tersedia 0 / 4 Bed", FormatCapacity(&models.AvailabilityRecord{Total: 4}))
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "gedung-zam-zam", Slug("Gedung Zam-zam"))
	assert.Equal(t, "paviliun-as-syifa", Slug("  Paviliun As-Syifa! "))
	assert.Equal(t, "مينى", Slug("مينى"))
	assert.Equal(t, "gedung-ümmü", Slug("Gedung Ümmü"))
	assert.Equal(t, "", Slug(" -- "))
}

func TestSplitFeatures(t *testing.T) {
	assert.Empty(t, SplitFeatures(""))
	assert.Equal(t, []string{"AC", "Sofa bed"}, SplitFeatures(" AC ,Sofa bed,"))
}
