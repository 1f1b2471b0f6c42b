package reconcile

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"inpatient-room-catalog/internal/models"
)

const (
	// CapacityUnknownLabel is shown when no availability record matched.
	CapacityUnknownLabel = "Cek Ketersediaan"
	// PriceOnRequestLabel is shown for catalog items without a price.
	PriceOnRequestLabel = "Hubungi Kami"
)

var slugSeparators = regexp.MustCompile(`[^\p{L}\p{M}\p{N}]+`)

// FormatPrice renders a nightly rate with Indonesian digit grouping,
// e.g. "Rp 250.000 / malam".
func FormatPrice(price *float64) string {
	if price == nil {
		return PriceOnRequestLabel
	}
	p := message.NewPrinter(language.Indonesian)
	return p.Sprintf("Rp %d / malam", int64(math.Round(*price)))
}

// FormatCapacity renders the bed availability for a class.
func FormatCapacity(rec *models.AvailabilityRecord) string {
	if rec == nil {
		return CapacityUnknownLabel
	}
	return fmt.Sprintf("Tersedia %d / %d Bed", rec.Available, rec.Total)
}

// SplitFeatures turns the catalog's comma separated facility list into items.
func SplitFeatures(features string) []string {
	out := make([]string, 0)
	for _, f := range strings.Split(features, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// Slug derives a building id from its label. Letters and digits of any
// script are kept; everything else becomes a single hyphen. A label with
// no letters or digits yields "".
func Slug(label string) string {
	lowered := cases.Lower(language.Indonesian).String(label)
	return strings.Trim(slugSeparators.ReplaceAllString(lowered, "-"), "-")
}
