package reconcile

import (
	"encoding/json"
	"fmt"
	"os"
)

// Appearance is how a building is presented: colour token, image and blurb.
type Appearance struct {
	Color       string `json:"color"`
	Image       string `json:"image"`
	Description string `json:"description"`
}

// AppearanceTable maps normalized building labels to their Appearance.
// Lookups that miss fall back to Default.
type AppearanceTable struct {
	Default Appearance
	entries map[string]Appearance
}

// NewAppearanceTable builds a table from raw building labels.
func NewAppearanceTable(def Appearance, byLabel map[string]Appearance) *AppearanceTable {
	t := &AppearanceTable{Default: def, entries: make(map[string]Appearance, len(byLabel))}
	for label, a := range byLabel {
		t.entries[Normalize(label)] = a
	}
	return t
}

// LoadAppearanceFile reads a JSON object of label -> Appearance.
func LoadAppearanceFile(path string, def Appearance) (*AppearanceTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read appearance file: %w", err)
	}

	var byLabel map[string]Appearance
	if err := json.Unmarshal(raw, &byLabel); err != nil {
		return nil, fmt.Errorf("failed to parse appearance file: %w", err)
	}
	return NewAppearanceTable(def, byLabel), nil
}

// Resolve returns the appearance for a building label. Empty fields of a
// matching entry are filled from Default.
func (t *AppearanceTable) Resolve(label string) Appearance {
	if t == nil {
		return Appearance{}
	}
	a, ok := t.entries[Normalize(label)]
	if !ok {
		return t.Default
	}
	if a.Color == "" {
		a.Color = t.Default.Color
	}
	if a.Image == "" {
		a.Image = t.Default.Image
	}
	return a
}
