package models

// Building is a derived grouping of catalog classes that share a category label.
// Rebuilt on every reconciliation pass and never mutated afterwards.
type Building struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	ColorToken  string      `json:"color"`
	ImageRef    string      `json:"image"`
	Classes     []RoomClass `json:"classes"`
}

// RoomClass is one accommodation class inside a Building.
type RoomClass struct {
	Name          string              `json:"name"`
	Description   string              `json:"description"`
	Price         *float64            `json:"price,omitempty"`
	DisplayPrice  string              `json:"displayPrice"`
	Facilities    []string            `json:"facilities"`
	CapacityLabel string              `json:"capacityLabel"`
	Availability  *AvailabilityRecord `json:"availability,omitempty"`
}

// FindClass returns the class with exactly the given name.
func (b *Building) FindClass(name string) (*RoomClass, bool) {
	for i := range b.Classes {
		if b.Classes[i].Name == name {
			return &b.Classes[i], true
		}
	}
	return nil, false
}
