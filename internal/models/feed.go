package models

// RoomStatus is the per-room status constant defined by the room feed.
// Values are kept verbatim from the feed.
type RoomStatus string

const (
	RoomStatusOccupied     RoomStatus = "ISI"
	RoomStatusVacant       RoomStatus = "KOSONG"
	RoomStatusBeingCleaned RoomStatus = "DIBERSIHKAN"
)

// AvailabilityRecord is one bed-availability count from the hospital's core system.
type AvailabilityRecord struct {
	BuildingLabel string `json:"buildingName" validate:"required"`
	ClassLabel    string `json:"class" validate:"required"`
	Total         int    `json:"total" validate:"gte=0"`
	Available     int    `json:"available" validate:"gte=0,ltefield=Total"`
}

// RoomRecord is one concrete room from the room inventory feed.
type RoomRecord struct {
	RoomID        string     `json:"id" validate:"required"`
	BuildingLabel string     `json:"buildingName" validate:"required"`
	ClassLabel    string     `json:"class" validate:"required"`
	Status        RoomStatus `json:"status" validate:"oneof=ISI KOSONG DIBERSIHKAN"`
	Price         float64    `json:"price" validate:"gte=0"`
}
