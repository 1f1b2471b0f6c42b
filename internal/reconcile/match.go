package reconcile

import "inpatient-room-catalog/internal/models"

// MatchAvailability returns the first availability record whose building and
// class labels both match, or nil when none does. A nil result means the
// availability is unknown, not that the class has zero beds.
func MatchAvailability(building, class string, records []models.AvailabilityRecord) *models.AvailabilityRecord {
	key := newPair(building, class)
	for i := range records {
		if key.matches(records[i].BuildingLabel, records[i].ClassLabel) {
			rec := records[i]
			return &rec
		}
	}
	return nil
}

// MatchAllAvailability returns every matching record in feed order.
// More than one result is an ambiguity the feeds do not resolve.
func MatchAllAvailability(building, class string, records []models.AvailabilityRecord) []models.AvailabilityRecord {
	key := newPair(building, class)
	var out []models.AvailabilityRecord
	for _, rec := range records {
		if key.matches(rec.BuildingLabel, rec.ClassLabel) {
			out = append(out, rec)
		}
	}
	return out
}

// FilterRooms returns the rooms belonging to the building+class pair, in feed
// order. The result is never nil; no provisioned rooms is an empty slice.
func FilterRooms(building, class string, rooms []models.RoomRecord) []models.RoomRecord {
	key := newPair(building, class)
	out := make([]models.RoomRecord, 0)
	for _, room := range rooms {
		if key.matches(room.BuildingLabel, room.ClassLabel) {
			out = append(out, room)
		}
	}
	return out
}

// StatusCounts tallies rooms per feed status.
func StatusCounts(rooms []models.RoomRecord) map[models.RoomStatus]int {
	counts := map[models.RoomStatus]int{
		models.RoomStatusOccupied:     0,
		models.RoomStatusVacant:       0,
		models.RoomStatusBeingCleaned: 0,
	}
	for _, room := range rooms {
		counts[room.Status]++
	}
	return counts
}
