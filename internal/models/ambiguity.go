package models

import "time"

// MatchAmbiguity records a catalog class that matched more than one
// availability record. Kept for manual review of the feed naming.
type MatchAmbiguity struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	BuildingLabel  string    `gorm:"size:150;not null;index" json:"building_label"`
	ClassLabel     string    `gorm:"size:150;not null" json:"class_label"`
	CandidateCount int       `gorm:"not null" json:"candidate_count"`
	Candidates     string    `gorm:"type:text" json:"candidates"`
	Chosen         string    `gorm:"size:300" json:"chosen"`
	CreatedAt      time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName specifies the table name for MatchAmbiguity model
func (MatchAmbiguity) TableName() string {
	return "match_ambiguities"
}
