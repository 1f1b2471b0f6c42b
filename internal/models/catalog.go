package models

import "time"

// CatalogItem represents one row of the service catalog: a class of
// accommodation (name) offered inside a building (category).
// Authored by staff through the admin tooling; read-only here.
type CatalogItem struct {
	ID          uint      `gorm:"primaryKey" json:"-"`
	Category    string    `gorm:"size:150;not null;index" json:"category" validate:"required"`
	Name        string    `gorm:"size:150;not null" json:"name" validate:"required"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	Price       *float64  `gorm:"type:decimal(14,2)" json:"price,omitempty" validate:"omitempty,gte=0"`
	Features    string    `gorm:"type:text;comment:Comma separated facilities" json:"features,omitempty"`
	IsActive    bool      `gorm:"default:true" json:"isActive"`
	Order       int       `gorm:"column:display_order;default:0" json:"order"`
	UpdatedAt   time.Time `gorm:"default:CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP" json:"-"`
}

// TableName specifies the table name for CatalogItem model
func (CatalogItem) TableName() string {
	return "service_catalog"
}
