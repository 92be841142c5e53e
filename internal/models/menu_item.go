package models

import (
	"github.com/google/uuid"
)

// MenuItem is one dish on a restaurant's menu.
type MenuItem struct {
	BaseModel

	RestaurantID uuid.UUID `gorm:"type:uuid;not null;index" json:"restaurantId"`

	Category    string  `gorm:"size:100" json:"category"`
	Name        string  `gorm:"size:255;not null" json:"name"`
	Description string  `gorm:"type:text" json:"description,omitempty"`
	Price       float64 `json:"price"`
	Available   bool    `gorm:"not null" json:"available"`
	SortOrder   int     `json:"sortOrder"`
}

// TableName returns the table name.
func (MenuItem) TableName() string {
	return "menu_items"
}
