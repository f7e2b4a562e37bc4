package model

import (
	"time"

	"github.com/google/uuid"
)

// Ingredient is an item in a user's pantry.
type Ingredient struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Name        string     `gorm:"size:255;not null" json:"name"`
	Quantity    float64    `gorm:"not null" json:"quantity"`
	Unit        string     `gorm:"size:50;not null" json:"unit"`
	Category    *string    `gorm:"size:100" json:"category"`
	ExpiryDate  *time.Time `json:"expiry_date"`
	UserID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	LastUpdated time.Time  `gorm:"not null" json:"last_updated"`
}
