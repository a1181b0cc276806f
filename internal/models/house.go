package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// House represents a household managed by one or more users
type House struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Address   string    `gorm:"not null;uniqueIndex" json:"address"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate hook to generate UUID
func (h *House) BeforeCreate(tx *gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}

// TableName overrides the default table name
func (House) TableName() string {
	return "houses"
}

// UserHouse is the ownership edge between a user and a house.
// It is the sole authorization fact for the entire hierarchy: access to a
// room, device, or metric is always derived by walking up to its house and
// checking this edge.
type UserHouse struct {
	UserID  uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	HouseID uuid.UUID `gorm:"type:uuid;primaryKey" json:"house_id"`
}

// TableName overrides the default table name
func (UserHouse) TableName() string {
	return "user_houses"
}
