package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RoomType represents the type of room
type RoomType string

const (
	RoomTypeLivingRoom RoomType = "living_room"
	RoomTypeBedroom    RoomType = "bedroom"
	RoomTypeKitchen    RoomType = "kitchen"
	RoomTypeBathroom   RoomType = "bathroom"
	RoomTypeGarage     RoomType = "garage"
	RoomTypeOther      RoomType = "other"
)

// Room represents a room inside a house. HouseID is immutable after
// creation; rooms are never reparented.
type Room struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	HouseID   uuid.UUID `gorm:"type:uuid;not null;index" json:"house_id"`
	Name      string    `gorm:"not null" json:"name"`
	RoomType  RoomType  `gorm:"not null" json:"room_type"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate hook to generate UUID
func (r *Room) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.RoomType == "" {
		r.RoomType = RoomTypeOther
	}
	return nil
}

// TableName overrides the default table name
func (Room) TableName() string {
	return "rooms"
}
