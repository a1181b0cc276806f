package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DeviceType represents the type of device
type DeviceType string

const (
	DeviceTypeSensor     DeviceType = "sensor"
	DeviceTypeThermostat DeviceType = "thermostat"
	DeviceTypeLight      DeviceType = "light"
	DeviceTypePlug       DeviceType = "plug"
	DeviceTypeCamera     DeviceType = "camera"
	DeviceTypeOther      DeviceType = "other"
)

// Device represents a device installed in a room. RoomID is immutable
// after creation; devices are never reparented.
type Device struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name       string     `gorm:"not null" json:"name"`
	DeviceType DeviceType `gorm:"not null" json:"device_type"`
	RoomID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"room_id"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// BeforeCreate hook to generate UUID
func (d *Device) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.DeviceType == "" {
		d.DeviceType = DeviceTypeOther
	}
	return nil
}

// TableName overrides the default table name
func (Device) TableName() string {
	return "devices"
}
