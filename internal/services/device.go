package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hearthward/household-platform/internal/models"
	"gorm.io/gorm"
)

// DeviceService handles device operations beneath a room
type DeviceService struct {
	db     *gorm.DB
	access *AccessControlService
}

// NewDeviceService creates a new device service
func NewDeviceService(db *gorm.DB, access *AccessControlService) *DeviceService {
	return &DeviceService{db: db, access: access}
}

// ListDevices returns the devices of a room after proving ownership
func (s *DeviceService) ListDevices(userID, roomID uuid.UUID) ([]models.Device, error) {
	if err := s.access.CanAccessRoom(userID, roomID); err != nil {
		return nil, err
	}

	devices := []models.Device{}
	if err := s.db.Where("room_id = ?", roomID).Find(&devices).Error; err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	return devices, nil
}

// CreateDevice creates a device under a room after proving ownership
func (s *DeviceService) CreateDevice(userID, roomID uuid.UUID, name string, deviceType models.DeviceType) (*models.Device, error) {
	if err := s.access.CanAccessRoom(userID, roomID); err != nil {
		return nil, err
	}

	device := &models.Device{
		RoomID:     roomID,
		Name:       name,
		DeviceType: deviceType,
	}
	if err := s.db.Create(device).Error; err != nil {
		return nil, fmt.Errorf("failed to create device: %w", err)
	}
	return device, nil
}

// GetDevice returns a device after proving ownership
func (s *DeviceService) GetDevice(userID, deviceID uuid.UUID) (*models.Device, error) {
	if err := s.access.CanAccessDevice(userID, deviceID); err != nil {
		return nil, err
	}

	var device models.Device
	if err := s.db.First(&device, "id = ?", deviceID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDeviceNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &device, nil
}

// UpdateDevice applies partial updates to a device. Only name and
// device_type may change; room_id is immutable (no reparenting).
func (s *DeviceService) UpdateDevice(userID, deviceID uuid.UUID, updates map[string]interface{}) (*models.Device, error) {
	if err := s.access.CanAccessDevice(userID, deviceID); err != nil {
		return nil, err
	}

	allowed := map[string]interface{}{}
	for _, key := range []string{"name", "device_type"} {
		if value, ok := updates[key]; ok {
			allowed[key] = value
		}
	}
	if len(allowed) > 0 {
		if err := s.db.Model(&models.Device{}).Where("id = ?", deviceID).Updates(allowed).Error; err != nil {
			return nil, fmt.Errorf("failed to update device: %w", err)
		}
	}
	return s.GetDevice(userID, deviceID)
}

// DeleteDevice removes a device and its metrics after proving ownership
func (s *DeviceService) DeleteDevice(userID, deviceID uuid.UUID) error {
	if err := s.access.CanAccessDevice(userID, deviceID); err != nil {
		return err
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("device_id = ?", deviceID).Delete(&models.DeviceMetric{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Device{}, "id = ?", deviceID).Error
	})
	if err != nil {
		return fmt.Errorf("failed to delete device: %w", err)
	}
	return nil
}
