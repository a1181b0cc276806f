package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hearthward/household-platform/internal/models"
	"gorm.io/gorm"
)

var (
	// ErrAccessDenied is returned when the user has no ownership edge for the
	// resolved house. It is deliberately indistinguishable from "house does
	// not exist" so unauthorized callers cannot probe for resources.
	ErrAccessDenied = errors.New("access denied")
	// ErrHouseNotFound is returned when a house id does not exist
	ErrHouseNotFound = errors.New("house not found")
	// ErrRoomNotFound is returned when a room id does not exist
	ErrRoomNotFound = errors.New("room not found")
	// ErrDeviceNotFound is returned when a device id does not exist
	ErrDeviceNotFound = errors.New("device not found")
)

// AccessControlService decides whether a user may act on a house, room, or
// device. Every decision reduces to exactly one ownership-edge check after
// resolving the resource's owning house; nothing deeper in the hierarchy
// carries its own authorization state.
type AccessControlService struct {
	db *gorm.DB
}

// NewAccessControlService creates a new access control service
func NewAccessControlService(db *gorm.DB) *AccessControlService {
	return &AccessControlService{db: db}
}

// CanAccessHouse checks the ownership edge between a user and a house.
// A missing edge is ErrAccessDenied regardless of whether the house exists.
func (s *AccessControlService) CanAccessHouse(userID, houseID uuid.UUID) error {
	var count int64
	err := s.db.Model(&models.UserHouse{}).
		Where("user_id = ? AND house_id = ?", userID, houseID).
		Count(&count).Error
	if err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	if count == 0 {
		return ErrAccessDenied
	}
	return nil
}

// CanAccessRoom resolves the room's owning house and checks the edge
func (s *AccessControlService) CanAccessRoom(userID, roomID uuid.UUID) error {
	houseID, err := s.HouseForRoom(roomID)
	if err != nil {
		return err
	}
	return s.CanAccessHouse(userID, houseID)
}

// CanAccessDevice resolves the device's owning house (device -> room ->
// house) and checks the edge
func (s *AccessControlService) CanAccessDevice(userID, deviceID uuid.UUID) error {
	houseID, err := s.HouseForDevice(deviceID)
	if err != nil {
		return err
	}
	return s.CanAccessHouse(userID, houseID)
}

// CanAccessRoomInHouse authorizes a nested /houses/:house_id/rooms/:room_id
// path segment. The room must exist AND belong to the house named in the
// path; a valid room id from a different house is rejected even when the
// caller owns both houses. Missing rooms are reported as ErrAccessDenied on
// this path to avoid leaking existence.
func (s *AccessControlService) CanAccessRoomInHouse(userID, houseID, roomID uuid.UUID) error {
	if err := s.CanAccessHouse(userID, houseID); err != nil {
		return err
	}
	owningHouse, err := s.HouseForRoom(roomID)
	if err != nil {
		if errors.Is(err, ErrRoomNotFound) {
			return ErrAccessDenied
		}
		return err
	}
	if owningHouse != houseID {
		return ErrAccessDenied
	}
	return nil
}

// HouseForRoom resolves the owning house of a room
func (s *AccessControlService) HouseForRoom(roomID uuid.UUID) (uuid.UUID, error) {
	var room models.Room
	err := s.db.Select("id", "house_id").First(&room, "id = ?", roomID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, ErrRoomNotFound
		}
		return uuid.Nil, fmt.Errorf("database error: %w", err)
	}
	return room.HouseID, nil
}

// HouseForDevice resolves the owning house of a device via its room
func (s *AccessControlService) HouseForDevice(deviceID uuid.UUID) (uuid.UUID, error) {
	var row struct {
		HouseID uuid.UUID
	}
	err := s.db.Table("devices").
		Select("rooms.house_id AS house_id").
		Joins("JOIN rooms ON rooms.id = devices.room_id").
		Where("devices.id = ?", deviceID).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, ErrDeviceNotFound
		}
		return uuid.Nil, fmt.Errorf("database error: %w", err)
	}
	return row.HouseID, nil
}
