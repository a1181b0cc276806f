package services

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/hearthward/household-platform/internal/models"
	"gorm.io/gorm"
)

// RoomService handles room operations beneath a house
type RoomService struct {
	db     *gorm.DB
	access *AccessControlService
}

// NewRoomService creates a new room service
func NewRoomService(db *gorm.DB, access *AccessControlService) *RoomService {
	return &RoomService{db: db, access: access}
}

// ListRooms returns the rooms of a house after proving ownership
func (s *RoomService) ListRooms(userID, houseID uuid.UUID) ([]models.Room, error) {
	if err := s.access.CanAccessHouse(userID, houseID); err != nil {
		return nil, err
	}

	rooms := []models.Room{}
	if err := s.db.Where("house_id = ?", houseID).Find(&rooms).Error; err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	return rooms, nil
}

// CreateRoom creates a room under a house after proving ownership
func (s *RoomService) CreateRoom(userID, houseID uuid.UUID, name string, roomType models.RoomType) (*models.Room, error) {
	if err := s.access.CanAccessHouse(userID, houseID); err != nil {
		return nil, err
	}

	room := &models.Room{
		HouseID:  houseID,
		Name:     name,
		RoomType: roomType,
	}
	if err := s.db.Create(room).Error; err != nil {
		return nil, fmt.Errorf("failed to create room: %w", err)
	}
	return room, nil
}

// DeleteRoom removes a room addressed through its house segment. The
// house/room pairing is verified, not just the edge: a room id from a
// different house is rejected even when the caller owns both.
func (s *RoomService) DeleteRoom(userID, houseID, roomID uuid.UUID) error {
	if err := s.access.CanAccessRoomInHouse(userID, houseID, roomID); err != nil {
		return err
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`DELETE FROM device_metrics WHERE device_id IN (
			SELECT id FROM devices WHERE room_id = ?)`, roomID).Error; err != nil {
			return err
		}
		if err := tx.Where("room_id = ?", roomID).Delete(&models.Device{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Room{}, "id = ?", roomID).Error
	})
	if err != nil {
		return fmt.Errorf("failed to delete room: %w", err)
	}
	return nil
}
