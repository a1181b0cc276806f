package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hearthward/household-platform/internal/models"
	"gorm.io/gorm"
)

// ErrHouseAddressExists is returned when creating a house with an address
// that is already registered
var ErrHouseAddressExists = errors.New("house with this address already exists")

// HouseService handles house operations
type HouseService struct {
	db     *gorm.DB
	access *AccessControlService
}

// NewHouseService creates a new house service
func NewHouseService(db *gorm.DB, access *AccessControlService) *HouseService {
	return &HouseService{db: db, access: access}
}

// CreateHouse creates a house and the ownership edge to its creator in one
// transaction
func (s *HouseService) CreateHouse(userID uuid.UUID, name, address string) (*models.House, error) {
	var existing models.House
	if err := s.db.Where("address = ?", address).First(&existing).Error; err == nil {
		return nil, ErrHouseAddressExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("database error: %w", err)
	}

	house := &models.House{
		Name:    name,
		Address: address,
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(house).Error; err != nil {
			return err
		}
		return tx.Create(&models.UserHouse{UserID: userID, HouseID: house.ID}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create house: %w", err)
	}
	return house, nil
}

// ListHouses returns the houses owned by a user
func (s *HouseService) ListHouses(userID uuid.UUID) ([]models.House, error) {
	houses := []models.House{}
	err := s.db.
		Joins("JOIN user_houses ON user_houses.house_id = houses.id").
		Where("user_houses.user_id = ?", userID).
		Find(&houses).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list houses: %w", err)
	}
	return houses, nil
}

// GetHouse returns a house after proving ownership
func (s *HouseService) GetHouse(userID, houseID uuid.UUID) (*models.House, error) {
	if err := s.access.CanAccessHouse(userID, houseID); err != nil {
		return nil, err
	}

	var house models.House
	if err := s.db.First(&house, "id = ?", houseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrHouseNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &house, nil
}

// DeleteHouse removes a house with its rooms, devices, metrics, and
// ownership edges in one transaction
func (s *HouseService) DeleteHouse(userID, houseID uuid.UUID) error {
	if err := s.access.CanAccessHouse(userID, houseID); err != nil {
		return err
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`DELETE FROM device_metrics WHERE device_id IN (
			SELECT d.id FROM devices d JOIN rooms r ON d.room_id = r.id WHERE r.house_id = ?)`, houseID).Error; err != nil {
			return err
		}
		if err := tx.Exec(`DELETE FROM devices WHERE room_id IN (
			SELECT id FROM rooms WHERE house_id = ?)`, houseID).Error; err != nil {
			return err
		}
		if err := tx.Where("house_id = ?", houseID).Delete(&models.Room{}).Error; err != nil {
			return err
		}
		if err := tx.Where("house_id = ?", houseID).Delete(&models.UserHouse{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.House{}, "id = ?", houseID).Error
	})
	if err != nil {
		return fmt.Errorf("failed to delete house: %w", err)
	}
	return nil
}
