package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hearthward/household-platform/internal/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB creates an in-memory SQLite database for testing.
// This is a shared helper used by all test files in the services package.
func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "Failed to open in-memory database")

	err = db.AutoMigrate(
		&models.User{},
		&models.House{},
		&models.UserHouse{},
		&models.Room{},
		&models.Device{},
		&models.DeviceMetric{},
		&models.APIToken{},
	)
	require.NoError(t, err, "Failed to run migrations")

	return db
}

// createTestUser inserts a user with a fixed password
func createTestUser(t *testing.T, db *gorm.DB, username string) *models.User {
	user := &models.User{Username: username}
	require.NoError(t, user.SetPassword("testpassword123"))
	require.NoError(t, db.Create(user).Error)
	return user
}

// createOwnedHouse inserts a house plus the ownership edge for the user
func createOwnedHouse(t *testing.T, db *gorm.DB, userID uuid.UUID, name, address string) *models.House {
	house := &models.House{Name: name, Address: address}
	require.NoError(t, db.Create(house).Error)
	require.NoError(t, db.Create(&models.UserHouse{UserID: userID, HouseID: house.ID}).Error)
	return house
}

// createTestRoom inserts a room under a house
func createTestRoom(t *testing.T, db *gorm.DB, houseID uuid.UUID, name string) *models.Room {
	room := &models.Room{HouseID: houseID, Name: name, RoomType: models.RoomTypeLivingRoom}
	require.NoError(t, db.Create(room).Error)
	return room
}

// createTestDevice inserts a device under a room
func createTestDevice(t *testing.T, db *gorm.DB, roomID uuid.UUID, name string) *models.Device {
	device := &models.Device{RoomID: roomID, Name: name, DeviceType: models.DeviceTypeSensor}
	require.NoError(t, db.Create(device).Error)
	return device
}

// createTestMetric inserts a metric row with an explicit measurement time
func createTestMetric(t *testing.T, db *gorm.DB, deviceID uuid.UUID, metricType string, value float64, unit string, measuredAt time.Time) *models.DeviceMetric {
	metric := &models.DeviceMetric{
		DeviceID:    deviceID,
		MetricType:  metricType,
		MetricValue: value,
		Unit:        unit,
		MeasuredAt:  measuredAt,
	}
	require.NoError(t, db.Create(metric).Error)
	return metric
}
