package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessControl_CanAccessHouse(t *testing.T) {
	db := setupTestDB(t)
	access := NewAccessControlService(db)

	owner := createTestUser(t, db, "owner")
	stranger := createTestUser(t, db, "stranger")
	house := createOwnedHouse(t, db, owner.ID, "Home", "1 Main St")

	t.Run("Owner is allowed", func(t *testing.T) {
		assert.NoError(t, access.CanAccessHouse(owner.ID, house.ID))
	})

	t.Run("User without edge is denied", func(t *testing.T) {
		err := access.CanAccessHouse(stranger.ID, house.ID)
		assert.ErrorIs(t, err, ErrAccessDenied)
	})

	t.Run("Nonexistent house is denied, not distinguished", func(t *testing.T) {
		err := access.CanAccessHouse(owner.ID, uuid.New())
		assert.ErrorIs(t, err, ErrAccessDenied)
	})
}

func TestAccessControl_CanAccessRoom(t *testing.T) {
	db := setupTestDB(t)
	access := NewAccessControlService(db)

	owner := createTestUser(t, db, "owner")
	stranger := createTestUser(t, db, "stranger")
	house := createOwnedHouse(t, db, owner.ID, "Home", "1 Main St")
	room := createTestRoom(t, db, house.ID, "Living Room")

	t.Run("Owner reaches room through the house edge", func(t *testing.T) {
		assert.NoError(t, access.CanAccessRoom(owner.ID, room.ID))
	})

	t.Run("Stranger is denied regardless of room existence", func(t *testing.T) {
		assert.ErrorIs(t, access.CanAccessRoom(stranger.ID, room.ID), ErrAccessDenied)
	})

	t.Run("Unknown room id is not found", func(t *testing.T) {
		assert.ErrorIs(t, access.CanAccessRoom(owner.ID, uuid.New()), ErrRoomNotFound)
	})
}

func TestAccessControl_CanAccessDevice(t *testing.T) {
	db := setupTestDB(t)
	access := NewAccessControlService(db)

	owner := createTestUser(t, db, "owner")
	stranger := createTestUser(t, db, "stranger")
	house := createOwnedHouse(t, db, owner.ID, "Home", "1 Main St")
	room := createTestRoom(t, db, house.ID, "Living Room")
	device := createTestDevice(t, db, room.ID, "Thermostat")

	t.Run("Owner reaches device through two hops", func(t *testing.T) {
		assert.NoError(t, access.CanAccessDevice(owner.ID, device.ID))
	})

	t.Run("Stranger is denied", func(t *testing.T) {
		assert.ErrorIs(t, access.CanAccessDevice(stranger.ID, device.ID), ErrAccessDenied)
	})

	t.Run("Unknown device id is not found", func(t *testing.T) {
		assert.ErrorIs(t, access.CanAccessDevice(owner.ID, uuid.New()), ErrDeviceNotFound)
	})
}

func TestAccessControl_CanAccessRoomInHouse(t *testing.T) {
	db := setupTestDB(t)
	access := NewAccessControlService(db)

	owner := createTestUser(t, db, "owner")
	// Two houses owned by the same user: a mismatched path must still be
	// rejected even though both edges exist.
	house1 := createOwnedHouse(t, db, owner.ID, "First", "1 Main St")
	house2 := createOwnedHouse(t, db, owner.ID, "Second", "2 Main St")
	roomInSecond := createTestRoom(t, db, house2.ID, "Bedroom")

	t.Run("Matching house and room is allowed", func(t *testing.T) {
		assert.NoError(t, access.CanAccessRoomInHouse(owner.ID, house2.ID, roomInSecond.ID))
	})

	t.Run("Room addressed under the wrong house is denied", func(t *testing.T) {
		err := access.CanAccessRoomInHouse(owner.ID, house1.ID, roomInSecond.ID)
		assert.ErrorIs(t, err, ErrAccessDenied)
	})

	t.Run("Missing room on a nested path is denied, not 404", func(t *testing.T) {
		err := access.CanAccessRoomInHouse(owner.ID, house1.ID, uuid.New())
		assert.ErrorIs(t, err, ErrAccessDenied)
	})

	t.Run("Unowned house is denied before the room is examined", func(t *testing.T) {
		stranger := createTestUser(t, db, "stranger")
		err := access.CanAccessRoomInHouse(stranger.ID, house2.ID, roomInSecond.ID)
		assert.ErrorIs(t, err, ErrAccessDenied)
	})
}

func TestAccessControl_HouseResolution(t *testing.T) {
	db := setupTestDB(t)
	access := NewAccessControlService(db)

	owner := createTestUser(t, db, "owner")
	house := createOwnedHouse(t, db, owner.ID, "Home", "1 Main St")
	room := createTestRoom(t, db, house.ID, "Kitchen")
	device := createTestDevice(t, db, room.ID, "Fridge Sensor")

	houseID, err := access.HouseForRoom(room.ID)
	require.NoError(t, err)
	assert.Equal(t, house.ID, houseID)

	houseID, err = access.HouseForDevice(device.ID)
	require.NoError(t, err)
	assert.Equal(t, house.ID, houseID)
}
