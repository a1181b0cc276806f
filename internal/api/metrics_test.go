package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/hearthward/household-platform/internal/middleware"
	"github.com/hearthward/household-platform/internal/models"
	"github.com/hearthward/household-platform/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testEnv bundles the app with the services needed to seed fixtures
type testEnv struct {
	app    *fiber.App
	db     *gorm.DB
	users  *services.UserService
	tokens *services.APITokenService
}

// setupTestApp creates a Fiber app with real database and services for testing
func setupTestApp(t *testing.T) *testEnv {
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

	accessControl := services.NewAccessControlService(db)
	userService := services.NewUserService(db)
	houseService := services.NewHouseService(db, accessControl)
	roomService := services.NewRoomService(db, accessControl)
	deviceService := services.NewDeviceService(db, accessControl)
	metricsService := services.NewMetricsService(db, accessControl)
	tokenService := services.NewAPITokenService(db)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	apiGroup := app.Group("/api/v1")
	NewAuthHandler(userService).RegisterRoutes(apiGroup)

	protected := apiGroup.Group("", middleware.AuthMiddleware(tokenService))
	NewAuthHandler(userService).RegisterProtectedRoutes(protected)
	NewHouseHandler(houseService, roomService).RegisterRoutes(protected)
	NewDeviceHandler(deviceService).RegisterRoutes(protected)
	NewMetricsHandler(metricsService).RegisterRoutes(protected)
	NewAPITokenHandler(tokenService).RegisterRoutes(protected)

	return &testEnv{app: app, db: db, users: userService, tokens: tokenService}
}

// registerUser creates a user and returns it with a session token
func (e *testEnv) registerUser(t *testing.T, username string) (*models.User, string) {
	user, err := e.users.CreateUser(username, "testpassword123")
	require.NoError(t, err)
	token, err := middleware.GenerateToken(user.ID)
	require.NoError(t, err)
	return user, token
}

// seedHousehold creates house -> room -> device owned by the user
func (e *testEnv) seedHousehold(t *testing.T, user *models.User, address string) (*models.House, *models.Room, *models.Device) {
	house := &models.House{Name: "Home", Address: address}
	require.NoError(t, e.db.Create(house).Error)
	require.NoError(t, e.db.Create(&models.UserHouse{UserID: user.ID, HouseID: house.ID}).Error)

	room := &models.Room{HouseID: house.ID, Name: "Living Room", RoomType: models.RoomTypeLivingRoom}
	require.NoError(t, e.db.Create(room).Error)

	device := &models.Device{RoomID: room.ID, Name: "Thermostat", DeviceType: models.DeviceTypeThermostat}
	require.NoError(t, e.db.Create(device).Error)

	return house, room, device
}

// doJSON issues an authenticated request and decodes the response body
func (e *testEnv) doJSON(t *testing.T, method, path, token string, body interface{}, out interface{}) int {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	if out != nil {
		raw, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, out), "body: %s", raw)
	}
	return resp.StatusCode
}

func TestMetricsAPI_CreateMetric(t *testing.T) {
	env := setupTestApp(t)
	user, token := env.registerUser(t, "owner")
	_, _, device := env.seedHousehold(t, user, "1 Main St")

	t.Run("Create metric", func(t *testing.T) {
		var metric models.DeviceMetric
		status := env.doJSON(t, "POST", "/api/v1/metrics", token, CreateMetricRequest{
			DeviceID:    device.ID.String(),
			MetricType:  "temperature",
			MetricValue: 21.5,
			Unit:        "C",
		}, &metric)
		assert.Equal(t, 201, status)
		assert.Equal(t, device.ID, metric.DeviceID)
		assert.False(t, metric.MeasuredAt.IsZero())
	})

	t.Run("Missing unit is rejected", func(t *testing.T) {
		status := env.doJSON(t, "POST", "/api/v1/metrics", token, map[string]interface{}{
			"device_id":    device.ID.String(),
			"metric_type":  "temperature",
			"metric_value": 21.5,
		}, nil)
		assert.Equal(t, 400, status)
	})

	t.Run("No credential is rejected", func(t *testing.T) {
		status := env.doJSON(t, "POST", "/api/v1/metrics", "", CreateMetricRequest{
			DeviceID:    device.ID.String(),
			MetricType:  "temperature",
			MetricValue: 21.5,
			Unit:        "C",
		}, nil)
		assert.Equal(t, 401, status)
	})

	t.Run("API token can ingest metrics", func(t *testing.T) {
		_, plaintext, err := env.tokens.CreateToken(user.ID, "ingest")
		require.NoError(t, err)

		status := env.doJSON(t, "POST", "/api/v1/metrics", plaintext, CreateMetricRequest{
			DeviceID:    device.ID.String(),
			MetricType:  "temperature",
			MetricValue: 22.0,
			Unit:        "C",
		}, nil)
		assert.Equal(t, 201, status)
	})
}

func TestMetricsAPI_RoomAggregation(t *testing.T) {
	env := setupTestApp(t)
	user, token := env.registerUser(t, "owner")
	_, room, device := env.seedHousehold(t, user, "1 Main St")

	for _, value := range []float64{20.0, 30.0} {
		status := env.doJSON(t, "POST", "/api/v1/metrics", token, CreateMetricRequest{
			DeviceID:    device.ID.String(),
			MetricType:  "temp",
			MetricValue: value,
			Unit:        "C",
		}, nil)
		require.Equal(t, 201, status)
	}

	t.Run("Average of the room's temperatures", func(t *testing.T) {
		aggregate := url.QueryEscape(`[{"metric_type":"temp","fn":"Avg"}]`)
		var rows []models.AggregatedMetric
		status := env.doJSON(t, "GET",
			fmt.Sprintf("/api/v1/rooms/%s/metrics?aggregate=%s", room.ID, aggregate), token, nil, &rows)
		assert.Equal(t, 200, status)
		require.Len(t, rows, 1)
		assert.Equal(t, models.AggregatedMetric{MetricType: "temp", Unit: "C", MetricValue: 25.0}, rows[0])
	})

	t.Run("Unknown aggregation function is a 400", func(t *testing.T) {
		aggregate := url.QueryEscape(`[{"metric_type":"temp","fn":"Median"}]`)
		status := env.doJSON(t, "GET",
			fmt.Sprintf("/api/v1/rooms/%s/metrics?aggregate=%s", room.ID, aggregate), token, nil, nil)
		assert.Equal(t, 400, status)
	})

	t.Run("Malformed aggregate parameter is a 400", func(t *testing.T) {
		status := env.doJSON(t, "GET",
			fmt.Sprintf("/api/v1/rooms/%s/metrics?aggregate=%s", room.ID, url.QueryEscape("Avg")), token, nil, nil)
		assert.Equal(t, 400, status)
	})
}

func TestMetricsAPI_CrossTenantIsolation(t *testing.T) {
	env := setupTestApp(t)
	owner1, token1 := env.registerUser(t, "owner1")
	owner2, _ := env.registerUser(t, "owner2")
	env.seedHousehold(t, owner1, "1 Main St")
	house2, _, device2 := env.seedHousehold(t, owner2, "2 Main St")

	t.Run("Reading another user's house is denied", func(t *testing.T) {
		var body ErrorResponse
		status := env.doJSON(t, "GET", "/api/v1/houses/"+house2.ID.String()+"/metrics", token1, nil, &body)
		assert.Equal(t, 403, status)
		assert.Equal(t, "Access denied", body.Error)
	})

	t.Run("Writing to another user's device is denied", func(t *testing.T) {
		status := env.doJSON(t, "POST", "/api/v1/metrics", token1, CreateMetricRequest{
			DeviceID:    device2.ID.String(),
			MetricType:  "temperature",
			MetricValue: 99.0,
			Unit:        "C",
		}, nil)
		assert.Equal(t, 403, status)
	})
}

func TestMetricsAPI_EmptyRoomAndTimeWindow(t *testing.T) {
	env := setupTestApp(t)
	user, token := env.registerUser(t, "owner")
	house, _, device := env.seedHousehold(t, user, "1 Main St")

	emptyRoom := &models.Room{HouseID: house.ID, Name: "Closet", RoomType: models.RoomTypeOther}
	require.NoError(t, env.db.Create(emptyRoom).Error)

	t.Run("Empty room returns an empty list with 200", func(t *testing.T) {
		var rows []models.DeviceMetric
		status := env.doJSON(t, "GET", "/api/v1/rooms/"+emptyRoom.ID.String()+"/metrics", token, nil, &rows)
		assert.Equal(t, 200, status)
		assert.Empty(t, rows)
	})

	t.Run("Time window includes and excludes by measured_at", func(t *testing.T) {
		old := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		inside := time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC)
		for _, measuredAt := range []time.Time{old, inside} {
			at := measuredAt
			status := env.doJSON(t, "POST", "/api/v1/metrics", token, CreateMetricRequest{
				DeviceID:    device.ID.String(),
				MetricType:  "temperature",
				MetricValue: 20.0,
				Unit:        "C",
				MeasuredAt:  &at,
			}, nil)
			require.Equal(t, 201, status)
		}

		var rows []models.DeviceMetric
		status := env.doJSON(t, "GET",
			"/api/v1/devices/"+device.ID.String()+"/metrics?from=2026-02-01T00:00:00Z&to=2026-03-01T00:00:00Z",
			token, nil, &rows)
		assert.Equal(t, 200, status)
		require.Len(t, rows, 1)
		assert.True(t, rows[0].MeasuredAt.Equal(inside))
	})
}
