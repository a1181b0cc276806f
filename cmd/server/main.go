package main

import (
	"log"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/hearthward/household-platform/internal/api"
	"github.com/hearthward/household-platform/internal/middleware"
	"github.com/hearthward/household-platform/internal/models"
	"github.com/hearthward/household-platform/internal/services"
	"github.com/hearthward/household-platform/internal/ws"
	"github.com/joho/godotenv"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// initDB initializes the database connection and runs migrations
func initDB() (*gorm.DB, error) {
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "./household.db"
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.House{},
		&models.UserHouse{},
		&models.Room{},
		&models.Device{},
		&models.DeviceMetric{},
		&models.APIToken{},
	)
	if err != nil {
		return nil, err
	}

	log.Printf("Database initialized at %s", dbPath)
	return db, nil
}

func main() {
	// .env is optional; environment variables win
	_ = godotenv.Load()

	db, err := initDB()
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get database connection: %v", err)
	}
	defer sqlDB.Close()

	// Initialize services
	accessControl := services.NewAccessControlService(db)
	userService := services.NewUserService(db)
	houseService := services.NewHouseService(db, accessControl)
	roomService := services.NewRoomService(db, accessControl)
	deviceService := services.NewDeviceService(db, accessControl)
	metricsService := services.NewMetricsService(db, accessControl)
	tokenService := services.NewAPITokenService(db)
	log.Printf("Services initialized")

	// Initialize WebSocket hub; subscriptions go through the same
	// ownership check as every other house read
	wsHub := ws.NewHub(accessControl.CanAccessHouse)
	go wsHub.Run()
	metricsService.SetBroadcastFunc(wsHub.Broadcast)
	log.Printf("WebSocket hub initialized")

	app := fiber.New(fiber.Config{
		AppName: "Household Management Platform",
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	apiGroup := app.Group("/api/v1")

	// Health check endpoint
	apiGroup.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "household-management-platform",
			"version": "0.1.0",
		})
	})

	// Public auth routes
	authHandler := api.NewAuthHandler(userService)
	authHandler.RegisterRoutes(apiGroup)

	// Everything below requires an authenticated principal (JWT session or
	// API token)
	protected := apiGroup.Group("", middleware.AuthMiddleware(tokenService))
	authHandler.RegisterProtectedRoutes(protected)

	houseHandler := api.NewHouseHandler(houseService, roomService)
	houseHandler.RegisterRoutes(protected)

	deviceHandler := api.NewDeviceHandler(deviceService)
	deviceHandler.RegisterRoutes(protected)

	metricsHandler := api.NewMetricsHandler(metricsService)
	metricsHandler.RegisterRoutes(protected)

	tokenHandler := api.NewAPITokenHandler(tokenService)
	tokenHandler.RegisterRoutes(protected)

	wsHandler := api.NewWebSocketHandler(wsHub)
	wsHandler.RegisterRoutes(protected)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	if err := app.Listen(":" + port); err != nil {
		log.Fatal(err)
	}
}
