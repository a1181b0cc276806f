package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/hearthward/household-platform/internal/models"
	"github.com/hearthward/household-platform/internal/services"
)

// HouseHandler handles house and nested room HTTP requests
type HouseHandler struct {
	houses *services.HouseService
	rooms  *services.RoomService
}

// NewHouseHandler creates a new house handler
func NewHouseHandler(houses *services.HouseService, rooms *services.RoomService) *HouseHandler {
	return &HouseHandler{houses: houses, rooms: rooms}
}

// CreateHouseRequest represents the request body for creating a house
type CreateHouseRequest struct {
	Name    string `json:"name" validate:"required"`
	Address string `json:"address" validate:"required"`
}

// CreateRoomRequest represents the request body for creating a room
type CreateRoomRequest struct {
	Name     string          `json:"name" validate:"required"`
	RoomType models.RoomType `json:"room_type,omitempty"`
}

// ListHouses handles GET /api/v1/houses
func (h *HouseHandler) ListHouses(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(401).JSON(ErrorResponse{Error: "Unauthorized"})
	}

	houses, err := h.houses.ListHouses(userID)
	if err != nil {
		return HandleError(c, 500, err, "Failed to list houses")
	}
	return c.JSON(houses)
}

// CreateHouse handles POST /api/v1/houses
func (h *HouseHandler) CreateHouse(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(401).JSON(ErrorResponse{Error: "Unauthorized"})
	}

	var req CreateHouseRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(ErrorResponse{Error: "Invalid request body"})
	}
	if err := ValidateRequest(c, &req); err != nil {
		return err
	}

	house, err := h.houses.CreateHouse(userID, req.Name, req.Address)
	if err != nil {
		if errors.Is(err, services.ErrHouseAddressExists) {
			return c.Status(409).JSON(ErrorResponse{Error: err.Error()})
		}
		return HandleError(c, 500, err, "Failed to create house")
	}
	return c.Status(201).JSON(house)
}

// GetHouse handles GET /api/v1/houses/:house_id
func (h *HouseHandler) GetHouse(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(401).JSON(ErrorResponse{Error: "Unauthorized"})
	}
	houseID, err := uuid.Parse(c.Params("house_id"))
	if err != nil {
		return c.Status(400).JSON(ErrorResponse{Error: "Invalid house ID"})
	}

	house, err := h.houses.GetHouse(userID, houseID)
	if err != nil {
		return handleAccessError(c, err)
	}
	return c.JSON(house)
}

// DeleteHouse handles DELETE /api/v1/houses/:house_id
func (h *HouseHandler) DeleteHouse(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(401).JSON(ErrorResponse{Error: "Unauthorized"})
	}
	houseID, err := uuid.Parse(c.Params("house_id"))
	if err != nil {
		return c.Status(400).JSON(ErrorResponse{Error: "Invalid house ID"})
	}

	if err := h.houses.DeleteHouse(userID, houseID); err != nil {
		return handleAccessError(c, err)
	}
	return c.Status(204).Send(nil)
}

// ListRooms handles GET /api/v1/houses/:house_id/rooms
func (h *HouseHandler) ListRooms(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(401).JSON(ErrorResponse{Error: "Unauthorized"})
	}
	houseID, err := uuid.Parse(c.Params("house_id"))
	if err != nil {
		return c.Status(400).JSON(ErrorResponse{Error: "Invalid house ID"})
	}

	rooms, err := h.rooms.ListRooms(userID, houseID)
	if err != nil {
		return handleAccessError(c, err)
	}
	return c.JSON(rooms)
}

// CreateRoom handles POST /api/v1/houses/:house_id/rooms
func (h *HouseHandler) CreateRoom(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(401).JSON(ErrorResponse{Error: "Unauthorized"})
	}
	houseID, err := uuid.Parse(c.Params("house_id"))
	if err != nil {
		return c.Status(400).JSON(ErrorResponse{Error: "Invalid house ID"})
	}

	var req CreateRoomRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(ErrorResponse{Error: "Invalid request body"})
	}
	if err := ValidateRequest(c, &req); err != nil {
		return err
	}

	room, err := h.rooms.CreateRoom(userID, houseID, req.Name, req.RoomType)
	if err != nil {
		return handleAccessError(c, err)
	}
	return c.Status(201).JSON(room)
}

// DeleteRoom handles DELETE /api/v1/houses/:house_id/rooms/:room_id
func (h *HouseHandler) DeleteRoom(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(401).JSON(ErrorResponse{Error: "Unauthorized"})
	}
	houseID, err := uuid.Parse(c.Params("house_id"))
	if err != nil {
		return c.Status(400).JSON(ErrorResponse{Error: "Invalid house ID"})
	}
	roomID, err := uuid.Parse(c.Params("room_id"))
	if err != nil {
		return c.Status(400).JSON(ErrorResponse{Error: "Invalid room ID"})
	}

	if err := h.rooms.DeleteRoom(userID, houseID, roomID); err != nil {
		return handleAccessError(c, err)
	}
	return c.Status(204).Send(nil)
}

// RegisterRoutes registers all house routes
func (h *HouseHandler) RegisterRoutes(api fiber.Router) {
	houses := api.Group("/houses")

	houses.Get("/", h.ListHouses)
	houses.Post("/", h.CreateHouse)
	houses.Get("/:house_id", h.GetHouse)
	houses.Delete("/:house_id", h.DeleteHouse)
	houses.Get("/:house_id/rooms", h.ListRooms)
	houses.Post("/:house_id/rooms", h.CreateRoom)
	houses.Delete("/:house_id/rooms/:room_id", h.DeleteRoom)
}
