package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/hearthward/household-platform/internal/models"
	"github.com/hearthward/household-platform/internal/services"
)

// DeviceHandler handles device-related HTTP requests
type DeviceHandler struct {
	service *services.DeviceService
}

// NewDeviceHandler creates a new device handler
func NewDeviceHandler(service *services.DeviceService) *DeviceHandler {
	return &DeviceHandler{service: service}
}

// CreateDeviceRequest represents the request body for creating a device
type CreateDeviceRequest struct {
	Name       string            `json:"name" validate:"required"`
	DeviceType models.DeviceType `json:"device_type,omitempty"`
}

// UpdateDeviceRequest represents the request body for updating a device.
// The owning room cannot change; devices are never reparented.
type UpdateDeviceRequest struct {
	Name       *string            `json:"name,omitempty"`
	DeviceType *models.DeviceType `json:"device_type,omitempty"`
}

// ListRoomDevices handles GET /api/v1/rooms/:room_id/devices
func (h *DeviceHandler) ListRoomDevices(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(401).JSON(ErrorResponse{Error: "Unauthorized"})
	}
	roomID, err := uuid.Parse(c.Params("room_id"))
	if err != nil {
		return c.Status(400).JSON(ErrorResponse{Error: "Invalid room ID"})
	}

	devices, err := h.service.ListDevices(userID, roomID)
	if err != nil {
		return handleAccessError(c, err)
	}
	return c.JSON(devices)
}

// CreateDevice handles POST /api/v1/rooms/:room_id/devices
func (h *DeviceHandler) CreateDevice(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(401).JSON(ErrorResponse{Error: "Unauthorized"})
	}
	roomID, err := uuid.Parse(c.Params("room_id"))
	if err != nil {
		return c.Status(400).JSON(ErrorResponse{Error: "Invalid room ID"})
	}

	var req CreateDeviceRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(ErrorResponse{Error: "Invalid request body"})
	}
	if err := ValidateRequest(c, &req); err != nil {
		return err
	}

	device, err := h.service.CreateDevice(userID, roomID, req.Name, req.DeviceType)
	if err != nil {
		return handleAccessError(c, err)
	}
	return c.Status(201).JSON(device)
}

// GetDevice handles GET /api/v1/devices/:device_id
func (h *DeviceHandler) GetDevice(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(401).JSON(ErrorResponse{Error: "Unauthorized"})
	}
	deviceID, err := uuid.Parse(c.Params("device_id"))
	if err != nil {
		return c.Status(400).JSON(ErrorResponse{Error: "Invalid device ID"})
	}

	device, err := h.service.GetDevice(userID, deviceID)
	if err != nil {
		return handleAccessError(c, err)
	}
	return c.JSON(device)
}

// UpdateDevice handles PATCH /api/v1/devices/:device_id
func (h *DeviceHandler) UpdateDevice(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(401).JSON(ErrorResponse{Error: "Unauthorized"})
	}
	deviceID, err := uuid.Parse(c.Params("device_id"))
	if err != nil {
		return c.Status(400).JSON(ErrorResponse{Error: "Invalid device ID"})
	}

	var req UpdateDeviceRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(ErrorResponse{Error: "Invalid request body"})
	}

	updates := make(map[string]interface{})
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.DeviceType != nil {
		updates["device_type"] = *req.DeviceType
	}

	device, err := h.service.UpdateDevice(userID, deviceID, updates)
	if err != nil {
		return handleAccessError(c, err)
	}
	return c.JSON(device)
}

// DeleteDevice handles DELETE /api/v1/devices/:device_id
func (h *DeviceHandler) DeleteDevice(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(401).JSON(ErrorResponse{Error: "Unauthorized"})
	}
	deviceID, err := uuid.Parse(c.Params("device_id"))
	if err != nil {
		return c.Status(400).JSON(ErrorResponse{Error: "Invalid device ID"})
	}

	if err := h.service.DeleteDevice(userID, deviceID); err != nil {
		return handleAccessError(c, err)
	}
	return c.Status(204).Send(nil)
}

// RegisterRoutes registers all device routes
func (h *DeviceHandler) RegisterRoutes(api fiber.Router) {
	api.Get("/rooms/:room_id/devices", h.ListRoomDevices)
	api.Post("/rooms/:room_id/devices", h.CreateDevice)

	devices := api.Group("/devices")
	devices.Get("/:device_id", h.GetDevice)
	devices.Patch("/:device_id", h.UpdateDevice)
	devices.Delete("/:device_id", h.DeleteDevice)
}
