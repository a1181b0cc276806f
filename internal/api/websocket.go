package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/hearthward/household-platform/internal/ws"
)

// WebSocketHandler handles WebSocket connections for live metric events
type WebSocketHandler struct {
	hub *ws.Hub
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(hub *ws.Hub) *WebSocketHandler {
	return &WebSocketHandler{hub: hub}
}

// HandleConnection handles an upgraded WebSocket connection
func (h *WebSocketHandler) HandleConnection(c *websocket.Conn) {
	userID, ok := c.Locals("user_id").(uuid.UUID)
	if !ok {
		c.Close()
		return
	}
	client := ws.NewClient(h.hub, c, userID)
	client.Start()
}

// RegisterRoutes registers WebSocket routes. The auth middleware must run
// before these so the connection carries an authenticated user id.
func (h *WebSocketHandler) RegisterRoutes(router fiber.Router) {
	// WebSocket upgrade middleware
	router.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	router.Get("/ws", websocket.New(h.HandleConnection))
}
