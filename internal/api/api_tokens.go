package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/hearthward/household-platform/internal/services"
)

// APITokenHandler handles API token HTTP requests
type APITokenHandler struct {
	service *services.APITokenService
}

// NewAPITokenHandler creates a new API token handler
func NewAPITokenHandler(service *services.APITokenService) *APITokenHandler {
	return &APITokenHandler{service: service}
}

// CreateAPITokenRequest represents the request body for creating a token
type CreateAPITokenRequest struct {
	Name string `json:"name" validate:"required"`
}

// NewAPITokenResponse carries the one-time plaintext token alongside the
// stored record
type NewAPITokenResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Token     string    `json:"token"`
	CreatedAt string    `json:"created_at"`
}

// CreateToken handles POST /api/v1/api-tokens
func (h *APITokenHandler) CreateToken(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(401).JSON(ErrorResponse{Error: "Unauthorized"})
	}

	var req CreateAPITokenRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(ErrorResponse{Error: "Invalid request body"})
	}
	if err := ValidateRequest(c, &req); err != nil {
		return err
	}

	token, plaintext, err := h.service.CreateToken(userID, req.Name)
	if err != nil {
		return HandleError(c, 500, err, "Failed to create token")
	}

	return c.Status(201).JSON(NewAPITokenResponse{
		ID:        token.ID,
		Name:      token.Name,
		Token:     plaintext,
		CreatedAt: token.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	})
}

// ListTokens handles GET /api/v1/api-tokens
func (h *APITokenHandler) ListTokens(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(401).JSON(ErrorResponse{Error: "Unauthorized"})
	}

	tokens, err := h.service.ListTokens(userID)
	if err != nil {
		return HandleError(c, 500, err, "Failed to list tokens")
	}
	return c.JSON(tokens)
}

// DeleteToken handles DELETE /api/v1/api-tokens/:token_id
func (h *APITokenHandler) DeleteToken(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.Status(401).JSON(ErrorResponse{Error: "Unauthorized"})
	}
	tokenID, err := uuid.Parse(c.Params("token_id"))
	if err != nil {
		return c.Status(400).JSON(ErrorResponse{Error: "Invalid token ID"})
	}

	if err := h.service.DeleteToken(userID, tokenID); err != nil {
		if errors.Is(err, services.ErrTokenNotFound) {
			return c.Status(404).JSON(ErrorResponse{Error: "Token not found"})
		}
		return HandleError(c, 500, err, "Failed to delete token")
	}
	return c.Status(204).Send(nil)
}

// RegisterRoutes registers all API token routes
func (h *APITokenHandler) RegisterRoutes(api fiber.Router) {
	tokens := api.Group("/api-tokens")

	tokens.Get("/", h.ListTokens)
	tokens.Post("/", h.CreateToken)
	tokens.Delete("/:token_id", h.DeleteToken)
}
