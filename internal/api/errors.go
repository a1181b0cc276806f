package api

import (
	"errors"
	"log"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/hearthward/household-platform/internal/models"
	"github.com/hearthward/household-platform/internal/services"
)

// Global validator instance
var validate = validator.New()

// ErrorResponse represents a sanitized error response for API clients
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Code    string                 `json:"code,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// sanitizeError returns a user-friendly error message and logs the detailed error
func sanitizeError(err error, userMessage string) string {
	if err == nil {
		return userMessage
	}

	// Log the detailed error server-side for debugging
	log.Printf("[API Error] %s: %v", userMessage, err)

	// Check for common error patterns and return sanitized messages
	errStr := err.Error()

	// Database errors
	if strings.Contains(errStr, "UNIQUE constraint") {
		return "A resource with this value already exists"
	}
	if strings.Contains(errStr, "record not found") || strings.Contains(errStr, "not found") {
		return "Resource not found"
	}
	if strings.Contains(errStr, "failed to create") {
		return "Failed to create resource"
	}
	if strings.Contains(errStr, "failed to update") {
		return "Failed to update resource"
	}
	if strings.Contains(errStr, "failed to delete") {
		return "Failed to delete resource"
	}

	// Default to the provided user message
	return userMessage
}

// HandleError is a helper to return sanitized error responses
func HandleError(c *fiber.Ctx, statusCode int, err error, defaultMessage string) error {
	// Check if this is a structured APIError
	if apiErr, ok := err.(*models.APIError); ok {
		return c.Status(statusCode).JSON(ErrorResponse{
			Error:   apiErr.Message,
			Code:    apiErr.Code,
			Details: apiErr.Details,
		})
	}

	// Otherwise sanitize the error
	sanitized := sanitizeError(err, defaultMessage)
	return c.Status(statusCode).JSON(ErrorResponse{
		Error: sanitized,
	})
}

// ValidateRequest validates a request struct and returns a sanitized error if validation fails
func ValidateRequest(c *fiber.Ctx, req interface{}) error {
	if err := validate.Struct(req); err != nil {
		// Log detailed validation error
		log.Printf("[Validation Error] %v", err)

		// Return user-friendly error
		return c.Status(400).JSON(ErrorResponse{
			Error: "Invalid request - please check your input and try again",
		})
	}
	return nil
}

// currentUserID returns the authenticated user id set by the auth middleware
func currentUserID(c *fiber.Ctx) (uuid.UUID, bool) {
	userID, ok := c.Locals("user_id").(uuid.UUID)
	return userID, ok && userID != uuid.Nil
}

// handleAccessError maps access-control and lookup failures onto HTTP
// responses. Denied is always the same opaque 403; not-found is surfaced
// only where the id was addressed directly, so unauthorized callers cannot
// enumerate resources through nested paths.
func handleAccessError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrAccessDenied):
		return c.Status(403).JSON(ErrorResponse{Error: "Access denied"})
	case errors.Is(err, services.ErrHouseNotFound),
		errors.Is(err, services.ErrRoomNotFound),
		errors.Is(err, services.ErrDeviceNotFound):
		return c.Status(404).JSON(ErrorResponse{Error: "Resource not found"})
	}
	return HandleError(c, 500, err, "Internal server error")
}
