package middleware

import (
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/hearthward/household-platform/internal/services"
)

// Claims represents JWT claims
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// getJWTSecret returns the JWT secret from environment or a default (for dev only)
func getJWTSecret() []byte {
	secret := os.Getenv("APP_KEY")
	if secret == "" {
		// For development only - in production this should be required
		secret = "household-default-jwt-secret-CHANGE-IN-PRODUCTION"
	}
	return []byte(secret)
}

// AuthMiddleware resolves the authenticated principal from the
// Authorization header. A bearer credential is first parsed as a JWT; when
// that fails and a token service is supplied, it is tried as an API token.
// On success the user id is stored in locals; everything downstream only
// authorizes, never re-authenticates.
func AuthMiddleware(tokenService *services.APITokenService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing authorization header",
			})
		}

		// Extract token from "Bearer <token>" format
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid authorization header format",
			})
		}
		tokenString := parts[1]

		if userID, ok := parseJWT(tokenString); ok {
			c.Locals("user_id", userID)
			return c.Next()
		}

		if tokenService != nil {
			userID, err := tokenService.Authenticate(tokenString)
			if err == nil {
				c.Locals("user_id", userID)
				return c.Next()
			}
		}

		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid or expired token",
		})
	}
}

// parseJWT validates a token string and extracts the user id claim
func parseJWT(tokenString string) (uuid.UUID, bool) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Validate signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return getJWTSecret(), nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, false
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return uuid.Nil, false
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return uuid.Nil, false
	}
	return userID, true
}

// GenerateToken generates a new JWT token for a user id
func GenerateToken(userID uuid.UUID) (string, error) {
	claims := &Claims{
		UserID: userID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(getJWTSecret())
}
