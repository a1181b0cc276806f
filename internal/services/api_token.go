package services

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"github.com/google/uuid"
	"github.com/hearthward/household-platform/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	// ErrTokenNotFound is returned when an API token id does not exist for the user
	ErrTokenNotFound = errors.New("api token not found")
	// ErrInvalidToken is returned when a presented token matches no stored hash
	ErrInvalidToken = errors.New("invalid api token")
)

const tokenCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
const tokenLength = 32

// APITokenService manages long-lived bearer tokens for metric ingestion.
// Tokens are bcrypt-hashed at rest; the plaintext is returned exactly once.
type APITokenService struct {
	db *gorm.DB
}

// NewAPITokenService creates a new API token service
func NewAPITokenService(db *gorm.DB) *APITokenService {
	return &APITokenService{db: db}
}

// CreateToken generates a random token for the user, stores its hash, and
// returns the record together with the one-time plaintext.
func (s *APITokenService) CreateToken(userID uuid.UUID, name string) (*models.APIToken, string, error) {
	plaintext, err := randomToken()
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash token: %w", err)
	}

	token := &models.APIToken{
		UserID:    userID,
		Name:      name,
		TokenHash: string(hash),
	}
	if err := s.db.Create(token).Error; err != nil {
		return nil, "", fmt.Errorf("failed to create token: %w", err)
	}

	return token, plaintext, nil
}

// ListTokens returns the user's tokens (hashes are never serialized)
func (s *APITokenService) ListTokens(userID uuid.UUID) ([]models.APIToken, error) {
	tokens := []models.APIToken{}
	if err := s.db.Where("user_id = ?", userID).Find(&tokens).Error; err != nil {
		return nil, fmt.Errorf("failed to list tokens: %w", err)
	}
	return tokens, nil
}

// DeleteToken removes one of the user's tokens
func (s *APITokenService) DeleteToken(userID, tokenID uuid.UUID) error {
	result := s.db.Delete(&models.APIToken{}, "id = ? AND user_id = ?", tokenID, userID)
	if result.Error != nil {
		return fmt.Errorf("failed to delete token: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrTokenNotFound
	}
	return nil
}

// Authenticate resolves a presented plaintext token to its owning user id
func (s *APITokenService) Authenticate(plaintext string) (uuid.UUID, error) {
	tokens := []models.APIToken{}
	if err := s.db.Find(&tokens).Error; err != nil {
		return uuid.Nil, fmt.Errorf("failed to load tokens: %w", err)
	}

	for _, token := range tokens {
		if bcrypt.CompareHashAndPassword([]byte(token.TokenHash), []byte(plaintext)) == nil {
			return token.UserID, nil
		}
	}
	return uuid.Nil, ErrInvalidToken
}

// randomToken generates a 32-character alphanumeric token
func randomToken() (string, error) {
	out := make([]byte, tokenLength)
	for i := range out {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(tokenCharset))))
		if err != nil {
			return "", err
		}
		out[i] = tokenCharset[idx.Int64()]
	}
	return string(out), nil
}
