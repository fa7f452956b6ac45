package shopify

import (
	"fmt"

	"shopify-preorder-layer/internal/ports"

	"github.com/rs/zerolog"
)

// TokenManager guards encryption of Shopify access tokens kept at rest
type TokenManager struct {
	encryptionSvc ports.EncryptionService
	logger        zerolog.Logger
}

var _ ports.EncryptionService = (*TokenManager)(nil)

// NewTokenManager creates a new token manager
func NewTokenManager(encryptionSvc ports.EncryptionService, logger zerolog.Logger) *TokenManager {
	return &TokenManager{
		encryptionSvc: encryptionSvc,
		logger:        logger,
	}
}

// Encrypt encrypts an access token before storage
func (tm *TokenManager) Encrypt(token string) (string, error) {
	if token == "" {
		return "", fmt.Errorf("token cannot be empty")
	}
	return tm.encryptionSvc.Encrypt(token)
}

// Decrypt decrypts an access token after retrieval
func (tm *TokenManager) Decrypt(encryptedToken string) (string, error) {
	if encryptedToken == "" {
		return "", fmt.Errorf("encrypted token cannot be empty")
	}
	token, err := tm.encryptionSvc.Decrypt(encryptedToken)
	if err != nil {
		tm.logger.Warn().Err(err).Msg("Stored access token could not be decrypted, the shop must reinstall")
		return "", err
	}
	return token, nil
}
