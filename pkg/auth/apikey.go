package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	BcryptCost  = 12
	AdminKeyLen = 32 // 256 bits
)

// HashAdminKey hashes an admin API key for storage in configuration
func HashAdminKey(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("admin key cannot be empty")
	}
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(key), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash admin key: %w", err)
	}
	return string(hashedBytes), nil
}

// CompareAdminKey checks a presented key against the stored bcrypt hash
func CompareAdminKey(hashedKey, key string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedKey), []byte(key))
}

// GenerateAdminKey returns a fresh random admin key for initial setup
func GenerateAdminKey() (string, error) {
	bytes := make([]byte, AdminKeyLen)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate admin key: %w", err)
	}
	return base64.URLEncoding.EncodeToString(bytes), nil
}
