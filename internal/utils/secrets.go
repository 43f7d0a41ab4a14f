package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// jwtSecretBytes gives 256-bit HMAC keys
const jwtSecretBytes = 32

// GenerateSecret returns n random bytes hex-encoded
func GenerateSecret(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("secret length must be positive, got %d", n)
	}
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// GenerateJWTSecrets returns a distinct access and refresh signing secret
func GenerateJWTSecrets() (accessSecret, refreshSecret string, err error) {
	accessSecret, err = GenerateSecret(jwtSecretBytes)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate access secret: %w", err)
	}

	for {
		refreshSecret, err = GenerateSecret(jwtSecretBytes)
		if err != nil {
			return "", "", fmt.Errorf("failed to generate refresh secret: %w", err)
		}
		if refreshSecret != accessSecret {
			return accessSecret, refreshSecret, nil
		}
	}
}
