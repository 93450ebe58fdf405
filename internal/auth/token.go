package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"
)

// AdminTokenPrefix marks admin bearer tokens.
const AdminTokenPrefix = "mla_"

// adminTokenSecretLen is the secret length in bytes (hex encoded to 64 chars).
const adminTokenSecretLen = 32

var adminTokenRegex = regexp.MustCompile(`^mla_[a-f0-9]{64}$`)

// GeneratedToken contains a new admin token and its hash.
type GeneratedToken struct {
	Plaintext string // Show once only
	Hash      string // Argon2id hash for ADMIN_TOKEN_HASH
}

// GenerateAdminToken creates a random admin token and hashes it.
func GenerateAdminToken() (*GeneratedToken, error) {
	secret := make([]byte, adminTokenSecretLen)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("generate secret: %w", err)
	}
	plaintext := AdminTokenPrefix + hex.EncodeToString(secret)

	hash, err := HashToken(plaintext)
	if err != nil {
		return nil, fmt.Errorf("hash token: %w", err)
	}

	return &GeneratedToken{Plaintext: plaintext, Hash: hash}, nil
}

// ValidateTokenFormat checks if the token looks like a generated admin token.
func ValidateTokenFormat(token string) bool {
	return adminTokenRegex.MatchString(token)
}
