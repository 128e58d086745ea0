package signature

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
)

// GenerateSecret creates a cryptographically random signing secret.
// Format: "whsec_" + 32 bytes hex = 70 characters total.
func GenerateSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic("hookline: failed to generate random secret: " + err.Error())
	}
	return "whsec_" + hex.EncodeToString(b)
}

// HashSecret returns the hex SHA-256 digest of a secret, for server-side
// storage when the plaintext secret must not be retained.
func HashSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}
