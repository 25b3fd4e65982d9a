package domain

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// GenerateWebhookSecret returns a new random webhook secret. The cleartext
// is handed to the operator once; only its hash is persisted.
func GenerateWebhookSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// HashWebhookSecret hashes a secret for storage.
func HashWebhookSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// VerifyWebhookSecret compares a presented secret against the stored hash
// in constant time.
func VerifyWebhookSecret(secret, storedHash string) bool {
	if secret == "" || storedHash == "" {
		return false
	}
	presented := HashWebhookSecret(secret)
	return subtle.ConstantTimeCompare([]byte(presented), []byte(storedHash)) == 1
}
