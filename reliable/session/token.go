package session

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// tokenBytes is the entropy of a refresh token before encoding.
const tokenBytes = 48

// newRefreshToken generates an opaque refresh token and its storage hash.
func newRefreshToken() (token, hash string, err error) {
	raw := make([]byte, tokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", "", fmt.Errorf("generate refresh token: %w", err)
	}

	token = base64.RawURLEncoding.EncodeToString(raw)

	return token, HashToken(token), nil
}

// HashToken returns the SHA-256 hex digest stored in place of a raw token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))

	return hex.EncodeToString(sum[:])
}

// hashesEqual compares two token hashes in constant time.
func hashesEqual(a, b string) bool {
	return hmac.Equal([]byte(a), []byte(b))
}
