package service

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// generateRandomString returns n random bytes encoded as unpadded base64url.
// The output only uses characters allowed in OAuth state and PKCE verifiers.
func generateRandomString(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
