package auth

import (
	"crypto/subtle"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const DefaultBcryptCost = 12

// AdminCredentials guards the mutating API routes. A zero value means
// the routes are open, which is the expected local-development setup.
type AdminCredentials struct {
	Username     string
	PasswordHash string
}

// Enabled reports whether both a username and a hash are configured.
func (c AdminCredentials) Enabled() bool {
	return strings.TrimSpace(c.Username) != "" && strings.TrimSpace(c.PasswordHash) != ""
}

// Verify checks a username/password pair against the configured
// credentials. Always false when credentials are not fully configured.
func (c AdminCredentials) Verify(username, password string) bool {
	if !c.Enabled() {
		return false
	}

	expectedUser := strings.ToLower(strings.TrimSpace(c.Username))
	givenUser := strings.ToLower(strings.TrimSpace(username))
	userMatch := subtle.ConstantTimeCompare([]byte(expectedUser), []byte(givenUser)) == 1

	passMatch := bcrypt.CompareHashAndPassword(
		[]byte(strings.TrimSpace(c.PasswordHash)),
		[]byte(strings.TrimSpace(password)),
	) == nil

	return userMatch && passMatch
}

// HashPassword produces a bcrypt hash suitable for NR_ADMIN_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	trimmed := strings.TrimSpace(password)
	if trimmed == "" {
		return "", fmt.Errorf("password is required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(trimmed), DefaultBcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}
