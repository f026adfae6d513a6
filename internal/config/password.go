package config

import (
	"crypto/subtle"
	"fmt"
	"os"
	"strconv"

	"golang.org/x/crypto/bcrypt"
)

// PasswordConfig holds the bcrypt settings used to hash and verify author passwords.
type PasswordConfig struct {
	BcryptCost int
	Pepper     string // optional global secret appended before hashing
}

// NewPasswordConfig reads BCRYPT_COST (default 12) and optionally PASSWORD_PEPPER.
func NewPasswordConfig() (*PasswordConfig, error) {
	costStr := os.Getenv("BCRYPT_COST")
	if costStr == "" {
		costStr = "12"
	}

	cost, err := strconv.Atoi(costStr)
	if err != nil {
		return nil, fmt.Errorf("invalid BCRYPT_COST: %v", err)
	}

	config := &PasswordConfig{
		BcryptCost: cost,
		Pepper:     os.Getenv("PASSWORD_PEPPER"),
	}

	if err := config.normalize(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *PasswordConfig) normalize() error {
	if c.BcryptCost < 10 || c.BcryptCost > 14 {
		return fmt.Errorf("bcrypt cost out of range: %d (must be 10-14)", c.BcryptCost)
	}
	return nil
}

func (c *PasswordConfig) peppered(pw string) []byte {
	return []byte(pw + c.Pepper)
}

// HashPassword hashes a password using bcrypt (with optional pepper).
func (c *PasswordConfig) HashPassword(pw string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(c.peppered(pw), c.BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword verifies a password against a stored hash (with optional pepper).
func (c *PasswordConfig) VerifyPassword(pw, storedHash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(storedHash), c.peppered(pw)) == nil
}

// AuthorCredentials is the single pose-author login accepted by the API.
type AuthorCredentials struct {
	Username     string
	PasswordHash string
}

// NewAuthorCredentials reads AUTHOR_USERNAME (default "author") and
// AUTHOR_PASSWORD_HASH. A missing hash disables login.
func NewAuthorCredentials() *AuthorCredentials {
	username := os.Getenv("AUTHOR_USERNAME")
	if username == "" {
		username = "author"
	}
	return &AuthorCredentials{
		Username:     username,
		PasswordHash: os.Getenv("AUTHOR_PASSWORD_HASH"),
	}
}

// Enabled reports whether a password hash is configured.
func (a *AuthorCredentials) Enabled() bool {
	return a != nil && a.PasswordHash != ""
}

// Check verifies a login attempt.
func (a *AuthorCredentials) Check(pc *PasswordConfig, username, password string) bool {
	if !a.Enabled() || pc == nil {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.Username)) == 1
	// Always run bcrypt so a wrong username costs the same as a wrong password.
	passOK := pc.VerifyPassword(password, a.PasswordHash)
	return userOK && passOK
}
