package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrPasswordTooShort rejects operator passwords below the minimum length.
var ErrPasswordTooShort = errors.New("password must be at least 8 characters")

// Operator accounts are seeded once at startup and verified once per
// session login, so a slow cost factor is affordable.
const (
	credentialCost    = 12
	minPasswordLength = 8
)

// HashPassword hashes an operator password for seeding into the store.
func HashPassword(password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", ErrPasswordTooShort
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), credentialCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches the stored hash.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
