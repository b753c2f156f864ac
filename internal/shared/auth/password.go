package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost is the work factor for stored admin credentials.
const DefaultBcryptCost = 12

// CredentialVerifier checks a presented credential against a stored hash.
type CredentialVerifier interface {
	Verify(credential, storedHash string) bool
}

// BcryptHasher hashes and verifies passwords with bcrypt.
type BcryptHasher struct {
	Cost int
}

// Hash returns a salted bcrypt hash of password.
func (h BcryptHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", errors.New("password is required")
	}
	cost := h.Cost
	if cost == 0 {
		cost = DefaultBcryptCost
	}
	out, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Verify reports whether credential matches storedHash.
func (h BcryptHasher) Verify(credential, storedHash string) bool {
	if credential == "" || storedHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(credential)) == nil
}

var _ CredentialVerifier = BcryptHasher{}
