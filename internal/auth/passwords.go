package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Passwords is the one-way digest collaborator. Only digests are ever
// stored, never plaintext.
type Passwords struct {
	cost int
}

// NewPasswords creates a hasher with the default bcrypt cost.
func NewPasswords() Passwords {
	return Passwords{cost: bcrypt.DefaultCost}
}

// Hash produces a digest of the password.
func (p Passwords) Hash(password string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(digest), nil
}

// Verify reports whether the password matches the digest.
func (p Passwords) Verify(digest, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
}
