// Package bcrypthash implements password hashing with golang.org/x/crypto/bcrypt.
package bcrypthash

import (
	"errors"
	"fmt"

	"github.com/target/itemvault/internal/ports"
	"golang.org/x/crypto/bcrypt"
)

// Hasher hashes passwords with a fixed bcrypt cost.
type Hasher struct {
	cost int
}

// New returns a Hasher. A cost outside bcrypt's accepted range falls back to bcrypt.DefaultCost.
func New(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// Cost returns the configured bcrypt cost.
func (h *Hasher) Cost() int { return h.cost }

// Hash returns the bcrypt hash of password. Passwords longer than 72 bytes are rejected by bcrypt.
func (h *Hasher) Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

// maxPasswordBytes is the bcrypt input limit. Longer input would be truncated.
const maxPasswordBytes = 72

// Compare checks password against hash without ever comparing plaintext.
// A password over 72 bytes never matches, even when its prefix does.
func (h *Hasher) Compare(hash, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err == nil && len(password) > maxPasswordBytes {
		return ports.ErrPasswordMismatch
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ports.ErrPasswordMismatch
	}
	if err != nil {
		return fmt.Errorf("compare password: %w", err)
	}
	return nil
}
