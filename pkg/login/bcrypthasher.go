package login

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher defines the interface for password hashing implementations
type PasswordHasher interface {
	// Hash hashes a password
	Hash(password string) (string, error)

	// Verify checks if the provided password matches the stored hash.
	// A mismatch is (false, nil); an error means the hash itself is unusable.
	Verify(password, hashedPassword string) (bool, error)
}

// BcryptHasher implements PasswordHasher with bcrypt
type BcryptHasher struct {
	Cost int
}

// NewBcryptHasher returns a hasher using cost, or bcrypt.DefaultCost when
// cost is out of range.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{Cost: cost}
}

// Hash implements PasswordHasher.Hash
func (h *BcryptHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", errors.New("password cannot be empty")
	}

	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), h.Cost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

// Verify implements PasswordHasher.Verify
func (h *BcryptHasher) Verify(password, hashedPassword string) (bool, error) {
	if password == "" || hashedPassword == "" {
		return false, errors.New("password and hashed password cannot be empty")
	}

	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
