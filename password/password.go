// Package password provides slow salted password hashing (bcrypt) and the
// account password policy.
package password

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt work factor used for new hashes.
const DefaultCost = 12

const (
	// MinLength is the minimum accepted password length.
	MinLength = 8
	// MaxLength bounds input both for policy and because bcrypt ignores
	// bytes beyond 72.
	MaxLength = 72
)

// ErrMismatch is returned by Verify when the password does not match the hash.
var ErrMismatch = errors.New("password mismatch")

const specialRunes = "!@#$%^&*()-_=+[]{};:,.<>?/|\\~`'\""

// Hasher hashes and verifies passwords with a fixed bcrypt cost.
type Hasher struct {
	cost int
}

// NewHasher returns a Hasher with the given cost. Costs below DefaultCost
// are rejected so a misconfigured deployment cannot weaken stored hashes.
func NewHasher(cost int) (*Hasher, error) {
	if cost < DefaultCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d outside [%d, %d]", cost, DefaultCost, bcrypt.MaxCost)
	}
	return &Hasher{cost: cost}, nil
}

// Hash generates a salted bcrypt hash of password.
func (h *Hasher) Hash(password string) (string, error) {
	if password == "" {
		return "", errors.New("empty password")
	}
	out, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Verify compares password against a stored hash. Returns ErrMismatch when
// they do not match.
func (h *Hasher) Verify(password, hash string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrMismatch
		}
		return err
	}
	return nil
}

// ValidatePolicy checks a candidate password against the account policy:
// length bounds plus at least one upper-case letter, one lower-case letter,
// one digit, and one special character.
func ValidatePolicy(password string) error {
	if len(password) < MinLength {
		return fmt.Errorf("password must be at least %d characters", MinLength)
	}
	if len(password) > MaxLength {
		return fmt.Errorf("password must be at most %d characters", MaxLength)
	}

	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(specialRunes, r):
			special = true
		}
	}

	switch {
	case !upper:
		return errors.New("password must contain an upper-case letter")
	case !lower:
		return errors.New("password must contain a lower-case letter")
	case !digit:
		return errors.New("password must contain a digit")
	case !special:
		return errors.New("password must contain a special character")
	}
	return nil
}
