package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/avolkovs/linkup/internal/common"
)

// MaxPasswordLength is the bcrypt input limit in bytes. Longer passwords
// would be silently truncated by the algorithm, so they are rejected.
const MaxPasswordLength = 72

// HashPassword produces a salted bcrypt hash of password with the given
// cost. Empty or oversized passwords yield common.ErrInvalidInput.
func HashPassword(password string, cost int) (string, error) {
	if password == "" || len(password) > MaxPasswordLength {
		return "", common.ErrInvalidInput
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}

	return string(hash), nil
}

// CheckPassword reports whether password matches hash. A mismatch is a
// false result, not an error; an error means the stored hash itself is
// malformed. bcrypt's comparison does not leak where a mismatch occurs.
func CheckPassword(password, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, fmt.Errorf("malformed password hash: %w", err)
}
