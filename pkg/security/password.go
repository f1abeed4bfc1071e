package security

import (
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/boiler360/storefront-backend/pkg/config"
	"golang.org/x/crypto/bcrypt"
)

var placeholderCharset = []rune("ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789")

// HashPassword returns a bcrypt digest of the provided plaintext. Callers
// invoke it exactly once per credential change; nothing rehashes on save.
func HashPassword(password string, cfg config.PasswordConfig) (string, error) {
	if password == "" {
		return "", errors.New("password cannot be empty")
	}
	cost := clampCost(cfg.BcryptCost)
	digest, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(digest), nil
}

// VerifyPassword reports whether the plaintext matches the stored digest.
// A malformed digest counts as a mismatch, not an error, so credential
// checks stay uniform for the caller.
func VerifyPassword(password, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
}

// GenerateUnusablePassword produces a random credential for accounts that
// only ever log in through the external identity provider.
func GenerateUnusablePassword(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("length must be positive")
	}
	result := make([]rune, length)
	for i := range result {
		idx, err := randInt(len(placeholderCharset))
		if err != nil {
			return "", err
		}
		result[i] = placeholderCharset[idx]
	}
	return string(result), nil
}

func clampCost(cost int) int {
	if cost < bcrypt.MinCost {
		return bcrypt.DefaultCost
	}
	if cost > bcrypt.MaxCost {
		return bcrypt.MaxCost
	}
	return cost
}

func randInt(max int) (int, error) {
	if max <= 0 {
		return 0, fmt.Errorf("invalid max %d", max)
	}
	var buff = make([]byte, 1)
	if _, err := rand.Read(buff); err != nil {
		return 0, err
	}
	return int(buff[0]) % max, nil
}
