package security

import (
	"strings"
	"testing"

	"github.com/boiler360/storefront-backend/pkg/config"
)

func TestHashAndVerifyPassword(t *testing.T) {
	cfg := config.PasswordConfig{BcryptCost: 4}

	digest, err := HashPassword("hunter2", cfg)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if !strings.HasPrefix(digest, "$2") {
		t.Fatalf("expected bcrypt digest, got %q", digest)
	}
	if !VerifyPassword("hunter2", digest) {
		t.Fatal("expected matching password to verify")
	}
	if VerifyPassword("hunter3", digest) {
		t.Fatal("expected mismatched password to fail")
	}
}

func TestHashPasswordRejectsEmpty(t *testing.T) {
	if _, err := HashPassword("", config.PasswordConfig{BcryptCost: 4}); err == nil {
		t.Fatal("expected empty password to be rejected")
	}
}

func TestVerifyPasswordMalformedDigest(t *testing.T) {
	if VerifyPassword("anything", "not-a-digest") {
		t.Fatal("malformed digest must never verify")
	}
}

func TestHashPasswordNeverDoubleApplies(t *testing.T) {
	cfg := config.PasswordConfig{BcryptCost: 4}
	digest, err := HashPassword("plain", cfg)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	// Hashing the digest itself yields a credential that the original
	// plaintext cannot satisfy; create/update paths must call this once.
	double, err := HashPassword(digest, cfg)
	if err != nil {
		t.Fatalf("hash digest: %v", err)
	}
	if VerifyPassword("plain", double) {
		t.Fatal("double-applied hash should not verify the plaintext")
	}
}

func TestGenerateUnusablePassword(t *testing.T) {
	value, err := GenerateUnusablePassword(24)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(value) != 24 {
		t.Fatalf("unexpected length %d", len(value))
	}
	if _, err := GenerateUnusablePassword(0); err == nil {
		t.Fatal("expected positive length requirement")
	}
}
