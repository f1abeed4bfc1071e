package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload captures the data available when minting a token.
type AccessTokenPayload struct {
	AccountID uuid.UUID
	IsAdmin   bool
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	AccountID uuid.UUID `json:"account_id"`
	IsAdmin   bool      `json:"is_admin,omitempty"`
	jwt.RegisteredClaims
}
