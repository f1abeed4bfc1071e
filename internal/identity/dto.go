package identity

import (
	"github.com/boiler360/storefront-backend/pkg/db/models"
	"github.com/boiler360/storefront-backend/pkg/types"
)

// RegisterInput carries the fields accepted when creating a local account.
type RegisterInput struct {
	Username string
	Password string
	Email    *string
	Place    types.JSONMap
}

// AuthResult bundles the authenticated account with its freshly minted
// access token.
type AuthResult struct {
	Account *models.Account
	Token   string
}
