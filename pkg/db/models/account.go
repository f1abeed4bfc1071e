package models

import (
	"time"

	"github.com/boiler360/storefront-backend/pkg/types"
	"github.com/google/uuid"
)

// Account represents the canonical identity entity. Login is only populated
// for accounts created through the external identity provider.
type Account struct {
	ID           uuid.UUID     `gorm:"column:id;type:uuid;primaryKey"`
	Login        *string       `gorm:"column:login;uniqueIndex"`
	Username     string        `gorm:"column:username;not null;uniqueIndex"`
	Email        *string       `gorm:"column:email;uniqueIndex"`
	PasswordHash string        `gorm:"column:password_hash;not null"`
	IsAdmin      bool          `gorm:"column:is_admin;not null;default:false"`
	Place        types.JSONMap `gorm:"column:place;type:jsonb;serializer:json"`
	BillingRef   *string       `gorm:"column:billing_ref"`
	Avatar       *string       `gorm:"column:avatar"`
	CreatedAt    time.Time     `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time     `gorm:"column:updated_at;autoUpdateTime"`
}
