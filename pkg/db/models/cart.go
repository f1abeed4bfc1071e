package models

import (
	"time"

	"github.com/google/uuid"
)

// Cart is the mutable pending-purchase collection. AccountID is nil only for
// the single guest cart, which carries IsGuest instead. The unique index on
// account_id backs the one-cart-per-account invariant.
type Cart struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	AccountID *uuid.UUID `gorm:"column:account_id;type:uuid;uniqueIndex"`
	IsGuest   bool       `gorm:"column:is_guest;not null;default:false"`
	Items     []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
