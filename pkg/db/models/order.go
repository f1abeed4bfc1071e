package models

import (
	"time"

	"github.com/google/uuid"
)

// Order is the immutable snapshot produced at checkout. Rows are never
// updated after creation; line items are owned and cascade with the order.
type Order struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	AccountID uuid.UUID       `gorm:"column:account_id;type:uuid;not null;index"`
	Address   *string         `gorm:"column:address"`
	Note      *string         `gorm:"column:note"`
	Items     []OrderLineItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}
