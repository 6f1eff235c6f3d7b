package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kiranakart/kiranakart-backend/pkg/enums"
)

// SellerOrder is the per-seller slice of a multi-seller order.
type SellerOrder struct {
	ID             uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID        uuid.UUID               `gorm:"column:order_id;type:uuid;not null;index"`
	SellerID       uuid.UUID               `gorm:"column:seller_id;type:uuid;not null;index"`
	Subtotal       decimal.Decimal         `gorm:"column:subtotal;type:numeric(12,2);not null"`
	DeliveryCharge decimal.Decimal         `gorm:"column:delivery_charge;type:numeric(12,2);not null;default:0"`
	Status         enums.SellerOrderStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	CreatedAt      time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
