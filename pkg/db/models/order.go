package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kiranakart/kiranakart-backend/pkg/enums"
	"github.com/kiranakart/kiranakart-backend/pkg/types"
)

// Order is the buyer-facing order header spanning one or more sellers.
type Order struct {
	ID               uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BuyerID          uuid.UUID           `gorm:"column:buyer_id;type:uuid;not null;index"`
	AddressID        uuid.UUID           `gorm:"column:address_id;type:uuid;not null"`
	Status           enums.OrderStatus   `gorm:"column:status;type:text;not null;default:'pending'"`
	PaymentMethod    enums.PaymentMethod `gorm:"column:payment_method;type:text;not null"`
	ItemsTotal       decimal.Decimal     `gorm:"column:items_total;type:numeric(12,2);not null"`
	DeliveryTotal    decimal.Decimal     `gorm:"column:delivery_total;type:numeric(12,2);not null;default:0"`
	Total            decimal.Decimal     `gorm:"column:total;type:numeric(12,2);not null"`
	ShippingSnapshot types.Address       `gorm:"column:shipping_snapshot;type:jsonb;serializer:json"`
	PlacedByAdminID  *uuid.UUID          `gorm:"column:placed_by_admin_id;type:uuid"`
	Items            []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	SellerOrders     []SellerOrder       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
