package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kiranakart/kiranakart-backend/pkg/enums"
)

// BulkOrder is a distributor wholesale purchase priced from the price list.
type BulkOrder struct {
	ID            uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	DistributorID uuid.UUID             `gorm:"column:distributor_id;type:uuid;not null;index"`
	TotalAmount   decimal.Decimal       `gorm:"column:total_amount;type:numeric(14,2);not null"`
	Status        enums.BulkOrderStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	Notes         *string               `gorm:"column:notes"`
	Items         []BulkOrderItem       `gorm:"foreignKey:BulkOrderID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

// BulkOrderItem is one product line in a bulk order. ActualPieces carries the
// set expansion (quantity x piecesPerSet) for set-typed lines.
type BulkOrderItem struct {
	ID           uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BulkOrderID  uuid.UUID           `gorm:"column:bulk_order_id;type:uuid;not null;index"`
	ProductID    uuid.UUID           `gorm:"column:product_id;type:uuid;not null"`
	OrderType    enums.BulkOrderType `gorm:"column:order_type;type:text;not null"`
	Quantity     int                 `gorm:"column:quantity;not null"`
	ActualPieces int                 `gorm:"column:actual_pieces;not null"`
	UnitPrice    decimal.Decimal     `gorm:"column:unit_price;type:numeric(12,2);not null"`
	TotalPrice   decimal.Decimal     `gorm:"column:total_price;type:numeric(14,2);not null"`
	CreatedAt    time.Time           `gorm:"column:created_at;autoCreateTime"`
}
