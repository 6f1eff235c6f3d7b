package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DistributorPrice is the per-product price-list entry gating bulk ordering.
// A product without an active entry is not bulk-eligible.
type DistributorPrice struct {
	ID           uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID    uuid.UUID        `gorm:"column:product_id;type:uuid;not null;uniqueIndex"`
	SellingPrice *decimal.Decimal `gorm:"column:selling_price;type:numeric(12,2)"`
	PiecesPerSet int              `gorm:"column:pieces_per_set;not null;default:1"`
	AllowPieces  bool             `gorm:"column:allow_pieces;not null;default:true"`
	AllowSets    bool             `gorm:"column:allow_sets;not null;default:false"`
	IsActive     bool             `gorm:"column:is_active;not null;default:true"`
	CreatedAt    time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
