package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Distributor is a wholesale account carrying a running ledger balance.
// CurrentBalance and TotalOrdered are denormalized from the ledger and are
// written exclusively by the ledger service.
type Distributor struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID         uuid.UUID       `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	BusinessName   string          `gorm:"column:business_name;not null"`
	CurrentBalance decimal.Decimal `gorm:"column:current_balance;type:numeric(14,2);not null;default:0"`
	TotalOrdered   decimal.Decimal `gorm:"column:total_ordered;type:numeric(14,2);not null;default:0"`
	IsActive       bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
