package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kiranakart/kiranakart-backend/pkg/enums"
)

// LedgerEntry is one journal line of a distributor's running-balance ledger.
// The id is a monotonic BIGSERIAL: it defines entry order within a distributor
// and drives suffix recalculation after an out-of-sequence deletion.
type LedgerEntry struct {
	ID            int64                  `gorm:"column:id;primaryKey;autoIncrement"`
	DistributorID uuid.UUID              `gorm:"column:distributor_id;type:uuid;not null;index:idx_ledger_distributor_id_id,priority:1"`
	EntryType     enums.LedgerEntryType  `gorm:"column:entry_type;type:text;not null"`
	Amount        decimal.Decimal        `gorm:"column:amount;type:numeric(14,2);not null"`
	OrderID       *uuid.UUID             `gorm:"column:order_id;type:uuid"`
	OrderType     *enums.LedgerOrderType `gorm:"column:order_type;type:text"`
	BalanceAfter  decimal.Decimal        `gorm:"column:balance_after;type:numeric(14,2);not null"`
	CreatedBy     uuid.UUID              `gorm:"column:created_by;type:uuid;not null"`
	Notes         *string                `gorm:"column:notes"`
	CreatedAt     time.Time              `gorm:"column:created_at;autoCreateTime"`
}
