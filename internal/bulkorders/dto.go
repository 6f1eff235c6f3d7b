package bulkorders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kiranakart/kiranakart-backend/pkg/db/models"
	"github.com/kiranakart/kiranakart-backend/pkg/enums"
)

// ItemRequest is one requested bulk line before price-list resolution.
type ItemRequest struct {
	ProductID uuid.UUID
	OrderType enums.BulkOrderType
	Quantity  int
}

// PlaceInput captures one bulk order placement request.
type PlaceInput struct {
	DistributorUserID uuid.UUID
	Items             []ItemRequest
	Notes             *string
}

// ListFilter narrows bulk order lists; a nil DistributorID means all
// distributors (admin view).
type ListFilter struct {
	DistributorID *uuid.UUID
	Status        *enums.BulkOrderStatus
}

// Summary exposes the aggregated fields returned in list responses.
type Summary struct {
	ID            uuid.UUID             `json:"id"`
	DistributorID uuid.UUID             `json:"distributor_id"`
	TotalAmount   decimal.Decimal       `json:"total_amount"`
	Status        enums.BulkOrderStatus `json:"status"`
	TotalItems    int                   `json:"total_items"`
	CreatedAt     time.Time             `json:"created_at"`
}

// List wraps paginated bulk orders plus the next page cursor.
type List struct {
	Orders     []Summary `json:"orders"`
	NextCursor string    `json:"next_cursor,omitempty"`
}

// StatusStat is one row of the admin stats aggregate.
type StatusStat struct {
	Status      enums.BulkOrderStatus `json:"status"`
	OrderCount  int64                 `json:"order_count"`
	TotalAmount decimal.Decimal       `json:"total_amount"`
}

// UpdateInput carries the admin-editable bulk order fields.
type UpdateInput struct {
	Status enums.BulkOrderStatus
	Notes  *string
}

// DeleteResult reports what an administrative deletion removed.
type DeleteResult struct {
	OrderID        uuid.UUID           `json:"order_id"`
	LedgerEntry    *models.LedgerEntry `json:"-"`
	LedgerReverted bool                `json:"ledger_reverted"`
}
