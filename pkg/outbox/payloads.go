package outbox

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderPlacedData is the payload for order.placed events.
type OrderPlacedData struct {
	OrderID     uuid.UUID       `json:"orderId"`
	BuyerID     uuid.UUID       `json:"buyerId"`
	Total       decimal.Decimal `json:"total"`
	SellerCount int             `json:"sellerCount"`
}

// BulkOrderPlacedData is the payload for bulk_order.placed events. The
// ledger reconciler consumes it to post the charge when the synchronous
// post did not land.
type BulkOrderPlacedData struct {
	BulkOrderID   uuid.UUID       `json:"bulkOrderId"`
	DistributorID uuid.UUID       `json:"distributorId"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
}

// BulkOrderDeletedData is the payload for bulk_order.deleted events.
type BulkOrderDeletedData struct {
	BulkOrderID   uuid.UUID `json:"bulkOrderId"`
	DistributorID uuid.UUID `json:"distributorId"`
}
