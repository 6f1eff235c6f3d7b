package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kiranakart/kiranakart-backend/pkg/enums"
)

// OrderSummary exposes the aggregated fields returned in the buyer list.
type OrderSummary struct {
	ID            uuid.UUID           `json:"id"`
	Status        enums.OrderStatus   `json:"status"`
	PaymentMethod enums.PaymentMethod `json:"payment_method"`
	ItemsTotal    decimal.Decimal     `json:"items_total"`
	DeliveryTotal decimal.Decimal     `json:"delivery_total"`
	Total         decimal.Decimal     `json:"total"`
	TotalItems    int                 `json:"total_items"`
	SellerCount   int                 `json:"seller_count"`
	CreatedAt     time.Time           `json:"created_at"`
}

// OrderList wraps the paginated orders plus the next page cursor.
type OrderList struct {
	Orders     []OrderSummary `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
}
