package notifications

import (
	"context"

	"github.com/kiranakart/kiranakart-backend/pkg/db/models"
	"github.com/kiranakart/kiranakart-backend/pkg/logger"
)

// Notifier is the post-commit notification boundary. Delivery (email, push)
// is owned by a separate service; the order engine only hands over the facts
// after a successful commit, so a delivery failure can never roll an order
// back.
type Notifier interface {
	OrderPlaced(ctx context.Context, order *models.Order)
	BulkOrderPlaced(ctx context.Context, bulkOrder *models.BulkOrder)
}

// LogNotifier records notification intents in the structured log. The real
// delivery pipeline consumes the outbox events instead.
type LogNotifier struct {
	logg *logger.Logger
}

// NewLogNotifier builds the logging notifier.
func NewLogNotifier(logg *logger.Logger) *LogNotifier {
	return &LogNotifier{logg: logg}
}

func (n *LogNotifier) OrderPlaced(ctx context.Context, order *models.Order) {
	if n == nil || n.logg == nil || order == nil {
		return
	}
	ctx = n.logg.WithFields(ctx, map[string]any{
		"order_id": order.ID.String(),
		"buyer_id": order.BuyerID.String(),
		"total":    order.Total.StringFixed(2),
	})
	n.logg.Info(ctx, "order placed notification queued")
}

func (n *LogNotifier) BulkOrderPlaced(ctx context.Context, bulkOrder *models.BulkOrder) {
	if n == nil || n.logg == nil || bulkOrder == nil {
		return
	}
	ctx = n.logg.WithFields(ctx, map[string]any{
		"bulk_order_id":  bulkOrder.ID.String(),
		"distributor_id": bulkOrder.DistributorID.String(),
		"total_amount":   bulkOrder.TotalAmount.StringFixed(2),
	})
	n.logg.Info(ctx, "bulk order placed notification queued")
}
