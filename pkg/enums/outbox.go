package enums

// OutboxEventType names a domain event stored in the transactional outbox.
type OutboxEventType string

const (
	EventOrderPlaced      OutboxEventType = "order.placed"
	EventBulkOrderPlaced  OutboxEventType = "bulk_order.placed"
	EventBulkOrderDeleted OutboxEventType = "bulk_order.deleted"
)

// OutboxAggregateType names the aggregate an outbox event belongs to.
type OutboxAggregateType string

const (
	AggregateOrder     OutboxAggregateType = "order"
	AggregateBulkOrder OutboxAggregateType = "bulk_order"
)

// OutboxEventStatus tracks publisher progress for an outbox row.
type OutboxEventStatus string

const (
	OutboxEventStatusPending   OutboxEventStatus = "pending"
	OutboxEventStatusPublished OutboxEventStatus = "published"
	OutboxEventStatusFailed    OutboxEventStatus = "failed"
)
