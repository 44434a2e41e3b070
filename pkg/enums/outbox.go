package enums

// OutboxEventType identifies the domain event stored in the outbox.
type OutboxEventType string

const (
	EventOrderCreated         OutboxEventType = "order.created"
	EventOrderUpdated         OutboxEventType = "order.updated"
	EventVendorAccountUpdated OutboxEventType = "vendor.account.updated"
)

// OutboxAggregateType identifies which aggregate an outbox event belongs to.
type OutboxAggregateType string

const (
	AggregateOrder  OutboxAggregateType = "order"
	AggregateVendor OutboxAggregateType = "vendor"
)
