// Package payloads declares the wire shape of domain events so producers and
// consumers share one definition.
package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/platebite/platebite-backend/pkg/enums"
)

// OrderCreatedEvent fans out to the owning vendor's channel when a new order
// lands in pending.
type OrderCreatedEvent struct {
	OrderID        uuid.UUID            `json:"order_id"`
	VendorID       uuid.UUID            `json:"vendor_id"`
	CustomerID     uuid.UUID            `json:"customer_id"`
	FulfilmentType enums.FulfilmentType `json:"fulfilment_type"`
	TotalPence     int64                `json:"total_pence"`
	Status         enums.OrderStatus    `json:"status"`
	CreatedAt      time.Time            `json:"created_at"`
}

// OrderUpdatedEvent fans out to both the vendor channel and the order channel
// whenever an order's status or payment status changes. Consumers reconcile
// idempotently by comparing UpdatedAt.
type OrderUpdatedEvent struct {
	OrderID       uuid.UUID           `json:"order_id"`
	VendorID      uuid.UUID           `json:"vendor_id"`
	CustomerID    uuid.UUID           `json:"customer_id"`
	Status        enums.OrderStatus   `json:"status"`
	PaymentStatus enums.PaymentStatus `json:"payment_status"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// VendorAccountUpdatedEvent reports connected-account onboarding changes. It
// is not tied to any specific order.
type VendorAccountUpdatedEvent struct {
	VendorID       uuid.UUID `json:"vendor_id"`
	ChargesEnabled bool      `json:"charges_enabled"`
	PayoutsEnabled bool      `json:"payouts_enabled"`
}
