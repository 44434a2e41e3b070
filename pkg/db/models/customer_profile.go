package models

import (
	"time"

	"github.com/google/uuid"
)

// CustomerProfile links an identity-provider user id to the processor-side
// customer record created on first payment.
type CustomerProfile struct {
	CustomerID       uuid.UUID `gorm:"column:customer_id;type:uuid;primaryKey"`
	StripeCustomerID string    `gorm:"column:stripe_customer_id;not null"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
