package models

import (
	"time"

	"github.com/google/uuid"
)

// VendorAccount mirrors the payment processor's connected-account state for a
// vendor. Charges cannot be routed to a vendor until onboarding completes.
type VendorAccount struct {
	VendorID        uuid.UUID `gorm:"column:vendor_id;type:uuid;primaryKey"`
	StripeAccountID string    `gorm:"column:stripe_account_id;uniqueIndex:ux_vendor_accounts_stripe_id;not null"`
	ChargesEnabled  bool      `gorm:"column:charges_enabled;not null;default:false"`
	PayoutsEnabled  bool      `gorm:"column:payouts_enabled;not null;default:false"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
