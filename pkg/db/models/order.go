package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/platebite/platebite-backend/pkg/enums"
)

// Order is the purchase aggregate. The monetary breakdown is frozen at
// creation; line items are never mutated afterwards.
type Order struct {
	ID               uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID       uuid.UUID            `gorm:"column:customer_id;type:uuid;not null"`
	VendorID         uuid.UUID            `gorm:"column:vendor_id;type:uuid;not null"`
	FulfilmentType   enums.FulfilmentType `gorm:"column:fulfilment_type;type:text;not null"`
	Status           enums.OrderStatus    `gorm:"column:status;type:text;not null;default:'pending'"`
	PaymentStatus    enums.PaymentStatus  `gorm:"column:payment_status;type:text;not null;default:'unpaid'"`
	SubtotalPence    int64                `gorm:"column:subtotal_pence;not null"`
	ServiceFeePence  int64                `gorm:"column:service_fee_pence;not null;default:0"`
	DeliveryFeePence int64                `gorm:"column:delivery_fee_pence;not null;default:0"`
	DiscountPence    int64                `gorm:"column:discount_pence;not null;default:0"`
	TotalPence       int64                `gorm:"column:total_pence;not null"`
	PromoCodeID      *uuid.UUID           `gorm:"column:promo_code_id;type:uuid"`
	DeliveryAddress  *string              `gorm:"column:delivery_address"`
	CollectionTime   *time.Time           `gorm:"column:collection_time"`
	Notes            *string              `gorm:"column:notes"`
	PaymentRef       *string              `gorm:"column:payment_ref"`
	Items            []OrderItem          `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	ConfirmedAt      *time.Time           `gorm:"column:confirmed_at"`
	CancelledAt      *time.Time           `gorm:"column:cancelled_at"`
	CreatedAt        time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
