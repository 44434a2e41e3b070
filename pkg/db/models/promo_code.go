package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/platebite/platebite-backend/pkg/enums"
)

// PromoCode is a discount rule. Codes are stored lowercase so lookup is
// case-insensitive.
type PromoCode struct {
	ID            uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code          string             `gorm:"column:code;uniqueIndex:ux_promo_codes_code;not null"`
	DiscountType  enums.DiscountType `gorm:"column:discount_type;type:text;not null"`
	DiscountValue int64              `gorm:"column:discount_value;not null"`
	MinOrderPence int64              `gorm:"column:min_order_pence;not null;default:0"`
	MaxUses       *int               `gorm:"column:max_uses"`
	UsedCount     int                `gorm:"column:used_count;not null;default:0"`
	VendorID      *uuid.UUID         `gorm:"column:vendor_id;type:uuid"`
	ExpiresAt     *time.Time         `gorm:"column:expires_at"`
	Active        bool               `gorm:"column:active;not null;default:true"`
	CreatedAt     time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
