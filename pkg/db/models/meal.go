package models

import (
	"time"

	"github.com/google/uuid"
)

// Meal is a vendor menu item with a contended stock counter.
type Meal struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VendorID   uuid.UUID `gorm:"column:vendor_id;type:uuid;not null"`
	Name       string    `gorm:"column:name;not null"`
	PricePence int64     `gorm:"column:price_pence;not null"`
	StockCount int       `gorm:"column:stock_count;not null;default:0"`
	Active     bool      `gorm:"column:active;not null;default:true"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
