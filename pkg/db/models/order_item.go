package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderItem snapshots one meal line at order time. Name and prices are
// denormalized so historical orders stay readable after a meal is edited.
type OrderItem struct {
	ID              uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID         uuid.UUID `gorm:"column:order_id;type:uuid;not null"`
	MealID          uuid.UUID `gorm:"column:meal_id;type:uuid;not null"`
	Name            string    `gorm:"column:name;not null"`
	Qty             int       `gorm:"column:qty;not null"`
	UnitPricePence  int64     `gorm:"column:unit_price_pence;not null"`
	TotalPricePence int64     `gorm:"column:total_price_pence;not null"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
}
