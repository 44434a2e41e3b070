package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/platebite/platebite-backend/pkg/enums"
)

// Notification is a stored alert for a customer or vendor device.
type Notification struct {
	ID          uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RecipientID uuid.UUID              `gorm:"column:recipient_id;type:uuid;not null;index:ix_notifications_recipient"`
	OrderID     *uuid.UUID             `gorm:"column:order_id;type:uuid"`
	Type        enums.NotificationType `gorm:"column:type;type:text;not null"`
	Title       string                 `gorm:"column:title;not null"`
	Body        string                 `gorm:"column:body;not null"`
	ReadAt      *time.Time             `gorm:"column:read_at"`
	CreatedAt   time.Time              `gorm:"column:created_at;autoCreateTime"`
}
