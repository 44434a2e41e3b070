package notifications

import (
	"time"

	"github.com/google/uuid"

	"github.com/platebite/platebite-backend/pkg/db/models"
	"github.com/platebite/platebite-backend/pkg/enums"
)

// NotificationView is the client-facing shape of a stored notification.
type NotificationView struct {
	ID        uuid.UUID              `json:"id"`
	OrderID   *uuid.UUID             `json:"order_id,omitempty"`
	Type      enums.NotificationType `json:"type"`
	Title     string                 `json:"title"`
	Body      string                 `json:"body"`
	ReadAt    *time.Time             `json:"read_at,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// NotificationList is one cursor page of notifications for clients.
type NotificationList struct {
	Notifications []NotificationView `json:"notifications"`
	NextCursor    string             `json:"next_cursor,omitempty"`
}

// NewNotificationList maps a service page onto the client shape.
func NewNotificationList(page *Page) NotificationList {
	list := NotificationList{NextCursor: page.NextCursor}
	list.Notifications = make([]NotificationView, 0, len(page.Notifications))
	for _, n := range page.Notifications {
		list.Notifications = append(list.Notifications, newNotificationView(n))
	}
	return list
}

func newNotificationView(n models.Notification) NotificationView {
	return NotificationView{
		ID:        n.ID,
		OrderID:   n.OrderID,
		Type:      n.Type,
		Title:     n.Title,
		Body:      n.Body,
		ReadAt:    n.ReadAt,
		CreatedAt: n.CreatedAt,
	}
}
