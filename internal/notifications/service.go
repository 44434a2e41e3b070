// Package notifications materializes domain events into stored alerts for
// customer and vendor inboxes.
package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/platebite/platebite-backend/pkg/db/models"
	"github.com/platebite/platebite-backend/pkg/enums"
	pkgerrors "github.com/platebite/platebite-backend/pkg/errors"
	"github.com/platebite/platebite-backend/pkg/logger"
	"github.com/platebite/platebite-backend/pkg/outbox/payloads"
	"github.com/platebite/platebite-backend/pkg/pagination"
)

// Page is one cursor page of notifications.
type Page struct {
	Notifications []models.Notification
	NextCursor    string
}

// Service records and serves notifications.
type Service interface {
	RecordOrderCreated(ctx context.Context, event payloads.OrderCreatedEvent) error
	RecordOrderUpdated(ctx context.Context, event payloads.OrderUpdatedEvent) error
	ListForRecipient(ctx context.Context, recipientID uuid.UUID, params pagination.Params) (*Page, error)
	MarkRead(ctx context.Context, recipientID, notificationID uuid.UUID) error
}

// ServiceParams wires the notification service dependencies.
type ServiceParams struct {
	Repo   Repository
	Logger *logger.Logger
}

type service struct {
	repo Repository
	logg *logger.Logger
	now  func() time.Time
}

// NewService builds the notification service, failing fast on missing deps.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("notification service requires a repository")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("notification service requires a logger")
	}
	return &service{
		repo: params.Repo,
		logg: params.Logger,
		now:  time.Now,
	}, nil
}

// RecordOrderCreated alerts the vendor about a fresh order.
func (s *service) RecordOrderCreated(ctx context.Context, event payloads.OrderCreatedEvent) error {
	orderID := event.OrderID
	notification := &models.Notification{
		RecipientID: event.VendorID,
		OrderID:     &orderID,
		Type:        enums.NotificationTypeOrderPlaced,
		Title:       "New order received",
		Body:        fmt.Sprintf("A %s order for £%.2f is waiting for payment.", event.FulfilmentType, float64(event.TotalPence)/100),
	}
	return s.repo.Create(ctx, notification)
}

// RecordOrderUpdated alerts the customer about a status change.
func (s *service) RecordOrderUpdated(ctx context.Context, event payloads.OrderUpdatedEvent) error {
	orderID := event.OrderID
	notification := &models.Notification{
		RecipientID: event.CustomerID,
		OrderID:     &orderID,
		Type:        enums.NotificationTypeOrderStatusChanged,
		Title:       "Order update",
		Body:        bodyForStatus(event.Status, event.PaymentStatus),
	}
	return s.repo.Create(ctx, notification)
}

func bodyForStatus(status enums.OrderStatus, paymentStatus enums.PaymentStatus) string {
	switch status {
	case enums.OrderStatusConfirmed:
		return "Your payment went through and the kitchen has your order."
	case enums.OrderStatusPreparing:
		return "Your order is being prepared."
	case enums.OrderStatusReady:
		return "Your order is ready."
	case enums.OrderStatusCollected:
		return "Enjoy your meal! Your order was collected."
	case enums.OrderStatusDelivered:
		return "Enjoy your meal! Your order was delivered."
	case enums.OrderStatusCancelled:
		return "Your order was cancelled."
	default:
		if paymentStatus == enums.PaymentStatusFailed {
			return "Your payment did not go through. Please try again."
		}
		return fmt.Sprintf("Your order is now %s.", status)
	}
}

func (s *service) ListForRecipient(ctx context.Context, recipientID uuid.UUID, params pagination.Params) (*Page, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.ListForRecipient(ctx, recipientID, cursor, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return nil, err
	}

	limit := pagination.NormalizeLimit(params.Limit)
	page := &Page{Notifications: rows}
	if len(rows) > limit {
		page.Notifications = rows[:limit]
		last := page.Notifications[len(page.Notifications)-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return page, nil
}

func (s *service) MarkRead(ctx context.Context, recipientID, notificationID uuid.UUID) error {
	updated, err := s.repo.MarkRead(ctx, recipientID, notificationID, s.now())
	if err != nil {
		return err
	}
	if !updated {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found or already read")
	}
	return nil
}
