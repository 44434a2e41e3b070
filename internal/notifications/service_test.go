package notifications

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/platebite/platebite-backend/pkg/db/models"
	"github.com/platebite/platebite-backend/pkg/enums"
	pkgerrors "github.com/platebite/platebite-backend/pkg/errors"
	"github.com/platebite/platebite-backend/pkg/logger"
	"github.com/platebite/platebite-backend/pkg/outbox"
	"github.com/platebite/platebite-backend/pkg/outbox/payloads"
	"github.com/platebite/platebite-backend/pkg/pagination"
)

type stubRepo struct {
	created  []*models.Notification
	rows     []models.Notification
	markRead func(recipientID, id uuid.UUID) (bool, error)
}

func (s *stubRepo) Create(ctx context.Context, notification *models.Notification) error {
	s.created = append(s.created, notification)
	return nil
}

func (s *stubRepo) ListForRecipient(ctx context.Context, recipientID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Notification, error) {
	if len(s.rows) > limit {
		return s.rows[:limit], nil
	}
	return s.rows, nil
}

func (s *stubRepo) MarkRead(ctx context.Context, recipientID, id uuid.UUID, at time.Time) (bool, error) {
	if s.markRead != nil {
		return s.markRead(recipientID, id)
	}
	return true, nil
}

func newTestService(t *testing.T, repo Repository) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Repo:   repo,
		Logger: logger.New(logger.Options{ServiceName: "notifications-test"}),
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestRecordOrderCreatedTargetsVendor(t *testing.T) {
	repo := &stubRepo{}
	svc := newTestService(t, repo)
	vendorID := uuid.New()
	orderID := uuid.New()

	err := svc.RecordOrderCreated(context.Background(), payloads.OrderCreatedEvent{
		OrderID:        orderID,
		VendorID:       vendorID,
		CustomerID:     uuid.New(),
		FulfilmentType: enums.FulfilmentTypeDelivery,
		TotalPence:     2350,
	})
	if err != nil {
		t.Fatalf("RecordOrderCreated: %v", err)
	}

	if len(repo.created) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(repo.created))
	}
	n := repo.created[0]
	if n.RecipientID != vendorID {
		t.Fatalf("expected vendor recipient, got %s", n.RecipientID)
	}
	if n.Type != enums.NotificationTypeOrderPlaced {
		t.Fatalf("expected order_placed, got %s", n.Type)
	}
	if n.OrderID == nil || *n.OrderID != orderID {
		t.Fatal("expected order id on the notification")
	}
}

func TestRecordOrderUpdatedTargetsCustomer(t *testing.T) {
	repo := &stubRepo{}
	svc := newTestService(t, repo)
	customerID := uuid.New()

	err := svc.RecordOrderUpdated(context.Background(), payloads.OrderUpdatedEvent{
		OrderID:       uuid.New(),
		VendorID:      uuid.New(),
		CustomerID:    customerID,
		Status:        enums.OrderStatusReady,
		PaymentStatus: enums.PaymentStatusPaid,
	})
	if err != nil {
		t.Fatalf("RecordOrderUpdated: %v", err)
	}

	if len(repo.created) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(repo.created))
	}
	n := repo.created[0]
	if n.RecipientID != customerID {
		t.Fatalf("expected customer recipient, got %s", n.RecipientID)
	}
	if n.Type != enums.NotificationTypeOrderStatusChanged {
		t.Fatalf("expected order_status_changed, got %s", n.Type)
	}
	if n.Body != "Your order is ready." {
		t.Fatalf("unexpected body %q", n.Body)
	}
}

func TestMarkReadReportsMissing(t *testing.T) {
	repo := &stubRepo{
		markRead: func(recipientID, id uuid.UUID) (bool, error) { return false, nil },
	}
	svc := newTestService(t, repo)

	err := svc.MarkRead(context.Background(), uuid.New(), uuid.New())
	if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestConsumerRoutesEvents(t *testing.T) {
	repo := &stubRepo{}
	svc := newTestService(t, repo)
	consumer, err := NewConsumer(svc, logger.New(logger.Options{ServiceName: "notifications-test"}))
	if err != nil {
		t.Fatalf("NewConsumer: %v", err)
	}

	data, _ := json.Marshal(payloads.OrderCreatedEvent{
		OrderID:  uuid.New(),
		VendorID: uuid.New(),
	})
	envelope, _ := json.Marshal(outbox.PayloadEnvelope{
		Version: 1,
		EventID: uuid.NewString(),
		Data:    data,
	})

	err = consumer.Handle(context.Background(), map[string]string{"event_type": "order.created"}, envelope)
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(repo.created) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(repo.created))
	}

	// Vendor account events are skipped, not failed.
	err = consumer.Handle(context.Background(), map[string]string{"event_type": "vendor.account.updated"}, envelope)
	if err != nil {
		t.Fatalf("expected skip, got %v", err)
	}
	if len(repo.created) != 1 {
		t.Fatalf("expected no extra notifications, got %d", len(repo.created))
	}
}
