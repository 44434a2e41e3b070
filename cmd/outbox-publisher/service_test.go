package main

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/platebite/platebite-backend/internal/realtime"
	"github.com/platebite/platebite-backend/pkg/config"
	"github.com/platebite/platebite-backend/pkg/db/models"
	"github.com/platebite/platebite-backend/pkg/enums"
	"github.com/platebite/platebite-backend/pkg/logger"
	"github.com/platebite/platebite-backend/pkg/outbox"
	"github.com/platebite/platebite-backend/pkg/outbox/payloads"
)

type fakeDB struct{}

func (fakeDB) Ping(context.Context) error { return nil }

func (fakeDB) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeRepo struct {
	events    []models.OutboxEvent
	published []uuid.UUID
	failed    []uuid.UUID
}

func (r *fakeRepo) FetchUnpublishedForPublish(tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error) {
	return r.events, nil
}

func (r *fakeRepo) MarkPublishedTx(tx *gorm.DB, id uuid.UUID) error {
	r.published = append(r.published, id)
	return nil
}

func (r *fakeRepo) MarkFailedTx(tx *gorm.DB, id uuid.UUID, cause error) error {
	r.failed = append(r.failed, id)
	return nil
}

type fakePublishResult struct {
	err error
}

func (r fakePublishResult) Get(context.Context) (string, error) {
	return "msg-id", r.err
}

type fakePublisher struct {
	messages []*gcppubsub.Message
	results  []publishResult
}

func (p *fakePublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	p.messages = append(p.messages, msg)
	if len(p.results) == 0 {
		return fakePublishResult{}
	}
	next := p.results[0]
	p.results = p.results[1:]
	return next
}

func newTestService(t *testing.T, repo *fakeRepo, ordersPub, notificationPub *fakePublisher) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Config:                &config.Config{},
		Logger:                logger.New(logger.Options{ServiceName: "outbox-test"}),
		DB:                    fakeDB{},
		Repository:            repo,
		OrdersPublisher:       ordersPub,
		NotificationPublisher: notificationPub,
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func orderCreatedPayload(t *testing.T, orderID, vendorID uuid.UUID) []byte {
	t.Helper()
	data, err := json.Marshal(payloads.OrderCreatedEvent{
		OrderID:   orderID,
		VendorID:  vendorID,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	envelope, err := json.Marshal(outbox.PayloadEnvelope{
		Version: 1,
		EventID: uuid.NewString(),
		Data:    data,
	})
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return envelope
}

func TestProcessBatchPublishesWithVendorOrderingKey(t *testing.T) {
	orderID := uuid.New()
	vendorID := uuid.New()
	event := models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   orderID,
		Payload:       orderCreatedPayload(t, orderID, vendorID),
	}
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	ordersPub := &fakePublisher{}
	notificationPub := &fakePublisher{}
	svc := newTestService(t, repo, ordersPub, notificationPub)

	processed, err := svc.processBatch(context.Background())
	if err != nil {
		t.Fatalf("processBatch: %v", err)
	}
	if !processed {
		t.Fatal("expected batch to report processed")
	}
	if len(repo.published) != 1 || repo.published[0] != event.ID {
		t.Fatalf("expected event marked published, got %v", repo.published)
	}
	if len(ordersPub.messages) != 1 || len(notificationPub.messages) != 1 {
		t.Fatalf("expected fanout to both topics, got %d/%d", len(ordersPub.messages), len(notificationPub.messages))
	}

	msg := ordersPub.messages[0]
	wantKey := realtime.VendorChannel(vendorID)
	if msg.OrderingKey != wantKey {
		t.Fatalf("expected ordering key %q, got %q", wantKey, msg.OrderingKey)
	}
	if msg.Attributes["event_type"] != "order.created" {
		t.Fatalf("unexpected event_type attribute %q", msg.Attributes["event_type"])
	}
}

func TestProcessBatchContinuesAfterFailure(t *testing.T) {
	first := models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Payload:       orderCreatedPayload(t, uuid.New(), uuid.New()),
	}
	second := models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Payload:       orderCreatedPayload(t, uuid.New(), uuid.New()),
	}
	repo := &fakeRepo{events: []models.OutboxEvent{first, second}}
	ordersPub := &fakePublisher{
		results: []publishResult{
			fakePublishResult{err: errors.New("transient")},
			fakePublishResult{},
		},
	}
	notificationPub := &fakePublisher{}
	svc := newTestService(t, repo, ordersPub, notificationPub)

	processed, err := svc.processBatch(context.Background())
	if err != nil {
		t.Fatalf("processBatch: %v", err)
	}
	if !processed {
		t.Fatal("expected batch to report processed")
	}
	if len(repo.failed) != 1 || repo.failed[0] != first.ID {
		t.Fatalf("expected first event marked failed, got %v", repo.failed)
	}
	if len(repo.published) != 1 || repo.published[0] != second.ID {
		t.Fatalf("expected second event marked published, got %v", repo.published)
	}
}

func TestProcessBatchParksUnroutableEvents(t *testing.T) {
	event := models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.OutboxEventType("order.exploded"),
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Payload:       orderCreatedPayload(t, uuid.New(), uuid.New()),
	}
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	ordersPub := &fakePublisher{}
	svc := newTestService(t, repo, ordersPub, &fakePublisher{})

	if _, err := svc.processBatch(context.Background()); err != nil {
		t.Fatalf("processBatch: %v", err)
	}
	if len(repo.failed) != 1 || repo.failed[0] != event.ID {
		t.Fatalf("expected unroutable event marked failed, got %v", repo.failed)
	}
	if len(ordersPub.messages) != 0 {
		t.Fatal("unroutable event must not be published")
	}
}

func TestVendorAccountEventsSkipNotificationTopic(t *testing.T) {
	vendorID := uuid.New()
	data, _ := json.Marshal(payloads.VendorAccountUpdatedEvent{VendorID: vendorID})
	envelope, _ := json.Marshal(outbox.PayloadEnvelope{Version: 1, EventID: uuid.NewString(), Data: data})
	event := models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventVendorAccountUpdated,
		AggregateType: enums.AggregateVendor,
		AggregateID:   vendorID,
		Payload:       envelope,
	}
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	ordersPub := &fakePublisher{}
	notificationPub := &fakePublisher{}
	svc := newTestService(t, repo, ordersPub, notificationPub)

	if _, err := svc.processBatch(context.Background()); err != nil {
		t.Fatalf("processBatch: %v", err)
	}
	if len(ordersPub.messages) != 1 {
		t.Fatalf("expected realtime publish, got %d", len(ordersPub.messages))
	}
	if len(notificationPub.messages) != 0 {
		t.Fatalf("vendor account events should not reach the notification topic, got %d", len(notificationPub.messages))
	}
	if len(repo.published) != 1 {
		t.Fatalf("expected event marked published, got %v", repo.published)
	}
}
