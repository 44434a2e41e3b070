package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/platebite/platebite-backend/internal/realtime"
	"github.com/platebite/platebite-backend/pkg/config"
	"github.com/platebite/platebite-backend/pkg/db/models"
	"github.com/platebite/platebite-backend/pkg/enums"
	"github.com/platebite/platebite-backend/pkg/logger"
	"github.com/platebite/platebite-backend/pkg/metrics"
)

const (
	defaultBatchSize      = 50
	defaultPollMs         = 500
	defaultPublishTimeout = 15 * time.Second
	defaultMaxAttempts    = 10
	maxBackoff            = 10 * time.Second
	jitterWindow          = 250 * time.Millisecond
)

var jitterSource = rand.New(rand.NewSource(time.Now().UnixNano()))

type dbClient interface {
	Ping(context.Context) error
	WithTx(context.Context, func(tx *gorm.DB) error) error
}

type pubSubClient interface {
	Ping(context.Context) error
	OrdersPublisher() *gcppubsub.Publisher
	NotificationPublisher() *gcppubsub.Publisher
}

type outboxRepository interface {
	FetchUnpublishedForPublish(tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error)
	MarkPublishedTx(tx *gorm.DB, id uuid.UUID) error
	MarkFailedTx(tx *gorm.DB, id uuid.UUID, cause error) error
}

type publisher interface {
	Publish(ctx context.Context, msg *gcppubsub.Message) publishResult
}

type publishResult interface {
	Get(ctx context.Context) (string, error)
}

type routeResolver func(models.OutboxEvent) (*realtime.Route, error)

// ServiceParams wires the publisher loop dependencies. OrdersPublisher and
// NotificationPublisher default to the shared Pub/Sub client's handles and
// exist as fields so tests can substitute fakes.
type ServiceParams struct {
	Config     *config.Config
	Logger     *logger.Logger
	DB         dbClient
	PubSub     pubSubClient
	Repository outboxRepository
	Metrics    *metrics.EventingMetrics

	RouteFor              routeResolver
	OrdersPublisher       publisher
	NotificationPublisher publisher
}

// Service drains the outbox: events are fetched in a transaction, published
// with the vendor ordering key, and marked published in the same transaction
// so at-least-once delivery is the only failure mode.
type Service struct {
	cfg          *config.Config
	logg         *logger.Logger
	db           dbClient
	repo         outboxRepository
	metrics      *metrics.EventingMetrics
	routeFor     routeResolver
	orders       publisher
	notification publisher
	batchSize    int
	maxAttempts  int
	pollInterval time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Config == nil {
		return nil, errors.New("config is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.DB == nil {
		return nil, errors.New("database client is required")
	}
	if params.Repository == nil {
		return nil, errors.New("outbox repository is required")
	}

	routeFor := params.RouteFor
	if routeFor == nil {
		routeFor = realtime.RouteFor
	}

	ordersPub := params.OrdersPublisher
	notificationPub := params.NotificationPublisher
	if ordersPub == nil || notificationPub == nil {
		if params.PubSub == nil {
			return nil, errors.New("pubsub client is required")
		}
		if ordersPub == nil {
			ordersPub = newGCPPublisher(params.PubSub.OrdersPublisher())
		}
		if notificationPub == nil {
			notificationPub = newGCPPublisher(params.PubSub.NotificationPublisher())
		}
	}
	if ordersPub == nil || notificationPub == nil {
		return nil, errors.New("publishers are not configured")
	}

	batch := params.Config.Outbox.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	pollMs := params.Config.Outbox.PollIntervalMS
	if pollMs <= 0 {
		pollMs = defaultPollMs
	}
	maxAttempts := params.Config.Outbox.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}

	return &Service{
		cfg:          params.Config,
		logg:         params.Logger,
		db:           params.DB,
		repo:         params.Repository,
		metrics:      params.Metrics,
		routeFor:     routeFor,
		orders:       ordersPub,
		notification: notificationPub,
		batchSize:    batch,
		maxAttempts:  maxAttempts,
		pollInterval: time.Duration(pollMs) * time.Millisecond,
	}, nil
}

func (s *Service) ensureReadiness(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

// Run polls until the context is canceled, backing off with jitter after a
// batch error so a flapping dependency is not hammered.
func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := s.ensureReadiness(ctx); err != nil {
		return err
	}

	interval := s.pollInterval
	backoff := interval

	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "outbox publisher context canceled")
			return ctx.Err()
		default:
		}

		processed, err := s.processBatch(ctx)
		if err != nil {
			s.logg.Error(ctx, "outbox publisher batch error", err)
			backoff = nextBackoff(backoff, interval, maxBackoff)
			if err := s.sleep(ctx, withJitter(backoff)); err != nil {
				return err
			}
			continue
		}

		backoff = interval

		if processed {
			continue
		}
		if err := s.sleep(ctx, withJitter(interval)); err != nil {
			return err
		}
	}
}

func (s *Service) processBatch(ctx context.Context) (bool, error) {
	processed := false
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		events, err := s.repo.FetchUnpublishedForPublish(tx, s.batchSize, s.maxAttempts)
		if err != nil {
			return err
		}
		if len(events) == 0 {
			return nil
		}

		processed = true
		for _, event := range events {
			fields := s.eventFields(event)

			route, err := s.routeFor(event)
			if err != nil {
				// Unroutable payloads never succeed on retry; park the row by
				// burning its attempts.
				ctxWithFields := s.logg.WithField(s.logg.WithFields(ctx, fields), "error", err.Error())
				s.logg.Warn(ctxWithFields, "outbox event is unroutable")
				s.metrics.IncFailed(string(event.EventType))
				if markErr := s.repo.MarkFailedTx(tx, event.ID, err); markErr != nil {
					return fmt.Errorf("mark failure %s: %w", event.ID, markErr)
				}
				continue
			}
			fields["channels"] = route.Attributes["channels"]
			fields["ordering_key"] = route.OrderingKey

			if err := s.publishEvent(ctx, event, route); err != nil {
				ctxWithFields := s.logg.WithField(s.logg.WithFields(ctx, fields), "error", err.Error())
				s.logg.Warn(ctxWithFields, "outbox publish failed")
				s.metrics.IncFailed(string(event.EventType))
				if markErr := s.repo.MarkFailedTx(tx, event.ID, err); markErr != nil {
					return fmt.Errorf("mark failure %s: %w", event.ID, markErr)
				}
				continue
			}

			if markErr := s.repo.MarkPublishedTx(tx, event.ID); markErr != nil {
				return fmt.Errorf("mark published %s: %w", event.ID, markErr)
			}
			s.metrics.IncPublished(string(event.EventType))
			s.logg.Info(s.logg.WithFields(ctx, fields), "outbox event published")
		}
		return nil
	})
	return processed, err
}

// publishEvent fans the event out to the realtime topic, and for order events
// also to the notification topic. A partial publish is reported as a failure
// and retried whole; consumers dedupe on event_id.
func (s *Service) publishEvent(ctx context.Context, event models.OutboxEvent, route *realtime.Route) error {
	msg := &gcppubsub.Message{
		Data:        event.Payload,
		Attributes:  route.Attributes,
		OrderingKey: route.OrderingKey,
	}

	publishCtx, cancel := context.WithTimeout(ctx, defaultPublishTimeout)
	defer cancel()

	if err := publishTo(publishCtx, s.orders, msg); err != nil {
		return fmt.Errorf("publish realtime: %w", err)
	}

	if event.EventType == enums.EventOrderCreated || event.EventType == enums.EventOrderUpdated {
		if err := publishTo(publishCtx, s.notification, msg); err != nil {
			return fmt.Errorf("publish notification: %w", err)
		}
	}
	return nil
}

func publishTo(ctx context.Context, pub publisher, msg *gcppubsub.Message) error {
	result := pub.Publish(ctx, msg)
	if result == nil {
		return errors.New("publisher returned nil result")
	}
	_, err := result.Get(ctx)
	return err
}

func (s *Service) eventFields(event models.OutboxEvent) map[string]any {
	fields := map[string]any{
		"outbox_id":      event.ID.String(),
		"event_type":     event.EventType,
		"aggregate_type": event.AggregateType,
		"aggregate_id":   event.AggregateID.String(),
		"attempt_count":  event.AttemptCount,
	}
	if event.LastError != nil {
		fields["last_error"] = *event.LastError
	}
	return fields
}

func (s *Service) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func nextBackoff(current, base, max time.Duration) time.Duration {
	if current <= 0 {
		current = base
	}
	next := current * 2
	if next > max {
		return max
	}
	return next
}

func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	jitter := time.Duration(jitterSource.Int63n(int64(jitterWindow)))
	return d + jitter
}

func newGCPPublisher(p *gcppubsub.Publisher) publisher {
	if p == nil {
		return nil
	}
	p.EnableMessageOrdering = true
	return &gcpPublisher{Publisher: p}
}

type gcpPublisher struct {
	*gcppubsub.Publisher
}

func (p *gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	if p == nil || p.Publisher == nil {
		return nil
	}
	return p.Publisher.Publish(ctx, msg)
}
