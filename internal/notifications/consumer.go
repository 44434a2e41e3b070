package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/platebite/platebite-backend/pkg/enums"
	pkgerrors "github.com/platebite/platebite-backend/pkg/errors"
	"github.com/platebite/platebite-backend/pkg/logger"
	"github.com/platebite/platebite-backend/pkg/outbox"
	"github.com/platebite/platebite-backend/pkg/outbox/payloads"
)

// Consumer translates published domain events into stored notifications. A
// returned error nacks the message so delivery retries; at-least-once
// semantics mean a duplicate alert is possible and acceptable.
type Consumer struct {
	svc  Service
	logg *logger.Logger
}

func NewConsumer(svc Service, logg *logger.Logger) (*Consumer, error) {
	if svc == nil {
		return nil, fmt.Errorf("consumer requires the notification service")
	}
	if logg == nil {
		return nil, fmt.Errorf("consumer requires a logger")
	}
	return &Consumer{svc: svc, logg: logg}, nil
}

// Handle processes one message given its attributes and envelope payload.
func (c *Consumer) Handle(ctx context.Context, attributes map[string]string, payload []byte) error {
	eventType := enums.OutboxEventType(attributes["event_type"])

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeIntegrity, err, "decode event envelope")
	}

	switch eventType {
	case enums.EventOrderCreated:
		var event payloads.OrderCreatedEvent
		if err := json.Unmarshal(envelope.Data, &event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeIntegrity, err, "decode order.created payload")
		}
		return c.svc.RecordOrderCreated(ctx, event)
	case enums.EventOrderUpdated:
		var event payloads.OrderUpdatedEvent
		if err := json.Unmarshal(envelope.Data, &event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeIntegrity, err, "decode order.updated payload")
		}
		return c.svc.RecordOrderUpdated(ctx, event)
	default:
		// Vendor account events do not raise notifications.
		c.logg.Info(ctx, fmt.Sprintf("skipping %s event", eventType))
		return nil
	}
}
