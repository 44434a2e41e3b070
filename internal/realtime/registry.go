// Package realtime maps domain events onto the channels interested clients
// subscribe to. Delivery is at-least-once; consumers reconcile replays by
// comparing timestamps in the payload.
package realtime

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/platebite/platebite-backend/pkg/db/models"
	"github.com/platebite/platebite-backend/pkg/enums"
	pkgerrors "github.com/platebite/platebite-backend/pkg/errors"
	"github.com/platebite/platebite-backend/pkg/outbox"
	"github.com/platebite/platebite-backend/pkg/outbox/payloads"
)

const (
	attrEventType = "event_type"
	attrChannels  = "channels"
	attrEventID   = "event_id"
)

// Route carries everything the publisher needs to fan one event out: the
// channel keys clients filter on, and the ordering key that serializes
// delivery per vendor.
type Route struct {
	Channels    []string
	OrderingKey string
	Attributes  map[string]string
}

// VendorChannel is the channel key carrying every event for one vendor.
func VendorChannel(vendorID fmt.Stringer) string {
	return "vendor." + vendorID.String()
}

// OrderChannel is the channel key carrying updates for one order.
func OrderChannel(orderID fmt.Stringer) string {
	return "order." + orderID.String()
}

// CustomerChannel is the channel key carrying updates for one customer.
func CustomerChannel(customerID fmt.Stringer) string {
	return "customer." + customerID.String()
}

// RouteFor resolves the channels for a stored outbox event. Events are keyed
// on the vendor so one vendor's dashboard observes its orders in commit order.
func RouteFor(event models.OutboxEvent) (*Route, error) {
	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(event.Payload, &envelope); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeIntegrity, err, "decode outbox envelope")
	}

	var channels []string
	var orderingKey string

	switch event.EventType {
	case enums.EventOrderCreated:
		var data payloads.OrderCreatedEvent
		if err := json.Unmarshal(envelope.Data, &data); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeIntegrity, err, "decode order.created payload")
		}
		channels = []string{VendorChannel(data.VendorID), OrderChannel(data.OrderID)}
		orderingKey = VendorChannel(data.VendorID)
	case enums.EventOrderUpdated:
		var data payloads.OrderUpdatedEvent
		if err := json.Unmarshal(envelope.Data, &data); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeIntegrity, err, "decode order.updated payload")
		}
		channels = []string{VendorChannel(data.VendorID), OrderChannel(data.OrderID), CustomerChannel(data.CustomerID)}
		orderingKey = VendorChannel(data.VendorID)
	case enums.EventVendorAccountUpdated:
		var data payloads.VendorAccountUpdatedEvent
		if err := json.Unmarshal(envelope.Data, &data); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeIntegrity, err, "decode vendor.account.updated payload")
		}
		channels = []string{VendorChannel(data.VendorID)}
		orderingKey = VendorChannel(data.VendorID)
	default:
		return nil, pkgerrors.New(pkgerrors.CodeIntegrity, "unroutable outbox event").
			WithDetails(map[string]any{"event_type": string(event.EventType)})
	}

	return &Route{
		Channels:    channels,
		OrderingKey: orderingKey,
		Attributes: map[string]string{
			attrEventType: string(event.EventType),
			attrChannels:  strings.Join(channels, ","),
			attrEventID:   envelope.EventID,
		},
	}, nil
}
