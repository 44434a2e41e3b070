package orders

import (
	"fmt"

	"github.com/platebite/platebite-backend/pkg/db/models"
	"github.com/platebite/platebite-backend/pkg/enums"
	pkgerrors "github.com/platebite/platebite-backend/pkg/errors"
)

// ActorRole identifies who is attempting a transition. Payment confirmation
// arrives via webhook and acts as the system.
type ActorRole string

const (
	RoleCustomer ActorRole = "customer"
	RoleVendor   ActorRole = "vendor"
	RoleAdmin    ActorRole = "admin"
	RoleSystem   ActorRole = "system"
)

// transitionTable is the complete set of legal status moves. Anything absent
// fails with a state conflict and leaves the order untouched.
var transitionTable = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPending:   {enums.OrderStatusConfirmed, enums.OrderStatusCancelled},
	enums.OrderStatusConfirmed: {enums.OrderStatusPreparing, enums.OrderStatusCancelled},
	enums.OrderStatusPreparing: {enums.OrderStatusReady},
	enums.OrderStatusReady:     {enums.OrderStatusCollected, enums.OrderStatusDelivered},
}

func tableAllows(current, target enums.OrderStatus) bool {
	for _, candidate := range transitionTable[current] {
		if candidate == target {
			return true
		}
	}
	return false
}

// ValidateTransition checks the target against the transition table, the
// order's fulfilment type, and the acting role. It never mutates the order.
func ValidateTransition(order *models.Order, target enums.OrderStatus, role ActorRole) error {
	if order == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order required")
	}
	if !target.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown target status")
	}
	if !tableAllows(order.Status, target) {
		return invalidTransition(order.Status, target)
	}

	// A collection order can only end collected, a delivery order only
	// delivered.
	if target == enums.OrderStatusCollected && order.FulfilmentType != enums.FulfilmentTypeCollection {
		return invalidTransition(order.Status, target)
	}
	if target == enums.OrderStatusDelivered && order.FulfilmentType != enums.FulfilmentTypeDelivery {
		return invalidTransition(order.Status, target)
	}

	if err := validateRole(order.Status, target, role); err != nil {
		return err
	}
	return nil
}

func validateRole(current, target enums.OrderStatus, role ActorRole) error {
	if role == RoleAdmin {
		return nil
	}
	switch {
	case current == enums.OrderStatusPending && target == enums.OrderStatusConfirmed:
		// Only the payment webhook confirms an order.
		if role != RoleSystem {
			return pkgerrors.New(pkgerrors.CodeForbidden, "orders are confirmed by payment settlement only")
		}
	case current == enums.OrderStatusPending && target == enums.OrderStatusCancelled:
		if role != RoleCustomer {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only the customer may cancel a pending order")
		}
	case current == enums.OrderStatusConfirmed && target == enums.OrderStatusCancelled:
		if role != RoleVendor {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only the vendor may cancel a confirmed order")
		}
	default:
		// Fulfilment progress is vendor work.
		if role != RoleVendor {
			return pkgerrors.New(pkgerrors.CodeForbidden, "only the vendor may progress fulfilment")
		}
	}
	return nil
}

func invalidTransition(current, target enums.OrderStatus) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, "invalid order transition").
		WithDetails(map[string]any{
			"from": current.String(),
			"to":   target.String(),
		})
}

// describeTransition is used for log lines.
func describeTransition(current, target enums.OrderStatus) string {
	return fmt.Sprintf("%s -> %s", current, target)
}
