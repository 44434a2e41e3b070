// Package stripewebhook turns verified Stripe events into order and vendor
// account state changes. Confirmation is webhook-driven: client-side redirects
// are never trusted.
package stripewebhook

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"

	"github.com/platebite/platebite-backend/pkg/db/models"
	pkgerrors "github.com/platebite/platebite-backend/pkg/errors"
	"github.com/platebite/platebite-backend/pkg/logger"
	"github.com/platebite/platebite-backend/pkg/metrics"
)

const (
	outcomeProcessed = "processed"
	outcomeIgnored   = "ignored"
	outcomeFailed    = "failed"
)

type orderSettlement interface {
	ConfirmPayment(ctx context.Context, orderID uuid.UUID, paymentRef string) (*models.Order, error)
	FailPayment(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	GetByPaymentRef(ctx context.Context, ref string) (*models.Order, error)
}

type vendorAccountSync interface {
	SyncVendorAccount(ctx context.Context, stripeAccountID string, chargesEnabled, payoutsEnabled bool) error
}

// ServiceParams wires the webhook service dependencies.
type ServiceParams struct {
	Orders   orderSettlement
	Payments vendorAccountSync
	Metrics  *metrics.EventingMetrics
	Logger   *logger.Logger
}

type Service struct {
	orders   orderSettlement
	payments vendorAccountSync
	metrics  *metrics.EventingMetrics
	logg     *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order settlement required")
	}
	if params.Payments == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "vendor account sync required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &Service{
		orders:   params.Orders,
		payments: params.Payments,
		metrics:  params.Metrics,
		logg:     params.Logger,
	}, nil
}

// HandleEvent dispatches one verified Stripe event. Unrecognized types are
// acknowledged so Stripe stops retrying them.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	var err error
	switch event.Type {
	case stripe.EventTypePaymentIntentSucceeded:
		err = s.handlePaymentIntentSucceeded(ctx, event)
	case stripe.EventTypePaymentIntentPaymentFailed:
		err = s.handlePaymentIntentFailed(ctx, event)
	case stripe.EventTypeAccountUpdated:
		err = s.handleAccountUpdated(ctx, event)
	default:
		s.metrics.IncWebhook(string(event.Type), outcomeIgnored)
		return nil
	}

	if err != nil {
		s.metrics.IncWebhook(string(event.Type), outcomeFailed)
		return err
	}
	s.metrics.IncWebhook(string(event.Type), outcomeProcessed)
	return nil
}

func (s *Service) handlePaymentIntentSucceeded(ctx context.Context, event *stripe.Event) error {
	intent, err := decodePaymentIntent(event)
	if err != nil {
		return err
	}
	orderID, err := s.orderIDForIntent(ctx, intent)
	if err != nil {
		return err
	}

	order, err := s.orders.ConfirmPayment(ctx, orderID, intent.ID)
	if err != nil {
		return err
	}

	logCtx := s.logg.WithOrderID(ctx, order.ID.String())
	s.logg.Info(logCtx, "order confirmed by payment settlement")
	return nil
}

func (s *Service) handlePaymentIntentFailed(ctx context.Context, event *stripe.Event) error {
	intent, err := decodePaymentIntent(event)
	if err != nil {
		return err
	}
	orderID, err := s.orderIDForIntent(ctx, intent)
	if err != nil {
		return err
	}

	order, err := s.orders.FailPayment(ctx, orderID)
	if err != nil {
		return err
	}

	logCtx := s.logg.WithOrderID(ctx, order.ID.String())
	s.logg.Warn(logCtx, "payment attempt failed, order stays pending")
	return nil
}

func (s *Service) handleAccountUpdated(ctx context.Context, event *stripe.Event) error {
	var account stripe.Account
	if err := json.Unmarshal(event.Data.Raw, &account); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode account event")
	}
	if account.ID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "account id missing")
	}

	err := s.payments.SyncVendorAccount(ctx, account.ID, account.ChargesEnabled, account.PayoutsEnabled)
	if err != nil && pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		// Accounts created outside onboarding are not ours to track.
		return nil
	}
	return err
}

func (s *Service) orderIDForIntent(ctx context.Context, intent *stripe.PaymentIntent) (uuid.UUID, error) {
	if raw, ok := intent.Metadata["order_id"]; ok && raw != "" {
		orderID, err := uuid.Parse(raw)
		if err != nil {
			return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order_id metadata")
		}
		return orderID, nil
	}

	// Older intents predate the metadata; fall back to the stored reference.
	order, err := s.orders.GetByPaymentRef(ctx, intent.ID)
	if err != nil {
		return uuid.Nil, err
	}
	return order.ID, nil
}

func decodePaymentIntent(event *stripe.Event) (*stripe.PaymentIntent, error) {
	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode payment intent event")
	}
	if intent.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment intent id missing")
	}
	return &intent, nil
}
