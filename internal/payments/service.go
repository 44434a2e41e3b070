// Package payments coordinates settlement: it raises Stripe payment intents
// with the platform's application fee and routes the vendor's share to their
// connected account.
package payments

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"

	"github.com/platebite/platebite-backend/internal/orders"
	"github.com/platebite/platebite-backend/pkg/db/models"
	"github.com/platebite/platebite-backend/pkg/enums"
	pkgerrors "github.com/platebite/platebite-backend/pkg/errors"
	"github.com/platebite/platebite-backend/pkg/logger"
	"github.com/platebite/platebite-backend/pkg/money"
	"github.com/platebite/platebite-backend/pkg/outbox"
	"github.com/platebite/platebite-backend/pkg/outbox/payloads"
)

const currencyGBP = "gbp"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Intent is what the client needs to complete payment in the browser.
type Intent struct {
	PaymentIntentID     string
	ClientSecret        string
	AmountPence         int64
	ApplicationFeePence int64
}

// Service starts settlements and keeps vendor connected accounts in sync.
type Service interface {
	Initiate(ctx context.Context, orderID, customerID uuid.UUID) (*Intent, error)
	// SyncVendorAccount applies connected-account capability changes pushed
	// by Stripe's account.updated event.
	SyncVendorAccount(ctx context.Context, stripeAccountID string, chargesEnabled, payoutsEnabled bool) error
}

// ServiceParams wires the payment service dependencies.
type ServiceParams struct {
	DB       txRunner
	Accounts AccountsRepository
	Orders   orders.Service
	Stripe   StripePaymentClient
	Events   eventEmitter
	Rates    money.Rates
	Logger   *logger.Logger
}

type service struct {
	db       txRunner
	accounts AccountsRepository
	orders   orders.Service
	stripe   StripePaymentClient
	events   eventEmitter
	rates    money.Rates
	logg     *logger.Logger
}

// NewService builds the payment service, failing fast on missing deps.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("payment service requires a transaction runner")
	}
	if params.Accounts == nil {
		return nil, fmt.Errorf("payment service requires the accounts repository")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("payment service requires the order service")
	}
	if params.Stripe == nil {
		return nil, fmt.Errorf("payment service requires a stripe client")
	}
	if params.Events == nil {
		return nil, fmt.Errorf("payment service requires the outbox emitter")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("payment service requires a logger")
	}
	return &service{
		db:       params.DB,
		accounts: params.Accounts,
		orders:   params.Orders,
		stripe:   params.Stripe,
		events:   params.Events,
		rates:    params.Rates,
		logg:     params.Logger,
	}, nil
}

// Initiate raises a payment intent for a pending order. The application fee
// keeps the service fee plus platform commission on the platform account and
// transfer_data routes the remainder to the vendor. The call is idempotent on
// the order id, so a double-submit reuses the same intent at Stripe.
func (s *service) Initiate(ctx context.Context, orderID, customerID uuid.UUID) (*Intent, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.CustomerID != customerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another customer")
	}
	if order.Status != enums.OrderStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "only pending orders accept payment").
			WithDetails(map[string]any{"status": order.Status.String()})
	}
	if order.PaymentStatus == enums.PaymentStatusPaid {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is already paid")
	}

	// Missing or charges-disabled connected accounts clear once onboarding
	// completes, so the caller gets a retryable dependency code rather than
	// the terminal conflict a non-pending order gets above.
	account, err := s.accounts.FindVendorAccount(ctx, order.VendorID)
	if err != nil {
		if pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeDependency, "vendor cannot accept payments yet")
		}
		return nil, err
	}
	if !account.ChargesEnabled {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "vendor cannot accept payments yet")
	}

	stripeCustomerID, err := s.ensureStripeCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}

	applicationFee := order.ServiceFeePence + money.PlatformCommission(order.SubtotalPence, s.rates.PlatformCommission)

	params := &stripe.PaymentIntentParams{
		Amount:               stripe.Int64(order.TotalPence),
		Currency:             stripe.String(currencyGBP),
		Customer:             stripe.String(stripeCustomerID),
		ApplicationFeeAmount: stripe.Int64(applicationFee),
		TransferData: &stripe.PaymentIntentTransferDataParams{
			Destination: stripe.String(account.StripeAccountID),
		},
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.AddMetadata("order_id", order.ID.String())
	params.SetIdempotencyKey(fmt.Sprintf("order-intent-%s", order.ID))

	intent, err := s.stripe.CreatePaymentIntent(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment intent")
	}

	if err := s.orders.MarkPaymentInitiated(ctx, order.ID, intent.ID); err != nil {
		return nil, err
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"order_id":       order.ID.String(),
		"payment_intent": intent.ID,
	})
	s.logg.Info(logCtx, "payment intent created")

	return &Intent{
		PaymentIntentID:     intent.ID,
		ClientSecret:        intent.ClientSecret,
		AmountPence:         order.TotalPence,
		ApplicationFeePence: applicationFee,
	}, nil
}

func (s *service) ensureStripeCustomer(ctx context.Context, customerID uuid.UUID) (string, error) {
	profile, err := s.accounts.FindCustomerProfile(ctx, customerID)
	if err == nil {
		return profile.StripeCustomerID, nil
	}
	if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		return "", err
	}

	params := &stripe.CustomerParams{}
	params.AddMetadata("customer_id", customerID.String())
	params.SetIdempotencyKey(fmt.Sprintf("customer-%s", customerID))
	created, err := s.stripe.CreateCustomer(ctx, params)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create stripe customer")
	}

	profile = &models.CustomerProfile{
		CustomerID:       customerID,
		StripeCustomerID: created.ID,
	}
	if err := s.accounts.CreateCustomerProfile(ctx, profile); err != nil {
		// A concurrent Initiate inserted the profile first; its row wins.
		if pkgerrors.HasCode(err, pkgerrors.CodeConflict) {
			existing, findErr := s.accounts.FindCustomerProfile(ctx, customerID)
			if findErr != nil {
				return "", findErr
			}
			return existing.StripeCustomerID, nil
		}
		return "", err
	}
	return created.ID, nil
}

func (s *service) SyncVendorAccount(ctx context.Context, stripeAccountID string, chargesEnabled, payoutsEnabled bool) error {
	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.accounts.WithTx(tx)
		account, err := repo.FindVendorAccountByStripeID(ctx, stripeAccountID)
		if err != nil {
			return err
		}
		if account.ChargesEnabled == chargesEnabled && account.PayoutsEnabled == payoutsEnabled {
			return nil
		}

		account.ChargesEnabled = chargesEnabled
		account.PayoutsEnabled = payoutsEnabled
		if err := repo.UpsertVendorAccount(ctx, account); err != nil {
			return err
		}

		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventVendorAccountUpdated,
			AggregateType: enums.AggregateVendor,
			AggregateID:   account.VendorID,
			Version:       1,
			Data: payloads.VendorAccountUpdatedEvent{
				VendorID:       account.VendorID,
				ChargesEnabled: chargesEnabled,
				PayoutsEnabled: payoutsEnabled,
			},
		})
	})
}
