package payments

import (
	"context"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/customer"
	"github.com/stripe/stripe-go/v84/paymentintent"

	pkgstripe "github.com/platebite/platebite-backend/pkg/stripe"
)

// StripePaymentClient exposes the subset of Stripe operations the settlement
// coordinator needs.
type StripePaymentClient interface {
	CreatePaymentIntent(ctx context.Context, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	CreateCustomer(ctx context.Context, params *stripe.CustomerParams) (*stripe.Customer, error)
}

type stripeClientWrapper struct{}

// NewStripeClient wraps the shared Stripe client so the payment service can be
// tested against a fake.
func NewStripeClient(api *pkgstripe.Client) StripePaymentClient {
	if api == nil {
		return nil
	}
	return &stripeClientWrapper{}
}

func (w *stripeClientWrapper) CreatePaymentIntent(ctx context.Context, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	if params != nil {
		params.Context = ctx
	}
	return paymentintent.New(params)
}

func (w *stripeClientWrapper) CreateCustomer(ctx context.Context, params *stripe.CustomerParams) (*stripe.Customer, error) {
	if params != nil {
		params.Context = ctx
	}
	return customer.New(params)
}
