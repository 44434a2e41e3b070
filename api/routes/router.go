// Package routes assembles the HTTP surface: middleware chain, health probes,
// versioned API groups and the Stripe webhook endpoint.
package routes

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/platebite/platebite-backend/api/controllers"
	"github.com/platebite/platebite-backend/api/controllers/webhooks"
	"github.com/platebite/platebite-backend/api/middleware"
	"github.com/platebite/platebite-backend/internal/notifications"
	"github.com/platebite/platebite-backend/internal/orders"
	"github.com/platebite/platebite-backend/internal/payments"
	"github.com/platebite/platebite-backend/internal/payouts"
	stripewebhook "github.com/platebite/platebite-backend/internal/webhooks/stripe"
	"github.com/platebite/platebite-backend/pkg/db"
	"github.com/platebite/platebite-backend/pkg/logger"
	"github.com/platebite/platebite-backend/pkg/redis"
)

// RouterParams collects everything the HTTP surface depends on.
type RouterParams struct {
	Orders        orders.Service
	Payments      payments.Service
	Payouts       payouts.Service
	Notifications notifications.Service

	Webhooks            *stripewebhook.Service
	WebhookGuard        *stripewebhook.IdempotencyGuard
	StripeSigningSecret string

	DB     db.Pinger
	Redis  redis.Pinger
	Logger *logger.Logger
}

func (p RouterParams) validate() error {
	if p.Orders == nil {
		return fmt.Errorf("router requires the order service")
	}
	if p.Payments == nil {
		return fmt.Errorf("router requires the payment service")
	}
	if p.Payouts == nil {
		return fmt.Errorf("router requires the payout service")
	}
	if p.Notifications == nil {
		return fmt.Errorf("router requires the notification service")
	}
	if p.Webhooks == nil {
		return fmt.Errorf("router requires the webhook service")
	}
	if p.WebhookGuard == nil {
		return fmt.Errorf("router requires the webhook idempotency guard")
	}
	if p.StripeSigningSecret == "" {
		return fmt.Errorf("router requires the stripe signing secret")
	}
	if p.Logger == nil {
		return fmt.Errorf("router requires a logger")
	}
	return nil
}

// NewRouter builds the chi router with the full middleware chain and every
// route group mounted.
func NewRouter(params RouterParams) (http.Handler, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	logg := params.Logger

	r := chi.NewRouter()
	r.Use(middleware.Recoverer(logg))
	r.Use(middleware.RequestID(logg))
	r.Use(middleware.Logging(logg))
	r.Use(middleware.Identity(logg))

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive())
		r.Get("/ready", controllers.HealthReady(params.DB, params.Redis, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/orders", func(r chi.Router) {
			r.With(middleware.RequireRole(middleware.RoleCustomer, logg)).
				Post("/", controllers.CreateOrder(params.Orders, logg))
			r.With(middleware.RequireRole(middleware.RoleCustomer, logg)).
				Get("/", controllers.ListCustomerOrders(params.Orders, logg))
			r.Get("/{orderID}", controllers.GetOrder(params.Orders, logg))
			r.Post("/{orderID}/transition", controllers.TransitionOrder(params.Orders, logg))
			r.With(middleware.RequireRole(middleware.RoleCustomer, logg)).
				Post("/{orderID}/payment", controllers.InitiatePayment(params.Payments, logg))
		})

		r.Route("/vendor", func(r chi.Router) {
			r.Use(middleware.RequireRole(middleware.RoleVendor, logg))
			r.Get("/orders", controllers.ListVendorOrders(params.Orders, logg))
			r.Post("/meals/{mealID}/restock", controllers.RestockMeal(params.Orders, logg))
			r.Get("/payouts", controllers.VendorPayoutReport(params.Payouts, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(params.Notifications, logg))
			r.Post("/{notificationID}/read", controllers.MarkNotificationRead(params.Notifications, logg))
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Get("/steps", controllers.CheckoutSteps(logg))
			r.Get("/steps/next", controllers.CheckoutNextStep(logg))
			r.Get("/steps/prev", controllers.CheckoutPrevStep(logg))
		})

		r.Post("/webhooks/stripe", webhooks.StripeWebhook(params.Webhooks, params.WebhookGuard, params.StripeSigningSecret, logg))
	})

	return r, nil
}
