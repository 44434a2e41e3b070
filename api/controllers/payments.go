package controllers

import (
	"net/http"

	"github.com/platebite/platebite-backend/api/responses"
	"github.com/platebite/platebite-backend/internal/payments"
	"github.com/platebite/platebite-backend/pkg/logger"
)

// InitiatePayment raises the payment intent for a pending order and hands the
// client secret back so the browser can complete payment.
func InitiatePayment(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		panic("InitiatePayment requires the payment service")
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		customerID, err := actorID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		orderID, err := parseUUIDParam(r, "orderID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		intent, err := svc.Initiate(ctx, orderID, customerID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"payment_intent_id":     intent.PaymentIntentID,
			"client_secret":         intent.ClientSecret,
			"amount_pence":          intent.AmountPence,
			"application_fee_pence": intent.ApplicationFeePence,
		})
	}
}
