// Package webhooks terminates provider callbacks. Signature verification and
// replay suppression happen here, before any domain code runs.
package webhooks

import (
	"io"
	"net/http"

	"github.com/stripe/stripe-go/v84/webhook"

	"github.com/platebite/platebite-backend/api/responses"
	stripewebhook "github.com/platebite/platebite-backend/internal/webhooks/stripe"
	pkgerrors "github.com/platebite/platebite-backend/pkg/errors"
	"github.com/platebite/platebite-backend/pkg/logger"
)

// Stripe caps webhook payloads at 64KB; anything larger is not ours.
const maxWebhookBody = 65536

// StripeWebhook verifies the event signature, claims the event id so replays
// are acknowledged without side effects, and hands the event to the webhook
// service. Handler failures release the claim so Stripe's retry can land.
func StripeWebhook(svc *stripewebhook.Service, guard *stripewebhook.IdempotencyGuard, signingSecret string, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		panic("StripeWebhook requires the webhook service")
	}
	if guard == nil {
		panic("StripeWebhook requires the idempotency guard")
	}
	if signingSecret == "" {
		panic("StripeWebhook requires the signing secret")
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody+1))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read webhook body"))
			return
		}
		if len(body) > maxWebhookBody {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "webhook payload too large"))
			return
		}

		event, err := webhook.ConstructEvent(body, r.Header.Get("Stripe-Signature"), signingSecret)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "webhook signature verification failed"))
			return
		}

		ctx = logg.WithFields(ctx, map[string]any{
			"stripe_event_id":   event.ID,
			"stripe_event_type": string(event.Type),
		})

		replay, err := guard.CheckAndMark(ctx, event.ID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "idempotency check failed"))
			return
		}
		if replay {
			logg.Info(ctx, "stripe event already processed")
			responses.WriteSuccess(w, map[string]string{"status": "already_processed"})
			return
		}

		if err := svc.HandleEvent(ctx, &event); err != nil {
			if delErr := guard.Delete(ctx, event.ID); delErr != nil {
				logg.Error(ctx, "failed to release idempotency claim", delErr)
			}
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "processed"})
	}
}
