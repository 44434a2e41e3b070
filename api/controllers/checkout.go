package controllers

import (
	"net/http"

	"github.com/platebite/platebite-backend/api/responses"
	"github.com/platebite/platebite-backend/internal/checkout"
	"github.com/platebite/platebite-backend/pkg/enums"
	pkgerrors "github.com/platebite/platebite-backend/pkg/errors"
	"github.com/platebite/platebite-backend/pkg/logger"
)

// CheckoutSteps returns the ordered step sequence for a fulfilment type so
// every client renders the same flow.
func CheckoutSteps(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		fulfilment, err := fulfilmentFromQuery(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"fulfilment_type": fulfilment,
			"steps":           checkout.Steps(fulfilment),
		})
	}
}

// CheckoutNextStep resolves the step after the one the client is on.
func CheckoutNextStep(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		fulfilment, err := fulfilmentFromQuery(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		current, err := enums.ParseCheckoutStep(r.URL.Query().Get("current"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid current step"))
			return
		}

		next, err := checkout.NextStep(current, fulfilment)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"next": next})
	}
}

// CheckoutPrevStep resolves the step before the one the client is on.
func CheckoutPrevStep(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		fulfilment, err := fulfilmentFromQuery(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		current, err := enums.ParseCheckoutStep(r.URL.Query().Get("current"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid current step"))
			return
		}

		prev, err := checkout.PrevStep(current, fulfilment)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"previous": prev})
	}
}

func fulfilmentFromQuery(r *http.Request) (enums.FulfilmentType, error) {
	fulfilment, err := enums.ParseFulfilmentType(r.URL.Query().Get("fulfilment_type"))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid fulfilment_type")
	}
	return fulfilment, nil
}
