// Package checkout models the client-side checkout sequence so every surface
// agrees on step ordering. Collection orders have no address to capture, so
// that step is skipped entirely.
package checkout

import (
	"github.com/platebite/platebite-backend/pkg/enums"
	pkgerrors "github.com/platebite/platebite-backend/pkg/errors"
)

// Steps returns the ordered checkout sequence for a fulfilment type.
func Steps(fulfilment enums.FulfilmentType) []enums.CheckoutStep {
	if fulfilment == enums.FulfilmentTypeDelivery {
		return []enums.CheckoutStep{
			enums.CheckoutStepDetail,
			enums.CheckoutStepAddress,
			enums.CheckoutStepTimeslot,
			enums.CheckoutStepReview,
			enums.CheckoutStepConfirmation,
		}
	}
	return []enums.CheckoutStep{
		enums.CheckoutStepDetail,
		enums.CheckoutStepTimeslot,
		enums.CheckoutStepReview,
		enums.CheckoutStepConfirmation,
	}
}

// NextStep advances one position in the sequence. Confirmation is terminal.
func NextStep(current enums.CheckoutStep, fulfilment enums.FulfilmentType) (enums.CheckoutStep, error) {
	if !fulfilment.IsValid() {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "fulfilment type must be collection or delivery")
	}
	steps := Steps(fulfilment)
	for i, step := range steps {
		if step != current {
			continue
		}
		if i == len(steps)-1 {
			return "", pkgerrors.New(pkgerrors.CodeStateConflict, "checkout is already complete")
		}
		return steps[i+1], nil
	}
	return "", pkgerrors.New(pkgerrors.CodeValidation, "step does not belong to this checkout sequence").
		WithDetails(map[string]any{"step": current.String(), "fulfilment_type": fulfilment.String()})
}

// PrevStep steps backwards, for clients navigating to an earlier screen.
func PrevStep(current enums.CheckoutStep, fulfilment enums.FulfilmentType) (enums.CheckoutStep, error) {
	if !fulfilment.IsValid() {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "fulfilment type must be collection or delivery")
	}
	steps := Steps(fulfilment)
	for i, step := range steps {
		if step != current {
			continue
		}
		if i == 0 {
			return "", pkgerrors.New(pkgerrors.CodeStateConflict, "already at the first checkout step")
		}
		return steps[i-1], nil
	}
	return "", pkgerrors.New(pkgerrors.CodeValidation, "step does not belong to this checkout sequence").
		WithDetails(map[string]any{"step": current.String(), "fulfilment_type": fulfilment.String()})
}
