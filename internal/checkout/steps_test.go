package checkout

import (
	"testing"

	"github.com/platebite/platebite-backend/pkg/enums"
	pkgerrors "github.com/platebite/platebite-backend/pkg/errors"
)

func TestNextStepDeliverySequence(t *testing.T) {
	cases := []struct {
		current enums.CheckoutStep
		want    enums.CheckoutStep
	}{
		{enums.CheckoutStepDetail, enums.CheckoutStepAddress},
		{enums.CheckoutStepAddress, enums.CheckoutStepTimeslot},
		{enums.CheckoutStepTimeslot, enums.CheckoutStepReview},
		{enums.CheckoutStepReview, enums.CheckoutStepConfirmation},
	}
	for _, tc := range cases {
		got, err := NextStep(tc.current, enums.FulfilmentTypeDelivery)
		if err != nil {
			t.Fatalf("NextStep(%s): %v", tc.current, err)
		}
		if got != tc.want {
			t.Fatalf("NextStep(%s) = %s, want %s", tc.current, got, tc.want)
		}
	}
}

func TestNextStepCollectionSkipsAddress(t *testing.T) {
	got, err := NextStep(enums.CheckoutStepDetail, enums.FulfilmentTypeCollection)
	if err != nil {
		t.Fatalf("NextStep: %v", err)
	}
	if got != enums.CheckoutStepTimeslot {
		t.Fatalf("expected collection checkout to skip address, got %s", got)
	}

	// Address is not part of the collection sequence at all.
	_, err = NextStep(enums.CheckoutStepAddress, enums.FulfilmentTypeCollection)
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected VALIDATION_ERROR for foreign step, got %v", err)
	}
}

func TestNextStepConfirmationIsTerminal(t *testing.T) {
	_, err := NextStep(enums.CheckoutStepConfirmation, enums.FulfilmentTypeDelivery)
	if !pkgerrors.HasCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected STATE_CONFLICT, got %v", err)
	}
}

func TestPrevStep(t *testing.T) {
	got, err := PrevStep(enums.CheckoutStepTimeslot, enums.FulfilmentTypeCollection)
	if err != nil {
		t.Fatalf("PrevStep: %v", err)
	}
	if got != enums.CheckoutStepDetail {
		t.Fatalf("expected detail, got %s", got)
	}

	_, err = PrevStep(enums.CheckoutStepDetail, enums.FulfilmentTypeDelivery)
	if !pkgerrors.HasCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected STATE_CONFLICT at first step, got %v", err)
	}
}

func TestStepsLength(t *testing.T) {
	if got := len(Steps(enums.FulfilmentTypeDelivery)); got != 5 {
		t.Fatalf("expected 5 delivery steps, got %d", got)
	}
	if got := len(Steps(enums.FulfilmentTypeCollection)); got != 4 {
		t.Fatalf("expected 4 collection steps, got %d", got)
	}
}
