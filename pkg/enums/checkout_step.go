package enums

import "fmt"

// CheckoutStep is one stage of the multi-step checkout sequence.
type CheckoutStep string

const (
	CheckoutStepDetail       CheckoutStep = "detail"
	CheckoutStepAddress      CheckoutStep = "address"
	CheckoutStepTimeslot     CheckoutStep = "timeslot"
	CheckoutStepReview       CheckoutStep = "review"
	CheckoutStepConfirmation CheckoutStep = "confirmation"
)

var validCheckoutSteps = []CheckoutStep{
	CheckoutStepDetail,
	CheckoutStepAddress,
	CheckoutStepTimeslot,
	CheckoutStepReview,
	CheckoutStepConfirmation,
}

// String implements fmt.Stringer.
func (c CheckoutStep) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CheckoutStep.
func (c CheckoutStep) IsValid() bool {
	for _, candidate := range validCheckoutSteps {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCheckoutStep converts raw input into a CheckoutStep.
func ParseCheckoutStep(value string) (CheckoutStep, error) {
	for _, candidate := range validCheckoutSteps {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid checkout step %q", value)
}
