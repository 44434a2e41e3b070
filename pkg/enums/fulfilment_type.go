package enums

import "fmt"

// FulfilmentType distinguishes pickup orders from delivered ones.
type FulfilmentType string

const (
	FulfilmentTypeCollection FulfilmentType = "collection"
	FulfilmentTypeDelivery   FulfilmentType = "delivery"
)

var validFulfilmentTypes = []FulfilmentType{
	FulfilmentTypeCollection,
	FulfilmentTypeDelivery,
}

// String implements fmt.Stringer.
func (f FulfilmentType) String() string {
	return string(f)
}

// IsValid reports whether the value is a known FulfilmentType.
func (f FulfilmentType) IsValid() bool {
	for _, candidate := range validFulfilmentTypes {
		if candidate == f {
			return true
		}
	}
	return false
}

// TerminalStatus returns the success terminal state for the fulfilment type.
func (f FulfilmentType) TerminalStatus() OrderStatus {
	if f == FulfilmentTypeDelivery {
		return OrderStatusDelivered
	}
	return OrderStatusCollected
}

// ParseFulfilmentType converts raw input into a FulfilmentType.
func ParseFulfilmentType(value string) (FulfilmentType, error) {
	for _, candidate := range validFulfilmentTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid fulfilment type %q", value)
}
